package sample

import (
	"testing"

	"github.com/go-audio/audio"
)

func newStereoBuffer(nFrames int) *audio.IntBuffer {
	data := make([]int, nFrames*2)
	for i := 0; i < nFrames; i++ {
		data[2*i] = i       // left: 0,1,2,...
		data[2*i+1] = -i    // right: 0,-1,-2,...
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 48000},
		Data:           data,
		SourceBitDepth: 16,
	}
}

func TestNextChunksEvenly(t *testing.T) {
	buf := newStereoBuffer(10)
	p, err := NewAudioFramePump(buf, 4, Format{BytesPerSample: 2})
	if err != nil {
		t.Fatalf("NewAudioFramePump: %v", err)
	}

	var total int
	for i := 0; i < 3; i++ {
		payload, n, ok := p.Next()
		if !ok {
			t.Fatalf("span %d: expected ok", i)
		}
		if i < 2 && n != 4 {
			t.Errorf("span %d: n = %d, want 4", i, n)
		}
		if i == 2 && n != 2 {
			t.Errorf("final span: n = %d, want 2 (10 %% 4)", n)
		}
		if len(payload) != n*2*2 {
			t.Errorf("span %d: len(payload) = %d, want %d", i, len(payload), n*2*2)
		}
		total += n
	}
	if total != 10 {
		t.Errorf("total samples emitted = %d, want 10", total)
	}
	if _, _, ok := p.Next(); ok {
		t.Errorf("expected exhaustion after all sample-frames consumed")
	}
}

func TestNextPacksLittleEndianSigned16(t *testing.T) {
	buf := newStereoBuffer(1)
	buf.Data[0] = -2 // left sample, 0xFFFE little-endian
	buf.Data[1] = 3  // right sample, 0x0003 little-endian
	p, err := NewAudioFramePump(buf, 1, Format{BytesPerSample: 2})
	if err != nil {
		t.Fatalf("NewAudioFramePump: %v", err)
	}
	payload, n, ok := p.Next()
	if !ok || n != 1 {
		t.Fatalf("Next() = %v, %d, %v", payload, n, ok)
	}
	want := []byte{0xfe, 0xff, 0x03, 0x00}
	if string(payload) != string(want) {
		t.Errorf("payload = % x, want % x", payload, want)
	}
}

func TestNextPacksBigEndian24Bit(t *testing.T) {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 48000},
		Data:           []int{0x010203},
		SourceBitDepth: 24,
	}
	p, err := NewAudioFramePump(buf, 1, Format{BytesPerSample: 3, BigEndian: true})
	if err != nil {
		t.Fatalf("NewAudioFramePump: %v", err)
	}
	payload, n, ok := p.Next()
	if !ok || n != 1 {
		t.Fatalf("Next() = %v, %d, %v", payload, n, ok)
	}
	want := []byte{0x01, 0x02, 0x03}
	if string(payload) != string(want) {
		t.Errorf("payload = % x, want % x", payload, want)
	}
}

func TestNewAudioFramePumpRejectsInvalidArgs(t *testing.T) {
	buf := newStereoBuffer(4)
	if _, err := NewAudioFramePump(nil, 4, Format{BytesPerSample: 2}); err == nil {
		t.Errorf("expected error for nil buffer")
	}
	if _, err := NewAudioFramePump(buf, 0, Format{BytesPerSample: 2}); err == nil {
		t.Errorf("expected error for zero num_samples_per_frame")
	}
	if _, err := NewAudioFramePump(buf, 4, Format{BytesPerSample: 5}); err == nil {
		t.Errorf("expected error for unsupported bytes_per_sample")
	}
}

func TestFormatFromBitDepth(t *testing.T) {
	cases := []struct {
		bitDepth int
		want     int
	}{{16, 2}, {24, 3}, {32, 4}}
	for _, c := range cases {
		f, err := FormatFromBitDepth(c.bitDepth, false)
		if err != nil {
			t.Fatalf("FormatFromBitDepth(%d): %v", c.bitDepth, err)
		}
		if f.BytesPerSample != c.want {
			t.Errorf("FormatFromBitDepth(%d).BytesPerSample = %d, want %d", c.bitDepth, f.BytesPerSample, c.want)
		}
	}
	if _, err := FormatFromBitDepth(12, false); err == nil {
		t.Errorf("expected error for unsupported bit depth 12")
	}
}

func TestRemaining(t *testing.T) {
	buf := newStereoBuffer(10)
	p, err := NewAudioFramePump(buf, 4, Format{BytesPerSample: 2})
	if err != nil {
		t.Fatalf("NewAudioFramePump: %v", err)
	}
	if got := p.Remaining(); got != 10 {
		t.Errorf("Remaining() = %d, want 10", got)
	}
	p.Next()
	if got := p.Remaining(); got != 6 {
		t.Errorf("Remaining() after one span = %d, want 6", got)
	}
}
