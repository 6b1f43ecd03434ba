/*
NAME
  pump.go

DESCRIPTION
  pump.go implements AudioFramePump: a thin helper that slices a decoded
  PCM buffer into num_samples_per_frame-sized spans and serialises each
  span to the raw little/big-endian sample bytes an LPCM AudioFrame
  payload expects. It is explicitly not a decoder — callers hand it an
  already-decoded *audio.IntBuffer from github.com/go-audio/wav or any
  other github.com/go-audio source.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sample chunks decoded PCM audio into the fixed-size, per-frame
// spans an IAMF encoder's sequencer needs one AudioFrame OBU at a time.
package sample

import (
	"encoding/binary"

	"github.com/go-audio/audio"
	"github.com/pkg/errors"
)

// Format describes how each integer sample in a PCM buffer should be
// packed into bytes, mirroring the sample_size/sample_format_flags fields
// of an LPCM CodecConfig (see iamf/codecconfig.LPCM).
type Format struct {
	// BytesPerSample is the packed sample width: 2, 3 or 4.
	BytesPerSample int
	// BigEndian selects big-endian byte order; little-endian otherwise.
	BigEndian bool
}

// FormatFromBitDepth derives a Format from a bit depth as carried by
// audio.IntBuffer.SourceBitDepth. Only 16, 24 and 32 are accepted (2, 3
// and 4 bytes per sample); any other depth, 8 included, is an error.
func FormatFromBitDepth(bitDepth int, bigEndian bool) (Format, error) {
	switch bitDepth {
	case 16:
		return Format{BytesPerSample: 2, BigEndian: bigEndian}, nil
	case 24:
		return Format{BytesPerSample: 3, BigEndian: bigEndian}, nil
	case 32:
		return Format{BytesPerSample: 4, BigEndian: bigEndian}, nil
	default:
		return Format{}, errors.Errorf("sample: unsupported bit depth %d", bitDepth)
	}
}

// AudioFramePump slices a fully decoded PCM buffer into consecutive spans
// of numSamplesPerFrame sample-frames (one sample-frame covers all
// channels at a given instant), in the order an IAMF encoder emits
// AudioFrame OBUs.
type AudioFramePump struct {
	buf                *audio.IntBuffer
	format             Format
	numSamplesPerFrame int
	channels           int
	nextFrame          int // next sample-frame index, in units of numSamplesPerFrame
}

// NewAudioFramePump returns a pump over buf, chunking it into spans of
// numSamplesPerFrame sample-frames packed per format. buf.Data must be
// interleaved across buf.Format.NumChannels, as github.com/go-audio
// decoders produce it.
func NewAudioFramePump(buf *audio.IntBuffer, numSamplesPerFrame int, format Format) (*AudioFramePump, error) {
	if buf == nil || buf.Format == nil {
		return nil, errors.New("sample: nil buffer or format")
	}
	if buf.Format.NumChannels <= 0 {
		return nil, errors.Errorf("sample: invalid channel count %d", buf.Format.NumChannels)
	}
	if numSamplesPerFrame <= 0 {
		return nil, errors.Errorf("sample: num_samples_per_frame must be positive, got %d", numSamplesPerFrame)
	}
	switch format.BytesPerSample {
	case 2, 3, 4:
	default:
		return nil, errors.Errorf("sample: unsupported bytes_per_sample %d", format.BytesPerSample)
	}
	return &AudioFramePump{
		buf:                buf,
		format:             format,
		numSamplesPerFrame: numSamplesPerFrame,
		channels:           buf.Format.NumChannels,
	}, nil
}

// Next returns the next span's worth of samples packed to PCM bytes and
// the number of sample-frames it spans (numSamplesPerFrame for every span
// but the last, which may be shorter). Callers use numSamples to set
// NumSamplesToTrimAtEnd on the final AudioFrame OBU's header. ok is false
// once the buffer is exhausted.
func (p *AudioFramePump) Next() (payload []byte, numSamples int, ok bool) {
	totalFrames := len(p.buf.Data) / p.channels
	start := p.nextFrame * p.numSamplesPerFrame
	if start >= totalFrames {
		return nil, 0, false
	}
	end := start + p.numSamplesPerFrame
	if end > totalFrames {
		end = totalFrames
	}
	n := end - start

	payload = make([]byte, n*p.channels*p.format.BytesPerSample)
	off := 0
	for i := start; i < end; i++ {
		for c := 0; c < p.channels; c++ {
			v := p.buf.Data[i*p.channels+c]
			packSample(payload[off:off+p.format.BytesPerSample], v, p.format)
			off += p.format.BytesPerSample
		}
	}
	p.nextFrame++
	return payload, n, true
}

// Remaining reports the number of sample-frames not yet returned by Next.
func (p *AudioFramePump) Remaining() int {
	totalFrames := len(p.buf.Data) / p.channels
	start := p.nextFrame * p.numSamplesPerFrame
	if start >= totalFrames {
		return 0
	}
	return totalFrames - start
}

// packSample writes v into dst per format. dst must be exactly
// format.BytesPerSample bytes.
func packSample(dst []byte, v int, format Format) {
	order := binary.ByteOrder(binary.LittleEndian)
	if format.BigEndian {
		order = binary.BigEndian
	}
	switch format.BytesPerSample {
	case 2:
		order.PutUint16(dst, uint16(int16(v)))
	case 3:
		pack24(dst, int32(v), format.BigEndian)
	case 4:
		order.PutUint32(dst, uint32(int32(v)))
	}
}

// pack24 writes the low 24 bits of v into dst (exactly 3 bytes) in the
// given byte order; go-audio has no native 24-bit integer type.
func pack24(dst []byte, v int32, bigEndian bool) {
	u := uint32(v)
	if bigEndian {
		dst[0] = byte(u >> 16)
		dst[1] = byte(u >> 8)
		dst[2] = byte(u)
		return
	}
	dst[0] = byte(u)
	dst[1] = byte(u >> 8)
	dst[2] = byte(u >> 16)
}
