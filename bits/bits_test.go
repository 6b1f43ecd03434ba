package bits

import (
	"errors"
	"strings"
	"testing"
)

func TestWriteReadUnsignedRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		value uint64
		nBits int
	}{
		{"1bit-0", 0, 1},
		{"1bit-1", 1, 1},
		{"byte", 0xab, 8},
		{"straddles-bytes", 0x3ff, 10},
		{"32bit", 0xdeadbeef, 32},
		{"64bit", 0xfedcba9876543210, 64},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWriter()
			if err := w.WriteUnsigned(c.value, c.nBits); err != nil {
				t.Fatalf("WriteUnsigned: %v", err)
			}
			r := NewReader(w.Bytes())
			got, err := r.ReadUnsigned(c.nBits)
			if err != nil {
				t.Fatalf("ReadUnsigned: %v", err)
			}
			if got != c.value {
				t.Errorf("got %#x, want %#x", got, c.value)
			}
		})
	}
}

func TestWriteUnsignedRejectsOutOfRange(t *testing.T) {
	w := NewWriter()
	if err := w.WriteUnsigned(256, 8); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if err := w.WriteUnsigned(0, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for n_bits=0, got %v", err)
	}
	if err := w.WriteUnsigned(0, 65); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for n_bits=65, got %v", err)
	}
}

func TestSigned16RoundTrip(t *testing.T) {
	for _, v := range []int16{0, 1, -1, 32767, -32768, 1000} {
		w := NewWriter()
		if err := w.WriteSigned16(v); err != nil {
			t.Fatalf("WriteSigned16(%d): %v", v, err)
		}
		r := NewReader(w.Bytes())
		got, err := r.ReadSigned16()
		if err != nil {
			t.Fatalf("ReadSigned16: %v", err)
		}
		if got != v {
			t.Errorf("got %d, want %d", got, v)
		}
	}
}

func TestBoolRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteBool(true)
	// Pad to a byte boundary.
	w.WriteUnsigned(0, 5)

	r := NewReader(w.Bytes())
	for _, want := range []bool{true, false, true} {
		got, err := r.ReadBool()
		if err != nil {
			t.Fatalf("ReadBool: %v", err)
		}
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestUleb128MinimalRoundTrip(t *testing.T) {
	cases := []struct {
		value     uint32
		wantBytes int
	}{
		{0, 1},
		{0x7f, 1},
		{0x80, 2},
		{0x3fff, 2},
		{0x4000, 3},
		{0xfffffff, 4},
		{0x10000000, 5},
		{0xffffffff, 5},
	}
	for _, c := range cases {
		w := NewWriter()
		if err := w.WriteUleb128(c.value); err != nil {
			t.Fatalf("WriteUleb128(%d): %v", c.value, err)
		}
		if w.Len() != c.wantBytes {
			t.Errorf("value %d: wrote %d bytes, want %d", c.value, w.Len(), c.wantBytes)
		}
		r := NewReader(w.Bytes())
		got, n, err := r.ReadUleb128()
		if err != nil {
			t.Fatalf("ReadUleb128: %v", err)
		}
		if got != c.value || n != c.wantBytes {
			t.Errorf("got (%d,%d), want (%d,%d)", got, n, c.value, c.wantBytes)
		}
	}
}

func TestUleb128FixedWidth(t *testing.T) {
	w := NewWriter()
	w.SetLebGenerator(FixedLebGenerator(3))
	if err := w.WriteUleb128(5); err != nil {
		t.Fatalf("WriteUleb128: %v", err)
	}
	if w.Len() != 3 {
		t.Fatalf("expected 3 bytes, got %d", w.Len())
	}
	r := NewReader(w.Bytes())
	got, n, err := r.ReadUleb128()
	if err != nil {
		t.Fatalf("ReadUleb128: %v", err)
	}
	if got != 5 || n != 3 {
		t.Errorf("got (%d,%d), want (5,3)", got, n)
	}
}

func TestUleb128NonMinimalAcceptedOnRead(t *testing.T) {
	// 5 bytes, each carrying a zero payload except the value itself in the
	// first byte; continuation bits set on all but the last.
	data := []byte{0x85, 0x80, 0x80, 0x80, 0x00}
	r := NewReader(data)
	got, n, err := r.ReadUleb128()
	if err != nil {
		t.Fatalf("ReadUleb128: %v", err)
	}
	if got != 5 || n != 5 {
		t.Errorf("got (%d,%d), want (5,5)", got, n)
	}
}

func TestUleb128OverflowFifthByte(t *testing.T) {
	// Five bytes, all with continuation bit set: exceeds the 5-byte cap.
	data := []byte{0xff, 0xff, 0xff, 0xff, 0xff}
	r := NewReader(data)
	startPos := r.Tell()
	_, _, err := r.ReadUleb128()
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if r.Tell() != startPos {
		t.Errorf("cursor moved on error: got %d, want %d", r.Tell(), startPos)
	}
}

func TestIso14496_1ExpandableRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16383, 16384} {
		w := NewWriter()
		if err := w.WriteIso14496_1Expandable(v, 28); err != nil {
			t.Fatalf("Write(%d): %v", v, err)
		}
		r := NewReader(w.Bytes())
		got, err := r.ReadIso14496_1Expandable(28)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if got != v {
			t.Errorf("got %d, want %d", got, v)
		}
	}
}

func TestIso14496_1ExpandableRejectsOverMaxClassSize(t *testing.T) {
	w := NewWriter()
	if err := w.WriteIso14496_1Expandable(300, 8); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "hello world", strings.Repeat("x", 126)} {
		w := NewWriter()
		if err := w.WriteString(s); err != nil {
			t.Fatalf("WriteString(%q): %v", s, err)
		}
		r := NewReader(w.Bytes())
		got, err := r.ReadString()
		if err != nil {
			t.Fatalf("ReadString: %v", err)
		}
		if got != s {
			t.Errorf("got %q, want %q", got, s)
		}
	}
}

func TestStringTooLongRejected(t *testing.T) {
	w := NewWriter()
	if err := w.WriteString(string(make([]byte, 128))); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestReadUint8Span(t *testing.T) {
	w := NewWriter()
	want := []byte{1, 2, 3, 4, 5}
	if err := w.WriteBytes(want); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	r := NewReader(w.Bytes())
	got := make([]byte, len(want))
	if err := r.ReadUint8Span(got); err != nil {
		t.Fatalf("ReadUint8Span: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResourceExhaustedLeavesCursorUnchanged(t *testing.T) {
	r := NewReader([]byte{0xff})
	startPos := r.Tell()
	_, err := r.ReadUnsigned(16)
	if !errors.Is(err, ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted, got %v", err)
	}
	if r.Tell() != startPos {
		t.Errorf("cursor moved: got %d, want %d", r.Tell(), startPos)
	}

	// Feed more data and retry.
	r.Feed([]byte{0x00})
	got, err := r.ReadUnsigned(16)
	if err != nil {
		t.Fatalf("ReadUnsigned after Feed: %v", err)
	}
	if got != 0xff00 {
		t.Errorf("got %#x, want 0xff00", got)
	}
}

func TestTellAndSeek(t *testing.T) {
	w := NewWriter()
	w.WriteUnsigned(0xabcd, 16)
	w.WriteUnsigned(0x12, 8)
	r := NewReader(w.Bytes())
	if _, err := r.ReadUnsigned(16); err != nil {
		t.Fatalf("ReadUnsigned: %v", err)
	}
	if r.Tell() != 16 {
		t.Fatalf("Tell: got %d, want 16", r.Tell())
	}
	if err := r.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got, err := r.ReadUnsigned(24)
	if err != nil {
		t.Fatalf("ReadUnsigned after seek: %v", err)
	}
	if got != 0xabcd12 {
		t.Errorf("got %#x, want 0xabcd12", got)
	}
}

func TestSeekNegativeRejected(t *testing.T) {
	r := NewReader([]byte{0x00})
	if err := r.Seek(-1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
