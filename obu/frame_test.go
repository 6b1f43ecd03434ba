package obu

import (
	"errors"
	"testing"

	"github.com/ausocean/iamf/bits"
)

func TestReadBodyFrameCarvesExactSize(t *testing.T) {
	w := bits.NewWriter()
	if err := w.WriteBytes([]byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	r := bits.NewReader(w.Bytes())
	sub, err := ReadBodyFrame(r, 3, 0)
	if err != nil {
		t.Fatalf("ReadBodyFrame: %v", err)
	}
	if sub.RemainingBytes() != 3 {
		t.Errorf("sub.RemainingBytes() = %d, want 3", sub.RemainingBytes())
	}
	if r.RemainingBytes() != 2 {
		t.Errorf("outer reader has %d bytes left, want 2", r.RemainingBytes())
	}
}

func TestReadBodyFrameRejectsOversizedBody(t *testing.T) {
	r := bits.NewReader(make([]byte, 100))
	if _, err := ReadBodyFrame(r, 50, 10); err == nil {
		t.Errorf("expected error: obu_size 50 exceeds allocation cap 10")
	}
}

func TestFinishFrameAcceptsAllZeroTrailer(t *testing.T) {
	sub := bits.NewReader([]byte{0, 0, 0})
	if err := FinishFrame(sub); err != nil {
		t.Errorf("FinishFrame: %v", err)
	}
}

func TestFinishFrameRejectsNonZeroTrailer(t *testing.T) {
	sub := bits.NewReader([]byte{0, 1, 0})
	if err := FinishFrame(sub); err == nil {
		t.Errorf("expected error for non-zero trailing byte")
	}
}

func TestFinishFrameRejectsNonByteAligned(t *testing.T) {
	sub := bits.NewReader([]byte{0xff})
	if _, err := sub.ReadUnsigned(4); err != nil {
		t.Fatalf("ReadUnsigned: %v", err)
	}
	if err := FinishFrame(sub); err == nil {
		t.Errorf("expected error for non-byte-aligned frame")
	}
}

func TestSkipReserved(t *testing.T) {
	w := bits.NewWriter()
	if err := w.WriteBytes([]byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	r := bits.NewReader(w.Bytes())
	if err := SkipReserved(r, 3); err != nil {
		t.Fatalf("SkipReserved: %v", err)
	}
	if r.IsDataAvailable() {
		t.Errorf("expected reader fully consumed after SkipReserved")
	}
}

func TestReadBodyFrameResourceExhausted(t *testing.T) {
	r := bits.NewReader([]byte{1, 2})
	if _, err := ReadBodyFrame(r, 5, 0); !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("ReadBodyFrame short read: err = %v, want ErrResourceExhausted", err)
	}
}
