package obu

import (
	"testing"

	"github.com/ausocean/iamf/bits"
	"github.com/google/go-cmp/cmp"
)

func TestIaSequenceHeaderRoundTrip(t *testing.T) {
	h := IaSequenceHeader{PrimaryProfile: ProfileSimple, AdditionalProfile: ProfileBase}
	b, err := h.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(b)
	got, err := ReadIaSequenceHeader(r)
	if err != nil {
		t.Fatalf("ReadIaSequenceHeader: %v", err)
	}
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestIaSequenceHeaderRejectsBadMagic(t *testing.T) {
	r := bits.NewReader([]byte{0, 0, 0, 0, 0, 0})
	if _, err := ReadIaSequenceHeader(r); err == nil {
		t.Errorf("expected error for bad magic")
	}
}
