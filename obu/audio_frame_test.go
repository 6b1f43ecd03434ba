package obu

import (
	"testing"

	"github.com/ausocean/iamf/bits"
	"github.com/google/go-cmp/cmp"
)

func TestAudioFrameGenericRoundTrip(t *testing.T) {
	f := AudioFrame{SubstreamID: 42, Payload: []byte{1, 2, 3, 4, 5}}
	b, err := f.Write(TypeAudioFrame)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(b)
	got, err := ReadAudioFrame(r, TypeAudioFrame)
	if err != nil {
		t.Fatalf("ReadAudioFrame: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAudioFrameDedicatedTypeRoundTrip(t *testing.T) {
	typ := TypeAudioFrameIDN(3)
	f := AudioFrame{SubstreamID: 3, Payload: []byte{9, 9, 9}}
	b, err := f.Write(typ)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(b)
	got, err := ReadAudioFrame(r, typ)
	if err != nil {
		t.Fatalf("ReadAudioFrame: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAudioFrameDedicatedTypeRejectsMismatchedSubstreamID(t *testing.T) {
	f := AudioFrame{SubstreamID: 5, Payload: []byte{1}}
	if _, err := f.Write(TypeAudioFrameIDN(3)); err == nil {
		t.Errorf("expected error: substream_id 5 does not match the id encoded by AudioFrameId3")
	}
}
