package obu

import (
	"errors"
	"testing"

	"github.com/ausocean/iamf/bits"
	"github.com/google/go-cmp/cmp"
)

func TestWriteReadHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		h    Header
		body []byte
	}{
		{"plain", Header{Type: TypeTemporalDelimiter}, []byte{}},
		{"trimmed", Header{
			Type:                    TypeAudioFrame,
			TrimmingStatusFlag:      true,
			NumSamplesToTrimAtEnd:   5,
			NumSamplesToTrimAtStart: 2,
		}, []byte{0xde, 0xad}},
		{"extended", Header{
			Type:                 TypeCodecConfig,
			ExtensionFlag:        true,
			ExtensionHeaderBytes: []byte{1, 2, 3},
		}, []byte{0xbe, 0xef}},
		{"redundant", Header{Type: TypeIaSequenceHeader, RedundantCopy: true}, []byte{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := bits.NewWriter()
			if err := WriteHeaderAndBody(w, c.h, c.body); err != nil {
				t.Fatalf("WriteHeaderAndBody: %v", err)
			}
			r := bits.NewReader(w.Bytes())
			peeked, err := PeekType(r)
			if err != nil {
				t.Fatalf("PeekType: %v", err)
			}
			if peeked != c.h.Type {
				t.Errorf("PeekType = %v, want %v", peeked, c.h.Type)
			}
			if r.Tell() != 0 {
				t.Errorf("PeekType left cursor at %d, want 0", r.Tell())
			}
			got, err := ReadHeader(r)
			if err != nil {
				t.Fatalf("ReadHeader: %v", err)
			}
			want := c.h
			want.Size = got.Size // derived, not hand-computed above.
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("header round-trip mismatch (-want +got):\n%s", diff)
			}
			if int(got.BodySize()) != len(c.body) {
				t.Errorf("BodySize() = %d, want %d", got.BodySize(), len(c.body))
			}
			gotBody := make([]byte, got.BodySize())
			if err := r.ReadUint8Span(gotBody); err != nil {
				t.Fatalf("ReadUint8Span body: %v", err)
			}
			if diff := cmp.Diff(c.body, gotBody); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadHeaderRewindsOnResourceExhausted(t *testing.T) {
	w := bits.NewWriter()
	if err := WriteHeaderAndBody(w, Header{Type: TypeAudioFrame}, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteHeaderAndBody: %v", err)
	}
	full := w.Bytes()
	// Truncate mid-header: only the first byte (type/flags) is available.
	r := bits.NewReader(full[:1])
	if _, err := ReadHeader(r); !errors.Is(err, ErrResourceExhausted) {
		t.Fatalf("ReadHeader on truncated input: err = %v, want ErrResourceExhausted", err)
	}
	if r.Tell() != 0 {
		t.Errorf("ReadHeader left cursor at %d after ResourceExhausted, want 0", r.Tell())
	}
	// Feed the rest and retry.
	r.Feed(full[1:])
	h, err := ReadHeader(r)
	if err != nil {
		t.Fatalf("ReadHeader after feed: %v", err)
	}
	if h.Type != TypeAudioFrame {
		t.Errorf("Type = %v, want TypeAudioFrame", h.Type)
	}
}

func TestPeekTypeResourceExhaustedLeavesCursor(t *testing.T) {
	r := bits.NewReader(nil)
	if _, err := PeekType(r); !errors.Is(err, ErrResourceExhausted) {
		t.Fatalf("PeekType on empty reader: err = %v, want ErrResourceExhausted", err)
	}
	if r.Tell() != 0 {
		t.Errorf("cursor moved to %d, want 0", r.Tell())
	}
}

func TestSubstreamIDForType(t *testing.T) {
	id, ok := SubstreamIDForType(TypeAudioFrameIDN(5))
	if !ok || id != 5 {
		t.Errorf("SubstreamIDForType(AudioFrameIDN(5)) = %d, %v, want 5, true", id, ok)
	}
	if _, ok := SubstreamIDForType(TypeAudioFrame); ok {
		t.Errorf("SubstreamIDForType(generic AudioFrame) should be ok=false")
	}
}

func TestTypeIsReserved(t *testing.T) {
	if !TypeReservedRangeStart.IsReserved() {
		t.Errorf("TypeReservedRangeStart should be reserved")
	}
	if TypeAudioFrame.IsReserved() {
		t.Errorf("TypeAudioFrame should not be reserved")
	}
	if !TypeAudioFrameIDN(18).IsReserved() {
		t.Errorf("type past the 18 dedicated audio-frame ids but before the reserved range should be reserved")
	}
}

func TestTypeIsDescriptor(t *testing.T) {
	for _, typ := range []Type{TypeCodecConfig, TypeAudioElement, TypeMixPresentation} {
		if !typ.IsDescriptor() {
			t.Errorf("%v should be a descriptor", typ)
		}
	}
	for _, typ := range []Type{TypeIaSequenceHeader, TypeParameterBlock, TypeAudioFrame} {
		if typ.IsDescriptor() {
			t.Errorf("%v should not be a descriptor", typ)
		}
	}
}
