package obu

import (
	"testing"

	"github.com/ausocean/iamf/bits"
)

func TestTemporalDelimiterRoundTrip(t *testing.T) {
	b, err := TemporalDelimiter{}.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(b) != 0 {
		t.Errorf("Write() = %v, want empty body", b)
	}
	r := bits.NewReader(b)
	if _, err := ReadTemporalDelimiter(r); err != nil {
		t.Fatalf("ReadTemporalDelimiter: %v", err)
	}
}
