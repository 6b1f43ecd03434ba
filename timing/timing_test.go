package timing

import (
	"errors"
	"testing"

	"github.com/ausocean/iamf/obu"
)

func TestNextParameterBlockTimestampsAdvances(t *testing.T) {
	g := NewGlobalTimingModule()

	start, end, err := g.NextParameterBlockTimestamps(1, 0, 100)
	if err != nil {
		t.Fatalf("NextParameterBlockTimestamps: %v", err)
	}
	if start != 0 || end != 100 {
		t.Errorf("start,end = %d,%d, want 0,100", start, end)
	}

	start, end, err = g.NextParameterBlockTimestamps(1, 100, 50)
	if err != nil {
		t.Fatalf("NextParameterBlockTimestamps: %v", err)
	}
	if start != 100 || end != 150 {
		t.Errorf("start,end = %d,%d, want 100,150", start, end)
	}

	if got := g.PeekParameterTimestamp(1); got != 150 {
		t.Errorf("PeekParameterTimestamp(1) = %d, want 150", got)
	}
}

func TestNextParameterBlockTimestampsRejectsDisagreement(t *testing.T) {
	g := NewGlobalTimingModule()
	if _, _, err := g.NextParameterBlockTimestamps(1, 0, 100); err != nil {
		t.Fatalf("NextParameterBlockTimestamps: %v", err)
	}
	_, _, err := g.NextParameterBlockTimestamps(1, 50, 10)
	if !errors.Is(err, obu.ErrInvalidArgument) {
		t.Errorf("declared_start disagreement: err = %v, want ErrInvalidArgument", err)
	}
}

func TestNextAudioFrameTimestampsAdvances(t *testing.T) {
	g := NewGlobalTimingModule()

	start, end := g.NextAudioFrameTimestamps(10, 960)
	if start != 0 || end != 960 {
		t.Errorf("start,end = %d,%d, want 0,960", start, end)
	}

	start, end = g.NextAudioFrameTimestamps(10, 960)
	if start != 960 || end != 1920 {
		t.Errorf("start,end = %d,%d, want 960,1920", start, end)
	}

	if got := g.PeekSubstreamTimestamp(10); got != 1920 {
		t.Errorf("PeekSubstreamTimestamp(10) = %d, want 1920", got)
	}
}

func TestTimingCountersAreIndependentPerID(t *testing.T) {
	g := NewGlobalTimingModule()
	g.NextAudioFrameTimestamps(1, 960)
	g.NextAudioFrameTimestamps(1, 960)
	g.NextAudioFrameTimestamps(2, 480)

	if got := g.PeekSubstreamTimestamp(1); got != 1920 {
		t.Errorf("substream 1 = %d, want 1920", got)
	}
	if got := g.PeekSubstreamTimestamp(2); got != 480 {
		t.Errorf("substream 2 = %d, want 480", got)
	}

	if _, _, err := g.NextParameterBlockTimestamps(1, 0, 10); err != nil {
		t.Fatalf("NextParameterBlockTimestamps: %v", err)
	}
	if got := g.PeekParameterTimestamp(1); got != 10 {
		t.Errorf("parameter 1 = %d, want 10 (independent of substream 1)", got)
	}
}
