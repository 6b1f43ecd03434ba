/*
NAME
  timing.go

DESCRIPTION
  timing.go implements GlobalTimingModule: per-parameter-id and
  per-substream-id "next expected timestamp" counters, advanced as
  parameter blocks and audio frames are assigned their [start, end)
  windows. Timestamps are signed 64-bit sample counts, per spec.md §4.5.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package timing

import (
	"github.com/pkg/errors"

	"github.com/ausocean/iamf/obu"
)

// GlobalTimingModule tracks, for every parameter_id and every substream
// id, the next sample timestamp expected to start there. It is the sole
// owner of this state; the streaming processor holds one instance per IA
// sequence.
type GlobalTimingModule struct {
	nextParameter map[uint32]int64
	nextSubstream map[uint32]int64
}

// NewGlobalTimingModule returns a timing module with every counter
// initialised to zero.
func NewGlobalTimingModule() *GlobalTimingModule {
	return &GlobalTimingModule{
		nextParameter: make(map[uint32]int64),
		nextSubstream: make(map[uint32]int64),
	}
}

// NextParameterBlockTimestamps returns (start, end) for a parameter
// block declaring declaredStart and spanning duration samples, and
// advances the running counter for parameterID. It is InvalidArgument
// for declaredStart to disagree with the module's running value.
func (g *GlobalTimingModule) NextParameterBlockTimestamps(parameterID uint32, declaredStart int64, duration uint32) (start, end int64, err error) {
	running := g.nextParameter[parameterID]
	if declaredStart != running {
		return 0, 0, errors.Wrapf(obu.ErrInvalidArgument, "next_parameter_block_timestamps: parameter_id %d declared start %d disagrees with expected %d", parameterID, declaredStart, running)
	}
	end = running + int64(duration)
	g.nextParameter[parameterID] = end
	return running, end, nil
}

// NextAudioFrameTimestamps returns (start, end) for the next audio frame
// on substreamID, spanning numSamplesPerFrame samples, and advances the
// running counter. Audio frames carry no timestamp on the wire, so there
// is nothing to cross-check against, unlike parameter blocks.
func (g *GlobalTimingModule) NextAudioFrameTimestamps(substreamID uint32, numSamplesPerFrame uint32) (start, end int64) {
	running := g.nextSubstream[substreamID]
	end = running + int64(numSamplesPerFrame)
	g.nextSubstream[substreamID] = end
	return running, end
}

// PeekParameterTimestamp returns the running "next expected" value for
// parameterID without advancing it.
func (g *GlobalTimingModule) PeekParameterTimestamp(parameterID uint32) int64 {
	return g.nextParameter[parameterID]
}

// PeekSubstreamTimestamp returns the running "next expected" value for
// substreamID without advancing it.
func (g *GlobalTimingModule) PeekSubstreamTimestamp(substreamID uint32) int64 {
	return g.nextSubstream[substreamID]
}
