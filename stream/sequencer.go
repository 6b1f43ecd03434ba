/*
NAME
  sequencer.go

DESCRIPTION
  sequencer.go implements Sequencer, the encode-side counterpart to
  Processor: it validates an in-memory IA sequence graph against the
  cross-OBU invariants, then writes it out in mandatory order.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stream

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/ausocean/iamf/bits"
	"github.com/ausocean/iamf/obu"
	"github.com/ausocean/utils/logging"
)

// InsertionHook names where an arbitrary OBU is spliced into the
// sequencer's output, for negative testing and container-level
// extensions the sequencer itself does not generate.
type InsertionHook int

const (
	// AfterDescriptors inserts immediately after the last mix presentation,
	// before the first temporal unit.
	AfterDescriptors InsertionHook = iota
	// AfterParameterBlocksAtTick inserts after the parameter blocks of the
	// temporal unit identified by ArbitraryOBU.Tick, before its audio frames.
	AfterParameterBlocksAtTick
	// AfterAudioFramesAtTick inserts after the audio frames of the temporal
	// unit identified by ArbitraryOBU.Tick.
	AfterAudioFramesAtTick
)

// ArbitraryOBU is a raw, already-serialised OBU to splice into the
// sequencer's output at Hook, optionally at a specific temporal unit Tick.
type ArbitraryOBU struct {
	Hook InsertionHook
	Tick int64 // temporal unit start timestamp; ignored for AfterDescriptors.
	Raw  []byte

	// Invalidate, when true, marks this insertion as deliberately breaking
	// temporal-unit structure. PickAndPlace refuses to write any output at
	// all when it sees this set: it exists only so negative tests can
	// assert the sequencer rejects a corrupt placement rather than
	// silently emitting one.
	Invalidate bool
}

// ParameterBlockPlacement pairs a parameter block with the temporal unit
// (identified by its start timestamp) it belongs to.
type ParameterBlockPlacement struct {
	Tick  int64
	Block obu.ParameterBlock
	Def   obu.ParamDefinition
	// ReconGainIsPresent is required (and only meaningful) when Def.Type
	// is ParamDefinitionTypeReconGain.
	ReconGainIsPresent []bool
}

// AudioFramePlacement pairs an audio frame with the temporal unit it
// belongs to and the OBU type it must be written as.
type AudioFramePlacement struct {
	Tick  int64
	Frame obu.AudioFrame
	Type  obu.Type
}

// Sequencer is the encode-side assembler for one IA sequence.
type Sequencer struct {
	log logging.Logger

	// InterleaveTemporalDelimiters, when true, writes a TemporalDelimiter
	// OBU between every pair of consecutive temporal units.
	InterleaveTemporalDelimiters bool
}

// NewSequencer returns a Sequencer that logs through log.
func NewSequencer(log logging.Logger, options ...func(*Sequencer) error) (*Sequencer, error) {
	s := &Sequencer{log: log}
	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "new_sequencer: option failed")
		}
	}
	return s, nil
}

// WithInterleavedTemporalDelimiters enables a TemporalDelimiter OBU
// between consecutive temporal units.
func WithInterleavedTemporalDelimiters() func(*Sequencer) error {
	return func(s *Sequencer) error {
		s.InterleaveTemporalDelimiters = true
		return nil
	}
}

// PickAndPlace validates header, codecConfigs, audioElements and
// mixPresentations against invariants I1-I5, then writes the complete IA
// sequence: descriptors in mandatory order, followed by temporal units
// ordered by timestamp (parameter blocks before audio frames within a
// unit), with arbitraryOBUs spliced in at their named hooks. On any error
// no bytes are returned.
func (s *Sequencer) PickAndPlace(
	header obu.IaSequenceHeader,
	codecConfigs []obu.CodecConfig,
	audioElements []obu.AudioElement,
	mixPresentations []obu.MixPresentation,
	audioFrames []AudioFramePlacement,
	parameterBlocks []ParameterBlockPlacement,
	arbitraryOBUs []ArbitraryOBU,
) ([]byte, error) {
	for _, a := range arbitraryOBUs {
		if a.Invalidate {
			return nil, errors.Wrap(obu.ErrInvalidArgument, "pick_and_place: arbitrary OBU marked invalidate, refusing to write")
		}
	}

	if err := s.validateGraph(codecConfigs, audioElements, mixPresentations); err != nil {
		return nil, err
	}

	ticks := collectTicks(audioFrames, parameterBlocks)

	buf := bits.NewWriter()

	if err := writeOBU(buf, obu.Header{Type: obu.TypeIaSequenceHeader}, header.Write); err != nil {
		return nil, errors.Wrap(err, "pick_and_place: ia_sequence_header")
	}
	for _, c := range codecConfigs {
		if err := writeOBU(buf, obu.Header{Type: obu.TypeCodecConfig}, c.Write); err != nil {
			return nil, errors.Wrapf(err, "pick_and_place: codec_config %d", c.ID)
		}
	}
	for _, a := range audioElements {
		if err := writeOBU(buf, obu.Header{Type: obu.TypeAudioElement}, a.Write); err != nil {
			return nil, errors.Wrapf(err, "pick_and_place: audio_element %d", a.ID)
		}
	}
	for _, m := range mixPresentations {
		if err := writeOBU(buf, obu.Header{Type: obu.TypeMixPresentation}, m.Write); err != nil {
			return nil, errors.Wrapf(err, "pick_and_place: mix_presentation %d", m.ID)
		}
	}
	for _, raw := range obusForHook(arbitraryOBUs, AfterDescriptors, 0) {
		if err := buf.WriteBytes(raw); err != nil {
			return nil, errors.Wrap(err, "pick_and_place: arbitrary obu after descriptors")
		}
	}

	byTickParams := groupParamsByTick(parameterBlocks)
	byTickFrames := groupFramesByTick(audioFrames)

	for i, tick := range ticks {
		if i > 0 && s.InterleaveTemporalDelimiters {
			if err := writeOBU(buf, obu.Header{Type: obu.TypeTemporalDelimiter}, obu.TemporalDelimiter{}.Write); err != nil {
				return nil, errors.Wrap(err, "pick_and_place: temporal_delimiter")
			}
		}

		for _, placement := range byTickParams[tick] {
			sub := bits.NewWriter()
			if err := placement.Block.Write(sub, placement.Def, placement.ReconGainIsPresent); err != nil {
				return nil, errors.Wrapf(err, "pick_and_place: parameter_block %d at tick %d", placement.Block.ParameterID, tick)
			}
			sub.Flush()
			if err := obu.WriteHeaderAndBody(buf, obu.Header{Type: obu.TypeParameterBlock}, sub.Bytes()); err != nil {
				return nil, errors.Wrapf(err, "pick_and_place: parameter_block %d at tick %d", placement.Block.ParameterID, tick)
			}
		}

		for _, raw := range obusForHook(arbitraryOBUs, AfterParameterBlocksAtTick, tick) {
			if err := buf.WriteBytes(raw); err != nil {
				return nil, errors.Wrapf(err, "pick_and_place: arbitrary obu after parameter blocks at tick %d", tick)
			}
		}

		for _, placement := range byTickFrames[tick] {
			frame := placement.Frame
			if err := writeOBU(buf, obu.Header{Type: placement.Type}, func() ([]byte, error) { return frame.Write(placement.Type) }); err != nil {
				return nil, errors.Wrapf(err, "pick_and_place: audio_frame substream %d at tick %d", placement.Frame.SubstreamID, tick)
			}
		}

		for _, raw := range obusForHook(arbitraryOBUs, AfterAudioFramesAtTick, tick) {
			if err := buf.WriteBytes(raw); err != nil {
				return nil, errors.Wrapf(err, "pick_and_place: arbitrary obu after audio frames at tick %d", tick)
			}
		}
	}

	s.log.Debug("sequence assembled", "bytes", buf.Len(), "ticks", len(ticks))
	return buf.Bytes(), nil
}

// writeOBU serialises body() and writes it as a complete OBU with h's
// type into w.
func writeOBU(w *bits.Writer, h obu.Header, body func() ([]byte, error)) error {
	b, err := body()
	if err != nil {
		return err
	}
	return obu.WriteHeaderAndBody(w, h, b)
}

// validateGraph enforces invariants I1-I5 by driving the same table
// constructors the streaming processor uses: any violation the tables
// reject is a violation PickAndPlace must refuse to write.
func (s *Sequencer) validateGraph(
	codecConfigs []obu.CodecConfig,
	audioElements []obu.AudioElement,
	mixPresentations []obu.MixPresentation,
) error {
	ccTable := obu.NewCodecConfigTable()
	for _, c := range codecConfigs {
		if err := ccTable.Add(c); err != nil {
			return errors.Wrapf(err, "pick_and_place: validate codec_config %d", c.ID)
		}
	}
	aeTable := obu.NewAudioElementTable()
	for _, a := range audioElements {
		if err := aeTable.Add(a, ccTable); err != nil {
			return errors.Wrapf(err, "pick_and_place: validate audio_element %d", a.ID)
		}
	}
	mpTable := obu.NewMixPresentationTable()
	for _, m := range mixPresentations {
		if err := mpTable.Add(m, aeTable); err != nil {
			return errors.Wrapf(err, "pick_and_place: validate mix_presentation %d", m.ID)
		}
	}
	return nil
}

func collectTicks(frames []AudioFramePlacement, params []ParameterBlockPlacement) []int64 {
	seen := make(map[int64]struct{})
	for _, f := range frames {
		seen[f.Tick] = struct{}{}
	}
	for _, p := range params {
		seen[p.Tick] = struct{}{}
	}
	ticks := make([]int64, 0, len(seen))
	for t := range seen {
		ticks = append(ticks, t)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	return ticks
}

func groupParamsByTick(params []ParameterBlockPlacement) map[int64][]ParameterBlockPlacement {
	m := make(map[int64][]ParameterBlockPlacement)
	for _, p := range params {
		m[p.Tick] = append(m[p.Tick], p)
	}
	return m
}

func groupFramesByTick(frames []AudioFramePlacement) map[int64][]AudioFramePlacement {
	m := make(map[int64][]AudioFramePlacement)
	for _, f := range frames {
		m[f.Tick] = append(m[f.Tick], f)
	}
	return m
}

func obusForHook(arbitraryOBUs []ArbitraryOBU, hook InsertionHook, tick int64) [][]byte {
	var raws [][]byte
	for _, a := range arbitraryOBUs {
		if a.Hook != hook {
			continue
		}
		if hook != AfterDescriptors && a.Tick != tick {
			continue
		}
		raws = append(raws, a.Raw)
	}
	return raws
}
