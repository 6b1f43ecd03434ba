/*
NAME
  processor.go

DESCRIPTION
  processor.go implements Processor, the top-level incremental streaming
  API: it consumes the descriptor prefix of an IA sequence, builds the
  lookup tables, then hands out temporal units one OBU at a time.

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
	"reflect"

	"github.com/pkg/errors"

	"github.com/ausocean/iamf/bits"
	"github.com/ausocean/iamf/obu"
	"github.com/ausocean/iamf/timing"
	"github.com/ausocean/utils/logging"
)

// AudioFrameWithData is an AudioFrame OBU joined with the timing and
// parameter state active when it was assembled.
type AudioFrameWithData struct {
	OBU              obu.AudioFrame
	Start, End       int64
	AudioElementID   uint32
	DownMixingParams timing.DownMixingParams
	ReconGainInfo    obu.ReconGainInfoParameterData
}

// ParameterBlockWithData is a ParameterBlock OBU joined with its assigned
// [start, end) window.
type ParameterBlockWithData struct {
	OBU        obu.ParameterBlock
	Start, End int64
}

// EmissionKind discriminates what ProcessTemporalUnitObu produced.
type EmissionKind int

const (
	EmissionNone EmissionKind = iota
	EmissionParameterBlock
	EmissionAudioFrame
	EmissionTemporalDelimiter
)

// Emission is the tagged union ProcessTemporalUnitObu returns: exactly
// one field is meaningful, selected by Kind.
type Emission struct {
	Kind              EmissionKind
	ParameterBlock    *ParameterBlockWithData
	AudioFrame        *AudioFrameWithData
	TemporalDelimiter *obu.TemporalDelimiter
}

// Processor is the incremental streaming decoder over one IA sequence.
// It owns the reader and every lookup table built from the descriptors;
// callers drive it one OBU (or descriptor batch) at a time.
type Processor struct {
	r   *bits.Reader
	log logging.Logger

	maxAllocBytes uint32

	descriptorsReady bool
	header           obu.IaSequenceHeader
	codecConfigs     *obu.CodecConfigTable
	audioElements    *obu.AudioElementTable
	mixPresentations *obu.MixPresentationTable
	paramDefs        *obu.ParamDefinitionTable

	timing *timing.GlobalTimingModule
	params *timing.ParametersManager
}

// Option configures a Processor at construction time.
type Option func(*Processor) error

// WithMaxAllocBytes overrides the default per-OBU allocation cap (see
// obu.DefaultMaxAllocBytes).
func WithMaxAllocBytes(n uint32) Option {
	return func(p *Processor) error {
		p.maxAllocBytes = n
		return nil
	}
}

// NewProcessor returns a Processor reading from r and logging through
// log. Descriptors are not read until ProcessDescriptorObus is called.
func NewProcessor(r *bits.Reader, log logging.Logger, options ...Option) (*Processor, error) {
	p := &Processor{
		r:                r,
		log:              log,
		maxAllocBytes:    obu.DefaultMaxAllocBytes,
		codecConfigs:     obu.NewCodecConfigTable(),
		audioElements:    obu.NewAudioElementTable(),
		mixPresentations: obu.NewMixPresentationTable(),
		paramDefs:        obu.NewParamDefinitionTable(),
	}
	for _, opt := range options {
		if err := opt(p); err != nil {
			return nil, errors.Wrap(err, "new_processor: option failed")
		}
	}
	log.Debug("processor constructed", "max_alloc_bytes", p.maxAllocBytes)
	return p, nil
}

// Header returns the IaSequenceHeader read by ProcessDescriptorObus.
func (p *Processor) Header() obu.IaSequenceHeader { return p.header }

// readOneDescriptorOrUnit reads one complete OBU (header + bounded body
// frame) and returns its header and a bounded sub-reader over its body.
func (p *Processor) readOneDescriptorOrUnit() (obu.Header, *bits.Reader, error) {
	h, err := obu.ReadHeader(p.r)
	if err != nil {
		return obu.Header{}, nil, err
	}
	sub, err := obu.ReadBodyFrame(p.r, h.BodySize(), p.maxAllocBytes)
	if err != nil {
		return obu.Header{}, nil, err
	}
	return h, sub, nil
}

// ProcessDescriptorObus reads the mandatory IaSequenceHeader followed by
// the run of descriptor OBUs (codec configs, audio elements, mix
// presentations), building the lookup tables, and stops at the first
// temporal-unit OBU without consuming it.
//
// When exhaustiveAndExact is true the caller promises the reader's
// remaining bytes are exactly one IA sequence's descriptors with no
// temporal units: reaching EOF is success and encountering a
// temporal-unit OBU is an error. When false, EOF before any temporal
// unit sets insufficientData true and leaves the reader positioned where
// reading failed.
func (p *Processor) ProcessDescriptorObus(exhaustiveAndExact bool) (insufficientData bool, err error) {
	hdr, err := obu.ReadHeader(p.r)
	if err != nil {
		if errors.Is(err, obu.ErrResourceExhausted) {
			return true, nil
		}
		return false, err
	}
	if hdr.Type != obu.TypeIaSequenceHeader {
		return false, errors.Wrapf(obu.ErrInvalidArgument, "process_descriptor_obus: first OBU must be IaSequenceHeader, got %s", hdr.Type)
	}
	sub, err := obu.ReadBodyFrame(p.r, hdr.BodySize(), p.maxAllocBytes)
	if err != nil {
		return false, err
	}
	header, err := obu.ReadIaSequenceHeader(sub)
	if err != nil {
		return false, err
	}
	if err := obu.FinishFrame(sub); err != nil {
		return false, err
	}
	p.header = header
	p.log.Debug("read ia sequence header", "primary_profile", header.PrimaryProfile)

	for {
		t, err := obu.PeekType(p.r)
		if err != nil {
			if errors.Is(err, obu.ErrResourceExhausted) {
				if exhaustiveAndExact {
					p.descriptorsReady = true
					return false, nil
				}
				return true, nil
			}
			return false, err
		}
		if !t.IsDescriptor() && !t.IsReserved() {
			if exhaustiveAndExact {
				return false, errors.Wrapf(obu.ErrInvalidArgument, "process_descriptor_obus: encountered temporal-unit OBU type %s while exhaustive_and_exact", t)
			}
			p.descriptorsReady = true
			return false, nil
		}

		dh, dsub, err := p.readOneDescriptorOrUnit()
		if err != nil {
			if errors.Is(err, obu.ErrResourceExhausted) {
				return true, nil
			}
			return false, err
		}
		if err := p.consumeDescriptor(dh, dsub); err != nil {
			return false, err
		}
	}
}

func (p *Processor) consumeDescriptor(h obu.Header, sub *bits.Reader) error {
	switch h.Type {
	case obu.TypeCodecConfig:
		c, err := obu.ReadCodecConfig(sub)
		if err != nil {
			return err
		}
		if err := obu.FinishFrame(sub); err != nil {
			return err
		}
		if h.RedundantCopy {
			existing, ok := p.codecConfigs.Get(c.ID)
			if !ok || !reflect.DeepEqual(existing, c) {
				return errors.Wrapf(obu.ErrInvalidArgument, "redundant codec_config %d disagrees with original", c.ID)
			}
			return nil
		}
		return p.codecConfigs.Add(c)
	case obu.TypeAudioElement:
		a, err := obu.ReadAudioElement(sub, p.codecConfigs)
		if err != nil {
			return err
		}
		if err := obu.FinishFrame(sub); err != nil {
			return err
		}
		for _, param := range a.Params {
			_ = p.paramDefs.Add(param.Definition) // best-effort; duplicates across audio elements are a real I1 violation, surfaced lazily on resolve
		}
		if h.RedundantCopy {
			existing, ok := p.audioElements.Get(a.ID)
			if !ok || !reflect.DeepEqual(existing, a) {
				return errors.Wrapf(obu.ErrInvalidArgument, "redundant audio_element %d disagrees with original", a.ID)
			}
			return nil
		}
		return p.audioElements.Add(a, p.codecConfigs)
	case obu.TypeMixPresentation:
		m, err := obu.ReadMixPresentation(sub, p.audioElements)
		if err != nil {
			return err
		}
		if err := obu.FinishFrame(sub); err != nil {
			return err
		}
		if h.RedundantCopy {
			existing, ok := p.mixPresentations.Get(m.ID)
			if !ok || !reflect.DeepEqual(existing, m) {
				return errors.Wrapf(obu.ErrInvalidArgument, "redundant mix_presentation %d disagrees with original", m.ID)
			}
			return nil
		}
		return p.mixPresentations.Add(m, p.audioElements)
	default:
		// Reserved type: already bounded-read via ReadBodyFrame; discard.
		return nil
	}
}

// ensureTimingState lazily constructs the timing module and parameters
// manager the first time a temporal unit is processed, once descriptors
// are known to be complete.
func (p *Processor) ensureTimingState() {
	if p.timing == nil {
		p.timing = timing.NewGlobalTimingModule()
	}
	if p.params == nil {
		p.params = timing.NewParametersManager(p.paramDefs)
	}
}

// ProcessTemporalUnitObu processes exactly one temporal-unit OBU (or
// skips one reserved/redundant descriptor), per spec.md §4.6.
// continueProcessing is false either because the stream is exhausted or
// because a fresh non-redundant IaSequenceHeader was encountered (left
// unconsumed, for the caller to begin a new sequence).
func (p *Processor) ProcessTemporalUnitObu() (emission Emission, continueProcessing bool, insufficientData bool, err error) {
	p.ensureTimingState()

	start := p.r.Tell()
	t, peekErr := obu.PeekType(p.r)
	if peekErr != nil {
		if errors.Is(peekErr, obu.ErrResourceExhausted) {
			return Emission{}, false, false, nil
		}
		return Emission{}, false, false, peekErr
	}

	if t == obu.TypeIaSequenceHeader {
		h, err := obu.ReadHeader(p.r)
		if err != nil {
			if errors.Is(err, obu.ErrResourceExhausted) {
				p.r.Seek(start)
				return Emission{}, false, true, nil
			}
			return Emission{}, false, false, err
		}
		if !h.RedundantCopy {
			p.r.Seek(start)
			return Emission{}, false, false, nil
		}
		sub, err := obu.ReadBodyFrame(p.r, h.BodySize(), p.maxAllocBytes)
		if err != nil {
			if errors.Is(err, obu.ErrResourceExhausted) {
				p.r.Seek(start)
				return Emission{}, false, true, nil
			}
			return Emission{}, false, false, err
		}
		header, err := obu.ReadIaSequenceHeader(sub)
		if err != nil {
			return Emission{}, false, false, err
		}
		if !reflect.DeepEqual(header, p.header) {
			return Emission{}, false, false, errors.Wrap(obu.ErrInvalidArgument, "redundant ia_sequence_header disagrees with original")
		}
		return Emission{}, true, false, nil
	}

	h, sub, err := p.readOneDescriptorOrUnit()
	if err != nil {
		if errors.Is(err, obu.ErrResourceExhausted) {
			p.r.Seek(start)
			return Emission{}, false, true, nil
		}
		return Emission{}, false, false, err
	}

	if h.Type.IsDescriptor() {
		if err := p.consumeDescriptor(h, sub); err != nil {
			return Emission{}, false, false, err
		}
		return Emission{}, true, false, nil
	}

	switch {
	case h.Type == obu.TypeParameterBlock:
		pb, err := p.readParameterBlock(sub)
		if err != nil {
			return Emission{}, false, false, err
		}
		return Emission{Kind: EmissionParameterBlock, ParameterBlock: pb}, true, false, nil

	case h.Type == obu.TypeAudioFrame || isAudioFrameIDType(h.Type):
		af, err := p.readAudioFrame(sub, h.Type)
		if err != nil {
			return Emission{}, false, false, err
		}
		return Emission{Kind: EmissionAudioFrame, AudioFrame: af}, true, false, nil

	case h.Type == obu.TypeTemporalDelimiter:
		td, err := obu.ReadTemporalDelimiter(sub)
		if err != nil {
			return Emission{}, false, false, err
		}
		if err := obu.FinishFrame(sub); err != nil {
			return Emission{}, false, false, err
		}
		return Emission{Kind: EmissionTemporalDelimiter, TemporalDelimiter: &td}, true, false, nil

	default:
		// Reserved type, already bounded-read; discard.
		return Emission{}, true, false, nil
	}
}

func isAudioFrameIDType(t obu.Type) bool {
	_, ok := obu.SubstreamIDForType(t)
	return ok
}

func (p *Processor) readParameterBlock(sub *bits.Reader) (*ParameterBlockWithData, error) {
	// parameter_id is the first field of every ParameterBlock; peek it by
	// reading then seeking back, since the definition must be resolved
	// before the rest of the body can be parsed.
	start := sub.Tell()
	id, _, err := sub.ReadUleb128()
	if err != nil {
		return nil, err
	}
	if err := sub.Seek(start); err != nil {
		return nil, err
	}
	def, err := p.paramDefs.Resolve(id)
	if err != nil {
		return nil, err
	}
	var reconGainIsPresent []bool
	if def.Type == obu.ParamDefinitionTypeReconGain {
		ae, ok := p.audioElements.Get(def.AudioElementID)
		if !ok {
			return nil, errors.Wrapf(obu.ErrInvalidArgument, "recon_gain parameter_id %d: owning audio_element_id %d not found", id, def.AudioElementID)
		}
		reconGainIsPresent = ae.ReconGainIsPresentFlags()
	}
	pb, err := obu.ReadParameterBlock(sub, def, reconGainIsPresent)
	if err != nil {
		return nil, err
	}
	if err := obu.FinishFrame(sub); err != nil {
		return nil, err
	}

	duration := def.Header.Subblocks.Duration
	if def.Header.ParamDefinitionMode {
		duration = pb.Subblocks.Duration
	}
	start64, end64, err := p.timing.NextParameterBlockTimestamps(id, p.timing.PeekParameterTimestamp(id), duration)
	if err != nil {
		return nil, err
	}
	p.params.SetActiveParameterBlock(pb, start64, end64)
	return &ParameterBlockWithData{OBU: pb, Start: start64, End: end64}, nil
}

func (p *Processor) readAudioFrame(sub *bits.Reader, t obu.Type) (*AudioFrameWithData, error) {
	af, err := obu.ReadAudioFrame(sub, t)
	if err != nil {
		return nil, err
	}
	if err := obu.FinishFrame(sub); err != nil {
		return nil, err
	}

	ae, ok := p.audioElements.OwnerOf(af.SubstreamID)
	if !ok {
		return nil, errors.Wrapf(obu.ErrInvalidArgument, "audio_frame: substream_id %d has no owning audio_element", af.SubstreamID)
	}
	cc, ok := p.codecConfigs.Get(ae.CodecConfigID)
	if !ok {
		return nil, errors.Wrapf(obu.ErrInternal, "audio_frame: audio_element %d codec_config_id %d vanished", ae.ID, ae.CodecConfigID)
	}
	start, end := p.timing.NextAudioFrameTimestamps(af.SubstreamID, cc.NumSamplesPerFrame)

	var downmix timing.DownMixingParams
	wIdxRule := timing.WIdxUpdateRuleDefault
	var defaultW uint8
	if demixParam, ok := ae.DemixingParam(); ok {
		defaultW = demixParam.Definition.DefaultDemixing.DefaultW
		downmix, err = p.params.DownMixingParams(demixParam.Definition.Header.ParameterID, start, demixParam.Definition, ae.ID)
		if err != nil {
			return nil, err
		}
		wIdxRule = p.params.WIdxUpdateRuleFor(ae.ID, downmix.InBitstream)
	}

	var reconGain obu.ReconGainInfoParameterData
	if reconParam, ok := ae.ReconGainParam(); ok {
		reconGain = p.params.ReconGainInfo(reconParam.Definition.Header.ParameterID, start)
	}

	p.params.UpdateState(ae.ID, start, wIdxRule, downmix.WIdxOffset, defaultW)

	return &AudioFrameWithData{
		OBU:              af,
		Start:            start,
		End:              end,
		AudioElementID:   ae.ID,
		DownMixingParams: downmix,
		ReconGainInfo:    reconGain,
	}, nil
}
