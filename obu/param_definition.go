/*
NAME
  param_definition.go

DESCRIPTION
  param_definition.go implements ParamDefinition, the schema describing one
  stream of parameter blocks identified by parameter_id: the common header
  (parameter_id, parameter_rate, param_definition_mode, and the optional
  subblock-duration group), and the four subclass variants (mix-gain,
  demixing, recon-gain, extended).

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package obu

import (
	"github.com/ausocean/iamf/bits"
)

// ParamDefinitionType discriminates the four ParamDefinition variants.
type ParamDefinitionType uint32

const (
	ParamDefinitionTypeMixGain   ParamDefinitionType = 0
	ParamDefinitionTypeDemixing  ParamDefinitionType = 1
	ParamDefinitionTypeReconGain ParamDefinitionType = 2
	// Any value >= ParamDefinitionTypeExtendedStart is an extended (opaque)
	// parameter definition; the IAMF reserved range does not distinguish
	// further subtypes at this layer.
	ParamDefinitionTypeExtendedStart ParamDefinitionType = 3
)

// IsExtended reports whether t denotes an ExtendedParamDefinition.
func (t ParamDefinitionType) IsExtended() bool { return t >= ParamDefinitionTypeExtendedStart }

// SubblockDurations holds the mode-0 duration/subblock group common to
// every ParamDefinition variant. It is present iff ParamDefinitionMode==0.
type SubblockDurations struct {
	Duration                 uint32
	ConstantSubblockDuration uint32
	// SubblockDurations is explicit only when ConstantSubblockDuration==0;
	// otherwise the subblock count is implicit: ceil(Duration /
	// ConstantSubblockDuration).
	Explicit []uint32
}

// NumSubblocks returns the number of subblocks implied by this group,
// whether explicit or derived from ConstantSubblockDuration.
func (s SubblockDurations) NumSubblocks() int {
	if s.ConstantSubblockDuration > 0 {
		n := s.Duration / s.ConstantSubblockDuration
		if s.Duration%s.ConstantSubblockDuration != 0 {
			n++
		}
		return int(n)
	}
	return len(s.Explicit)
}

// SubblockDuration returns the duration of subblock i, deriving it from
// ConstantSubblockDuration (clamped at the tail) when the array isn't
// explicit.
func (s SubblockDurations) SubblockDuration(i int) uint32 {
	if s.ConstantSubblockDuration > 0 {
		remaining := int64(s.Duration) - int64(i)*int64(s.ConstantSubblockDuration)
		if remaining > int64(s.ConstantSubblockDuration) {
			return s.ConstantSubblockDuration
		}
		if remaining < 0 {
			return 0
		}
		return uint32(remaining)
	}
	return s.Explicit[i]
}

func (s SubblockDurations) validate(op string) error {
	if s.Duration == 0 {
		return invalidArgf(op, "duration must be non-zero")
	}
	if s.ConstantSubblockDuration == 0 {
		if len(s.Explicit) == 0 {
			return invalidArgf(op, "constant_subblock_duration==0 requires explicit subblock_durations")
		}
		var sum uint64
		for i, d := range s.Explicit {
			if d == 0 {
				return invalidArgf(op, "subblock_durations[%d] must be non-zero", i)
			}
			sum += uint64(d)
		}
		if sum != uint64(s.Duration) {
			return invalidArgf(op, "sum(subblock_durations)=%d != duration=%d", sum, s.Duration)
		}
	}
	return nil
}

func writeSubblockDurations(w *bits.Writer, s SubblockDurations) error {
	if err := s.validate("write_subblock_durations"); err != nil {
		return err
	}
	if err := w.WriteUleb128(s.Duration); err != nil {
		return wrapKind("write_subblock_durations.duration", err)
	}
	if err := w.WriteUleb128(s.ConstantSubblockDuration); err != nil {
		return wrapKind("write_subblock_durations.constant_subblock_duration", err)
	}
	if s.ConstantSubblockDuration == 0 {
		if err := w.WriteUleb128(uint32(len(s.Explicit))); err != nil {
			return wrapKind("write_subblock_durations.num_subblocks", err)
		}
		for i, d := range s.Explicit {
			if err := w.WriteUleb128(d); err != nil {
				return wrapKind("write_subblock_durations.subblock_durations", err)
			}
			_ = i
		}
	}
	return nil
}

func readSubblockDurations(r *bits.Reader) (SubblockDurations, error) {
	duration, _, err := r.ReadUleb128()
	if err != nil {
		return SubblockDurations{}, wrapKind("read_subblock_durations.duration", err)
	}
	if duration == 0 {
		return SubblockDurations{}, invalidArgf("read_subblock_durations", "duration must be non-zero")
	}
	constDur, _, err := r.ReadUleb128()
	if err != nil {
		return SubblockDurations{}, wrapKind("read_subblock_durations.constant_subblock_duration", err)
	}
	s := SubblockDurations{Duration: duration, ConstantSubblockDuration: constDur}
	if constDur == 0 {
		numSubblocks, _, err := r.ReadUleb128()
		if err != nil {
			return SubblockDurations{}, wrapKind("read_subblock_durations.num_subblocks", err)
		}
		explicit := make([]uint32, numSubblocks)
		var sum uint64
		for i := range explicit {
			d, _, err := r.ReadUleb128()
			if err != nil {
				return SubblockDurations{}, wrapKind("read_subblock_durations.subblock_durations", err)
			}
			if d == 0 {
				return SubblockDurations{}, invalidArgf("read_subblock_durations", "subblock_durations[%d] must be non-zero", i)
			}
			explicit[i] = d
			sum += uint64(d)
		}
		if sum != uint64(duration) {
			return SubblockDurations{}, invalidArgf("read_subblock_durations", "sum(subblock_durations)=%d != duration=%d", sum, duration)
		}
		s.Explicit = explicit
	}
	return s, nil
}

// ParamDefinitionHeader is the common part of every ParamDefinition,
// present ahead of the subclass-specific fields.
type ParamDefinitionHeader struct {
	ParameterID        uint32
	ParameterRate      uint32
	ParamDefinitionMode bool
	// Subblocks is present iff ParamDefinitionMode==false (mode 0).
	Subblocks SubblockDurations
}

func writeParamDefinitionHeader(w *bits.Writer, h ParamDefinitionHeader) error {
	if err := w.WriteUleb128(h.ParameterID); err != nil {
		return wrapKind("param_definition_header.write.parameter_id", err)
	}
	if h.ParameterRate == 0 {
		return invalidArgf("param_definition_header.write", "parameter_rate must be non-zero")
	}
	if err := w.WriteUleb128(h.ParameterRate); err != nil {
		return wrapKind("param_definition_header.write.parameter_rate", err)
	}
	if err := w.WriteBool(h.ParamDefinitionMode); err != nil {
		return wrapKind("param_definition_header.write.mode", err)
	}
	if err := w.WriteUnsigned(0, 7); err != nil {
		return wrapKind("param_definition_header.write.reserved", err)
	}
	if !h.ParamDefinitionMode {
		if err := writeSubblockDurations(w, h.Subblocks); err != nil {
			return err
		}
	}
	return nil
}

func readParamDefinitionHeader(r *bits.Reader) (ParamDefinitionHeader, error) {
	id, _, err := r.ReadUleb128()
	if err != nil {
		return ParamDefinitionHeader{}, wrapKind("param_definition_header.read.parameter_id", err)
	}
	rate, _, err := r.ReadUleb128()
	if err != nil {
		return ParamDefinitionHeader{}, wrapKind("param_definition_header.read.parameter_rate", err)
	}
	if rate == 0 {
		return ParamDefinitionHeader{}, invalidArgf("param_definition_header.read", "parameter_rate must be non-zero")
	}
	mode, err := r.ReadBool()
	if err != nil {
		return ParamDefinitionHeader{}, wrapKind("param_definition_header.read.mode", err)
	}
	if _, err := r.ReadUnsigned(7); err != nil {
		return ParamDefinitionHeader{}, wrapKind("param_definition_header.read.reserved", err)
	}
	h := ParamDefinitionHeader{ParameterID: id, ParameterRate: rate, ParamDefinitionMode: mode}
	if !mode {
		sb, err := readSubblockDurations(r)
		if err != nil {
			return ParamDefinitionHeader{}, err
		}
		h.Subblocks = sb
	}
	return h, nil
}

// DMixPMode is the 3-bit demixing mode carried by both
// DemixingInfoParameterData and DemixingInfoParameterBlockData.
type DMixPMode uint8

const (
	DMixPMode1         DMixPMode = 0
	DMixPMode2         DMixPMode = 1
	DMixPMode3         DMixPMode = 2
	DMixPModeReserved1 DMixPMode = 3
	DMixPMode1N        DMixPMode = 4
	DMixPMode2N        DMixPMode = 5
	DMixPMode3N        DMixPMode = 6
	DMixPModeReserved2 DMixPMode = 7
)

// DemixingInfoParameterData is the default demixing descriptor carried
// inside a DemixingParamDefinition.
type DemixingInfoParameterData struct {
	DMixPMode DMixPMode // 3 bits
	DefaultW  uint8     // 4 bits
}

func (d DemixingInfoParameterData) write(w *bits.Writer) error {
	if d.DMixPMode > 0x7 {
		return invalidArgf("demixing_info_parameter_data.write", "dmixp_mode %d exceeds 3 bits", d.DMixPMode)
	}
	if d.DefaultW > 0xf {
		return invalidArgf("demixing_info_parameter_data.write", "default_w %d exceeds 4 bits", d.DefaultW)
	}
	if err := w.WriteUnsigned(uint64(d.DMixPMode), 3); err != nil {
		return wrapKind("demixing_info_parameter_data.write.dmixp_mode", err)
	}
	if err := w.WriteUnsigned(0, 5); err != nil {
		return wrapKind("demixing_info_parameter_data.write.reserved", err)
	}
	if err := w.WriteUnsigned(uint64(d.DefaultW), 4); err != nil {
		return wrapKind("demixing_info_parameter_data.write.default_w", err)
	}
	if err := w.WriteUnsigned(0, 4); err != nil {
		return wrapKind("demixing_info_parameter_data.write.reserved_for_future_use", err)
	}
	return nil
}

func readDemixingInfoParameterData(r *bits.Reader) (DemixingInfoParameterData, error) {
	mode, err := r.ReadUnsigned(3)
	if err != nil {
		return DemixingInfoParameterData{}, wrapKind("demixing_info_parameter_data.read.dmixp_mode", err)
	}
	if _, err := r.ReadUnsigned(5); err != nil {
		return DemixingInfoParameterData{}, wrapKind("demixing_info_parameter_data.read.reserved", err)
	}
	w, err := r.ReadUnsigned(4)
	if err != nil {
		return DemixingInfoParameterData{}, wrapKind("demixing_info_parameter_data.read.default_w", err)
	}
	if _, err := r.ReadUnsigned(4); err != nil {
		return DemixingInfoParameterData{}, wrapKind("demixing_info_parameter_data.read.reserved_for_future_use", err)
	}
	return DemixingInfoParameterData{DMixPMode: DMixPMode(mode), DefaultW: uint8(w)}, nil
}

// ParamDefinition is the closed sum type over the four parameter
// definition variants. Exactly one of MixGain/Demixing/ReconGain/Extended
// is meaningful, selected by Type.
type ParamDefinition struct {
	Type ParamDefinitionType

	// Header is populated for MixGain, Demixing and ReconGain; Extended
	// carries no common header at all.
	Header ParamDefinitionHeader

	// MixGain-only.
	DefaultMixGain int16

	// Demixing-only.
	DefaultDemixing DemixingInfoParameterData

	// ReconGain-only: the owning audio element and, per layer, whether
	// recon gain is present — derived from that audio element's channel
	// layers, not carried on the wire by this OBU.
	AudioElementID            uint32
	ReconGainIsPresentFlags   []bool

	// Extended-only.
	ExtendedBytes []byte
}

// ParameterID returns the parameter_id for any variant, including
// Extended, which instead carries it via the enclosing audio-element or
// mix-presentation context; callers must set Header.ParameterID even for
// Extended so the table can key on it.
func (p ParamDefinition) ParameterID() uint32 { return p.Header.ParameterID }

// Write serialises a ParamDefinition, dispatching to the subclass layout.
func (p ParamDefinition) Write(w *bits.Writer) error {
	if p.Type.IsExtended() {
		if err := w.WriteUleb128(uint32(len(p.ExtendedBytes))); err != nil {
			return wrapKind("param_definition.write.extended_size", err)
		}
		if err := w.WriteBytes(p.ExtendedBytes); err != nil {
			return wrapKind("param_definition.write.extended_bytes", err)
		}
		return nil
	}
	if err := writeParamDefinitionHeader(w, p.Header); err != nil {
		return err
	}
	switch p.Type {
	case ParamDefinitionTypeMixGain:
		return w.WriteSigned16(p.DefaultMixGain)
	case ParamDefinitionTypeDemixing:
		if p.Header.ParamDefinitionMode {
			return invalidArgf("param_definition.write", "demixing requires param_definition_mode==0")
		}
		if p.Header.Subblocks.ConstantSubblockDuration != p.Header.Subblocks.Duration {
			return invalidArgf("param_definition.write", "demixing requires constant_subblock_duration==duration")
		}
		return p.DefaultDemixing.write(w)
	case ParamDefinitionTypeReconGain:
		if p.Header.ParamDefinitionMode {
			return invalidArgf("param_definition.write", "recon_gain requires param_definition_mode==0")
		}
		if p.Header.Subblocks.ConstantSubblockDuration != p.Header.Subblocks.Duration {
			return invalidArgf("param_definition.write", "recon_gain requires constant_subblock_duration==duration")
		}
		return nil
	default:
		return internalf("param_definition.write", "unhandled type %d", p.Type)
	}
}

// ReadParamDefinition parses a ParamDefinition of the given type. Extended
// definitions carry no common header at all, per spec.md §4.4.
func ReadParamDefinition(r *bits.Reader, t ParamDefinitionType) (ParamDefinition, error) {
	if t.IsExtended() {
		size, _, err := r.ReadUleb128()
		if err != nil {
			return ParamDefinition{}, wrapKind("param_definition.read.extended_size", err)
		}
		buf := make([]byte, size)
		if err := r.ReadUint8Span(buf); err != nil {
			return ParamDefinition{}, wrapKind("param_definition.read.extended_bytes", err)
		}
		return ParamDefinition{Type: t, ExtendedBytes: buf}, nil
	}
	header, err := readParamDefinitionHeader(r)
	if err != nil {
		return ParamDefinition{}, err
	}
	p := ParamDefinition{Type: t, Header: header}
	switch t {
	case ParamDefinitionTypeMixGain:
		v, err := r.ReadSigned16()
		if err != nil {
			return ParamDefinition{}, wrapKind("param_definition.read.default_mix_gain", err)
		}
		p.DefaultMixGain = v
	case ParamDefinitionTypeDemixing:
		if header.ParamDefinitionMode {
			return ParamDefinition{}, invalidArgf("param_definition.read", "demixing requires param_definition_mode==0")
		}
		if header.Subblocks.ConstantSubblockDuration != header.Subblocks.Duration {
			return ParamDefinition{}, invalidArgf("param_definition.read", "demixing requires constant_subblock_duration==duration")
		}
		d, err := readDemixingInfoParameterData(r)
		if err != nil {
			return ParamDefinition{}, err
		}
		p.DefaultDemixing = d
	case ParamDefinitionTypeReconGain:
		if header.ParamDefinitionMode {
			return ParamDefinition{}, invalidArgf("param_definition.read", "recon_gain requires param_definition_mode==0")
		}
		if header.Subblocks.ConstantSubblockDuration != header.Subblocks.Duration {
			return ParamDefinition{}, invalidArgf("param_definition.read", "recon_gain requires constant_subblock_duration==duration")
		}
	default:
		return ParamDefinition{}, internalf("param_definition.read", "unhandled type %d", t)
	}
	return p, nil
}
