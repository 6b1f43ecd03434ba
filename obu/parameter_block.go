/*
NAME
  parameter_block.go

DESCRIPTION
  parameter_block.go implements the ParameterBlock OBU body and the
  mix-gain animation interpolation math. A parameter block's shape is
  entirely determined by the ParamDefinition its parameter_id resolves
  to: this file never guesses that shape, it is always told.

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
	"math"

	"github.com/ausocean/iamf/bits"
	"gonum.org/v1/gonum/floats"
)

// MixGainAnimationType selects the shape of one MixGainParameterData
// subblock.
type MixGainAnimationType uint32

const (
	MixGainAnimationStep   MixGainAnimationType = 0
	MixGainAnimationLinear MixGainAnimationType = 1
	MixGainAnimationBezier MixGainAnimationType = 2
)

// MixGainParameterData is one mix-gain subblock's animation curve. Only
// the fields relevant to AnimationType are meaningful.
type MixGainParameterData struct {
	AnimationType MixGainAnimationType

	StartPointValue int16 // step, linear, bezier

	EndPointValue int16 // linear, bezier

	ControlPointValue        int16 // bezier
	ControlPointRelativeTime uint8 // bezier, Q0.8 in [0,1]
}

func (d MixGainParameterData) write(w *bits.Writer) error {
	if err := w.WriteUleb128(uint32(d.AnimationType)); err != nil {
		return wrapKind("mix_gain_parameter_data.write.animation_type", err)
	}
	switch d.AnimationType {
	case MixGainAnimationStep:
		return w.WriteSigned16(d.StartPointValue)
	case MixGainAnimationLinear:
		if err := w.WriteSigned16(d.StartPointValue); err != nil {
			return wrapKind("mix_gain_parameter_data.write.start_point_value", err)
		}
		return w.WriteSigned16(d.EndPointValue)
	case MixGainAnimationBezier:
		if err := w.WriteSigned16(d.StartPointValue); err != nil {
			return wrapKind("mix_gain_parameter_data.write.start_point_value", err)
		}
		if err := w.WriteSigned16(d.EndPointValue); err != nil {
			return wrapKind("mix_gain_parameter_data.write.end_point_value", err)
		}
		if err := w.WriteSigned16(d.ControlPointValue); err != nil {
			return wrapKind("mix_gain_parameter_data.write.control_point_value", err)
		}
		return w.WriteUnsigned(uint64(d.ControlPointRelativeTime), 8)
	default:
		return invalidArgf("mix_gain_parameter_data.write", "animation_type %d not in {0,1,2}", d.AnimationType)
	}
}

func readMixGainParameterData(r *bits.Reader) (MixGainParameterData, error) {
	animType, _, err := r.ReadUleb128()
	if err != nil {
		return MixGainParameterData{}, wrapKind("mix_gain_parameter_data.read.animation_type", err)
	}
	d := MixGainParameterData{AnimationType: MixGainAnimationType(animType)}
	switch d.AnimationType {
	case MixGainAnimationStep:
		v, err := r.ReadSigned16()
		if err != nil {
			return MixGainParameterData{}, wrapKind("mix_gain_parameter_data.read.start_point_value", err)
		}
		d.StartPointValue = v
	case MixGainAnimationLinear:
		start, err := r.ReadSigned16()
		if err != nil {
			return MixGainParameterData{}, wrapKind("mix_gain_parameter_data.read.start_point_value", err)
		}
		end, err := r.ReadSigned16()
		if err != nil {
			return MixGainParameterData{}, wrapKind("mix_gain_parameter_data.read.end_point_value", err)
		}
		d.StartPointValue, d.EndPointValue = start, end
	case MixGainAnimationBezier:
		start, err := r.ReadSigned16()
		if err != nil {
			return MixGainParameterData{}, wrapKind("mix_gain_parameter_data.read.start_point_value", err)
		}
		end, err := r.ReadSigned16()
		if err != nil {
			return MixGainParameterData{}, wrapKind("mix_gain_parameter_data.read.end_point_value", err)
		}
		ctrl, err := r.ReadSigned16()
		if err != nil {
			return MixGainParameterData{}, wrapKind("mix_gain_parameter_data.read.control_point_value", err)
		}
		ctrlTime, err := r.ReadUnsigned(8)
		if err != nil {
			return MixGainParameterData{}, wrapKind("mix_gain_parameter_data.read.control_point_relative_time", err)
		}
		d.StartPointValue, d.EndPointValue, d.ControlPointValue, d.ControlPointRelativeTime = start, end, ctrl, uint8(ctrlTime)
	default:
		return MixGainParameterData{}, invalidArgf("mix_gain_parameter_data.read", "reserved animation_type %d", animType)
	}
	return d, nil
}

// InterpolateMixGain evaluates a MixGainParameterData curve spanning
// sample range [start, end) at target, per spec.md §4.4's deterministic
// interpolation rules. It is InvalidArgument for target to fall outside
// [start, end].
func InterpolateMixGain(d MixGainParameterData, start, end, target int64) (int16, error) {
	if target < start || target > end {
		return 0, invalidArgf("interpolate_mix_gain", "target %d not in [%d,%d]", target, start, end)
	}
	switch d.AnimationType {
	case MixGainAnimationStep:
		return d.StartPointValue, nil
	case MixGainAnimationLinear:
		if end == start {
			return d.StartPointValue, nil
		}
		num := int64(d.EndPointValue-d.StartPointValue) * (target - start)
		den := end - start
		delta := roundDiv(num, den)
		return int16(int64(d.StartPointValue) + delta), nil
	case MixGainAnimationBezier:
		if end == start {
			return d.StartPointValue, nil
		}
		t := float64(target-start) / float64(end-start)
		alpha := float64(d.ControlPointRelativeTime) / 256.0
		s := solveBezierParameter(t, alpha)
		one := 1 - s
		val := one*one*float64(d.StartPointValue) + 2*s*one*float64(d.ControlPointValue) + s*s*float64(d.EndPointValue)
		return int16(floats.Round(val, 0)), nil
	default:
		return 0, invalidArgf("interpolate_mix_gain", "animation_type %d not in {0,1,2}", d.AnimationType)
	}
}

// roundDiv performs round-half-away-from-zero integer division.
func roundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	neg := (num < 0) != (den < 0)
	if num < 0 {
		num = -num
	}
	if den < 0 {
		den = -den
	}
	q := (num + den/2) / den
	if neg {
		return -q
	}
	return q
}

// solveBezierParameter solves the quadratic control-point equation
// (1-s)^2*0 + 2s(1-s)*alpha + s^2*1 == t for s via the closed-form
// quadratic formula, clamped to [0,1] for numerical stability.
func solveBezierParameter(t, alpha float64) float64 {
	// (1-2*alpha)*s^2 + 2*alpha*s - t == 0 (expand 2*s*(1-s)*alpha + s^2 == t
	// and collect terms in s).
	a := 1 - 2*alpha
	b := 2 * alpha
	c := -t
	var s float64
	if a == 0 {
		if b == 0 {
			s = 0
		} else {
			s = -c / b
		}
	} else {
		disc := math.Max(b*b-4*a*c, 0)
		sqrtDisc := math.Sqrt(disc)
		s1 := (-b + sqrtDisc) / (2 * a)
		s2 := (-b - sqrtDisc) / (2 * a)
		s = s1
		if s1 < 0 || s1 > 1 {
			s = s2
		}
	}
	return math.Min(math.Max(s, 0), 1)
}

// DemixingInfoParameterBlockData is the demixing subblock payload.
type DemixingInfoParameterBlockData struct {
	DMixPMode DMixPMode // 3 bits
}

func (d DemixingInfoParameterBlockData) write(w *bits.Writer) error {
	if d.DMixPMode > 0x7 {
		return invalidArgf("demixing_info_parameter_block_data.write", "dmixp_mode %d exceeds 3 bits", d.DMixPMode)
	}
	if err := w.WriteUnsigned(uint64(d.DMixPMode), 3); err != nil {
		return wrapKind("demixing_info_parameter_block_data.write.dmixp_mode", err)
	}
	return w.WriteUnsigned(0, 5)
}

func readDemixingInfoParameterBlockData(r *bits.Reader) (DemixingInfoParameterBlockData, error) {
	mode, err := r.ReadUnsigned(3)
	if err != nil {
		return DemixingInfoParameterBlockData{}, wrapKind("demixing_info_parameter_block_data.read.dmixp_mode", err)
	}
	if _, err := r.ReadUnsigned(5); err != nil {
		return DemixingInfoParameterBlockData{}, wrapKind("demixing_info_parameter_block_data.read.reserved", err)
	}
	return DemixingInfoParameterBlockData{DMixPMode: DMixPMode(mode)}, nil
}

// ReconGainChannelBit names the fixed IAMF channel -> recon_gain_flag bit
// mapping. Center (bit 1) and demixed-L2 bits are never set.
const (
	ReconGainBitL   = 0
	ReconGainBitR   = 2
	ReconGainBitLs  = 3
	ReconGainBitRs  = 4
	ReconGainBitLtf = 5
	ReconGainBitRtf = 6
	ReconGainBitLrs = 7
	ReconGainBitRrs = 8
	ReconGainBitLtb = 9
	ReconGainBitRtb = 10
	ReconGainBitLFE = 11
)

// ReconGainInfoParameterData is one recon-gain subblock's per-layer gain
// vectors. Layers index 1:1 with the owning audio element's channel
// layers, per ReconGainIsPresentFlags.
type ReconGainInfoParameterData struct {
	// ReconGainFlag[i] is the 12-bit logical field for layer i, valid only
	// where the isPresent flag passed to write/read is true for layer i.
	ReconGainFlag []uint32
	// ReconGain[i] holds one u8 per bit set in ReconGainFlag[i], ordered by
	// increasing bit index.
	ReconGain [][]uint8
}

func (d ReconGainInfoParameterData) write(w *bits.Writer, isPresent []bool) error {
	if len(isPresent) != len(d.ReconGainFlag) || len(isPresent) != len(d.ReconGain) {
		return internalf("recon_gain_info_parameter_data.write", "mismatched layer counts: present=%d flag=%d gain=%d", len(isPresent), len(d.ReconGainFlag), len(d.ReconGain))
	}
	for i, present := range isPresent {
		if !present {
			continue
		}
		flag := d.ReconGainFlag[i]
		if err := w.WriteUleb128(flag); err != nil {
			return wrapKind("recon_gain_info_parameter_data.write.recon_gain_flag", err)
		}
		gains := d.ReconGain[i]
		wantCount := popcount12(flag)
		if len(gains) != wantCount {
			return invalidArgf("recon_gain_info_parameter_data.write", "layer %d: recon_gain_flag %#x implies %d values, got %d", i, flag, wantCount, len(gains))
		}
		for _, g := range gains {
			if err := w.WriteUnsigned(uint64(g), 8); err != nil {
				return wrapKind("recon_gain_info_parameter_data.write.recon_gain", err)
			}
		}
	}
	return nil
}

func readReconGainInfoParameterData(r *bits.Reader, isPresent []bool) (ReconGainInfoParameterData, error) {
	flags := make([]uint32, len(isPresent))
	gains := make([][]uint8, len(isPresent))
	for i, present := range isPresent {
		if !present {
			continue
		}
		flag, _, err := r.ReadUleb128()
		if err != nil {
			return ReconGainInfoParameterData{}, wrapKind("recon_gain_info_parameter_data.read.recon_gain_flag", err)
		}
		n := popcount12(flag)
		vals := make([]uint8, n)
		for j := range vals {
			v, err := r.ReadUnsigned(8)
			if err != nil {
				return ReconGainInfoParameterData{}, wrapKind("recon_gain_info_parameter_data.read.recon_gain", err)
			}
			vals[j] = uint8(v)
		}
		flags[i] = flag
		gains[i] = vals
	}
	return ReconGainInfoParameterData{ReconGainFlag: flags, ReconGain: gains}, nil
}

func popcount12(flag uint32) int {
	n := 0
	for b := 0; b < 12; b++ {
		if flag&(1<<uint(b)) != 0 {
			n++
		}
	}
	return n
}

// ExtensionParameterData is the opaque subblock payload for reserved
// parameter-definition types.
type ExtensionParameterData struct {
	Bytes []byte
}

func (d ExtensionParameterData) write(w *bits.Writer) error {
	if err := w.WriteUleb128(uint32(len(d.Bytes))); err != nil {
		return wrapKind("extension_parameter_data.write.size", err)
	}
	return w.WriteBytes(d.Bytes)
}

func readExtensionParameterData(r *bits.Reader) (ExtensionParameterData, error) {
	size, _, err := r.ReadUleb128()
	if err != nil {
		return ExtensionParameterData{}, wrapKind("extension_parameter_data.read.size", err)
	}
	buf := make([]byte, size)
	if err := r.ReadUint8Span(buf); err != nil {
		return ExtensionParameterData{}, wrapKind("extension_parameter_data.read.bytes", err)
	}
	return ExtensionParameterData{Bytes: buf}, nil
}

// ParameterSubblock is one subblock of a ParameterBlock. Exactly one of
// MixGain/Demixing/ReconGain/Extension is meaningful, determined by the
// owning ParamDefinition's Type.
type ParameterSubblock struct {
	// Duration is present only when ParamDefinitionMode==true (mode 1) and
	// ConstantSubblockDuration==0; otherwise it is derived from the
	// ParamDefinition and left zero here.
	Duration uint32

	MixGain   *MixGainParameterData
	Demixing  *DemixingInfoParameterBlockData
	ReconGain *ReconGainInfoParameterData
	Extension *ExtensionParameterData
}

// ParameterBlock is a ParameterBlock OBU body.
type ParameterBlock struct {
	ParameterID uint32
	// Subblocks is present only when the resolved ParamDefinition has
	// ParamDefinitionMode==true; otherwise the duration/subblock group is
	// taken entirely from the ParamDefinition.
	Subblocks SubblockDurations
	Blocks    []ParameterSubblock
}

// Write serialises a ParameterBlock body. def is the resolved
// ParamDefinition for p.ParameterID; reconGainIsPresent is required (and
// only meaningful) when def.Type is ReconGain.
func (p ParameterBlock) Write(w *bits.Writer, def ParamDefinition, reconGainIsPresent []bool) error {
	if err := w.WriteUleb128(p.ParameterID); err != nil {
		return wrapKind("parameter_block.write.parameter_id", err)
	}
	var subblocks SubblockDurations
	if def.Header.ParamDefinitionMode {
		if err := writeSubblockDurations(w, p.Subblocks); err != nil {
			return err
		}
		subblocks = p.Subblocks
	} else {
		subblocks = def.Header.Subblocks
	}
	n := subblocks.NumSubblocks()
	if len(p.Blocks) != n {
		return invalidArgf("parameter_block.write", "expected %d subblocks, got %d", n, len(p.Blocks))
	}
	if (def.Type == ParamDefinitionTypeDemixing || def.Type == ParamDefinitionTypeReconGain) && n != 1 {
		return invalidArgf("parameter_block.write", "demixing/recon_gain parameter blocks must have exactly one subblock, got %d", n)
	}
	for i, b := range p.Blocks {
		if def.Header.ParamDefinitionMode && subblocks.ConstantSubblockDuration == 0 {
			if err := w.WriteUleb128(b.Duration); err != nil {
				return wrapKind("parameter_block.write.subblock_duration", err)
			}
		}
		switch def.Type {
		case ParamDefinitionTypeMixGain:
			if b.MixGain == nil {
				return invalidArgf("parameter_block.write", "subblock %d missing MixGain payload", i)
			}
			if err := b.MixGain.write(w); err != nil {
				return err
			}
		case ParamDefinitionTypeDemixing:
			if b.Demixing == nil {
				return invalidArgf("parameter_block.write", "subblock %d missing Demixing payload", i)
			}
			if err := b.Demixing.write(w); err != nil {
				return err
			}
		case ParamDefinitionTypeReconGain:
			if b.ReconGain == nil {
				return invalidArgf("parameter_block.write", "subblock %d missing ReconGain payload", i)
			}
			if err := b.ReconGain.write(w, reconGainIsPresent); err != nil {
				return err
			}
		default:
			if b.Extension == nil {
				return invalidArgf("parameter_block.write", "subblock %d missing Extension payload", i)
			}
			if err := b.Extension.write(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadParameterBlock parses a ParameterBlock body given its resolved
// ParamDefinition (invariant I1: lookup must have already succeeded) and,
// for ReconGain definitions, the owning audio element's per-layer
// recon-gain-is-present flags.
func ReadParameterBlock(r *bits.Reader, def ParamDefinition, reconGainIsPresent []bool) (ParameterBlock, error) {
	id, _, err := r.ReadUleb128()
	if err != nil {
		return ParameterBlock{}, wrapKind("parameter_block.read.parameter_id", err)
	}
	if id != def.Header.ParameterID {
		return ParameterBlock{}, invalidArgf("parameter_block.read", "parameter_id %d does not match resolved definition %d", id, def.Header.ParameterID)
	}
	var subblocks SubblockDurations
	if def.Header.ParamDefinitionMode {
		sb, err := readSubblockDurations(r)
		if err != nil {
			return ParameterBlock{}, err
		}
		subblocks = sb
	} else {
		subblocks = def.Header.Subblocks
	}
	n := subblocks.NumSubblocks()
	if (def.Type == ParamDefinitionTypeDemixing || def.Type == ParamDefinitionTypeReconGain) && n != 1 {
		return ParameterBlock{}, invalidArgf("parameter_block.read", "demixing/recon_gain parameter blocks must have exactly one subblock, got %d", n)
	}
	blocks := make([]ParameterSubblock, n)
	for i := range blocks {
		var sb ParameterSubblock
		if def.Header.ParamDefinitionMode && subblocks.ConstantSubblockDuration == 0 {
			d, _, err := r.ReadUleb128()
			if err != nil {
				return ParameterBlock{}, wrapKind("parameter_block.read.subblock_duration", err)
			}
			sb.Duration = d
		}
		switch def.Type {
		case ParamDefinitionTypeMixGain:
			d, err := readMixGainParameterData(r)
			if err != nil {
				return ParameterBlock{}, err
			}
			sb.MixGain = &d
		case ParamDefinitionTypeDemixing:
			d, err := readDemixingInfoParameterBlockData(r)
			if err != nil {
				return ParameterBlock{}, err
			}
			sb.Demixing = &d
		case ParamDefinitionTypeReconGain:
			d, err := readReconGainInfoParameterData(r, reconGainIsPresent)
			if err != nil {
				return ParameterBlock{}, err
			}
			sb.ReconGain = &d
		default:
			d, err := readExtensionParameterData(r)
			if err != nil {
				return ParameterBlock{}, err
			}
			sb.Extension = &d
		}
		blocks[i] = sb
	}
	pb := ParameterBlock{ParameterID: id, Blocks: blocks}
	if def.Header.ParamDefinitionMode {
		pb.Subblocks = subblocks
	}
	return pb, nil
}
