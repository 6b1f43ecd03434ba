/*
NAME
  audio_element.go

DESCRIPTION
  audio_element.go implements the AudioElement OBU body: channel-based
  (ScalableChannelLayoutConfig), scene-based (AmbisonicsMono or
  AmbisonicsProjection), and reserved/extension variants, plus the
  audio-element-carried parameter definitions (audio_element_params).

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

// AudioElementType discriminates the three config_variant shapes.
type AudioElementType uint8

const (
	AudioElementTypeChannelBased AudioElementType = 0
	AudioElementTypeSceneBased   AudioElementType = 1
	// AudioElementTypeReservedStart..7 carry an opaque ExtensionConfig.
	AudioElementTypeReservedStart AudioElementType = 2
)

// LoudspeakerLayout is the 4-bit channel-based layer layout field.
type LoudspeakerLayout uint8

// Layouts named by spec.md's binaural-exclusivity invariant; the rest are
// accepted opaquely.
const (
	LoudspeakerLayoutMono     LoudspeakerLayout = 0
	LoudspeakerLayoutStereo   LoudspeakerLayout = 1
	LoudspeakerLayoutBinaural LoudspeakerLayout = 15
)

// ChannelLayer is one layer of a ScalableChannelLayoutConfig.
type ChannelLayer struct {
	LoudspeakerLayout    LoudspeakerLayout
	OutputGainIsPresent  bool
	ReconGainIsPresent   bool
	SubstreamCount       uint8
	CoupledSubstreamCount uint8

	// Present only when OutputGainIsPresent.
	OutputGainFlag uint8 // 6 bits
	OutputGain     int16
}

// ScalableChannelLayoutConfig is the channel-based config_variant.
type ScalableChannelLayoutConfig struct {
	Layers []ChannelLayer
}

func (c ScalableChannelLayoutConfig) validate() error {
	if len(c.Layers) < 1 || len(c.Layers) > 6 {
		return invalidArgf("scalable_channel_layout_config", "num_layers %d out of [1,6]", len(c.Layers))
	}
	if len(c.Layers) >= 2 {
		for i, l := range c.Layers {
			if l.LoudspeakerLayout == LoudspeakerLayoutBinaural {
				return invalidArgf("scalable_channel_layout_config", "layer %d is binaural but there are %d layers; binaural must be the only layer", i, len(c.Layers))
			}
		}
	}
	return nil
}

func (c ScalableChannelLayoutConfig) write(w *bits.Writer) error {
	if err := c.validate(); err != nil {
		return err
	}
	if err := w.WriteUnsigned(uint64(len(c.Layers)), 3); err != nil {
		return wrapKind("scalable_channel_layout_config.write.num_layers", err)
	}
	if err := w.WriteUnsigned(0, 5); err != nil {
		return wrapKind("scalable_channel_layout_config.write.reserved", err)
	}
	for i, l := range c.Layers {
		if err := w.WriteUnsigned(uint64(l.LoudspeakerLayout), 4); err != nil {
			return wrapKind("scalable_channel_layout_config.write.loudspeaker_layout", err)
		}
		if err := w.WriteBool(l.OutputGainIsPresent); err != nil {
			return wrapKind("scalable_channel_layout_config.write.output_gain_is_present", err)
		}
		if err := w.WriteBool(l.ReconGainIsPresent); err != nil {
			return wrapKind("scalable_channel_layout_config.write.recon_gain_is_present", err)
		}
		if err := w.WriteUnsigned(0, 2); err != nil {
			return wrapKind("scalable_channel_layout_config.write.reserved", err)
		}
		if err := w.WriteUnsigned(uint64(l.SubstreamCount), 8); err != nil {
			return wrapKind("scalable_channel_layout_config.write.substream_count", err)
		}
		if err := w.WriteUnsigned(uint64(l.CoupledSubstreamCount), 8); err != nil {
			return wrapKind("scalable_channel_layout_config.write.coupled_substream_count", err)
		}
		if l.OutputGainIsPresent {
			if l.OutputGainFlag > 0x3f {
				return invalidArgf("scalable_channel_layout_config.write", "layer %d output_gain_flag %d exceeds 6 bits", i, l.OutputGainFlag)
			}
			if err := w.WriteUnsigned(uint64(l.OutputGainFlag), 6); err != nil {
				return wrapKind("scalable_channel_layout_config.write.output_gain_flag", err)
			}
			if err := w.WriteUnsigned(0, 2); err != nil {
				return wrapKind("scalable_channel_layout_config.write.reserved", err)
			}
			if err := w.WriteSigned16(l.OutputGain); err != nil {
				return wrapKind("scalable_channel_layout_config.write.output_gain", err)
			}
		}
	}
	return nil
}

func readScalableChannelLayoutConfig(r *bits.Reader) (ScalableChannelLayoutConfig, error) {
	numLayers, err := r.ReadUnsigned(3)
	if err != nil {
		return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.num_layers", err)
	}
	if _, err := r.ReadUnsigned(5); err != nil {
		return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.reserved", err)
	}
	layers := make([]ChannelLayer, numLayers)
	for i := range layers {
		layout, err := r.ReadUnsigned(4)
		if err != nil {
			return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.loudspeaker_layout", err)
		}
		gainPresent, err := r.ReadBool()
		if err != nil {
			return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.output_gain_is_present", err)
		}
		reconPresent, err := r.ReadBool()
		if err != nil {
			return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.recon_gain_is_present", err)
		}
		if _, err := r.ReadUnsigned(2); err != nil {
			return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.reserved", err)
		}
		substreamCount, err := r.ReadUnsigned(8)
		if err != nil {
			return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.substream_count", err)
		}
		coupledCount, err := r.ReadUnsigned(8)
		if err != nil {
			return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.coupled_substream_count", err)
		}
		l := ChannelLayer{
			LoudspeakerLayout:     LoudspeakerLayout(layout),
			OutputGainIsPresent:   gainPresent,
			ReconGainIsPresent:    reconPresent,
			SubstreamCount:        uint8(substreamCount),
			CoupledSubstreamCount: uint8(coupledCount),
		}
		if gainPresent {
			flag, err := r.ReadUnsigned(6)
			if err != nil {
				return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.output_gain_flag", err)
			}
			if _, err := r.ReadUnsigned(2); err != nil {
				return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.reserved", err)
			}
			gain, err := r.ReadSigned16()
			if err != nil {
				return ScalableChannelLayoutConfig{}, wrapKind("scalable_channel_layout_config.read.output_gain", err)
			}
			l.OutputGainFlag = uint8(flag)
			l.OutputGain = gain
		}
		layers[i] = l
	}
	c := ScalableChannelLayoutConfig{Layers: layers}
	if err := c.validate(); err != nil {
		return ScalableChannelLayoutConfig{}, err
	}
	return c, nil
}

// isAllowedAmbisonicsChannelCount reports whether n is one of the perfect
// squares 1,4,9,...,225 (orders 0..14) that output_channel_count may take.
func isAllowedAmbisonicsChannelCount(n uint32) bool {
	if n == 0 || n > 225 {
		return false
	}
	for k := uint32(1); k*k <= 225; k++ {
		if k*k == n {
			return true
		}
	}
	return false
}

// SmallestAllowedAmbisonicsChannelCount returns the smallest perfect square
// in {1,4,...,225} that is >= n.
func SmallestAllowedAmbisonicsChannelCount(n uint32) uint32 {
	for k := uint32(1); k*k <= 225; k++ {
		if k*k >= n {
			return k * k
		}
	}
	return 225
}

// droppedChannelSentinel marks a channel_mapping entry as "dropped" in a
// mixed-order ambisonics configuration.
const droppedChannelSentinel = 255

// AmbisonicsMono is the scene-based, direct-mapping config_variant.
type AmbisonicsMono struct {
	OutputChannelCount uint32
	SubstreamCount     uint32
	ChannelMapping     []uint8 // length OutputChannelCount
}

func (a AmbisonicsMono) validate() error {
	if !isAllowedAmbisonicsChannelCount(a.OutputChannelCount) {
		return invalidArgf("ambisonics_mono", "output_channel_count %d is not a perfect square in [1,225]", a.OutputChannelCount)
	}
	if uint32(len(a.ChannelMapping)) != a.OutputChannelCount {
		return invalidArgf("ambisonics_mono", "channel_mapping length %d != output_channel_count %d", len(a.ChannelMapping), a.OutputChannelCount)
	}
	seen := make([]bool, a.SubstreamCount)
	for i, m := range a.ChannelMapping {
		if m == droppedChannelSentinel {
			continue
		}
		if uint32(m) >= a.SubstreamCount {
			return invalidArgf("ambisonics_mono", "channel_mapping[%d]=%d out of [0,%d)", i, m, a.SubstreamCount)
		}
		seen[m] = true
	}
	for s, ok := range seen {
		if !ok {
			return invalidArgf("ambisonics_mono", "substream %d has no channel_mapping entry", s)
		}
	}
	return nil
}

func (a AmbisonicsMono) write(w *bits.Writer) error {
	if err := a.validate(); err != nil {
		return err
	}
	if err := w.WriteUnsigned(uint64(a.OutputChannelCount), 8); err != nil {
		return wrapKind("ambisonics_mono.write.output_channel_count", err)
	}
	if err := w.WriteUnsigned(uint64(a.SubstreamCount), 8); err != nil {
		return wrapKind("ambisonics_mono.write.substream_count", err)
	}
	for _, m := range a.ChannelMapping {
		if err := w.WriteUnsigned(uint64(m), 8); err != nil {
			return wrapKind("ambisonics_mono.write.channel_mapping", err)
		}
	}
	return nil
}

func readAmbisonicsMono(r *bits.Reader) (AmbisonicsMono, error) {
	outCount, err := r.ReadUnsigned(8)
	if err != nil {
		return AmbisonicsMono{}, wrapKind("ambisonics_mono.read.output_channel_count", err)
	}
	subCount, err := r.ReadUnsigned(8)
	if err != nil {
		return AmbisonicsMono{}, wrapKind("ambisonics_mono.read.substream_count", err)
	}
	mapping := make([]uint8, outCount)
	for i := range mapping {
		v, err := r.ReadUnsigned(8)
		if err != nil {
			return AmbisonicsMono{}, wrapKind("ambisonics_mono.read.channel_mapping", err)
		}
		mapping[i] = uint8(v)
	}
	a := AmbisonicsMono{OutputChannelCount: uint32(outCount), SubstreamCount: uint32(subCount), ChannelMapping: mapping}
	if err := a.validate(); err != nil {
		return AmbisonicsMono{}, err
	}
	return a, nil
}

// AmbisonicsProjection is the scene-based, matrix-mixing config_variant.
type AmbisonicsProjection struct {
	OutputChannelCount    uint32
	SubstreamCount        uint32
	CoupledSubstreamCount uint32
	// DemixingMatrix has length (SubstreamCount+CoupledSubstreamCount) *
	// OutputChannelCount, signed 16-bit coefficients.
	DemixingMatrix []int16
}

func (a AmbisonicsProjection) validate() error {
	if !isAllowedAmbisonicsChannelCount(a.OutputChannelCount) {
		return invalidArgf("ambisonics_projection", "output_channel_count %d is not a perfect square in [1,225]", a.OutputChannelCount)
	}
	if a.CoupledSubstreamCount+a.SubstreamCount > a.OutputChannelCount {
		return invalidArgf("ambisonics_projection", "coupled_substream_count+substream_count (%d) exceeds output_channel_count %d", a.CoupledSubstreamCount+a.SubstreamCount, a.OutputChannelCount)
	}
	want := (a.SubstreamCount + a.CoupledSubstreamCount) * a.OutputChannelCount
	if uint32(len(a.DemixingMatrix)) != want {
		return invalidArgf("ambisonics_projection", "demixing_matrix length %d != %d", len(a.DemixingMatrix), want)
	}
	return nil
}

func (a AmbisonicsProjection) write(w *bits.Writer) error {
	if err := a.validate(); err != nil {
		return err
	}
	if err := w.WriteUnsigned(uint64(a.OutputChannelCount), 8); err != nil {
		return wrapKind("ambisonics_projection.write.output_channel_count", err)
	}
	if err := w.WriteUnsigned(uint64(a.SubstreamCount), 8); err != nil {
		return wrapKind("ambisonics_projection.write.substream_count", err)
	}
	if err := w.WriteUnsigned(uint64(a.CoupledSubstreamCount), 8); err != nil {
		return wrapKind("ambisonics_projection.write.coupled_substream_count", err)
	}
	for _, c := range a.DemixingMatrix {
		if err := w.WriteSigned16(c); err != nil {
			return wrapKind("ambisonics_projection.write.demixing_matrix", err)
		}
	}
	return nil
}

func readAmbisonicsProjection(r *bits.Reader) (AmbisonicsProjection, error) {
	outCount, err := r.ReadUnsigned(8)
	if err != nil {
		return AmbisonicsProjection{}, wrapKind("ambisonics_projection.read.output_channel_count", err)
	}
	subCount, err := r.ReadUnsigned(8)
	if err != nil {
		return AmbisonicsProjection{}, wrapKind("ambisonics_projection.read.substream_count", err)
	}
	coupledCount, err := r.ReadUnsigned(8)
	if err != nil {
		return AmbisonicsProjection{}, wrapKind("ambisonics_projection.read.coupled_substream_count", err)
	}
	n := (uint32(subCount) + uint32(coupledCount)) * uint32(outCount)
	matrix := make([]int16, n)
	for i := range matrix {
		v, err := r.ReadSigned16()
		if err != nil {
			return AmbisonicsProjection{}, wrapKind("ambisonics_projection.read.demixing_matrix", err)
		}
		matrix[i] = v
	}
	a := AmbisonicsProjection{
		OutputChannelCount:    uint32(outCount),
		SubstreamCount:        uint32(subCount),
		CoupledSubstreamCount: uint32(coupledCount),
		DemixingMatrix:        matrix,
	}
	if err := a.validate(); err != nil {
		return AmbisonicsProjection{}, err
	}
	return a, nil
}

// AmbisonicsMode selects between AmbisonicsMono (0) and AmbisonicsProjection
// (1); other values are reserved.
const (
	AmbisonicsModeMono       = 0
	AmbisonicsModeProjection = 1
)

// ExtensionConfig is the opaque config_variant for reserved
// AudioElementType values.
type ExtensionConfig struct {
	Bytes []byte
}

// AudioElementParam pairs a ParamDefinitionType with its ParamDefinition,
// carried inline in the audio element OBU.
type AudioElementParam struct {
	Type       ParamDefinitionType
	Definition ParamDefinition
}

// AudioElement is an AudioElement OBU body.
type AudioElement struct {
	ID            uint32
	Type          AudioElementType
	CodecConfigID uint32
	SubstreamIDs  []uint32
	Params        []AudioElementParam

	// Exactly one of these is populated, selected by Type.
	ChannelConfig      *ScalableChannelLayoutConfig
	AmbisonicsMono     *AmbisonicsMono
	AmbisonicsProj     *AmbisonicsProjection
	Extension          *ExtensionConfig
}

// DemixingParam returns the audio element's ParamDefinitionTypeDemixing
// parameter, if it carries one.
func (a AudioElement) DemixingParam() (AudioElementParam, bool) {
	for _, p := range a.Params {
		if p.Type == ParamDefinitionTypeDemixing {
			return p, true
		}
	}
	return AudioElementParam{}, false
}

// ReconGainParam returns the audio element's ParamDefinitionTypeReconGain
// parameter, if it carries one.
func (a AudioElement) ReconGainParam() (AudioElementParam, bool) {
	for _, p := range a.Params {
		if p.Type == ParamDefinitionTypeReconGain {
			return p, true
		}
	}
	return AudioElementParam{}, false
}

// ReconGainIsPresentFlags returns, for a channel-based audio element, the
// per-layer "recon gain is present" flags used to shape ReconGain
// parameter blocks referencing this audio element. Returns nil for
// non-channel-based audio elements.
func (a AudioElement) ReconGainIsPresentFlags() []bool {
	if a.ChannelConfig == nil {
		return nil
	}
	flags := make([]bool, len(a.ChannelConfig.Layers))
	for i, l := range a.ChannelConfig.Layers {
		flags[i] = l.ReconGainIsPresent
	}
	return flags
}

// TotalSubstreamCount returns sum(substream_count over layers) for a
// channel-based audio element, SubstreamCount for AmbisonicsMono,
// SubstreamCount+CoupledSubstreamCount for AmbisonicsProjection, and
// len(SubstreamIDs) for reserved/extension types.
func (a AudioElement) TotalSubstreamCount() (int, error) {
	switch a.Type {
	case AudioElementTypeChannelBased:
		if a.ChannelConfig == nil {
			return 0, internalf("audio_element.total_substream_count", "channel-based element missing ChannelConfig")
		}
		total := 0
		for _, l := range a.ChannelConfig.Layers {
			total += int(l.SubstreamCount)
		}
		return total, nil
	case AudioElementTypeSceneBased:
		if a.AmbisonicsMono != nil {
			return int(a.AmbisonicsMono.SubstreamCount), nil
		}
		if a.AmbisonicsProj != nil {
			return int(a.AmbisonicsProj.SubstreamCount + a.AmbisonicsProj.CoupledSubstreamCount), nil
		}
		return 0, internalf("audio_element.total_substream_count", "scene-based element missing config")
	default:
		return len(a.SubstreamIDs), nil
	}
}

func (a AudioElement) validateDistinctParamTypes() error {
	seen := map[ParamDefinitionType]bool{}
	for _, p := range a.Params {
		if seen[p.Type] {
			return invalidArgf("audio_element.validate", "duplicate parameter_definition_type %d in one audio element", p.Type)
		}
		seen[p.Type] = true
	}
	return nil
}

// Write serialises the AudioElement body.
func (a AudioElement) Write() ([]byte, error) {
	if err := a.validateDistinctParamTypes(); err != nil {
		return nil, err
	}
	total, err := a.TotalSubstreamCount()
	if err != nil {
		return nil, err
	}
	if total != len(a.SubstreamIDs) {
		return nil, invalidArgf("audio_element.write", "sum(substream_count)=%d != len(substream_ids)=%d", total, len(a.SubstreamIDs))
	}

	w := bits.NewWriter()
	if err := w.WriteUleb128(a.ID); err != nil {
		return nil, wrapKind("audio_element.write.id", err)
	}
	if err := w.WriteUnsigned(uint64(a.Type), 3); err != nil {
		return nil, wrapKind("audio_element.write.type", err)
	}
	if err := w.WriteUnsigned(0, 5); err != nil {
		return nil, wrapKind("audio_element.write.reserved", err)
	}
	if err := w.WriteUleb128(a.CodecConfigID); err != nil {
		return nil, wrapKind("audio_element.write.codec_config_id", err)
	}
	if err := w.WriteUleb128(uint32(len(a.SubstreamIDs))); err != nil {
		return nil, wrapKind("audio_element.write.num_substreams", err)
	}
	for _, id := range a.SubstreamIDs {
		if err := w.WriteUleb128(id); err != nil {
			return nil, wrapKind("audio_element.write.substream_id", err)
		}
	}
	if err := w.WriteUleb128(uint32(len(a.Params))); err != nil {
		return nil, wrapKind("audio_element.write.num_parameters", err)
	}
	for _, p := range a.Params {
		if err := w.WriteUleb128(uint32(p.Type)); err != nil {
			return nil, wrapKind("audio_element.write.param_definition_type", err)
		}
		if err := p.Definition.Write(w); err != nil {
			return nil, err
		}
	}

	switch a.Type {
	case AudioElementTypeChannelBased:
		if a.ChannelConfig == nil {
			return nil, invalidArgf("audio_element.write", "channel-based element missing ChannelConfig")
		}
		if err := a.ChannelConfig.write(w); err != nil {
			return nil, err
		}
	case AudioElementTypeSceneBased:
		switch {
		case a.AmbisonicsMono != nil:
			if err := w.WriteUleb128(AmbisonicsModeMono); err != nil {
				return nil, wrapKind("audio_element.write.ambisonics_mode", err)
			}
			if err := a.AmbisonicsMono.write(w); err != nil {
				return nil, err
			}
		case a.AmbisonicsProj != nil:
			if err := w.WriteUleb128(AmbisonicsModeProjection); err != nil {
				return nil, wrapKind("audio_element.write.ambisonics_mode", err)
			}
			if err := a.AmbisonicsProj.write(w); err != nil {
				return nil, err
			}
		default:
			return nil, invalidArgf("audio_element.write", "scene-based element missing ambisonics config")
		}
	default:
		if a.Extension == nil {
			return nil, invalidArgf("audio_element.write", "reserved-type element missing Extension")
		}
		if err := w.WriteUleb128(uint32(len(a.Extension.Bytes))); err != nil {
			return nil, wrapKind("audio_element.write.extension_size", err)
		}
		if err := w.WriteBytes(a.Extension.Bytes); err != nil {
			return nil, wrapKind("audio_element.write.extension_bytes", err)
		}
	}
	w.Flush()
	return w.Bytes(), nil
}

// CodecConfigLookup resolves a codec_config_id to confirm it exists
// (invariant I2); the audio-element read path needs only existence, not
// the CodecConfig's fields.
type CodecConfigLookup interface {
	HasCodecConfig(id uint32) bool
}

// ReadAudioElement parses an AudioElement body. codecConfigs validates
// invariant I2 (codec_config_id must exist).
func ReadAudioElement(r *bits.Reader, codecConfigs CodecConfigLookup) (AudioElement, error) {
	id, _, err := r.ReadUleb128()
	if err != nil {
		return AudioElement{}, wrapKind("audio_element.read.id", err)
	}
	typeBits, err := r.ReadUnsigned(3)
	if err != nil {
		return AudioElement{}, wrapKind("audio_element.read.type", err)
	}
	if _, err := r.ReadUnsigned(5); err != nil {
		return AudioElement{}, wrapKind("audio_element.read.reserved", err)
	}
	codecConfigID, _, err := r.ReadUleb128()
	if err != nil {
		return AudioElement{}, wrapKind("audio_element.read.codec_config_id", err)
	}
	if codecConfigs != nil && !codecConfigs.HasCodecConfig(codecConfigID) {
		return AudioElement{}, invalidArgf("audio_element.read", "codec_config_id %d not found", codecConfigID)
	}
	numSubstreams, _, err := r.ReadUleb128()
	if err != nil {
		return AudioElement{}, wrapKind("audio_element.read.num_substreams", err)
	}
	substreamIDs := make([]uint32, numSubstreams)
	for i := range substreamIDs {
		v, _, err := r.ReadUleb128()
		if err != nil {
			return AudioElement{}, wrapKind("audio_element.read.substream_id", err)
		}
		substreamIDs[i] = v
	}
	numParams, _, err := r.ReadUleb128()
	if err != nil {
		return AudioElement{}, wrapKind("audio_element.read.num_parameters", err)
	}
	params := make([]AudioElementParam, numParams)
	for i := range params {
		pt, _, err := r.ReadUleb128()
		if err != nil {
			return AudioElement{}, wrapKind("audio_element.read.param_definition_type", err)
		}
		def, err := ReadParamDefinition(r, ParamDefinitionType(pt))
		if err != nil {
			return AudioElement{}, err
		}
		params[i] = AudioElementParam{Type: ParamDefinitionType(pt), Definition: def}
	}

	a := AudioElement{
		ID:            id,
		Type:          AudioElementType(typeBits),
		CodecConfigID: codecConfigID,
		SubstreamIDs:  substreamIDs,
		Params:        params,
	}
	if err := a.validateDistinctParamTypes(); err != nil {
		return AudioElement{}, err
	}

	switch a.Type {
	case AudioElementTypeChannelBased:
		cfg, err := readScalableChannelLayoutConfig(r)
		if err != nil {
			return AudioElement{}, err
		}
		a.ChannelConfig = &cfg
	case AudioElementTypeSceneBased:
		mode, _, err := r.ReadUleb128()
		if err != nil {
			return AudioElement{}, wrapKind("audio_element.read.ambisonics_mode", err)
		}
		switch mode {
		case AmbisonicsModeMono:
			mono, err := readAmbisonicsMono(r)
			if err != nil {
				return AudioElement{}, err
			}
			a.AmbisonicsMono = &mono
		case AmbisonicsModeProjection:
			proj, err := readAmbisonicsProjection(r)
			if err != nil {
				return AudioElement{}, err
			}
			a.AmbisonicsProj = &proj
		default:
			return AudioElement{}, invalidArgf("audio_element.read", "reserved ambisonics_mode %d", mode)
		}
	default:
		size, _, err := r.ReadUleb128()
		if err != nil {
			return AudioElement{}, wrapKind("audio_element.read.extension_size", err)
		}
		buf := make([]byte, size)
		if err := r.ReadUint8Span(buf); err != nil {
			return AudioElement{}, wrapKind("audio_element.read.extension_bytes", err)
		}
		a.Extension = &ExtensionConfig{Bytes: buf}
	}

	total, err := a.TotalSubstreamCount()
	if err != nil {
		return AudioElement{}, err
	}
	if total != len(a.SubstreamIDs) {
		return AudioElement{}, invalidArgf("audio_element.read", "sum(substream_count)=%d != len(substream_ids)=%d", total, len(a.SubstreamIDs))
	}

	return a, nil
}
