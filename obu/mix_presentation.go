/*
NAME
  mix_presentation.go

DESCRIPTION
  mix_presentation.go implements the MixPresentation OBU body: a language
  and annotation header plus one or more sub-mixes, each listing
  audio-element contributions, an output mix-gain parameter definition,
  and a set of output layouts carrying loudness metadata. Per spec.md §4.3
  the body is "structured but not algorithmically dense" — this is a
  field-by-field serialisation with recursion into ParamDefinition.

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

// RenderingMode selects how a sub-mix audio element is rendered into its
// parent sub-mix.
type RenderingMode uint8

const (
	RenderingModeStereoHeadphones RenderingMode = 0
	RenderingModeBinaural         RenderingMode = 1
)

// SubMixAudioElement is one audio element's contribution to a sub-mix.
type SubMixAudioElement struct {
	AudioElementID            uint32
	LocalizedElementAnnotations []string // one per annotations_language entry
	RenderingMode              RenderingMode
	RenderingConfigExtension   []byte
	ElementMixGain              ParamDefinition // MixGain variant
}

func (e SubMixAudioElement) write(w *bits.Writer) error {
	if err := w.WriteUleb128(e.AudioElementID); err != nil {
		return wrapKind("sub_mix_audio_element.write.audio_element_id", err)
	}
	for _, s := range e.LocalizedElementAnnotations {
		if err := w.WriteString(s); err != nil {
			return wrapKind("sub_mix_audio_element.write.localized_element_annotations", err)
		}
	}
	if err := w.WriteUnsigned(uint64(e.RenderingMode), 2); err != nil {
		return wrapKind("sub_mix_audio_element.write.rendering_mode", err)
	}
	if err := w.WriteUnsigned(0, 6); err != nil {
		return wrapKind("sub_mix_audio_element.write.reserved", err)
	}
	if err := w.WriteUleb128(uint32(len(e.RenderingConfigExtension))); err != nil {
		return wrapKind("sub_mix_audio_element.write.rendering_config_extension_size", err)
	}
	if err := w.WriteBytes(e.RenderingConfigExtension); err != nil {
		return wrapKind("sub_mix_audio_element.write.rendering_config_extension_bytes", err)
	}
	if e.ElementMixGain.Type != ParamDefinitionTypeMixGain {
		return invalidArgf("sub_mix_audio_element.write", "element_mix_gain must be a MixGain param definition, got %d", e.ElementMixGain.Type)
	}
	if err := e.ElementMixGain.Write(w); err != nil {
		return err
	}
	return nil
}

func readSubMixAudioElement(r *bits.Reader, numLabels int) (SubMixAudioElement, error) {
	id, _, err := r.ReadUleb128()
	if err != nil {
		return SubMixAudioElement{}, wrapKind("sub_mix_audio_element.read.audio_element_id", err)
	}
	annotations := make([]string, numLabels)
	for i := range annotations {
		s, err := r.ReadString()
		if err != nil {
			return SubMixAudioElement{}, wrapKind("sub_mix_audio_element.read.localized_element_annotations", err)
		}
		annotations[i] = s
	}
	mode, err := r.ReadUnsigned(2)
	if err != nil {
		return SubMixAudioElement{}, wrapKind("sub_mix_audio_element.read.rendering_mode", err)
	}
	if _, err := r.ReadUnsigned(6); err != nil {
		return SubMixAudioElement{}, wrapKind("sub_mix_audio_element.read.reserved", err)
	}
	extSize, _, err := r.ReadUleb128()
	if err != nil {
		return SubMixAudioElement{}, wrapKind("sub_mix_audio_element.read.rendering_config_extension_size", err)
	}
	ext := make([]byte, extSize)
	if err := r.ReadUint8Span(ext); err != nil {
		return SubMixAudioElement{}, wrapKind("sub_mix_audio_element.read.rendering_config_extension_bytes", err)
	}
	gain, err := ReadParamDefinition(r, ParamDefinitionTypeMixGain)
	if err != nil {
		return SubMixAudioElement{}, err
	}
	return SubMixAudioElement{
		AudioElementID:              id,
		LocalizedElementAnnotations: annotations,
		RenderingMode:                RenderingMode(mode),
		RenderingConfigExtension:     ext,
		ElementMixGain:               gain,
	}, nil
}

// LayoutType discriminates how a Layout's SoundSystem field is interpreted.
type LayoutType uint8

const (
	LayoutTypeReserved0   LayoutType = 0
	LayoutTypeLoudspeakers LayoutType = 2
	LayoutTypeBinaural    LayoutType = 3
)

// SoundSystem enumerates the loudspeaker layouts named by the IAMF
// loudness-layout table; values outside the named set are accepted
// opaquely (the core does not render, so it does not need to reject an
// unrecognised-but-well-formed sound system).
type SoundSystem uint8

const (
	SoundSystemA0_2_0 SoundSystem = 0  // stereo
	SoundSystemB0_5_1 SoundSystem = 1  // 5.1
	SoundSystemC2_5_1 SoundSystem = 2  // 5.1.2
	SoundSystemD4_5_1 SoundSystem = 3  // 5.1.4
	SoundSystemE4_5_1 SoundSystem = 4
	SoundSystemF3_7_1 SoundSystem = 5
	SoundSystemG4_9_0 SoundSystem = 6
	SoundSystemH9_10_3 SoundSystem = 7
	SoundSystemI0_7_0 SoundSystem = 8
	SoundSystemJ4_7_0 SoundSystem = 9
	SoundSystemMono   SoundSystem = 10
	SoundSystemL0_2_0 SoundSystem = 11
)

// AnchorElement is one entry of a LoudnessInfo's anchored_loudness list.
type AnchorElement struct {
	AnchorElement   uint8 // 0 = content, 1 = dialogue
	AnchoredLoudness int16
}

// LoudnessInfo carries the measured loudness of one output Layout. Bit 0
// of InfoTypeBitMask gates TruePeak; bit 1 gates AnchoredLoudness.
type LoudnessInfo struct {
	InfoTypeBitMask    uint8
	IntegratedLoudness int16 // Q7.8 dB
	DigitalPeak        int16 // Q7.8 dB
	TruePeak           int16 // valid iff InfoTypeBitMask&0x1 != 0
	AnchoredLoudness   []AnchorElement
	ExtensionBytes     []byte // any InfoTypeBitMask bits beyond 0x1|0x2
}

const (
	loudnessInfoTruePeakBit    = 0x1
	loudnessInfoAnchoredBit    = 0x2
	loudnessInfoKnownBitsMask  = loudnessInfoTruePeakBit | loudnessInfoAnchoredBit
)

func (l LoudnessInfo) write(w *bits.Writer) error {
	if err := w.WriteUnsigned(uint64(l.InfoTypeBitMask), 8); err != nil {
		return wrapKind("loudness_info.write.info_type", err)
	}
	if err := w.WriteSigned16(l.IntegratedLoudness); err != nil {
		return wrapKind("loudness_info.write.integrated_loudness", err)
	}
	if err := w.WriteSigned16(l.DigitalPeak); err != nil {
		return wrapKind("loudness_info.write.digital_peak", err)
	}
	if l.InfoTypeBitMask&loudnessInfoTruePeakBit != 0 {
		if err := w.WriteSigned16(l.TruePeak); err != nil {
			return wrapKind("loudness_info.write.true_peak", err)
		}
	}
	if l.InfoTypeBitMask&loudnessInfoAnchoredBit != 0 {
		if err := w.WriteUnsigned(uint64(len(l.AnchoredLoudness)), 8); err != nil {
			return wrapKind("loudness_info.write.num_anchored_loudness", err)
		}
		for _, a := range l.AnchoredLoudness {
			if err := w.WriteUnsigned(uint64(a.AnchorElement), 8); err != nil {
				return wrapKind("loudness_info.write.anchor_element", err)
			}
			if err := w.WriteSigned16(a.AnchoredLoudness); err != nil {
				return wrapKind("loudness_info.write.anchored_loudness", err)
			}
		}
	}
	if l.InfoTypeBitMask&^loudnessInfoKnownBitsMask != 0 {
		if err := w.WriteUleb128(uint32(len(l.ExtensionBytes))); err != nil {
			return wrapKind("loudness_info.write.extension_size", err)
		}
		if err := w.WriteBytes(l.ExtensionBytes); err != nil {
			return wrapKind("loudness_info.write.extension_bytes", err)
		}
	}
	return nil
}

func readLoudnessInfo(r *bits.Reader) (LoudnessInfo, error) {
	mask, err := r.ReadUnsigned(8)
	if err != nil {
		return LoudnessInfo{}, wrapKind("loudness_info.read.info_type", err)
	}
	integrated, err := r.ReadSigned16()
	if err != nil {
		return LoudnessInfo{}, wrapKind("loudness_info.read.integrated_loudness", err)
	}
	peak, err := r.ReadSigned16()
	if err != nil {
		return LoudnessInfo{}, wrapKind("loudness_info.read.digital_peak", err)
	}
	l := LoudnessInfo{InfoTypeBitMask: uint8(mask), IntegratedLoudness: integrated, DigitalPeak: peak}
	if l.InfoTypeBitMask&loudnessInfoTruePeakBit != 0 {
		tp, err := r.ReadSigned16()
		if err != nil {
			return LoudnessInfo{}, wrapKind("loudness_info.read.true_peak", err)
		}
		l.TruePeak = tp
	}
	if l.InfoTypeBitMask&loudnessInfoAnchoredBit != 0 {
		n, err := r.ReadUnsigned(8)
		if err != nil {
			return LoudnessInfo{}, wrapKind("loudness_info.read.num_anchored_loudness", err)
		}
		anchors := make([]AnchorElement, n)
		for i := range anchors {
			elem, err := r.ReadUnsigned(8)
			if err != nil {
				return LoudnessInfo{}, wrapKind("loudness_info.read.anchor_element", err)
			}
			gain, err := r.ReadSigned16()
			if err != nil {
				return LoudnessInfo{}, wrapKind("loudness_info.read.anchored_loudness", err)
			}
			anchors[i] = AnchorElement{AnchorElement: uint8(elem), AnchoredLoudness: gain}
		}
		l.AnchoredLoudness = anchors
	}
	if l.InfoTypeBitMask&^loudnessInfoKnownBitsMask != 0 {
		size, _, err := r.ReadUleb128()
		if err != nil {
			return LoudnessInfo{}, wrapKind("loudness_info.read.extension_size", err)
		}
		buf := make([]byte, size)
		if err := r.ReadUint8Span(buf); err != nil {
			return LoudnessInfo{}, wrapKind("loudness_info.read.extension_bytes", err)
		}
		l.ExtensionBytes = buf
	}
	return l, nil
}

// Layout is one output layout of a sub-mix, paired with its measured
// loudness.
type Layout struct {
	Type        LayoutType
	SoundSystem SoundSystem // meaningful iff Type == LayoutTypeLoudspeakers
	Loudness    LoudnessInfo
}

func (l Layout) write(w *bits.Writer) error {
	if err := w.WriteUnsigned(uint64(l.Type), 2); err != nil {
		return wrapKind("layout.write.layout_type", err)
	}
	switch l.Type {
	case LayoutTypeLoudspeakers:
		if err := w.WriteUnsigned(uint64(l.SoundSystem), 4); err != nil {
			return wrapKind("layout.write.sound_system", err)
		}
		if err := w.WriteUnsigned(0, 2); err != nil {
			return wrapKind("layout.write.reserved", err)
		}
	default:
		if err := w.WriteUnsigned(0, 6); err != nil {
			return wrapKind("layout.write.reserved", err)
		}
	}
	return l.Loudness.write(w)
}

func readLayout(r *bits.Reader) (Layout, error) {
	typ, err := r.ReadUnsigned(2)
	if err != nil {
		return Layout{}, wrapKind("layout.read.layout_type", err)
	}
	l := Layout{Type: LayoutType(typ)}
	switch l.Type {
	case LayoutTypeLoudspeakers:
		ss, err := r.ReadUnsigned(4)
		if err != nil {
			return Layout{}, wrapKind("layout.read.sound_system", err)
		}
		if _, err := r.ReadUnsigned(2); err != nil {
			return Layout{}, wrapKind("layout.read.reserved", err)
		}
		l.SoundSystem = SoundSystem(ss)
	default:
		if _, err := r.ReadUnsigned(6); err != nil {
			return Layout{}, wrapKind("layout.read.reserved", err)
		}
	}
	loudness, err := readLoudnessInfo(r)
	if err != nil {
		return Layout{}, err
	}
	l.Loudness = loudness
	return l, nil
}

// SubMix is one rendering of a subset of the program's audio elements to a
// set of output layouts.
type SubMix struct {
	AudioElements []SubMixAudioElement
	OutputMixGain ParamDefinition // MixGain variant
	Layouts       []Layout
}

func (s SubMix) write(w *bits.Writer) error {
	if err := w.WriteUleb128(uint32(len(s.AudioElements))); err != nil {
		return wrapKind("sub_mix.write.num_audio_elements", err)
	}
	for _, e := range s.AudioElements {
		if err := e.write(w); err != nil {
			return err
		}
	}
	if s.OutputMixGain.Type != ParamDefinitionTypeMixGain {
		return invalidArgf("sub_mix.write", "output_mix_gain must be a MixGain param definition, got %d", s.OutputMixGain.Type)
	}
	if err := s.OutputMixGain.Write(w); err != nil {
		return err
	}
	if err := w.WriteUleb128(uint32(len(s.Layouts))); err != nil {
		return wrapKind("sub_mix.write.num_layouts", err)
	}
	for _, l := range s.Layouts {
		if err := l.write(w); err != nil {
			return err
		}
	}
	return nil
}

func readSubMix(r *bits.Reader, numLabels int) (SubMix, error) {
	numElems, _, err := r.ReadUleb128()
	if err != nil {
		return SubMix{}, wrapKind("sub_mix.read.num_audio_elements", err)
	}
	elems := make([]SubMixAudioElement, numElems)
	for i := range elems {
		e, err := readSubMixAudioElement(r, numLabels)
		if err != nil {
			return SubMix{}, err
		}
		elems[i] = e
	}
	gain, err := ReadParamDefinition(r, ParamDefinitionTypeMixGain)
	if err != nil {
		return SubMix{}, err
	}
	numLayouts, _, err := r.ReadUleb128()
	if err != nil {
		return SubMix{}, wrapKind("sub_mix.read.num_layouts", err)
	}
	layouts := make([]Layout, numLayouts)
	for i := range layouts {
		l, err := readLayout(r)
		if err != nil {
			return SubMix{}, err
		}
		layouts[i] = l
	}
	return SubMix{AudioElements: elems, OutputMixGain: gain, Layouts: layouts}, nil
}

// MixPresentation is a MixPresentation OBU body.
type MixPresentation struct {
	ID                                uint32
	AnnotationsLanguage               []string
	LocalizedPresentationAnnotations []string
	SubMixes                         []SubMix
}

// AudioElementLookup resolves an audio_element_id to confirm it exists
// (invariant I3).
type AudioElementLookup interface {
	HasAudioElement(id uint32) bool
}

func (m MixPresentation) countLabel() int { return len(m.AnnotationsLanguage) }

func (m MixPresentation) validate() error {
	if len(m.LocalizedPresentationAnnotations) != m.countLabel() {
		return invalidArgf("mix_presentation.validate", "localized_presentation_annotations length %d != count_label %d", len(m.LocalizedPresentationAnnotations), m.countLabel())
	}
	for i, s := range m.SubMixes {
		for j, e := range s.AudioElements {
			if len(e.LocalizedElementAnnotations) != m.countLabel() {
				return invalidArgf("mix_presentation.validate", "sub_mix[%d].audio_elements[%d] localized_element_annotations length %d != count_label %d", i, j, len(e.LocalizedElementAnnotations), m.countLabel())
			}
		}
	}
	if len(m.SubMixes) == 0 {
		return invalidArgf("mix_presentation.validate", "num_sub_mixes must be >= 1")
	}
	return nil
}

// Write serialises the MixPresentation body.
func (m MixPresentation) Write() ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	w := bits.NewWriter()
	if err := w.WriteUleb128(m.ID); err != nil {
		return nil, wrapKind("mix_presentation.write.id", err)
	}
	if err := w.WriteUleb128(uint32(m.countLabel())); err != nil {
		return nil, wrapKind("mix_presentation.write.count_label", err)
	}
	for _, lang := range m.AnnotationsLanguage {
		if err := w.WriteString(lang); err != nil {
			return nil, wrapKind("mix_presentation.write.annotations_language", err)
		}
	}
	for _, ann := range m.LocalizedPresentationAnnotations {
		if err := w.WriteString(ann); err != nil {
			return nil, wrapKind("mix_presentation.write.localized_presentation_annotations", err)
		}
	}
	if err := w.WriteUleb128(uint32(len(m.SubMixes))); err != nil {
		return nil, wrapKind("mix_presentation.write.num_sub_mixes", err)
	}
	for _, s := range m.SubMixes {
		if err := s.write(w); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return w.Bytes(), nil
}

// ReadMixPresentation parses a MixPresentation body. audioElements
// validates invariant I3 (every contributing audio_element_id must
// exist); pass nil to skip the check (e.g. when reading in isolation for
// a unit test).
func ReadMixPresentation(r *bits.Reader, audioElements AudioElementLookup) (MixPresentation, error) {
	id, _, err := r.ReadUleb128()
	if err != nil {
		return MixPresentation{}, wrapKind("mix_presentation.read.id", err)
	}
	countLabel, _, err := r.ReadUleb128()
	if err != nil {
		return MixPresentation{}, wrapKind("mix_presentation.read.count_label", err)
	}
	langs := make([]string, countLabel)
	for i := range langs {
		s, err := r.ReadString()
		if err != nil {
			return MixPresentation{}, wrapKind("mix_presentation.read.annotations_language", err)
		}
		langs[i] = s
	}
	annotations := make([]string, countLabel)
	for i := range annotations {
		s, err := r.ReadString()
		if err != nil {
			return MixPresentation{}, wrapKind("mix_presentation.read.localized_presentation_annotations", err)
		}
		annotations[i] = s
	}
	numSubMixes, _, err := r.ReadUleb128()
	if err != nil {
		return MixPresentation{}, wrapKind("mix_presentation.read.num_sub_mixes", err)
	}
	subMixes := make([]SubMix, numSubMixes)
	for i := range subMixes {
		s, err := readSubMix(r, int(countLabel))
		if err != nil {
			return MixPresentation{}, err
		}
		subMixes[i] = s
	}
	m := MixPresentation{
		ID:                               id,
		AnnotationsLanguage:              langs,
		LocalizedPresentationAnnotations: annotations,
		SubMixes:                         subMixes,
	}
	if err := m.validate(); err != nil {
		return MixPresentation{}, err
	}
	if audioElements != nil {
		for _, s := range m.SubMixes {
			for _, e := range s.AudioElements {
				if !audioElements.HasAudioElement(e.AudioElementID) {
					return MixPresentation{}, invalidArgf("mix_presentation.read", "audio_element_id %d not found", e.AudioElementID)
				}
			}
		}
	}
	return m, nil
}
