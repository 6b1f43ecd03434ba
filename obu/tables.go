/*
NAME
  tables.go

DESCRIPTION
  tables.go implements the descriptor lookup tables built while reading
  (or validated while writing) an IA sequence's descriptors: the
  codec-config table, the audio-element table (with its substream
  reverse-index), the mix-presentation table, and the parameter-definition
  table. These are the "context" objects spec.md §4.3 requires later OBUs
  to carry, and the home of invariants I1-I3.

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

// CodecConfigTable indexes CodecConfig descriptors by id.
type CodecConfigTable struct {
	byID map[uint32]CodecConfig
}

// NewCodecConfigTable returns an empty table.
func NewCodecConfigTable() *CodecConfigTable {
	return &CodecConfigTable{byID: make(map[uint32]CodecConfig)}
}

// Add inserts c, rejecting a duplicate codec_config_id.
func (t *CodecConfigTable) Add(c CodecConfig) error {
	if _, ok := t.byID[c.ID]; ok {
		return invalidArgf("codec_config_table.add", "duplicate codec_config_id %d", c.ID)
	}
	t.byID[c.ID] = c
	return nil
}

// HasCodecConfig implements CodecConfigLookup.
func (t *CodecConfigTable) HasCodecConfig(id uint32) bool {
	_, ok := t.byID[id]
	return ok
}

// Get returns the CodecConfig for id, if present.
func (t *CodecConfigTable) Get(id uint32) (CodecConfig, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// AudioElementTable indexes AudioElement descriptors by id and maintains
// the substream_id -> audio_element_id reverse index used to route audio
// frames to their owning element.
type AudioElementTable struct {
	byID          map[uint32]AudioElement
	substreamToID map[uint32]uint32
}

// NewAudioElementTable returns an empty table.
func NewAudioElementTable() *AudioElementTable {
	return &AudioElementTable{
		byID:          make(map[uint32]AudioElement),
		substreamToID: make(map[uint32]uint32),
	}
}

// Add inserts a, validating invariant I2 (codec_config_id must exist in
// codecConfigs) and rejecting a duplicate audio_element_id or a
// substream_id already owned by another audio element.
func (t *AudioElementTable) Add(a AudioElement, codecConfigs *CodecConfigTable) error {
	if _, ok := t.byID[a.ID]; ok {
		return invalidArgf("audio_element_table.add", "duplicate audio_element_id %d", a.ID)
	}
	if codecConfigs != nil && !codecConfigs.HasCodecConfig(a.CodecConfigID) {
		return invalidArgf("audio_element_table.add", "codec_config_id %d not found", a.CodecConfigID)
	}
	for _, sid := range a.SubstreamIDs {
		if owner, ok := t.substreamToID[sid]; ok {
			return invalidArgf("audio_element_table.add", "substream_id %d already owned by audio_element_id %d", sid, owner)
		}
	}
	t.byID[a.ID] = a
	for _, sid := range a.SubstreamIDs {
		t.substreamToID[sid] = a.ID
	}
	return nil
}

// HasAudioElement implements AudioElementLookup.
func (t *AudioElementTable) HasAudioElement(id uint32) bool {
	_, ok := t.byID[id]
	return ok
}

// Get returns the AudioElement for id, if present.
func (t *AudioElementTable) Get(id uint32) (AudioElement, bool) {
	a, ok := t.byID[id]
	return a, ok
}

// OwnerOf returns the AudioElement that claims substreamID, if any.
func (t *AudioElementTable) OwnerOf(substreamID uint32) (AudioElement, bool) {
	id, ok := t.substreamToID[substreamID]
	if !ok {
		return AudioElement{}, false
	}
	return t.byID[id], true
}

// MixPresentationTable indexes MixPresentation descriptors by id.
type MixPresentationTable struct {
	byID map[uint32]MixPresentation
}

// NewMixPresentationTable returns an empty table.
func NewMixPresentationTable() *MixPresentationTable {
	return &MixPresentationTable{byID: make(map[uint32]MixPresentation)}
}

// Add inserts m, validating invariant I3 (every contributing
// audio_element_id must exist in audioElements) and rejecting a
// duplicate mix_presentation_id.
func (t *MixPresentationTable) Add(m MixPresentation, audioElements *AudioElementTable) error {
	if _, ok := t.byID[m.ID]; ok {
		return invalidArgf("mix_presentation_table.add", "duplicate mix_presentation_id %d", m.ID)
	}
	if audioElements != nil {
		for _, s := range m.SubMixes {
			for _, e := range s.AudioElements {
				if !audioElements.HasAudioElement(e.AudioElementID) {
					return invalidArgf("mix_presentation_table.add", "audio_element_id %d not found", e.AudioElementID)
				}
			}
		}
	}
	t.byID[m.ID] = m
	return nil
}

// Get returns the MixPresentation for id, if present.
func (t *MixPresentationTable) Get(id uint32) (MixPresentation, bool) {
	m, ok := t.byID[id]
	return m, ok
}

// ParamDefinitionTable indexes ParamDefinition descriptors by
// parameter_id, gathered from across audio elements and mix
// presentations (invariant I1: a parameter_id is defined exactly once
// across the whole IA sequence).
type ParamDefinitionTable struct {
	byID map[uint32]ParamDefinition
}

// NewParamDefinitionTable returns an empty table.
func NewParamDefinitionTable() *ParamDefinitionTable {
	return &ParamDefinitionTable{byID: make(map[uint32]ParamDefinition)}
}

// Add inserts def, rejecting a duplicate parameter_id.
func (t *ParamDefinitionTable) Add(def ParamDefinition) error {
	id := def.ParameterID()
	if _, ok := t.byID[id]; ok {
		return invalidArgf("param_definition_table.add", "duplicate parameter_id %d", id)
	}
	t.byID[id] = def
	return nil
}

// Get returns the ParamDefinition for id, if present. Callers needing
// invariant I1 ("must be found") should treat !ok as the "stray
// parameter block/reference" InvalidArgument case themselves, since the
// error message differs by calling context (parameter block vs.
// audio-element/mix-presentation reference).
func (t *ParamDefinitionTable) Get(id uint32) (ParamDefinition, bool) {
	d, ok := t.byID[id]
	return d, ok
}

// Resolve is Get plus the standard "stray parameter_id" InvalidArgument,
// for callers (parameter blocks) that always want a hard failure on miss.
func (t *ParamDefinitionTable) Resolve(id uint32) (ParamDefinition, error) {
	d, ok := t.byID[id]
	if !ok {
		return ParamDefinition{}, invalidArgf("param_definition_table.resolve", "stray parameter_id %d: no ParamDefinition found", id)
	}
	return d, nil
}
