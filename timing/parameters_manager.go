/*
NAME
  parameters_manager.go

DESCRIPTION
  parameters_manager.go implements ParametersManager: the mutable map from
  parameter_id to the most recently supplied parameter block active at the
  current audio-frame timestamp, the demixing w_idx rotation, and the
  recon-gain/demixing defaults used when no parameter block is active.

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
	"github.com/ausocean/iamf/obu"
)

// activeBlock is a parameter block together with the [start, end) window
// the timing module assigned it.
type activeBlock struct {
	block      obu.ParameterBlock
	start, end int64
}

// WIdxUpdateRule selects how a demixing parameter's w_idx advances from
// one audio frame to the next, per IAMF's w_idx_update_rule.
type WIdxUpdateRule uint8

const (
	// WIdxUpdateRuleFirstFrame forces w_idx to the parameter definition's
	// default_w on the first frame only; later frames hold their value.
	WIdxUpdateRuleFirstFrame WIdxUpdateRule = iota
	// WIdxUpdateRuleNormal advances w_idx by a per-dmixp_mode offset each
	// frame, clamped to [0,10].
	WIdxUpdateRuleNormal
	// WIdxUpdateRuleDefault resets w_idx to default_w every frame.
	WIdxUpdateRuleDefault
)

type wIdxState struct {
	current uint8
	isFirst bool
}

// ParametersManager resolves, for any parameter_id and timestamp, the
// parameter data active there — falling back to the owning
// ParamDefinition's default when no parameter block covers the
// timestamp — and tracks each demixing parameter's running w_idx.
type ParametersManager struct {
	defs   *obu.ParamDefinitionTable
	active map[uint32]activeBlock
	wIdx   map[uint32]*wIdxState // keyed by audio_element_id
}

// NewParametersManager returns a manager resolving parameter ids against
// defs.
func NewParametersManager(defs *obu.ParamDefinitionTable) *ParametersManager {
	return &ParametersManager{
		defs:   defs,
		active: make(map[uint32]activeBlock),
		wIdx:   make(map[uint32]*wIdxState),
	}
}

// SetActiveParameterBlock records block as the latest supplied block for
// its parameter id, active over [start, end).
func (m *ParametersManager) SetActiveParameterBlock(block obu.ParameterBlock, start, end int64) {
	m.active[block.ParameterID] = activeBlock{block: block, start: start, end: end}
}

// ActiveAt returns the parameter block active for parameterID at
// timestamp, if one has been set and its window contains timestamp.
func (m *ParametersManager) ActiveAt(parameterID uint32, timestamp int64) (obu.ParameterBlock, bool) {
	a, ok := m.active[parameterID]
	if !ok || timestamp < a.start || timestamp >= a.end {
		return obu.ParameterBlock{}, false
	}
	return a.block, true
}

// DownMixingParams resolves the DownMixingParams coefficients active for
// parameterID at timestamp: the dmixp_mode carried by the active
// parameter block (or the ParamDefinition's default, if none is active)
// translated via DMixPModeToDownMixingParams using audioElementID's
// current w_idx. def must be the ParamDefinitionTypeDemixing definition
// for parameterID.
func (m *ParametersManager) DownMixingParams(parameterID uint32, timestamp int64, def obu.ParamDefinition, audioElementID uint32) (DownMixingParams, error) {
	mode := def.DefaultDemixing.DMixPMode
	inBitstream := false
	if block, ok := m.ActiveAt(parameterID, timestamp); ok && len(block.Blocks) == 1 && block.Blocks[0].Demixing != nil {
		mode = block.Blocks[0].Demixing.DMixPMode
		inBitstream = true
	}

	rule := m.WIdxUpdateRuleFor(audioElementID, inBitstream)
	previousWIdx := int(m.WIdx(audioElementID, def.DefaultDemixing.DefaultW))
	if rule == WIdxUpdateRuleDefault {
		previousWIdx = int(def.DefaultDemixing.DefaultW)
	}
	params, err := DMixPModeToDownMixingParams(mode, previousWIdx, rule)
	if err != nil {
		return DownMixingParams{}, err
	}
	params.InBitstream = inBitstream
	return params, nil
}

// WIdxUpdateRuleFor reports which w_idx_update_rule applies to
// audioElementID's next frame: WIdxUpdateRuleFirstFrame only for that
// audio element's very first frame, WIdxUpdateRuleDefault when no
// demixing parameter block is active for it (inBitstream false), and
// WIdxUpdateRuleNormal otherwise.
func (m *ParametersManager) WIdxUpdateRuleFor(audioElementID uint32, inBitstream bool) WIdxUpdateRule {
	st, ok := m.wIdx[audioElementID]
	if !ok || st.isFirst {
		return WIdxUpdateRuleFirstFrame
	}
	if !inBitstream {
		return WIdxUpdateRuleDefault
	}
	return WIdxUpdateRuleNormal
}

// ReconGainInfo returns the ReconGainInfoParameterData active for
// parameterID at timestamp, or an all-zero value (no layer present) when
// none is active.
func (m *ParametersManager) ReconGainInfo(parameterID uint32, timestamp int64) obu.ReconGainInfoParameterData {
	if block, ok := m.ActiveAt(parameterID, timestamp); ok && len(block.Blocks) == 1 && block.Blocks[0].ReconGain != nil {
		return *block.Blocks[0].ReconGain
	}
	return obu.ReconGainInfoParameterData{}
}

// WIdx returns the current w_idx tracked for audioElementID, defaulting
// to defaultW if this is the first time audioElementID is seen.
func (m *ParametersManager) WIdx(audioElementID uint32, defaultW uint8) uint8 {
	st, ok := m.wIdx[audioElementID]
	if !ok {
		return defaultW
	}
	return st.current
}

// UpdateState rotates the w_idx tracked for audioElementID according to
// rule, then clears any parameter-block activation whose window has
// fully elapsed as of timestamp. wIdxOffset is the dmixp_mode's step
// (DownMixingParams.WIdxOffset from the DownMixingParams call for this
// same frame) and is only consulted under WIdxUpdateRuleNormal. Called
// once per assembled audio frame, per spec.md §4.5 step 5.
func (m *ParametersManager) UpdateState(audioElementID uint32, timestamp int64, rule WIdxUpdateRule, wIdxOffset int, defaultW uint8) {
	st, ok := m.wIdx[audioElementID]
	if !ok {
		st = &wIdxState{current: defaultW, isFirst: true}
		m.wIdx[audioElementID] = st
	}
	switch rule {
	case WIdxUpdateRuleFirstFrame:
		if st.isFirst {
			st.current = defaultW
		}
	case WIdxUpdateRuleDefault:
		st.current = defaultW
	case WIdxUpdateRuleNormal:
		next := int(st.current) + wIdxOffset
		if next < 0 {
			next = 0
		}
		if next > 10 {
			next = 10
		}
		st.current = uint8(next)
	}
	st.isFirst = false

	for id, a := range m.active {
		if timestamp >= a.end {
			delete(m.active, id)
		}
	}
}
