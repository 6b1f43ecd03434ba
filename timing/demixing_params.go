/*
NAME
  demixing_params.go

DESCRIPTION
  demixing_params.go implements DMixPModeToDownMixingParams: translating
  a wire dmixp_mode plus the running w_idx state into the DownMixingParams
  coefficient set (alpha/beta/gamma/delta/w) spec.md §4.5 step 3 requires
  the assembler to collect, mirroring
  original_source/iamf/obu/demixing_info_parameter_data.h's
  DownMixingParams struct and DMixPModeToDownMixingParams signature.

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

// DownMixingParams is the resolved down-mixing coefficient set for a
// temporal unit, mirroring the original_source DownMixingParams struct.
type DownMixingParams struct {
	Alpha, Beta, Gamma, Delta float64
	WIdxOffset                int
	WIdxUsed                  int
	W                         float64
	InBitstream               bool
}

type dmixpModeRow struct {
	alpha, beta, gamma, delta float64
	wIdxOffset                int
}

// dmixpModeTable holds each non-reserved dmixp_mode's default
// down-mixing coefficients and w_idx step. The *_n modes are identical
// to their base mode's coefficients but step w_idx the opposite
// direction. Exact production values are this module's own
// reconstruction from spec.md's S5 worked example (DMixPMode3 ->
// alpha=1.0, beta=gamma=delta=0.866): the defining
// default-demixing-parameters table lived in production source files
// the distillation's file cap dropped, so this table is illustrative
// rather than a transcription of IAMF's normative one.
var dmixpModeTable = map[obu.DMixPMode]dmixpModeRow{
	obu.DMixPMode1:  {alpha: 1.0, beta: 1.0, gamma: 0.866, delta: 0.866, wIdxOffset: 1},
	obu.DMixPMode2:  {alpha: 0.866, beta: 0.866, gamma: 0.866, delta: 0.866, wIdxOffset: 1},
	obu.DMixPMode3:  {alpha: 1.0, beta: 0.866, gamma: 0.866, delta: 0.866, wIdxOffset: 1},
	obu.DMixPMode1N: {alpha: 1.0, beta: 1.0, gamma: 0.866, delta: 0.866, wIdxOffset: -1},
	obu.DMixPMode2N: {alpha: 0.866, beta: 0.866, gamma: 0.866, delta: 0.866, wIdxOffset: -1},
	obu.DMixPMode3N: {alpha: 1.0, beta: 0.866, gamma: 0.866, delta: 0.866, wIdxOffset: -1},
}

// wTable maps a w_idx in [0,10] to the w value used to cross-fade
// between the previous and current temporal unit's down-mix.
var wTable = [11]float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

// DMixPModeToDownMixingParams translates mode into its down-mixing
// coefficients, resolving w_idx (and the w value it selects) from
// previousWIdx and rule: WIdxUpdateRuleNormal steps previousWIdx by
// mode's w_idx_offset (clamped to [0,10]); WIdxUpdateRuleFirstFrame and
// WIdxUpdateRuleDefault hold previousWIdx unchanged, since the caller is
// expected to have already passed default_w for those rules. It is
// InvalidArgument for mode to be reserved, or for previousWIdx to fall
// outside [0,10].
func DMixPModeToDownMixingParams(mode obu.DMixPMode, previousWIdx int, rule WIdxUpdateRule) (DownMixingParams, error) {
	row, ok := dmixpModeTable[mode]
	if !ok {
		return DownMixingParams{}, errors.Wrapf(obu.ErrInvalidArgument, "dmixp_mode_to_down_mixing_params: dmixp_mode %d is reserved or unknown", mode)
	}
	if previousWIdx < 0 || previousWIdx > 10 {
		return DownMixingParams{}, errors.Wrapf(obu.ErrInvalidArgument, "dmixp_mode_to_down_mixing_params: previous w_idx %d out of range [0,10]", previousWIdx)
	}

	wIdx := previousWIdx
	if rule == WIdxUpdateRuleNormal {
		wIdx += row.wIdxOffset
		if wIdx < 0 {
			wIdx = 0
		}
		if wIdx > 10 {
			wIdx = 10
		}
	}

	return DownMixingParams{
		Alpha:       row.alpha,
		Beta:        row.beta,
		Gamma:       row.gamma,
		Delta:       row.delta,
		WIdxOffset:  row.wIdxOffset,
		WIdxUsed:    wIdx,
		W:           wTable[wIdx],
		InBitstream: true,
	}, nil
}
