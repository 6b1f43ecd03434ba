/*
NAME
  temporal_delimiter.go

DESCRIPTION
  temporal_delimiter.go implements the TemporalDelimiter OBU body, an
  empty marker that may precede a temporal unit.

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

// TemporalDelimiter is a TemporalDelimiter OBU body. It carries no
// fields; its only meaning is its position in the stream.
type TemporalDelimiter struct{}

// Write serialises the (empty) body.
func (TemporalDelimiter) Write() ([]byte, error) {
	return nil, nil
}

// ReadTemporalDelimiter parses a TemporalDelimiter body. It consumes
// nothing and always succeeds; leftover body bytes are not checked here
// but by FinishFrame, which the caller runs on the frame afterwards.
func ReadTemporalDelimiter(r *bits.Reader) (TemporalDelimiter, error) {
	return TemporalDelimiter{}, nil
}
