/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the sentinel errors returned by the bit writer and
  reader.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides an MSB-first bit writer and reader pair used to
// encode and decode the IAMF bitstream wire format: fixed-width literals,
// signed 16-bit values, booleans, ULEB128 and ISO/IEC 14496-1 expandable
// size fields, byte spans and nul-terminated strings.
package bits

import "errors"

// ErrInvalidArgument is returned when a caller-supplied argument is out of
// range, e.g. a bit width outside [1,64], a value that doesn't fit the
// requested width, or a ULEB128 that would need more than 5 bytes.
var ErrInvalidArgument = errors.New("bits: invalid argument")

// ErrResourceExhausted is returned by the Reader when fewer bits remain in
// the source than requested. The cursor is left unchanged so the caller can
// retry once more bytes are available.
var ErrResourceExhausted = errors.New("bits: resource exhausted")
