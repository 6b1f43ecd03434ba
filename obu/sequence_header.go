/*
NAME
  sequence_header.go

DESCRIPTION
  sequence_header.go implements the IaSequenceHeader OBU body: a 32-bit
  magic ("iamf") and two 8-bit profile fields. A fresh, non-redundant
  IaSequenceHeader terminates the previous IA sequence.

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

// iaMagic is the fixed 32-bit "iamf" magic that opens every IA sequence.
const iaMagic uint32 = 0x69616d66 // "iamf"

// Profile is an IAMF profile version, an 8-bit field.
type Profile uint8

// Profiles named in conformance vectors; others are accepted as opaque
// values since the core does not enforce profile conformance beyond what
// is needed to reject a bitstream it cannot represent (spec.md §1).
const (
	ProfileSimple Profile = 0
	ProfileBase   Profile = 1
)

// IaSequenceHeader is the mandatory first descriptor of every IA sequence.
type IaSequenceHeader struct {
	PrimaryProfile    Profile
	AdditionalProfile Profile
}

// Write serialises the header body (magic + two profile bytes).
func (h IaSequenceHeader) Write() ([]byte, error) {
	w := bits.NewWriter()
	if err := w.WriteUnsigned(uint64(iaMagic), 32); err != nil {
		return nil, wrapKind("sequence_header.write.magic", err)
	}
	if err := w.WriteUnsigned(uint64(h.PrimaryProfile), 8); err != nil {
		return nil, wrapKind("sequence_header.write.primary_profile", err)
	}
	if err := w.WriteUnsigned(uint64(h.AdditionalProfile), 8); err != nil {
		return nil, wrapKind("sequence_header.write.additional_profile", err)
	}
	w.Flush()
	return w.Bytes(), nil
}

// ReadIaSequenceHeader parses an IaSequenceHeader body from a bounded
// frame, verifying the magic.
func ReadIaSequenceHeader(r *bits.Reader) (IaSequenceHeader, error) {
	magic, err := r.ReadUnsigned(32)
	if err != nil {
		return IaSequenceHeader{}, wrapKind("sequence_header.read.magic", err)
	}
	if uint32(magic) != iaMagic {
		return IaSequenceHeader{}, invalidArgf("sequence_header.read.magic", "bad magic %#x, want %#x", magic, iaMagic)
	}
	primary, err := r.ReadUnsigned(8)
	if err != nil {
		return IaSequenceHeader{}, wrapKind("sequence_header.read.primary_profile", err)
	}
	additional, err := r.ReadUnsigned(8)
	if err != nil {
		return IaSequenceHeader{}, wrapKind("sequence_header.read.additional_profile", err)
	}
	return IaSequenceHeader{
		PrimaryProfile:    Profile(primary),
		AdditionalProfile: Profile(additional),
	}, nil
}
