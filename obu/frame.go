/*
NAME
  frame.go

DESCRIPTION
  frame.go provides the bounded-frame helper every OBU body read path uses:
  carve out exactly obu_size (minus the already-consumed trailer) bytes from
  the source reader into an isolated sub-reader, so a body parser can never
  allocate or recurse beyond its declared size, then verify any bytes left
  unconsumed in that frame are all zero.

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

// DefaultMaxAllocBytes bounds any length-prefixed allocation the codec will
// perform while parsing a single OBU frame, per the core's memory
// discipline (§5): a caller-supplied cap defaulting to 2^28 bytes.
const DefaultMaxAllocBytes = 1 << 28

// ReadBodyFrame carves exactly bodySize bytes out of r into a new, bounded
// *bits.Reader. This is the frame a body parser must confine itself to: it
// must never read, seek, or allocate beyond it. maxAlloc caps bodySize
// itself to guard against hostile length fields.
func ReadBodyFrame(r *bits.Reader, bodySize uint32, maxAlloc uint32) (*bits.Reader, error) {
	if maxAlloc == 0 {
		maxAlloc = DefaultMaxAllocBytes
	}
	if bodySize > maxAlloc {
		return nil, invalidArgf("read_body_frame", "obu_size %d exceeds allocation cap %d", bodySize, maxAlloc)
	}
	buf := make([]byte, bodySize)
	if err := r.ReadUint8Span(buf); err != nil {
		return nil, wrapKind("read_body_frame", err)
	}
	return bits.NewReader(buf), nil
}

// FinishFrame verifies that whatever bytes remain unconsumed in sub (a
// frame returned by ReadBodyFrame) are all zero, and that sub is byte
// aligned. This is the "remaining bytes must be zero" rule spec.md §4.3
// requires of every body parser.
func FinishFrame(sub *bits.Reader) error {
	if sub.Tell()%8 != 0 {
		return internalf("finish_frame", "body parser left reader at non-byte-aligned position %d", sub.Tell())
	}
	for sub.IsDataAvailable() {
		b, err := sub.ReadUnsigned(8)
		if err != nil {
			return wrapKind("finish_frame", err)
		}
		if b != 0 {
			return invalidArgf("finish_frame", "trailing non-zero byte %#x left in OBU frame", b)
		}
	}
	return nil
}

// SkipReserved consumes and discards exactly bodySize bytes from r,
// implementing the "reserved OBU types are read and discarded without
// error" rule.
func SkipReserved(r *bits.Reader, bodySize uint32) error {
	_, err := ReadBodyFrame(r, bodySize, DefaultMaxAllocBytes)
	return err
}
