package bits

import (
	"github.com/pkg/errors"
)

// Reader is an MSB-first bit reader over a byte source. The source may grow
// over time (Feed appends more bytes) to support the streaming processor's
// "retry after more bytes arrive" contract: a read that returns
// ErrResourceExhausted leaves the cursor unchanged.
type Reader struct {
	data []byte
	pos  int64 // next bit to read, i.e. the cursor, in bits from the start of data.
}

// NewReader returns a Reader over the given byte slice. The slice is not
// copied; Feed appends to it with the built-in append, so bytes the
// original slice already holds are left untouched, but its spare capacity
// beyond len may be written.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Feed appends more bytes to the end of the source, for use after a read
// has failed with ErrResourceExhausted.
func (r *Reader) Feed(p []byte) {
	r.data = append(r.data, p...)
}

// Tell returns the current cursor position in bits from the start of the
// source.
func (r *Reader) Tell() int64 { return r.pos }

// Seek moves the cursor to an absolute bit position. It is an error for
// position to be negative, or greater than the number of bits available in
// the source (ErrResourceExhausted).
func (r *Reader) Seek(position int64) error {
	if position < 0 {
		return errors.Wrapf(ErrInvalidArgument, "seek: negative position %d", position)
	}
	if position > int64(len(r.data))*8 {
		return errors.Wrapf(ErrResourceExhausted, "seek: position %d beyond available %d bits", position, len(r.data)*8)
	}
	r.pos = position
	return nil
}

// remainingBits returns the number of bits left unread in the source.
func (r *Reader) remainingBits() int64 {
	return int64(len(r.data))*8 - r.pos
}

// IsDataAvailable reports whether any unread data remains in the source.
func (r *Reader) IsDataAvailable() bool { return r.remainingBits() > 0 }

// RemainingBytes returns the number of whole bytes left unread in the
// source, rounding down. Callers reading a bounded frame (see
// obu.ReadBodyFrame) use this to size a "read the rest of the frame"
// allocation.
func (r *Reader) RemainingBytes() int { return int(r.remainingBits() / 8) }

// ReadBool reads a single bit, returning true for 1.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUnsigned(1)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// ReadUnsigned reads the next nBits bits, most-significant bit first, and
// returns them right-justified in a uint64. nBits must be in [1,64]. On
// ErrResourceExhausted the cursor is left unchanged.
func (r *Reader) ReadUnsigned(nBits int) (uint64, error) {
	if nBits < 1 || nBits > 64 {
		return 0, errors.Wrapf(ErrInvalidArgument, "read_unsigned: n_bits %d out of [1,64]", nBits)
	}
	if int64(nBits) > r.remainingBits() {
		return 0, errors.Wrapf(ErrResourceExhausted, "read_unsigned: requested %d bits, %d available", nBits, r.remainingBits())
	}
	var out uint64
	remaining := nBits
	pos := r.pos
	for remaining > 0 {
		byteIdx := pos / 8
		bitOff := int(pos % 8)
		free := 8 - bitOff
		take := remaining
		if take > free {
			take = free
		}
		b := r.data[byteIdx]
		shift := free - take
		mask := byte((1 << uint(take)) - 1)
		chunk := (b >> uint(shift)) & mask
		out = (out << uint(take)) | uint64(chunk)
		pos += int64(take)
		remaining -= take
	}
	r.pos = pos
	return out, nil
}

// ReadSigned16 reads a two's-complement 16-bit signed integer.
func (r *Reader) ReadSigned16() (int16, error) {
	v, err := r.ReadUnsigned(16)
	if err != nil {
		return 0, err
	}
	return int16(uint16(v)), nil
}

// ReadUint8Span fills dst entirely from the source. dst must be byte
// aligned with the cursor; it is an error otherwise.
func (r *Reader) ReadUint8Span(dst []byte) error {
	if r.pos%8 != 0 {
		return errors.Wrap(ErrInvalidArgument, "read_uint8_span: reader is not byte aligned")
	}
	if int64(len(dst))*8 > r.remainingBits() {
		return errors.Wrapf(ErrResourceExhausted, "read_uint8_span: requested %d bytes, %d available", len(dst), r.remainingBits()/8)
	}
	start := r.pos / 8
	copy(dst, r.data[start:start+int64(len(dst))])
	r.pos += int64(len(dst)) * 8
	return nil
}

// maxReadLebSize bounds how many bytes a ULEB128 may occupy on read, per DWARF.
const maxReadLebSize = 5

// ReadUleb128 reads a ULEB128-encoded value and returns the decoded value
// along with the number of bytes consumed. It is InvalidArgument for the
// value to require more than 5 bytes, or to decode to something greater
// than 2^32-1 (the fifth byte carrying more than 4 significant bits).
// Non-minimal encodings are accepted.
func (r *Reader) ReadUleb128() (uint32, int, error) {
	startPos := r.pos
	var result uint64
	count := 0
	for {
		b, err := r.ReadUnsigned(8)
		if err != nil {
			r.pos = startPos
			return 0, 0, err
		}
		result |= (b & 0x7f) << uint(7*count)
		count++
		if b&0x80 == 0 {
			break
		}
		if count == maxReadLebSize {
			r.pos = startPos
			return 0, 0, errors.Wrap(ErrInvalidArgument, "read_uleb128: exceeds 5 bytes")
		}
	}
	if result > 0xffffffff {
		r.pos = startPos
		return 0, 0, errors.Wrapf(ErrInvalidArgument, "read_uleb128: decoded value %d overflows uint32", result)
	}
	return uint32(result), count, nil
}

// ReadIso14496_1Expandable reads an ISO/IEC 14496-1 expandable-size field:
// 7 payload bits per byte, MSB is the continuation flag. It aborts with
// InvalidArgument if the accumulated value would exceed 2^maxClassSize-1.
func (r *Reader) ReadIso14496_1Expandable(maxClassSize int) (uint32, error) {
	if maxClassSize <= 0 || maxClassSize > 32 {
		return 0, errors.Wrapf(ErrInvalidArgument, "read_iso14496_1_expandable: invalid max_class_size %d", maxClassSize)
	}
	startPos := r.pos
	var result uint64
	limit := uint64(1) << uint(maxClassSize)
	for {
		b, err := r.ReadUnsigned(8)
		if err != nil {
			r.pos = startPos
			return 0, err
		}
		result = (result << 7) | (b & 0x7f)
		if result >= limit {
			r.pos = startPos
			return 0, errors.Wrapf(ErrInvalidArgument, "read_iso14496_1_expandable: value exceeds max class size %d bits", maxClassSize)
		}
		if b&0x80 == 0 {
			break
		}
	}
	return uint32(result), nil
}

// ReadString reads bytes up to and including a nul terminator, returning
// the string without the terminator. It is InvalidArgument for no
// terminator to appear within 128 bytes (including the would-be
// terminator).
func (r *Reader) ReadString() (string, error) {
	startPos := r.pos
	buf := make([]byte, 0, 16)
	for i := 0; i < maxStringLen; i++ {
		b, err := r.ReadUnsigned(8)
		if err != nil {
			r.pos = startPos
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, byte(b))
	}
	r.pos = startPos
	return "", errors.Wrapf(ErrInvalidArgument, "read_string: no nul terminator within %d bytes", maxStringLen)
}
