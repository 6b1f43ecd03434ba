package bits

import (
	"fmt"

	"github.com/pkg/errors"
)

// LebGenerator controls how ULEB128 values are serialised by a Writer. The
// IAMF reference encoder and independent implementations must be able to
// reproduce each other's bit-exact output, including non-minimal ULEB128
// encodings used by some conformance vectors, hence this is a pluggable
// policy rather than a constant.
type LebGenerator struct {
	// FixedSize, when non-zero, forces every ULEB128 written through this
	// generator to occupy exactly this many bytes (1..5), padding with
	// continuation-bit-set zero payload bytes as needed. When zero, the
	// minimal encoding is used.
	FixedSize int
}

// MinimalLebGenerator returns the default policy: every ULEB128 is written
// in the fewest bytes that represent its value.
func MinimalLebGenerator() LebGenerator { return LebGenerator{} }

// FixedLebGenerator returns a policy that always emits ULEB128 values at
// the given fixed byte width. size must be in [1,5].
func FixedLebGenerator(size int) LebGenerator { return LebGenerator{FixedSize: size} }

// maxLebSize is the maximum number of bytes a ULEB128 may occupy; this
// bounds any 32-bit unsigned value.
const maxLebSize = 5

// Writer is an append-only, MSB-first bit writer. The zero value is not
// usable; use NewWriter.
type Writer struct {
	buf  []byte
	leb  LebGenerator
	pend byte // bits not yet flushed to buf, left-justified in the high bits.
	n    int  // number of valid bits in pend, in [0,8).
}

// NewWriter returns a Writer that appends to an internal buffer, using the
// minimal ULEB128 encoding.
func NewWriter() *Writer {
	return &Writer{leb: MinimalLebGenerator()}
}

// SetLebGenerator installs the ULEB128 generation policy used by all
// subsequent WriteUleb128 calls.
func (w *Writer) SetLebGenerator(g LebGenerator) { w.leb = g }

// Bytes returns the bytes written so far. The caller must not write to the
// returned slice. It is an error to call Bytes with a partial byte pending;
// callers that need mid-byte snapshots should not rely on Bytes.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of fully flushed bytes written so far. It does not
// count a pending partial byte.
func (w *Writer) Len() int { return len(w.buf) }

// ByteAligned reports whether the writer has no pending partial byte.
func (w *Writer) ByteAligned() bool { return w.n == 0 }

// Flush pads any pending partial byte with zero bits and appends it, so
// Bytes reflects everything written so far. OBU bodies are designed to
// always end byte aligned; Flush exists for the rare caller that needs to
// force alignment (e.g. reserved-bit padding already accounts for this in
// practice).
func (w *Writer) Flush() {
	if w.n != 0 {
		w.buf = append(w.buf, w.pend)
		w.pend = 0
		w.n = 0
	}
}

// WriteBool appends a single bit: 1 for true, 0 for false.
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteUnsigned(1, 1)
	}
	return w.WriteUnsigned(0, 1)
}

// WriteUnsigned appends the low nBits bits of value, most-significant bit
// first. nBits must be in [1,64] and value must fit in nBits bits.
func (w *Writer) WriteUnsigned(value uint64, nBits int) error {
	if nBits < 1 || nBits > 64 {
		return errors.Wrapf(ErrInvalidArgument, "write_unsigned: n_bits %d out of [1,64]", nBits)
	}
	if nBits < 64 && value > (uint64(1)<<uint(nBits))-1 {
		return errors.Wrapf(ErrInvalidArgument, "write_unsigned: value %d does not fit in %d bits", value, nBits)
	}
	for nBits > 0 {
		free := 8 - w.n
		take := nBits
		if take > free {
			take = free
		}
		shift := nBits - take
		chunk := byte((value >> uint(shift)) & ((1 << uint(take)) - 1))
		w.pend |= chunk << uint(free-take)
		w.n += take
		nBits -= take
		value &= (1 << uint(shift)) - 1
		if w.n == 8 {
			w.buf = append(w.buf, w.pend)
			w.pend = 0
			w.n = 0
		}
	}
	return nil
}

// WriteSigned16 appends a two's-complement 16-bit signed integer.
func (w *Writer) WriteSigned16(v int16) error {
	return w.WriteUnsigned(uint64(uint16(v)), 16)
}

// WriteBytes appends a byte-aligned span verbatim. It is an error to call
// this with a pending partial byte.
func (w *Writer) WriteBytes(p []byte) error {
	if w.n != 0 {
		return errors.Wrap(ErrInvalidArgument, "write_bytes: writer is not byte aligned")
	}
	w.buf = append(w.buf, p...)
	return nil
}

// WriteUleb128 appends value using the installed LebGenerator policy.
// Values greater than 2^32-1 are rejected, and a fixed-width policy that
// cannot hold value is an error.
func (w *Writer) WriteUleb128(value uint32) error {
	size := w.leb.FixedSize
	if size == 0 {
		size = minimalLebSize(value)
	}
	if size < 1 || size > maxLebSize {
		return errors.Wrapf(ErrInvalidArgument, "write_uleb128: invalid fixed size %d", size)
	}
	if minimalLebSize(value) > size {
		return errors.Wrapf(ErrInvalidArgument, "write_uleb128: value %d does not fit in %d bytes", value, size)
	}
	v := value
	for i := 0; i < size; i++ {
		b := byte(v & 0x7f)
		v >>= 7
		if i != size-1 {
			b |= 0x80
		}
		if err := w.WriteUnsigned(uint64(b), 8); err != nil {
			return err
		}
	}
	return nil
}

// minimalLebSize returns the number of bytes needed to encode value as a
// minimal ULEB128 (at least 1).
func minimalLebSize(value uint32) int {
	n := 1
	v := value >> 7
	for v != 0 {
		n++
		v >>= 7
	}
	return n
}

// WriteIso14496_1Expandable writes value using the ISO/IEC 14496-1
// expandable-size encoding: 7 payload bits per byte, MSB is the
// continuation flag, using the minimal number of bytes. maxClassSizeBits
// bounds the representable value; it is an error for value to require more
// bits than that.
func (w *Writer) WriteIso14496_1Expandable(value uint32, maxClassSizeBits int) error {
	if maxClassSizeBits <= 0 || maxClassSizeBits > 32 {
		return errors.Wrapf(ErrInvalidArgument, "write_iso14496_1_expandable: invalid max_class_size_bits %d", maxClassSizeBits)
	}
	if maxClassSizeBits < 32 && value > (uint32(1)<<uint(maxClassSizeBits))-1 {
		return errors.Wrapf(ErrInvalidArgument, "write_iso14496_1_expandable: value %d exceeds max class size", value)
	}
	// Minimal number of 7-bit groups needed.
	n := 1
	for v := value >> 7; v != 0; v >>= 7 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		b := byte((value >> uint(7*i)) & 0x7f)
		if i != 0 {
			b |= 0x80
		}
		if err := w.WriteUnsigned(uint64(b), 8); err != nil {
			return err
		}
	}
	return nil
}

// maxStringLen is the maximum length of a nul-terminated string, including
// the terminator, accepted by WriteString.
const maxStringLen = 128

// WriteString writes s followed by a nul terminator. len(s)+1 must not
// exceed 128 bytes.
func (w *Writer) WriteString(s string) error {
	if len(s)+1 > maxStringLen {
		return errors.Wrapf(ErrInvalidArgument, "write_string: %q exceeds max length %d including terminator", s, maxStringLen)
	}
	if err := w.WriteBytes([]byte(s)); err != nil {
		return err
	}
	return w.WriteUnsigned(0, 8)
}

// String returns a debug representation of the writer's progress.
func (w *Writer) String() string {
	return fmt.Sprintf("bits.Writer{bytes=%d, pending_bits=%d}", len(w.buf), w.n)
}
