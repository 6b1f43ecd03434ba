/*
NAME
  types.go

DESCRIPTION
  types.go defines the OBU type enumeration and the common OBU header
  framing shared by every OBU body: obu_type, the redundant-copy/trimming/
  extension flags, obu_size, and the optional trimming and extension
  trailer fields.

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

// Type is the 5-bit OBU type carried in the common OBU header.
type Type uint8

// OBU type constants, per spec.md §4.2.
const (
	TypeIaSequenceHeader Type = 0
	TypeCodecConfig      Type = 1
	TypeAudioElement     Type = 2
	TypeMixPresentation  Type = 3
	TypeParameterBlock   Type = 4
	TypeTemporalDelimiter Type = 5
	TypeAudioFrame        Type = 6 // generic; explicit substream id in body.

	// TypeAudioFrameID0..17 encode the substream id via the OBU type byte
	// itself, 18 dedicated types following TypeAudioFrame.
	TypeAudioFrameID0 Type = 7

	// reserved ranges, read and discarded without error.
	TypeReservedRangeStart Type = 26
	TypeReservedRangeEnd   Type = 31
)

// TypeAudioFrameIDN returns the dedicated OBU type for explicit substream
// id n, n in [0,17].
func TypeAudioFrameIDN(n int) Type {
	return TypeAudioFrameID0 + Type(n)
}

// SubstreamIDForType returns the substream id encoded by t if t is one of
// the dedicated AudioFrameId0..17 types, and ok=false otherwise.
func SubstreamIDForType(t Type) (id int, ok bool) {
	if t >= TypeAudioFrameID0 && t < TypeAudioFrameID0+18 {
		return int(t - TypeAudioFrameID0), true
	}
	return 0, false
}

// IsReserved reports whether t falls in a reserved OBU type range: such
// OBUs are read (consuming obu_size bytes) and discarded without error.
func (t Type) IsReserved() bool {
	if t >= TypeReservedRangeStart && t <= TypeReservedRangeEnd {
		return true
	}
	// Between the last dedicated audio-frame-id type and the first
	// reserved range also counts as reserved/unused space.
	if t > TypeAudioFrameIDN(17) && t < TypeReservedRangeStart {
		return true
	}
	return false
}

// IsDescriptor reports whether t is one of the descriptor OBU types that
// must precede any temporal-unit OBU: codec config, audio element, mix
// presentation. IaSequenceHeader is handled separately since a *fresh*
// non-redundant one terminates the current sequence rather than being
// folded into the descriptor loop.
func (t Type) IsDescriptor() bool {
	switch t {
	case TypeCodecConfig, TypeAudioElement, TypeMixPresentation:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	switch t {
	case TypeIaSequenceHeader:
		return "IaSequenceHeader"
	case TypeCodecConfig:
		return "CodecConfig"
	case TypeAudioElement:
		return "AudioElement"
	case TypeMixPresentation:
		return "MixPresentation"
	case TypeParameterBlock:
		return "ParameterBlock"
	case TypeTemporalDelimiter:
		return "TemporalDelimiter"
	case TypeAudioFrame:
		return "AudioFrame"
	default:
		if id, ok := SubstreamIDForType(t); ok {
			return "AudioFrameId" + itoa(id)
		}
		if t.IsReserved() {
			return "Reserved"
		}
		return "Unknown"
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Header is the common OBU header preceding every OBU payload.
type Header struct {
	Type               Type
	RedundantCopy      bool
	TrimmingStatusFlag bool
	ExtensionFlag      bool

	// NumSamplesToTrimAtEnd/Start are present only when TrimmingStatusFlag
	// is set. The wire order is end, then start.
	NumSamplesToTrimAtEnd   uint32
	NumSamplesToTrimAtStart uint32

	// ExtensionHeaderBytes are present only when ExtensionFlag is set.
	ExtensionHeaderBytes []byte

	// Size is the declared obu_size: the number of bytes following the
	// size field, i.e. the trimming/extension trailer plus the payload
	// body.
	Size uint32
}

// writeTrailer writes the header's trimming and extension trailer into
// w; its bytes count towards obu_size.
func (h *Header) writeTrailer(w *bits.Writer) error {
	if h.TrimmingStatusFlag {
		if err := w.WriteUleb128(h.NumSamplesToTrimAtEnd); err != nil {
			return wrapKind("write_header.trim_end", err)
		}
		if err := w.WriteUleb128(h.NumSamplesToTrimAtStart); err != nil {
			return wrapKind("write_header.trim_start", err)
		}
	}
	if h.ExtensionFlag {
		if err := w.WriteUleb128(uint32(len(h.ExtensionHeaderBytes))); err != nil {
			return wrapKind("write_header.ext_size", err)
		}
		if err := w.WriteBytes(h.ExtensionHeaderBytes); err != nil {
			return wrapKind("write_header.ext_bytes", err)
		}
	}
	return nil
}

// WriteHeaderAndBody writes the common OBU header followed by body, setting
// obu_size to len(trailer)+len(body). body must already be a complete,
// byte-aligned serialisation of the OBU payload.
func WriteHeaderAndBody(w *bits.Writer, h Header, body []byte) error {
	trailer := bits.NewWriter()
	if err := h.writeTrailer(trailer); err != nil {
		return err
	}
	trailer.Flush()
	size := uint32(len(trailer.Bytes()) + len(body))

	if err := w.WriteUnsigned(uint64(h.Type), 5); err != nil {
		return wrapKind("write_header.type", err)
	}
	if err := w.WriteBool(h.RedundantCopy); err != nil {
		return wrapKind("write_header.redundant", err)
	}
	if err := w.WriteBool(h.TrimmingStatusFlag); err != nil {
		return wrapKind("write_header.trim_flag", err)
	}
	if err := w.WriteBool(h.ExtensionFlag); err != nil {
		return wrapKind("write_header.ext_flag", err)
	}
	if err := w.WriteUleb128(size); err != nil {
		return wrapKind("write_header.size", err)
	}
	w.Flush()
	if err := w.WriteBytes(trailer.Bytes()); err != nil {
		return wrapKind("write_header.trailer_bytes", err)
	}
	if err := w.WriteBytes(body); err != nil {
		return wrapKind("write_header.body_bytes", err)
	}
	return nil
}

// PeekType reads just enough of the next OBU to report its type, without
// consuming the reader (it seeks back on success too, since callers decide
// separately whether to consume the full header). Returns
// ErrResourceExhausted if even the type bits are not available.
func PeekType(r *bits.Reader) (Type, error) {
	start := r.Tell()
	v, err := r.ReadUnsigned(5)
	if err != nil {
		r.Seek(start)
		return 0, wrapKind("peek_type", err)
	}
	if err := r.Seek(start); err != nil {
		return 0, wrapKind("peek_type", err)
	}
	return Type(v), nil
}

// ReadHeader reads the common OBU header. On ErrResourceExhausted the
// reader is left at the position it had on entry.
func ReadHeader(r *bits.Reader) (Header, error) {
	start := r.Tell()
	fail := func(err error) (Header, error) {
		r.Seek(start)
		return Header{}, wrapKind("read_header", err)
	}

	typeBits, err := r.ReadUnsigned(5)
	if err != nil {
		return fail(err)
	}
	redundant, err := r.ReadBool()
	if err != nil {
		return fail(err)
	}
	trimFlag, err := r.ReadBool()
	if err != nil {
		return fail(err)
	}
	extFlag, err := r.ReadBool()
	if err != nil {
		return fail(err)
	}
	size, _, err := r.ReadUleb128()
	if err != nil {
		return fail(err)
	}

	h := Header{
		Type:               Type(typeBits),
		RedundantCopy:      redundant,
		TrimmingStatusFlag: trimFlag,
		ExtensionFlag:      extFlag,
		Size:               size,
	}

	trailerStart := r.Tell()
	if trimFlag {
		end, _, err := r.ReadUleb128()
		if err != nil {
			return fail(err)
		}
		startTrim, _, err := r.ReadUleb128()
		if err != nil {
			return fail(err)
		}
		h.NumSamplesToTrimAtEnd = end
		h.NumSamplesToTrimAtStart = startTrim
	}
	if extFlag {
		extSize, _, err := r.ReadUleb128()
		if err != nil {
			return fail(err)
		}
		buf := make([]byte, extSize)
		if err := r.ReadUint8Span(buf); err != nil {
			return fail(err)
		}
		h.ExtensionHeaderBytes = buf
	}
	trailerLen := (r.Tell() - trailerStart) / 8
	if uint32(trailerLen) > size {
		return fail(internalf("read_header", "trailer length %d exceeds obu_size %d", trailerLen, size))
	}

	return h, nil
}

// BodySize returns the number of payload bytes remaining in this OBU's
// frame after the common header (and its trailer) have been consumed.
func (h Header) BodySize() uint32 {
	trailer := bits.NewWriter()
	h.writeTrailer(trailer)
	trailer.Flush()
	return h.Size - uint32(len(trailer.Bytes()))
}
