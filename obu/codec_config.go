/*
NAME
  codec_config.go

DESCRIPTION
  codec_config.go implements the CodecConfig OBU body: an id, a 4-byte
  codec fourcc, the frame size in samples, the audio roll distance, and an
  opaque codec-specific decoder-config byte string. Per spec.md §6 the core
  never parses audio payload bytes; decoder-config interpretation beyond
  this opaque slice lives in package codecconfig.

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

// CodecID is the 4-byte fourcc identifying a codec's decoder config shape.
type CodecID uint32

// Supported codec fourccs, per spec.md §6's codec collaborator contract.
const (
	CodecIDOpus CodecID = 0x4f707573 // "Opus"
	CodecIDFLAC CodecID = 0x664c6143 // "fLaC"
	CodecIDAAC  CodecID = 0x6d703461 // "mp4a"
	CodecIDLPCM CodecID = 0x6970636d // "ipcm"
)

func (c CodecID) String() string {
	b := []byte{byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)}
	return string(b)
}

// CodecConfig is a CodecConfig OBU body.
type CodecConfig struct {
	ID                 uint32
	CodecID            CodecID
	NumSamplesPerFrame uint32
	AudioRollDistance  int16
	DecoderConfig      []byte
}

// Write serialises the CodecConfig body. DecoderConfig occupies the
// remainder of the OBU frame and is written verbatim.
func (c CodecConfig) Write() ([]byte, error) {
	w := bits.NewWriter()
	if err := w.WriteUleb128(c.ID); err != nil {
		return nil, wrapKind("codec_config.write.id", err)
	}
	if err := w.WriteUnsigned(uint64(c.CodecID), 32); err != nil {
		return nil, wrapKind("codec_config.write.codec_id", err)
	}
	if err := w.WriteUleb128(c.NumSamplesPerFrame); err != nil {
		return nil, wrapKind("codec_config.write.num_samples_per_frame", err)
	}
	if err := w.WriteSigned16(c.AudioRollDistance); err != nil {
		return nil, wrapKind("codec_config.write.audio_roll_distance", err)
	}
	w.Flush()
	if err := w.WriteBytes(c.DecoderConfig); err != nil {
		return nil, wrapKind("codec_config.write.decoder_config", err)
	}
	return w.Bytes(), nil
}

// ReadCodecConfig parses a CodecConfig body from a bounded frame. Whatever
// bytes remain in the frame after the fixed fields are taken as the opaque
// decoder config.
func ReadCodecConfig(r *bits.Reader) (CodecConfig, error) {
	id, _, err := r.ReadUleb128()
	if err != nil {
		return CodecConfig{}, wrapKind("codec_config.read.id", err)
	}
	codecIDBits, err := r.ReadUnsigned(32)
	if err != nil {
		return CodecConfig{}, wrapKind("codec_config.read.codec_id", err)
	}
	numSamples, _, err := r.ReadUleb128()
	if err != nil {
		return CodecConfig{}, wrapKind("codec_config.read.num_samples_per_frame", err)
	}
	rollDistance, err := r.ReadSigned16()
	if err != nil {
		return CodecConfig{}, wrapKind("codec_config.read.audio_roll_distance", err)
	}
	if r.Tell()%8 != 0 {
		return CodecConfig{}, internalf("codec_config.read", "reader not byte aligned after fixed fields")
	}
	rest := make([]byte, r.RemainingBytes())
	if err := r.ReadUint8Span(rest); err != nil {
		return CodecConfig{}, wrapKind("codec_config.read.decoder_config", err)
	}
	return CodecConfig{
		ID:                 id,
		CodecID:            CodecID(codecIDBits),
		NumSamplesPerFrame: numSamples,
		AudioRollDistance:  rollDistance,
		DecoderConfig:      rest,
	}, nil
}
