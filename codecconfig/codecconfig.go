/*
NAME
  codecconfig.go

DESCRIPTION
  codecconfig.go dispatches a CodecConfig's opaque decoder-config bytes to
  a typed view exposing the fields the audio-frame assembler and loudness
  renderer collaborator need: sample_rate, bit_depth_for_loudness and
  input/output_sample_rate. num_samples_per_frame is not part of the view;
  it is the NumSamplesPerFrame field of obu.CodecConfig itself. The core
  never parses audio payload bytes, only this descriptor metadata.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package codecconfig provides typed views over the opaque decoder-config
// byte slice carried by a CodecConfig OBU, for each codec IAMF supports.
package codecconfig

import (
	"github.com/pkg/errors"

	"github.com/ausocean/iamf/obu"
)

// View is the set of fields every codec's decoder config must expose for
// loudness measurement and sample-rate conversion.
type View interface {
	// SampleRate is the codec's native sample rate in Hz.
	SampleRate() uint32
	// BitDepthForLoudness is the bit depth loudness measurement should
	// assume. Opus, which has no fixed depth, reports 0; AAC reports 16.
	BitDepthForLoudness() uint8
	// InputSampleRate is the sample rate audio was encoded from.
	InputSampleRate() uint32
	// OutputSampleRate is the sample rate decoding reconstructs.
	OutputSampleRate() uint32
}

// NewView parses c.DecoderConfig according to c.CodecID and returns the
// matching typed view.
func NewView(c obu.CodecConfig) (View, error) {
	switch c.CodecID {
	case obu.CodecIDOpus:
		return parseOpus(c.DecoderConfig)
	case obu.CodecIDFLAC:
		return parseFLAC(c.DecoderConfig)
	case obu.CodecIDAAC:
		return parseAAC(c.DecoderConfig)
	case obu.CodecIDLPCM:
		return parseLPCM(c.DecoderConfig)
	default:
		return nil, errors.Errorf("codecconfig: unsupported codec_id %s", c.CodecID)
	}
}
