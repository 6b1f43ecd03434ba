/*
NAME
  lpcm.go

DESCRIPTION
  lpcm.go parses the LPCM decoder config: sample_format_flags (bit 0
  selects big vs. little endian), sample_size and sample_rate, the
  fields codec/pcm.BufferFormat and codec/wav.Metadata name as
  SFormat/BitDepth and Rate/SampleRate respectively.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codecconfig

import (
	"github.com/pkg/errors"

	"github.com/ausocean/iamf/bits"
)

const lpcmSampleFormatBigEndianBit = 0x1

// LPCM is the parsed LPCM decoder config.
type LPCM struct {
	BigEndian    bool
	SampleSize   uint8
	SampleRateHz uint32
}

func parseLPCM(decoderConfig []byte) (LPCM, error) {
	r := bits.NewReader(decoderConfig)

	flags, err := r.ReadUnsigned(8)
	if err != nil {
		return LPCM{}, errors.Wrap(err, "codecconfig: lpcm sample_format_flags")
	}
	size, err := r.ReadUnsigned(8)
	if err != nil {
		return LPCM{}, errors.Wrap(err, "codecconfig: lpcm sample_size")
	}
	rate, err := r.ReadUnsigned(32)
	if err != nil {
		return LPCM{}, errors.Wrap(err, "codecconfig: lpcm sample_rate")
	}

	return LPCM{
		BigEndian:    flags&lpcmSampleFormatBigEndianBit == 0,
		SampleSize:   uint8(size),
		SampleRateHz: uint32(rate),
	}, nil
}

func (l LPCM) SampleRate() uint32         { return l.SampleRateHz }
func (l LPCM) BitDepthForLoudness() uint8 { return l.SampleSize }
func (l LPCM) InputSampleRate() uint32    { return l.SampleRateHz }
func (l LPCM) OutputSampleRate() uint32   { return l.SampleRateHz }
