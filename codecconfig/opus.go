/*
NAME
  opus.go

DESCRIPTION
  opus.go parses the Opus decoder config: the Ogg Opus identification
  header's fixed fields (version, channel count, pre-skip, input sample
  rate, output gain, channel mapping family), per RFC 7845 §5.1.

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

// Opus is the parsed Opus decoder config.
type Opus struct {
	Version              uint8
	OutputChannelCount   uint8
	PreSkip              uint16
	InputSampleRateHz    uint32
	OutputGainQ7_8       int16
	ChannelMappingFamily uint8
}

// Opus always decodes to 48kHz internally, regardless of InputSampleRateHz.
const opusOutputSampleRate = 48000

func parseOpus(decoderConfig []byte) (Opus, error) {
	r := bits.NewReader(decoderConfig)

	version, err := r.ReadUnsigned(8)
	if err != nil {
		return Opus{}, errors.Wrap(err, "codecconfig: opus version")
	}
	channels, err := r.ReadUnsigned(8)
	if err != nil {
		return Opus{}, errors.Wrap(err, "codecconfig: opus output_channel_count")
	}
	preSkip, err := r.ReadUnsigned(16)
	if err != nil {
		return Opus{}, errors.Wrap(err, "codecconfig: opus pre_skip")
	}
	rate, err := r.ReadUnsigned(32)
	if err != nil {
		return Opus{}, errors.Wrap(err, "codecconfig: opus input_sample_rate")
	}
	gain, err := r.ReadSigned16()
	if err != nil {
		return Opus{}, errors.Wrap(err, "codecconfig: opus output_gain")
	}
	family, err := r.ReadUnsigned(8)
	if err != nil {
		return Opus{}, errors.Wrap(err, "codecconfig: opus channel_mapping_family")
	}

	return Opus{
		Version:              uint8(version),
		OutputChannelCount:   uint8(channels),
		PreSkip:              uint16(preSkip),
		InputSampleRateHz:    uint32(rate),
		OutputGainQ7_8:       gain,
		ChannelMappingFamily: uint8(family),
	}, nil
}

func (o Opus) SampleRate() uint32         { return opusOutputSampleRate }
func (o Opus) BitDepthForLoudness() uint8 { return 0 }
func (o Opus) InputSampleRate() uint32    { return o.InputSampleRateHz }
func (o Opus) OutputSampleRate() uint32   { return opusOutputSampleRate }
