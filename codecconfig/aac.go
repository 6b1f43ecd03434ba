/*
NAME
  aac.go

DESCRIPTION
  aac.go parses the AAC-LC decoder config: an MPEG-4 AudioSpecificConfig,
  extracting audio_object_type, sampling_frequency_index (with the
  explicit-frequency escape) and channel_configuration, in the spirit of
  codec/aac's ADTS fixed-header field extraction.

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

// samplingFrequencyTable is MPEG-4's sampling_frequency_index table
// (ISO/IEC 14496-3 Table 1.16); index 15 means the rate follows explicitly
// as a 24-bit field instead of an index.
var samplingFrequencyTable = [...]uint32{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000, 7350,
}

const aacBitDepthForLoudness = 16

// AAC is the parsed AAC-LC decoder config.
type AAC struct {
	AudioObjectType      uint8
	SamplingFrequencyHz  uint32
	ChannelConfiguration uint8
}

func parseAAC(decoderConfig []byte) (AAC, error) {
	r := bits.NewReader(decoderConfig)

	objType, err := r.ReadUnsigned(5)
	if err != nil {
		return AAC{}, errors.Wrap(err, "codecconfig: aac audio_object_type")
	}
	idx, err := r.ReadUnsigned(4)
	if err != nil {
		return AAC{}, errors.Wrap(err, "codecconfig: aac sampling_frequency_index")
	}
	var rate uint32
	if idx == 0xf {
		explicit, err := r.ReadUnsigned(24)
		if err != nil {
			return AAC{}, errors.Wrap(err, "codecconfig: aac explicit sampling_frequency")
		}
		rate = uint32(explicit)
	} else {
		if int(idx) >= len(samplingFrequencyTable) {
			return AAC{}, errors.Errorf("codecconfig: aac sampling_frequency_index %d is reserved", idx)
		}
		rate = samplingFrequencyTable[idx]
	}
	chanConfig, err := r.ReadUnsigned(4)
	if err != nil {
		return AAC{}, errors.Wrap(err, "codecconfig: aac channel_configuration")
	}

	return AAC{
		AudioObjectType:      uint8(objType),
		SamplingFrequencyHz:  rate,
		ChannelConfiguration: uint8(chanConfig),
	}, nil
}

func (a AAC) SampleRate() uint32         { return a.SamplingFrequencyHz }
func (a AAC) BitDepthForLoudness() uint8 { return aacBitDepthForLoudness }
func (a AAC) InputSampleRate() uint32    { return a.SamplingFrequencyHz }
func (a AAC) OutputSampleRate() uint32   { return a.SamplingFrequencyHz }
