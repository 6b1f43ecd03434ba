/*
NAME
  flac.go

DESCRIPTION
  flac.go parses the FLAC decoder config: a single METADATA_BLOCK_STREAMINFO
  (block header plus body, already marked as the last metadata block),
  by prefixing the FLAC stream marker and handing the result to
  github.com/mewkiz/flac the same way exp/flac's decoder consumes a
  parsed stream's Info block.

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
	"bytes"

	"github.com/mewkiz/flac"
	"github.com/pkg/errors"
)

var flacStreamMarker = []byte("fLaC")

// FLAC is the parsed FLAC decoder config, taken from the stream's
// STREAMINFO metadata block.
type FLAC struct {
	SampleRateHz  uint32
	NumChannels   uint8
	BitsPerSample uint8
}

func parseFLAC(decoderConfig []byte) (FLAC, error) {
	buf := make([]byte, 0, len(flacStreamMarker)+len(decoderConfig))
	buf = append(buf, flacStreamMarker...)
	buf = append(buf, decoderConfig...)

	stream, err := flac.Parse(bytes.NewReader(buf))
	if err != nil {
		return FLAC{}, errors.Wrap(err, "codecconfig: flac streaminfo")
	}
	return FLAC{
		SampleRateHz:  stream.Info.SampleRate,
		NumChannels:   uint8(stream.Info.NChannels),
		BitsPerSample: uint8(stream.Info.BitsPerSample),
	}, nil
}

func (f FLAC) SampleRate() uint32         { return f.SampleRateHz }
func (f FLAC) BitDepthForLoudness() uint8 { return f.BitsPerSample }
func (f FLAC) InputSampleRate() uint32    { return f.SampleRateHz }
func (f FLAC) OutputSampleRate() uint32   { return f.SampleRateHz }
