/*
NAME
  wav.go

DESCRIPTION
  wav.go loads a WAV file into an AudioFramePump via github.com/go-audio/wav,
  the same decode path exp/flac's WAV round-trip uses for its intermediate
  PCM buffer.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sample

import (
	"io"

	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// NewAudioFramePumpFromWav decodes the WAV stream r in full and returns an
// AudioFramePump chunking it into numSamplesPerFrame-sample spans, packed
// big/little-endian per bigEndian using the file's own bit depth.
func NewAudioFramePumpFromWav(r io.Reader, numSamplesPerFrame int, bigEndian bool) (*AudioFramePump, error) {
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "sample: decode wav")
	}
	format, err := FormatFromBitDepth(buf.SourceBitDepth, bigEndian)
	if err != nil {
		return nil, errors.Wrap(err, "sample: wav bit depth")
	}
	return NewAudioFramePump(buf, numSamplesPerFrame, format)
}
