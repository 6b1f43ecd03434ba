/*
NAME
  audio_frame.go

DESCRIPTION
  audio_frame.go implements the AudioFrame OBU body: a substream id plus
  an opaque compressed-payload byte string. Per spec.md §3 the substream
  id is carried explicitly in the body only for the generic AudioFrame
  OBU type; the 18 dedicated AudioFrameId0..17 types instead encode it in
  the OBU type byte itself, so the body holds payload bytes only.

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

// AudioFrame is an AudioFrame OBU body (generic or id-inferred).
type AudioFrame struct {
	SubstreamID uint32
	Payload     []byte
}

// Write serialises the body for the given OBU type. For dedicated
// AudioFrameId0..17 types the substream id is omitted (it rides in the
// type byte instead) and must equal the id that type encodes.
func (f AudioFrame) Write(t Type) ([]byte, error) {
	w := bits.NewWriter()
	if t == TypeAudioFrame {
		if err := w.WriteUleb128(f.SubstreamID); err != nil {
			return nil, wrapKind("audio_frame.write.substream_id", err)
		}
	} else if id, ok := SubstreamIDForType(t); ok {
		if uint32(id) != f.SubstreamID {
			return nil, invalidArgf("audio_frame.write", "obu type %s encodes substream %d, but SubstreamID is %d", t, id, f.SubstreamID)
		}
	} else {
		return nil, invalidArgf("audio_frame.write", "type %s is not an audio frame type", t)
	}
	w.Flush()
	if err := w.WriteBytes(f.Payload); err != nil {
		return nil, wrapKind("audio_frame.write.payload", err)
	}
	return w.Bytes(), nil
}

// ReadAudioFrame parses an AudioFrame body from a bounded frame. For
// dedicated AudioFrameId0..17 types the substream id is taken from t; for
// the generic AudioFrame type it is read from the body.
func ReadAudioFrame(r *bits.Reader, t Type) (AudioFrame, error) {
	var id uint32
	if t == TypeAudioFrame {
		v, _, err := r.ReadUleb128()
		if err != nil {
			return AudioFrame{}, wrapKind("audio_frame.read.substream_id", err)
		}
		id = v
	} else if dedicated, ok := SubstreamIDForType(t); ok {
		id = uint32(dedicated)
	} else {
		return AudioFrame{}, invalidArgf("audio_frame.read", "type %s is not an audio frame type", t)
	}
	payload := make([]byte, r.RemainingBytes())
	if err := r.ReadUint8Span(payload); err != nil {
		return AudioFrame{}, wrapKind("audio_frame.read.payload", err)
	}
	return AudioFrame{SubstreamID: id, Payload: payload}, nil
}
