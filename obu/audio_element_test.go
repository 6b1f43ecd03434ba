package obu

import (
	"testing"

	"github.com/ausocean/iamf/bits"
	"github.com/google/go-cmp/cmp"
)

// TestAmbisonicsMonoWriteExactBytes pins the wire layout for a 4-channel,
// 4-substream direct mapping: output_channel_count, substream_count, then
// one channel_mapping byte per output channel, all plain u8 fields.
func TestAmbisonicsMonoWriteExactBytes(t *testing.T) {
	a := AmbisonicsMono{
		OutputChannelCount: 4,
		SubstreamCount:     4,
		ChannelMapping:     []uint8{0, 1, 2, 3},
	}
	w := bits.NewWriter()
	if err := a.write(w); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []byte{0x04, 0x04, 0x00, 0x01, 0x02, 0x03}
	if diff := cmp.Diff(want, w.Bytes()); diff != "" {
		t.Errorf("byte mismatch (-want +got):\n%s", diff)
	}
}

func TestAmbisonicsMonoRoundTrip(t *testing.T) {
	a := AmbisonicsMono{OutputChannelCount: 4, SubstreamCount: 4, ChannelMapping: []uint8{0, 1, 2, 3}}
	w := bits.NewWriter()
	if err := a.write(w); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := bits.NewReader(w.Bytes())
	got, err := readAmbisonicsMono(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAmbisonicsMonoRejectsNonSquareChannelCount(t *testing.T) {
	a := AmbisonicsMono{OutputChannelCount: 5, SubstreamCount: 5, ChannelMapping: make([]uint8, 5)}
	w := bits.NewWriter()
	if err := a.write(w); err == nil {
		t.Errorf("expected error for output_channel_count 5 (not a perfect square)")
	}
}

func TestAmbisonicsMonoRejectsMissingSubstreamMapping(t *testing.T) {
	a := AmbisonicsMono{
		OutputChannelCount: 4,
		SubstreamCount:     4,
		ChannelMapping:     []uint8{0, 1, 2, 2}, // substream 3 never mapped
	}
	w := bits.NewWriter()
	if err := a.write(w); err == nil {
		t.Errorf("expected error for substream with no channel_mapping entry")
	}
}

func TestSmallestAllowedAmbisonicsChannelCount(t *testing.T) {
	cases := []struct{ n, want uint32 }{{1, 1}, {2, 4}, {4, 4}, {5, 9}, {200, 225}}
	for _, c := range cases {
		if got := SmallestAllowedAmbisonicsChannelCount(c.n); got != c.want {
			t.Errorf("SmallestAllowedAmbisonicsChannelCount(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestAmbisonicsProjectionRoundTrip(t *testing.T) {
	a := AmbisonicsProjection{
		OutputChannelCount:    4,
		SubstreamCount:        2,
		CoupledSubstreamCount: 1,
		DemixingMatrix:        make([]int16, (2+1)*4),
	}
	for i := range a.DemixingMatrix {
		a.DemixingMatrix[i] = int16(i * 100)
	}
	w := bits.NewWriter()
	if err := a.write(w); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := bits.NewReader(w.Bytes())
	got, err := readAmbisonicsProjection(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestScalableChannelLayoutConfigRoundTrip(t *testing.T) {
	c := ScalableChannelLayoutConfig{
		Layers: []ChannelLayer{
			{LoudspeakerLayout: LoudspeakerLayoutStereo, SubstreamCount: 1, CoupledSubstreamCount: 1},
			{
				LoudspeakerLayout:   LoudspeakerLayoutMono,
				OutputGainIsPresent: true,
				ReconGainIsPresent:  true,
				SubstreamCount:      1,
				OutputGainFlag:      0x3f,
				OutputGain:          -100,
			},
		},
	}
	w := bits.NewWriter()
	if err := c.write(w); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := bits.NewReader(w.Bytes())
	got, err := readScalableChannelLayoutConfig(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestScalableChannelLayoutConfigRejectsMultiLayerBinaural(t *testing.T) {
	c := ScalableChannelLayoutConfig{
		Layers: []ChannelLayer{
			{LoudspeakerLayout: LoudspeakerLayoutBinaural, SubstreamCount: 1},
			{LoudspeakerLayout: LoudspeakerLayoutStereo, SubstreamCount: 1},
		},
	}
	if err := c.validate(); err == nil {
		t.Errorf("expected error: binaural must be the only layer")
	}
}

func channelBasedAudioElement(id, codecConfigID uint32) AudioElement {
	return AudioElement{
		ID:            id,
		Type:          AudioElementTypeChannelBased,
		CodecConfigID: codecConfigID,
		SubstreamIDs:  []uint32{10, 11},
		Params: []AudioElementParam{
			{Type: ParamDefinitionTypeDemixing, Definition: ParamDefinition{
				Type: ParamDefinitionTypeDemixing,
				Header: ParamDefinitionHeader{
					ParameterID:   20,
					ParameterRate: 48000,
					Subblocks:     SubblockDurations{Duration: 10, ConstantSubblockDuration: 10},
				},
				DefaultDemixing: DemixingInfoParameterData{DMixPMode: 1, DefaultW: 2},
			}},
		},
		ChannelConfig: &ScalableChannelLayoutConfig{
			Layers: []ChannelLayer{
				{LoudspeakerLayout: LoudspeakerLayoutStereo, SubstreamCount: 2, CoupledSubstreamCount: 1},
			},
		},
	}
}

func TestAudioElementChannelBasedRoundTrip(t *testing.T) {
	a := channelBasedAudioElement(1, 5)
	b, err := a.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(b)
	got, err := ReadAudioElement(r, nil)
	if err != nil {
		t.Fatalf("ReadAudioElement: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAudioElementAmbisonicsMonoRoundTrip(t *testing.T) {
	mono := AmbisonicsMono{OutputChannelCount: 4, SubstreamCount: 4, ChannelMapping: []uint8{0, 1, 2, 3}}
	a := AudioElement{
		ID:             2,
		Type:           AudioElementTypeSceneBased,
		CodecConfigID:  5,
		SubstreamIDs:   []uint32{1, 2, 3, 4},
		Params:         []AudioElementParam{},
		AmbisonicsMono: &mono,
	}
	b, err := a.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(b)
	got, err := ReadAudioElement(r, nil)
	if err != nil {
		t.Fatalf("ReadAudioElement: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAudioElementAmbisonicsProjectionRoundTrip(t *testing.T) {
	proj := AmbisonicsProjection{
		OutputChannelCount:    4,
		SubstreamCount:        2,
		CoupledSubstreamCount: 1,
		DemixingMatrix:        make([]int16, (2+1)*4),
	}
	a := AudioElement{
		ID:             3,
		Type:           AudioElementTypeSceneBased,
		CodecConfigID:  5,
		SubstreamIDs:   []uint32{1, 2, 3},
		Params:         []AudioElementParam{},
		AmbisonicsProj: &proj,
	}
	b, err := a.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(b)
	got, err := ReadAudioElement(r, nil)
	if err != nil {
		t.Fatalf("ReadAudioElement: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAudioElementExtensionRoundTrip(t *testing.T) {
	a := AudioElement{
		ID:            4,
		Type:          AudioElementTypeReservedStart,
		CodecConfigID: 5,
		SubstreamIDs:  []uint32{},
		Params:        []AudioElementParam{},
		Extension:     &ExtensionConfig{Bytes: []byte{1, 2, 3}},
	}
	b, err := a.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(b)
	got, err := ReadAudioElement(r, nil)
	if err != nil {
		t.Fatalf("ReadAudioElement: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAudioElementRejectsUnknownCodecConfigID(t *testing.T) {
	a := channelBasedAudioElement(1, 5)
	b, err := a.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	table := NewCodecConfigTable()
	r := bits.NewReader(b)
	if _, err := ReadAudioElement(r, table); err == nil {
		t.Errorf("expected error: codec_config_id 5 not found (invariant I2)")
	}
}

func TestAudioElementRejectsDuplicateParamType(t *testing.T) {
	a := channelBasedAudioElement(1, 5)
	a.Params = append(a.Params, a.Params[0])
	if _, err := a.Write(); err == nil {
		t.Errorf("expected error for duplicate parameter_definition_type in one audio element")
	}
}

func TestAudioElementReconGainIsPresentFlags(t *testing.T) {
	a := AudioElement{
		Type: AudioElementTypeChannelBased,
		ChannelConfig: &ScalableChannelLayoutConfig{
			Layers: []ChannelLayer{
				{ReconGainIsPresent: true},
				{ReconGainIsPresent: false},
			},
		},
	}
	got := a.ReconGainIsPresentFlags()
	want := []bool{true, false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
