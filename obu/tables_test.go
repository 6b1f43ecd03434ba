package obu

import "testing"

func TestCodecConfigTableRejectsDuplicateID(t *testing.T) {
	table := NewCodecConfigTable()
	c := CodecConfig{ID: 1, CodecID: CodecIDOpus, NumSamplesPerFrame: 960}
	if err := table.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := table.Add(c); err == nil {
		t.Errorf("expected error adding duplicate codec_config_id")
	}
	if !table.HasCodecConfig(1) {
		t.Errorf("HasCodecConfig(1) = false, want true")
	}
}

func TestAudioElementTableRejectsOverlappingSubstreams(t *testing.T) {
	table := NewAudioElementTable()
	a := channelBasedAudioElement(1, 5)
	if err := table.Add(a, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	b := channelBasedAudioElement(2, 5)
	b.SubstreamIDs = []uint32{10, 99} // 10 already owned by element 1
	if err := table.Add(b, nil); err == nil {
		t.Errorf("expected error for substream_id already owned")
	}
}

func TestAudioElementTableOwnerOf(t *testing.T) {
	table := NewAudioElementTable()
	a := channelBasedAudioElement(1, 5)
	if err := table.Add(a, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	owner, ok := table.OwnerOf(10)
	if !ok || owner.ID != 1 {
		t.Errorf("OwnerOf(10) = %+v, %v, want element 1, true", owner, ok)
	}
	if _, ok := table.OwnerOf(999); ok {
		t.Errorf("OwnerOf(999) should be ok=false")
	}
}

func TestAudioElementTableValidatesCodecConfigID(t *testing.T) {
	codecConfigs := NewCodecConfigTable()
	table := NewAudioElementTable()
	a := channelBasedAudioElement(1, 5)
	if err := table.Add(a, codecConfigs); err == nil {
		t.Errorf("expected error: codec_config_id 5 not found in codecConfigs")
	}
}

func TestMixPresentationTableValidatesAudioElementIDs(t *testing.T) {
	audioElements := NewAudioElementTable()
	table := NewMixPresentationTable()
	m := mixPresentationFixture(1, 7)
	if err := table.Add(m, audioElements); err == nil {
		t.Errorf("expected error: audio_element_id 7 not found in audioElements")
	}
	if err := audioElements.Add(channelBasedAudioElement(7, 5), nil); err != nil {
		t.Fatalf("Add audio element: %v", err)
	}
	if err := table.Add(m, audioElements); err != nil {
		t.Errorf("Add mix presentation after audio element exists: %v", err)
	}
}

func TestParamDefinitionTableGet(t *testing.T) {
	table := NewParamDefinitionTable()
	def := mixGainDef(1, false, SubblockDurations{Duration: 10, ConstantSubblockDuration: 10})
	if err := table.Add(def); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, ok := table.Get(1)
	if !ok {
		t.Fatalf("Get(1) not found")
	}
	if got.Header.ParameterID != 1 {
		t.Errorf("got.Header.ParameterID = %d, want 1", got.Header.ParameterID)
	}
	if _, ok := table.Get(2); ok {
		t.Errorf("Get(2) should be ok=false")
	}
}
