package obu

import (
	"errors"
	"testing"

	"github.com/ausocean/iamf/bits"
	"github.com/google/go-cmp/cmp"
)

func TestSubblockDurationsNumAndDuration(t *testing.T) {
	constDur := SubblockDurations{Duration: 10, ConstantSubblockDuration: 4}
	if n := constDur.NumSubblocks(); n != 3 {
		t.Errorf("NumSubblocks() = %d, want 3 (ceil(10/4))", n)
	}
	if d := constDur.SubblockDuration(2); d != 2 {
		t.Errorf("SubblockDuration(2) = %d, want 2 (10 - 2*4)", d)
	}

	explicit := SubblockDurations{Duration: 7, Explicit: []uint32{3, 4}}
	if n := explicit.NumSubblocks(); n != 2 {
		t.Errorf("NumSubblocks() = %d, want 2", n)
	}
	if d := explicit.SubblockDuration(1); d != 4 {
		t.Errorf("SubblockDuration(1) = %d, want 4", d)
	}
}

func TestSubblockDurationsRoundTrip(t *testing.T) {
	cases := []SubblockDurations{
		{Duration: 10, ConstantSubblockDuration: 10},
		{Duration: 10, ConstantSubblockDuration: 4},
		{Duration: 7, Explicit: []uint32{3, 4}},
	}
	for _, c := range cases {
		w := bits.NewWriter()
		if err := writeSubblockDurations(w, c); err != nil {
			t.Fatalf("writeSubblockDurations(%+v): %v", c, err)
		}
		r := bits.NewReader(w.Bytes())
		got, err := readSubblockDurations(r)
		if err != nil {
			t.Fatalf("readSubblockDurations: %v", err)
		}
		if diff := cmp.Diff(c, got); diff != "" {
			t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestSubblockDurationsRejectsBadSum(t *testing.T) {
	bad := SubblockDurations{Duration: 10, Explicit: []uint32{3, 4}}
	if err := bad.validate("test"); err == nil {
		t.Errorf("expected error for sum(explicit)=7 != duration=10")
	}
}

func mixGainDef(id uint32, mode bool, sb SubblockDurations) ParamDefinition {
	return ParamDefinition{
		Type: ParamDefinitionTypeMixGain,
		Header: ParamDefinitionHeader{
			ParameterID:         id,
			ParameterRate:       48000,
			ParamDefinitionMode: mode,
			Subblocks:           sb,
		},
		DefaultMixGain: -256,
	}
}

func TestParamDefinitionMixGainRoundTrip(t *testing.T) {
	def := mixGainDef(1, false, SubblockDurations{Duration: 10, ConstantSubblockDuration: 10})
	w := bits.NewWriter()
	if err := def.Write(w); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(w.Bytes())
	got, err := ReadParamDefinition(r, ParamDefinitionTypeMixGain)
	if err != nil {
		t.Fatalf("ReadParamDefinition: %v", err)
	}
	if diff := cmp.Diff(def, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParamDefinitionDemixingRoundTrip(t *testing.T) {
	def := ParamDefinition{
		Type: ParamDefinitionTypeDemixing,
		Header: ParamDefinitionHeader{
			ParameterID:   2,
			ParameterRate: 48000,
			Subblocks:     SubblockDurations{Duration: 10, ConstantSubblockDuration: 10},
		},
		DefaultDemixing: DemixingInfoParameterData{DMixPMode: 1, DefaultW: 3},
	}
	w := bits.NewWriter()
	if err := def.Write(w); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(w.Bytes())
	got, err := ReadParamDefinition(r, ParamDefinitionTypeDemixing)
	if err != nil {
		t.Fatalf("ReadParamDefinition: %v", err)
	}
	if diff := cmp.Diff(def, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParamDefinitionDemixingRejectsMode1(t *testing.T) {
	def := ParamDefinition{
		Type: ParamDefinitionTypeDemixing,
		Header: ParamDefinitionHeader{
			ParameterID:         2,
			ParameterRate:       48000,
			ParamDefinitionMode: true,
		},
	}
	w := bits.NewWriter()
	if err := def.Write(w); err == nil {
		t.Errorf("expected error writing demixing param_definition with param_definition_mode=1")
	}
}

func TestParamDefinitionReconGainRoundTrip(t *testing.T) {
	def := ParamDefinition{
		Type: ParamDefinitionTypeReconGain,
		Header: ParamDefinitionHeader{
			ParameterID:   3,
			ParameterRate: 48000,
			Subblocks:     SubblockDurations{Duration: 10, ConstantSubblockDuration: 10},
		},
	}
	w := bits.NewWriter()
	if err := def.Write(w); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(w.Bytes())
	got, err := ReadParamDefinition(r, ParamDefinitionTypeReconGain)
	if err != nil {
		t.Fatalf("ReadParamDefinition: %v", err)
	}
	if diff := cmp.Diff(def, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParamDefinitionExtendedRoundTrip(t *testing.T) {
	def := ParamDefinition{
		Type:          ParamDefinitionTypeExtendedStart,
		Header:        ParamDefinitionHeader{ParameterID: 99},
		ExtendedBytes: []byte{1, 2, 3, 4},
	}
	w := bits.NewWriter()
	if err := def.Write(w); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := bits.NewReader(w.Bytes())
	got, err := ReadParamDefinition(r, ParamDefinitionTypeExtendedStart)
	if err != nil {
		t.Fatalf("ReadParamDefinition: %v", err)
	}
	// Extended definitions carry no wire parameter_id; the Header on a read
	// value is always zero, only ExtendedBytes round-trips.
	want := ParamDefinition{Type: ParamDefinitionTypeExtendedStart, ExtendedBytes: def.ExtendedBytes}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParamDefinitionTypeIsExtended(t *testing.T) {
	if ParamDefinitionTypeReconGain.IsExtended() {
		t.Errorf("ReconGain should not be extended")
	}
	if !ParamDefinitionType(5).IsExtended() {
		t.Errorf("type 5 should be extended")
	}
}

func TestParamDefinitionTableResolveStrayID(t *testing.T) {
	table := NewParamDefinitionTable()
	if err := table.Add(mixGainDef(1, false, SubblockDurations{Duration: 10, ConstantSubblockDuration: 10})); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := table.Resolve(1); err != nil {
		t.Errorf("Resolve(1): %v", err)
	}
	_, err := table.Resolve(2)
	if err == nil {
		t.Fatalf("expected error resolving stray parameter_id 2")
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Resolve(2) err = %v, want ErrInvalidArgument", err)
	}
}

func TestParamDefinitionTableRejectsDuplicateID(t *testing.T) {
	table := NewParamDefinitionTable()
	def := mixGainDef(1, false, SubblockDurations{Duration: 10, ConstantSubblockDuration: 10})
	if err := table.Add(def); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := table.Add(def); err == nil {
		t.Errorf("expected error adding duplicate parameter_id")
	}
}
