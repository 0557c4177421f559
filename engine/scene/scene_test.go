package scene

import (
	"errors"
	"testing"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
)

func TestDefaultTableIsValid(t *testing.T) {
	tbl := Default()
	if err := tbl.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	if tbl.Len() != 4 {
		t.Fatalf("expected 4 scenes, got %d", tbl.Len())
	}
}

func TestDefaultTableScenes(t *testing.T) {
	tbl := Default()
	cases := []struct {
		idx      int
		measure  domain.Measure
		fuels    domain.FuelSet
		rng      domain.CylinderRange
		controls Controls
		callouts int
	}{
		{1, domain.MeasureCity, domain.FuelSet{domain.FuelElectricity}, domain.FullCylinderRange(), Locked(), 1},
		{2, domain.MeasureHighway, domain.AllFuels(), domain.FullCylinderRange(), Locked(), 1},
		{3, domain.MeasureCombined, domain.FuelSet{domain.FuelElectricity}, domain.FullCylinderRange(), Locked(), 1},
		{4, domain.MeasureCombined, domain.AllFuels(), domain.CylinderRange{Min: 0, Max: 4}, Unlocked(), 2},
	}
	for _, tc := range cases {
		d, ok := tbl.At(tc.idx)
		if !ok {
			t.Fatalf("scene %d missing", tc.idx)
		}
		if d.Measure != tc.measure {
			t.Errorf("scene %d: measure %s, want %s", tc.idx, d.Measure, tc.measure)
		}
		f, err := tbl.Resolve(tc.idx)
		if err != nil {
			t.Fatalf("scene %d: %v", tc.idx, err)
		}
		if !f.Fuels.Equal(tc.fuels) || f.Cylinders != tc.rng {
			t.Errorf("scene %d: filter %+v, want %v %v", tc.idx, f, tc.fuels, tc.rng)
		}
		if d.Controls != tc.controls {
			t.Errorf("scene %d: controls %+v, want %+v", tc.idx, d.Controls, tc.controls)
		}
		if len(d.Annotation.Callouts) != tc.callouts {
			t.Errorf("scene %d: %d callouts, want %d", tc.idx, len(d.Annotation.Callouts), tc.callouts)
		}
	}

	last, _ := tbl.At(4)
	if last.Annotation.Callouts[0].Kind != CalloutCircle || last.Annotation.Callouts[1].ConnectorEnd != "arrow" {
		t.Errorf("final scene should pair a circle callout with an arrow callout: %+v", last.Annotation.Callouts)
	}
}

func TestAtOutOfRange(t *testing.T) {
	tbl := Default()
	for _, i := range []int{0, -1, 5} {
		if _, ok := tbl.At(i); ok {
			t.Errorf("At(%d) should fail", i)
		}
	}
	if !tbl.Last(4) || tbl.Last(3) {
		t.Error("Last is wrong")
	}
}

func TestResolveInherits(t *testing.T) {
	base := domain.FilterState{Fuels: domain.NewFuelSet(domain.FuelDiesel), Cylinders: domain.CylinderRange{Min: 2, Max: 8}}
	tbl := Table{
		{Index: 1, Filter: &base, Measure: domain.MeasureCity},
		{Index: 2, Measure: domain.MeasureHighway},
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := tbl.Resolve(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(base) {
		t.Fatalf("got %+v, want %+v", got, base)
	}
	got.Fuels[0] = domain.FuelGasoline
	if base.Fuels[0] != domain.FuelDiesel {
		t.Fatal("Resolve must not share memory with the table")
	}
	if _, err := tbl.Resolve(3); !errors.Is(err, ErrSceneIndex) {
		t.Errorf("expected ErrSceneIndex, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	good := domain.FilterState{Fuels: domain.AllFuels(), Cylinders: domain.FullCylinderRange()}
	inverted := domain.FilterState{Fuels: domain.AllFuels(), Cylinders: domain.CylinderRange{Min: 5, Max: 1}}
	cases := []struct {
		name string
		tbl  Table
		want error
	}{
		{"empty", Table{}, ErrEmptyTable},
		{"inherit first", Table{{Index: 1, Measure: domain.MeasureCity}}, ErrNoBaseFilter},
		{"bad index", Table{{Index: 2, Filter: &good, Measure: domain.MeasureCity}}, ErrSceneIndex},
		{"bad measure", Table{{Index: 1, Filter: &good, Measure: "Speed"}}, domain.ErrUnsupportedMeasure},
		{"inverted range", Table{{Index: 1, Filter: &inverted, Measure: domain.MeasureCity}}, domain.ErrCylinderRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.tbl.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestControlsEnabled(t *testing.T) {
	c := Controls{Slider: true}
	if !c.Enabled(Slider) || c.Enabled(Checkboxes) || c.Enabled(Dropdown) || c.Enabled("knob") {
		t.Fatalf("unexpected enablement for %+v", c)
	}
}

func TestAnnotationClone(t *testing.T) {
	var a Annotation
	if c := a.Clone(); c.Callouts == nil || !c.Empty() {
		t.Fatal("clone of empty annotation should be empty but non-nil")
	}
	d, _ := Default().At(1)
	c := d.Annotation.Clone()
	c.Callouts[0].X = -1
	if d.Annotation.Callouts[0].X == -1 {
		t.Fatal("Clone must copy callouts")
	}
}
