package aggregate

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
)

func scenarioRecords() []domain.RawRecord {
	return []domain.RawRecord{
		{Make: "A", Fuel: domain.FuelElectricity, EngineCylinders: 0, AverageCityMPG: 100, AverageHighwayMPG: 90},
		{Make: "A", Fuel: domain.FuelGasoline, EngineCylinders: 4, AverageCityMPG: 20, AverageHighwayMPG: 28},
	}
}

func fleet() []domain.RawRecord {
	return []domain.RawRecord{
		{Make: "Tesla", Fuel: domain.FuelElectricity, EngineCylinders: 0, AverageCityMPG: 124, AverageHighwayMPG: 116},
		{Make: "BMW", Fuel: domain.FuelGasoline, EngineCylinders: 6, AverageCityMPG: 20, AverageHighwayMPG: 30},
		{Make: "BMW", Fuel: domain.FuelDiesel, EngineCylinders: 4, AverageCityMPG: 26, AverageHighwayMPG: 36},
		{Make: "BMW", Fuel: domain.FuelElectricity, EngineCylinders: 0, AverageCityMPG: 120, AverageHighwayMPG: 100},
		{Make: "Smart", Fuel: domain.FuelGasoline, EngineCylinders: 3, AverageCityMPG: 33, AverageHighwayMPG: 39},
		{Make: "Hyundai", Fuel: domain.FuelElectricity, EngineCylinders: 0, AverageCityMPG: 150, AverageHighwayMPG: 122},
		{Make: "Hyundai", Fuel: domain.FuelGasoline, EngineCylinders: 4, AverageCityMPG: 28, AverageHighwayMPG: 36},
	}
}

func filter(fuels ...string) domain.FilterState {
	return domain.FilterState{Fuels: domain.NewFuelSet(fuels...), Cylinders: domain.FullCylinderRange()}
}

func TestBuildPredicate(t *testing.T) {
	pred := BuildPredicate(domain.FilterState{
		Fuels:     domain.NewFuelSet(domain.FuelGasoline),
		Cylinders: domain.CylinderRange{Min: 0, Max: 4},
	})
	cases := []struct {
		rec  domain.RawRecord
		want bool
	}{
		{domain.RawRecord{Fuel: domain.FuelGasoline, EngineCylinders: 4}, true},
		{domain.RawRecord{Fuel: domain.FuelGasoline, EngineCylinders: 0}, true},
		{domain.RawRecord{Fuel: domain.FuelGasoline, EngineCylinders: 6}, false},
		{domain.RawRecord{Fuel: domain.FuelDiesel, EngineCylinders: 4}, false},
	}
	for _, tc := range cases {
		if got := pred(tc.rec); got != tc.want {
			t.Errorf("pred(%+v) = %v, want %v", tc.rec, got, tc.want)
		}
	}
}

func TestBuildPredicateCopiesFilter(t *testing.T) {
	f := filter(domain.FuelElectricity)
	pred := BuildPredicate(f)
	f.Fuels[0] = domain.FuelDiesel
	if !pred(domain.RawRecord{Fuel: domain.FuelElectricity}) {
		t.Fatal("predicate must not observe later changes to the filter")
	}
}

func TestAggregate_ElectricityScenario(t *testing.T) {
	got := Aggregate([]string{"A"}, scenarioRecords(), BuildPredicate(filter(domain.FuelElectricity)))
	want := domain.AggregateRecord{Make: "A", EngineCylinders: 0, AverageCityMPG: 100, AverageHighwayMPG: 90, AverageCombinedMPG: 95}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestAggregate_NoMatchesIsNaN(t *testing.T) {
	got := Aggregate([]string{"A"}, scenarioRecords(), BuildPredicate(filter(domain.FuelDiesel)))
	if len(got) != 1 || got[0].Make != "A" {
		t.Fatalf("unexpected output %+v", got)
	}
	a := got[0]
	for name, v := range map[string]float64{
		"cylinders": a.EngineCylinders,
		"city":      a.AverageCityMPG,
		"highway":   a.AverageHighwayMPG,
		"combined":  a.AverageCombinedMPG,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s: got %v, want NaN", name, v)
		}
	}
}

func TestAggregate_KeepsManufacturerOrder(t *testing.T) {
	makes := []string{"Smart", "Tesla", "Ford", "BMW"}
	got := Aggregate(makes, fleet(), BuildPredicate(filter(domain.KnownFuels...)))
	for i, m := range makes {
		if got[i].Make != m {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Make, m)
		}
	}
	if !got[2].Empty() {
		t.Errorf("make absent from the dataset should aggregate to NaN, got %+v", got[2])
	}
}

func TestAggregate_Means(t *testing.T) {
	got := Aggregate([]string{"BMW"}, fleet(), BuildPredicate(filter(domain.KnownFuels...)))
	want := domain.AggregateRecord{Make: "BMW", EngineCylinders: 10.0 / 3, AverageCityMPG: 166.0 / 3, AverageHighwayMPG: 166.0 / 3}
	want.AverageCombinedMPG = (want.AverageCityMPG + want.AverageHighwayMPG) / 2
	if got[0] != want {
		t.Fatalf("got %+v, want %+v", got[0], want)
	}
}

func TestAggregate_CombinedIsMeanOfCityAndHighway(t *testing.T) {
	for _, f := range []domain.FilterState{filter(domain.KnownFuels...), filter(domain.FuelElectricity), filter()} {
		for _, a := range Aggregate(Manufacturers(fleet()), fleet(), BuildPredicate(f)) {
			want := (a.AverageCityMPG + a.AverageHighwayMPG) / 2
			if math.IsNaN(want) {
				if !math.IsNaN(a.AverageCombinedMPG) {
					t.Errorf("%s: combined should be NaN", a.Make)
				}
				continue
			}
			if a.AverageCombinedMPG != want {
				t.Errorf("%s: combined %v, want %v", a.Make, a.AverageCombinedMPG, want)
			}
		}
	}
}

func TestAggregate_RecordOrderIndependent(t *testing.T) {
	makes := Manufacturers(fleet())
	pred := BuildPredicate(filter(domain.KnownFuels...))
	base := Aggregate(makes, fleet(), pred)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := fleet()
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Aggregate(makes, shuffled, pred)
		for j := range base {
			if got[j] != base[j] {
				t.Fatalf("permutation %d changed %s: got %+v, want %+v", i, base[j].Make, got[j], base[j])
			}
		}
	}
}

func TestManufacturers(t *testing.T) {
	got := Manufacturers(fleet())
	want := []string{"Tesla", "BMW", "Smart", "Hyundai"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSortByMeasure(t *testing.T) {
	nan := math.NaN()
	in := []domain.AggregateRecord{
		{Make: "C", AverageCityMPG: 30},
		{Make: "N1", AverageCityMPG: nan},
		{Make: "A", AverageCityMPG: 10},
		{Make: "B", AverageCityMPG: 30},
		{Make: "N2", AverageCityMPG: nan},
	}
	got := SortByMeasure(in, domain.MeasureCity)
	want := []string{"N1", "N2", "A", "C", "B"}
	for i, m := range want {
		if got[i].Make != m {
			t.Fatalf("position %d: got %s, want %s (full %v)", i, got[i].Make, m, got)
		}
	}
	if in[0].Make != "C" {
		t.Fatal("SortByMeasure must not reorder its input")
	}
}

func TestEngineCompute(t *testing.T) {
	e := NewEngine(nil, fleet())
	if len(e.Makes()) != 4 || e.Len() != 7 {
		t.Fatalf("unexpected engine shape: %v, %d", e.Makes(), e.Len())
	}

	got, err := e.Compute(context.Background(), Query{Filter: filter(domain.FuelElectricity), Measure: domain.MeasureCity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Smart", "BMW", "Tesla", "Hyundai"}
	for i, m := range want {
		if got[i].Make != m {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Make, m)
		}
	}

	again, _ := e.Compute(context.Background(), Query{Filter: filter(domain.FuelElectricity), Measure: domain.MeasureCity})
	again[0].Make = "mutated"
	if got[0].Make != "Smart" {
		t.Fatal("each Compute must return a fresh slice")
	}
}

func TestEngineComputeRejectsBadQuery(t *testing.T) {
	e := NewEngine(nil, fleet())
	_, err := e.Compute(context.Background(), Query{Filter: filter(domain.FuelDiesel), Measure: "TopSpeed"})
	if !errors.Is(err, domain.ErrUnsupportedMeasure) {
		t.Fatalf("expected ErrUnsupportedMeasure, got %v", err)
	}
	bad := domain.FilterState{Fuels: domain.AllFuels(), Cylinders: domain.CylinderRange{Min: 6, Max: 2}}
	if _, err := e.Compute(context.Background(), Query{Filter: bad, Measure: domain.MeasureCity}); !errors.Is(err, domain.ErrCylinderRange) {
		t.Fatalf("expected ErrCylinderRange, got %v", err)
	}
}
