// Package aggregate turns raw vehicle rows into per-manufacturer means under
// a fuel and cylinder filter, and orders them by the selected measure.
package aggregate

import (
	"cmp"
	"math"
	"slices"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/pkg/fn"
)

// Predicate selects the rows that contribute to an aggregate.
type Predicate func(domain.RawRecord) bool

// BuildPredicate returns r.Fuel in f.Fuels and f.Cylinders.Min <= r.EngineCylinders <= f.Cylinders.Max.
// The filter is copied, so later changes to f do not leak into the predicate.
func BuildPredicate(f domain.FilterState) Predicate {
	fuels := f.Clone().Fuels
	rng := f.Cylinders
	return func(r domain.RawRecord) bool {
		return fuels.Contains(r.Fuel) && rng.Contains(r.EngineCylinders)
	}
}

// Manufacturers returns the distinct makes in first-seen order.
func Manufacturers(records []domain.RawRecord) []string {
	return fn.Unique(fn.Map(records, func(r domain.RawRecord) string { return r.Make }))
}

// Aggregate returns one record per entry of makes, in the same order.
// A make with no rows matching pred gets NaN in every numeric field.
func Aggregate(makes []string, records []domain.RawRecord, pred Predicate) []domain.AggregateRecord {
	groups := fn.GroupBy(fn.Filter(records, pred), func(r domain.RawRecord) string { return r.Make })
	out := make([]domain.AggregateRecord, len(makes))
	for i, m := range makes {
		out[i] = summarize(m, groups[m])
	}
	return out
}

func summarize(name string, rows []domain.RawRecord) domain.AggregateRecord {
	if len(rows) == 0 {
		nan := math.NaN()
		return domain.AggregateRecord{
			Make:               name,
			EngineCylinders:    nan,
			AverageCityMPG:     nan,
			AverageHighwayMPG:  nan,
			AverageCombinedMPG: nan,
		}
	}
	var cyl, city, hwy float64
	for _, r := range rows {
		cyl += float64(r.EngineCylinders)
		city += r.AverageCityMPG
		hwy += r.AverageHighwayMPG
	}
	n := float64(len(rows))
	a := domain.AggregateRecord{
		Make:              name,
		EngineCylinders:   cyl / n,
		AverageCityMPG:    city / n,
		AverageHighwayMPG: hwy / n,
	}
	a.AverageCombinedMPG = (a.AverageCityMPG + a.AverageHighwayMPG) / 2
	return a
}

// SortByMeasure returns a new slice sorted ascending by m. The sort is stable;
// NaN values come first and keep their relative order.
func SortByMeasure(aggs []domain.AggregateRecord, m domain.Measure) []domain.AggregateRecord {
	out := slices.Clone(aggs)
	slices.SortStableFunc(out, func(a, b domain.AggregateRecord) int {
		return cmp.Compare(a.Value(m), b.Value(m))
	})
	return out
}
