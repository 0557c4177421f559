// Package domain defines the vehicle efficiency records, filter state and
// rejection errors shared by the aggregation pipeline and the narrative
// controller.
package domain

import (
	"encoding/json"
	"math"
	"regexp"
)

// RawRecord is one vehicle row from the dataset. Loaded once, never mutated.
type RawRecord struct {
	Make              string  `json:"make"`
	Fuel              string  `json:"fuel"`
	EngineCylinders   int     `json:"engine_cylinders"`
	AverageCityMPG    float64 `json:"average_city_mpg"`
	AverageHighwayMPG float64 `json:"average_highway_mpg"`
}

// AggregateRecord holds per-manufacturer means under some filter. Fields are
// NaN when the manufacturer has no matching rows.
type AggregateRecord struct {
	Make               string
	EngineCylinders    float64
	AverageCityMPG     float64
	AverageHighwayMPG  float64
	AverageCombinedMPG float64
}

// Empty reports whether the record came from an empty group.
func (a AggregateRecord) Empty() bool { return math.IsNaN(a.EngineCylinders) }

// Value returns the field selected by m.
func (a AggregateRecord) Value(m Measure) float64 {
	switch m {
	case MeasureCity:
		return a.AverageCityMPG
	case MeasureHighway:
		return a.AverageHighwayMPG
	default:
		return a.AverageCombinedMPG
	}
}

// aggregateJSON carries NaN as null since encoding/json rejects NaN.
type aggregateJSON struct {
	Make               string   `json:"make"`
	EngineCylinders    *float64 `json:"engine_cylinders"`
	AverageCityMPG     *float64 `json:"average_city_mpg"`
	AverageHighwayMPG  *float64 `json:"average_highway_mpg"`
	AverageCombinedMPG *float64 `json:"average_combined_mpg"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fromNullable(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func (a AggregateRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(aggregateJSON{
		Make:               a.Make,
		EngineCylinders:    nullable(a.EngineCylinders),
		AverageCityMPG:     nullable(a.AverageCityMPG),
		AverageHighwayMPG:  nullable(a.AverageHighwayMPG),
		AverageCombinedMPG: nullable(a.AverageCombinedMPG),
	})
}

func (a *AggregateRecord) UnmarshalJSON(data []byte) error {
	var v aggregateJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = AggregateRecord{
		Make:               v.Make,
		EngineCylinders:    fromNullable(v.EngineCylinders),
		AverageCityMPG:     fromNullable(v.AverageCityMPG),
		AverageHighwayMPG:  fromNullable(v.AverageHighwayMPG),
		AverageCombinedMPG: fromNullable(v.AverageCombinedMPG),
	}
	return nil
}

// Measure selects the aggregate field that drives sort order and bar length.
// Values match the dataset column names.
type Measure string

const (
	MeasureCity     Measure = "AverageCityMPG"
	MeasureHighway  Measure = "AverageHighwayMPG"
	MeasureCombined Measure = "AverageCombinedMPG"
)

// Measures lists every selectable measure in dropdown order.
var Measures = []Measure{MeasureCity, MeasureHighway, MeasureCombined}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// Label returns the axis label, e.g. "Average City MPG".
func (m Measure) Label() string {
	return camelBoundary.ReplaceAllString(string(m), "$1 $2")
}

// Valid reports whether m is a known measure.
func (m Measure) Valid() bool {
	for _, k := range Measures {
		if k == m {
			return true
		}
	}
	return false
}

// ParseMeasure maps a dropdown key to a Measure.
func ParseMeasure(key string) (Measure, error) {
	m := Measure(key)
	if !m.Valid() {
		return "", NewControlError("measure", key, ErrInvalidInput)
	}
	return m, nil
}

// FilterState is the live (fuel set, cylinder range) pair.
type FilterState struct {
	Fuels     FuelSet       `json:"fuels"`
	Cylinders CylinderRange `json:"cylinders"`
}

// Equal reports whether two filter states select the same rows.
func (f FilterState) Equal(o FilterState) bool {
	return f.Cylinders == o.Cylinders && f.Fuels.Equal(o.Fuels)
}

// Clone returns a deep copy so callers never share the fuel slice.
func (f FilterState) Clone() FilterState {
	return FilterState{Fuels: f.Fuels.clone(), Cylinders: f.Cylinders}
}

// Validate checks that every fuel is known and the range is in bounds.
func (f FilterState) Validate() error {
	for _, fuel := range f.Fuels {
		if !ValidFuel(fuel) {
			return NewValidationError("fuel", fuel, ErrUnsupportedFuel)
		}
	}
	return f.Cylinders.Validate()
}
