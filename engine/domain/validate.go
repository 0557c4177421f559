package domain

import (
	"math"
	"strconv"
	"strings"
)

// ValidateRecord checks a dataset row before it enters the pipeline.
// Unknown fuel names are allowed; such rows never match a filter.
func ValidateRecord(r RawRecord) error {
	if strings.TrimSpace(r.Make) == "" {
		return NewValidationError("make", r.Make, ErrMissingMake)
	}
	if strings.TrimSpace(r.Fuel) == "" {
		return NewValidationError("fuel", r.Fuel, ErrMissingFuel)
	}
	if r.EngineCylinders < 0 {
		return NewValidationError("engine_cylinders", strconv.Itoa(r.EngineCylinders), ErrNegativeValue)
	}
	if !nonNegative(r.AverageCityMPG) {
		return NewValidationError("average_city_mpg", formatFloat(r.AverageCityMPG), ErrNegativeValue)
	}
	if !nonNegative(r.AverageHighwayMPG) {
		return NewValidationError("average_highway_mpg", formatFloat(r.AverageHighwayMPG), ErrNegativeValue)
	}
	return nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
