package domain

import (
	"fmt"
	"slices"
)

// Fuel names as they appear in the dataset.
const (
	FuelDiesel      = "Diesel"
	FuelElectricity = "Electricity"
	FuelGasoline    = "Gasoline"
)

// KnownFuels is the checkbox domain, in canonical order.
var KnownFuels = []string{FuelDiesel, FuelElectricity, FuelGasoline}

// ValidFuel reports whether fuel is one of KnownFuels.
func ValidFuel(fuel string) bool { return slices.Contains(KnownFuels, fuel) }

// Cylinder slider bounds.
const (
	MinCylinders = 0
	MaxCylinders = 12
)

// FuelSet is a sorted, duplicate-free set of fuel names. Methods never
// modify the receiver.
type FuelSet []string

// NewFuelSet builds a canonical FuelSet from arbitrary input.
func NewFuelSet(fuels ...string) FuelSet {
	out := slices.Clone(fuels)
	slices.Sort(out)
	return FuelSet(slices.Compact(out))
}

// AllFuels returns a fresh set holding every known fuel.
func AllFuels() FuelSet { return NewFuelSet(KnownFuels...) }

func (s FuelSet) clone() FuelSet {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// Contains reports whether fuel is in the set.
func (s FuelSet) Contains(fuel string) bool {
	_, ok := slices.BinarySearch(s, fuel)
	return ok
}

// With returns a copy of s that includes fuel.
func (s FuelSet) With(fuel string) FuelSet {
	i, ok := slices.BinarySearch(s, fuel)
	if ok {
		return s.clone()
	}
	return slices.Insert(s.clone(), i, fuel)
}

// Without returns a copy of s that excludes fuel.
func (s FuelSet) Without(fuel string) FuelSet {
	i, ok := slices.BinarySearch(s, fuel)
	if !ok {
		return s.clone()
	}
	return slices.Delete(s.clone(), i, i+1)
}

// Equal reports element-wise equality.
func (s FuelSet) Equal(o FuelSet) bool { return slices.Equal(s, o) }

// CylinderRange is an inclusive [Min, Max] interval of engine cylinders.
type CylinderRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FullCylinderRange spans the whole slider.
func FullCylinderRange() CylinderRange {
	return CylinderRange{Min: MinCylinders, Max: MaxCylinders}
}

// Contains reports whether n falls within the range.
func (c CylinderRange) Contains(n int) bool { return n >= c.Min && n <= c.Max }

// Validate checks Min <= Max and both ends are within the slider bounds.
func (c CylinderRange) Validate() error {
	if c.Min < MinCylinders || c.Max > MaxCylinders || c.Min > c.Max {
		return NewValidationError("cylinders", c.String(), ErrCylinderRange)
	}
	return nil
}

func (c CylinderRange) String() string { return fmt.Sprintf("[%d,%d]", c.Min, c.Max) }
