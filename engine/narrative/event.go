package narrative

import (
	"strconv"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/scene"
)

// Kind names one of the five control events.
type Kind string

const (
	KindNext      Kind = "next"
	KindPrevious  Kind = "previous"
	KindFuel      Kind = "fuel"
	KindCylinders Kind = "cylinders"
	KindMeasure   Kind = "measure"
)

// Event is a navigation or control input. Only the fields relevant to Kind
// are read.
type Event struct {
	Kind     Kind   `json:"kind"`
	Fuel     string `json:"fuel,omitempty"`
	Included bool   `json:"included,omitempty"`
	Ceiling  int    `json:"ceiling,omitempty"`
	Measure  string `json:"measure,omitempty"`
}

// Convenience constructors.
func NextEvent() Event                     { return Event{Kind: KindNext} }
func PreviousEvent() Event                 { return Event{Kind: KindPrevious} }
func FuelEvent(fuel string, on bool) Event { return Event{Kind: KindFuel, Fuel: fuel, Included: on} }
func CylindersEvent(ceiling int) Event     { return Event{Kind: KindCylinders, Ceiling: ceiling} }
func MeasureEvent(key string) Event        { return Event{Kind: KindMeasure, Measure: key} }

// Explores reports whether the event comes from an exploration control
// rather than the navigation buttons.
func (e Event) Explores() bool {
	return e.Kind == KindFuel || e.Kind == KindCylinders || e.Kind == KindMeasure
}

// Value is the event payload rendered as a string, for logs.
func (e Event) Value() string {
	switch e.Kind {
	case KindFuel:
		return e.Fuel + "=" + strconv.FormatBool(e.Included)
	case KindCylinders:
		return strconv.Itoa(e.Ceiling)
	case KindMeasure:
		return e.Measure
	}
	return ""
}

// Apply computes the state that follows s under e.
func (e Event) Apply(t scene.Table, s State) (State, error) {
	switch e.Kind {
	case KindNext:
		return s.Next(t)
	case KindPrevious:
		return s.Previous(t)
	case KindFuel:
		return s.ToggleFuel(e.Fuel, e.Included)
	case KindCylinders:
		return s.SetCylinderCeiling(e.Ceiling)
	case KindMeasure:
		return s.SetMeasure(e.Measure)
	}
	return State{}, domain.NewControlError("event", string(e.Kind), domain.ErrInvalidInput)
}
