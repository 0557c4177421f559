package control

import (
	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/narrative"
)

// Request is the wire form of an event. Payload fields are pointers so a
// field left out of the JSON is told apart from its zero value.
type Request struct {
	Kind     narrative.Kind `json:"kind"`
	Fuel     *string        `json:"fuel,omitempty"`
	Included *bool          `json:"included,omitempty"`
	Ceiling  *int           `json:"ceiling,omitempty"`
	Measure  *string        `json:"measure,omitempty"`
}

// NewRequest is the wire form of e.
func NewRequest(e narrative.Event) Request {
	r := Request{Kind: e.Kind}
	switch e.Kind {
	case narrative.KindFuel:
		r.Fuel, r.Included = &e.Fuel, &e.Included
	case narrative.KindCylinders:
		r.Ceiling = &e.Ceiling
	case narrative.KindMeasure:
		r.Measure = &e.Measure
	}
	return r
}

// Event checks that every field the kind needs is present. A missing field
// is InvalidInput; it never falls back to a zero value.
func (r Request) Event() (narrative.Event, error) {
	missing := func(field string) error {
		return domain.NewControlError(string(r.Kind), "missing "+field, domain.ErrInvalidInput)
	}
	switch r.Kind {
	case narrative.KindNext, narrative.KindPrevious, KindState:
		return narrative.Event{Kind: r.Kind}, nil
	case narrative.KindFuel:
		if r.Fuel == nil {
			return narrative.Event{}, missing("fuel")
		}
		if r.Included == nil {
			return narrative.Event{}, missing("included")
		}
		return narrative.FuelEvent(*r.Fuel, *r.Included), nil
	case narrative.KindCylinders:
		if r.Ceiling == nil {
			return narrative.Event{}, missing("ceiling")
		}
		return narrative.CylindersEvent(*r.Ceiling), nil
	case narrative.KindMeasure:
		if r.Measure == nil {
			return narrative.Event{}, missing("measure")
		}
		return narrative.MeasureEvent(*r.Measure), nil
	}
	return narrative.Event{}, domain.NewControlError("event", string(r.Kind), domain.ErrInvalidInput)
}
