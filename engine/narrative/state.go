// Package narrative drives the guided scene sequence and the free
// exploration that follows it. State transitions are pure: each returns the
// complete next State or an error, never a partial update.
package narrative

import (
	"strconv"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/scene"
)

// Nav records which navigation buttons are enabled.
type Nav struct {
	Previous bool `json:"previous"`
	Next     bool `json:"next"`
}

// State is the full narrative state: active scene plus live filter,
// measure and control enablement.
type State struct {
	Scene     int                `json:"scene"`
	Filter    domain.FilterState `json:"filter"`
	Measure   domain.Measure     `json:"measure"`
	Controls  scene.Controls     `json:"controls"`
	Nav       Nav                `json:"nav"`
	Dismissed bool               `json:"annotation_dismissed"`
}

// Equal compares every field, including fuel set contents.
func (s State) Equal(o State) bool {
	return s.Scene == o.Scene &&
		s.Filter.Equal(o.Filter) &&
		s.Measure == o.Measure &&
		s.Controls == o.Controls &&
		s.Nav == o.Nav &&
		s.Dismissed == o.Dismissed
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	s.Filter = s.Filter.Clone()
	return s
}

// Enter returns the canonical state of scene i. Every field comes from the
// table, so entering a scene twice yields the same state and any earlier
// exploration is discarded.
func Enter(t scene.Table, i int) (State, error) {
	d, ok := t.At(i)
	if !ok {
		return State{}, domain.NewControlError("scene", strconv.Itoa(i), domain.ErrAtBoundary)
	}
	f, err := t.Resolve(i)
	if err != nil {
		return State{}, err
	}
	return State{
		Scene:    i,
		Filter:   f,
		Measure:  d.Measure,
		Controls: d.Controls,
		Nav:      Nav{Previous: i > 1, Next: i < t.Len()},
	}, nil
}

// Next advances one scene. Rejected with ErrAtBoundary on the last scene.
func (s State) Next(t scene.Table) (State, error) {
	if s.Scene >= t.Len() {
		return State{}, domain.NewControlError(string(KindNext), "", domain.ErrAtBoundary)
	}
	return Enter(t, s.Scene+1)
}

// Previous steps back one scene. Rejected with ErrAtBoundary on scene 1.
func (s State) Previous(t scene.Table) (State, error) {
	if s.Scene <= 1 {
		return State{}, domain.NewControlError(string(KindPrevious), "", domain.ErrAtBoundary)
	}
	return Enter(t, s.Scene-1)
}

// ToggleFuel includes or excludes fuel from the live filter.
func (s State) ToggleFuel(fuel string, included bool) (State, error) {
	if !domain.ValidFuel(fuel) {
		return State{}, domain.NewControlError(string(scene.Checkboxes), fuel, domain.ErrInvalidInput)
	}
	if !s.Controls.Enabled(scene.Checkboxes) {
		return State{}, domain.NewControlError(string(scene.Checkboxes), fuel, domain.ErrControlLocked)
	}
	next := s.Clone()
	if included {
		next.Filter.Fuels = s.Filter.Fuels.With(fuel)
	} else {
		next.Filter.Fuels = s.Filter.Fuels.Without(fuel)
	}
	return next, nil
}

// SetCylinderCeiling sets the cylinder range to [0, ceiling]. Values outside
// the slider bounds are rejected, not clamped.
func (s State) SetCylinderCeiling(ceiling int) (State, error) {
	if ceiling < domain.MinCylinders || ceiling > domain.MaxCylinders {
		return State{}, domain.NewControlError(string(scene.Slider), strconv.Itoa(ceiling), domain.ErrInvalidInput)
	}
	if !s.Controls.Enabled(scene.Slider) {
		return State{}, domain.NewControlError(string(scene.Slider), strconv.Itoa(ceiling), domain.ErrControlLocked)
	}
	next := s.Clone()
	next.Filter.Cylinders = domain.CylinderRange{Min: domain.MinCylinders, Max: ceiling}
	return next, nil
}

// SetMeasure switches the sort and bar measure.
func (s State) SetMeasure(key string) (State, error) {
	m, err := domain.ParseMeasure(key)
	if err != nil {
		return State{}, domain.NewControlError(string(scene.Dropdown), key, domain.ErrInvalidInput)
	}
	if !s.Controls.Enabled(scene.Dropdown) {
		return State{}, domain.NewControlError(string(scene.Dropdown), key, domain.ErrControlLocked)
	}
	next := s.Clone()
	next.Measure = m
	return next, nil
}
