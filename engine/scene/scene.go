// Package scene holds the declarative catalog of narrative scenes: fixed
// filters, sort measure, which controls accept input, and the annotation.
package scene

import (
	"errors"
	"fmt"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
)

// Control names a user input widget.
type Control string

const (
	Slider     Control = "slider"
	Checkboxes Control = "checkboxes"
	Dropdown   Control = "dropdown"
)

// Controls records which widgets accept input in a scene.
type Controls struct {
	Slider     bool `json:"slider"`
	Checkboxes bool `json:"checkboxes"`
	Dropdown   bool `json:"dropdown"`
}

// Locked disables every control.
func Locked() Controls { return Controls{} }

// Unlocked enables every control.
func Unlocked() Controls { return Controls{Slider: true, Checkboxes: true, Dropdown: true} }

// Enabled reports whether c accepts input.
func (cs Controls) Enabled(c Control) bool {
	switch c {
	case Slider:
		return cs.Slider
	case Checkboxes:
		return cs.Checkboxes
	case Dropdown:
		return cs.Dropdown
	}
	return false
}

// Definition is one static scene. A nil Filter inherits the resolved filter
// of the previous scene.
type Definition struct {
	Index      int                 `json:"index"`
	Name       string              `json:"name"`
	Filter     *domain.FilterState `json:"filter,omitempty"`
	Measure    domain.Measure      `json:"measure"`
	Controls   Controls            `json:"controls"`
	Annotation Annotation          `json:"annotation"`
}

// Table is an ordered, 1-indexed scene catalog.
type Table []Definition

var (
	ErrEmptyTable   = errors.New("scene table is empty")
	ErrSceneIndex   = errors.New("scene index out of order")
	ErrNoBaseFilter = errors.New("first scene must declare a filter")
)

// Len is the scene count N.
func (t Table) Len() int { return len(t) }

// At returns scene i (1-indexed).
func (t Table) At(i int) (Definition, bool) {
	if i < 1 || i > len(t) {
		return Definition{}, false
	}
	return t[i-1], true
}

// Last reports whether i is the final scene.
func (t Table) Last(i int) bool { return i == len(t) }

// Resolve returns the effective filter of scene i, following inherited
// entries backwards. The result never shares memory with the table.
func (t Table) Resolve(i int) (domain.FilterState, error) {
	if i < 1 || i > len(t) {
		return domain.FilterState{}, fmt.Errorf("scene: resolve %d: %w", i, ErrSceneIndex)
	}
	for j := i; j >= 1; j-- {
		if f := t[j-1].Filter; f != nil {
			return f.Clone(), nil
		}
	}
	return domain.FilterState{}, fmt.Errorf("scene: resolve %d: %w", i, ErrNoBaseFilter)
}

// Validate checks the catalog once at startup.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	if t[0].Filter == nil {
		return ErrNoBaseFilter
	}
	for i, d := range t {
		if d.Index != i+1 {
			return fmt.Errorf("scene %q: index %d at position %d: %w", d.Name, d.Index, i+1, ErrSceneIndex)
		}
		if !d.Measure.Valid() {
			return fmt.Errorf("scene %d: %w", d.Index, domain.NewValidationError("measure", string(d.Measure), domain.ErrUnsupportedMeasure))
		}
		if d.Filter != nil {
			if err := d.Filter.Validate(); err != nil {
				return fmt.Errorf("scene %d: %w", d.Index, err)
			}
		}
	}
	return nil
}
