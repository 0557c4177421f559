// Package control turns transport-level commands (HTTP bodies, NATS
// requests, terminal lines) into narrative events and answers them with
// the resulting frame.
package control

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/narrative"
)

// KindState asks for the current frame without changing anything.
const KindState narrative.Kind = "state"

// ErrUnknownCommand is returned by ParseCommand for unrecognised verbs.
var ErrUnknownCommand = errors.New("unknown command")

// Dispatcher is the part of narrative.Session that Apply needs.
type Dispatcher interface {
	Apply(ctx context.Context, e narrative.Event) (narrative.Frame, error)
	Frame(ctx context.Context) (narrative.Frame, error)
}

// Apply runs e and returns the frame of the resulting state. A rejected
// event still returns the current frame alongside the rejection.
func Apply(ctx context.Context, d Dispatcher, e narrative.Event) (narrative.Frame, error) {
	if e.Kind == KindState {
		return d.Frame(ctx)
	}
	return d.Apply(ctx, e)
}

// Handle validates r and applies it. An incomplete request is rejected with
// the current frame, like any other rejection.
func Handle(ctx context.Context, d Dispatcher, r Request) (narrative.Frame, error) {
	e, rejected := r.Event()
	if rejected != nil {
		f, err := d.Frame(ctx)
		if err != nil {
			return narrative.Frame{}, err
		}
		return f, rejected
	}
	return Apply(ctx, d, e)
}

var measureAliases = map[string]domain.Measure{
	"city":     domain.MeasureCity,
	"highway":  domain.MeasureHighway,
	"hwy":      domain.MeasureHighway,
	"combined": domain.MeasureCombined,
}

// ParseCommand reads one terminal command:
//
//	next | n
//	prev | previous | p
//	fuel <Diesel|Electricity|Gasoline> <on|off>
//	cyl <ceiling>
//	measure <city|highway|combined|AverageCityMPG|...>
//	state
func ParseCommand(line string) (narrative.Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return narrative.Event{}, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]
	usage := func(form string) error {
		return domain.NewControlError(verb, strings.Join(args, " "), fmt.Errorf("%w: usage: %s", domain.ErrInvalidInput, form))
	}

	switch verb {
	case "next", "n":
		return narrative.NextEvent(), nil
	case "prev", "previous", "p":
		return narrative.PreviousEvent(), nil
	case "state", "s":
		return narrative.Event{Kind: KindState}, nil
	case "fuel":
		if len(args) != 2 {
			return narrative.Event{}, usage("fuel <name> on|off")
		}
		on, err := parseSwitch(args[1])
		if err != nil {
			return narrative.Event{}, usage("fuel <name> on|off")
		}
		return narrative.FuelEvent(canonicalFuel(args[0]), on), nil
	case "cyl", "cylinders":
		if len(args) != 1 {
			return narrative.Event{}, usage("cyl <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return narrative.Event{}, usage("cyl <n>")
		}
		return narrative.CylindersEvent(n), nil
	case "measure", "m":
		if len(args) != 1 {
			return narrative.Event{}, usage("measure <city|highway|combined>")
		}
		if m, ok := measureAliases[strings.ToLower(args[0])]; ok {
			return narrative.MeasureEvent(string(m)), nil
		}
		return narrative.MeasureEvent(args[0]), nil
	}
	return narrative.Event{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "include", "true", "1":
		return true, nil
	case "off", "exclude", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("not on/off: %q", s)
}

// canonicalFuel matches known fuel names case-insensitively. Unknown names
// pass through so the controller can reject them.
func canonicalFuel(s string) string {
	for _, f := range domain.KnownFuels {
		if strings.EqualFold(f, s) {
			return f
		}
	}
	return s
}
