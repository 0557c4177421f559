// Package render provides narrative.Sink implementations: an in-memory
// latest-frame holder, a terminal bar chart, an HTML/SVG chart page, a NATS
// publisher and a fan-out combinator.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/WessleyAI/mpg-narrative/engine/narrative"
	"github.com/WessleyAI/mpg-narrative/pkg/fn"
)

// Latest keeps the most recent frame.
type Latest struct {
	mu    sync.RWMutex
	frame narrative.Frame
	ok    bool
}

func (l *Latest) Render(_ context.Context, f narrative.Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame, l.ok = f, true
	return nil
}

// Get returns the last frame, or false before the first render.
func (l *Latest) Get() (narrative.Frame, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frame, l.ok
}

// Multi renders to every sink concurrently and joins their errors.
type Multi []narrative.Sink

func (m Multi) Render(ctx context.Context, f narrative.Frame) error {
	errs := fn.ParMap([]narrative.Sink(m), 0, func(s narrative.Sink) error {
		if err := s.Render(ctx, f); err != nil {
			return fmt.Errorf("%T: %w", s, err)
		}
		return nil
	})
	return errors.Join(errs...)
}
