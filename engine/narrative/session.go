package narrative

import (
	"context"
	"sync"

	"github.com/WessleyAI/mpg-narrative/engine/aggregate"
	"github.com/WessleyAI/mpg-narrative/engine/scene"
	"github.com/google/uuid"
)

// Session serialises events from several transports (HTTP handlers, NATS
// callbacks) onto one Controller, so each event runs to completion before
// the next is applied.
type Session struct {
	mu   sync.Mutex
	id   string
	ctrl *Controller
}

// NewSession builds a controller under a fresh session ID.
func NewSession(engine *aggregate.Engine, table scene.Table, sink Sink, opts ...Option) (*Session, error) {
	id := uuid.NewString()
	ctrl, err := New(engine, table, sink, append([]Option{WithSessionID(id)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Session{id: id, ctrl: ctrl}, nil
}

// ID returns the session identifier stamped on every frame.
func (s *Session) ID() string { return s.id }

// Start renders the first scene.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Start(ctx)
}

// Apply dispatches e and builds the frame of the resulting state under one
// lock, so the frame shows e and no event applied after it. A rejected event
// returns the unchanged frame together with the rejection.
func (s *Session) Apply(ctx context.Context, e Event) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rejected := s.ctrl.Dispatch(ctx, e)
	f, err := s.ctrl.Frame(ctx)
	if err != nil {
		return Frame{}, err
	}
	return f, rejected
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.State()
}

// Frame recomputes the current frame without rendering.
func (s *Session) Frame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Frame(ctx)
}

// Table returns the scene catalog.
func (s *Session) Table() scene.Table { return s.ctrl.Table() }
