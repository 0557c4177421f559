package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/mpg-narrative/engine/aggregate"
	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/scene"
	"github.com/WessleyAI/mpg-narrative/pkg/metrics"
)

// Sink draws frames. Implementations must not retain or mutate the frame's
// slices after Render returns, and repeated identical calls must be harmless.
type Sink interface {
	Render(ctx context.Context, f Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, f Frame) error

func (fn SinkFunc) Render(ctx context.Context, f Frame) error { return fn(ctx, f) }

// ErrNotStarted is returned by event methods called before Start.
var ErrNotStarted = errors.New("narrative: controller not started")

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.log = l } }

// WithMetrics records event, rejection and render metrics into reg.
func WithMetrics(reg *metrics.Registry) Option { return func(c *Controller) { c.met = reg } }

// WithSessionID stamps frames with id.
func WithSessionID(id string) Option { return func(c *Controller) { c.id = id } }

// WithDismissOnExplore hides the scene annotation once an exploration
// control changes the view. Entering a scene shows its annotation again.
func WithDismissOnExplore(on bool) Option { return func(c *Controller) { c.dismiss = on } }

// Controller owns the narrative state and pushes a frame to its sink after
// every accepted event. It is not safe for concurrent use; see Session.
type Controller struct {
	engine  *aggregate.Engine
	table   scene.Table
	sink    Sink
	log     *slog.Logger
	met     *metrics.Registry
	id      string
	dismiss bool

	state   State
	started bool
	seq     uint64
}

// New validates table and builds a controller positioned at scene 1.
// Nothing is rendered until Start.
func New(engine *aggregate.Engine, table scene.Table, sink Sink, opts ...Option) (*Controller, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("narrative: %w", err)
	}
	c := &Controller{engine: engine, table: table, sink: sink, log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	first, err := Enter(table, 1)
	if err != nil {
		return nil, fmt.Errorf("narrative: %w", err)
	}
	c.state = first
	return c, nil
}

// Start renders the first scene. Later calls do nothing.
func (c *Controller) Start(ctx context.Context) error {
	if c.started {
		return nil
	}
	f, err := c.frame(ctx, c.state)
	if err != nil {
		return fmt.Errorf("narrative: start: %w", err)
	}
	c.started = true
	c.push(ctx, f)
	return nil
}

func (c *Controller) Next(ctx context.Context) error     { return c.Dispatch(ctx, NextEvent()) }
func (c *Controller) Previous(ctx context.Context) error { return c.Dispatch(ctx, PreviousEvent()) }

func (c *Controller) ToggleFuel(ctx context.Context, fuel string, included bool) error {
	return c.Dispatch(ctx, FuelEvent(fuel, included))
}

func (c *Controller) SetCylinderCeiling(ctx context.Context, ceiling int) error {
	return c.Dispatch(ctx, CylindersEvent(ceiling))
}

func (c *Controller) SetMeasure(ctx context.Context, key string) error {
	return c.Dispatch(ctx, MeasureEvent(key))
}

// Dispatch applies e. A rejected event leaves the state untouched and
// renders nothing. An accepted event commits the new state before the sink
// is called; sink failures are logged and never undo the commit.
func (c *Controller) Dispatch(ctx context.Context, e Event) error {
	if !c.started {
		return ErrNotStarted
	}
	start := time.Now()
	next, err := e.Apply(c.table, c.state)
	if err != nil {
		c.rejected(e, err)
		return err
	}
	if e.Explores() {
		next.Dismissed = c.state.Dismissed || c.dismiss
	}
	f, err := c.frame(ctx, next)
	if err != nil {
		c.rejected(e, err)
		return fmt.Errorf("narrative: recompute: %w", err)
	}

	c.state = next
	c.counter("mpg_events_total", "Accepted events", "kind", string(e.Kind)).Inc()
	c.histogram("mpg_recompute_seconds", "Event to frame latency", "kind", string(e.Kind)).Since(start)
	c.gauge("mpg_scene", "Active scene").Set(int64(next.Scene))
	c.log.Debug("event applied", "kind", e.Kind, "value", e.Value(), "scene", next.Scene)

	c.push(ctx, f)
	return nil
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state.Clone() }

// Table returns the scene catalog.
func (c *Controller) Table() scene.Table { return c.table }

// Frame recomputes the frame for the current state without rendering it.
// Its Seq is that of the last rendered frame.
func (c *Controller) Frame(ctx context.Context) (Frame, error) {
	f, err := c.frame(ctx, c.state)
	if err != nil {
		return Frame{}, err
	}
	f.Seq = c.seq
	return f, nil
}

func (c *Controller) frame(ctx context.Context, s State) (Frame, error) {
	d, ok := c.table.At(s.Scene)
	if !ok {
		return Frame{}, domain.NewControlError("scene", fmt.Sprint(s.Scene), domain.ErrAtBoundary)
	}
	aggs, err := c.engine.Compute(ctx, aggregate.Query{Filter: s.Filter, Measure: s.Measure})
	if err != nil {
		return Frame{}, err
	}
	ann := d.Annotation.Clone()
	if s.Dismissed {
		ann = scene.Annotation{Callouts: []scene.Callout{}}
	}
	return Frame{
		Session:        c.id,
		Seq:            c.seq + 1,
		Scene:          s.Scene,
		SceneCount:     c.table.Len(),
		SceneName:      d.Name,
		Aggregates:     aggs,
		Measure:        s.Measure,
		MeasureLabel:   s.Measure.Label(),
		Scale:          scene.MPGScale(),
		CylinderDomain: domain.FullCylinderRange(),
		Filter:         s.Filter.Clone(),
		Controls:       s.Controls,
		Nav:            s.Nav,
		Annotation:     ann,
	}, nil
}

func (c *Controller) push(ctx context.Context, f Frame) {
	c.seq = f.Seq
	if c.sink == nil {
		return
	}
	if err := c.sink.Render(ctx, f); err != nil {
		c.counter("mpg_render_errors_total", "Sink failures").Inc()
		c.log.Warn("render failed", "scene", f.Scene, "seq", f.Seq, "error", err)
		return
	}
	c.counter("mpg_renders_total", "Frames rendered").Inc()
}

func (c *Controller) rejected(e Event, err error) {
	reason := domain.Reason(err)
	c.counter("mpg_events_rejected_total", "Rejected events", "kind", string(e.Kind), "reason", reason).Inc()
	c.log.Info("event rejected", "kind", e.Kind, "value", e.Value(), "scene", c.state.Scene, "reason", reason, "error", err)
}

// Metric helpers are no-ops without a registry.

var (
	discardCounter   = &metrics.Counter{}
	discardGauge     = &metrics.Gauge{}
	discardHistogram = metrics.New().Histogram("discard", "", nil)
)

func (c *Controller) counter(name, help string, labels ...string) *metrics.Counter {
	if c.met == nil {
		return discardCounter
	}
	return c.met.Counter(metrics.WithLabels(name, labels...), help)
}

func (c *Controller) gauge(name, help string) *metrics.Gauge {
	if c.met == nil {
		return discardGauge
	}
	return c.met.Gauge(name, help)
}

func (c *Controller) histogram(name, help string, labels ...string) *metrics.Histogram {
	if c.met == nil {
		return discardHistogram
	}
	return c.met.Histogram(metrics.WithLabels(name, labels...), help, nil)
}
