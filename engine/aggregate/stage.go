package aggregate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/pkg/fn"
	"go.opentelemetry.io/otel/attribute"
)

// Query is the input to a recompute: the live filter and the sort measure.
type Query struct {
	Filter  domain.FilterState
	Measure domain.Measure
}

// ranked is the intermediate value between the aggregate and sort stages.
type ranked struct {
	aggs    []domain.AggregateRecord
	measure domain.Measure
}

// Engine recomputes sorted aggregates over an immutable dataset.
type Engine struct {
	makes   []string
	records []domain.RawRecord
	run     fn.Stage[Query, []domain.AggregateRecord]
}

// NewEngine builds an Engine. makes is the full, unfiltered manufacturer set;
// pass nil to derive it from records.
func NewEngine(makes []string, records []domain.RawRecord) *Engine {
	if makes == nil {
		makes = Manufacturers(records)
	}
	e := &Engine{makes: makes, records: records}
	e.run = fn.Then(
		fn.TracedStage("aggregate.filter", fn.Then(fn.TryStage(validateQuery), e.aggregateStage()),
			attribute.Int("records", len(records)), attribute.Int("makes", len(makes))),
		fn.TracedStage("aggregate.sort", fn.MapStage(func(r ranked) []domain.AggregateRecord {
			return SortByMeasure(r.aggs, r.measure)
		})),
	)
	return e
}

// Makes returns the manufacturer set the engine aggregates over.
func (e *Engine) Makes() []string { return e.makes }

// Len returns the number of raw rows.
func (e *Engine) Len() int { return len(e.records) }

// Compute filters, aggregates and sorts. Each call returns a fresh slice.
func (e *Engine) Compute(ctx context.Context, q Query) ([]domain.AggregateRecord, error) {
	out, err := e.run(ctx, q).Unwrap()
	if err != nil {
		slog.Debug("aggregate: query rejected", "error", err)
		return nil, err
	}
	return out, nil
}

func (e *Engine) aggregateStage() fn.Stage[Query, ranked] {
	return fn.MapStage(func(q Query) ranked {
		return ranked{aggs: Aggregate(e.makes, e.records, BuildPredicate(q.Filter)), measure: q.Measure}
	})
}

func validateQuery(q Query) (Query, error) {
	if !q.Measure.Valid() {
		return q, domain.NewValidationError("measure", string(q.Measure), domain.ErrUnsupportedMeasure)
	}
	if err := q.Filter.Cylinders.Validate(); err != nil {
		return q, fmt.Errorf("aggregate: %w", err)
	}
	return q, nil
}
