package render

import (
	"context"

	"github.com/WessleyAI/mpg-narrative/engine/narrative"
	"github.com/WessleyAI/mpg-narrative/pkg/natsutil"
	"github.com/WessleyAI/mpg-narrative/pkg/resilience"
)

// NATS publishes every frame as JSON to a subject.
type NATS struct {
	pub     natsutil.Publisher
	subject string
	breaker *resilience.Breaker
}

// NATSOption configures a NATS sink.
type NATSOption func(*NATS)

// WithBreaker stops publishing while b is open, so a dead connection fails
// fast instead of costing every event a publish attempt.
func WithBreaker(b *resilience.Breaker) NATSOption { return func(n *NATS) { n.breaker = b } }

// NewNATS publishes on subject through pub (usually a *nats.Conn).
func NewNATS(pub natsutil.Publisher, subject string, opts ...NATSOption) *NATS {
	n := &NATS{pub: pub, subject: subject}
	for _, o := range opts {
		o(n)
	}
	return n
}

func (n *NATS) Render(ctx context.Context, f narrative.Frame) error {
	if n.breaker == nil {
		return natsutil.Publish(ctx, n.pub, n.subject, f)
	}
	return n.breaker.Call(ctx, func(ctx context.Context) error {
		return natsutil.Publish(ctx, n.pub, n.subject, f)
	})
}
