// Package natsutil provides typed JSON publish, subscribe and request/reply
// helpers over NATS with OpenTelemetry trace propagation in message headers.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/WessleyAI/mpg-narrative/pkg/natsutil"

// DefaultTimeout bounds Request when ctx carries no deadline.
const DefaultTimeout = 5 * time.Second

// Publisher is the subset of *nats.Conn used by Publish.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// Requester is the subset of *nats.Conn used by Request.
type Requester interface {
	RequestMsgWithContext(ctx context.Context, m *nats.Msg) (*nats.Msg, error)
}

// headerCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// newMsg encodes v and injects the trace context from ctx.
func newMsg(ctx context.Context, subject string, v any) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("natsutil: encode %s: %w", subject, err)
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return msg, nil
}

func msgContext(msg *nats.Msg) context.Context {
	return otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
}

// startSpan continues the trace carried by msg.
func startSpan(msg *nats.Msg, kind trace.SpanKind) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(msgContext(msg), msg.Subject,
		trace.WithSpanKind(kind),
		trace.WithAttributes(
			attribute.String("messaging.system", "nats"),
			attribute.String("messaging.destination.name", msg.Subject),
		))
}

// Publish serializes v as JSON and publishes it to subject.
func Publish[T any](ctx context.Context, p Publisher, subject string, v T) error {
	msg, err := newMsg(ctx, subject, v)
	if err != nil {
		return err
	}
	return p.PublishMsg(msg)
}

// Subscribe registers a handler for JSON messages of type T. Malformed
// messages are dropped.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(context.Context, T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		ctx, span := startSpan(msg, trace.SpanKindConsumer)
		defer span.End()
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			span.RecordError(err)
			return
		}
		handler(ctx, v)
	})
}

// envelope is the reply body used by Handle and Request.
type envelope[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// RemoteError is a handler failure reported back to the requester.
type RemoteError struct {
	Subject string
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("natsutil: %s: %s", e.Subject, e.Message)
	}
	return fmt.Sprintf("natsutil: %s: %s (%s)", e.Subject, e.Message, e.Code)
}

// Request sends req and decodes the reply. A handler error comes back as
// *RemoteError; the partially filled response is still returned with it.
func Request[Req, Resp any](ctx context.Context, r Requester, subject string, req Req) (Resp, error) {
	var zero Resp
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	msg, err := newMsg(ctx, subject, req)
	if err != nil {
		return zero, err
	}
	resp, err := r.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return zero, fmt.Errorf("natsutil: request %s: %w", subject, err)
	}
	var env envelope[Resp]
	if err := json.Unmarshal(resp.Data, &env); err != nil {
		return zero, fmt.Errorf("natsutil: decode reply %s: %w", subject, err)
	}
	if env.Error != "" {
		return env.Data, &RemoteError{Subject: subject, Code: env.Code, Message: env.Error}
	}
	return env.Data, nil
}

// Handle answers requests on subject with handler. classify, if non-nil,
// maps handler errors to a short code carried in the reply.
func Handle[Req, Resp any](nc *nats.Conn, subject string, handler func(context.Context, Req) (Resp, error), classify func(error) string) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		if msg.Reply == "" {
			return
		}
		msg.Respond(serve(msg, handler, classify))
	})
}

// serve decodes msg, runs handler and encodes the envelope.
func serve[Req, Resp any](msg *nats.Msg, handler func(context.Context, Req) (Resp, error), classify func(error) string) []byte {
	var (
		req Req
		env envelope[Resp]
	)
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		env.Error = "malformed request: " + err.Error()
		env.Code = "malformed"
	} else {
		ctx, span := startSpan(msg, trace.SpanKindServer)
		resp, err := handler(ctx, req)
		env.Data = resp
		if err != nil {
			env.Error = err.Error()
			if classify != nil {
				env.Code = classify(err)
			}
			span.SetStatus(codes.Error, env.Error)
		}
		span.End()
	}
	data, err := json.Marshal(env)
	if err != nil {
		data, _ = json.Marshal(envelope[struct{}]{Error: err.Error(), Code: "encode"})
	}
	return data
}
