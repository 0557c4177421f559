package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/pkg/fn"
	"github.com/WessleyAI/mpg-narrative/pkg/resilience"
)

// StatusError reports a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// HTTPSource fetches a CSV over HTTP with retries behind a circuit breaker.
type HTTPSource struct {
	URL     string
	Client  *http.Client
	Retry   fn.RetryOpts
	Breaker *resilience.Breaker
	Log     *slog.Logger
}

// NewHTTPSource creates an HTTPSource with an instrumented client.
func NewHTTPSource(url string, opts Options) *HTTPSource {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retry := fn.DefaultRetry
	if opts.Attempts > 0 {
		retry.MaxAttempts = opts.Attempts
	}
	retry.Retryable = retryable
	return &HTTPSource{
		URL: url,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Retry:   retry,
		Breaker: resilience.NewBreaker(resilience.BreakerOpts{FailThreshold: retry.MaxAttempts}),
		Log:     slog.Default(),
	}
}

// retryable reports whether another attempt might succeed. Client errors
// and malformed bodies are final.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	var pe *ParseError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

func (s *HTTPSource) Load(ctx context.Context) ([]domain.RawRecord, error) {
	attempt := 0
	get := resilience.BreakerStage(s.Breaker, func(ctx context.Context, url string) fn.Result[[]domain.RawRecord] {
		return fn.FromPair(s.fetch(ctx, url))
	})
	recs, err := fn.Retry(ctx, s.Retry, func(ctx context.Context) fn.Result[[]domain.RawRecord] {
		attempt++
		r := get(ctx, s.URL)
		if _, err := r.Unwrap(); err != nil {
			s.Log.Warn("dataset fetch failed", "url", s.URL, "attempt", attempt, "error", err)
		}
		return r
	}).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	s.Log.Info("dataset fetched", "url", s.URL, "rows", len(recs), "attempts", attempt)
	return recs, nil
}

func (s *HTTPSource) fetch(ctx context.Context, url string) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return ParseCSV(resp.Body)
}
