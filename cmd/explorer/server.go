package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/mpg-narrative/engine/control"
	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/narrative"
	"github.com/WessleyAI/mpg-narrative/engine/render"
	"github.com/WessleyAI/mpg-narrative/pkg/natsutil"
)

// maxBody caps control request bodies.
const maxBody = 4 << 10

type server struct {
	session *narrative.Session
	latest  *render.Latest
	page    http.Handler
	log     *slog.Logger
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", s.page)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("POST /api/scene/next", s.handleEvent(narrative.KindNext))
	mux.HandleFunc("POST /api/scene/previous", s.handleEvent(narrative.KindPrevious))
	mux.HandleFunc("POST /api/controls/fuel", s.handleEvent(narrative.KindFuel))
	mux.HandleFunc("POST /api/controls/cylinders", s.handleEvent(narrative.KindCylinders))
	mux.HandleFunc("POST /api/controls/measure", s.handleEvent(narrative.KindMeasure))
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"session": s.session.ID(),
		"scene":   s.session.State().Scene,
	})
}

func (s *server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.latest.Get(); ok {
		writeJSON(w, http.StatusOK, f)
		return
	}
	f, err := s.session.Frame(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleEvent decodes the JSON body into a request of kind and answers
// with the resulting frame. Navigation needs no body; controls reject any
// field left out.
func (s *server) handleEvent(kind narrative.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req control.Request
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, domain.NewControlError(string(kind), "", errors.Join(domain.ErrInvalidInput, err)))
			return
		}
		req.Kind = kind
		f, err := control.Handle(r.Context(), s.session, req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

// serveCommands answers control requests on subject with the resulting
// frame. Rejections carry their domain.Reason as the reply code.
func serveCommands(nc *nats.Conn, subject string, session *narrative.Session) (*nats.Subscription, error) {
	return natsutil.Handle(nc, subject, func(ctx context.Context, req control.Request) (narrative.Frame, error) {
		return control.Handle(ctx, session, req)
	}, domain.Reason)
}

// statusFor maps rejection reasons to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrControlLocked):
		return http.StatusLocked
	case errors.Is(err, domain.ErrAtBoundary):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": domain.Reason(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
