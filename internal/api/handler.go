// Package api exposes the calculators and the exchange-rate service over
// HTTP. Handlers are plain http.HandlerFuncs registered on a chi router by
// the caller.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/investcalc/calc-engine/internal/fx"
	"github.com/investcalc/calc-engine/internal/model"
)

// RateService is the part of fx.Service the handlers depend on.
type RateService interface {
	Get(ctx context.Context) fx.Response
	Refresh(ctx context.Context) fx.Response
	SetManualRate(ctx context.Context, rate float64) (model.Quote, error)
}

// Handler serves the calculator and exchange-rate endpoints.
type Handler struct {
	fx      RateService
	refresh *rate.Limiter
}

// NewHandler creates a Handler. refreshEvery is the minimum spacing between
// forced refreshes; zero disables the limit.
func NewHandler(rates RateService, refreshEvery time.Duration) *Handler {
	limit := rate.Inf
	if refreshEvery > 0 {
		limit = rate.Every(refreshEvery)
	}
	return &Handler{
		fx:      rates,
		refresh: rate.NewLimiter(limit, 1),
	}
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON encodes v before touching the response, so an encoding failure
// becomes a 500 rather than a truncated body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("response not encoded", "err", err)
		body = []byte(`{"error":"internal error"}`)
		status = http.StatusInternalServerError
	}
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
