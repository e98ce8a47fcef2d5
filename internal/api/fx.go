package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/investcalc/calc-engine/internal/fx"
	"github.com/investcalc/calc-engine/internal/model"
)

// RateResponse is the JSON body of every exchange-rate endpoint. Times are
// unix milliseconds; null when the rate was not resolved from a stored quote.
type RateResponse struct {
	Rate      float64      `json:"rate"`
	Source    model.Source `json:"source"`
	Provider  string       `json:"provider,omitempty"`
	CachedAt  *int64       `json:"cachedAt"`
	ExpiresAt *int64       `json:"expiresAt"`
	Error     string       `json:"error,omitempty"`
}

// ManualRateRequest is the JSON body for PUT /fx/manual.
type ManualRateRequest struct {
	Rate float64 `json:"rate"`
}

func toRateResponse(r fx.Response) RateResponse {
	return RateResponse{
		Rate:      r.Rate,
		Source:    r.Source,
		Provider:  r.Provider,
		CachedAt:  unixMilli(r.CachedAt),
		ExpiresAt: unixMilli(r.ExpiresAt),
		Error:     r.Error,
	}
}

func unixMilli(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// GetRate handles GET /api/v1/fx
// Always 200: upstream failure is reported in-band via source "fallback".
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toRateResponse(h.fx.Get(r.Context())))
}

// RefreshRate handles POST /api/v1/fx/refresh
// Walks the upstream chain even if the stored quote is fresh or manual.
func (h *Handler) RefreshRate(w http.ResponseWriter, r *http.Request) {
	if res := h.refresh.Reserve(); res.Delay() > 0 {
		retry := res.Delay()
		res.Cancel()
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		writeError(w, "refresh rate limited", http.StatusTooManyRequests)
		return
	}

	writeJSON(w, http.StatusOK, toRateResponse(h.fx.Refresh(r.Context())))
}

// SetManualRate handles PUT /api/v1/fx/manual
func (h *Handler) SetManualRate(w http.ResponseWriter, r *http.Request) {
	var req ManualRateRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := h.fx.SetManualRate(r.Context(), req.Rate)
	if err != nil {
		if errors.Is(err, fx.ErrInvalidRate) {
			writeError(w, "rate must be a positive number", http.StatusBadRequest)
			return
		}
		slog.Error("manual rate not stored", "err", err)
		writeError(w, "failed to store rate", http.StatusInternalServerError)
		return
	}

	cachedAt := q.ResolvedAt.UnixMilli()
	writeJSON(w, http.StatusOK, RateResponse{
		Rate:     q.Rate,
		Source:   q.Source,
		CachedAt: &cachedAt,
	})
}
