// Package fx resolves the USD→KRW exchange rate used to convert US-market
// results for display.
//
// Resolution policy:
//   - a manual override is served until it is replaced;
//   - any other stored quote younger than CacheTTL is served as "cache";
//   - otherwise the upstream chain is walked in order and the first valid
//     rate is stored and served;
//   - if every upstream fails, DefaultRate is served as "fallback" and the
//     store is left untouched, so the next request retries the upstreams.
//
// Only SetManualRate and Refresh replace a manual override. A refresh
// triggered by Get that completes after an override was set keeps the
// override.
//
// Get never fails. Concurrent refreshes share one upstream walk.
package fx

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/investcalc/calc-engine/internal/metrics"
	"github.com/investcalc/calc-engine/internal/model"
	"github.com/investcalc/calc-engine/internal/store"
)

const (
	// CacheTTL is how long an upstream quote is served without refreshing.
	CacheTTL = time.Hour

	// DefaultRate is served when no upstream answers.
	DefaultRate = 1350.0

	// DefaultUpstreamTimeout bounds a single upstream call.
	DefaultUpstreamTimeout = 5 * time.Second

	fallbackMessage = "Failed to fetch live rate. Using default value."
)

// ErrInvalidRate is returned when a manual rate is not a positive number.
var ErrInvalidRate = errors.New("fx: rate must be a positive number")

// Upstream is one tier of the fallback chain.
type Upstream struct {
	Source   model.Source
	Provider Provider
}

// Notifier is told about every quote written to the store.
type Notifier interface {
	QuoteUpdated(q model.Quote)
}

// Response is what a rate query returns. CachedAt and ExpiresAt are nil for
// the fallback; ExpiresAt is nil for manual quotes, which do not expire.
type Response struct {
	Rate      float64
	Source    model.Source
	Provider  string
	CachedAt  *time.Time
	ExpiresAt *time.Time
	Error     string
}

// Service owns the quote lifecycle. Construct one per process.
type Service struct {
	store     store.QuoteStore
	upstreams []Upstream
	timeout   time.Duration
	now       func() time.Time
	notifier  Notifier
	group     singleflight.Group

	// mu serializes store writes so the manual check in commit holds.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithUpstreamTimeout bounds each upstream call.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithNotifier registers a listener for stored quotes.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a rate service over st, trying upstreams in order.
func NewService(st store.QuoteStore, upstreams []Upstream, opts ...Option) *Service {
	s := &Service{
		store:     st,
		upstreams: upstreams,
		timeout:   DefaultUpstreamTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultUpstreams builds the two-tier chain: primary, then secondary.
func DefaultUpstreams(primary, secondary Provider) []Upstream {
	return []Upstream{
		{Source: model.SourcePrimary, Provider: primary},
		{Source: model.SourceSecondary, Provider: secondary},
	}
}

// Get returns the current rate, refreshing from upstreams when the stored
// quote is missing or stale.
func (s *Service) Get(ctx context.Context) Response {
	if q, ok := s.Current(ctx); ok {
		switch {
		case q.IsManual():
			return s.respond(manualResponse(q))
		case s.now().Sub(q.ResolvedAt) < CacheTTL:
			resp := freshResponse(q)
			resp.Source = model.SourceCache
			return s.respond(resp)
		}
	}
	return s.respond(s.refresh(ctx, false))
}

// Refresh walks the upstream chain regardless of the stored quote's age or
// origin. On success the stored quote, including a manual one, is replaced.
func (s *Service) Refresh(ctx context.Context) Response {
	return s.respond(s.refresh(ctx, true))
}

// SetManualRate stores rate as a sticky manual override.
func (s *Service) SetManualRate(ctx context.Context, rate float64) (model.Quote, error) {
	if !model.ValidRate(rate) {
		return model.Quote{}, ErrInvalidRate
	}

	q := model.Quote{
		Rate:       rate,
		Source:     model.SourceManual,
		ResolvedAt: s.now(),
	}
	s.mu.Lock()
	err := s.store.Save(ctx, q)
	s.mu.Unlock()
	if err != nil {
		return model.Quote{}, err
	}

	slog.Info("fx manual rate set", "rate", rate)
	s.stored(q)
	return q, nil
}

// Current returns the stored quote without refreshing it.
func (s *Service) Current(ctx context.Context) (model.Quote, bool) {
	q, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("fx quote store unavailable, treating as empty", "err", err)
		}
		return model.Quote{}, false
	}
	return q, true
}

// refresh collapses concurrent callers into one upstream walk. Forced and
// TTL-driven refreshes are collapsed separately since only the former may
// replace a manual quote.
func (s *Service) refresh(ctx context.Context, force bool) Response {
	key := "refresh"
	if force {
		key = "force"
	}
	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		// Detach from the first caller's cancellation; the per-upstream
		// timeout still bounds the walk.
		return s.walk(context.WithoutCancel(ctx), force), nil
	})
	return v.(Response)
}

func (s *Service) walk(ctx context.Context, force bool) Response {
	refreshID := uuid.NewString()

	for _, up := range s.upstreams {
		rate, err := s.fetch(ctx, up.Provider)
		if err != nil {
			slog.Warn("fx upstream failed",
				"refresh_id", refreshID,
				"provider", up.Provider.Name(),
				"tier", up.Source,
				"err", err,
			)
			continue
		}

		q := model.Quote{
			Rate:       rate,
			Source:     up.Source,
			Provider:   up.Provider.Name(),
			ResolvedAt: s.now(),
		}
		if manual, ok := s.commit(ctx, q, force, refreshID); !ok {
			slog.Info("fx manual rate set during refresh, keeping it",
				"refresh_id", refreshID,
				"rate", manual.Rate,
			)
			return manualResponse(manual)
		}

		slog.Info("fx rate refreshed",
			"refresh_id", refreshID,
			"provider", q.Provider,
			"tier", q.Source,
			"rate", rate,
		)
		return freshResponse(q)
	}

	slog.Warn("all fx upstreams failed, serving default rate",
		"refresh_id", refreshID,
		"rate", DefaultRate,
	)
	return Response{
		Rate:   DefaultRate,
		Source: model.SourceFallback,
		Error:  fallbackMessage,
	}
}

// commit saves q. Unless force is set, a manual quote already in the store
// is kept and returned with ok false.
func (s *Service) commit(ctx context.Context, q model.Quote, force bool, refreshID string) (model.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force {
		if cur, found := s.Current(ctx); found && cur.IsManual() {
			return cur, false
		}
	}
	if err := s.store.Save(ctx, q); err != nil {
		slog.Error("fx quote not stored", "refresh_id", refreshID, "err", err)
		return q, true
	}
	s.stored(q)
	return q, true
}

func (s *Service) fetch(ctx context.Context, p Provider) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rate, err := p.FetchRate(ctx)
	metrics.FxUpstreamLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err == nil && !model.ValidRate(rate) {
		err = ErrMalformedResponse
	}
	if err != nil {
		outcome = "error"
	}
	metrics.FxUpstreamRequestsTotal.WithLabelValues(p.Name(), outcome).Inc()
	return rate, err
}

func (s *Service) stored(q model.Quote) {
	metrics.FxRate.Set(q.Rate)
	if s.notifier != nil {
		s.notifier.QuoteUpdated(q)
	}
}

func (s *Service) respond(r Response) Response {
	metrics.FxResponsesTotal.WithLabelValues(string(r.Source)).Inc()
	return r
}

func freshResponse(q model.Quote) Response {
	cachedAt := q.ResolvedAt
	expiresAt := q.ResolvedAt.Add(CacheTTL)
	return Response{
		Rate:      q.Rate,
		Source:    q.Source,
		Provider:  q.Provider,
		CachedAt:  &cachedAt,
		ExpiresAt: &expiresAt,
	}
}

func manualResponse(q model.Quote) Response {
	cachedAt := q.ResolvedAt
	return Response{
		Rate:     q.Rate,
		Source:   model.SourceManual,
		CachedAt: &cachedAt,
	}
}
