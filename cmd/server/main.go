package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/investcalc/calc-engine/internal/api"
	"github.com/investcalc/calc-engine/internal/config"
	"github.com/investcalc/calc-engine/internal/fx"
	"github.com/investcalc/calc-engine/internal/metrics"
	"github.com/investcalc/calc-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	// --- Initialize quote store ---
	var st store.QuoteStore
	var cleanup []func()

	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		st = store.NewRedisStore(rdb, fx.BaseCurrency, fx.QuoteCurrency, fx.CacheTTL)
		slog.Info("Redis quote store enabled")
	} else {
		slog.Warn("REDIS_URL not set, using in-memory quote store (not shared between instances)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- WebSocket hub ---
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := api.NewWSHub()
	go wsHub.Run(hubCtx)

	// --- Exchange-rate service ---
	client := fx.NewHTTPClient(cfg.Fx.UpstreamTimeout)
	fxSvc := fx.NewService(st,
		fx.DefaultUpstreams(
			fx.NewFrankfurter(client, cfg.Fx.PrimaryURL),
			fx.NewOpenER(client, cfg.Fx.SecondaryURL),
		),
		fx.WithUpstreamTimeout(cfg.Fx.UpstreamTimeout),
		fx.WithNotifier(wsHub),
	)

	if cfg.Fx.WarmInterval > 0 {
		warmer, err := fx.StartWarmer(fxSvc, cfg.Fx.WarmInterval)
		if err != nil {
			slog.Error("fx warmer failed to start", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, func() { _ = warmer.Stop() })
	}

	h := api.NewHandler(fxSvc, cfg.Fx.RefreshLimit)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)

	// CORS middleware for the browser calculator.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.Server.CORSOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"calc-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket stream of rate updates. Outside the timeout group since
		// the connection is long-lived.
		r.Get("/fx/ws", wsHub.HandleWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			// Exchange rate.
			r.Get("/fx", h.GetRate)
			r.Post("/fx/refresh", h.RefreshRate)
			r.Put("/fx/manual", h.SetManualRate)

			// Calculators.
			r.Route("/calc", func(r chi.Router) {
				r.Post("/average-price", h.AveragePrice)
				r.Post("/averaging", h.Averaging)
				r.Post("/average-down", h.AverageDown)
				r.Post("/loss-recovery", h.LossRecovery)
				r.Post("/target-profit", h.TargetProfit)
				r.Post("/exit-plan", h.ExitPlan)
				r.Post("/return", h.Return)
			})
		})
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("calc-engine listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down calc-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	stopHub()
	fmt.Println("calc-engine stopped")
}
