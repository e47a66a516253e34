// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/flwarden/internal/config"
	"github.com/tomtom215/flwarden/internal/middleware"
)

// RouterConfig holds settings fixed when the router is built.
type RouterConfig struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
	SlowRequest     time.Duration
}

// RouterConfigFrom extracts the router settings from cfg.
func RouterConfigFrom(cfg config.ServerConfig) RouterConfig {
	return RouterConfig{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitReqs:   cfg.RateLimitReqs,
		RateLimitWindow: cfg.RateLimitWindow,
	}
}

// NewRouter builds the admin API. Operator routes share one per-IP rate
// limit; read routes and the live feed are unlimited.
func NewRouter(h *Handler, rc RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog(rc.SlowRequest))
	corsOpts := cors.Options{
		AllowedOrigins: rc.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	}
	if len(rc.CORSOrigins) == 0 {
		// cors treats an empty list as "*"; here it means same-origin only.
		corsOpts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	r.Use(cors.Handler(corsOpts))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", h.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.PrometheusMetrics)

			r.Get("/health/live", h.HealthLive)
			r.Get("/status", h.Status)
			r.Get("/players", h.Players)
			r.Get("/traffic", h.Traffic)
			r.Get("/stats", h.Stats)

			r.Group(func(r chi.Router) {
				if rc.RateLimitReqs > 0 && rc.RateLimitWindow > 0 {
					r.Use(httprate.Limit(rc.RateLimitReqs, rc.RateLimitWindow,
						httprate.WithKeyFuncs(httprate.KeyByIP),
						httprate.WithLimitHandler(rateLimited),
					))
				}
				r.Post("/players/{id}/kick", h.Kick)
				r.Post("/players/{id}/kickban", h.KickBan)
				r.Get("/chars/{name}/online", h.CharOnline)
				r.Post("/chars/kick", h.KickChar)
				r.Post("/chars/save", h.SaveChar)
				r.Post("/chars/delete", h.DeleteChar)
				r.Post("/chars/ban", h.Ban)
				r.Post("/chars/unban", h.Unban)
				r.Post("/chars/rename", h.Rename)
				r.Post("/broadcast", h.Broadcast)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "no such endpoint", nil)
	})
	return r
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many operator requests", nil)
}

// NewServer returns the admin HTTP server for cfg.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Timeout,
		IdleTimeout:       2 * time.Minute,
	}
}
