// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package middleware holds the admin API's own HTTP middleware. Everything
else (CORS, rate limiting, panic recovery, real IP) comes from the chi
ecosystem and is wired in package api.

  - RequestID: X-Request-ID propagation and logging correlation
  - PrometheusMetrics: flwarden_api_* collectors, labelled by chi route pattern
  - AccessLog: per-request debug log with slow request warnings

Order in the router:

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(0))
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
