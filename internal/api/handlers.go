// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package api

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	gws "github.com/gorilla/websocket"

	"github.com/tomtom215/flwarden/internal/config"
	"github.com/tomtom215/flwarden/internal/hook"
	"github.com/tomtom215/flwarden/internal/lifecycle"
	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/traffic"
	"github.com/tomtom215/flwarden/internal/websocket"
)

// defaultStatsLimit is used when ?limit is absent.
const defaultStatsLimit = 300

// StatusSource is satisfied by *lifecycle.Supervisor.
type StatusSource interface {
	Status() lifecycle.Status
}

// RosterSource is satisfied by *roster.Roster.
type RosterSource interface {
	Snapshot() []hook.Player
}

// TrafficSource is satisfied by *traffic.Monitor.
type TrafficSource interface {
	Summary(now time.Time) map[netip.Addr]traffic.Summary
	Adapters() []traffic.AdapterStatus
}

// StatsSource is satisfied by *lifecycle.Stats.
type StatsSource interface {
	Recent(limit int) []lifecycle.Sample
}

// Operator is satisfied by *hook.Operator.
type Operator interface {
	KickByID(ctx context.Context, id int) error
	KickBanByID(ctx context.Context, id int) error
	Kick(ctx context.Context, name string) error
	IsOnServer(ctx context.Context, name string) (bool, error)
	SaveChar(ctx context.Context, name string) error
	DeleteChar(ctx context.Context, name string) error
	Ban(ctx context.Context, name string) error
	Unban(ctx context.Context, name string) error
	Rename(ctx context.Context, oldName, newName string) error
	Msgu(ctx context.Context, text string) error
}

// Deps are the components the handlers read from and act on. Nil sources
// make their endpoints answer 503.
type Deps struct {
	Config   func() *config.Config
	Status   StatusSource
	Roster   RosterSource
	Traffic  TrafficSource
	Stats    StatsSource
	Operator Operator
	Hub      *websocket.Hub
	Now      func() time.Time
}

// Handler serves the admin API.
type Handler struct {
	deps Deps
}

// NewHandler returns a Handler over deps.
func NewHandler(deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Handler{deps: deps}
}

func (h *Handler) unavailable(w http.ResponseWriter, r *http.Request, what string) {
	respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, what+" is not available", nil)
}

// HealthLive answers liveness probes.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, map[string]string{"status": "alive"})
}

// Status returns the supervisor status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.deps.Status == nil {
		h.unavailable(w, r, "supervisor")
		return
	}
	respondData(w, r, h.deps.Status.Status())
}

// Players returns the roster ordered by client id.
func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	if h.deps.Roster == nil {
		h.unavailable(w, r, "roster")
		return
	}
	respondList(w, r, h.deps.Roster.Snapshot())
}

// TrafficEntry is one remote address in the traffic view.
type TrafficEntry struct {
	IP      string   `json:"ip"`
	Kbps    float64  `json:"rx_kbps"`
	Players []string `json:"players,omitempty"`
	traffic.Summary
}

// TrafficReport is the body of GET /traffic.
type TrafficReport struct {
	Adapters []traffic.AdapterStatus `json:"adapters"`
	Remotes  []TrafficEntry          `json:"remotes"`
}

// Traffic returns per-address counters, busiest first, with the characters
// logged in from each address.
func (h *Handler) Traffic(w http.ResponseWriter, r *http.Request) {
	if h.deps.Traffic == nil {
		h.unavailable(w, r, "traffic monitor")
		return
	}

	names := make(map[string][]string)
	if h.deps.Roster != nil {
		for _, p := range h.deps.Roster.Snapshot() {
			if p.IP != "" && p.CharName != "" {
				names[p.IP] = append(names[p.IP], p.CharName)
			}
		}
	}

	summaries := h.deps.Traffic.Summary(h.deps.Now())
	remotes := make([]TrafficEntry, 0, len(summaries))
	for addr, s := range summaries {
		ip := addr.String()
		remotes = append(remotes, TrafficEntry{IP: ip, Kbps: s.RxKbps(), Players: names[ip], Summary: s})
	}
	slices.SortFunc(remotes, func(a, b TrafficEntry) int {
		if a.Rx10s != b.Rx10s {
			if a.Rx10s > b.Rx10s {
				return -1
			}
			return 1
		}
		if a.IP < b.IP {
			return -1
		}
		if a.IP > b.IP {
			return 1
		}
		return 0
	})

	adapters := h.deps.Traffic.Adapters()
	if adapters == nil {
		adapters = []traffic.AdapterStatus{}
	}
	respondData(w, r, TrafficReport{Adapters: adapters, Remotes: remotes})
}

// Stats returns recent health samples, oldest first.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.deps.Stats == nil {
		h.unavailable(w, r, "stats")
		return
	}
	q := statsQuery{Limit: defaultStatsLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, CodeValidation, "limit must be an integer", nil)
			return
		}
		q.Limit = n
	}
	if !validate(w, r, &q) {
		return
	}
	respondList(w, r, h.deps.Stats.Recent(q.Limit))
}

func (h *Handler) playerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "id must be an integer", nil)
		return 0, false
	}
	p := playerIDParam{ID: id}
	if !validate(w, r, &p) {
		return 0, false
	}
	return id, true
}

// operate runs an operator command and writes the result.
func (h *Handler) operate(w http.ResponseWriter, r *http.Request, action string, fields map[string]any, fn func(ctx context.Context) error) {
	if h.deps.Operator == nil {
		h.unavailable(w, r, "FLHook operator")
		return
	}
	log := logging.Ctx(r.Context())
	err := fn(r.Context())
	if err != nil {
		status, code := hookErrorStatus(err)
		log.Warn().Err(err).Str("action", action).Fields(fields).Msg("Operator command failed")
		respondError(w, r, status, code, sanitize(err.Error()), nil)
		return
	}
	log.Info().Str("action", action).Fields(fields).Msg("Operator command sent")
	data := map[string]any{"action": action}
	for k, v := range fields {
		data[k] = v
	}
	respondData(w, r, data)
}

// hookErrorStatus maps hook failures to HTTP status and code.
func hookErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, hook.ErrRejected):
		return http.StatusUnprocessableEntity, CodeRejected
	case errors.Is(err, hook.ErrDisabled), errors.Is(err, hook.ErrOperatorUnavailable):
		return http.StatusServiceUnavailable, CodeHookUnavailable
	case errors.Is(err, hook.ErrConnection), errors.Is(err, hook.ErrTimeout), errors.Is(err, hook.ErrProtocol):
		return http.StatusBadGateway, CodeHookError
	}
	return http.StatusInternalServerError, CodeInternal
}

// Kick kicks a client by id.
func (h *Handler) Kick(w http.ResponseWriter, r *http.Request) {
	id, ok := h.playerID(w, r)
	if !ok {
		return
	}
	h.operate(w, r, "kick", map[string]any{"id": id}, func(ctx context.Context) error {
		return h.deps.Operator.KickByID(ctx, id)
	})
}

// KickBan kicks and bans a client by id.
func (h *Handler) KickBan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.playerID(w, r)
	if !ok {
		return
	}
	h.operate(w, r, "kickban", map[string]any{"id": id}, func(ctx context.Context) error {
		return h.deps.Operator.KickBanByID(ctx, id)
	})
}

// KickChar kicks a character by name.
func (h *Handler) KickChar(w http.ResponseWriter, r *http.Request) {
	var req CharRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.operate(w, r, "kick", map[string]any{"name": req.Name}, func(ctx context.Context) error {
		return h.deps.Operator.Kick(ctx, req.Name)
	})
}

// CharOnline reports whether the named character is logged in.
func (h *Handler) CharOnline(w http.ResponseWriter, r *http.Request) {
	req := CharRequest{Name: chi.URLParam(r, "name")}
	if !validate(w, r, &req) {
		return
	}
	if h.deps.Operator == nil {
		h.unavailable(w, r, "FLHook operator")
		return
	}
	online, err := h.deps.Operator.IsOnServer(r.Context(), req.Name)
	if err != nil {
		status, code := hookErrorStatus(err)
		logging.Ctx(r.Context()).Warn().Err(err).Str("name", req.Name).Msg("Online check failed")
		respondError(w, r, status, code, sanitize(err.Error()), nil)
		return
	}
	respondData(w, r, map[string]any{"name": req.Name, "online": online})
}

// SaveChar flushes a character file to disk.
func (h *Handler) SaveChar(w http.ResponseWriter, r *http.Request) {
	var req CharRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.operate(w, r, "savechar", map[string]any{"name": req.Name}, func(ctx context.Context) error {
		return h.deps.Operator.SaveChar(ctx, req.Name)
	})
}

// DeleteChar deletes a character.
func (h *Handler) DeleteChar(w http.ResponseWriter, r *http.Request) {
	var req CharRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.operate(w, r, "deletechar", map[string]any{"name": req.Name}, func(ctx context.Context) error {
		return h.deps.Operator.DeleteChar(ctx, req.Name)
	})
}

// Ban bans a character, kicking it first when online.
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	var req CharRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.operate(w, r, "ban", map[string]any{"name": req.Name}, func(ctx context.Context) error {
		return h.deps.Operator.Ban(ctx, req.Name)
	})
}

// Unban lifts a ban.
func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	var req CharRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.operate(w, r, "unban", map[string]any{"name": req.Name}, func(ctx context.Context) error {
		return h.deps.Operator.Unban(ctx, req.Name)
	})
}

// Rename renames a character.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.operate(w, r, "rename", map[string]any{"from": req.From, "to": req.To}, func(ctx context.Context) error {
		return h.deps.Operator.Rename(ctx, req.From, req.To)
	})
}

// Broadcast sends a universe message.
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.operate(w, r, "broadcast", map[string]any{"text": req.Text}, func(ctx context.Context) error {
		return h.deps.Operator.Msgu(ctx, req.Text)
	})
}

// WebSocket upgrades to the live feed.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.deps.Hub == nil {
		h.unavailable(w, r, "live feed")
		return
	}
	upgrader := gws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	client := websocket.NewClient(h.deps.Hub, conn)
	if !h.deps.Hub.Register(r.Context(), client) {
		_ = conn.Close()
		return
	}
	client.Start()
}

// checkOrigin admits clients without an Origin header (CLI tools on the
// host) and browsers from a configured CORS origin.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.deps.Config == nil {
		return false
	}
	for _, allowed := range h.deps.Config().Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Ctx(r.Context()).Warn().Str("origin", sanitize(origin)).Msg("WebSocket connection rejected from unlisted origin")
	return false
}
