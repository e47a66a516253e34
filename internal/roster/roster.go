// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package roster

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/tomtom215/flwarden/internal/hook"
)

// ErrMalformedEvent is returned by Apply for events missing positional fields.
var ErrMalformedEvent = errors.New("malformed roster event")

// Roster maps client ids to player records. It is safe for concurrent use.
type Roster struct {
	mu      sync.RWMutex
	players map[int]hook.Player
}

// New returns an empty Roster.
func New() *Roster {
	return &Roster{players: make(map[int]hook.Player)}
}

// Apply updates the roster from one event line. For chat events it returns
// the formatted chat log line and leaves the roster untouched. Incremental
// events never delete records; Replace does.
func (r *Roster) Apply(l hook.Line) (string, error) {
	switch l.Type {
	case "chat":
		return r.chatLine(l)

	case "disconnect":
		// disconnect char= id=
		id, err := idAt(l, 2)
		if err != nil {
			return "", err
		}
		r.set(hook.Player{ID: id})

	case "login":
		// login char= accountdirname= id= ip=
		id, err := idAt(l, 3)
		if err != nil {
			return "", err
		}
		r.update(id, func(p *hook.Player) {
			p.CharName = l.Value(1)
			p.IP = l.Value(4)
		})

	case "baseenter", "launch":
		// baseenter char= id= base= system=
		id, err := idAt(l, 2)
		if err != nil {
			return "", err
		}
		r.update(id, func(p *hook.Player) { p.System = l.Value(4) })

	case "spawn":
		// spawn char= id= system=
		id, err := idAt(l, 2)
		if err != nil {
			return "", err
		}
		r.update(id, func(p *hook.Player) { p.System = l.Value(3) })
	}
	return "", nil
}

func idAt(l hook.Line, i int) (int, error) {
	if i >= len(l.Values) {
		return 0, fmt.Errorf("%w: %s has no field %d", ErrMalformedEvent, l.Type, i)
	}
	id, err := strconv.Atoi(l.Values[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %s id %q", ErrMalformedEvent, l.Type, l.Values[i])
	}
	return id, nil
}

func (r *Roster) set(p hook.Player) {
	r.mu.Lock()
	r.players[p.ID] = p
	r.mu.Unlock()
}

// update applies fn to the record for id, creating it when missing.
func (r *Roster) update(id int, fn func(p *hook.Player)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		p = hook.Player{ID: id}
	}
	fn(&p)
	r.players[id] = p
}

// chatLine formats "<from>-><dest>: <text>". dest is empty for scopes
// other than system and player.
func (r *Roster) chatLine(l hook.Line) (string, error) {
	// chat from= id= type= [to=] text=
	id, err := idAt(l, 2)
	if err != nil {
		return "", err
	}
	from := l.Value(1)

	var dest string
	switch l.Value(3) {
	case "system":
		if p, ok := r.Get(id); ok {
			dest = p.System
		}
	case "player":
		dest = l.Value(4)
	}

	return fmt.Sprintf("%s->%s: %s", from, dest, l.TextAfter(" text=")), nil
}

// Replace reconciles the roster with a full player list. Ids not present in
// players are removed.
func (r *Roster) Replace(players map[int]hook.Player) {
	next := make(map[int]hook.Player, len(players))
	for id, p := range players {
		p.ID = id
		next[id] = p
	}
	r.mu.Lock()
	r.players = next
	r.mu.Unlock()
}

// Get returns the record for id.
func (r *Roster) Get(id int) (hook.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// Count returns the number of records.
func (r *Roster) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Snapshot returns a copy of all records sorted by id.
func (r *Roster) Snapshot() []hook.Player {
	r.mu.RLock()
	out := make([]hook.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PlayersByIP counts records per non-empty IP.
func (r *Roster) PlayersByIP() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, p := range r.players {
		if p.IP != "" {
			counts[p.IP]++
		}
	}
	return counts
}
