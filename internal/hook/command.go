// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/flwarden/internal/logging"
	"github.com/tomtom215/flwarden/internal/metrics"
)

// CommandClient is a synchronous request/reply FLHook admin session.
//
// The session is opened lazily and re-opened whenever the hook settings
// change. Calls are serialized; any IO error, timeout or malformed reply
// discards the session so the next call re-authenticates.
type CommandClient struct {
	settings SettingsFunc
	timeout  time.Duration

	mu        sync.Mutex
	sess      *session
	lastError string
}

// NewCommandClient creates a client reading its settings from settings.
// timeout <= 0 uses DefaultReplyTimeout.
func NewCommandClient(settings SettingsFunc, timeout time.Duration) *CommandClient {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	return &CommandClient{settings: settings, timeout: timeout}
}

// LastError returns the message of the most recent failure, the raw reply
// for rejected commands, or "OK" after a success.
func (c *CommandClient) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Connected reports whether a session is currently open.
func (c *CommandClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// Close discards the open session, if any.
func (c *CommandClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *CommandClient) closeLocked() error {
	if c.sess == nil {
		return nil
	}
	err := c.sess.close()
	c.sess = nil
	return err
}

// ensureLocked returns an open session matching the current settings.
func (c *CommandClient) ensureLocked(ctx context.Context) (*session, error) {
	settings := c.settings()
	if c.sess != nil && c.sess.settings != settings {
		logging.Debug().Msg("FLHook settings changed, closing command session")
		_ = c.closeLocked()
	}
	if !settings.Enabled() {
		return nil, ErrDisabled
	}
	if c.sess != nil {
		return c.sess, nil
	}

	sess, err := dialSession(ctx, settings, c.timeout)
	if err != nil {
		return nil, err
	}
	logging.Debug().Str("addr", settings.Address()).Bool("unicode", settings.Unicode).Msg("FLHook command session opened")
	c.sess = sess
	return sess, nil
}

// exchange sends command and passes reply lines to handle until it reports
// done. Session-level failures discard the session.
func (c *CommandClient) exchange(ctx context.Context, command string, handle func(line string) (done bool, err error)) error {
	name, _, _ := strings.Cut(command, " ")
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.exchangeLocked(ctx, command, handle)
	metrics.RecordHookRequest(name, err == nil, time.Since(start))

	switch {
	case err == nil:
		c.lastError = "OK"
	case errors.Is(err, ErrRejected):
		// lastError already holds the raw reply
	case errors.Is(err, ErrDisabled):
		c.lastError = ErrDisabled.Error()
	default:
		c.lastError = err.Error()
		if c.sess != nil {
			_ = c.closeLocked()
		}
		metrics.RecordHookError("command")
		logging.Debug().Err(err).Str("command", name).Msg("FLHook command session discarded")
	}
	return err
}

func (c *CommandClient) exchangeLocked(ctx context.Context, command string, handle func(string) (bool, error)) error {
	sess, err := c.ensureLocked(ctx)
	if err != nil {
		return err
	}
	if err := sess.writeLine(command); err != nil {
		return err
	}
	for {
		line, err := sess.readLine(c.timeout)
		if err != nil {
			return err
		}
		done, err := handle(line)
		if err != nil {
			if errors.Is(err, ErrRejected) {
				c.lastError = line
			}
			return err
		}
		if done {
			return nil
		}
	}
}

// rejected wraps an ERR reply.
func rejected(reply string) error {
	return fmt.Errorf("%w: %s", ErrRejected, reply)
}

// expectOK handles a command whose whole reply is a single OK line.
func expectOK(line string) (bool, error) {
	switch {
	case line == "OK":
		return true, nil
	case strings.HasPrefix(line, "ERR"):
		return true, rejected(line)
	default:
		return true, fmt.Errorf("%w: unexpected reply %q", ErrProtocol, line)
	}
}

func (c *CommandClient) simple(ctx context.Context, command string) error {
	return c.exchange(ctx, command, expectOK)
}

// Test sends "test" and expects OK.
func (c *CommandClient) Test(ctx context.Context) error {
	return c.simple(ctx, "test")
}

// ServerInfo requests server load, NPC spawn state and uptime.
func (c *CommandClient) ServerInfo(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	var gotInfo bool

	err := c.exchange(ctx, "serverinfo", func(line string) (bool, error) {
		if !gotInfo {
			if !strings.HasPrefix(line, "serverload") {
				if strings.HasPrefix(line, "ERR") {
					return true, rejected(line)
				}
				return true, fmt.Errorf("%w: serverinfo reply %q", ErrProtocol, line)
			}
			parsed, err := parseServerInfo(line)
			if err != nil {
				return true, err
			}
			info, gotInfo = parsed, true
			return false, nil
		}
		if line != "OK" {
			return true, fmt.Errorf("%w: serverinfo terminator %q", ErrProtocol, line)
		}
		return true, nil
	})
	if err != nil {
		return ServerInfo{}, err
	}
	return info, nil
}

// parseServerInfo parses "serverload=N npcspawn=enabled uptime=..." lines.
func parseServerInfo(raw string) (ServerInfo, error) {
	l := ParseLine(raw)
	if len(l.Keys) < 3 || l.Keys[1] != "npcspawn" || l.Keys[2] != "uptime" {
		return ServerInfo{}, fmt.Errorf("%w: serverinfo keys %q", ErrProtocol, raw)
	}
	load, err := strconv.Atoi(l.Values[0])
	if err != nil {
		return ServerInfo{}, fmt.Errorf("%w: serverload %q", ErrProtocol, l.Values[0])
	}
	return ServerInfo{
		Load:     load,
		NPCSpawn: l.Values[1] == "enabled",
		Uptime:   l.Values[2],
	}, nil
}

// GetPlayers requests the player list. On an OK terminator into is cleared
// and filled with exactly the players listed. On any failure into is left
// untouched.
func (c *CommandClient) GetPlayers(ctx context.Context, into map[int]Player) error {
	seen := make(map[int]Player)

	err := c.exchange(ctx, "getplayers", func(line string) (bool, error) {
		switch {
		case strings.HasPrefix(line, "ERR"):
			return true, rejected(line)
		case strings.HasPrefix(line, "OK"):
			return true, nil
		}
		p, err := parsePlayer(line)
		if err != nil {
			return true, err
		}
		seen[p.ID] = p
		return false, nil
	})
	if err != nil {
		return err
	}

	clear(into)
	for id, p := range seen {
		into[id] = p
	}
	return nil
}

// parsePlayer reads "charname= clientid= ip= host= ping= base= system=" by
// position.
func parsePlayer(raw string) (Player, error) {
	l := ParseLine(raw)
	if len(l.Values) < 7 {
		return Player{}, fmt.Errorf("%w: player record %q", ErrProtocol, raw)
	}
	id, err := strconv.Atoi(l.Values[1])
	if err != nil {
		return Player{}, fmt.Errorf("%w: clientid %q", ErrProtocol, l.Values[1])
	}
	ping, err := strconv.Atoi(l.Values[4])
	if err != nil {
		return Player{}, fmt.Errorf("%w: ping %q", ErrProtocol, l.Values[4])
	}
	return Player{
		ID:       id,
		CharName: l.Values[0],
		IP:       l.Values[2],
		Ping:     ping,
		System:   l.Values[6],
	}, nil
}

// IsOnServer reports whether the named character is logged in.
func (c *CommandClient) IsOnServer(ctx context.Context, name string) (bool, error) {
	var online bool
	err := c.exchange(ctx, "isonserver "+name, func(line string) (bool, error) {
		switch {
		case strings.HasPrefix(line, "ERR"):
			return true, rejected(line)
		case strings.HasPrefix(line, "onserver=yes"):
			online = true
		case strings.HasPrefix(line, "onserver=no"):
			online = false
		case strings.HasPrefix(line, "OK"):
			return true, nil
		default:
			return true, fmt.Errorf("%w: isonserver reply %q", ErrProtocol, line)
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return online, nil
}

// Rename renames a character.
func (c *CommandClient) Rename(ctx context.Context, oldName, newName string) error {
	return c.simple(ctx, "rename "+oldName+" "+newName)
}

// SaveChar saves a character, only if it is online.
func (c *CommandClient) SaveChar(ctx context.Context, name string) error {
	online, err := c.IsOnServer(ctx, name)
	if err != nil {
		return err
	}
	if !online {
		c.mu.Lock()
		c.lastError = "player not on server"
		c.mu.Unlock()
		return rejected("player not on server")
	}
	return c.simple(ctx, "savechar "+name)
}

// Kick kicks a character by name.
func (c *CommandClient) Kick(ctx context.Context, name string) error {
	return c.simple(ctx, "kick "+name)
}

// KickByID kicks a client by id.
func (c *CommandClient) KickByID(ctx context.Context, id int) error {
	return c.simple(ctx, "kick$ "+strconv.Itoa(id))
}

// KickBanByID kicks and bans a client by id.
func (c *CommandClient) KickBanByID(ctx context.Context, id int) error {
	return c.simple(ctx, "kickban$ "+strconv.Itoa(id))
}

// Ban bans a character. An online character is kicked first; that kick is
// best-effort and its result is ignored.
func (c *CommandClient) Ban(ctx context.Context, name string) error {
	if online, err := c.IsOnServer(ctx, name); err == nil && online {
		_ = c.Kick(ctx, name)
	}
	return c.simple(ctx, "ban "+name)
}

// Unban lifts a ban.
func (c *CommandClient) Unban(ctx context.Context, name string) error {
	return c.simple(ctx, "unban "+name)
}

// DeleteChar deletes a character.
func (c *CommandClient) DeleteChar(ctx context.Context, name string) error {
	return c.simple(ctx, "deletechar "+name)
}

// Msgu broadcasts text to every player.
func (c *CommandClient) Msgu(ctx context.Context, text string) error {
	return c.simple(ctx, "msgu "+text)
}
