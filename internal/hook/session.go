// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/tomtom215/flwarden/internal/config"
)

// Banner is the greeting FLHook sends on connect.
const Banner = "Welcome to FLHack, please authenticate"

// DefaultReplyTimeout bounds the wait for each reply line.
const DefaultReplyTimeout = 5 * time.Second

// SettingsFunc returns the current hook settings. It is called before every
// command and by the event watcher.
type SettingsFunc func() config.HookConfig

// session is one authenticated connection.
type session struct {
	conn     net.Conn
	reader   *bufio.Reader
	codec    codec
	settings config.HookConfig
}

// dialSession connects to FLHook and authenticates. timeout bounds the dial
// and each handshake reply.
func dialSession(ctx context.Context, settings config.HookConfig, timeout time.Duration) (*session, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", settings.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, settings.Address(), err)
	}

	c := codec{unicode: settings.Unicode}
	s := &session{
		conn:     conn,
		reader:   c.newReader(conn),
		codec:    c,
		settings: settings,
	}

	if err := s.handshake(timeout); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) handshake(timeout time.Duration) error {
	banner, err := s.readLine(timeout)
	if err != nil {
		return err
	}
	if banner != Banner {
		return fmt.Errorf("%w: no welcome message %q", ErrProtocol, banner)
	}

	if err := s.writeLine("pass " + s.settings.Password); err != nil {
		return err
	}
	reply, err := s.readLine(timeout)
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("%w: no pass ok message %q", ErrProtocol, reply)
	}
	return nil
}

// writeLine sends one command line.
func (s *session) writeLine(line string) error {
	buf, err := s.codec.encode(line)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrProtocol, err)
	}
	if _, err := s.conn.Write(buf); err != nil {
		return fmt.Errorf("%w: write: %v", ErrConnection, err)
	}
	return nil
}

// readLine waits up to timeout for one line. timeout <= 0 waits forever.
func (s *session) readLine(timeout time.Duration) (string, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("%w: set deadline: %v", ErrConnection, err)
	}

	line, err := s.codec.readLine(s.reader)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return "", fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return "", fmt.Errorf("%w: read: %v", ErrConnection, err)
	}
	return line, nil
}

func (s *session) close() error {
	return s.conn.Close()
}
