// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/flwarden/internal/config"
)

// fakeHook is a loopback FLHook admin socket.
type fakeHook struct {
	t        *testing.T
	ln       net.Listener
	password string
	unicode  bool

	// respond returns the reply lines for one command. nil means no reply.
	respond func(cmd string) []string

	// afterAuth, when set, takes over the connection after a successful login.
	afterAuth func(fc *fakeConn)

	accepted atomic.Int32

	mu       sync.Mutex
	commands []string
	conns    []net.Conn
}

type fakeConn struct {
	conn  net.Conn
	r     *bufio.Reader
	codec codec
}

func (fc *fakeConn) send(lines ...string) error {
	for _, l := range lines {
		buf, err := fc.codec.encode(l)
		if err != nil {
			return err
		}
		if _, err := fc.conn.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func (fc *fakeConn) recv() (string, error) {
	return fc.codec.readLine(fc.r)
}

func newFakeHook(t *testing.T, password string, unicode bool, respond func(cmd string) []string) *fakeHook {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeHook{t: t, ln: ln, password: password, unicode: unicode, respond: respond}
	go f.serve()
	t.Cleanup(f.close)
	return f
}

func (f *fakeHook) settings() config.HookConfig {
	return config.HookConfig{
		Host:     "127.0.0.1",
		Port:     f.ln.Addr().(*net.TCPAddr).Port,
		Password: f.password,
		Unicode:  f.unicode,
	}
}

func (f *fakeHook) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.accepted.Add(1)
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()
		go f.handle(conn)
	}
}

func (f *fakeHook) handle(conn net.Conn) {
	defer conn.Close()
	c := codec{unicode: f.unicode}
	fc := &fakeConn{conn: conn, r: c.newReader(conn), codec: c}

	if err := fc.send(Banner); err != nil {
		return
	}
	pass, err := fc.recv()
	if err != nil {
		return
	}
	if pass != "pass "+f.password {
		_ = fc.send("ERR invalid password")
		return
	}
	if err := fc.send("OK"); err != nil {
		return
	}

	if f.afterAuth != nil {
		f.afterAuth(fc)
		return
	}

	for {
		cmd, err := fc.recv()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.commands = append(f.commands, cmd)
		f.mu.Unlock()

		if reply := f.respond(cmd); reply != nil {
			if err := fc.send(reply...); err != nil {
				return
			}
		}
	}
}

func (f *fakeHook) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *fakeHook) close() {
	_ = f.ln.Close()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		_ = c.Close()
	}
}
