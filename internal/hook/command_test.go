// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/flwarden/internal/config"
)

func okResponder(cmd string) []string { return []string{"OK"} }

func TestCommandClient_Test(t *testing.T) {
	for _, unicode := range []bool{false, true} {
		name := "ascii"
		if unicode {
			name = "utf16"
		}
		t.Run(name, func(t *testing.T) {
			srv := newFakeHook(t, "secret", unicode, okResponder)
			c := NewCommandClient(srv.settings, time.Second)
			defer c.Close()

			if err := c.Test(context.Background()); err != nil {
				t.Fatalf("Test() error = %v", err)
			}
			if c.LastError() != "OK" {
				t.Errorf("LastError() = %q, want OK", c.LastError())
			}
			if !c.Connected() {
				t.Error("session should stay open after success")
			}
			if got := srv.received(); !reflect.DeepEqual(got, []string{"test"}) {
				t.Errorf("commands = %q", got)
			}
		})
	}
}

func TestCommandClient_BadPassword(t *testing.T) {
	srv := newFakeHook(t, "secret", false, okResponder)
	c := NewCommandClient(func() config.HookConfig {
		s := srv.settings()
		s.Password = "wrong"
		return s
	}, time.Second)

	err := c.Test(context.Background())
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("Test() error = %v, want ErrProtocol", err)
	}
	if !strings.Contains(c.LastError(), "no pass ok message") {
		t.Errorf("LastError() = %q", c.LastError())
	}
	if c.Connected() {
		t.Error("failed handshake must not leave a session")
	}
}

func TestCommandClient_Disabled(t *testing.T) {
	c := NewCommandClient(func() config.HookConfig {
		return config.HookConfig{Host: "127.0.0.1", Port: 0}
	}, time.Second)

	if err := c.Kick(context.Background(), "Trent"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Kick() error = %v, want ErrDisabled", err)
	}
	if c.LastError() != "FLHook comms are disabled" {
		t.Errorf("LastError() = %q", c.LastError())
	}
}

func TestCommandClient_ServerInfo(t *testing.T) {
	tests := []struct {
		name    string
		reply   []string
		want    ServerInfo
		wantErr error
	}{
		{
			name:  "valid",
			reply: []string{"serverload=37 npcspawn=enabled uptime=0:01:02:03", "OK"},
			want:  ServerInfo{Load: 37, NPCSpawn: true, Uptime: "0:01:02:03"},
		},
		{
			name:  "npc disabled",
			reply: []string{"serverload=5 npcspawn=disabled uptime=0:00:00:10", "OK"},
			want:  ServerInfo{Load: 5, NPCSpawn: false, Uptime: "0:00:00:10"},
		},
		{
			name:    "wrong first line",
			reply:   []string{"hello", "OK"},
			wantErr: ErrProtocol,
		},
		{
			name:    "wrong key order",
			reply:   []string{"serverload=5 uptime=x npcspawn=enabled", "OK"},
			wantErr: ErrProtocol,
		},
		{
			name:    "missing terminator",
			reply:   []string{"serverload=5 npcspawn=enabled uptime=x", "ERR"},
			wantErr: ErrProtocol,
		},
		{
			name:    "rejected",
			reply:   []string{"ERR not allowed"},
			wantErr: ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeHook(t, "pw", false, func(cmd string) []string { return tt.reply })
			c := NewCommandClient(srv.settings, time.Second)
			defer c.Close()

			got, err := c.ServerInfo(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ServerInfo() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ServerInfo() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ServerInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCommandClient_GetPlayers(t *testing.T) {
	records := []string{
		"charname=Trent clientid=7 ip=10.0.0.9 host=x ping=80 base=Li01_01_Base system=Li01",
		"charname=Juni clientid=12 ip=10.0.0.10 host=y ping=45 base= system=Br01",
	}

	t.Run("OK fills exactly the players listed", func(t *testing.T) {
		srv := newFakeHook(t, "pw", false, func(cmd string) []string {
			return append(append([]string{}, records...), "OK")
		})
		c := NewCommandClient(srv.settings, time.Second)
		defer c.Close()

		into := map[int]Player{99: {ID: 99, CharName: "stale"}}
		if err := c.GetPlayers(context.Background(), into); err != nil {
			t.Fatalf("GetPlayers() error = %v", err)
		}
		want := map[int]Player{
			7:  {ID: 7, CharName: "Trent", IP: "10.0.0.9", Ping: 80, System: "Li01"},
			12: {ID: 12, CharName: "Juni", IP: "10.0.0.10", Ping: 45, System: "Br01"},
		}
		if !reflect.DeepEqual(into, want) {
			t.Errorf("players = %+v, want %+v", into, want)
		}
	})

	t.Run("ERR leaves map untouched", func(t *testing.T) {
		srv := newFakeHook(t, "pw", false, func(cmd string) []string {
			return []string{records[0], "ERR server busy"}
		})
		c := NewCommandClient(srv.settings, time.Second)
		defer c.Close()

		into := map[int]Player{99: {ID: 99, CharName: "stale"}}
		err := c.GetPlayers(context.Background(), into)
		if !errors.Is(err, ErrRejected) {
			t.Fatalf("GetPlayers() error = %v, want ErrRejected", err)
		}
		if len(into) != 1 || into[99].CharName != "stale" {
			t.Errorf("map modified on ERR: %+v", into)
		}
		if c.LastError() != "ERR server busy" {
			t.Errorf("LastError() = %q", c.LastError())
		}
		if !c.Connected() {
			t.Error("ERR reply should keep the session")
		}
	})

	t.Run("malformed record", func(t *testing.T) {
		srv := newFakeHook(t, "pw", false, func(cmd string) []string {
			return []string{"charname=Trent clientid=abc", "OK"}
		})
		c := NewCommandClient(srv.settings, time.Second)

		into := map[int]Player{}
		if err := c.GetPlayers(context.Background(), into); !errors.Is(err, ErrProtocol) {
			t.Fatalf("GetPlayers() error = %v, want ErrProtocol", err)
		}
		if c.Connected() {
			t.Error("protocol error should discard the session")
		}
	})
}

func TestCommandClient_IsOnServer(t *testing.T) {
	tests := []struct {
		name    string
		reply   []string
		want    bool
		wantErr bool
	}{
		{"online", []string{"onserver=yes", "OK"}, true, false},
		{"offline", []string{"onserver=no", "OK"}, false, false},
		{"last value wins", []string{"onserver=yes", "onserver=no", "OK"}, false, false},
		{"error", []string{"ERR char not found"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeHook(t, "pw", false, func(cmd string) []string { return tt.reply })
			c := NewCommandClient(srv.settings, time.Second)
			defer c.Close()

			got, err := c.IsOnServer(context.Background(), "Trent")
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsOnServer() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsOnServer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandClient_SimpleCommands(t *testing.T) {
	srv := newFakeHook(t, "pw", false, func(cmd string) []string {
		if strings.HasPrefix(cmd, "isonserver") {
			return []string{"onserver=yes", "OK"}
		}
		return []string{"OK"}
	})
	c := NewCommandClient(srv.settings, time.Second)
	defer c.Close()
	ctx := context.Background()

	calls := []func() error{
		func() error { return c.Rename(ctx, "Old", "New") },
		func() error { return c.SaveChar(ctx, "Trent") },
		func() error { return c.Kick(ctx, "Trent") },
		func() error { return c.KickByID(ctx, 7) },
		func() error { return c.KickBanByID(ctx, 7) },
		func() error { return c.Unban(ctx, "Trent") },
		func() error { return c.DeleteChar(ctx, "Trent") },
		func() error { return c.Msgu(ctx, "restart soon") },
	}
	for i, call := range calls {
		if err := call(); err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
	}

	want := []string{
		"rename Old New",
		"isonserver Trent",
		"savechar Trent",
		"kick Trent",
		"kick$ 7",
		"kickban$ 7",
		"unban Trent",
		"deletechar Trent",
		"msgu restart soon",
	}
	if got := srv.received(); !reflect.DeepEqual(got, want) {
		t.Errorf("commands =\n%q\nwant\n%q", got, want)
	}
	if srv.accepted.Load() != 1 {
		t.Errorf("accepted %d connections, want 1", srv.accepted.Load())
	}
}

func TestCommandClient_SaveCharOffline(t *testing.T) {
	srv := newFakeHook(t, "pw", false, func(cmd string) []string {
		return []string{"onserver=no", "OK"}
	})
	c := NewCommandClient(srv.settings, time.Second)
	defer c.Close()

	if err := c.SaveChar(context.Background(), "Trent"); !errors.Is(err, ErrRejected) {
		t.Fatalf("SaveChar() error = %v, want ErrRejected", err)
	}
	for _, cmd := range srv.received() {
		if strings.HasPrefix(cmd, "savechar") {
			t.Error("savechar sent for offline player")
		}
	}
}

func TestCommandClient_BanKickIsBestEffort(t *testing.T) {
	srv := newFakeHook(t, "pw", false, func(cmd string) []string {
		switch {
		case strings.HasPrefix(cmd, "isonserver"):
			return []string{"onserver=yes", "OK"}
		case strings.HasPrefix(cmd, "kick "):
			return []string{"ERR kick failed"}
		}
		return []string{"OK"}
	})
	c := NewCommandClient(srv.settings, time.Second)
	defer c.Close()

	if err := c.Ban(context.Background(), "Trent"); err != nil {
		t.Fatalf("Ban() error = %v", err)
	}
	want := []string{"isonserver Trent", "kick Trent", "ban Trent"}
	if got := srv.received(); !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %q, want %q", got, want)
	}
}

func TestCommandClient_RejectedKeepsSession(t *testing.T) {
	srv := newFakeHook(t, "pw", false, func(cmd string) []string {
		return []string{"ERR player not found"}
	})
	c := NewCommandClient(srv.settings, time.Second)
	defer c.Close()

	for i := 0; i < 2; i++ {
		if err := c.Kick(context.Background(), "Ghost"); !errors.Is(err, ErrRejected) {
			t.Fatalf("Kick() error = %v, want ErrRejected", err)
		}
	}
	if c.LastError() != "ERR player not found" {
		t.Errorf("LastError() = %q", c.LastError())
	}
	if srv.accepted.Load() != 1 {
		t.Errorf("accepted %d connections, want 1", srv.accepted.Load())
	}
}

func TestCommandClient_TimeoutTearsDown(t *testing.T) {
	var silent atomic.Bool
	silent.Store(true)
	srv := newFakeHook(t, "pw", false, func(cmd string) []string {
		if silent.Load() {
			return nil
		}
		return []string{"OK"}
	})
	c := NewCommandClient(srv.settings, 100*time.Millisecond)
	defer c.Close()

	if err := c.Test(context.Background()); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Test() error = %v, want ErrTimeout", err)
	}
	if c.Connected() {
		t.Error("timeout must discard the session")
	}

	silent.Store(false)
	if err := c.Test(context.Background()); err != nil {
		t.Fatalf("Test() after timeout error = %v", err)
	}
	if srv.accepted.Load() != 2 {
		t.Errorf("accepted %d connections, want fresh handshake", srv.accepted.Load())
	}
}

func TestCommandClient_SettingsChangeReconnects(t *testing.T) {
	srv := newFakeHook(t, "pw", false, okResponder)

	var unicodeFlag atomic.Bool
	c := NewCommandClient(func() config.HookConfig {
		s := srv.settings()
		s.Unicode = unicodeFlag.Load()
		return s
	}, time.Second)
	defer c.Close()

	if err := c.Test(context.Background()); err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if err := c.Test(context.Background()); err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if srv.accepted.Load() != 1 {
		t.Fatalf("accepted %d, want 1 while settings unchanged", srv.accepted.Load())
	}

	// The fake speaks ASCII only, so the unicode handshake fails, but the old
	// session must have been dropped and a new dial attempted.
	unicodeFlag.Store(true)
	_ = c.Test(context.Background())
	if srv.accepted.Load() != 2 {
		t.Errorf("accepted %d, want a new connection after settings change", srv.accepted.Load())
	}
}

func TestCommandClient_DialFailure(t *testing.T) {
	srv := newFakeHook(t, "pw", false, okResponder)
	settings := srv.settings()
	srv.close()

	c := NewCommandClient(func() config.HookConfig { return settings }, 200*time.Millisecond)
	if err := c.Test(context.Background()); !errors.Is(err, ErrConnection) {
		t.Fatalf("Test() error = %v, want ErrConnection", err)
	}
	if c.LastError() == "" || c.LastError() == "OK" {
		t.Errorf("LastError() = %q, want descriptive error", c.LastError())
	}
}
