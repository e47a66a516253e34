// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

// Player is one connected client as reported by FLHook.
type Player struct {
	ID       int    `json:"id"`
	CharName string `json:"charname"`
	IP       string `json:"ip"`
	Ping     int    `json:"ping"`
	System   string `json:"system"`
}

// ServerInfo is the parsed reply to serverinfo.
type ServerInfo struct {
	Load     int    `json:"load"`
	NPCSpawn bool   `json:"npc_spawn"`
	Uptime   string `json:"uptime"`
}
