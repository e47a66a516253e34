// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package api

// MaxBroadcastLength bounds msgu text.
const MaxBroadcastLength = 200

// CharRequest names a character for ban and unban.
type CharRequest struct {
	Name string `json:"name" validate:"required,charname"`
}

// RenameRequest renames a character.
type RenameRequest struct {
	From string `json:"from" validate:"required,charname"`
	To   string `json:"to" validate:"required,charname,nefield=From"`
}

// BroadcastRequest sends a universe-wide message.
type BroadcastRequest struct {
	Text string `json:"text" validate:"required,singleline,max=200"`
}

// playerIDParam is the {id} path segment of kick routes.
type playerIDParam struct {
	ID int `validate:"gte=0"`
}

// statsQuery is the query of GET /stats.
type statsQuery struct {
	Limit int `validate:"min=1,max=3600"`
}
