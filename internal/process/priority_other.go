// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

//go:build !unix

package process

// HighPriority is the nice value applied to a running server.
const HighPriority = -10

func setHighPriority(int) error {
	return nil
}
