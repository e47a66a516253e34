// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

/*
Package validation checks admin API request bodies with go-playground/validator v10.

A single validator instance is built on first use and shared; it caches
struct metadata and is safe for concurrent use.

# Custom Tags

  - charname: a Freelancer character name. 1 to 23 runes with no whitespace
    or control characters, since FLHook splits arguments on spaces.
  - singleline: free text for msgu. Control characters are rejected so a
    newline cannot start a second FLHook command.

# Usage

	type RenameRequest struct {
	    From string `json:"from" validate:"required,charname"`
	    To   string `json:"to" validate:"required,charname,nefield=From"`
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
	    apiErr := verr.ToAPIError()
	    // respond 400 with apiErr.Code, apiErr.Message
	}

Failures are reported with code VALIDATION_ERROR. A single failure carries
field, tag and value details; several failures are listed under "fields".
*/
package validation
