// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

import "strings"

// Line is one parsed FLHook reply or event line.
//
// Keys, Values and HasEq are parallel. A bare token yields its text as the
// key, an empty value and HasEq false; "base=" yields HasEq true. Type is the
// first key.
type Line struct {
	Type   string
	Keys   []string
	Values []string
	HasEq  []bool
	Raw    string
}

// ParseLine splits raw on single spaces into key=value tokens. Each token is
// split at its first '='. Empty tokens from repeated spaces are kept as bare
// empty keys so that String reproduces raw exactly.
func ParseLine(raw string) Line {
	tokens := strings.Split(raw, " ")
	l := Line{
		Keys:   make([]string, len(tokens)),
		Values: make([]string, len(tokens)),
		HasEq:  make([]bool, len(tokens)),
		Raw:    raw,
	}
	for i, tok := range tokens {
		if k, v, ok := strings.Cut(tok, "="); ok {
			l.Keys[i], l.Values[i], l.HasEq[i] = k, v, true
		} else {
			l.Keys[i] = tok
		}
	}
	l.Type = l.Keys[0]
	return l
}

// Value returns Values[i] or "" when i is out of range.
func (l Line) Value(i int) string {
	if i < 0 || i >= len(l.Values) {
		return ""
	}
	return l.Values[i]
}

// Get returns the value of the first token with key.
func (l Line) Get(key string) (string, bool) {
	for i, k := range l.Keys {
		if k == key {
			return l.Values[i], true
		}
	}
	return "", false
}

// String re-joins the tokens. For a parsed line it equals Raw.
func (l Line) String() string {
	var b strings.Builder
	for i, k := range l.Keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		if l.hasEq(i) {
			b.WriteByte('=')
			b.WriteString(l.Values[i])
		}
	}
	return b.String()
}

func (l Line) hasEq(i int) bool {
	if i < len(l.HasEq) {
		return l.HasEq[i]
	}
	return l.Values[i] != ""
}

// TextAfter returns the substring of Raw following marker, or "".
func (l Line) TextAfter(marker string) string {
	if _, after, ok := strings.Cut(l.Raw, marker); ok {
		return after
	}
	return ""
}
