// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package hook

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf16le is the FLHook unicode socket encoding.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// codec frames lines in either 7-bit ASCII or UTF-16LE.
type codec struct {
	unicode bool
}

// encode returns line plus the '\n' terminator in wire form.
func (c codec) encode(line string) ([]byte, error) {
	line += "\n"
	if c.unicode {
		return utf16le.NewEncoder().Bytes([]byte(line))
	}
	return []byte(toASCII(line)), nil
}

// newReader wraps r in a line reader that decodes the wire encoding.
func (c codec) newReader(r io.Reader) *bufio.Reader {
	if c.unicode {
		return bufio.NewReader(transform.NewReader(r, utf16le.NewDecoder()))
	}
	return bufio.NewReader(r)
}

// readLine returns the next line without its "\r\n" or "\n" terminator.
// A line is returned as soon as its '\n' has been decoded.
func (c codec) readLine(r *bufio.Reader) (string, error) {
	s, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	if !c.unicode {
		s = toASCII(s)
	}
	return s, nil
}

// toASCII replaces every non-ASCII rune or byte with '?'.
func toASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return strings.Map(func(r rune) rune {
				if r >= 0x80 {
					return '?'
				}
				return r
			}, s)
		}
	}
	return s
}
