// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package types

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Int is an integer read from a page attribute or form value.
// Parsing follows the browser's parseInt: a value without leading digits is
// NaN, which goes out as null in JSON bodies and as "NaN" in query strings.
type Int struct {
	Value int64
	Valid bool
}

// NaN is the result of parsing a value without leading digits.
var NaN = Int{}

// IntOf wraps a known integer.
func IntOf(v int64) Int {
	return Int{Value: v, Valid: true}
}

// ParseInt parses s like parseInt(s) without a radix: leading whitespace is
// skipped, a sign is accepted, "0x" switches to hex and everything after the
// leading digits is ignored.
func ParseInt(s string) Int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg, s := sign(s)

	base := 10
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}
	return parseDigits(s, base, neg)
}

// ParseDecimal parses s like parseInt(s, 10).
func ParseDecimal(s string) Int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg, s := sign(s)
	return parseDigits(s, 10, neg)
}

func sign(s string) (bool, string) {
	if s == "" {
		return false, s
	}
	switch s[0] {
	case '-':
		return true, s[1:]
	case '+':
		return false, s[1:]
	}
	return false, s
}

func parseDigits(s string, base int, neg bool) Int {
	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return NaN
	}

	v, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		// out of int64 range; ids never get there
		return NaN
	}
	if neg {
		v = -v
	}
	return IntOf(v)
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// String renders the value the way string concatenation does in the page.
func (i Int) String() string {
	if !i.Valid {
		return "NaN"
	}
	return strconv.FormatInt(i.Value, 10)
}

func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(i.Value, 10)), nil
}

func (i *Int) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*i = NaN
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*i = IntOf(v)
	return nil
}
