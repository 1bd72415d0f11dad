// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrNotNumber is returned when a value is neither a JSON number nor a
// string holding one.
var ErrNotNumber = errors.New("not a number")

// FlexFloat decodes either a JSON number or a numeric string. Set reports
// whether the field was present and non-null.
//
// Example:
//
//	{"area": 1200}    -> Value 1200
//	{"area": "1200"}  -> Value 1200
//	{"area": "large"} -> ErrNotNumber
type FlexFloat struct {
	Value float64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	raw, null, err := numberText(b)
	if err != nil || null {
		return err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ErrNotNumber
	}
	f.Value, f.Set = v, true
	return nil
}

// FlexInt is the integer counterpart of FlexFloat.
type FlexInt struct {
	Value int
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(b []byte) error {
	raw, null, err := numberText(b)
	if err != nil || null {
		return err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return ErrNotNumber
	}
	n.Value, n.Set = v, true
	return nil
}

// numberText extracts the textual number from a JSON number or string.
func numberText(b []byte) (string, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", true, nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false, ErrNotNumber
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", true, nil
		}
		return s, false, nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return "", false, ErrNotNumber
	}
	return num.String(), false, nil
}

// OptionalFloat parses a query or form value. Empty input yields nil.
func OptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrNotNumber
	}
	return &v, nil
}

// OptionalInt parses a query or form value. Empty input yields nil.
func OptionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, ErrNotNumber
	}
	return &v, nil
}
