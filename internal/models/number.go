package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Number is a model-reported indicator reading kept exactly as the model wrote
// it. Any JSON value decodes without error, so "N/A" or 20.5 where an integer
// was expected survive instead of failing the whole analysis.
type Number struct {
	raw json.RawMessage
}

// NewNumber wraps a float as a Number
func NewNumber(v float64) Number {
	return Number{raw: json.RawMessage(strconv.FormatFloat(v, 'f', -1, 64))}
}

// Float64 returns the reading when the model wrote a JSON number
func (n Number) Float64() (float64, bool) {
	if len(n.raw) == 0 {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(n.raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

// IsZero reports whether the model omitted the reading or sent null
func (n Number) IsZero() bool {
	return len(n.raw) == 0
}

// String renders the reading for display. Strings are unquoted and a missing
// reading is NotAvailable.
func (n Number) String() string {
	if n.IsZero() {
		return NotAvailable
	}
	if v, ok := n.Float64(); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	var s string
	if err := json.Unmarshal(n.raw, &s); err == nil {
		if s == "" {
			return NotAvailable
		}
		return s
	}
	return string(n.raw)
}

// MarshalJSON re-emits the raw value, or null when there is none
func (n Number) MarshalJSON() ([]byte, error) {
	if n.IsZero() {
		return []byte("null"), nil
	}
	return n.raw, nil
}

// UnmarshalJSON keeps a copy of data verbatim. null leaves the Number empty.
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		n.raw = nil
		return nil
	}
	n.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}
