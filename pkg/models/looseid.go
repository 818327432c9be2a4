package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// LooseID is an identifier kept exactly as it was written, either a JSON
// number or a JSON string. Comparison goes through the string form, so the
// number 1 and the string "1" are equal.
type LooseID struct {
	raw json.RawMessage
}

// StringID wraps a string identifier, e.g. a submitted form value.
func StringID(s string) LooseID {
	b, _ := json.Marshal(s)
	return LooseID{raw: b}
}

// String returns the identifier's textual form. Numbers are printed in their
// shortest form so 1.0 and 1 compare equal.
func (id LooseID) String() string {
	if len(id.raw) == 0 {
		return ""
	}
	switch id.raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(id.raw, &s); err == nil {
			return s
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if f, err := strconv.ParseFloat(string(id.raw), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return string(id.raw)
}

// Equal compares two identifiers by their string form.
func (id LooseID) Equal(other LooseID) bool {
	return id.String() == other.String()
}

func (id LooseID) MarshalJSON() ([]byte, error) {
	if len(id.raw) == 0 {
		return []byte("null"), nil
	}
	return id.raw, nil
}

func (id *LooseID) UnmarshalJSON(b []byte) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return fmt.Errorf("invalid identifier: %w", err)
	}
	switch buf.Bytes()[0] {
	case '{', '[':
		return fmt.Errorf("invalid identifier: %s", buf.String())
	}
	if buf.String() == "null" {
		id.raw = nil
		return nil
	}
	id.raw = buf.Bytes()
	return nil
}
