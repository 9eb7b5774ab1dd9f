package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The service is loose with field types: booleans arrive as JSON booleans,
// numbers, or strings, and id lists arrive as arrays or comma-joined
// strings. Each coercion lives here, at the deserialization boundary, so
// the rest of the engine only ever sees normalized types.

// Flag is a boolean that tolerates true/false, 1/0, and "1"/"0" wire forms.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler for Flag.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")):
		*f = true
		return nil
	case bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("null")):
		*f = false
		return nil
	}
	if n, err := strconv.ParseFloat(string(data), 64); err == nil {
		*f = n != 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cannot interpret %s as boolean", data)
	}
	s = strings.TrimSpace(s)
	switch s {
	case "", "0", "false":
		*f = false
	default:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			*f = n != 0
		} else {
			*f = true
		}
	}
	return nil
}

// Bool returns the normalized value.
func (f Flag) Bool() bool {
	return bool(f)
}

// IDList is a list of remote ids that tolerates both a JSON array (of
// numbers or numeric strings) and a single comma-joined string, which is
// how the list endpoint delivers delete_ids on some responses.
type IDList []int64

// UnmarshalJSON implements json.Unmarshaler for IDList.
func (l *IDList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(IDList, 0, len(raw))
		for _, item := range raw {
			id, err := coerceID(item)
			if err != nil {
				return err
			}
			out = append(out, id)
		}
		*l = out
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cannot interpret %s as id list", data)
	}
	*l = nil
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue // tolerates trailing commas
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q in list", part)
		}
		*l = append(*l, id)
	}
	return nil
}

// coerceID accepts a JSON number or a numeric string.
func coerceID(data json.RawMessage) (int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("invalid id %s", data)
	}
	return n, nil
}
