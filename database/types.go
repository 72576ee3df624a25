package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text is opaque text the backend never interprets. A JSON string decodes to its
// value; any other JSON value is kept as its raw encoding.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*t = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(trimmed)
	}
	return nil
}

// List is comma-separated text. A JSON string is stored verbatim, a JSON array of
// strings is joined with commas.
type List string

func (l *List) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*l = ""
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("list: %w", err)
		}
		*l = List(strings.Join(items, ","))
	default:
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("list: %w", err)
		}
		*l = List(s)
	}
	return nil
}

// Items splits the list, dropping blank entries.
func (l List) Items() []string {
	out := make([]string, 0)
	for _, item := range strings.Split(string(l), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LooseID is a record id that may arrive as a JSON number or a numeric string.
type LooseID uint64

func (id *LooseID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = 0
		return nil
	}
	text := string(trimmed)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			*id = 0
			return nil
		}
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return fmt.Errorf("id: invalid value %s", trimmed)
	}
	*id = LooseID(v)
	return nil
}
