package settings

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Snapshot is an immutable copy of the platform settings at one point in time.
// Workflows receive it as an argument instead of reading shared state.
type Snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

// NewSnapshot copies values into a new Snapshot.
func NewSnapshot(updatedAt time.Time, values map[string]json.RawMessage) Snapshot {
	next := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		if v == nil {
			next[key] = nil
			continue
		}
		copied := make([]byte, len(v))
		copy(copied, v)
		next[key] = copied
	}
	return Snapshot{updatedAt: updatedAt.UTC(), values: next}
}

// UpdatedAt returns the newest update time among the loaded settings.
func (s Snapshot) UpdatedAt() time.Time { return s.updatedAt }

// Raw returns a copy of the raw JSON value for key.
func (s Snapshot) Raw(key string) (json.RawMessage, bool) {
	val, ok := s.values[strings.TrimSpace(key)]
	if !ok || val == nil {
		return nil, ok
	}
	copied := make([]byte, len(val))
	copy(copied, val)
	return copied, true
}

// Keys returns every key present in the snapshot.
func (s Snapshot) Keys() []string {
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	return out
}

// String returns the setting as a trimmed string, or def when absent or empty.
func (s Snapshot) String(key, def string) string {
	raw, ok := s.Raw(key)
	if !ok {
		return def
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return def
	}
	var str string
	if errUnmarshal := json.Unmarshal(raw, &str); errUnmarshal == nil {
		if trimmed := strings.TrimSpace(str); trimmed != "" {
			return trimmed
		}
		return def
	}
	// Numbers and booleans stored unquoted.
	return strings.TrimSpace(string(raw))
}

// Bool returns the setting as a boolean, or def when absent or unparsable.
func (s Snapshot) Bool(key string, def bool) bool {
	raw, ok := s.Raw(key)
	if !ok {
		return def
	}
	var b bool
	if errUnmarshal := json.Unmarshal(raw, &b); errUnmarshal == nil {
		return b
	}
	parsed, errParse := strconv.ParseBool(s.String(key, ""))
	if errParse != nil {
		return def
	}
	return parsed
}

// Int returns the setting as an integer, or def when absent or unparsable.
func (s Snapshot) Int(key string, def int) int {
	raw, ok := s.Raw(key)
	if !ok {
		return def
	}
	if n, okParse := parseInt(raw); okParse {
		return n
	}
	return def
}

func parseInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if errUnmarshal := json.Unmarshal(raw, &f); errUnmarshal == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	var str string
	if errUnmarshal := json.Unmarshal(raw, &str); errUnmarshal == nil {
		if parsed, errParse := strconv.Atoi(strings.TrimSpace(str)); errParse == nil {
			return parsed, true
		}
	}
	return 0, false
}
