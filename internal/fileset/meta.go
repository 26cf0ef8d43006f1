package fileset

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

// Meta is the open-ended metadata bag attached to each virtual file.
// Front matter keys land here unchanged; stages read and write any key.
type Meta map[string]any

// dateLayouts are tried in order when a date is stored as a string.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Merge shallow-copies every key of other into m; other wins on conflicts.
func (m Meta) Merge(other map[string]any) {
	maps.Copy(m, other)
}

// Clone returns a shallow copy of m.
func (m Meta) Clone() Meta {
	if m == nil {
		return Meta{}
	}
	return maps.Clone(m)
}

// String returns the value under key formatted as a string, or "" when absent.
func (m Meta) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns a numeric value under key. YAML decodes integers as int and
// floats as float64; numeric strings are accepted too.
func (m Meta) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// Time returns a date under key. Unquoted YAML dates decode to time.Time,
// quoted ones and event data arrive as strings.
func (m Meta) Time(key string) (time.Time, bool) {
	switch v := m[key].(type) {
	case time.Time:
		return v, true
	case string:
		return ParseDate(v)
	default:
		return time.Time{}, false
	}
}

// ParseDate parses the date formats accepted in front matter and event data.
// Values without a zone are read as UTC, like YAML timestamps.
func ParseDate(s string) (time.Time, bool) {
	return ParseDateIn(s, time.UTC)
}

// ParseDateIn is ParseDate with zone-less values read in loc.
func ParseDateIn(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Strings returns a list value under key. A scalar string is split on commas
// so `category: a, b` and `category: [a, b]` behave the same.
func (m Meta) Strings(key string) []string {
	var out []string
	switch v := m[key].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
	case string:
		out = strings.Split(v, ",")
	default:
		return nil
	}
	res := out[:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			res = append(res, s)
		}
	}
	return res
}
