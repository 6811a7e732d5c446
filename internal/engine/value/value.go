// Package value implements the minimal typed-value coercions the runtime
// core needs: booleans, numbers, lists, and durations. Every value travels
// through the core as a string; this package decides how to read one
package value

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind is the resolved family of a string value
type Kind uint8

const (
	String Kind = iota
	Number
	Boolean
	List
)

// legacyListPrefix marks pipe-separated list literals
const legacyListPrefix = "li@"

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case List:
		return "list"
	default:
		return "string"
	}
}

// KindOf classifies a resolved value
func KindOf(s string) Kind {
	if _, ok := ParseNumber(s); ok {
		return Number
	}
	if IsBool(s) {
		return Boolean
	}
	if _, ok := ParseList(s); ok {
		return List
	}
	return String
}

// IsBool reports whether s is a boolean literal
func IsBool(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

// AsBool interprets s as a boolean: only a case-insensitive "true" is true
func AsBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// FormatBool renders a boolean the way AsBool reads it back
func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}

// ParseNumber reads a finite decimal number
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseInt reads an integral number
func ParseInt(s string) (int, bool) {
	f, ok := ParseNumber(s)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// FormatNumber renders a number without a trailing fraction when integral
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseList reads an explicit list value: a JSON array or an li@ literal
func ParseList(s string) ([]string, bool) {
	if rest, ok := strings.CutPrefix(s, legacyListPrefix); ok {
		return splitPipes(rest), true
	}
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") || !gjson.Valid(trimmed) {
		return nil, false
	}
	res := gjson.Parse(trimmed)
	if !res.IsArray() {
		return nil, false
	}
	items := res.Array()
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.String()
	}
	return out, true
}

// SplitList reads any list-like value: explicit lists first, then a bare
// pipe-separated string. An empty string is an empty list
func SplitList(s string) []string {
	if items, ok := ParseList(s); ok {
		return items
	}
	if s == "" {
		return nil
	}
	return splitPipes(s)
}

// FormatList renders the canonical form of a list
func FormatList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ParseMap reads a JSON object, preserving key order
func ParseMap(s string) (keys, values []string, ok bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return nil, nil, false
	}
	res := gjson.Parse(trimmed)
	if !res.IsObject() {
		return nil, nil, false
	}
	res.ForEach(func(k, v gjson.Result) bool {
		keys = append(keys, k.String())
		values = append(values, v.String())
		return true
	})
	return keys, values, true
}

// Canonical renders any value in the form used for equality of lists
func Canonical(s string) string {
	if items, ok := ParseList(s); ok {
		return FormatList(items)
	}
	return s
}

func splitPipes(s string) []string {
	parts := strings.Split(s, "|")
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}
