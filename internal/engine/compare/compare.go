// Package compare implements the typed comparator shared by conditional,
// loop-guard and poll-until commands. Every function here is pure
package compare

import (
	"strings"

	"github.com/kode4food/runq/internal/engine/value"
)

// Matcher is a host-supplied fallback for MATCHES. It reports whether it
// recognized typeName and, if so, whether v matches it
type Matcher func(v, typeName string) (matched, known bool)

// Comparator evaluates comparisons between two resolved values
type Comparator struct {
	fallback Matcher
}

var typePredicates = map[string]func(string) bool{
	"integer": func(s string) bool {
		_, ok := value.ParseInt(s)
		return ok
	},
	"decimal": isNumber,
	"number":  isNumber,
	"boolean": value.IsBool,
	"list": func(s string) bool {
		_, ok := value.ParseList(s)
		return ok
	},
	"map": func(s string) bool {
		_, _, ok := value.ParseMap(s)
		return ok
	},
	"duration": func(s string) bool {
		_, err := value.ParseDuration(s, 0)
		return err == nil
	},
	"even": func(s string) bool {
		n, ok := value.ParseInt(s)
		return ok && n%2 == 0
	},
	"odd": func(s string) bool {
		n, ok := value.ParseInt(s)
		return ok && n%2 != 0
	},
}

// New returns a Comparator; fallback may be nil
func New(fallback Matcher) *Comparator {
	return &Comparator{fallback: fallback}
}

// Compare applies cmp to left and right, including negation
func (c *Comparator) Compare(cmp Comparison, left, right string) bool {
	return c.compare(cmp.Op, left, right) != cmp.Negate
}

func (c *Comparator) compare(op Operator, left, right string) bool {
	switch op {
	case Matches:
		return c.matches(left, right)
	case IsEmpty:
		return isEmpty(left)
	}

	switch value.KindOf(left) {
	case value.Number:
		if res, ok := compareNumbers(op, left, right); ok {
			return res
		}
	case value.List:
		items, _ := value.ParseList(left)
		return compareList(op, items, right)
	case value.Boolean:
		if op == Equals {
			return value.IsBool(right) &&
				value.AsBool(left) == value.AsBool(right)
		}
		return false
	}
	return compareStrings(op, left, right)
}

func (c *Comparator) matches(v, typeName string) bool {
	name := strings.ToLower(strings.TrimSpace(typeName))
	if pred, ok := typePredicates[name]; ok {
		return pred(v)
	}
	if c.fallback != nil {
		if res, known := c.fallback(v, name); known {
			return res
		}
	}
	return false
}

func compareNumbers(op Operator, left, right string) (bool, bool) {
	l, _ := value.ParseNumber(left)
	r, ok := value.ParseNumber(right)
	switch op {
	case Equals:
		return ok && l == r, true
	case OrMore:
		return ok && l >= r, true
	case OrLess:
		return ok && l <= r, true
	case More:
		return ok && l > r, true
	case Less:
		return ok && l < r, true
	default:
		return false, false
	}
}

func compareList(op Operator, items []string, right string) bool {
	switch op {
	case Contains:
		for _, item := range items {
			if strings.EqualFold(item, right) {
				return true
			}
		}
		return false
	case Equals:
		return value.FormatList(items) == value.Canonical(right)
	case OrMore, OrLess, More, Less:
		size := value.FormatNumber(float64(len(items)))
		res, _ := compareNumbers(op, size, right)
		return res
	default:
		return false
	}
}

func compareStrings(op Operator, left, right string) bool {
	switch op {
	case Equals:
		return strings.EqualFold(left, right)
	case Contains:
		return strings.Contains(strings.ToLower(left), strings.ToLower(right))
	default:
		return false
	}
}

func isNumber(s string) bool {
	_, ok := value.ParseNumber(s)
	return ok
}

func isEmpty(s string) bool {
	if items, ok := value.ParseList(s); ok {
		return len(items) == 0
	}
	return s == ""
}
