package compare

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// Operator is a normalized comparison operator
	Operator uint8

	// Comparison is an operator with its negation flag
	Comparison struct {
		Op     Operator
		Negate bool
	}
)

const (
	Equals Operator = iota
	Contains
	OrMore
	OrLess
	More
	Less
	Matches
	IsEmpty
)

var ErrUnknownOperator = errors.New("unknown comparison operator")

var operatorNames = map[string]Operator{
	"==":       Equals,
	"=":        Equals,
	"equals":   Equals,
	"contains": Contains,
	">=":       OrMore,
	"or_more":  OrMore,
	"<=":       OrLess,
	"or_less":  OrLess,
	">":        More,
	"more":     More,
	"<":        Less,
	"less":     Less,
	"matches":  Matches,
	"is_empty": IsEmpty,
}

var operatorLabels = [...]string{
	Equals:   "EQUALS",
	Contains: "CONTAINS",
	OrMore:   "OR_MORE",
	OrLess:   "OR_LESS",
	More:     "MORE",
	Less:     "LESS",
	Matches:  "MATCHES",
	IsEmpty:  "IS_EMPTY",
}

// ParseOperator normalizes an operator token. Symbols and names are both
// accepted, case-insensitively, and a leading ! negates ("!=" is a negated
// EQUALS)
func ParseOperator(token string) (Comparison, error) {
	src := strings.ToLower(token)
	var res Comparison
	if rest, ok := strings.CutPrefix(src, "!"); ok {
		res.Negate = true
		src = rest
		if src == "" || src == "=" {
			src = "=="
		}
	}
	op, ok := operatorNames[src]
	if !ok {
		return Comparison{}, fmt.Errorf("%w: %s", ErrUnknownOperator, token)
	}
	res.Op = op
	return res, nil
}

// IsOperator reports whether token parses as an operator
func IsOperator(token string) bool {
	_, err := ParseOperator(token)
	return err == nil
}

func (o Operator) String() string {
	if int(o) < len(operatorLabels) {
		return operatorLabels[o]
	}
	return "UNKNOWN"
}

func (c Comparison) String() string {
	if c.Negate {
		return "!" + c.Op.String()
	}
	return c.Op.String()
}
