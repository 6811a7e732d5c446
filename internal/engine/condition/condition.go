// Package condition evaluates the flat boolean token lists used by if,
// while, and waituntil
package condition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kode4food/runq/internal/engine/compare"
	"github.com/kode4food/runq/internal/engine/value"
)

type (
	// Resolver substitutes tags within a single token
	Resolver func(token string) string

	// Evaluator turns token lists into booleans. It holds no per-call
	// state and may be shared freely
	Evaluator struct {
		cmp *compare.Comparator
	}

	// term is either a plain token or a collapsed parenthesized group.
	// Groups stay unevaluated until an operator actually needs them
	term struct {
		token  string
		group  []term
		negate bool
		nested bool
	}
)

const (
	tokenOr       = "||"
	tokenAnd      = "&&"
	tokenOpen     = "("
	tokenNotOpen  = "!("
	tokenClose    = ")"
	tokenNegation = "!"
)

var (
	ErrUnmatchedParens = errors.New("unmatched parentheses")
	ErrMixedOperators  = errors.New("mixed && and || must be parenthesized")
	ErrMalformed       = errors.New("malformed condition")
)

// New creates an Evaluator backed by the given comparator
func New(cmp *compare.Comparator) *Evaluator {
	return &Evaluator{cmp: cmp}
}

// Evaluate resolves tokens to a boolean. Any ambiguity or malformed input
// evaluates to false, and the returned error describes why
func (e *Evaluator) Evaluate(tokens []string, resolve Resolver) (bool, error) {
	if len(tokens) == 0 {
		return false, nil
	}
	terms, err := collapse(tokens)
	if err != nil {
		return false, err
	}
	return e.eval(terms, resolve)
}

func (e *Evaluator) eval(terms []term, resolve Resolver) (bool, error) {
	switch len(terms) {
	case 0:
		return false, ErrMalformed
	case 1:
		return e.single(terms[0], resolve)
	}

	or := indexOf(terms, tokenOr)
	and := indexOf(terms, tokenAnd)
	if or >= 0 && and >= 0 {
		return false, ErrMixedOperators
	}
	if or >= 0 {
		return e.split(terms, or, true, resolve)
	}
	if and >= 0 {
		return e.split(terms, and, false, resolve)
	}

	if len(terms) != 3 {
		return false, fmt.Errorf("%w: %s", ErrMalformed, render(terms))
	}
	return e.comparison(terms, resolve)
}

// split evaluates the left side of the operator at idx and only evaluates
// the right side when the left side does not decide the result
func (e *Evaluator) split(
	terms []term, idx int, or bool, resolve Resolver,
) (bool, error) {
	left, err := e.eval(terms[:idx], resolve)
	if err != nil {
		return false, err
	}
	if left == or {
		return left, nil
	}
	return e.eval(terms[idx+1:], resolve)
}

func (e *Evaluator) single(t term, resolve Resolver) (bool, error) {
	if t.nested {
		res, err := e.eval(t.group, resolve)
		if err != nil {
			return false, err
		}
		return res != t.negate, nil
	}
	token, negate := strings.CutPrefix(t.token, tokenNegation)
	return value.AsBool(resolve(token)) != negate, nil
}

func (e *Evaluator) comparison(terms []term, resolve Resolver) (bool, error) {
	if terms[1].nested {
		return false, fmt.Errorf("%w: %s", ErrMalformed, render(terms))
	}
	cmp, err := compare.ParseOperator(terms[1].token)
	if err != nil {
		return false, err
	}
	left, err := e.operand(terms[0], resolve)
	if err != nil {
		return false, err
	}
	right, err := e.operand(terms[2], resolve)
	if err != nil {
		return false, err
	}
	return e.cmp.Compare(cmp, left, right), nil
}

func (e *Evaluator) operand(t term, resolve Resolver) (string, error) {
	if !t.nested {
		return resolve(t.token), nil
	}
	res, err := e.single(t, resolve)
	if err != nil {
		return "", err
	}
	return value.FormatBool(res), nil
}

// collapse folds every parenthesized run of tokens into a single term
func collapse(tokens []string) ([]term, error) {
	type frame struct {
		terms  []term
		negate bool
	}
	stack := []frame{{}}
	for _, tok := range tokens {
		switch tok {
		case tokenOpen, tokenNotOpen:
			stack = append(stack, frame{negate: tok == tokenNotOpen})
		case tokenClose:
			if len(stack) == 1 {
				return nil, ErrUnmatchedParens
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := &stack[len(stack)-1]
			parent.terms = append(parent.terms, term{
				group:  top.terms,
				negate: top.negate,
				nested: true,
			})
		default:
			top := &stack[len(stack)-1]
			top.terms = append(top.terms, term{token: tok})
		}
	}
	if len(stack) != 1 {
		return nil, ErrUnmatchedParens
	}
	return stack[0].terms, nil
}

func indexOf(terms []term, op string) int {
	for i, t := range terms {
		if !t.nested && t.token == op {
			return i
		}
	}
	return -1
}

func render(terms []term) string {
	var sb strings.Builder
	for i, t := range terms {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if !t.nested {
			sb.WriteString(t.token)
			continue
		}
		if t.negate {
			sb.WriteString(tokenNotOpen)
		} else {
			sb.WriteString(tokenOpen)
		}
		sb.WriteString(" ")
		sb.WriteString(render(t.group))
		sb.WriteString(" ")
		sb.WriteString(tokenClose)
	}
	return sb.String()
}
