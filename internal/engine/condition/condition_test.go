package condition_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/runq/internal/engine/compare"
	"github.com/kode4food/runq/internal/engine/condition"
)

func identity(s string) string { return s }

func eval(t *testing.T, src string) (bool, error) {
	t.Helper()
	ev := condition.New(compare.New(nil))
	return ev.Evaluate(strings.Fields(src), identity)
}

func TestEvaluateLiterals(t *testing.T) {
	cases := map[string]bool{
		"":                      false,
		"true":                  true,
		"TRUE":                  true,
		"false":                 false,
		"yes":                   false,
		"!false":                true,
		"!true":                 false,
		"true && true":          true,
		"true && false":         false,
		"false || true":         true,
		"false || false":        false,
		"true && true && false": false,
		"false || false || true": true,
		"( true )":              true,
		"!( true )":             false,
		"!( false && true )":    true,
		"( true || false ) && ( false || true )": true,
		"( true && false ) || ( !false && true )": true,
		"( ( true ) && ( false ) ) || false":     false,
	}
	for src, want := range cases {
		got, err := eval(t, src)
		assert.NoError(t, err, src)
		assert.Equal(t, want, got, src)
	}
}

func TestEvaluateBooleanAlgebra(t *testing.T) {
	bools := []bool{false, true}
	str := func(b bool) string {
		if b {
			return "true"
		}
		return "false"
	}
	for _, a := range bools {
		for _, b := range bools {
			for _, c := range bools {
				forms := map[string]bool{
					str(a) + " && " + str(b) + " && " + str(c): a && b && c,
					str(a) + " || " + str(b) + " || " + str(c): a || b || c,
					str(a) + " && ( " + str(b) + " || " + str(c) + " )": a && (b || c),
					"( " + str(a) + " && " + str(b) + " ) || " + str(c): a && b || c,
					"!( " + str(a) + " || " + str(b) + " ) && " + str(c): !(a || b) && c,
					str(a) + " || !( " + str(b) + " && " + str(c) + " )": a || !(b && c),
				}
				for src, want := range forms {
					got, err := eval(t, src)
					assert.NoError(t, err, src)
					assert.Equal(t, want, got, src)
				}
			}
		}
	}
}

func TestEvaluateComparisons(t *testing.T) {
	cases := map[string]bool{
		"5 > 3":                   true,
		"5 < 3":                   false,
		"3 >= 3":                  true,
		"3 <= 2":                  false,
		"3 == 3":                  true,
		"3 != 3":                  false,
		"3 != 4":                  true,
		"( 5 > 3 ) || ( 1 > 2 )":  true,
		"( 5 > 3 ) && ( 1 > 2 )":  false,
		"5 > 3 && 2 > 1":          true,
		"abc equals ABC":          true,
		"( 1 > 2 ) == false":      true,
	}
	for src, want := range cases {
		got, err := eval(t, src)
		assert.NoError(t, err, src)
		assert.Equal(t, want, got, src)
	}
}

func TestEvaluateMalformed(t *testing.T) {
	cases := map[string]error{
		"( true":                condition.ErrUnmatchedParens,
		"true )":                condition.ErrUnmatchedParens,
		"true && false || true": condition.ErrMixedOperators,
		"5 >":                   condition.ErrMalformed,
		"1 2 3 4":               condition.ErrMalformed,
		"true &&":               condition.ErrMalformed,
		"1 ~~ 2":                compare.ErrUnknownOperator,
	}
	for src, want := range cases {
		got, err := eval(t, src)
		assert.False(t, got, src)
		assert.ErrorIs(t, err, want, src)
	}
}

func TestEvaluateShortCircuit(t *testing.T) {
	var touched []string
	resolve := func(tok string) string {
		if strings.HasPrefix(tok, "<side") {
			touched = append(touched, tok)
			return "1"
		}
		return tok
	}
	ev := condition.New(compare.New(nil))

	ok, err := ev.Evaluate(
		strings.Fields("( 5 > 3 ) || ( <side1> > 2 )"), resolve,
	)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, touched)

	ok, err = ev.Evaluate(
		strings.Fields("( 1 > 3 ) && ( <side2> > 2 )"), resolve,
	)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, touched)

	ok, err = ev.Evaluate(
		strings.Fields("( 1 > 3 ) || ( <side3> > 2 )"), resolve,
	)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"<side3>"}, touched)
}

func TestEvaluateResolvesTokens(t *testing.T) {
	vars := map[string]string{"<flag>": "True", "<count>": "7"}
	resolve := func(tok string) string {
		if v, ok := vars[tok]; ok {
			return v
		}
		return tok
	}
	ev := condition.New(compare.New(nil))

	ok, err := ev.Evaluate([]string{"<flag>"}, resolve)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Evaluate([]string{"!<flag>"}, resolve)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = ev.Evaluate(strings.Fields("<count> or_more 7"), resolve)
	assert.NoError(t, err)
	assert.True(t, ok)
}
