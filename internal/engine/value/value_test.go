package value_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/runq/internal/engine/value"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, value.Number, value.KindOf("5"))
	assert.Equal(t, value.Number, value.KindOf("-2.5"))
	assert.Equal(t, value.Boolean, value.KindOf("TRUE"))
	assert.Equal(t, value.List, value.KindOf(`["a","b"]`))
	assert.Equal(t, value.List, value.KindOf("li@a|b"))
	assert.Equal(t, value.String, value.KindOf("hello"))
	assert.Equal(t, value.String, value.KindOf("NaN"))
	assert.Equal(t, value.String, value.KindOf(`{"a":1}`))
	assert.Equal(t, "list", value.List.String())
}

func TestAsBool(t *testing.T) {
	assert.True(t, value.AsBool("true"))
	assert.True(t, value.AsBool(" True "))
	assert.False(t, value.AsBool("yes"))
	assert.False(t, value.AsBool(""))
}

func TestParseInt(t *testing.T) {
	n, ok := value.ParseInt("3")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = value.ParseInt("3.5")
	assert.False(t, ok)
	assert.Equal(t, "3.5", value.FormatNumber(3.5))
	assert.Equal(t, "4", value.FormatNumber(4))
}

func TestLists(t *testing.T) {
	items, ok := value.ParseList(`["a", 2, [1]]`)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "2", "[1]"}, items)

	items, ok = value.ParseList("li@x|y|")
	assert.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, items)

	_, ok = value.ParseList("a|b")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, value.SplitList("a|b"))
	assert.Nil(t, value.SplitList(""))
	assert.Equal(t, `["a","b"]`, value.FormatList([]string{"a", "b"}))
	assert.Equal(t, "[]", value.FormatList(nil))
	assert.Equal(t, `["a","b"]`, value.Canonical("li@a|b"))
}

func TestParseMap(t *testing.T) {
	keys, values, ok := value.ParseMap(`{"b":"2","a":1}`)
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, keys)
	assert.Equal(t, []string{"2", "1"}, values)

	_, _, ok = value.ParseMap(`["a"]`)
	assert.False(t, ok)
}

func TestParseDuration(t *testing.T) {
	tick := 50 * time.Millisecond
	cases := map[string]time.Duration{
		"5":    5 * time.Second,
		"1.5s": 1500 * time.Millisecond,
		"20t":  time.Second,
		"2m":   2 * time.Minute,
		"3h":   3 * time.Hour,
		"1d":   24 * time.Hour,
	}
	for src, want := range cases {
		got, err := value.ParseDuration(src, tick)
		assert.NoError(t, err, src)
		assert.Equal(t, want, got, src)
	}

	for _, bad := range []string{"", "abc", "5q", "-1s"} {
		_, err := value.ParseDuration(bad, tick)
		assert.ErrorIs(t, err, value.ErrInvalidDuration, bad)
	}
}
