package tag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/runq/internal/engine/tag"
	"github.com/kode4food/runq/pkg/api"
)

type fakeContext map[string]string

func (f fakeContext) ID() api.QueueID { return "q-1" }

func (f fakeContext) Definition(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

func (f fakeContext) ContextValue(key string) (string, bool) {
	v, ok := f["ctx."+key]
	return v, ok
}

func TestResolveDefinitions(t *testing.T) {
	r := tag.NewDefault()
	ctx := fakeContext{"i": "3", "name": "i", "ctx.player": "bob"}

	assert.Equal(t, "3", r.Resolve("<[i]>", ctx))
	assert.Equal(t, "i=3!", r.Resolve("i=<[i]>!", ctx))
	assert.Equal(t, "3", r.Resolve("<[<[name]>]>", ctx))
	assert.Equal(t, "3", r.Resolve("<definition[i]>", ctx))
	assert.Equal(t, "q-1", r.Resolve("<queue>", ctx))
	assert.Equal(t, "bob", r.Resolve("<context[player]>", ctx))
}

func TestResolveLeavesUnknownTags(t *testing.T) {
	r := tag.NewDefault()
	ctx := fakeContext{}

	assert.Equal(t, "<[missing]>", r.Resolve("<[missing]>", ctx))
	assert.Equal(t, "<nope[x]>", r.Resolve("<nope[x]>", ctx))
	assert.Equal(t, "<", r.Resolve("<", ctx))
	assert.Equal(t, "<=", r.Resolve("<=", ctx))
	assert.Equal(t, "plain", r.Resolve("plain", ctx))
}

func TestRegisterHandler(t *testing.T) {
	r := tag.NewDefault()
	r.Register("Upper", func(p string, _ tag.Context) (string, bool) {
		return p + p, true
	})
	ctx := fakeContext{"x": "ab"}
	assert.Equal(t, "abab", r.Resolve("<upper[<[x]>]>", ctx))
}
