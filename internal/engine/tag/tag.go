// Package tag holds the template-resolver port used by command arguments,
// along with a small default resolver for definitions and host tags
package tag

import (
	"strings"
	"sync"

	"github.com/kode4food/runq/pkg/api"
)

type (
	// Context is the read-only view of a running queue that tags consult
	Context interface {
		ID() api.QueueID
		Definition(name string) (string, bool)
		ContextValue(key string) (string, bool)
	}

	// Resolver substitutes every tag found in a token. Resolution must
	// not mutate the queue it reads from
	Resolver interface {
		Resolve(token string, ctx Context) string
	}

	// Handler resolves one base tag. It returns false when it cannot
	// produce a value, leaving the tag text in place
	Handler func(param string, ctx Context) (string, bool)

	// Default resolves <[name]> definition tags plus registered handlers
	Default struct {
		mu       sync.RWMutex
		handlers map[string]Handler
	}
)

const (
	tagOpen  = '<'
	tagClose = '>'
)

var _ Resolver = (*Default)(nil)

// NewDefault creates a resolver with the built-in tags registered
func NewDefault() *Default {
	res := &Default{handlers: map[string]Handler{}}
	res.Register("queue", func(_ string, ctx Context) (string, bool) {
		return string(ctx.ID()), true
	})
	res.Register("definition", func(p string, ctx Context) (string, bool) {
		return ctx.Definition(p)
	})
	res.Register("context", func(p string, ctx Context) (string, bool) {
		return ctx.ContextValue(p)
	})
	return res
}

// Register adds or replaces a base tag handler
func (r *Default) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(name)] = h
}

// Resolve replaces every tag in token, innermost first
func (r *Default) Resolve(token string, ctx Context) string {
	if strings.IndexByte(token, tagOpen) < 0 {
		return token
	}
	var sb strings.Builder
	for i := 0; i < len(token); {
		if token[i] != tagOpen {
			sb.WriteByte(token[i])
			i++
			continue
		}
		end := matchClose(token, i)
		if end < 0 {
			sb.WriteString(token[i:])
			break
		}
		body := r.Resolve(token[i+1:end], ctx)
		if res, ok := r.resolveTag(body, ctx); ok {
			sb.WriteString(res)
		} else {
			sb.WriteByte(tagOpen)
			sb.WriteString(body)
			sb.WriteByte(tagClose)
		}
		i = end + 1
	}
	return sb.String()
}

func (r *Default) resolveTag(body string, ctx Context) (string, bool) {
	if body == "" || ctx == nil {
		return "", false
	}
	name, param := splitTag(body)
	if name == "" {
		return ctx.Definition(param)
	}
	r.mu.RLock()
	h, ok := r.handlers[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	return h(param, ctx)
}

// splitTag breaks name[param] apart; a bare name has no param
func splitTag(body string) (string, string) {
	open := strings.IndexByte(body, '[')
	if open < 0 || !strings.HasSuffix(body, "]") {
		return body, ""
	}
	return body[:open], body[open+1 : len(body)-1]
}

func matchClose(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case tagOpen:
			depth++
		case tagClose:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
