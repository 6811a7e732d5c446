package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kode4food/runq/internal/engine/queue"
	"github.com/kode4food/runq/pkg/api"
)

type (
	// Container is one named script: its settings plus the raw command
	// lists of each path. Paths are parsed into entries on first use
	Container struct {
		Name        string
		Type        string
		Speed       string
		Definitions []string
		File        string

		paths map[string]*yaml.Node
		order []string
	}

	// Lookup finds the implementation of a command by name
	Lookup func(name string) (queue.Command, bool)

	builder struct {
		lookup Lookup
		origin string
		errs   []error
	}
)

const (
	TypeTask = "task"

	keyType        = "type"
	keySpeed       = "speed"
	keyDefinitions = "definitions"

	cmdIf      = "if"
	cmdElse    = "else"
	cmdChoose  = "choose"
	cmdCase    = "case"
	cmdDefault = "default"
)

var (
	ErrInvalidContainer = errors.New("invalid script container")
	ErrInvalidCommand   = errors.New("invalid command line")
	ErrUnknownCommand   = errors.New("unknown command")
)

// ParseContainers reads every container defined in a YAML document
func ParseContainers(file string, data []byte) ([]*Container, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidContainer, file, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: top level must be a mapping",
			ErrInvalidContainer, file)
	}

	var res []*Container
	for i := 0; i+1 < len(root.Content); i += 2 {
		c, err := parseContainer(file, root.Content[i], root.Content[i+1])
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

func parseContainer(file string, key, body *yaml.Node) (*Container, error) {
	name := strings.ToLower(key.Value)
	if body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: line %d", ErrInvalidContainer, name,
			key.Line)
	}
	c := &Container{
		Name:  name,
		Type:  TypeTask,
		File:  file,
		paths: map[string]*yaml.Node{},
	}
	for i := 0; i+1 < len(body.Content); i += 2 {
		k := strings.ToLower(body.Content[i].Value)
		v := body.Content[i+1]
		switch {
		case k == keyType:
			c.Type = strings.ToLower(v.Value)
		case k == keySpeed:
			c.Speed = v.Value
		case k == keyDefinitions:
			c.Definitions = splitNames(v.Value)
		case v.Kind == yaml.SequenceNode:
			c.paths[k] = v
			c.order = append(c.order, k)
		default:
			return nil, fmt.Errorf("%w: %s.%s: line %d",
				ErrInvalidContainer, name, k, v.Line)
		}
	}
	return c, nil
}

// Paths returns the container's path names in file order
func (c *Container) Paths() []string {
	return c.order
}

// HasPath reports whether the container defines path
func (c *Container) HasPath(path string) bool {
	_, ok := c.paths[strings.ToLower(path)]
	return ok
}

// Parse builds fresh template entries for path. Errors for individual
// lines are joined; the entries that could be built are still returned
func (c *Container) Parse(path string, lookup Lookup) ([]*queue.Entry, error) {
	node, ok := c.paths[strings.ToLower(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrPathNotFound, c.Name, path)
	}
	b := &builder{lookup: lookup, origin: c.Name + "." + path}
	entries := b.sequence(node)
	return entries, errors.Join(b.errs...)
}

func (b *builder) sequence(node *yaml.Node) []*queue.Entry {
	var res []*queue.Entry
	for _, item := range node.Content {
		if e := b.item(item); e != nil {
			res = append(res, e)
		}
	}
	res = b.fold(res)
	for _, e := range res {
		b.bind(e)
	}
	return res
}

func (b *builder) item(node *yaml.Node) *queue.Entry {
	switch node.Kind {
	case yaml.ScalarNode:
		return b.line(node.Value, node.Line)
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			b.fail(node.Line, "braced command must have exactly one key")
			return nil
		}
		e := b.line(node.Content[0].Value, node.Line)
		if e == nil {
			return nil
		}
		body := node.Content[1]
		block := &queue.Block{Label: e.Name}
		switch body.Kind {
		case yaml.SequenceNode:
			block.Entries = b.sequence(body)
		case yaml.ScalarNode:
			if body.Value != "" {
				b.fail(body.Line, "braces must hold a command list")
			}
		default:
			b.fail(body.Line, "braces must hold a command list")
		}
		e.Braces = &queue.Braces{Blocks: []*queue.Block{block}}
		return e
	default:
		b.fail(node.Line, "unexpected node")
		return nil
	}
}

func (b *builder) line(src string, line int) *queue.Entry {
	args := SplitArgs(strings.TrimSpace(src))
	if len(args) == 0 {
		b.fail(line, "empty command")
		return nil
	}
	e := queue.NewEntry(args[0], args[1:]...)
	e.Script = fmt.Sprintf("%s:%d", b.origin, line)
	return e
}

// fold merges else entries into the if chain before them, and turns the
// case and default children of choose into labeled blocks
func (b *builder) fold(entries []*queue.Entry) []*queue.Entry {
	res := make([]*queue.Entry, 0, len(entries))
	var chain *queue.Entry
	for _, e := range entries {
		switch e.Name {
		case cmdIf:
			chain = e
			if !e.HasBraces() {
				chain = nil
			}
		case cmdElse:
			if chain != nil && e.HasBraces() {
				block := e.Braces.Blocks[0]
				block.Label = cmdElse
				block.Args = elseGuard(e.Args)
				chain.Braces.Blocks = append(chain.Braces.Blocks, block)
				if len(block.Args) == 0 {
					chain = nil
				}
				continue
			}
			chain = nil
		case cmdChoose:
			chain = nil
			foldChoose(e)
		default:
			chain = nil
		}
		res = append(res, e)
	}
	return res
}

func elseGuard(args []string) []string {
	if len(args) > 0 && strings.EqualFold(args[0], cmdIf) {
		return args[1:]
	}
	return args
}

func foldChoose(e *queue.Entry) {
	if !e.HasBraces() {
		return
	}
	var blocks []*queue.Block
	for _, c := range e.Braces.Blocks[0].Entries {
		if c.Name != cmdCase && c.Name != cmdDefault {
			continue
		}
		block := &queue.Block{Label: c.Name, Args: c.Args}
		if c.HasBraces() {
			block.Entries = c.Braces.Blocks[0].Entries
		}
		blocks = append(blocks, block)
	}
	e.Braces = &queue.Braces{Blocks: blocks}
}

func (b *builder) bind(e *queue.Entry) {
	if e.Name == cmdCase || e.Name == cmdDefault {
		return
	}
	cmd, ok := b.lookup(e.Name)
	if !ok {
		b.errs = append(b.errs,
			fmt.Errorf("%w: %s (%s)", ErrUnknownCommand, e.Name, e.Script))
		return
	}
	if err := e.Bind(cmd); err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s (%s): %w", e.Name, e.Script,
			err))
	}
}

func (b *builder) fail(line int, msg string) {
	b.errs = append(b.errs,
		fmt.Errorf("%w: %s:%d: %s", ErrInvalidCommand, b.origin, line, msg))
}

func splitNames(s string) []string {
	var res []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == ' '
	}) {
		res = append(res, strings.ToLower(part))
	}
	return res
}

// BindDefinitions maps positional values onto the container's declared
// definition names. Values beyond the declared names are bound to their
// one-based position
func (c *Container) BindDefinitions(values []string) api.Definitions {
	res := api.Definitions{}
	for i, v := range values {
		if i < len(c.Definitions) {
			res.Set(c.Definitions[i], v)
			continue
		}
		res.Set(strconv.Itoa(i+1), v)
	}
	return res
}
