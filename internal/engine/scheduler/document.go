package scheduler

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kode4food/runq/pkg/api"
)

type recordDoc struct {
	ID          string            `yaml:"id"`
	Time        int64             `yaml:"time"`
	Script      string            `yaml:"script"`
	Path        string            `yaml:"path,omitempty"`
	Definitions map[string]string `yaml:"definitions,omitempty"`
	Context     map[string]string `yaml:"context,omitempty"`
}

var ErrInvalidDocument = errors.New("invalid deferred document")

var tierOrder = []Tier{TierNear, TierMedium, TierFar}

// Encode renders records as an ordered mapping keyed near_0, medium_0,
// far_0 and so on, each tier sorted by fire time
func Encode(records []*Record) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, tier := range tierOrder {
		var inTier []*Record
		for _, r := range records {
			if r.Tier == tier {
				inTier = append(inTier, r)
			}
		}
		sortByTime(inTier)
		for i, r := range inTier {
			key := &yaml.Node{
				Kind:  yaml.ScalarNode,
				Value: fmt.Sprintf("%s_%d", tier, i),
			}
			val := &yaml.Node{}
			if err := val.Encode(toDoc(r)); err != nil {
				return nil, err
			}
			root.Content = append(root.Content, key, val)
		}
	}
	return yaml.Marshal(root)
}

// Decode reads records back from a document. The stored tier is only used
// to validate keys; callers recompute tiers from the fire time. Records
// that cannot be read are skipped and reported in the returned error
func Decode(data []byte) ([]*Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping",
			ErrInvalidDocument)
	}

	var res []*Record
	var errs []error
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if !validKey(key) {
			errs = append(errs,
				fmt.Errorf("%w: unexpected key %s", ErrInvalidDocument, key))
			continue
		}
		var d recordDoc
		if err := root.Content[i+1].Decode(&d); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w",
				ErrInvalidDocument, key, err))
			continue
		}
		if d.Time <= 0 || d.Script == "" {
			errs = append(errs, fmt.Errorf("%w: %s: missing time or script",
				ErrInvalidDocument, key))
			continue
		}
		res = append(res, fromDoc(d))
	}
	return res, errors.Join(errs...)
}

func validKey(key string) bool {
	for _, tier := range tierOrder {
		if strings.HasPrefix(key, string(tier)+"_") {
			return true
		}
	}
	return false
}

func toDoc(r *Record) recordDoc {
	return recordDoc{
		ID:          r.ID,
		Time:        r.At.UnixMilli(),
		Script:      r.Script.Script,
		Path:        r.Script.Path,
		Definitions: r.Definitions,
		Context:     r.Context,
	}
}

func fromDoc(d recordDoc) *Record {
	defs := api.Definitions{}
	defs.Merge(d.Definitions)
	return &Record{
		ID:          d.ID,
		At:          time.UnixMilli(d.Time),
		Script:      api.ScriptRef{Script: d.Script, Path: d.Path},
		Definitions: defs,
		Context:     d.Context,
		index:       -1,
	}
}

func sortByTime(records []*Record) {
	slices.SortStableFunc(records, func(a, b *Record) int {
		return a.At.Compare(b.At)
	})
}
