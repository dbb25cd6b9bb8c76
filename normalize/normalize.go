// Package normalize turns raw compound query results into the canonical nested
// tree shape, one mapping per category kind.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/typhonjs-scm/scm-compound/errs"
	"github.com/typhonjs-scm/scm-compound/model"
)

// SCM is the value of the scm field of every tree.
const SCM = "github"

// TimestampFormat matches the millisecond ISO-8601 form used for tree timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Normalizer maps raw records to their canonical form. HostURLPrefix is
// prepended to organization and owner names to build their URLs.
type Normalizer struct {
	HostURLPrefix string
	Now           func() time.Time
}

func New(hostURLPrefix string) *Normalizer {
	return &Normalizer{HostURLPrefix: hostURLPrefix, Now: time.Now}
}

// Entry is one normalized record. When the raw record carried records under the
// next category of the path they are attached as Children under that key.
type Entry struct {
	Value    any
	Key      string
	Children []*Entry
}

func (e *Entry) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(e.Value)
	if err != nil || e.Key == "" {
		return b, err
	}
	children := e.Children
	if children == nil {
		children = []*Entry{}
	}
	return appendMember(b, e.Key, children)
}

// Tree is the root of a normalized result.
type Tree struct {
	SCM        string
	Categories string
	Timestamp  string
	Key        string
	Entries    []*Entry
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	root, err := json.Marshal(struct {
		SCM        string `json:"scm"`
		Categories string `json:"categories"`
		Timestamp  string `json:"timestamp"`
	}{t.SCM, t.Categories, t.Timestamp})
	if err != nil {
		return nil, err
	}
	entries := t.Entries
	if entries == nil {
		entries = []*Entry{}
	}
	return appendMember(root, t.Key, entries)
}

// Roots adapts a typed slice of raw records for Normalize.
func Roots[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// Normalize walks path depth by depth. Each raw record is mapped by the kind
// registered for its category; records attached under the next category are
// normalized recursively and attached under the same name.
func (n *Normalizer) Normalize(path []string, roots []any) (*Tree, error) {
	if len(path) == 0 {
		return nil, errs.InvalidArgumentf("category path must not be empty")
	}
	kinds := make([]Kind, len(path))
	for i, category := range path {
		k, err := KindOf(category)
		if err != nil {
			return nil, err
		}
		kinds[i] = k
	}

	entries, err := n.walk(path, kinds, 0, roots)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	return &Tree{
		SCM:        SCM,
		Categories: strings.Join(path, ":"),
		Timestamp:  now().UTC().Format(TimestampFormat),
		Key:        path[0],
		Entries:    entries,
	}, nil
}

func (n *Normalizer) walk(path []string, kinds []Kind, depth int, raws []any) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(raws))
	for _, raw := range raws {
		v, err := n.apply(kinds[depth], raw)
		if err != nil {
			return nil, err
		}
		e := &Entry{Value: v}

		if depth+1 < len(path) {
			if parent, ok := raw.(model.Parent); ok {
				if children, ok := parent.Children(path[depth+1]); ok {
					nested, err := n.walk(path, kinds, depth+1, children)
					if err != nil {
						return nil, err
					}
					e.Key = path[depth+1]
					e.Children = nested
				}
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (n *Normalizer) apply(k Kind, raw any) (any, error) {
	switch k {
	case KindOrganization:
		return n.organization(raw)
	case KindOwner:
		return n.owner(raw)
	case KindRateLimit:
		return n.rateLimit(raw)
	case KindRepository:
		return n.repository(raw)
	case KindStatistics:
		return n.statistics(raw)
	case KindTeam:
		return n.team(raw)
	case KindUser:
		return n.user(raw)
	}
	return nil, &errs.UnknownCategoryError{Category: k.String()}
}

// appendMember adds "key": v as the last member of the JSON object obj.
func appendMember(obj []byte, key string, v any) ([]byte, error) {
	obj = bytes.TrimSpace(obj)
	if len(obj) < 2 || obj[0] != '{' || obj[len(obj)-1] != '}' {
		return nil, fmt.Errorf("cannot attach %q to non-object JSON", key)
	}
	k, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(obj[:len(obj)-1])
	if len(bytes.TrimSpace(obj[1:len(obj)-1])) > 0 {
		buf.WriteByte(',')
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
