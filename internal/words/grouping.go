// Package words groups names by shared prefixes and edits the resulting
// groups. A Grouping remembers the order in which groups were created and
// the order of names inside each group, so results render the same way the
// caller built them.
package words

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Grouping is an insertion-ordered mapping from a group key to the names in
// that group. The zero value is an empty grouping ready for use.
//
// Grouping has reference semantics like a map: assignment shares the
// underlying storage. Use Clone for an independent copy.
type Grouping struct {
	order  []string
	groups map[string][]string
}

// NewGrouping returns an empty grouping.
func NewGrouping() Grouping {
	return Grouping{
		order:  make([]string, 0),
		groups: make(map[string][]string),
	}
}

// Add appends names to the group identified by key, creating the group at
// the end of the key order if it does not exist yet. Calling Add with no
// names still creates an empty group.
func (g *Grouping) Add(key string, names ...string) {
	if g.groups == nil {
		g.groups = make(map[string][]string)
	}
	if _, seen := g.groups[key]; !seen {
		g.order = append(g.order, key)
		g.groups[key] = make([]string, 0, len(names))
	}
	g.groups[key] = append(g.groups[key], names...)
}

// Keys returns the group keys in insertion order.
func (g Grouping) Keys() []string {
	keys := make([]string, len(g.order))
	copy(keys, g.order)
	return keys
}

// Names returns a copy of the names in the given group and whether the
// group exists.
func (g Grouping) Names(key string) ([]string, bool) {
	names, ok := g.groups[key]
	if !ok {
		return nil, false
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, true
}

// Len returns the number of groups.
func (g Grouping) Len() int {
	return len(g.order)
}

// Clone returns a deep copy of the grouping.
func (g Grouping) Clone() Grouping {
	out := Grouping{
		order:  make([]string, len(g.order)),
		groups: make(map[string][]string, len(g.groups)),
	}
	copy(out.order, g.order)
	for key, names := range g.groups {
		cp := make([]string, len(names))
		copy(cp, names)
		out.groups[key] = cp
	}
	return out
}

// Equal reports whether both groupings hold the same groups with the same
// key order and the same name order within each group.
func (g Grouping) Equal(other Grouping) bool {
	if len(g.order) != len(other.order) {
		return false
	}
	for i, key := range g.order {
		if other.order[i] != key {
			return false
		}
		a, b := g.groups[key], other.groups[key]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}

// Map returns the grouping as a plain map. Key order is lost; use Keys to
// recover it.
func (g Grouping) Map() map[string][]string {
	out := make(map[string][]string, len(g.groups))
	for key, names := range g.groups {
		cp := make([]string, len(names))
		copy(cp, names)
		out[key] = cp
	}
	return out
}

// MarshalJSON encodes the grouping as a JSON object whose keys appear in
// insertion order. The standard map encoding would sort keys, losing the
// order callers rely on.
func (g Grouping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("failed to encode group key %q: %w", key, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		names := g.groups[key]
		if names == nil {
			names = []string{}
		}
		nb, err := json.Marshal(names)
		if err != nil {
			return nil, fmt.Errorf("failed to encode group %q: %w", key, err)
		}
		buf.Write(nb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the grouping, preserving the key
// order of the document. Duplicate keys are merged in first-seen order.
func (g *Grouping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to decode grouping: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("grouping must be a JSON object, got %v", tok)
	}
	out := NewGrouping()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to decode group key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("group key must be a string, got %v", keyTok)
		}
		var names []string
		if err := dec.Decode(&names); err != nil {
			return fmt.Errorf("failed to decode names for group %q: %w", key, err)
		}
		out.Add(key, names...)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to decode grouping: %w", err)
	}
	*g = out
	return nil
}

// String returns the grouping as compact JSON, for logs and debugging.
func (g Grouping) String() string {
	b, err := g.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("grouping<error: %v>", err)
	}
	return string(b)
}
