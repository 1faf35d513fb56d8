package words

import (
	"fmt"
	"strings"

	"namegrouper/internal/logging"
)

// DefaultDelimiter is the character names are split on when the caller does
// not choose one.
const DefaultDelimiter = "_"

// Grouping strategies.
const (
	// StrategyPrefix groups by the text before the first delimiter.
	StrategyPrefix = "prefix"
	// StrategyTrie groups by the longest shared word prefix, using a word
	// trie. Keys are more descriptive but the walk costs more.
	StrategyTrie = "trie"
)

// Strategies lists the supported grouping strategies.
func Strategies() []string {
	return []string{StrategyPrefix, StrategyTrie}
}

// Group splits each name on the first occurrence of delimiter and groups
// names by the text before it. A name without the delimiter forms its own
// key, as does every name when the delimiter is empty. Group keys appear in
// first-appearance order, names keep input order, and duplicates are kept.
//
// Group never fails: empty input yields an empty grouping.
func Group(names []string, delimiter string) Grouping {
	g := NewGrouping()
	for _, name := range names {
		key := name
		if delimiter != "" {
			if idx := strings.Index(name, delimiter); idx >= 0 {
				key = name[:idx]
			}
		}
		g.Add(key, name)
	}
	return g
}

// GroupWithStrategy groups names using the named strategy. An empty
// strategy selects StrategyPrefix.
func GroupWithStrategy(names []string, delimiter, strategy string) (Grouping, error) {
	if strategy == "" {
		strategy = StrategyPrefix
	}

	var g Grouping
	switch strategy {
	case StrategyPrefix:
		g = Group(names, delimiter)
	case StrategyTrie:
		trie := NewWordTrie(delimiter)
		for _, name := range names {
			trie.Insert(name)
		}
		g = trie.GroupNames()
	default:
		return Grouping{}, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}

	logging.WordsDebug("Grouped %d names into %d groups (delimiter %q, strategy %s)", len(names), g.Len(), delimiter, strategy)
	return g, nil
}
