package words

import "strings"

// trieNode stores a single word of a name. text carries the words joined
// from the root, so the node can name the group it anchors.
type trieNode struct {
	word       string
	text       string
	isFullName bool
	children   map[string]*trieNode
	childOrder []string
}

func newTrieNode(word, text string) *trieNode {
	return &trieNode{
		word:     word,
		text:     text,
		children: make(map[string]*trieNode),
	}
}

// WordTrie stores names as chains of words and groups them by the longest
// shared word prefix, producing more descriptive group keys than a plain
// first-word split. Child order is insertion order, so grouping output is
// deterministic for a given insert sequence.
type WordTrie struct {
	root      *trieNode
	delimiter string
}

// NewWordTrie returns an empty trie splitting names on delimiter. An empty
// delimiter stores each name as a single word.
func NewWordTrie(delimiter string) *WordTrie {
	return &WordTrie{
		root:      newTrieNode("", ""),
		delimiter: delimiter,
	}
}

// Insert adds name to the trie, one node per word. Inserting the same name
// twice leaves the trie unchanged.
func (t *WordTrie) Insert(name string) {
	parts := t.splitWords(name)
	node := t.root
	for i, word := range parts {
		child, ok := node.children[word]
		if !ok {
			child = newTrieNode(word, strings.Join(parts[:i+1], t.delimiter))
			node.children[word] = child
			node.childOrder = append(node.childOrder, word)
		}
		node = child
	}
	node.isFullName = true
}

func (t *WordTrie) splitWords(name string) []string {
	if t.delimiter == "" {
		return []string{name}
	}
	return strings.Split(name, t.delimiter)
}

// GroupNames groups every inserted name by its most descriptive shared word
// prefix. Names sharing a prefix of several whole words group under the
// shortest full name among them, or under the shared prefix itself when no
// inserted name equals it. A name sharing no prefix with any other becomes
// a singleton group keyed by itself.
func (t *WordTrie) GroupNames() Grouping {
	g := NewGrouping()
	leftover := t.walk(t.root, nil, &g)
	// Branches that never met a branching point end up here: every name
	// shared one first word, or only one name was inserted.
	for _, branch := range leftover {
		if len(branch) > 1 {
			g.Add(branch[0], branch...)
		}
	}
	for _, branch := range leftover {
		if len(branch) == 1 {
			g.Add(branch[0], branch[0])
		}
	}
	return g
}

// walk descends depth-first. branch accumulates the full names seen along a
// non-branching chain. The return value is the list of branches this
// subtree could not resolve into groups, for a branching point higher up to
// claim.
func (t *WordTrie) walk(node *trieNode, branch []string, g *Grouping) [][]string {
	if len(node.childOrder) > 1 {
		var subBranches [][]string
		for _, word := range node.childOrder {
			subBranches = append(subBranches, t.walk(node.children[word], nil, g)...)
		}

		// A branch holding several full names groups under its first name,
		// the shortest one. Deepest branches group first.
		for i := len(subBranches) - 1; i >= 0; i-- {
			if b := subBranches[i]; len(b) > 1 {
				g.Add(b[0], b...)
			}
		}
		remaining := subBranches[:0]
		for _, b := range subBranches {
			if len(b) <= 1 {
				remaining = append(remaining, b)
			}
		}

		switch {
		case node == t.root:
			// Names with no shared prefix become their own groups.
			for _, b := range remaining {
				for _, fullName := range b {
					g.Add(fullName, fullName)
				}
			}
			return nil
		case node.isFullName || len(remaining) > 1:
			// The branching point itself is the shared prefix.
			if node.isFullName {
				g.Add(node.text, node.text)
			}
			for _, b := range remaining {
				g.Add(node.text, b...)
			}
			return nil
		default:
			return remaining
		}
	}

	if node.isFullName {
		branch = append(branch, node.text)
	}
	if len(node.childOrder) == 0 {
		return [][]string{branch}
	}
	return t.walk(node.children[node.childOrder[0]], branch, g)
}
