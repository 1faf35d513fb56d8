package words

import "fmt"

// Move returns a new grouping with name moved from sourceGroup to
// targetGroup. The input grouping is never mutated, so a failed move leaves
// the caller's data exactly as it was.
//
// The source group must exist and must contain the name, otherwise Move
// fails with ErrGroupNotFound or ErrNameNotFound. When the name is the last
// one in its source group, the emptied group is removed from the grouping.
// The target group is created at the end of the key order when missing.
// Moving a name onto its own group succeeds and changes nothing.
func Move(g Grouping, name, sourceGroup, targetGroup string) (Grouping, error) {
	srcNames, ok := g.Names(sourceGroup)
	if !ok {
		return g, fmt.Errorf("%w: %s", ErrGroupNotFound, sourceGroup)
	}
	found := false
	for _, n := range srcNames {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return g, fmt.Errorf("%w: %s in %s", ErrNameNotFound, name, sourceGroup)
	}
	if sourceGroup == targetGroup {
		return g.Clone(), nil
	}

	out := NewGrouping()
	for _, key := range g.Keys() {
		names, _ := g.Names(key)
		if key != sourceGroup {
			out.Add(key, names...)
			continue
		}
		// Remove the first occurrence only; duplicates keep their later
		// entries.
		kept := make([]string, 0, len(names)-1)
		removed := false
		for _, n := range names {
			if !removed && n == name {
				removed = true
				continue
			}
			kept = append(kept, n)
		}
		if len(kept) == 0 {
			continue
		}
		out.Add(key, kept...)
	}
	out.Add(targetGroup, name)
	return out, nil
}
