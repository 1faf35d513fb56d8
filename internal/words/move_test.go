package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove(t *testing.T) {
	t.Run("moves a name and drops the emptied source group", func(t *testing.T) {
		g := Group([]string{"foo", "foo-bar", "foo-baz", "xyz"}, "-")

		moved, err := Move(g, "xyz", "xyz", "foo")
		require.NoError(t, err)

		assert.Equal(t, []string{"foo"}, moved.Keys())
		names, _ := moved.Names("foo")
		assert.Equal(t, []string{"foo", "foo-bar", "foo-baz", "xyz"}, names)
	})

	t.Run("creates a missing target group at the end", func(t *testing.T) {
		g := Group([]string{"a_1", "a_2", "b_1"}, "_")

		moved, err := Move(g, "a_2", "a", "fresh")
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b", "fresh"}, moved.Keys())
		names, _ := moved.Names("fresh")
		assert.Equal(t, []string{"a_2"}, names)
	})

	t.Run("appends to an existing target group", func(t *testing.T) {
		g := Group([]string{"a_1", "b_1", "b_2"}, "_")

		moved, err := Move(g, "a_1", "a", "b")
		require.NoError(t, err)

		assert.Equal(t, []string{"b"}, moved.Keys())
		names, _ := moved.Names("b")
		assert.Equal(t, []string{"b_1", "b_2", "a_1"}, names)
	})

	t.Run("keeps the source group when names remain", func(t *testing.T) {
		g := Group([]string{"a_1", "a_2", "b_1"}, "_")

		moved, err := Move(g, "a_1", "a", "b")
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b"}, moved.Keys())
		names, _ := moved.Names("a")
		assert.Equal(t, []string{"a_2"}, names)
	})

	t.Run("missing source group fails and leaves input unchanged", func(t *testing.T) {
		g := Group([]string{"a_1"}, "_")
		before := g.Clone()

		_, err := Move(g, "a_1", "nope", "a")
		assert.ErrorIs(t, err, ErrGroupNotFound)
		assert.True(t, g.Equal(before))
	})

	t.Run("missing name fails and leaves input unchanged", func(t *testing.T) {
		g := Group([]string{"a_1", "b_1"}, "_")
		before := g.Clone()

		_, err := Move(g, "a_9", "a", "b")
		assert.ErrorIs(t, err, ErrNameNotFound)
		assert.True(t, g.Equal(before))
	})

	t.Run("same source and target is a successful no-op", func(t *testing.T) {
		g := Group([]string{"a_1", "a_2"}, "_")

		moved, err := Move(g, "a_1", "a", "a")
		require.NoError(t, err)
		assert.True(t, g.Equal(moved))
	})

	t.Run("name must be in the source group even when target holds it", func(t *testing.T) {
		g := NewGrouping()
		g.Add("a", "x")
		g.Add("b", "y")

		_, err := Move(g, "y", "a", "b")
		assert.ErrorIs(t, err, ErrNameNotFound)
	})

	t.Run("removes only the first duplicate occurrence", func(t *testing.T) {
		g := NewGrouping()
		g.Add("a", "dup", "mid", "dup")

		moved, err := Move(g, "dup", "a", "b")
		require.NoError(t, err)

		names, _ := moved.Names("a")
		assert.Equal(t, []string{"mid", "dup"}, names)
		names, _ = moved.Names("b")
		assert.Equal(t, []string{"dup"}, names)
	})

	t.Run("successful move never mutates the input", func(t *testing.T) {
		g := Group([]string{"a_1", "b_1"}, "_")
		before := g.Clone()

		_, err := Move(g, "a_1", "a", "b")
		require.NoError(t, err)
		assert.True(t, g.Equal(before))
	})
}
