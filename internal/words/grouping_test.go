package words

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupingAdd(t *testing.T) {
	t.Run("keys keep first-insertion order", func(t *testing.T) {
		g := NewGrouping()
		g.Add("beta", "beta_1")
		g.Add("alpha", "alpha_1")
		g.Add("beta", "beta_2")

		assert.Equal(t, []string{"beta", "alpha"}, g.Keys())

		names, ok := g.Names("beta")
		require.True(t, ok)
		assert.Equal(t, []string{"beta_1", "beta_2"}, names)
	})

	t.Run("zero value is usable", func(t *testing.T) {
		var g Grouping
		g.Add("a", "a_1")

		assert.Equal(t, 1, g.Len())
	})

	t.Run("add without names creates an empty group", func(t *testing.T) {
		g := NewGrouping()
		g.Add("empty")

		names, ok := g.Names("empty")
		require.True(t, ok)
		assert.Empty(t, names)
	})

	t.Run("duplicate names are kept", func(t *testing.T) {
		g := NewGrouping()
		g.Add("a", "x", "x")

		names, _ := g.Names("a")
		assert.Equal(t, []string{"x", "x"}, names)
	})
}

func TestGroupingNamesReturnsCopy(t *testing.T) {
	g := NewGrouping()
	g.Add("a", "a_1", "a_2")

	names, _ := g.Names("a")
	names[0] = "mutated"

	fresh, _ := g.Names("a")
	assert.Equal(t, []string{"a_1", "a_2"}, fresh)
}

func TestGroupingClone(t *testing.T) {
	g := NewGrouping()
	g.Add("a", "a_1")
	g.Add("b", "b_1")

	clone := g.Clone()
	clone.Add("c", "c_1")
	clone.Add("a", "a_2")

	assert.Equal(t, []string{"a", "b"}, g.Keys())
	names, _ := g.Names("a")
	assert.Equal(t, []string{"a_1"}, names)
	assert.Equal(t, 3, clone.Len())
}

func TestGroupingEqual(t *testing.T) {
	build := func(pairs ...[2]string) Grouping {
		g := NewGrouping()
		for _, p := range pairs {
			g.Add(p[0], p[1])
		}
		return g
	}

	t.Run("equal content and order", func(t *testing.T) {
		a := build([2]string{"x", "x_1"}, [2]string{"y", "y_1"})
		b := build([2]string{"x", "x_1"}, [2]string{"y", "y_1"})
		assert.True(t, a.Equal(b))
	})

	t.Run("different key order is not equal", func(t *testing.T) {
		a := build([2]string{"x", "x_1"}, [2]string{"y", "y_1"})
		b := build([2]string{"y", "y_1"}, [2]string{"x", "x_1"})
		assert.False(t, a.Equal(b))
	})

	t.Run("different names are not equal", func(t *testing.T) {
		a := build([2]string{"x", "x_1"})
		b := build([2]string{"x", "x_2"})
		assert.False(t, a.Equal(b))
	})
}

func TestGroupingJSON(t *testing.T) {
	t.Run("marshal keeps insertion order", func(t *testing.T) {
		g := NewGrouping()
		g.Add("zulu", "zulu_1")
		g.Add("alpha", "alpha_1", "alpha_2")

		b, err := json.Marshal(g)
		require.NoError(t, err)
		assert.Equal(t, `{"zulu":["zulu_1"],"alpha":["alpha_1","alpha_2"]}`, string(b))
	})

	t.Run("empty grouping marshals to an empty object", func(t *testing.T) {
		b, err := json.Marshal(NewGrouping())
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(b))

		b, err = json.Marshal(Grouping{})
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(b))
	})

	t.Run("empty group marshals to an empty array", func(t *testing.T) {
		g := NewGrouping()
		g.Add("bare")

		b, err := json.Marshal(g)
		require.NoError(t, err)
		assert.Equal(t, `{"bare":[]}`, string(b))
	})

	t.Run("unmarshal recovers document order", func(t *testing.T) {
		var g Grouping
		err := json.Unmarshal([]byte(`{"zulu":["zulu_1"],"alpha":["alpha_1"]}`), &g)
		require.NoError(t, err)

		assert.Equal(t, []string{"zulu", "alpha"}, g.Keys())
	})

	t.Run("round trip preserves everything", func(t *testing.T) {
		g := NewGrouping()
		g.Add("b", "b_2", "b_1")
		g.Add("a", "a_1")

		b, err := json.Marshal(g)
		require.NoError(t, err)

		var back Grouping
		require.NoError(t, json.Unmarshal(b, &back))
		assert.True(t, g.Equal(back))
	})

	t.Run("rejects a non-object document", func(t *testing.T) {
		var g Grouping
		err := json.Unmarshal([]byte(`["a"]`), &g)
		assert.Error(t, err)
	})
}

func TestGroupingMap(t *testing.T) {
	g := NewGrouping()
	g.Add("a", "a_1")
	g.Add("b", "b_1", "b_2")

	want := map[string][]string{
		"a": {"a_1"},
		"b": {"b_1", "b_2"},
	}
	if diff := cmp.Diff(want, g.Map()); diff != "" {
		t.Errorf("Map mismatch (-want +got):\n%s", diff)
	}
}
