package words

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trieFixtureNames = []string{
	"adhoc_charge_amt",
	"adhoc_charge_amt_usd",
	"alcohol_direct_payment_ind",
	"alcohol_tax_amt",
	"alcohol_tax_amt_usd",
	"alcohol_gmv_amt",
	"alcohol_gmv_amt_usd",
	"alcohol_product_ind",
	"bag_fee",
	"bag_fee_usd",
	"bags_fee_tax_amt",
	"bags_fee_tax_amt_usd",
	"bags_in_freezer",
	"bags_in_fridge",
	"bags_in_shelves",
	"country_id",
	"currency",
}

var trieFixtureGroups = map[string][]string{
	"adhoc_charge_amt": {"adhoc_charge_amt", "adhoc_charge_amt_usd"},
	"alcohol":          {"alcohol_direct_payment_ind", "alcohol_product_ind"},
	"alcohol_tax_amt":  {"alcohol_tax_amt", "alcohol_tax_amt_usd"},
	"alcohol_gmv_amt":  {"alcohol_gmv_amt", "alcohol_gmv_amt_usd"},
	"bag_fee":          {"bag_fee", "bag_fee_usd"},
	"bags_fee_tax_amt": {"bags_fee_tax_amt", "bags_fee_tax_amt_usd"},
	"bags_in":          {"bags_in_freezer", "bags_in_fridge", "bags_in_shelves"},
	"country_id":       {"country_id"},
	"currency":         {"currency"},
}

func buildTrie(delimiter string, names ...string) *WordTrie {
	trie := NewWordTrie(delimiter)
	for _, name := range names {
		trie.Insert(name)
	}
	return trie
}

func assertFooBarTrie(t *testing.T, trie *WordTrie) {
	t.Helper()

	require.Equal(t, []string{"foo"}, trie.root.childOrder)
	foo := trie.root.children["foo"]
	assert.Equal(t, "foo", foo.word)
	assert.Equal(t, "foo", foo.text)
	assert.False(t, foo.isFullName)

	require.Equal(t, []string{"bar.baz"}, foo.childOrder)
	bar := foo.children["bar.baz"]
	assert.Equal(t, "bar.baz", bar.word)
	assert.Equal(t, "foo"+trie.delimiter+"bar.baz", bar.text)
	assert.True(t, bar.isFullName)
}

func TestWordTrieInsert(t *testing.T) {
	t.Run("creates one node per word", func(t *testing.T) {
		trie := buildTrie("_", "foo_bar.baz")
		assertFooBarTrie(t, trie)
	})

	t.Run("reinserting an existing name changes nothing", func(t *testing.T) {
		trie := buildTrie("_", "foo_bar.baz", "foo_bar.baz")
		assertFooBarTrie(t, trie)
	})

	t.Run("splits on the configured delimiter", func(t *testing.T) {
		trie := buildTrie("+", "foo+bar.baz")
		assertFooBarTrie(t, trie)
	})

	t.Run("shared words share nodes", func(t *testing.T) {
		trie := buildTrie("_", "foo", "foo_bar", "foo_baz", "abc_xyz")

		require.Equal(t, []string{"foo", "abc"}, trie.root.childOrder)
		foo := trie.root.children["foo"]
		assert.True(t, foo.isFullName)
		assert.Equal(t, []string{"bar", "baz"}, foo.childOrder)
		assert.Equal(t, []string{"xyz"}, trie.root.children["abc"].childOrder)
	})
}

func TestWordTrieGroupNames(t *testing.T) {
	t.Run("groups the reference fixture", func(t *testing.T) {
		g := buildTrie("_", trieFixtureNames...).GroupNames()

		if diff := cmp.Diff(trieFixtureGroups, g.Map()); diff != "" {
			t.Errorf("grouping mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("groups under the shortest full name of a shared prefix", func(t *testing.T) {
		g := buildTrie("_", "foo_bar", "foo_bar_baz", "abc_asd", "abc_xyz").GroupNames()

		want := map[string][]string{
			"abc":     {"abc_asd", "abc_xyz"},
			"foo_bar": {"foo_bar", "foo_bar_baz"},
		}
		if diff := cmp.Diff(want, g.Map()); diff != "" {
			t.Errorf("grouping mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("a full-name branching point joins its own group", func(t *testing.T) {
		g := buildTrie("_", "foo", "foo_bar", "foo_baz").GroupNames()

		want := map[string][]string{
			"foo": {"foo", "foo_bar", "foo_baz"},
		}
		if diff := cmp.Diff(want, g.Map()); diff != "" {
			t.Errorf("grouping mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("custom delimiter", func(t *testing.T) {
		g := buildTrie("+", "foo+bar_abc", "foo+baz_xyz").GroupNames()

		want := map[string][]string{
			"foo": {"foo+bar_abc", "foo+baz_xyz"},
		}
		if diff := cmp.Diff(want, g.Map()); diff != "" {
			t.Errorf("grouping mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("names sharing every word still group", func(t *testing.T) {
		g := buildTrie("_", "foo_bar", "foo_bar_baz").GroupNames()

		want := map[string][]string{
			"foo_bar": {"foo_bar", "foo_bar_baz"},
		}
		if diff := cmp.Diff(want, g.Map()); diff != "" {
			t.Errorf("grouping mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("a lone name becomes its own group", func(t *testing.T) {
		g := buildTrie("_", "solo_item").GroupNames()

		want := map[string][]string{
			"solo_item": {"solo_item"},
		}
		if diff := cmp.Diff(want, g.Map()); diff != "" {
			t.Errorf("grouping mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty trie groups to nothing", func(t *testing.T) {
		g := NewWordTrie("_").GroupNames()
		assert.Equal(t, 0, g.Len())
	})
}
