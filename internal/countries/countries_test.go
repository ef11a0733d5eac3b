package countries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlag(t *testing.T) {
	assert.Equal(t, "🇺🇸", Flag("US"))
	assert.Equal(t, "🇩🇪", Flag("de"))
	assert.Empty(t, Flag("USA"))
	assert.Empty(t, Flag("1A"))
}

func TestLookup(t *testing.T) {
	c, ok := Lookup(" gb ")
	require.True(t, ok)
	assert.Equal(t, "GB", c.Code)
	assert.Equal(t, "United Kingdom", c.Name)
	assert.Equal(t, "🇬🇧", c.Flag)

	_, ok = Lookup("XX")
	assert.False(t, ok)
}

func TestCatalogCodesAreUniqueAndSorted(t *testing.T) {
	list := All()
	require.NotEmpty(t, list)
	seen := map[string]bool{}
	for i, c := range list {
		assert.Len(t, c.Code, 2)
		assert.False(t, seen[c.Code], "duplicate %s", c.Code)
		seen[c.Code] = true
		if i > 0 {
			assert.Less(t, list[i-1].Code, c.Code)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	list := All()
	list[0].Name = "changed"
	assert.NotEqual(t, "changed", All()[0].Name)
}

func TestSearch(t *testing.T) {
	t.Run("empty query returns everything", func(t *testing.T) {
		assert.Len(t, Search("  "), len(All()))
	})

	t.Run("name substring is case-insensitive", func(t *testing.T) {
		res := Search("KINGDOM")
		require.Len(t, res, 1)
		assert.Equal(t, "GB", res[0].Code)
	})

	t.Run("exact code matches", func(t *testing.T) {
		res := Search("jp")
		codes := codesOf(res)
		assert.Contains(t, codes, "JP")
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Search("zz"))
	})

	t.Run("us matches by code and by name", func(t *testing.T) {
		codes := codesOf(Search("us"))
		assert.Contains(t, codes, "US")
		assert.Contains(t, codes, "AU") // Australia
		assert.Contains(t, codes, "RU") // Russia
	})
}

func TestOptionsMarksSelected(t *testing.T) {
	opts := Options("united", []string{"us", "GB"})
	selected := map[string]bool{}
	for _, o := range opts {
		selected[o.Code] = o.Selected
	}
	assert.True(t, selected["US"])
	assert.True(t, selected["GB"])
	assert.False(t, selected["AE"])
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"France", "ZZ"}, Names([]string{"fr", "ZZ"}))
}

func codesOf(list []Country) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Code)
	}
	return out
}
