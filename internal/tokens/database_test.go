package tokens

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strs(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String
	}
	return out
}

func entryFor(t *testing.T, db *Database, s string) Entry {
	t.Helper()
	e, ok := db.Get(Key{Token: db.Tokenize(s), String: s})
	require.True(t, ok, "entry for %q", s)
	return e
}

func TestFromStrings(t *testing.T) {
	db := FromStrings([]string{"Hello", "World", "Hello"})

	require.Equal(t, 2, db.Len())
	entries := db.Entries()
	assert.Equal(t, []Entry{
		{Token: 0x17da7ef3, String: "Hello"},
		{Token: 0x4016d473, String: "World"},
	}, entries)
}

func TestWithHash(t *testing.T) {
	db := FromStrings([]string{"abc", "abd"}, WithHash(HashWithLength(2)))

	require.Len(t, db.Collisions(), 1)
	assert.Equal(t, FixedLengthHash("abc", 2), db.Tokenize("abc"))
}

func TestAddIsIdempotent(t *testing.T) {
	db := New()
	db.Add([]string{"s"})
	db.Add([]string{"s"})

	assert.Equal(t, 1, db.Len())
	assert.False(t, entryFor(t, db, "s").Removed())
}

func TestAddUnremoves(t *testing.T) {
	db := FromStrings([]string{"keep", "gone"})
	db.MarkRemovals([]string{"keep"}, Date(2020, 1, 1))
	require.True(t, entryFor(t, db, "gone").Removed())

	db.Add([]string{"gone"})

	assert.False(t, entryFor(t, db, "gone").Removed())
	assert.Equal(t, 2, db.Len())
}

func TestMarkRemovals(t *testing.T) {
	db := FromStrings([]string{"a", "b", "c"})

	marked := db.MarkRemovals([]string{"a", "new"}, Date(2020, 5, 1))

	assert.ElementsMatch(t, []string{"b", "c"}, strs(marked))
	for _, e := range marked {
		assert.Equal(t, Date(2020, 5, 1), e.DateRemoved)
	}
	assert.False(t, entryFor(t, db, "a").Removed())
	assert.Equal(t, 3, db.Len(), "strings absent from the database are not added")
}

func TestMarkRemovalsKeepsEarliestDate(t *testing.T) {
	d1 := Date(2020, 1, 1)
	d2 := Date(2021, 1, 1)

	t.Run("later call does not move date forward", func(t *testing.T) {
		db := FromStrings([]string{"e"})
		db.MarkRemovals(nil, d1)
		marked := db.MarkRemovals(nil, d2)

		assert.Empty(t, marked)
		assert.Equal(t, d1, entryFor(t, db, "e").DateRemoved)
	})

	t.Run("earlier call moves date back", func(t *testing.T) {
		db := FromStrings([]string{"e"})
		db.MarkRemovals(nil, d2)
		marked := db.MarkRemovals(nil, d1)

		assert.Equal(t, []string{"e"}, strs(marked))
		assert.Equal(t, d1, entryFor(t, db, "e").DateRemoved)
	})
}

func TestMarkRemovalsLeavesLiveRemovedEntries(t *testing.T) {
	db := FromStrings([]string{"e"})
	db.MarkRemovals(nil, Date(2020, 1, 1))

	marked := db.MarkRemovals([]string{"e"}, Date(2019, 1, 1))

	assert.Empty(t, marked)
	assert.Equal(t, Date(2020, 1, 1), entryFor(t, db, "e").DateRemoved)
}

func TestMarkRemovalsDefaultsToToday(t *testing.T) {
	db := FromStrings([]string{"e"})
	db.MarkRemovals(nil, time.Time{})

	assert.Equal(t, Today(), entryFor(t, db, "e").DateRemoved)
}

func TestMarkRemovalsTruncatesToCalendarDay(t *testing.T) {
	db := FromStrings([]string{"e"})
	marked := db.MarkRemovals(nil, time.Date(2020, 6, 15, 17, 45, 12, 0, time.UTC))

	require.Len(t, marked, 1)
	assert.Equal(t, Date(2020, 6, 15), marked[0].DateRemoved)

	purged := db.Purge(Date(2020, 6, 15))
	assert.Equal(t, []string{"e"}, strs(purged))
}

func TestPurgeCutoffIsInclusive(t *testing.T) {
	cutoff := Date(2020, 6, 15)
	db := FromEntries([]Entry{
		{Token: 1, String: "on cutoff", DateRemoved: cutoff},
		{Token: 2, String: "day after", DateRemoved: cutoff.AddDate(0, 0, 1)},
		{Token: 3, String: "before", DateRemoved: Date(2000, 1, 1)},
		{Token: 4, String: "present"},
	})

	purged := db.Purge(cutoff)

	assert.Equal(t, []string{"on cutoff", "before"}, strs(purged))
	assert.Equal(t, []string{"day after", "present"}, strs(db.Entries()))
}

func TestPurgeWithoutCutoff(t *testing.T) {
	db := FromEntries([]Entry{
		{Token: 1, String: "old", DateRemoved: Date(1970, 1, 1)},
		{Token: 2, String: "future", DateRemoved: Date(9999, 12, 31)},
		{Token: 3, String: "present"},
	})

	purged := db.Purge(time.Time{})

	assert.Len(t, purged, 2)
	assert.Equal(t, []string{"present"}, strs(db.Entries()))
}

func TestMergeReconcilesDates(t *testing.T) {
	base := FromEntries([]Entry{
		{Token: 1, String: "present"},
		{Token: 2, String: "removed", DateRemoved: Date(2020, 1, 1)},
		{Token: 3, String: "revived", DateRemoved: Date(2020, 1, 1)},
	})
	other := FromEntries([]Entry{
		{Token: 1, String: "present", DateRemoved: Date(2021, 1, 1)},
		{Token: 2, String: "removed", DateRemoved: Date(2022, 1, 1)},
		{Token: 3, String: "revived"},
		{Token: 4, String: "new", DateRemoved: Date(2019, 1, 1)},
	})

	base.Merge(other)

	assert.Equal(t, []Entry{
		{Token: 1, String: "present"},
		{Token: 2, String: "removed", DateRemoved: Date(2022, 1, 1)},
		{Token: 3, String: "revived"},
		{Token: 4, String: "new", DateRemoved: Date(2019, 1, 1)},
	}, base.Entries())
}

func TestMergeCopiesEntries(t *testing.T) {
	other := FromStrings([]string{"s"})
	db := Merged(other)

	db.MarkRemovals(nil, Date(2020, 1, 1))

	assert.False(t, entryFor(t, other, "s").Removed(), "merged database must not alias the source")
}

func TestMergeIdempotent(t *testing.T) {
	db := FromEntries([]Entry{
		{Token: 1, String: "a"},
		{Token: 2, String: "b", DateRemoved: Date(2020, 1, 1)},
	})
	before := db.Entries()

	db.Merge(db, db)

	assert.Equal(t, before, db.Entries())
}

func TestMergeCommutative(t *testing.T) {
	a := FromEntries([]Entry{
		{Token: 1, String: "x", DateRemoved: Date(2020, 1, 1)},
		{Token: 2, String: "y"},
		{Token: 3, String: "z", DateRemoved: Date(2021, 3, 1)},
	})
	b := FromEntries([]Entry{
		{Token: 1, String: "x", DateRemoved: Date(2022, 1, 1)},
		{Token: 2, String: "y", DateRemoved: Date(2019, 1, 1)},
		{Token: 4, String: "w"},
	})

	assert.Equal(t, Merged(a, b).Entries(), Merged(b, a).Entries())
}

func TestFilter(t *testing.T) {
	mustCompile := func(p ...string) []*regexp.Regexp {
		re, err := CompilePatterns(p)
		require.NoError(t, err)
		return re
	}

	t.Run("include", func(t *testing.T) {
		db := FromStrings([]string{"error: %d", "warning: %s", "info"})
		deleted := db.Filter(mustCompile("rror", "^warn"), nil)

		assert.Equal(t, []string{"info"}, strs(deleted))
		assert.ElementsMatch(t, []string{"error: %d", "warning: %s"}, strs(db.Entries()))
	})

	t.Run("exclude", func(t *testing.T) {
		db := FromStrings([]string{"error: %d", "warning: %s", "info"})
		db.Filter(nil, mustCompile("%"))

		assert.Equal(t, []string{"info"}, strs(db.Entries()))
	})

	t.Run("include and exclude", func(t *testing.T) {
		db := FromStrings([]string{"error: %d", "error: fatal", "info"})
		db.Filter(mustCompile("error"), mustCompile("fatal"))

		assert.Equal(t, []string{"error: %d"}, strs(db.Entries()))
	})

	t.Run("no patterns", func(t *testing.T) {
		db := FromStrings([]string{"a", "b"})
		assert.Empty(t, db.Filter(nil, nil))
		assert.Equal(t, 2, db.Len())
	})
}

func TestCompilePatternsRejectsInvalid(t *testing.T) {
	_, err := CompilePatterns([]string{"ok", "(unclosed"})
	assert.ErrorContains(t, err, "(unclosed")
}

func TestCollisions(t *testing.T) {
	db := FromStrings([]string{"c20019", "other"})
	assert.Empty(t, db.Collisions())

	db.Add([]string{"c1760008"})

	collisions := db.Collisions()
	require.Len(t, collisions, 1)
	assert.Equal(t, uint32(2091436893), collisions[0].Token)
	assert.Equal(t, []string{"c1760008", "c20019"}, strs(collisions[0].Entries))
}

func TestLookup(t *testing.T) {
	db := FromStrings([]string{"Hello", "World"})

	assert.Equal(t, []string{"Hello"}, strs(db.Lookup(0x17da7ef3)))
	assert.Empty(t, db.Lookup(0xdeadbeef))
}

func TestIndexInvalidatedByMutations(t *testing.T) {
	token := DefaultHash("c20019")
	day := Date(2020, 1, 1)

	steps := []struct {
		name   string
		mutate func(db *Database)
		want   []string
	}{
		{"add", func(db *Database) { db.Add([]string{"c1760008"}) }, []string{"c1760008", "c20019"}},
		{"mark removals", func(db *Database) { db.MarkRemovals([]string{"c1760008"}, day) }, []string{"c1760008", "c20019"}},
		{"purge", func(db *Database) { db.Purge(day) }, []string{"c1760008"}},
		{"merge", func(db *Database) { db.Merge(FromStrings([]string{"c20019"})) }, []string{"c1760008", "c20019"}},
		{"filter", func(db *Database) { db.Filter(nil, []*regexp.Regexp{regexp.MustCompile("^c1")}) }, []string{"c20019"}},
	}

	db := FromStrings([]string{"c20019"})
	require.Equal(t, []string{"c20019"}, strs(db.Lookup(token)))

	for _, step := range steps {
		step.mutate(db)
		assert.Equal(t, step.want, strs(db.Lookup(token)), "after %s", step.name)
	}

	db.MarkRemovals(nil, day)
	for _, e := range db.Lookup(token) {
		assert.Equal(t, day, e.DateRemoved, "index must reflect in-place date changes")
	}
}

func TestEntriesReturnsCopies(t *testing.T) {
	db := FromStrings([]string{"s"})
	entries := db.Entries()
	entries[0].String = "mutated"

	assert.Equal(t, []string{"s"}, strs(db.Entries()))
}

func TestDatabaseString(t *testing.T) {
	db := FromStrings([]string{"Hello"})
	assert.Equal(t, "17da7ef3,          ,\"Hello\"\n", db.String())
}
