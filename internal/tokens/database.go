package tokens

import (
	"bytes"
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"time"
)

// Database stores each unique (token, string) entry.
//
// A token index is derived lazily for lookups and collision reports. Every
// mutating method drops the index before returning; tokenIndex is the only
// place that builds it.
type Database struct {
	entries  map[Key]*Entry
	tokenize HashFunc

	// index is nil whenever it may be stale.
	index map[uint32][]*Entry
}

// Option configures a Database.
type Option func(*Database)

// WithHash sets the function used to tokenize added strings.
func WithHash(fn HashFunc) Option {
	return func(db *Database) {
		db.tokenize = fn
	}
}

// New creates an empty database using DefaultHash unless overridden.
func New(opts ...Option) *Database {
	db := &Database{
		entries:  make(map[Key]*Entry),
		tokenize: DefaultHash,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// FromEntries creates a database holding copies of the given entries. A
// repeated key keeps the last occurrence.
func FromEntries(entries []Entry, opts ...Option) *Database {
	db := New(opts...)
	for _, e := range entries {
		entry := e
		db.entries[e.Key()] = &entry
	}
	return db
}

// FromStrings creates a database of present entries, one per string.
func FromStrings(strs []string, opts ...Option) *Database {
	db := New(opts...)
	db.Add(strs)
	return db
}

// Merged creates a database from one or more other databases.
func Merged(dbs ...*Database) *Database {
	db := New()
	db.Merge(dbs...)
	return db
}

// Tokenize hashes s with the database's hash function.
func (db *Database) Tokenize(s string) uint32 {
	return db.tokenize(s)
}

// Len returns the number of entries.
func (db *Database) Len() int {
	return len(db.entries)
}

// Entries returns copies of all entries in canonical order.
func (db *Database) Entries() []Entry {
	out := make([]Entry, 0, len(db.entries))
	for _, e := range db.entries {
		out = append(out, *e)
	}
	SortEntries(out)
	return out
}

// Get returns the entry for key.
func (db *Database) Get(key Key) (Entry, bool) {
	e, ok := db.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// tokenIndex returns the token index, rebuilding it from the entries if a
// mutation discarded it.
func (db *Database) tokenIndex() map[uint32][]*Entry {
	if db.index == nil {
		index := make(map[uint32][]*Entry)
		for _, e := range db.entries {
			index[e.Token] = append(index[e.Token], e)
		}
		db.index = index
	}
	return db.index
}

// invalidate drops the token index.
func (db *Database) invalidate() {
	db.index = nil
}

// Lookup returns the entries for a token in canonical order.
func (db *Database) Lookup(token uint32) []Entry {
	return copyEntries(db.tokenIndex()[token])
}

// Collision is a token shared by more than one string.
type Collision struct {
	Token   uint32
	Entries []Entry
}

// Collisions returns every token with more than one entry, ordered by token.
func (db *Database) Collisions() []Collision {
	var out []Collision
	for token, entries := range db.tokenIndex() {
		if len(entries) > 1 {
			out = append(out, Collision{Token: token, Entries: copyEntries(entries)})
		}
	}
	sortCollisions(out)
	return out
}

// Add inserts strings as present entries. A string that was marked removed
// becomes present again.
func (db *Database) Add(strs []string) {
	defer db.invalidate()

	for _, s := range strs {
		key := Key{Token: db.tokenize(s), String: s}
		if e, ok := db.entries[key]; ok {
			e.DateRemoved = time.Time{}
			continue
		}
		db.entries[key] = &Entry{Token: key.Token, String: s}
	}
}

// MarkRemovals treats allStrings as the complete set of live strings and
// marks every other entry as removed on the UTC calendar day of removalDate
// (today if zero). An entry already removed on an earlier date keeps that
// date. Strings not in the database are not added.
//
// Returns the entries whose removal date changed.
func (db *Database) MarkRemovals(allStrings []string, removalDate time.Time) []Entry {
	defer db.invalidate()

	if removalDate.IsZero() {
		removalDate = Today()
	}
	removalDate = CalendarDay(removalDate)
	if removalDate.IsZero() {
		return nil
	}

	live := make(map[string]struct{}, len(allStrings))
	for _, s := range allStrings {
		live[s] = struct{}{}
	}

	var marked []Entry
	for _, e := range db.entries {
		if _, ok := live[e.String]; ok {
			continue
		}
		if !e.Removed() || removalDate.Before(e.DateRemoved) {
			e.DateRemoved = removalDate
			marked = append(marked, *e)
		}
	}

	SortEntries(marked)
	return marked
}

// Purge deletes and returns entries removed on or before cutoff. A zero
// cutoff purges every removed entry. Present entries are never purged.
func (db *Database) Purge(cutoff time.Time) []Entry {
	defer db.invalidate()

	var purged []Entry
	for key, e := range db.entries {
		if !e.Removed() {
			continue
		}
		if cutoff.IsZero() || !e.DateRemoved.After(cutoff) {
			purged = append(purged, *e)
			delete(db.entries, key)
		}
	}

	SortEntries(purged)
	return purged
}

// Merge folds the entries of other databases into db. New keys are copied
// in. For existing keys a present entry stays present, and otherwise the
// later removal date wins.
func (db *Database) Merge(others ...*Database) {
	defer db.invalidate()

	for _, other := range others {
		for key, incoming := range other.entries {
			if e, ok := db.entries[key]; ok {
				e.updateDateRemoved(incoming.DateRemoved)
				continue
			}
			entry := *incoming
			db.entries[key] = &entry
		}
	}
}

// Filter deletes entries whose string matches none of include (when include
// is non-empty) or matches any of exclude. Patterns match anywhere in the
// string. Returns the deleted entries.
func (db *Database) Filter(include, exclude []*regexp.Regexp) []Entry {
	defer db.invalidate()

	var deleted []Entry
	for key, e := range db.entries {
		keep := len(include) == 0 || matchAny(include, e.String)
		if keep && !matchAny(exclude, e.String) {
			continue
		}
		deleted = append(deleted, *e)
		delete(db.entries, key)
	}

	SortEntries(deleted)
	return deleted
}

// String renders the database in the CSV encoding.
func (db *Database) String() string {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, db); err != nil {
		return fmt.Sprintf("<tokens.Database: %v>", err)
	}
	return buf.String()
}

// CompilePatterns compiles regular expressions for Filter.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func copyEntries(entries []*Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	SortEntries(out)
	return out
}

func sortCollisions(c []Collision) {
	slices.SortFunc(c, func(a, b Collision) int {
		return cmp.Compare(a.Token, b.Token)
	})
}
