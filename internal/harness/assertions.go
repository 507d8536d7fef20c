package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/tokendb/internal/tokens"
)

// EvaluateAssertions checks every assertion against db and returns one
// message per failure.
func EvaluateAssertions(db *tokens.Database, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(db, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return failures
}

func evaluate(db *tokens.Database, a Assertion) error {
	switch a.Type {
	case AssertEntryCount:
		if db.Len() != a.Count {
			return fmt.Errorf("expected %d entries, got %d", a.Count, db.Len())
		}
		return nil

	case AssertPresent:
		e, ok := lookupString(db, a.String)
		if !ok {
			return fmt.Errorf("%q not found", a.String)
		}
		if e.Removed() {
			return fmt.Errorf("%q removed on %s, expected present", a.String, tokens.FormatDate(e.DateRemoved))
		}
		return nil

	case AssertRemoved:
		want, err := tokens.ParseDate(a.Date)
		if err != nil {
			return err
		}
		e, ok := lookupString(db, a.String)
		if !ok {
			return fmt.Errorf("%q not found", a.String)
		}
		if !e.DateRemoved.Equal(want) {
			got := tokens.FormatDate(e.DateRemoved)
			if got == "" {
				got = "present"
			}
			return fmt.Errorf("%q removal date is %s, expected %s", a.String, got, a.Date)
		}
		return nil

	case AssertAbsent:
		if e, ok := lookupString(db, a.String); ok {
			return fmt.Errorf("%q still in database under token %08x", a.String, e.Token)
		}
		return nil

	case AssertCollision:
		return assertCollision(db, a.Strings)
	}

	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertCollision(db *tokens.Database, strs []string) error {
	token := db.Tokenize(strs[0])
	for _, s := range strs[1:] {
		if db.Tokenize(s) != token {
			return fmt.Errorf("%q and %q do not share a token", strs[0], s)
		}
	}

	for _, c := range db.Collisions() {
		if c.Token != token {
			continue
		}
		for _, s := range strs {
			if !slices.ContainsFunc(c.Entries, func(e tokens.Entry) bool { return e.String == s }) {
				return fmt.Errorf("collision %08x does not include %q", token, s)
			}
		}
		return nil
	}
	return fmt.Errorf("no collision reported for token %08x", token)
}

func lookupString(db *tokens.Database, s string) (tokens.Entry, bool) {
	return db.Get(tokens.Key{Token: db.Tokenize(s), String: s})
}
