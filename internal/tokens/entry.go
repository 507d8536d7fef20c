package tokens

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the textual form of a removal date.
const DateLayout = "2006-01-02"

// ErrReservedDate is returned for 0001-01-01, which cannot be told apart
// from a present entry.
var ErrReservedDate = errors.New("0001-01-01 is reserved for present entries")

// Key identifies an entry. Distinct strings may share a token.
type Key struct {
	Token  uint32
	String string
}

// Entry is a tokenized string with its removal date.
type Entry struct {
	Token  uint32
	String string

	// DateRemoved is the zero time while the string is still present in the
	// latest build.
	DateRemoved time.Time
}

// Key returns the uniqueness key of the entry.
func (e Entry) Key() Key {
	return Key{Token: e.Token, String: e.String}
}

// Removed reports whether the entry has a removal date.
func (e Entry) Removed() bool {
	return !e.DateRemoved.IsZero()
}

// GoString renders the entry for test failure output.
func (e Entry) GoString() string {
	if !e.Removed() {
		return fmt.Sprintf("Entry{%08x %q}", e.Token, e.String)
	}
	return fmt.Sprintf("Entry{%08x %q removed %s}", e.Token, e.String, FormatDate(e.DateRemoved))
}

// updateDateRemoved folds in another observation of the same key. A present
// entry stays present; otherwise the later of the two dates is kept, and an
// observation without a date makes the entry present again.
func (e *Entry) updateDateRemoved(other time.Time) {
	if !e.Removed() {
		return
	}
	if other.IsZero() || other.After(e.DateRemoved) {
		e.DateRemoved = other
	}
}

// compareDates orders removal dates with the zero time as the maximum.
func compareDates(a, b time.Time) int {
	switch {
	case a.Equal(b):
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return a.Compare(b)
}

// CompareEntries is the canonical order: token ascending, removal date
// descending (present first), string ascending.
func CompareEntries(a, b Entry) int {
	if c := cmp.Compare(a.Token, b.Token); c != 0 {
		return c
	}
	if c := compareDates(a.DateRemoved, b.DateRemoved); c != 0 {
		return -c
	}
	return strings.Compare(a.String, b.String)
}

// SortEntries sorts entries into canonical order in place.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, CompareEntries)
}

// Date returns the removal date for a calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in UTC.
func Today() time.Time {
	return CalendarDay(time.Now())
}

// ParseDate parses a YYYY-MM-DD removal date. 0001-01-01 is rejected: it is
// the zero time, which marks an entry as present.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, ErrReservedDate)
	}
	return t, nil
}

// CalendarDay truncates t to midnight UTC of its UTC calendar day.
func CalendarDay(t time.Time) time.Time {
	t = t.UTC()
	return Date(t.Year(), t.Month(), t.Day())
}

// FormatDate formats a removal date, or returns "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
