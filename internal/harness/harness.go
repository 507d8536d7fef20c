package harness

import (
	"bytes"
	"fmt"
	"time"

	"github.com/roach88/tokendb/internal/testutil"
	"github.com/roach88/tokendb/internal/tokens"
)

// StepResult records the outcome of one step.
type StepResult struct {
	Op string `json:"op"`

	// Affected holds the entries marked, purged or filtered out by the step.
	Affected []tokens.Entry `json:"-"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect_affected count and assertion held.
	Pass bool

	// Database is the final state.
	Database *tokens.Database

	// Steps has one result per scenario step.
	Steps []StepResult

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string
}

func newResult(db *tokens.Database) *Result {
	return &Result{Pass: true, Database: db, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario against a fresh database.
//
// Returns an error if a step cannot execute (bad date, bad pattern, codec
// failure). Failed expectations and assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	var opts []tokens.Option
	if scenario.HashLength > 0 {
		opts = append(opts, tokens.WithHash(tokens.HashWithLength(scenario.HashLength)))
	}

	db := tokens.FromStrings(scenario.Strings, opts...)
	clock := testutil.NewDateClock(time.Time{})
	result := newResult(db)

	for i, step := range scenario.Steps {
		affected, err := executeStep(result, step, clock, opts)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		result.Steps = append(result.Steps, StepResult{Op: step.Op, Affected: affected})

		if step.ExpectAffected != nil && len(affected) != *step.ExpectAffected {
			result.AddError(fmt.Sprintf("step %d (%s): expected %d affected entries, got %d",
				i, step.Op, *step.ExpectAffected, len(affected)))
		}
	}

	for _, msg := range EvaluateAssertions(result.Database, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func executeStep(result *Result, step Step, clock *testutil.DateClock, opts []tokens.Option) ([]tokens.Entry, error) {
	db := result.Database

	switch step.Op {
	case OpAdd:
		db.Add(step.Strings)
		return nil, nil

	case OpMarkRemovals:
		date, err := parseOptionalDate(step.Date)
		if err != nil {
			return nil, err
		}
		if date.IsZero() {
			date = clock.Next()
		}
		return db.MarkRemovals(step.Strings, date), nil

	case OpPurge:
		cutoff, err := parseOptionalDate(step.Date)
		if err != nil {
			return nil, err
		}
		return db.Purge(cutoff), nil

	case OpMerge:
		other, err := buildDatabase(db, step.Entries)
		if err != nil {
			return nil, err
		}
		db.Merge(other)
		return nil, nil

	case OpFilter:
		include, err := tokens.CompilePatterns(step.Include)
		if err != nil {
			return nil, err
		}
		exclude, err := tokens.CompilePatterns(step.Exclude)
		if err != nil {
			return nil, err
		}
		return db.Filter(include, exclude), nil

	case OpRoundTrip:
		format, err := tokens.ParseFormat(step.Format)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := tokens.Write(&buf, db, format); err != nil {
			return nil, err
		}
		decoded, detected, err := tokens.Read(bytes.NewReader(buf.Bytes()), opts...)
		if err != nil {
			return nil, err
		}
		if detected != format {
			return nil, fmt.Errorf("wrote %s but read back %s", format, detected)
		}
		result.Database = decoded
		return nil, nil
	}

	return nil, fmt.Errorf("unknown op %q", step.Op)
}

func buildDatabase(db *tokens.Database, specs []EntrySpec) (*tokens.Database, error) {
	entries := make([]tokens.Entry, 0, len(specs))
	for _, spec := range specs {
		date, err := parseOptionalDate(spec.DateRemoved)
		if err != nil {
			return nil, err
		}
		entries = append(entries, tokens.Entry{
			Token:       db.Tokenize(spec.String),
			String:      spec.String,
			DateRemoved: date,
		})
	}
	return tokens.FromEntries(entries), nil
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return tokens.ParseDate(s)
}
