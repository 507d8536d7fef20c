package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "end_to_end.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "end_to_end", scenario.Name)
	assert.Equal(t, []string{"Hello", "World"}, scenario.Strings)
	require.Len(t, scenario.Steps, 4)
	assert.Equal(t, OpMarkRemovals, scenario.Steps[1].Op)
	assert.Equal(t, "2023-04-05", scenario.Steps[1].Date)
	require.NotNil(t, scenario.Steps[1].ExpectAffected)
	assert.Equal(t, 1, *scenario.Steps[1].ExpectAffected)
	assert.Len(t, scenario.Assertions, 3)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenarioUnquotedDate(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: dates
description: d
steps:
  - op: purge
    date: 2020-01-02
`))
	require.NoError(t, err)
	assert.Equal(t, "2020-01-02", scenario.Steps[0].Date)
}

func TestParseScenarioValidation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing name", "description: d\nsteps: [{op: purge}]", "name is required"},
		{"missing description", "name: n\nsteps: [{op: purge}]", "description is required"},
		{"no steps", "name: n\ndescription: d", "steps list is required"},
		{"unknown field", "name: n\ndescription: d\nstep: []", "field step not found"},
		{"unknown op", "name: n\ndescription: d\nsteps: [{op: explode}]", `unknown op "explode"`},
		{"missing op", "name: n\ndescription: d\nsteps: [{strings: [a]}]", "op is required"},
		{"add without strings", "name: n\ndescription: d\nsteps: [{op: add}]", "add requires strings"},
		{"merge without entries", "name: n\ndescription: d\nsteps: [{op: merge}]", "merge requires entries"},
		{"empty filter", "name: n\ndescription: d\nsteps: [{op: filter}]", "filter requires include or exclude"},
		{"bad format", "name: n\ndescription: d\nsteps: [{op: roundtrip, format: json}]", "roundtrip format"},
		{"negative hash length", "name: n\ndescription: d\nhash_length: -1\nsteps: [{op: purge}]", "hash_length"},
		{"bad assertion", "name: n\ndescription: d\nsteps: [{op: purge}]\nassertions: [{type: bogus}]", "unknown assertion type"},
		{"removed without date", "name: n\ndescription: d\nsteps: [{op: purge}]\nassertions: [{type: removed, string: a}]", "removed requires date"},
		{"short collision", "name: n\ndescription: d\nsteps: [{op: purge}]\nassertions: [{type: collision, strings: [a]}]", "at least two strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
