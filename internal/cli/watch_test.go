package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tokendb/internal/tokens"
)

func TestWatchAddsChangedInputs(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "tokens.csv")
	input := writeLines(t, dir, "strings.txt", "Hello")
	require.NoError(t, tokens.NewDatabaseFile(db, tokens.FormatCSV, tokens.New()).WriteToFile(""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-d", db, "--debounce", "10ms", input})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	hasStrings := func(want ...string) func() bool {
		return func() bool {
			file, err := tokens.LoadFile(db)
			if err != nil {
				return false
			}
			return assert.ObjectsAreEqual(want, entryStrings(file.Entries()))
		}
	}

	require.Eventually(t, hasStrings("Hello"), 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(input, []byte("Hello\nWorld\n"), 0644))
	require.Eventually(t, hasStrings("Hello", "World"), 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestWatchUpdateMarksRemovals(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "tokens.bin")
	require.NoError(t, tokens.NewDatabaseFile(db, tokens.FormatBinary, tokens.FromStrings([]string{"old", "kept"})).WriteToFile(""))
	input := writeLines(t, dir, "strings.txt", "kept", "new")

	opts := &WatchOptions{RootOptions: &RootOptions{}, Database: db, MarkRemoved: true}
	changed, err := watchUpdate(context.Background(), opts, []string{input})
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	file, err := tokens.LoadFile(db)
	require.NoError(t, err)
	old, ok := file.Get(tokens.Key{Token: tokens.DefaultHash("old"), String: "old"})
	require.True(t, ok)
	assert.Equal(t, tokens.Today(), old.DateRemoved)

	changed, err = watchUpdate(context.Background(), opts, []string{input})
	require.NoError(t, err)
	assert.Zero(t, changed, "second pass is a no-op")
}

func TestWatchMissingDatabase(t *testing.T) {
	dir := t.TempDir()
	errOut := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"-d", filepath.Join(dir, "missing.bin"), writeLines(t, dir, "in.txt", "a")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "Error [E002]")
}
