package tokens

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDatabase(t *testing.T, dir, name string, db *Database, format Format) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, NewDatabaseFile(path, format, db).WriteToFile(""))
	return path
}

func TestLoadFileDetectsFormat(t *testing.T) {
	dir := t.TempDir()
	db := goldenDatabase()

	for _, format := range []Format{FormatBinary, FormatCSV} {
		t.Run(format.String(), func(t *testing.T) {
			path := writeDatabase(t, dir, "db."+format.String(), db, format)

			file, err := LoadFile(path)
			require.NoError(t, err)

			assert.Equal(t, format, file.Format)
			assert.Equal(t, path, file.Path)
			assert.Equal(t, db.Entries(), file.Entries())
		})
	}
}

func TestWriteToFileKeepsFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeDatabase(t, dir, "tokens.csv", FromStrings([]string{"a"}), FormatCSV)

	file, err := LoadFile(path)
	require.NoError(t, err)
	file.Add([]string{"b"})

	copyPath := filepath.Join(dir, "copy")
	require.NoError(t, file.WriteToFile(copyPath))

	data, err := os.ReadFile(copyPath)
	require.NoError(t, err)
	assert.Equal(t, file.String(), string(data))

	reloaded, err := LoadFile(copyPath)
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, reloaded.Format)
	assert.Equal(t, 2, reloaded.Len())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.bin"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadFileUsesHashOption(t *testing.T) {
	path := writeDatabase(t, t.TempDir(), "db.csv", New(), FormatCSV)

	file, err := LoadFile(path, WithHash(HashWithLength(1)))
	require.NoError(t, err)
	file.Add([]string{"ab"})

	assert.Equal(t, FixedLengthHash("ab", 1), file.Entries()[0].Token)
}

func TestReadAndWrite(t *testing.T) {
	db := goldenDatabase()

	for _, format := range []Format{FormatBinary, FormatCSV} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, db, format))

		got, detected, err := Read(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, format, detected)
		assert.Equal(t, db.Entries(), got.Entries())
	}

	assert.Error(t, Write(&bytes.Buffer{}, db, Format(9)))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("binary")
	require.NoError(t, err)
	assert.Equal(t, FormatBinary, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("json")
	assert.Error(t, err)
	assert.Equal(t, "Format(9)", Format(9).String())
}

func TestDatabaseFileLifecycle(t *testing.T) {
	removed := Date(2023, 4, 5)
	path := writeDatabase(t, t.TempDir(), "tokens.bin", FromStrings([]string{"Hello", "World"}), FormatBinary)

	file, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, FormatBinary, file.Format)

	marked := file.MarkRemovals([]string{"Hello"}, removed)
	require.Equal(t, []Entry{{Token: DefaultHash("World"), String: "World", DateRemoved: removed}}, marked)
	assert.False(t, entryFor(t, file.Database, "Hello").Removed())

	purged := file.Purge(removed)
	assert.Equal(t, marked, purged)

	require.NoError(t, file.WriteToFile(""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entries, err := ParseBinary(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Token: DefaultHash("Hello"), String: "Hello"}}, entries)
}
