package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/tokendb/internal/tokens"
)

// maxLineSize bounds a single string read from a text input.
const maxLineSize = 1 << 20

// loadInputs reads every input into a single database. Databases among the
// inputs keep their removal dates; strings from text inputs are present.
// Inputs are read concurrently.
func loadInputs(ctx context.Context, paths []string) (*tokens.Database, error) {
	loaded := make([]*tokens.Database, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			db, err := loadInput(path)
			if err != nil {
				return err
			}
			loaded[i] = db
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return tokens.Merged(loaded...), nil
}

// loadInput reads one input: a binary database (detected by magic), a CSV
// database (by extension), or a text file holding one string per line.
func loadInput(path string) (*tokens.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	if tokens.IsBinary(f) || strings.EqualFold(filepath.Ext(path), ".csv") {
		db, format, err := tokens.Read(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		slog.Debug("loaded token database", "path", path, "format", format, "entries", db.Len())
		return db, nil
	}

	strs, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	slog.Debug("loaded strings", "path", path, "count", len(strs))
	return tokens.FromStrings(strs), nil
}

// readLines returns each line of r without its terminator. A trailing
// newline does not produce an empty final string.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// applyFilter removes entries that fail the include/exclude patterns.
func applyFilter(db *tokens.Database, include, exclude []string) ([]tokens.Entry, error) {
	inc, err := tokens.CompilePatterns(include)
	if err != nil {
		return nil, err
	}
	exc, err := tokens.CompilePatterns(exclude)
	if err != nil {
		return nil, err
	}
	return db.Filter(inc, exc), nil
}

// parseDateFlag parses an optional YYYY-MM-DD flag value. Empty yields the
// zero time, which database operations treat as their default.
func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return tokens.ParseDate(s)
}

// parseToken parses a hexadecimal token, with or without a 0x prefix.
func parseToken(s string) (uint32, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(clean, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid token %q: expected up to 8 hex digits", s)
	}
	return uint32(v), nil
}

// readErrorCode maps a database load failure to its CLI error code.
func readErrorCode(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	case errors.Is(err, tokens.ErrMagicMismatch), errors.Is(err, tokens.ErrTruncated):
		return ErrCodeReadFailed
	}
	return ErrCodeGeneric
}

// loadDatabase opens the database named by -d, reporting failures through f.
func loadDatabase(f *OutputFormatter, path string) (*tokens.DatabaseFile, error) {
	if path == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeInvalidArg, errors.New("no database given: use -d/--database"))
	}
	file, err := tokens.LoadFile(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, readErrorCode(err), err)
	}
	f.VerboseLog("Loaded %d entries from %s (%s)", file.Len(), path, file.Format)
	return file, nil
}

// saveDatabase writes file back to its path.
func saveDatabase(f *OutputFormatter, file *tokens.DatabaseFile) error {
	if err := file.WriteToFile(""); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, err)
	}
	f.VerboseLog("Wrote %d entries to %s (%s)", file.Len(), file.Path, file.Format)
	return nil
}
