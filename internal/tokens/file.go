package tokens

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Format identifies a database encoding.
type Format int

const (
	FormatBinary Format = iota
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatCSV:
		return "csv"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses "binary" or "csv".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "binary":
		return FormatBinary, nil
	case "csv":
		return FormatCSV, nil
	}
	return 0, fmt.Errorf("unknown database format %q: must be binary or csv", s)
}

// Read loads a database from r, detecting the format from the magic bytes.
func Read(r io.ReadSeeker, opts ...Option) (*Database, Format, error) {
	var (
		entries []Entry
		format  Format
		err     error
	)
	if IsBinary(r) {
		format = FormatBinary
		entries, err = ParseBinary(r)
	} else {
		format = FormatCSV
		entries, err = ParseCSV(r)
	}
	if err != nil {
		return nil, format, err
	}
	return FromEntries(entries, opts...), format, nil
}

// Write encodes db to w in the given format.
func Write(w io.Writer, db *Database, format Format) error {
	switch format {
	case FormatBinary:
		return WriteBinary(w, db)
	case FormatCSV:
		return WriteCSV(w, db)
	}
	return fmt.Errorf("write database: unknown format %v", format)
}

// DatabaseFile is a Database tied to the file it was loaded from. Writes
// use the format the file was read in.
type DatabaseFile struct {
	*Database

	Path   string
	Format Format
}

// NewDatabaseFile binds db to a path that will be written in format.
func NewDatabaseFile(path string, format Format, db *Database) *DatabaseFile {
	return &DatabaseFile{Database: db, Path: path, Format: format}
}

// LoadFile reads a binary or CSV token database from path.
func LoadFile(path string, opts ...Option) (*DatabaseFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token database: %w", err)
	}
	defer f.Close()

	db, format, err := Read(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return NewDatabaseFile(path, format, db), nil
}

// WriteToFile writes the database to path, or to the original path if path
// is empty, in the file's format.
func (f *DatabaseFile) WriteToFile(path string) error {
	if path == "" {
		path = f.Path
	}

	var buf bytes.Buffer
	if err := Write(&buf, f.Database, f.Format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write token database: %w", err)
	}
	return nil
}
