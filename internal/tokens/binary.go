package tokens

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// BinaryMagic starts every binary token database.
const BinaryMagic = "TOKENS\x00\x00"

const (
	binaryHeaderSize = 16
	binaryEntrySize  = 8

	// Day 0xff / month 0xff / year 0xffff is not a calendar date, and marks
	// an entry that is still present.
	presentDay   = 0xff
	presentMonth = 0xff
	presentYear  = 0xffff
)

var (
	// ErrMagicMismatch is returned when a binary database header does not
	// start with BinaryMagic.
	ErrMagicMismatch = errors.New("magic number mismatch")

	// ErrTruncated is returned when a binary database ends early.
	ErrTruncated = errors.New("truncated binary token database")

	// ErrEmbeddedNUL is returned when writing a string that contains a NUL
	// byte, which the NUL-terminated string table cannot represent.
	ErrEmbeddedNUL = errors.New("string contains a NUL byte")
)

type binaryHeader struct {
	Magic      [8]byte
	EntryCount uint32
	_          [4]byte
}

type binaryEntry struct {
	Token uint32
	Day   uint8
	Month uint8
	Year  uint16
}

// IsBinary reports whether r starts with BinaryMagic. The read position is
// restored to the start of the stream.
func IsBinary(r io.ReadSeeker) bool {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false
	}
	magic := make([]byte, len(BinaryMagic))
	n, _ := io.ReadFull(r, magic)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return n == len(BinaryMagic) && string(magic) == BinaryMagic
}

// WriteBinary writes the database in the packed binary format: a 16-byte
// header, one 8-byte record per entry in canonical order, then the
// NUL-terminated strings in the same order. A string containing NUL fails
// with ErrEmbeddedNUL before anything is written.
func WriteBinary(w io.Writer, db *Database) error {
	entries := db.Entries()
	for _, e := range entries {
		if strings.IndexByte(e.String, 0) >= 0 {
			return fmt.Errorf("write binary entry %08x %q: %w", e.Token, e.String, ErrEmbeddedNUL)
		}
	}

	bw := bufio.NewWriter(w)
	header := binaryHeader{EntryCount: uint32(len(entries))}
	copy(header.Magic[:], BinaryMagic)
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write binary header: %w", err)
	}

	var strs bytes.Buffer
	for _, e := range entries {
		if err := binary.Write(bw, binary.LittleEndian, encodeEntry(e)); err != nil {
			return fmt.Errorf("write binary entry: %w", err)
		}
		strs.WriteString(e.String)
		strs.WriteByte(0)
	}

	if _, err := strs.WriteTo(bw); err != nil {
		return fmt.Errorf("write string table: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write binary: %w", err)
	}
	return nil
}

func encodeEntry(e Entry) binaryEntry {
	if !e.Removed() {
		return binaryEntry{Token: e.Token, Day: presentDay, Month: presentMonth, Year: presentYear}
	}
	d := e.DateRemoved
	return binaryEntry{
		Token: e.Token,
		Day:   uint8(d.Day()),
		Month: uint8(d.Month()),
		Year:  uint16(d.Year()),
	}
}

// ParseBinary reads entries from a binary token database. A record whose
// day, month and year do not form a calendar date is read as present.
func ParseBinary(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)

	var header binaryHeader
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read binary header: %w", truncated(err))
	}
	if string(header.Magic[:]) != BinaryMagic {
		return nil, fmt.Errorf("%w (found %q, expected %q)", ErrMagicMismatch, header.Magic[:], BinaryMagic)
	}

	entries := make([]Entry, 0, min(header.EntryCount, 1<<16))
	for i := uint32(0); i < header.EntryCount; i++ {
		var rec binaryEntry
		if err := binary.Read(br, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("read binary entry %d: %w", i, truncated(err))
		}
		date := decodeDate(rec.Year, rec.Month, rec.Day)
		if date.IsZero() && (rec.Day != presentDay || rec.Month != presentMonth || rec.Year != presentYear) {
			slog.Warn("invalid removal date, reading entry as present",
				"token", fmt.Sprintf("%08x", rec.Token), "year", rec.Year, "month", rec.Month, "day", rec.Day)
		}
		entries = append(entries, Entry{Token: rec.Token, DateRemoved: date})
	}

	table, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("read string table: %w", err)
	}

	for i := range entries {
		end := bytes.IndexByte(table, 0)
		if end < 0 {
			return nil, fmt.Errorf("string %d of %d: %w", i, len(entries), ErrTruncated)
		}
		entries[i].String = string(table[:end])
		table = table[end+1:]
	}

	return entries, nil
}

// decodeDate returns the calendar date, or the zero time if the triplet is
// not a valid date between years 1 and 9999. 0001-01-01 decodes to the zero
// time as well.
func decodeDate(year uint16, month, day uint8) time.Time {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return time.Time{}
	}
	d := Date(int(year), time.Month(month), int(day))
	if d.Day() != int(day) || d.Month() != time.Month(month) {
		return time.Time{}
	}
	return d
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
