package tokens

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteCSV writes the database as CSV in canonical order.
//
// Each line is `token,date,"string"`: eight hex digits, the removal date
// padded to ten columns, and the string with quotes doubled. Lines end in
// "\n", not RFC 4180's "\r\n".
func WriteCSV(w io.Writer, db *Database) error {
	bw := bufio.NewWriter(w)
	for _, e := range db.Entries() {
		_, err := fmt.Fprintf(bw, "%08x,%-10s,\"%s\"\n",
			e.Token, FormatDate(e.DateRemoved), strings.ReplaceAll(e.String, `"`, `""`))
		if err != nil {
			return fmt.Errorf("write csv entry: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ParseCSV reads entries from a CSV token database.
//
// Malformed rows are logged and skipped. Only read errors from r are
// returned. A leading UTF-8 byte order mark is ignored. Quoted strings are
// kept byte for byte, so a "\r\n" inside a string survives a round trip.
func ParseCSV(r io.Reader) ([]Entry, error) {
	rr := &recordReader{r: bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))}

	var entries []Entry
	for {
		record, line, err := rr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		fields, err := splitRecord(record)
		if err == nil {
			var entry Entry
			if entry, err = parseCSVRecord(fields); err == nil {
				entries = append(entries, entry)
				continue
			}
		}
		slog.Error("failed to parse tokenized string entry", "line", line, "record", string(record), "error", err)
	}

	return entries, nil
}

// recordReader splits CSV input into records. Unlike encoding/csv it does not
// fold "\r\n" to "\n" inside quoted fields.
type recordReader struct {
	r    *bufio.Reader
	line int
}

// next returns the next record without its line terminator, and the line it
// starts on.
func (rr *recordReader) next() ([]byte, int, error) {
	start := rr.line + 1
	var record []byte
	quoted := false
	for {
		b, err := rr.r.ReadByte()
		if errors.Is(err, io.EOF) {
			if len(record) == 0 {
				return nil, start, io.EOF
			}
			return bytes.TrimSuffix(record, []byte{'\r'}), start, nil
		}
		if err != nil {
			return nil, start, err
		}
		switch b {
		case '"':
			quoted = !quoted
		case '\n':
			rr.line++
			if !quoted {
				return bytes.TrimSuffix(record, []byte{'\r'}), start, nil
			}
		}
		record = append(record, b)
	}
}

// splitRecord splits a record into its token, date and string columns. The
// first two go through encoding/csv; the string column is unquoted here so
// its bytes are preserved.
func splitRecord(record []byte) ([]string, error) {
	split, commas := -1, 0
	quoted := false
	for i, b := range record {
		switch {
		case b == '"':
			quoted = !quoted
		case b == ',' && !quoted:
			commas++
		}
		if commas == 2 {
			split = i
			break
		}
	}
	if split < 0 {
		return nil, fmt.Errorf("expected 3 columns, found %d", commas+1)
	}

	cr := csv.NewReader(bytes.NewReader(record[:split]))
	cr.FieldsPerRecord = 2
	fields, err := cr.Read()
	if err != nil {
		return nil, err
	}

	str, err := unquoteField(record[split+1:])
	if err != nil {
		return nil, err
	}
	return append(fields, str), nil
}

// unquoteField decodes the last column of a record. A quoted field has its
// "" escapes undone; an unquoted one is taken as is.
func unquoteField(field []byte) (string, error) {
	if len(field) == 0 || field[0] != '"' {
		if i := bytes.IndexAny(field, `",`); i >= 0 {
			if field[i] == ',' {
				return "", errors.New("expected 3 columns, found more")
			}
			return "", errors.New(`bare " in unquoted field`)
		}
		return string(field), nil
	}

	var sb strings.Builder
	for i := 1; i < len(field); i++ {
		if field[i] != '"' {
			sb.WriteByte(field[i])
			continue
		}
		switch {
		case i+1 == len(field):
			return sb.String(), nil
		case field[i+1] == '"':
			sb.WriteByte('"')
			i++
		case field[i+1] == ',':
			return "", errors.New("expected 3 columns, found more")
		default:
			return "", fmt.Errorf("unexpected %q after closing quote", field[i+1])
		}
	}
	return "", errors.New("unterminated quoted string")
}

func parseCSVRecord(record []string) (Entry, error) {
	if len(record) != 3 {
		return Entry{}, fmt.Errorf("expected 3 columns, found %d", len(record))
	}

	token, err := strconv.ParseUint(strings.TrimSpace(record[0]), 16, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid token %q: %w", record[0], err)
	}

	var removed time.Time
	if date := strings.TrimSpace(record[1]); date != "" {
		if removed, err = ParseDate(date); err != nil {
			return Entry{}, err
		}
	}

	if !utf8.ValidString(record[2]) {
		return Entry{}, errors.New("string is not valid UTF-8")
	}

	return Entry{
		Token:       uint32(token),
		String:      record[2],
		DateRemoved: removed,
	}, nil
}
