package tokens

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// goldenDatabase covers present and removed entries, a collision, an empty
// string and a string with quotes.
func goldenDatabase() *Database {
	db := FromStrings([]string{"Hello", "World", `Say "hi"`, "c20019", "c1760008", ""})
	db.MarkRemovals([]string{"Hello", `Say "hi"`, "c20019", ""}, Date(2021, 3, 4))
	db.MarkRemovals([]string{"Hello", `Say "hi"`, "c20019", "", "World"}, Date(2019, 12, 31))
	return db
}

func hexDump(data []byte) []byte {
	var sb strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		hexBytes := make([]string, 0, 16)
		for _, b := range data[off:end] {
			hexBytes = append(hexBytes, fmt.Sprintf("%02x", b))
		}
		fmt.Fprintf(&sb, "%08x  %s\n", off, strings.Join(hexBytes, " "))
	}
	return []byte(sb.String())
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestGoldenCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, goldenDatabase()))

	newGoldie(t).Assert(t, "database.csv", buf.Bytes())
}

func TestGoldenBinary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, goldenDatabase()))

	newGoldie(t).Assert(t, "database.bin", hexDump(buf.Bytes()))
}
