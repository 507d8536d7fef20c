package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultHashKnownValues(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"", 0},
		{"A", 4263936}, // 1 + 65599*65
		{"Hello", 0x17da7ef3},
		{"World", 0x4016d473},
		{"hello", 0x17fa86d3},
		{"The answer is: %s", 0x881436a0},
		{`Say "hi"`, 0x8a5e70fc},
		{"é", 1408986152}, // hashed as the bytes c3 a9
		{strings.Repeat("a", 100), 0x0a7b7464},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultHash(tt.in), "DefaultHash(%q)", tt.in)
	}
}

func TestFixedLengthHashTruncates(t *testing.T) {
	assert.Equal(t, uint32(6363106), FixedLengthHash("abc", 1))
	assert.Equal(t, uint32(815990596), FixedLengthHash("abc", 2))
	assert.Equal(t, uint32(815990595), FixedLengthHash("ab", 2))
	assert.Equal(t, uint32(100), FixedLengthHash(strings.Repeat("a", 100), 0), "only the length is hashed")
	assert.Equal(t, FixedLengthHash("abc", 3), FixedLengthHash("abc", 1000))
}

func TestDefaultHashIgnoresBytesPastLimit(t *testing.T) {
	a := strings.Repeat("a", 100)
	b := strings.Repeat("a", 96) + "bbbb"
	assert.Equal(t, DefaultHash(a), DefaultHash(b))
	assert.NotEqual(t, DefaultHash(a), DefaultHash(a+"a"), "length always contributes")
}

func TestHashWithLength(t *testing.T) {
	fn := HashWithLength(2)
	assert.Equal(t, FixedLengthHash("abc", 2), fn("abc"))
}

func TestDefaultHashKnownCollision(t *testing.T) {
	assert.Equal(t, uint32(2091436893), DefaultHash("c20019"))
	assert.Equal(t, uint32(2091436893), DefaultHash("c1760008"))
}
