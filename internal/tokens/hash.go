package tokens

const (
	// HashConstant is the multiplier of the device-side tokenizer hash.
	HashConstant = 65599

	// DefaultHashLength is the number of leading bytes hashed by DefaultHash.
	DefaultHashLength = 96
)

// HashFunc maps a string to its token.
type HashFunc func(string) uint32

// FixedLengthHash hashes at most hashLength leading bytes of s. The full
// length of s always seeds the hash, so strings sharing a long prefix still
// differ when their lengths differ.
//
// All arithmetic is modulo 2^32; this must match the firmware bit for bit.
func FixedLengthHash(s string, hashLength int) uint32 {
	hash := uint32(len(s))
	coefficient := uint32(HashConstant)

	n := min(len(s), hashLength)
	for i := 0; i < n; i++ {
		hash += coefficient * uint32(s[i])
		coefficient *= HashConstant
	}

	return hash
}

// DefaultHash is FixedLengthHash with DefaultHashLength.
func DefaultHash(s string) uint32 {
	return FixedLengthHash(s, DefaultHashLength)
}

// HashWithLength returns a HashFunc over the first hashLength bytes.
func HashWithLength(hashLength int) HashFunc {
	return func(s string) uint32 {
		return FixedLengthHash(s, hashLength)
	}
}
