// Package tokens implements the host-side database of tokenized strings.
//
// Firmware replaces format strings with 32-bit tokens computed by a fixed
// hash (see DefaultHash). The host keeps a Database mapping tokens back to
// strings across builds. Entries are keyed by (token, string): two strings
// sharing a token are a collision and are both kept.
//
// # Removal dates
//
// Each entry carries an optional removal date. The zero time.Time means the
// string is present in the latest known build, and it sorts after every
// concrete date. MarkRemovals converges on the earliest removal date seen;
// Merge prefers evidence of continued presence.
//
// # Encodings
//
// Databases persist as either a packed binary file (magic "TOKENS\0\0") or a
// CSV file. LoadFile detects the format from the magic bytes and
// DatabaseFile.WriteToFile writes back in the same format.
//
// A Database is not safe for concurrent use.
package tokens
