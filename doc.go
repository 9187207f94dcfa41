// Package plist implements encoding and decoding of Apple's property lists,
// with a focus on the binary "bplist00" format.
//
// # Binary format
//
// A binary property list is laid out as
//
//	["bplist00"][object bodies][offset table][32-byte trailer]
//
// with all multi-byte values big-endian. The trailer holds, in order: five
// unused bytes, the sort version, the width of an offset table entry, the
// width of an object reference, the object count, the index of the top
// object and the position of the offset table.
//
// Each object starts with a marker byte. Its high nibble names the kind
// (null/boolean, integer, real, date, data, ASCII string, UTF-16 string,
// UID, array, set, dictionary); for sized kinds the low nibble holds the
// element count, or 0xF followed by the count as an integer object.
//
// Encoding first flattens the value into an object table: every distinct
// leaf value is written once and referenced by index, so a string that
// occurs a hundred times costs one object and a hundred references.
// Booleans and integers never share an entry, and neither do the empty
// values of different kinds. The same container reached twice is written
// once; equal but distinct containers are written separately.
//
// # Untrusted input
//
// Decoding checks every offset, count and reference against the input
// before using it, so a truncated or hostile document yields an error
// matching ErrMalformed rather than an out-of-range read or an oversized
// allocation. Self-referencing containers fail with ErrCyclicReference.
// Objects referenced from several containers are decoded once.
//
// # Errors
//
// All failures can be classified with errors.Is against ErrUnsupportedType,
// ErrOutOfRange, ErrInvalidKey, ErrCyclicReference and ErrMalformed.
// Encoding and decoding are all-or-nothing: nothing is written or stored
// when an error is returned.
//
// # Keyed archives
//
// Archiver reads and writes NSKeyedArchiver object graphs stored in binary
// property lists. Structs archive as dictionaries unless their type was
// registered with ArchiverAddFoundation.
//
// # Concurrency
//
// Encoders and Decoders are not safe for concurrent use, but independent
// calls share no state and may run in parallel.
package plist
