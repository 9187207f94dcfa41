package plist

import (
	"fmt"
	"math"
	"math/big"
)

const (
	bplistMagic       = "bplist00"
	bplistHeaderSize  = len(bplistMagic)
	bplistTrailerSize = 32
)

type bplistTrailer struct {
	Unused            [5]uint8
	SortVersion       uint8
	OffsetIntSize     uint8
	ObjectRefSize     uint8
	NumObjects        uint64
	TopObject         uint64
	OffsetTableOffset uint64
}

const (
	bpTagNull        uint8 = 0x00
	bpTagBoolFalse   uint8 = 0x08
	bpTagBoolTrue    uint8 = 0x09
	bpTagInteger     uint8 = 0x10
	bpTagReal        uint8 = 0x20
	bpTagDate        uint8 = 0x30
	bpTagData        uint8 = 0x40
	bpTagASCIIString uint8 = 0x50
	bpTagUTF16String uint8 = 0x60
	bpTagUID         uint8 = 0x80
	bpTagArray       uint8 = 0xA0
	bpTagSet         uint8 = 0xC0
	bpTagDictionary  uint8 = 0xD0
)

// Counts below this fit in the low nibble of a marker.
const bpInlineCountLimit = 0xF

// intSize returns the number of bytes used to store n as an integer object:
// 8 for every negative value, the smallest signed width for non-negative values,
// and 16 for the range above MaxInt64, which is stored as an unsigned magnitude.
func intSize(n *cfNumber) int {
	if n.signed {
		return 8
	}
	v := n.value
	switch {
	case v <= math.MaxInt8:
		return 1
	case v <= math.MaxInt16:
		return 2
	case v <= math.MaxInt32:
		return 4
	case v <= math.MaxInt64:
		return 8
	}
	return 16
}

var (
	bigMinInt64  = big.NewInt(math.MinInt64)
	bigMaxUint64 = new(big.Int).SetUint64(math.MaxUint64)
)

// bigIntSize is intSize for arbitrary precision integers.
func bigIntSize(b *big.Int) (int, error) {
	n, err := numberFromBig(b)
	if err != nil {
		return 0, err
	}
	return intSize(n), nil
}

func numberFromBig(b *big.Int) (*cfNumber, error) {
	if b.Cmp(bigMinInt64) < 0 || b.Cmp(bigMaxUint64) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, b.String())
	}
	if b.Sign() < 0 {
		return newSignedInteger(b.Int64()), nil
	}
	return newUnsignedInteger(b.Uint64()), nil
}

// minimumSizeForUnsigned is the smallest of 1, 2, 4 or 8 bytes that holds n.
// It sizes object references, offsets and UIDs.
func minimumSizeForUnsigned(n uint64) int {
	switch {
	case n <= math.MaxUint8:
		return 1
	case n <= math.MaxUint16:
		return 2
	case n <= math.MaxUint32:
		return 4
	}
	return 8
}

// log2Width maps a power-of-two byte width to the exponent stored in a marker nibble.
// Only the widths intSize produces are valid.
func log2Width(w int) uint8 {
	switch w {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	case 16:
		return 4
	}
	panic(fmt.Sprintf("plist: no marker for %d-byte integers", w))
}
