package plist

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
)

// Containers may not nest deeper than this.
const bplistMaxDepth = 8192

type offset uint64

type bplistParser struct {
	buffer  []byte
	trailer bplistTrailer

	// objects live in [bplistHeaderSize, objectsEnd)
	objectsEnd uint64

	offsets    []offset
	objects    []cfValue
	inProgress []bool
	depth      int
}

func (p *bplistParser) fail(format string, args ...interface{}) {
	panic(invalidPlistError{"binary", fmt.Errorf(format, args...)})
}

func (p *bplistParser) parseDocument() (pval cfValue, parseError error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); ok {
				panic(r)
			}
			if err, ok := r.(invalidPlistError); ok {
				parseError = err
			} else {
				parseError = plistParseError{"binary", r.(error)}
			}
		}
	}()

	if len(p.buffer) < bplistHeaderSize+bplistTrailerSize {
		p.fail("%d bytes is too short", len(p.buffer))
	}
	if !bytes.Equal(p.buffer[:bplistHeaderSize], []byte(bplistMagic)) {
		p.fail("bad magic %q", p.buffer[:bplistHeaderSize])
	}

	p.parseTrailer()
	p.parseOffsetTable()

	n := p.trailer.NumObjects
	p.objects = make([]cfValue, n)
	p.inProgress = make([]bool, n)
	return p.objectAtIndex(p.trailer.TopObject), nil
}

func (p *bplistParser) parseTrailer() {
	trailerStart := len(p.buffer) - bplistTrailerSize
	err := binary.Read(bytes.NewReader(p.buffer[trailerStart:]), binary.BigEndian, &p.trailer)
	if err != nil {
		panic(invalidPlistError{"binary", err})
	}
	t := &p.trailer

	if !validIntSize(t.OffsetIntSize) {
		p.fail("invalid offset size %d", t.OffsetIntSize)
	}
	if !validIntSize(t.ObjectRefSize) {
		p.fail("invalid object reference size %d", t.ObjectRefSize)
	}
	if t.NumObjects == 0 {
		p.fail("no objects")
	}
	if t.TopObject >= t.NumObjects {
		p.fail("top object #%d out of range (%d objects)", t.TopObject, t.NumObjects)
	}
	if t.ObjectRefSize < 8 && (t.NumObjects-1)>>(8*uint(t.ObjectRefSize)) != 0 {
		p.fail("%d objects cannot be addressed with %d-byte references", t.NumObjects, t.ObjectRefSize)
	}

	// The offset table sits between the objects and the trailer.
	if t.OffsetTableOffset < uint64(bplistHeaderSize)+1 || t.OffsetTableOffset > uint64(trailerStart) {
		p.fail("offset table offset %d out of range", t.OffsetTableOffset)
	}
	room := (uint64(trailerStart) - t.OffsetTableOffset) / uint64(t.OffsetIntSize)
	if t.NumObjects > room {
		p.fail("offset table of %d entries does not fit in %d bytes", t.NumObjects, uint64(trailerStart)-t.OffsetTableOffset)
	}
	p.objectsEnd = t.OffsetTableOffset
}

func (p *bplistParser) parseOffsetTable() {
	n := p.trailer.NumObjects
	size := uint64(p.trailer.OffsetIntSize)
	p.offsets = make([]offset, n)
	for i := uint64(0); i < n; i++ {
		start := p.trailer.OffsetTableOffset + i*size
		off := readSizedUint(p.buffer[start : start+size])
		if off < uint64(bplistHeaderSize) || off >= p.objectsEnd {
			p.fail("object #%d offset %d out of range", i, off)
		}
		p.offsets[i] = offset(off)
	}
}

func validIntSize(n uint8) bool {
	return n == 1 || n == 2 || n == 4 || n == 8
}

func readSizedUint(b []byte) uint64 {
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n
}

// need checks that n bytes starting at off lie inside the object area.
func (p *bplistParser) need(off offset, n uint64) {
	if uint64(off) > p.objectsEnd || n > p.objectsEnd-uint64(off) {
		p.fail("object at %#x needs %d bytes past the end of the object area", uint64(off), n)
	}
}

func (p *bplistParser) bytesAt(off offset, n uint64) []byte {
	p.need(off, n)
	return p.buffer[off : uint64(off)+n]
}

func (p *bplistParser) objectAtIndex(index uint64) cfValue {
	if index >= p.trailer.NumObjects {
		p.fail("object reference #%d out of range (%d objects)", index, p.trailer.NumObjects)
	}
	if pval := p.objects[index]; pval != nil {
		return pval
	}
	if p.inProgress[index] {
		panic(invalidPlistError{"binary", fmt.Errorf("%w: object #%d", ErrCyclicReference, index)})
	}
	p.inProgress[index] = true
	pval := p.parseObjectAtOffset(p.offsets[index])
	p.inProgress[index] = false
	p.objects[index] = pval
	return pval
}

func (p *bplistParser) parseObjectAtOffset(off offset) cfValue {
	marker := p.bytesAt(off, 1)[0]
	switch marker & 0xF0 {
	case bpTagNull:
		switch marker {
		case bpTagNull:
			return cfNull{}
		case bpTagBoolFalse:
			return cfBoolean(false)
		case bpTagBoolTrue:
			return cfBoolean(true)
		}
	case bpTagInteger:
		n, _ := p.parseIntegerAtOffset(off)
		return n
	case bpTagReal:
		switch marker & 0x0F {
		case 2:
			bits := binary.BigEndian.Uint32(p.bytesAt(off+1, 4))
			return &cfReal{value: float64(math.Float32frombits(bits))}
		case 3:
			bits := binary.BigEndian.Uint64(p.bytesAt(off+1, 8))
			return &cfReal{value: math.Float64frombits(bits)}
		}
	case bpTagDate:
		if marker&0x0F == 3 {
			bits := binary.BigEndian.Uint64(p.bytesAt(off+1, 8))
			return cfDate(math.Float64frombits(bits))
		}
	case bpTagData:
		count, start := p.countForTagAtOffset(off, 1)
		return cfData(append([]byte{}, p.bytesAt(start, count)...))
	case bpTagASCIIString:
		count, start := p.countForTagAtOffset(off, 1)
		s := p.bytesAt(start, count)
		if !isASCII(string(s)) {
			p.fail("non-ASCII byte in ASCII string at %#x", uint64(off))
		}
		return cfString(s)
	case bpTagUTF16String:
		count, start := p.countForTagAtOffset(off, 2)
		s, err := utf16be.NewDecoder().Bytes(p.bytesAt(start, 2*count))
		if err != nil {
			p.fail("bad UTF-16 string at %#x: %v", uint64(off), err)
		}
		return cfUnicodeString(s)
	case bpTagUID:
		n := uint64(marker&0x0F) + 1
		if n > 8 {
			p.fail("%d-byte UID at %#x", n, uint64(off))
		}
		return cfUID(readSizedUint(p.bytesAt(off+1, n)))
	case bpTagArray:
		return &cfArray{values: p.parseContainerAtOffset(off, 1)}
	case bpTagSet:
		return &cfSet{values: p.parseContainerAtOffset(off, 1)}
	case bpTagDictionary:
		refs := p.parseContainerAtOffset(off, 2)
		n := len(refs) / 2
		dict := &cfDictionary{keys: refs[:n:n], values: refs[n:]}
		for _, k := range dict.keys {
			if err := validateKey(k); err != nil {
				panic(invalidPlistError{"binary", err})
			}
		}
		return dict
	}
	p.fail("unexpected marker %#02x at %#x", marker, uint64(off))
	return nil
}

// parseIntegerAtOffset reads an integer object and returns it along with
// the offset just past it.
func (p *bplistParser) parseIntegerAtOffset(off offset) (*cfNumber, offset) {
	marker := p.bytesAt(off, 1)[0]
	if marker&0xF0 != bpTagInteger {
		p.fail("expected integer at %#x, found marker %#02x", uint64(off), marker)
	}
	exp := marker & 0x0F
	if exp > 4 {
		p.fail("%d-byte integer at %#x", 1<<exp, uint64(off))
	}
	n := uint64(1) << exp
	b := p.bytesAt(off+1, n)
	next := off + 1 + offset(n)

	switch n {
	case 16:
		hi, lo := binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:])
		switch {
		case hi == 0:
			return newUnsignedInteger(lo), next
		case hi == math.MaxUint64 && int64(lo) < 0:
			return newSignedInteger(int64(lo)), next
		}
		panic(invalidPlistError{"binary", fmt.Errorf("%w: 128-bit integer at %#x", ErrOutOfRange, uint64(off))})
	case 8:
		return newSignedInteger(int64(binary.BigEndian.Uint64(b))), next
	}
	return newUnsignedInteger(readSizedUint(b)), next
}

// countForTagAtOffset returns the element count of the object at off and
// where its payload starts. The count is checked against the bytes left
// for elements of unit bytes each.
func (p *bplistParser) countForTagAtOffset(off offset, unit uint64) (uint64, offset) {
	marker := p.bytesAt(off, 1)[0]
	count := uint64(marker & 0x0F)
	start := off + 1
	if count == bpInlineCountLimit {
		var n *cfNumber
		n, start = p.parseIntegerAtOffset(off + 1)
		if n.signed {
			p.fail("negative count at %#x", uint64(off))
		}
		count = n.value
	}
	if uint64(start) > p.objectsEnd {
		p.fail("object at %#x runs past the object area", uint64(off))
	}
	if count > (p.objectsEnd-uint64(start))/unit {
		p.fail("count %d at %#x exceeds the object area", count, uint64(off))
	}
	return count, start
}

// parseContainerAtOffset resolves the references of an array, set or
// dictionary. perEntry is the number of references per counted entry.
func (p *bplistParser) parseContainerAtOffset(off offset, perEntry uint64) []cfValue {
	refSize := uint64(p.trailer.ObjectRefSize)
	count, start := p.countForTagAtOffset(off, perEntry*refSize)

	p.depth++
	if p.depth > bplistMaxDepth {
		p.fail("containers nested deeper than %d", bplistMaxDepth)
	}
	defer func() { p.depth-- }()

	total := count * perEntry
	raw := p.bytesAt(start, total*refSize)
	values := make([]cfValue, total)
	for i := uint64(0); i < total; i++ {
		ref := readSizedUint(raw[i*refSize : (i+1)*refSize])
		values[i] = p.objectAtIndex(ref)
	}
	return values
}

func newBplistParser(buf []byte) *bplistParser {
	return &bplistParser{buffer: buf}
}
