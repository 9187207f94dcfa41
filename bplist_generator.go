package plist

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
)

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// objectTable is the deduplicated, ordered list of objects in a document.
// refs holds, for each container, the table indices of its children;
// for dictionaries all key references come first, then all value references.
type objectTable struct {
	objects []cfValue
	refs    map[int][]uint64
	index   map[interface{}]uint64
	active  map[interface{}]struct{}
}

// flatten walks root depth first, assigning each distinct object a slot
// in order of first appearance. A container takes its slot before its
// children are visited.
func flatten(root cfValue) (*objectTable, uint64, error) {
	t := &objectTable{
		refs:   make(map[int][]uint64),
		index:  make(map[interface{}]uint64),
		active: make(map[interface{}]struct{}),
	}
	top, err := t.add(root)
	if err != nil {
		return nil, 0, err
	}
	return t, top, nil
}

func (t *objectTable) add(pval cfValue) (uint64, error) {
	if pval == nil {
		pval = cfNull{}
	}
	key := pval.hash()
	if idx, ok := t.index[key]; ok {
		if _, inProgress := t.active[key]; inProgress {
			return 0, fmt.Errorf("%w: %s contains itself", ErrCyclicReference, pval.typeName())
		}
		return idx, nil
	}

	idx := uint64(len(t.objects))
	t.index[key] = idx
	t.objects = append(t.objects, pval)

	var children []cfValue
	switch pval := pval.(type) {
	case *cfArray:
		children = pval.values
	case *cfSet:
		children = pval.values
	case *cfDictionary:
		if len(pval.keys) != len(pval.values) {
			return 0, fmt.Errorf("plist: dictionary has %d keys and %d values", len(pval.keys), len(pval.values))
		}
		for _, k := range pval.keys {
			if err := validateKey(k); err != nil {
				return 0, err
			}
		}
		children = make([]cfValue, 0, 2*len(pval.keys))
		children = append(children, pval.keys...)
		children = append(children, pval.values...)
	default:
		return idx, nil
	}

	t.active[key] = struct{}{}
	refs := make([]uint64, len(children))
	for i, child := range children {
		ref, err := t.add(child)
		if err != nil {
			return 0, err
		}
		refs[i] = ref
	}
	delete(t.active, key)
	t.refs[int(idx)] = refs
	return idx, nil
}

type bplistGenerator struct {
	writer  io.Writer
	buf     *bytes.Buffer
	table   *objectTable
	trailer bplistTrailer
}

func (p *bplistGenerator) generateDocument(root cfValue) error {
	table, top, err := flatten(root)
	if err != nil {
		return err
	}
	p.table = table
	p.buf = &bytes.Buffer{}
	p.buf.WriteString(bplistMagic)

	numObjects := uint64(len(table.objects))
	p.trailer = bplistTrailer{
		ObjectRefSize: uint8(minimumSizeForUnsigned(numObjects - 1)),
		NumObjects:    numObjects,
		TopObject:     top,
	}

	offsets := make([]uint64, numObjects)
	for i, pval := range table.objects {
		offsets[i] = uint64(p.buf.Len())
		if err := p.writeObject(i, pval); err != nil {
			return err
		}
	}

	p.trailer.OffsetTableOffset = uint64(p.buf.Len())
	p.trailer.OffsetIntSize = uint8(minimumSizeForUnsigned(offsets[len(offsets)-1]))
	for _, offset := range offsets {
		p.writeSizedInt(offset, int(p.trailer.OffsetIntSize))
	}
	if err := binary.Write(p.buf, binary.BigEndian, p.trailer); err != nil {
		return err
	}

	Logger().Debug("generated binary property list",
		zap.Uint64("objects", numObjects),
		zap.Uint8("objectRefSize", p.trailer.ObjectRefSize),
		zap.Uint8("offsetIntSize", p.trailer.OffsetIntSize),
		zap.Int("bytes", p.buf.Len()))

	_, err = p.writer.Write(p.buf.Bytes())
	return err
}

func (p *bplistGenerator) writeObject(idx int, pval cfValue) error {
	switch pval := pval.(type) {
	case cfNull:
		p.buf.WriteByte(bpTagNull)
	case cfBoolean:
		if pval {
			p.buf.WriteByte(bpTagBoolTrue)
		} else {
			p.buf.WriteByte(bpTagBoolFalse)
		}
	case *cfNumber:
		p.writeIntTag(pval)
	case *cfReal:
		p.buf.WriteByte(bpTagReal | 0x3)
		p.writeSizedInt(math.Float64bits(pval.value), 8)
	case cfDate:
		p.buf.WriteByte(bpTagDate | 0x3)
		p.writeSizedInt(math.Float64bits(float64(pval)), 8)
	case cfData:
		p.writeCountedTag(bpTagData, uint64(len(pval)))
		p.buf.Write(pval)
	case cfString:
		if !isASCII(string(pval)) {
			return p.writeUTF16String(string(pval))
		}
		p.writeCountedTag(bpTagASCIIString, uint64(len(pval)))
		p.buf.WriteString(string(pval))
	case cfUnicodeString:
		return p.writeUTF16String(string(pval))
	case cfUID:
		n := minimumSizeForUnsigned(uint64(pval))
		p.buf.WriteByte(bpTagUID | uint8(n-1))
		p.writeSizedInt(uint64(pval), n)
	case *cfArray:
		p.writeRefs(bpTagArray, uint64(len(pval.values)), p.table.refs[idx])
	case *cfSet:
		p.writeRefs(bpTagSet, uint64(len(pval.values)), p.table.refs[idx])
	case *cfDictionary:
		p.writeRefs(bpTagDictionary, uint64(len(pval.keys)), p.table.refs[idx])
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, pval)
	}
	return nil
}

func (p *bplistGenerator) writeUTF16String(s string) error {
	// the transcoder would silently substitute U+FFFD
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string %q is not valid UTF-8", ErrUnsupportedType, s)
	}
	encoded, err := utf16be.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return err
	}
	p.writeCountedTag(bpTagUTF16String, uint64(len(encoded)/2))
	p.buf.Write(encoded)
	return nil
}

func (p *bplistGenerator) writeRefs(tag uint8, count uint64, refs []uint64) {
	p.writeCountedTag(tag, count)
	for _, ref := range refs {
		p.writeSizedInt(ref, int(p.trailer.ObjectRefSize))
	}
}

// writeCountedTag writes a marker whose low nibble holds count, or 0xF
// followed by count as an integer object.
func (p *bplistGenerator) writeCountedTag(tag uint8, count uint64) {
	if count < bpInlineCountLimit {
		p.buf.WriteByte(tag | uint8(count))
		return
	}
	p.buf.WriteByte(tag | bpInlineCountLimit)
	p.writeIntTag(newUnsignedInteger(count))
}

func (p *bplistGenerator) writeIntTag(n *cfNumber) {
	size := intSize(n)
	p.buf.WriteByte(bpTagInteger | log2Width(size))
	if size == 16 {
		p.writeSizedInt(0, 8)
		size = 8
	}
	p.writeSizedInt(n.value, size)
}

func (p *bplistGenerator) writeSizedInt(n uint64, nbytes int) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	p.buf.Write(b[8-nbytes:])
}

func newBplistGenerator(w io.Writer) *bplistGenerator {
	return &bplistGenerator{writer: w}
}
