package plist

import (
	"bytes"
	"errors"
	"io"
	"reflect"
)

const (
	// InvalidFormat is returned when the input is not a property list.
	InvalidFormat int = iota
	// XMLFormat is Apple's XML property list format.
	XMLFormat
	// BinaryFormat is Apple's "bplist00" binary property list format.
	BinaryFormat
	// AutomaticFormat lets the encoder choose; it writes binary.
	AutomaticFormat = 100
)

// FormatNames maps formats to human-readable names.
var FormatNames = map[int]string{
	InvalidFormat: "unknown/invalid",
	XMLFormat:     "XML",
	BinaryFormat:  "Binary",
}

// An Encoder writes a property list to an output stream.
type Encoder struct {
	writer io.Writer
	format int
	indent string
}

// Encode writes the property list encoding of v to the stream.
// Nothing is written when encoding fails.
func (p *Encoder) Encode(v interface{}) error {
	pval, err := adapt(v)
	if err != nil {
		return err
	}
	return encodeValue(p.writer, pval, p.format, p.indent)
}

// Indent turns on pretty-printing for the XML format.
// Each element begins on a new line and is preceded by one or more
// copies of indent according to its nesting depth.
func (p *Encoder) Indent(indent string) {
	p.indent = indent
}

// encodeValue writes pval to w in the given format.
func encodeValue(w io.Writer, pval cfValue, format int, indent string) (err error) {
	switch format {
	case XMLFormat:
		// Validate keys and cycles before any text is produced.
		if _, _, err := flatten(pval); err != nil {
			return err
		}
		buf := &bytes.Buffer{}
		g := newXMLPlistGenerator(buf)
		g.Indent(indent)
		if err := g.generateDocument(pval); err != nil {
			return err
		}
		_, err = w.Write(buf.Bytes())
		return err
	case BinaryFormat, AutomaticFormat:
		return newBplistGenerator(w).generateDocument(pval)
	}
	return errors.New("plist: unknown output format")
}

// NewEncoder returns an Encoder that writes an XML property list to w.
func NewEncoder(w io.Writer) *Encoder {
	return NewEncoderForFormat(w, XMLFormat)
}

// NewEncoderForFormat returns an Encoder that writes a property list to w in the specified format.
func NewEncoderForFormat(w io.Writer, format int) *Encoder {
	return &Encoder{
		writer: w,
		format: format,
	}
}

// NewBinaryEncoder returns an Encoder that writes a binary property list to w.
func NewBinaryEncoder(w io.Writer) *Encoder {
	return NewEncoderForFormat(w, BinaryFormat)
}

// Marshal returns the property list encoding of v in the specified format.
//
// Go values map onto property list types as follows:
//
//	nil, nil pointers          null (binary only)
//	bool                       boolean
//	integer types, *big.Int    integer (-2^63 ... 2^64-1)
//	float32, float64           real
//	time.Time                  date
//	[]byte, [N]byte            data
//	string                     string
//	UID                        UID
//	Set                        set (an array in XML)
//	slices, arrays             array
//	maps with string keys      dictionary
//	structs                    dictionary of exported fields
//
// Struct fields can be renamed or omitted with the "plist" tag:
//
//	Field int `plist:"myName"`
//	Field int `plist:",omitempty"`
//	Field int `plist:"-"`
//
// Marshal fails with ErrUnsupportedType for channels, functions and complex numbers,
// ErrInvalidKey for maps whose keys are not strings, ErrOutOfRange for big integers
// that do not fit, and ErrCyclicReference for self-referencing values.
func Marshal(v interface{}, format int) ([]byte, error) {
	return MarshalIndent(v, format, "")
}

// MarshalIndent works like Marshal, but each property list element
// begins on a new line and is preceded by one or more copies of indent according to its nesting depth.
func MarshalIndent(v interface{}, format int, indent string) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := NewEncoderForFormat(buf, format)
	enc.Indent(indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unsupportedValueError reports a value the XML format cannot hold.
func unsupportedValueError(pval cfValue) error {
	return &UnsupportedTypeError{reflect.TypeOf(pval)}
}
