package plist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"reflect"

	"go.uber.org/zap"
)

// A Decoder reads a property list from an input stream.
type Decoder struct {
	// the format of the most-recently-decoded property list
	Format int

	reader io.ReadSeeker
}

// Decode works like Unmarshal, except it reads the decoder stream to find property list elements.
//
// After Decoding, the Decoder's Format field will be set to one of the plist format constants.
func (p *Decoder) Decode(v interface{}) error {
	if _, err := p.reader.Seek(0, io.SeekStart); err != nil {
		return err
	}
	data, err := ioutil.ReadAll(p.reader)
	if err != nil {
		return err
	}

	pval, format, err := decodeValue(data)
	if err != nil {
		Logger().Debug("rejected property list", zap.Int("bytes", len(data)), zap.Error(err))
		return err
	}
	p.Format = format
	Logger().Debug("decoded property list",
		zap.String("format", FormatNames[format]),
		zap.Int("bytes", len(data)),
		zap.String("root", pval.typeName()))

	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("plist: Decode requires a non-nil pointer, got %T", v)
	}
	return unmarshal(materialize(pval), val)
}

// detectFormat inspects the leading bytes of a document.
func detectFormat(data []byte) int {
	if bytes.HasPrefix(data, []byte(bplistMagic)) {
		return BinaryFormat
	}
	text := bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	text = bytes.TrimLeft(text, " \t\r\n")
	for _, prefix := range []string{"<?xml", "<!DOCTYPE", "<plist"} {
		if bytes.HasPrefix(text, []byte(prefix)) {
			return XMLFormat
		}
	}
	return InvalidFormat
}

// decodeValue parses a complete document in either supported format.
func decodeValue(data []byte) (cfValue, int, error) {
	switch format := detectFormat(data); format {
	case BinaryFormat:
		pval, err := newBplistParser(data).parseDocument()
		return pval, format, err
	case XMLFormat:
		pval, err := newXMLPlistParser(bytes.NewReader(data)).parseDocument()
		return pval, format, err
	}
	if bytes.HasPrefix(data, []byte("bplist")) {
		return nil, InvalidFormat, invalidPlistError{"binary", errors.New("unsupported version")}
	}
	return nil, InvalidFormat, invalidPlistError{"unknown", errors.New("no recognizable header")}
}

// NewDecoder returns a Decoder that reads property list elements from a stream reader, r.
// NewDecoder requires a Seekable stream for the purposes of property list format detection.
func NewDecoder(r io.ReadSeeker) *Decoder {
	return &Decoder{Format: InvalidFormat, reader: r}
}

// Unmarshal parses a property list document and stores the result in the value pointed to by v.
//
// Unmarshal uses the inverse of the type encodings that Marshal uses. Into an empty
// interface it stores nil, bool, int64 (uint64 above MaxInt64), float64, time.Time,
// []byte, string, UID, Set, []interface{} and map[string]interface{}.
//
// Unmarshal fails with an error matching ErrMalformed when the input is not a
// well-formed property list, and never reads outside the input.
func Unmarshal(data []byte, v interface{}) (format int, err error) {
	dec := NewDecoder(bytes.NewReader(data))
	err = dec.Decode(v)
	format = dec.Format
	return
}
