package plist

import (
	"bytes"
	"errors"
	"math"
	"math/big"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func roundTrip(t *testing.T, in interface{}, format int) interface{} {
	t.Helper()
	data, err := Marshal(in, format)
	if err != nil {
		t.Fatalf("Marshal(%#v): %v", in, err)
	}
	var out interface{}
	got, err := Unmarshal(data, &out)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != format {
		t.Errorf("decoded format %s, want %s", FormatNames[got], FormatNames[format])
	}
	return out
}

func TestRoundTripGeneric(t *testing.T) {
	when := time.Date(2021, 7, 1, 12, 30, 15, 500000000, time.UTC)
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"null", nil, nil},
		{"true", true, true},
		{"zero", 0, int64(0)},
		{"negative", -12345, int64(-12345)},
		{"min int64", int64(math.MinInt64), int64(math.MinInt64)},
		{"max int64", int64(math.MaxInt64), int64(math.MaxInt64)},
		{"max uint64", uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"uint8", uint8(200), int64(200)},
		{"real", 3.25, 3.25},
		{"float32", float32(0.5), 0.5},
		{"infinity", math.Inf(-1), math.Inf(-1)},
		{"ascii", "hello", "hello"},
		{"unicode", "héllo wörld ☃ \U0001F600", "héllo wörld ☃ \U0001F600"},
		{"data", []byte{0, 1, 2, 0xFF}, []byte{0, 1, 2, 0xFF}},
		{"fixed data", [3]byte{1, 2, 3}, []byte{1, 2, 3}},
		{"date", when, when},
		{"old date", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"uid", UID(42), UID(42)},
		{"set", Set{"b", "a", "c", int64(1)}, Set{"b", "a", "c", int64(1)}},
		{"mixed", []interface{}{0, 1, true, false, nil}, []interface{}{int64(0), int64(1), true, false, nil}},
		{"empties", []interface{}{"", []byte{}, []interface{}{}, map[string]interface{}{}, Set{}},
			[]interface{}{"", []byte{}, []interface{}{}, map[string]interface{}{}, Set{}}},
		{"nested", map[string]interface{}{
			"name":  "x",
			"list":  []string{"a", "b", "a"},
			"inner": map[string]int{"one": 1},
			"ref":   UID(3),
		}, map[string]interface{}{
			"name":  "x",
			"list":  []interface{}{"a", "b", "a"},
			"inner": map[string]interface{}{"one": int64(1)},
			"ref":   UID(3),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.in, BinaryFormat)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTripKindsStayDistinct(t *testing.T) {
	got := roundTrip(t, []interface{}{"", []byte{}, []interface{}{}, map[string]interface{}{}, Set{}}, BinaryFormat)
	seen := map[string]bool{}
	for _, v := range got.([]interface{}) {
		name := kindName(v)
		if seen[name] {
			t.Errorf("two elements decoded as %s", name)
		}
		seen[name] = true
	}
}

func kindName(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case []byte:
		return "data"
	case Set:
		return "set"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "dictionary"
	}
	return "other"
}

func TestUIDIsNotAnInteger(t *testing.T) {
	data, err := Marshal([]interface{}{UID(7), 7}, BinaryFormat)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte{0x80, 0x07}) {
		t.Errorf("no UID object in % x", data)
	}
	var got []interface{}
	if _, err := Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{UID(7), int64(7)}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

type nested struct {
	Label string
}

type tagged struct {
	Name    string    `plist:"name"`
	Count   int       `plist:"count,omitempty"`
	Skipped string    `plist:"-"`
	hidden  int
	Data    []byte    `plist:"data"`
	When    time.Time `plist:"when"`
	Values  []int64   `plist:"values"`
	Ratio   float32   `plist:"ratio"`
	Ref     UID       `plist:"ref"`
	Big     *big.Int  `plist:"big"`
	Nested  *nested   `plist:"nested,omitempty"`
	Flags   map[string]bool
	Fixed   [2]string
}

func TestStructRoundTrip(t *testing.T) {
	in := tagged{
		Name:    "widget",
		Skipped: "secret",
		hidden:  7,
		Data:    []byte("payload"),
		When:    time.Date(2020, 2, 29, 23, 59, 59, 0, time.UTC),
		Values:  []int64{-1, 0, 1 << 40},
		Ratio:   0.25,
		Ref:     UID(9),
		Big:     new(big.Int).SetUint64(math.MaxUint64),
		Nested:  &nested{Label: "inner"},
		Flags:   map[string]bool{"on": true, "off": false},
		Fixed:   [2]string{"l", "r"},
	}
	for _, format := range []int{BinaryFormat, XMLFormat} {
		data, err := Marshal(&in, format)
		if err != nil {
			t.Fatal(err)
		}

		var keys map[string]interface{}
		if _, err := Unmarshal(data, &keys); err != nil {
			t.Fatal(err)
		}
		for _, k := range []string{"count", "Skipped", "hidden"} {
			if _, ok := keys[k]; ok {
				t.Errorf("%s: unexpected key %q", FormatNames[format], k)
			}
		}

		var out tagged
		if _, err := Unmarshal(data, &out); err != nil {
			t.Fatal(err)
		}
		want := in
		want.Skipped = ""
		want.hidden = 0
		if diff := cmp.Diff(want, out, cmp.AllowUnexported(tagged{}), cmp.Comparer(func(a, b *big.Int) bool {
			return a.Cmp(b) == 0
		})); diff != "" {
			t.Errorf("%s: (-want +got):\n%s", FormatNames[format], diff)
		}
	}
}

type Header struct {
	ID   int64
	Kind string
}

type withEmbedded struct {
	*Header
	Kind string
}

func TestEmbeddedStruct(t *testing.T) {
	data, err := Marshal(withEmbedded{Kind: "outer"}, BinaryFormat)
	if err != nil {
		t.Fatal(err)
	}
	var keys map[string]interface{}
	if _, err := Unmarshal(data, &keys); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]interface{}{"Kind": "outer"}, keys); diff != "" {
		t.Errorf("nil embedded pointer (-want +got):\n%s", diff)
	}

	data, err = Marshal(withEmbedded{Header: &Header{ID: 5, Kind: "inner"}, Kind: "outer"}, BinaryFormat)
	if err != nil {
		t.Fatal(err)
	}
	var out withEmbedded
	if _, err := Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Header == nil || out.ID != 5 || out.Header.Kind != "" || out.Kind != "outer" {
		t.Errorf("decoded %+v (%+v)", out, out.Header)
	}
}

func TestMarshalInvalidKeys(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
	}{
		{"nil key", map[interface{}]interface{}{nil: 1}},
		{"data key", map[[1]byte]int{{'x'}: 1}},
		{"integer key", map[int]int{1: 1}},
		{"bool key", map[interface{}]string{true: "x"}},
		{"nested", []interface{}{map[float64]int{1.5: 1}}},
	}
	for _, tt := range tests {
		for _, format := range []int{BinaryFormat, XMLFormat} {
			buf := &bytes.Buffer{}
			err := NewEncoderForFormat(buf, format).Encode(tt.in)
			if !errors.Is(err, ErrInvalidKey) {
				t.Errorf("%s/%s: error = %v, want ErrInvalidKey", tt.name, FormatNames[format], err)
			}
			if buf.Len() != 0 {
				t.Errorf("%s/%s: wrote %d bytes", tt.name, FormatNames[format], buf.Len())
			}
		}
	}

	// Interface keys holding strings are fine.
	if _, err := Marshal(map[interface{}]int{"a": 1}, BinaryFormat); err != nil {
		t.Errorf("string interface key: %v", err)
	}
}

func TestMarshalUnsupported(t *testing.T) {
	for _, in := range []interface{}{
		make(chan int),
		func() {},
		complex(1, 2),
		[]interface{}{1, make(chan int)},
		map[string]interface{}{"f": func() {}},
	} {
		buf := &bytes.Buffer{}
		err := NewBinaryEncoder(buf).Encode(in)
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Encode(%T) error = %v, want ErrUnsupportedType", in, err)
		}
		var typeErr *UnsupportedTypeError
		if !errors.As(err, &typeErr) {
			t.Errorf("Encode(%T) error %T is not an *UnsupportedTypeError", in, err)
		}
		if buf.Len() != 0 {
			t.Errorf("Encode(%T) wrote %d bytes", in, buf.Len())
		}
	}

	if _, err := Marshal(nil, XMLFormat); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("XML null error = %v, want ErrUnsupportedType", err)
	}
}

type node struct {
	Name string
	Next *node
}

func TestMarshalCycles(t *testing.T) {
	n := &node{Name: "loop"}
	n.Next = n

	m := map[string]interface{}{}
	m["self"] = m

	s := make([]interface{}, 1)
	s[0] = s

	for _, in := range []interface{}{n, m, s} {
		for _, format := range []int{BinaryFormat, XMLFormat} {
			if _, err := Marshal(in, format); !errors.Is(err, ErrCyclicReference) {
				t.Errorf("Marshal(%T) error = %v, want ErrCyclicReference", in, err)
			}
		}
	}

	// Shared, acyclic values are fine.
	shared := []string{"a"}
	leaf := &node{Name: "leaf"}
	if _, err := Marshal([]interface{}{shared, shared, leaf, leaf}, BinaryFormat); err != nil {
		t.Errorf("shared values: %v", err)
	}
}

func TestUnmarshalIntoTypes(t *testing.T) {
	data, err := Marshal(300, BinaryFormat)
	if err != nil {
		t.Fatal(err)
	}

	var i8 int8
	if _, err := Unmarshal(data, &i8); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("int8 error = %v, want ErrOutOfRange", err)
	}
	var u16 uint16
	if _, err := Unmarshal(data, &u16); err != nil || u16 != 300 {
		t.Errorf("uint16 = %d, %v", u16, err)
	}
	var f float64
	if _, err := Unmarshal(data, &f); err != nil || f != 300 {
		t.Errorf("float64 = %v, %v", f, err)
	}
	var s string
	if _, err := Unmarshal(data, &s); err == nil {
		t.Error("integer decoded into a string")
	}

	neg, err := Marshal(-1, BinaryFormat)
	if err != nil {
		t.Fatal(err)
	}
	var u uint64
	if _, err := Unmarshal(neg, &u); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("uint64 error = %v, want ErrOutOfRange", err)
	}

	huge, err := Marshal(uint64(math.MaxUint64), BinaryFormat)
	if err != nil {
		t.Fatal(err)
	}
	var i64 int64
	if _, err := Unmarshal(huge, &i64); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("int64 error = %v, want ErrOutOfRange", err)
	}

	if _, err := Unmarshal(data, i8); err == nil {
		t.Error("Unmarshal into a non-pointer succeeded")
	}
}

func TestAutomaticFormatWritesBinary(t *testing.T) {
	data, err := Marshal("x", AutomaticFormat)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte(bplistMagic)) {
		t.Errorf("automatic format wrote %q", data)
	}
	if _, err := Marshal("x", 42); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestDecoderFormat(t *testing.T) {
	for _, format := range []int{BinaryFormat, XMLFormat} {
		data, err := Marshal(map[string]string{"k": "v"}, format)
		if err != nil {
			t.Fatal(err)
		}
		dec := NewDecoder(bytes.NewReader(data))
		var out map[string]string
		if err := dec.Decode(&out); err != nil {
			t.Fatal(err)
		}
		if dec.Format != format {
			t.Errorf("Format = %d, want %d", dec.Format, format)
		}
		if diff := cmp.Diff(map[string]string{"k": "v"}, out, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	}
}

func TestRoundTripIntegerBoundaries(t *testing.T) {
	var in []interface{}
	var want []interface{}
	for _, edge := range []int64{0xff, 0xffff, 0xffffffff} {
		for _, n := range []int64{edge, edge - 1, edge + 1, edge - 2, edge + 2, edge * 2, edge / 2} {
			in = append(in, n)
			want = append(want, n)
		}
	}
	for _, n := range []int64{math.MinInt8, math.MaxInt8, math.MinInt16, math.MaxInt16, math.MinInt32, math.MaxInt32, math.MinInt64, math.MaxInt64} {
		in = append(in, n)
		want = append(want, n)
	}
	in = append(in, uint64(math.MaxUint64))
	want = append(want, uint64(math.MaxUint64))

	if diff := cmp.Diff(want, roundTrip(t, in, BinaryFormat)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRoundTripLargeDictionary(t *testing.T) {
	in := make(map[string]string, 1000)
	for i := 0; i < 1000; i++ {
		s := strconv.Itoa(i)
		in[s] = s
	}
	data, err := Marshal(in, BinaryFormat)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]string
	if _, err := Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRoundTripArchiveShape(t *testing.T) {
	in := map[string]interface{}{
		"$version": int64(100000),
		"$objects": []interface{}{
			"$null",
			map[string]interface{}{"$class": UID(3), "somekey": UID(2)},
			"object value as string",
			map[string]interface{}{"$classes": []interface{}{"Archived", "NSObject"}, "$classname": "Archived"},
		},
		"$top":      map[string]interface{}{"root": UID(1)},
		"$archiver": "NSKeyedArchiver",
	}
	if diff := cmp.Diff(in, roundTrip(t, in, BinaryFormat)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEncodeToFile(t *testing.T) {
	for _, format := range []int{BinaryFormat, XMLFormat} {
		f, err := os.CreateTemp(t.TempDir(), "*.plist")
		if err != nil {
			t.Fatal(err)
		}
		enc := NewEncoderForFormat(f, format)
		enc.Indent("  ")
		if err := enc.Encode([]int{1, 2, 3}); err != nil {
			t.Fatal(err)
		}

		var out []int
		dec := NewDecoder(f)
		if err := dec.Decode(&out); err != nil {
			t.Fatal(err)
		}
		f.Close()
		if dec.Format != format || !cmp.Equal(out, []int{1, 2, 3}) {
			t.Errorf("%s: decoded %v as %s", FormatNames[format], out, FormatNames[dec.Format])
		}
	}
}

func TestMarshalInvalidUTF8(t *testing.T) {
	tests := []interface{}{
		"a\xffb",
		[]string{"ok", "\xc3"},
		map[string]int{"\xff": 1},
		struct {
			Name string `plist:"name"`
		}{"\xed\xa0\x80"},
	}
	for _, v := range tests {
		for _, format := range []int{BinaryFormat, XMLFormat} {
			data, err := Marshal(v, format)
			if !errors.Is(err, ErrUnsupportedType) || data != nil {
				t.Errorf("Marshal(%q, %s) = %q, %v; want ErrUnsupportedType", v, FormatNames[format], data, err)
			}
		}
	}
}
