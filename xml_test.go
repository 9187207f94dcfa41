package plist

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestXMLGenerate(t *testing.T) {
	got, err := MarshalIndent(map[string]interface{}{"b": "x<y", "a": 1}, XMLFormat, "\t")
	if err != nil {
		t.Fatal(err)
	}
	want := xmlHEADER + xmlDOCTYPE + `<plist version="1.0">
<dict>
	<key>a</key>
	<integer>1</integer>
	<key>b</key>
	<string>x&lt;y</string>
</dict>
</plist>`
	if string(got) != want {
		t.Errorf("MarshalIndent =\n%s\nwant\n%s", got, want)
	}
}

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<!-- a comment -->
<dict>
	<key>hex</key><integer>0x10</integer>
	<key>neg</key><integer> -42 </integer>
	<key>plus</key><integer>+7</integer>
	<key>big</key><integer>18446744073709551615</integer>
	<key>inf</key><real>-inf</real>
	<key>half</key><real>0.5</real>
	<key>when</key><date>2001-01-01T00:00:00Z</date>
	<key>blob</key><data>
		AAEC
		/w==
	</data>
	<key>empty</key><string/>
	<key>nested</key><array><true/><false/><dict/></array>
	<key>uid</key><dict><key>CF$UID</key><integer>5</integer></dict>
	<key>ünï</key><string>ünïcode</string>
</dict>
</plist>
`

func TestXMLParse(t *testing.T) {
	var got interface{}
	format, err := Unmarshal([]byte(sampleXML), &got)
	if err != nil {
		t.Fatal(err)
	}
	if format != XMLFormat {
		t.Errorf("format = %s", FormatNames[format])
	}
	want := map[string]interface{}{
		"hex":    int64(16),
		"neg":    int64(-42),
		"plus":   int64(7),
		"big":    uint64(math.MaxUint64),
		"inf":    math.Inf(-1),
		"half":   0.5,
		"when":   time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		"blob":   []byte{0, 1, 2, 0xFF},
		"empty":  "",
		"nested": []interface{}{true, false, map[string]interface{}{}},
		"uid":    UID(5),
		"ünï":    "ünïcode",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestXMLRoundTrip(t *testing.T) {
	in := map[string]interface{}{
		"list":  []interface{}{"a", int64(-1), 2.5, true},
		"set":   Set{"x", "y"},
		"data":  []byte("hello"),
		"date":  time.Date(2019, 5, 6, 7, 8, 9, 0, time.UTC),
		"ref":   UID(12),
		"uni":   "snow ☃",
		"empty": map[string]interface{}{},
	}
	got := roundTrip(t, in, XMLFormat)
	want := map[string]interface{}{
		"list":  []interface{}{"a", int64(-1), 2.5, true},
		"set":   []interface{}{"x", "y"},
		"data":  []byte("hello"),
		"date":  time.Date(2019, 5, 6, 7, 8, 9, 0, time.UTC),
		"ref":   UID(12),
		"uni":   "snow ☃",
		"empty": map[string]interface{}{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestXMLMalformed(t *testing.T) {
	tests := []string{
		`<plist><integer>abc</integer></plist>`,
		`<plist><real>fast</real></plist>`,
		`<plist><date>yesterday</date></plist>`,
		`<plist><data>!!!</data></plist>`,
		`<plist><foo/></plist>`,
		`<plist><array><string>a</string>`,
		`<?xml version="1.0"?><plist></plist>`,
		`<plist><dict><key>a</key></dict></plist>`,
		`<plist><dict><string>a</string></dict></plist>`,
		`<plist><dict><key>a</key><key>b</key><true/></dict></plist>`,
		`<plist><string IDREF="nope"/></plist>`,
		"\xef\xbb\xbf  <plist><integer>1</integer",
	}
	for _, doc := range tests {
		var v interface{}
		if _, err := Unmarshal([]byte(doc), &v); !errors.Is(err, ErrMalformed) {
			t.Errorf("Unmarshal(%q) error = %v, want ErrMalformed", doc, err)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		data string
		want int
	}{
		{"bplist00", BinaryFormat},
		{"bplist01", InvalidFormat},
		{"<?xml version", XMLFormat},
		{"\xef\xbb\xbf\n\t<plist>", XMLFormat},
		{"  <!DOCTYPE plist>", XMLFormat},
		{"{ a = b; }", InvalidFormat},
		{"", InvalidFormat},
	}
	for _, tt := range tests {
		if got := detectFormat([]byte(tt.data)); got != tt.want {
			t.Errorf("detectFormat(%q) = %d, want %d", tt.data, got, tt.want)
		}
	}
}

func TestXMLSharedReferences(t *testing.T) {
	var doc strings.Builder
	doc.WriteString(`<plist><array><array ID="l0"/>`)
	for i := 1; i <= 64; i++ {
		fmt.Fprintf(&doc, `<array ID="l%d"><array IDREF="l%d"/><array IDREF="l%d"/></array>`, i, i-1, i-1)
	}
	doc.WriteString(`</array></plist>`)

	var v []interface{}
	var err error
	withinDeadline(t, "decoding 64 levels of IDREFs", func() {
		_, err = Unmarshal([]byte(doc.String()), &v)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 65 {
		t.Fatalf("decoded %d levels, want 65", len(v))
	}
	top, _ := v[64].([]interface{})
	if len(top) != 2 {
		t.Fatalf("top level has %d elements", len(top))
	}
	a, _ := top[0].([]interface{})
	b, _ := top[1].([]interface{})
	if len(a) != 2 || &a[0] != &b[0] {
		t.Error("IDREFs to one element decode to separate copies")
	}
}
