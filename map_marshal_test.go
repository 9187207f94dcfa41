package plist

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDictionaryUnmarshal(t *testing.T) {
	dict := Dictionary{
		"name":  "widget",
		"count": int64(3),
		"tags":  []interface{}{"a", "b"},
	}
	var out struct {
		Name  string   `plist:"name"`
		Count uint8    `plist:"count"`
		Tags  []string `plist:"tags"`
	}
	if err := dict.Unmarshal(&out); err != nil {
		t.Fatal(err)
	}
	if out.Name != "widget" || out.Count != 3 || !cmp.Equal(out.Tags, []string{"a", "b"}) {
		t.Errorf("decoded %+v", out)
	}

	var m map[string]interface{}
	if err := dict.Unmarshal(&m); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]interface{}(dict), m); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if err := dict.Unmarshal(out); err == nil {
		t.Error("Unmarshal into a non-pointer succeeded")
	}
	if err := (Dictionary{"count": "three"}).Unmarshal(&out); err == nil {
		t.Error("string stored into an integer field")
	}
}

func TestDictionaryString(t *testing.T) {
	s := Dictionary{"key": "value"}.String()
	if !strings.Contains(s, "<key>key</key>") || !strings.Contains(s, "<string>value</string>") {
		t.Errorf("String() =\n%s", s)
	}
	s = Dictionary{"bad": make(chan int)}.String()
	if !strings.HasPrefix(s, "plist.Dictionary(") {
		t.Errorf("String() of an unsupported value = %q", s)
	}
}

func TestConvertToJSON(t *testing.T) {
	data, err := Marshal(map[string]interface{}{"name": "x", "n": 1, "list": []bool{true}}, BinaryFormat)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ConvertToJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"list":[true],"n":1,"name":"x"}`; string(got) != want {
		t.Errorf("ConvertToJSON = %s, want %s", got, want)
	}
	if _, err := ConvertToJSON([]byte("garbage")); err == nil {
		t.Error("ConvertToJSON accepted garbage")
	}
}
