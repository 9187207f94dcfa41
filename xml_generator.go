package plist

import (
	"bufio"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

const (
	xmlHEADER  = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	xmlDOCTYPE = `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n"

	// base64 text longer than this is folded onto its own lines
	xmlDataLineWidth = 68
)

// xmlPlistGenerator writes the Apple XML rendition of a value tree.
// Write errors are sticky in the bufio.Writer and surface from Flush.
type xmlPlistGenerator struct {
	w      *bufio.Writer
	indent string
	depth  int
}

func newXMLPlistGenerator(w io.Writer) *xmlPlistGenerator {
	return &xmlPlistGenerator{w: bufio.NewWriter(w)}
}

func (g *xmlPlistGenerator) Indent(indent string) {
	g.indent = indent
}

func (g *xmlPlistGenerator) generateDocument(root cfValue) error {
	g.w.WriteString(xmlHEADER)
	g.w.WriteString(xmlDOCTYPE)
	g.w.WriteString(`<plist version="1.0">` + "\n")
	if err := g.value(root); err != nil {
		return err
	}
	g.w.WriteString("</plist>")
	return g.w.Flush()
}

func (g *xmlPlistGenerator) pad() {
	for i := 0; i < g.depth; i++ {
		g.w.WriteString(g.indent)
	}
}

func (g *xmlPlistGenerator) line(s string) {
	g.pad()
	g.w.WriteString(s)
	g.w.WriteByte('\n')
}

// leaf writes <tag>text</tag>, or <tag/> for empty text.
func (g *xmlPlistGenerator) leaf(tag, text string) error {
	if text == "" {
		g.line("<" + tag + "/>")
		return nil
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: string %q is not valid UTF-8", ErrUnsupportedType, text)
	}
	g.pad()
	g.w.WriteString("<" + tag + ">")
	if err := xml.EscapeText(g.w, []byte(text)); err != nil {
		return err
	}
	g.w.WriteString("</" + tag + ">\n")
	return nil
}

// open starts a container element and reports whether it has a body to close.
func (g *xmlPlistGenerator) open(tag string, n int) bool {
	if n == 0 {
		g.line("<" + tag + "/>")
		return false
	}
	g.line("<" + tag + ">")
	g.depth++
	return true
}

func (g *xmlPlistGenerator) close(tag string) {
	g.depth--
	g.line("</" + tag + ">")
}

func (g *xmlPlistGenerator) value(pval cfValue) error {
	switch pval := pval.(type) {
	case cfString:
		return g.leaf("string", string(pval))
	case cfUnicodeString:
		return g.leaf("string", string(pval))
	case *cfNumber:
		if pval.signed {
			return g.leaf("integer", strconv.FormatInt(int64(pval.value), 10))
		}
		return g.leaf("integer", strconv.FormatUint(pval.value, 10))
	case *cfReal:
		return g.leaf("real", formatXMLFloat(pval.value))
	case cfBoolean:
		if pval {
			return g.leaf("true", "")
		}
		return g.leaf("false", "")
	case cfData:
		g.data(pval)
		return nil
	case cfDate:
		return g.leaf("date", pval.toTime().Format(time.RFC3339))
	case cfUID:
		return g.value(pval.toDict())
	case *cfDictionary:
		if !g.open("dict", len(pval.keys)) {
			return nil
		}
		for i, k := range pval.keys {
			if err := g.leaf("key", keyString(k)); err != nil {
				return err
			}
			if err := g.value(pval.values[i]); err != nil {
				return err
			}
		}
		g.close("dict")
		return nil
	case *cfArray:
		return g.array(pval.values)
	case *cfSet:
		// XML has no set element.
		return g.array(pval.values)
	}
	return unsupportedValueError(pval)
}

func (g *xmlPlistGenerator) array(values []cfValue) error {
	if !g.open("array", len(values)) {
		return nil
	}
	for _, v := range values {
		if err := g.value(v); err != nil {
			return err
		}
	}
	g.close("array")
	return nil
}

func (g *xmlPlistGenerator) data(b []byte) {
	text := base64.StdEncoding.EncodeToString(b)
	if len(text) <= xmlDataLineWidth {
		g.leaf("data", text)
		return
	}
	g.line("<data>")
	for len(text) > 0 {
		n := xmlDataLineWidth
		if n > len(text) {
			n = len(text)
		}
		g.line(text[:n])
		text = text[n:]
	}
	g.line("</data>")
}

func formatXMLFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
