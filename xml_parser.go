package plist

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// xmlPlistParser reads an Apple XML property list token by token.
type xmlPlistParser struct {
	dec    *xml.Decoder
	ntags  int
	depth  int
	idrefs map[string]cfValue
}

func newXMLPlistParser(r io.Reader) *xmlPlistParser {
	return &xmlPlistParser{
		dec:    xml.NewDecoder(r),
		idrefs: make(map[string]cfValue),
	}
}

func (p *xmlPlistParser) parseDocument() (cfValue, error) {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			// no element at all: this is not an XML property list
			return nil, invalidPlistError{"XML", err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		pval, err := p.element(start)
		if err != nil {
			var invalid invalidPlistError
			if errors.As(err, &invalid) {
				return nil, err
			}
			return nil, plistParseError{"XML", err}
		}
		return pval, nil
	}
}

func (p *xmlPlistParser) element(start xml.StartElement) (cfValue, error) {
	first := p.ntags == 0
	p.ntags++
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > bplistMaxDepth {
		return nil, fmt.Errorf("elements nested deeper than %d", bplistMaxDepth)
	}

	var (
		pval cfValue
		err  error
	)
	switch name := start.Name.Local; name {
	case "plist":
		pval, err = p.plist()
	case "dict":
		pval, err = p.dict()
	case "array":
		pval, err = p.array()
	case "true", "false":
		pval, err = cfBoolean(name == "true"), p.dec.Skip()
	case "string", "integer", "real", "date", "data":
		var text string
		if err = p.dec.DecodeElement(&text, &start); err == nil {
			pval, err = parseXMLText(name, text)
		}
	default:
		err = fmt.Errorf("unknown element <%s>", name)
		if first {
			return nil, invalidPlistError{"XML", err}
		}
	}
	if err != nil {
		return nil, err
	}
	return p.reference(start, pval)
}

// reference records ID attributes and resolves IDREF ones.
func (p *xmlPlistParser) reference(start xml.StartElement, pval cfValue) (cfValue, error) {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "ID":
			p.idrefs[attr.Value] = pval
		case "IDREF":
			ref, ok := p.idrefs[attr.Value]
			if !ok {
				return nil, fmt.Errorf("unknown IDREF %q", attr.Value)
			}
			return ref, nil
		}
	}
	return pval, nil
}

// plist reads the single root value and the closing </plist>.
func (p *xmlPlistParser) plist() (cfValue, error) {
	var root cfValue
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, errors.New("more than one root element")
			}
			if root, err = p.element(tok); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if root == nil {
				return nil, invalidPlistError{"XML", errors.New("no root element")}
			}
			return root, nil
		}
	}
}

func (p *xmlPlistParser) dict() (cfValue, error) {
	dict := &cfDictionary{}
	var key *string
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, err
		}
		switch tok := tok.(type) {
		case xml.EndElement:
			if key != nil {
				return nil, fmt.Errorf("missing value for key %q", *key)
			}
			return dict.maybeUID(false), nil
		case xml.StartElement:
			if tok.Name.Local == "key" {
				if key != nil {
					return nil, fmt.Errorf("missing value for key %q", *key)
				}
				var k string
				if err := p.dec.DecodeElement(&k, &tok); err != nil {
					return nil, err
				}
				key = &k
				continue
			}
			if key == nil {
				return nil, fmt.Errorf("<%s> without a key in dictionary", tok.Name.Local)
			}
			v, err := p.element(tok)
			if err != nil {
				return nil, err
			}
			dict.keys = append(dict.keys, newString(*key))
			dict.values = append(dict.values, v)
			key = nil
		}
	}
}

func (p *xmlPlistParser) array() (cfValue, error) {
	arr := &cfArray{}
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, err
		}
		switch tok := tok.(type) {
		case xml.EndElement:
			return arr, nil
		case xml.StartElement:
			v, err := p.element(tok)
			if err != nil {
				return nil, err
			}
			arr.values = append(arr.values, v)
		}
	}
}

// parseXMLText converts the body of a scalar element. Empty bodies read as
// the zero value of the element's type.
func parseXMLText(name, text string) (cfValue, error) {
	if name == "string" {
		return newString(text), nil
	}
	text = strings.TrimSpace(text)
	switch name {
	case "integer":
		if text == "" {
			return newUnsignedInteger(0), nil
		}
		return parseInteger(text)
	case "real":
		if text == "" {
			return &cfReal{value: 0}, nil
		}
		return parseReal(text)
	case "date":
		if text == "" {
			return cfDate(0), nil
		}
		t, err := time.ParseInLocation(time.RFC3339, text, time.UTC)
		if err != nil {
			return nil, err
		}
		return newDate(t), nil
	case "data":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(text), ""))
		if err != nil {
			return nil, err
		}
		return cfData(b), nil
	}
	return nil, fmt.Errorf("unknown element <%s>", name)
}
