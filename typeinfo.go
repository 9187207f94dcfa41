package plist

import (
	"reflect"
	"strings"
	"sync"
)

// TypeInfo holds the dictionary layout of a struct type.
type TypeInfo struct {
	Fields []FieldInfo
}

// FieldInfo describes one struct field as a dictionary entry.
type FieldInfo struct {
	idx       []int
	Name      string
	OmitEmpty bool
}

var tinfoMap = &sync.Map{}

// GetTypeInfo returns the dictionary layout of typ, which is cached.
// Non-struct types have no fields.
func GetTypeInfo(typ reflect.Type) (*TypeInfo, error) {
	if cached, ok := tinfoMap.Load(typ); ok {
		return cached.(*TypeInfo), nil
	}
	tinfo := &TypeInfo{}
	if typ.Kind() == reflect.Struct {
		tinfo.Fields = collectFields(typ, nil, map[reflect.Type]bool{})
	}
	cached, _ := tinfoMap.LoadOrStore(typ, tinfo)
	return cached.(*TypeInfo), nil
}

// collectFields lists the fields of typ, flattening embedded structs.
// When two fields share a name the shallower one wins; at equal depth
// neither is kept.
func collectFields(typ reflect.Type, index []int, seen map[reflect.Type]bool) []FieldInfo {
	if seen[typ] {
		return nil
	}
	seen[typ] = true
	defer delete(seen, typ)

	var fields []FieldInfo
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name, omitEmpty, skip := parsePlistTag(f.Tag.Get("plist"))
		if skip || (!f.Anonymous && f.PkgPath != "") {
			continue
		}
		idx := append(append([]int{}, index...), i)

		if f.Anonymous && name == "" {
			t := f.Type
			if t.Kind() == reflect.Ptr {
				t = t.Elem()
			}
			if t.Kind() == reflect.Struct {
				fields = mergeFields(fields, collectFields(t, idx, seen))
				continue
			}
			if f.PkgPath != "" {
				continue
			}
		}

		if name == "" {
			name = f.Name
		}
		fields = mergeFields(fields, []FieldInfo{{idx: idx, Name: name, OmitEmpty: omitEmpty}})
	}
	return fields
}

func mergeFields(fields, more []FieldInfo) []FieldInfo {
	for _, f := range more {
		pos := -1
		for i := range fields {
			if fields[i].Name == f.Name {
				pos = i
				break
			}
		}
		switch {
		case pos < 0:
			fields = append(fields, f)
		case len(f.idx) < len(fields[pos].idx):
			fields[pos] = f
		case len(f.idx) == len(fields[pos].idx):
			fields = append(fields[:pos], fields[pos+1:]...)
		}
	}
	return fields
}

// parsePlistTag splits a `plist:"name,omitempty"` tag.
// A bare "-" skips the field; "-," names it "-".
func parsePlistTag(tag string) (name string, omitEmpty, skip bool) {
	if tag == "-" {
		return "", false, true
	}
	tokens := strings.Split(tag, ",")
	for _, flag := range tokens[1:] {
		if flag == "omitempty" {
			omitEmpty = true
		}
	}
	return tokens[0], omitEmpty, false
}

// Value returns v's field value corresponding to finfo,
// allocating nil embedded struct pointers along the way.
func (finfo *FieldInfo) Value(v reflect.Value) reflect.Value {
	v, _ = finfo.walk(v, true)
	return v
}

// valueForReading is like Value but does not allocate: it reports false
// when an embedded struct pointer on the path is nil.
func (finfo *FieldInfo) valueForReading(v reflect.Value) (reflect.Value, bool) {
	return finfo.walk(v, false)
}

func (finfo *FieldInfo) walk(v reflect.Value, alloc bool) (reflect.Value, bool) {
	for i, x := range finfo.idx {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !alloc || !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}
