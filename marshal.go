package plist

import (
	"fmt"
	"math/big"
	"reflect"
	"time"
	"unicode/utf8"
)

var (
	timeType   = reflect.TypeOf((*time.Time)(nil)).Elem()
	uidType    = reflect.TypeOf(UID(0))
	setType    = reflect.TypeOf(Set(nil))
	bigIntType = reflect.TypeOf((*big.Int)(nil)).Elem()
)

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}

// visit identifies a reference-typed Go value on the current marshal path.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// marshaller converts Go values into the property list value model.
type marshaller struct {
	active map[visit]struct{}
}

// adapt converts a Go value into a property list value.
func adapt(v interface{}) (pval cfValue, err error) {
	m := &marshaller{active: make(map[visit]struct{})}
	return m.marshal(reflect.ValueOf(v))
}

func (m *marshaller) enter(val reflect.Value) (visit, error) {
	key := visit{ptr: val.Pointer(), typ: val.Type()}
	if val.Kind() == reflect.Slice {
		key.len = val.Len()
	}
	if _, ok := m.active[key]; ok {
		return key, fmt.Errorf("%w: %v", ErrCyclicReference, val.Type())
	}
	m.active[key] = struct{}{}
	return key, nil
}

func (m *marshaller) leave(key visit) {
	delete(m.active, key)
}

func (m *marshaller) marshal(val reflect.Value) (cfValue, error) {
	if !val.IsValid() {
		return cfNull{}, nil
	}

	switch val.Type() {
	case timeType:
		return newDate(val.Interface().(time.Time)), nil
	case uidType:
		return cfUID(val.Uint()), nil
	case bigIntType:
		b := val.Interface().(big.Int)
		return numberFromBig(&b)
	}

	switch val.Kind() {
	case reflect.Interface:
		if val.IsNil() {
			return cfNull{}, nil
		}
		return m.marshal(val.Elem())
	case reflect.Ptr:
		if val.IsNil() {
			return cfNull{}, nil
		}
		if val.Type().Elem() == bigIntType {
			return numberFromBig(val.Interface().(*big.Int))
		}
		key, err := m.enter(val)
		if err != nil {
			return nil, err
		}
		defer m.leave(key)
		return m.marshal(val.Elem())
	case reflect.Bool:
		return cfBoolean(val.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return newSignedInteger(val.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return newUnsignedInteger(val.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return &cfReal{value: val.Float()}, nil
	case reflect.String:
		if !utf8.ValidString(val.String()) {
			return nil, fmt.Errorf("%w: string %q is not valid UTF-8", ErrUnsupportedType, val.String())
		}
		return newString(val.String()), nil
	case reflect.Slice, reflect.Array:
		return m.marshalSequence(val)
	case reflect.Map:
		return m.marshalMap(val)
	case reflect.Struct:
		return m.marshalStruct(val)
	}
	return nil, &UnsupportedTypeError{val.Type()}
}

func (m *marshaller) marshalSequence(val reflect.Value) (cfValue, error) {
	typ := val.Type()
	if typ.Elem().Kind() == reflect.Uint8 && typ != setType {
		if val.Kind() == reflect.Slice {
			return cfData(append([]byte{}, val.Bytes()...)), nil
		}
		bytes := make([]byte, val.Len())
		reflect.Copy(reflect.ValueOf(bytes), val)
		return cfData(bytes), nil
	}

	if val.Kind() == reflect.Slice && !val.IsNil() {
		key, err := m.enter(val)
		if err != nil {
			return nil, err
		}
		defer m.leave(key)
	}

	values := make([]cfValue, val.Len())
	for i := range values {
		v, err := m.marshal(val.Index(i))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	if typ == setType {
		return &cfSet{values: values}, nil
	}
	return &cfArray{values: values}, nil
}

func (m *marshaller) marshalMap(val reflect.Value) (cfValue, error) {
	if !val.IsNil() {
		key, err := m.enter(val)
		if err != nil {
			return nil, err
		}
		defer m.leave(key)
	}

	n := val.Len()
	dict := &cfDictionary{
		keys:   make([]cfValue, 0, n),
		values: make([]cfValue, 0, n),
	}
	iter := val.MapRange()
	for iter.Next() {
		k, err := m.marshal(iter.Key())
		if err != nil {
			return nil, err
		}
		if err := validateKey(k); err != nil {
			return nil, err
		}
		v, err := m.marshal(iter.Value())
		if err != nil {
			return nil, err
		}
		dict.keys = append(dict.keys, k)
		dict.values = append(dict.values, v)
	}
	dict.sort()
	return dict, nil
}

func (m *marshaller) marshalStruct(val reflect.Value) (cfValue, error) {
	tinfo, err := GetTypeInfo(val.Type())
	if err != nil {
		return nil, err
	}

	dict := &cfDictionary{
		keys:   make([]cfValue, 0, len(tinfo.Fields)),
		values: make([]cfValue, 0, len(tinfo.Fields)),
	}
	for _, finfo := range tinfo.Fields {
		value, ok := finfo.valueForReading(val)
		if !ok || (finfo.OmitEmpty && isEmptyValue(value)) {
			continue
		}
		v, err := m.marshal(value)
		if err != nil {
			return nil, err
		}
		dict.keys = append(dict.keys, newString(finfo.Name))
		dict.values = append(dict.values, v)
	}
	return dict, nil
}
