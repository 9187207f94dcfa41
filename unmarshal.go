package plist

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"
)

// materialize converts a property list value into plain Go values.
// A container reached through several references becomes one Go value.
func materialize(pval cfValue) interface{} {
	return materializer{}.value(pval)
}

// materializer remembers the Go value built for each container.
type materializer map[cfValue]interface{}

func (m materializer) value(pval cfValue) interface{} {
	switch pval := pval.(type) {
	case cfNull, nil:
		return nil
	case cfBoolean:
		return bool(pval)
	case *cfNumber:
		if pval.signed || pval.value <= math.MaxInt64 {
			return int64(pval.value)
		}
		return pval.value
	case *cfReal:
		return pval.value
	case cfDate:
		return pval.toTime()
	case cfData:
		return []byte(pval)
	case cfString:
		return string(pval)
	case cfUnicodeString:
		return string(pval)
	case cfUID:
		return UID(pval)
	case *cfArray:
		if v, ok := m[pval]; ok {
			return v
		}
		array := make([]interface{}, len(pval.values))
		for i, v := range pval.values {
			array[i] = m.value(v)
		}
		m[pval] = array
		return array
	case *cfSet:
		if v, ok := m[pval]; ok {
			return v
		}
		set := make(Set, len(pval.values))
		for i, v := range pval.values {
			set[i] = m.value(v)
		}
		m[pval] = set
		return set
	case *cfDictionary:
		if v, ok := m[pval]; ok {
			return v
		}
		dict := make(map[string]interface{}, len(pval.keys))
		for i, k := range pval.keys {
			dict[keyString(k)] = m.value(pval.values[i])
		}
		m[pval] = dict
		return dict
	}
	panic(fmt.Errorf("plist: unknown value %T", pval))
}

func incompatibleTypeError(pval interface{}, typ reflect.Type) error {
	return fmt.Errorf("plist: cannot assign %T to %v", pval, typ)
}

// unmarshal stores a materialized value into val, converting between
// compatible Go types.
func unmarshal(pval interface{}, val reflect.Value) error {
	a := &assigner{}
	return a.assign(pval, val)
}

// assignKey names a shared source container stored into a target type.
type assignKey struct {
	src uintptr
	len int
	typ reflect.Type
}

// assigner reuses the target built for a container that is referenced
// more than once, so shared input is converted once per target type.
type assigner struct {
	built map[assignKey]reflect.Value
}

func containerKey(pval interface{}, typ reflect.Type) (assignKey, bool) {
	switch pval.(type) {
	case []interface{}, Set, map[string]interface{}:
		v := reflect.ValueOf(pval)
		if v.Len() == 0 {
			return assignKey{}, false
		}
		return assignKey{src: v.Pointer(), len: v.Len(), typ: typ}, true
	}
	return assignKey{}, false
}

func (a *assigner) lookup(pval interface{}, val reflect.Value) (assignKey, bool) {
	key, ok := containerKey(pval, val.Type())
	if !ok {
		return key, false
	}
	if built, hit := a.built[key]; hit {
		val.Set(built)
		return key, true
	}
	return key, false
}

func (a *assigner) remember(key assignKey, val reflect.Value) {
	if key.src == 0 {
		return
	}
	if a.built == nil {
		a.built = make(map[assignKey]reflect.Value)
	}
	a.built[key] = val
}

func (a *assigner) assign(pval interface{}, val reflect.Value) error {
	if pval == nil {
		if val.CanSet() {
			val.Set(reflect.Zero(val.Type()))
		}
		return nil
	}

	if val.Kind() == reflect.Ptr {
		if val.Type().Elem() == bigIntType {
			return unmarshalBigInt(pval, val)
		}
		if val.IsNil() {
			key, hit := a.lookup(pval, val)
			if hit {
				return nil
			}
			ptr := reflect.New(val.Type().Elem())
			val.Set(ptr)
			a.remember(key, ptr)
		}
		val = val.Elem()
	}

	if val.Kind() == reflect.Interface {
		if val.NumMethod() != 0 {
			return incompatibleTypeError(pval, val.Type())
		}
		val.Set(reflect.ValueOf(pval))
		return nil
	}

	switch val.Type() {
	case timeType:
		t, ok := pval.(time.Time)
		if !ok {
			return incompatibleTypeError(pval, val.Type())
		}
		val.Set(reflect.ValueOf(t))
		return nil
	case bigIntType:
		return unmarshalBigInt(pval, val.Addr())
	}

	switch pval := pval.(type) {
	case string:
		if val.Kind() != reflect.String {
			return incompatibleTypeError(pval, val.Type())
		}
		val.SetString(pval)
	case int64:
		return unmarshalInteger(pval < 0, uint64(pval), val)
	case uint64:
		return unmarshalInteger(false, pval, val)
	case UID:
		switch val.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return unmarshalInteger(false, uint64(pval), val)
		}
		return incompatibleTypeError(pval, val.Type())
	case float64:
		if val.Kind() != reflect.Float32 && val.Kind() != reflect.Float64 {
			return incompatibleTypeError(pval, val.Type())
		}
		val.SetFloat(pval)
	case bool:
		if val.Kind() != reflect.Bool {
			return incompatibleTypeError(pval, val.Type())
		}
		val.SetBool(pval)
	case []byte:
		switch {
		case val.Kind() == reflect.Slice && val.Type().Elem().Kind() == reflect.Uint8:
			val.SetBytes(append([]byte{}, pval...))
		case val.Kind() == reflect.Array && val.Type().Elem().Kind() == reflect.Uint8:
			if val.Len() != len(pval) {
				return fmt.Errorf("plist: cannot assign %d bytes to %v", len(pval), val.Type())
			}
			reflect.Copy(val, reflect.ValueOf(pval))
		default:
			return incompatibleTypeError(pval, val.Type())
		}
	case time.Time:
		return incompatibleTypeError(pval, val.Type())
	case Set:
		return a.assignSequence([]interface{}(pval), val)
	case []interface{}:
		return a.assignSequence(pval, val)
	case map[string]interface{}:
		switch val.Kind() {
		case reflect.Map:
			return a.assignMap(pval, val)
		case reflect.Struct:
			return a.assignStruct(pval, val)
		}
		return incompatibleTypeError(pval, val.Type())
	default:
		return fmt.Errorf("plist: not a property list value: %T", pval)
	}
	return nil
}

func unmarshalInteger(negative bool, n uint64, val reflect.Value) error {
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !negative && n > math.MaxInt64 {
			return fmt.Errorf("%w: %d overflows %v", ErrOutOfRange, n, val.Type())
		}
		if val.OverflowInt(int64(n)) {
			return fmt.Errorf("%w: %d overflows %v", ErrOutOfRange, int64(n), val.Type())
		}
		val.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if negative || val.OverflowUint(n) {
			return fmt.Errorf("%w: %d overflows %v", ErrOutOfRange, n, val.Type())
		}
		val.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if negative {
			val.SetFloat(float64(int64(n)))
		} else {
			val.SetFloat(float64(n))
		}
	default:
		return fmt.Errorf("plist: cannot assign integer to %v", val.Type())
	}
	return nil
}

func unmarshalBigInt(pval interface{}, val reflect.Value) error {
	var b *big.Int
	switch pval := pval.(type) {
	case int64:
		b = big.NewInt(pval)
	case uint64:
		b = new(big.Int).SetUint64(pval)
	default:
		return incompatibleTypeError(pval, val.Type())
	}
	if val.IsNil() {
		val.Set(reflect.ValueOf(b))
		return nil
	}
	val.Interface().(*big.Int).Set(b)
	return nil
}

func (a *assigner) assignSequence(array []interface{}, val reflect.Value) error {
	switch val.Kind() {
	case reflect.Slice:
		key, hit := a.lookup(array, val)
		if hit {
			return nil
		}
		slice := reflect.MakeSlice(val.Type(), len(array), len(array))
		for i, v := range array {
			if err := a.assign(v, slice.Index(i)); err != nil {
				return err
			}
		}
		val.Set(slice)
		a.remember(key, slice)
	case reflect.Array:
		if val.Len() != len(array) {
			return fmt.Errorf("plist: cannot assign %d elements to %v", len(array), val.Type())
		}
		for i, v := range array {
			if err := a.assign(v, val.Index(i)); err != nil {
				return err
			}
		}
	default:
		return incompatibleTypeError(array, val.Type())
	}
	return nil
}

func (a *assigner) assignMap(dict map[string]interface{}, val reflect.Value) error {
	typ := val.Type()
	if typ.Key().Kind() != reflect.String {
		return fmt.Errorf("plist: cannot use %v as a dictionary key", typ.Key())
	}
	if val.IsNil() {
		key, hit := a.lookup(dict, val)
		if hit {
			return nil
		}
		m := reflect.MakeMapWithSize(typ, len(dict))
		val.Set(m)
		a.remember(key, m)
	}
	for k, v := range dict {
		elem := reflect.New(typ.Elem()).Elem()
		if err := a.assign(v, elem); err != nil {
			return err
		}
		val.SetMapIndex(reflect.ValueOf(k).Convert(typ.Key()), elem)
	}
	return nil
}

func (a *assigner) assignStruct(dict map[string]interface{}, val reflect.Value) error {
	tinfo, err := GetTypeInfo(val.Type())
	if err != nil {
		return err
	}
	for _, finfo := range tinfo.Fields {
		if dval, ok := dict[finfo.Name]; ok {
			field := finfo.Value(val)
			if !field.IsValid() || !field.CanSet() {
				continue
			}
			if err := a.assign(dval, field); err != nil {
				return fmt.Errorf("field %s: %w", finfo.Name, err)
			}
		}
	}
	return nil
}
