package plist

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	uuid "github.com/satori/go.uuid"
)

const (
	archiverName    = "NSKeyedArchiver"
	archiverVersion = 100000
	archiverNull    = "$null"
)

type archiverDate struct {
	Time  float64 `plist:"NS.time"`
	Class UID     `plist:"$class"`
}
type archiverData struct {
	Data  []byte `plist:"NS.data"`
	Class UID    `plist:"$class"`
}
type archiverUUID struct {
	Bytes []byte `plist:"NS.uuidbytes"`
	Class UID    `plist:"$class"`
}
type archiverArray struct {
	Objects []interface{} `plist:"NS.objects"`
	Class   UID           `plist:"$class"`
}
type archiverTable struct {
	Keys    []UID         `plist:"NS.keys"`
	Objects []interface{} `plist:"NS.objects"`
	Class   UID           `plist:"$class"`
}

type archiverClass struct {
	ClassName string   `plist:"$classname"`
	Classes   []string `plist:"$classes"`
}

func newArchiverClass(classes ...string) *archiverClass {
	return &archiverClass{ClassName: classes[0], Classes: classes}
}

type archivedKind int

const (
	archivedObject archivedKind = iota
	archivedDictionary
	archivedArray
	archivedData
	archivedUUID
	archivedDate
)

func (c *archiverClass) kind() archivedKind {
	switch c.ClassName {
	case "NSMutableDictionary", "NSDictionary":
		return archivedDictionary
	case "NSMutableArray", "NSArray":
		return archivedArray
	case "NSMutableData", "NSData":
		return archivedData
	case "NSUUID":
		return archivedUUID
	case "NSDate":
		return archivedDate
	}
	return archivedObject
}

var (
	archiverDictionaryClass = newArchiverClass("NSMutableDictionary", "NSDictionary", "NSObject")
	archiverArrayClass      = newArchiverClass("NSMutableArray", "NSArray", "NSObject")
	archiverDataClass       = newArchiverClass("NSMutableData", "NSData", "NSObject")
	archiverDateClass       = newArchiverClass("NSDate", "NSObject")
	archiverUUIDClass       = newArchiverClass("NSUUID", "NSObject")

	archiverUUIDType = reflect.TypeOf(uuid.UUID{})

	archiverClassesMu sync.RWMutex
	archiverClasses   = make(map[reflect.Type]*archiverClass)

	errArchiverNoRoot = errors.New("plist: archive has no root object")
	errArchiverDepth  = fmt.Errorf("plist: archive nested deeper than %d objects", bplistMaxDepth)
)

//ArchiverAddFoundation 注册结构体对应的Objective-C类, 该类型按对象而非字典归档
func ArchiverAddFoundation(typ reflect.Type, name string, classes ...string) {
	archiverClassesMu.Lock()
	defer archiverClassesMu.Unlock()
	archiverClasses[typ] = &archiverClass{ClassName: name, Classes: classes}
}

func registeredClass(typ reflect.Type) (*archiverClass, bool) {
	archiverClassesMu.RLock()
	defer archiverClassesMu.RUnlock()
	class, ok := archiverClasses[typ]
	return class, ok
}

type archiverTop struct {
	Root UID `plist:"root"`
}

//Archiver NSKeyedArchiver 归档
type Archiver struct {
	Version  int           `plist:"$version"`
	Objects  []interface{} `plist:"$objects"`
	Archiver string        `plist:"$archiver"`
	Top      *archiverTop  `plist:"$top"`
}

//ReadFromZipData 从gzip压缩数据读取
func (a *Archiver) ReadFromZipData(data []byte) error {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer reader.Close()
	plain, err := ioutil.ReadAll(reader)
	if err != nil {
		return err
	}
	return a.ReadFromData(plain)
}

//ReadFromData 从数据读取
func (a *Archiver) ReadFromData(data []byte) error {
	return a.ReadFromReader(bytes.NewReader(data))
}

//ReadFromReader 从流读取
func (a *Archiver) ReadFromReader(reader io.ReadSeeker) error {
	return NewDecoder(reader).Decode(a)
}

// object returns the archived object a reference names.
func (a *Archiver) object(uid UID) (interface{}, error) {
	if uint64(uid) >= uint64(len(a.Objects)) {
		return nil, fmt.Errorf("plist: archive reference %d out of range (%d objects)", uid, len(a.Objects))
	}
	return a.Objects[uid], nil
}

func (a *Archiver) resolve(v interface{}) (interface{}, error) {
	if uid, ok := v.(UID); ok {
		return a.object(uid)
	}
	return v, nil
}

func (a *Archiver) class(dict map[string]interface{}) (*archiverClass, error) {
	uid, ok := dict["$class"].(UID)
	if !ok {
		return nil, errors.New("plist: archived object has no $class")
	}
	obj, err := a.object(uid)
	if err != nil {
		return nil, err
	}
	classDict, ok := obj.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("plist: $class %d is a %T", uid, obj)
	}
	class := &archiverClass{}
	if err := Dictionary(classDict).Unmarshal(class); err != nil {
		return nil, err
	}
	return class, nil
}

// table pairs the keys of an NSDictionary with its (unresolved) values.
func (a *Archiver) table(dict map[string]interface{}) (map[string]interface{}, error) {
	tab := &archiverTable{}
	if err := Dictionary(dict).Unmarshal(tab); err != nil {
		return nil, err
	}
	if len(tab.Keys) != len(tab.Objects) {
		return nil, fmt.Errorf("plist: NSDictionary has %d keys and %d objects", len(tab.Keys), len(tab.Objects))
	}
	kvs := make(map[string]interface{}, len(tab.Keys))
	for i, uid := range tab.Keys {
		obj, err := a.object(uid)
		if err != nil {
			return nil, err
		}
		key, ok := obj.(string)
		if !ok {
			return nil, fmt.Errorf("plist: NSDictionary key %d is a %T", uid, obj)
		}
		kvs[key] = tab.Objects[i]
	}
	return kvs, nil
}

func (a *Archiver) array(dict map[string]interface{}) ([]interface{}, error) {
	arr := &archiverArray{}
	if err := Dictionary(dict).Unmarshal(arr); err != nil {
		return nil, err
	}
	return arr.Objects, nil
}

func (a *Archiver) data(dict map[string]interface{}) ([]byte, error) {
	data := &archiverData{}
	if err := Dictionary(dict).Unmarshal(data); err != nil {
		return nil, err
	}
	return data.Data, nil
}

func (a *Archiver) uuid(dict map[string]interface{}) (uuid.UUID, error) {
	u := &archiverUUID{}
	if err := Dictionary(dict).Unmarshal(u); err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(u.Bytes)
}

func (a *Archiver) date(dict map[string]interface{}) (time.Time, error) {
	date := &archiverDate{}
	if err := Dictionary(dict).Unmarshal(date); err != nil {
		return time.Time{}, err
	}
	return cfDate(date.Time).toTime(), nil
}

// fields returns the members of a custom archived object.
func fields(dict map[string]interface{}) map[string]interface{} {
	kvs := make(map[string]interface{}, len(dict))
	for k, v := range dict {
		if k != "$class" {
			kvs[k] = v
		}
	}
	return kvs
}

//Unmarshal 将根对象解档到v
func (a *Archiver) Unmarshal(v interface{}) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("plist: Unmarshal requires a non-nil pointer, got %T", v)
	}
	if a.Top == nil {
		return errArchiverNoRoot
	}
	d := &archiveDecoder{
		Archiver: a,
		values:   make(map[UID]interface{}),
		built:    make(map[archiveKey]reflect.Value),
	}
	return d.decode(a.Top.Root, val.Elem())
}

type archiveKey struct {
	uid UID
	typ reflect.Type
}

// archiveDecoder converts each referenced object once per target type;
// later references reuse the result.
type archiveDecoder struct {
	*Archiver
	depth  int
	values map[UID]interface{}
	built  map[archiveKey]reflect.Value
}

func (d *archiveDecoder) enter() error {
	d.depth++
	if d.depth > bplistMaxDepth {
		return errArchiverDepth
	}
	return nil
}

func (d *archiveDecoder) leave() {
	d.depth--
}

func (d *archiveDecoder) decode(obj interface{}, val reflect.Value) error {
	if !val.IsValid() || !val.CanSet() {
		return errors.New("plist: cannot unmarshal into an unreachable field")
	}
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	if val.Type() == uidType {
		return unmarshal(obj, val)
	}
	uid, ref := obj.(UID)
	if !ref {
		return d.decodeValue(obj, val)
	}
	key := archiveKey{uid: uid, typ: val.Type()}
	if built, ok := d.built[key]; ok {
		val.Set(built)
		return nil
	}
	if err := d.decodeValue(obj, val); err != nil {
		return err
	}
	built := reflect.New(val.Type()).Elem()
	built.Set(val)
	d.built[key] = built
	return nil
}

func (d *archiveDecoder) decodeValue(obj interface{}, val reflect.Value) error {
	obj, err := d.resolve(obj)
	if err != nil {
		return err
	}
	if obj == nil || obj == archiverNull {
		val.Set(reflect.Zero(val.Type()))
		return nil
	}

	switch val.Kind() {
	case reflect.Ptr:
		if val.IsNil() {
			val.Set(reflect.New(val.Type().Elem()))
		}
		return d.decode(obj, val.Elem())
	case reflect.Interface:
		if val.NumMethod() != 0 {
			return incompatibleTypeError(obj, val.Type())
		}
		g, err := d.generic(obj)
		if err != nil {
			return err
		}
		if g != nil {
			val.Set(reflect.ValueOf(g))
		}
		return nil
	}

	switch obj := obj.(type) {
	case map[string]interface{}:
		return d.decodeObject(obj, val)
	case []interface{}:
		return d.decodeList(obj, val)
	}
	return unmarshal(obj, val)
}

func (d *archiveDecoder) decodeObject(dict map[string]interface{}, val reflect.Value) error {
	class, err := d.class(dict)
	if err != nil {
		return err
	}
	switch class.kind() {
	case archivedDictionary:
		if val.Kind() != reflect.Map && val.Kind() != reflect.Struct {
			break
		}
		kvs, err := d.table(dict)
		if err != nil {
			return err
		}
		if val.Kind() == reflect.Map {
			return d.decodeMap(kvs, val)
		}
		return d.decodeFields(kvs, val)
	case archivedArray:
		items, err := d.array(dict)
		if err != nil {
			return err
		}
		return d.decodeList(items, val)
	case archivedData:
		data, err := d.data(dict)
		if err != nil {
			return err
		}
		return unmarshal(data, val)
	case archivedUUID:
		if val.Type() != archiverUUIDType {
			break
		}
		u, err := d.uuid(dict)
		if err != nil {
			return err
		}
		val.Set(reflect.ValueOf(u))
		return nil
	case archivedDate:
		if val.Type() != timeType {
			break
		}
		t, err := d.date(dict)
		if err != nil {
			return err
		}
		val.Set(reflect.ValueOf(t))
		return nil
	default:
		if val.Kind() == reflect.Struct {
			return d.decodeFields(fields(dict), val)
		}
	}
	return fmt.Errorf("plist: cannot unarchive %s into %v", class.ClassName, val.Type())
}

func (d *archiveDecoder) decodeList(items []interface{}, val reflect.Value) error {
	switch val.Kind() {
	case reflect.Slice:
		slice := reflect.MakeSlice(val.Type(), len(items), len(items))
		for i, item := range items {
			if err := d.decode(item, slice.Index(i)); err != nil {
				return err
			}
		}
		val.Set(slice)
		return nil
	case reflect.Array:
		if val.Len() != len(items) {
			return fmt.Errorf("plist: cannot unarchive %d objects into %v", len(items), val.Type())
		}
		for i, item := range items {
			if err := d.decode(item, val.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return incompatibleTypeError(items, val.Type())
}

func (d *archiveDecoder) decodeMap(kvs map[string]interface{}, val reflect.Value) error {
	typ := val.Type()
	if typ.Key().Kind() != reflect.String {
		return fmt.Errorf("plist: cannot use %v as a dictionary key", typ.Key())
	}
	if val.IsNil() {
		val.Set(reflect.MakeMapWithSize(typ, len(kvs)))
	}
	for k, v := range kvs {
		elem := reflect.New(typ.Elem()).Elem()
		if err := d.decode(v, elem); err != nil {
			return err
		}
		val.SetMapIndex(reflect.ValueOf(k).Convert(typ.Key()), elem)
	}
	return nil
}

func (d *archiveDecoder) decodeFields(kvs map[string]interface{}, val reflect.Value) error {
	tinfo, err := GetTypeInfo(val.Type())
	if err != nil {
		return err
	}
	for _, finfo := range tinfo.Fields {
		raw, ok := kvs[finfo.Name]
		if !ok {
			continue
		}
		field := finfo.Value(val)
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		if err := d.decode(raw, field); err != nil {
			return fmt.Errorf("field %s: %w", finfo.Name, err)
		}
	}
	return nil
}

// generic unarchives obj into plain Go values.
func (d *archiveDecoder) generic(obj interface{}) (interface{}, error) {
	uid, ref := obj.(UID)
	if ref {
		if v, ok := d.values[uid]; ok {
			return v, nil
		}
	}
	v, err := d.genericValue(obj)
	if err != nil {
		return nil, err
	}
	if ref {
		d.values[uid] = v
	}
	return v, nil
}

func (d *archiveDecoder) genericValue(obj interface{}) (interface{}, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	obj, err := d.resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := obj.(type) {
	case string:
		if v == archiverNull {
			return nil, nil
		}
		return v, nil
	case []interface{}:
		return d.genericList(v)
	case map[string]interface{}:
		return d.genericObject(v)
	}
	return obj, nil
}

func (d *archiveDecoder) genericList(items []interface{}) (interface{}, error) {
	out := make([]interface{}, len(items))
	for i, item := range items {
		v, err := d.generic(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d *archiveDecoder) genericObject(dict map[string]interface{}) (interface{}, error) {
	class, err := d.class(dict)
	if err != nil {
		return nil, err
	}
	var kvs map[string]interface{}
	switch class.kind() {
	case archivedDictionary:
		if kvs, err = d.table(dict); err != nil {
			return nil, err
		}
	case archivedArray:
		items, err := d.array(dict)
		if err != nil {
			return nil, err
		}
		return d.genericList(items)
	case archivedData:
		data, err := d.data(dict)
		if err != nil {
			return nil, err
		}
		return data, nil
	case archivedUUID:
		u, err := d.uuid(dict)
		if err != nil {
			return nil, err
		}
		return u, nil
	case archivedDate:
		t, err := d.date(dict)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		kvs = fields(dict)
	}
	out := make(map[string]interface{}, len(kvs))
	for k, item := range kvs {
		v, err := d.generic(item)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

//Marshal 归档为二进制plist
func (a *Archiver) Marshal(v interface{}) ([]byte, error) {
	a.Version = archiverVersion
	a.Archiver = archiverName
	a.Objects = []interface{}{archiverNull}
	a.Top = nil

	e := &archiveEncoder{Archiver: a, active: make(map[visit]struct{})}
	root, err := e.encode(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	a.Top = &archiverTop{Root: root}
	return Marshal(a, BinaryFormat)
}

type archiveEncoder struct {
	*Archiver
	active map[visit]struct{}
}

// add stores obj once and returns its reference.
func (e *archiveEncoder) add(obj interface{}) UID {
	for i, o := range e.Objects {
		if cmp.Equal(o, obj) {
			return UID(i)
		}
	}
	e.Objects = append(e.Objects, obj)
	return UID(len(e.Objects) - 1)
}

func (e *archiveEncoder) enter(val reflect.Value) (visit, error) {
	key := visit{ptr: val.Pointer(), typ: val.Type()}
	if val.Kind() == reflect.Slice {
		key.len = val.Len()
	}
	if _, ok := e.active[key]; ok {
		return key, fmt.Errorf("%w: %v", ErrCyclicReference, val.Type())
	}
	e.active[key] = struct{}{}
	return key, nil
}

func (e *archiveEncoder) encode(val reflect.Value) (UID, error) {
	if !val.IsValid() {
		return 0, nil
	}
	switch val.Kind() {
	case reflect.Interface:
		if val.IsNil() {
			return 0, nil
		}
		return e.encode(val.Elem())
	case reflect.Ptr:
		if val.IsNil() {
			return 0, nil
		}
		key, err := e.enter(val)
		if err != nil {
			return 0, err
		}
		defer delete(e.active, key)
		return e.encode(val.Elem())
	case reflect.Bool:
		return e.add(val.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.add(val.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.add(val.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return e.add(val.Float()), nil
	case reflect.String:
		if val.String() == archiverNull {
			return 0, nil
		}
		return e.add(val.String()), nil
	case reflect.Slice, reflect.Array:
		return e.encodeSequence(val)
	case reflect.Map:
		return e.encodeMap(val)
	case reflect.Struct:
		if val.Type() == timeType {
			date := &archiverDate{Time: float64(newDate(val.Interface().(time.Time)))}
			date.Class = e.add(archiverDateClass)
			return e.add(date), nil
		}
		return e.encodeStruct(val)
	}
	return 0, &UnsupportedTypeError{val.Type()}
}

func (e *archiveEncoder) encodeSequence(val reflect.Value) (UID, error) {
	typ := val.Type()
	switch {
	case typ == archiverUUIDType:
		u := &archiverUUID{Bytes: val.Interface().(uuid.UUID).Bytes()}
		u.Class = e.add(archiverUUIDClass)
		return e.add(u), nil
	case typ.Elem().Kind() == reflect.Uint8:
		data := &archiverData{Data: make([]byte, val.Len())}
		reflect.Copy(reflect.ValueOf(data.Data), val)
		data.Class = e.add(archiverDataClass)
		return e.add(data), nil
	}

	if val.Kind() == reflect.Slice && !val.IsNil() {
		key, err := e.enter(val)
		if err != nil {
			return 0, err
		}
		defer delete(e.active, key)
	}
	arr := &archiverArray{Objects: make([]interface{}, 0, val.Len())}
	for i := 0; i < val.Len(); i++ {
		uid, err := e.encode(val.Index(i))
		if err != nil {
			return 0, err
		}
		arr.Objects = append(arr.Objects, uid)
	}
	arr.Class = e.add(archiverArrayClass)
	return e.add(arr), nil
}

func (e *archiveEncoder) encodeMap(val reflect.Value) (UID, error) {
	if val.Type().Key().Kind() != reflect.String {
		return 0, fmt.Errorf("%w: %v", ErrInvalidKey, val.Type().Key())
	}
	if !val.IsNil() {
		key, err := e.enter(val)
		if err != nil {
			return 0, err
		}
		defer delete(e.active, key)
	}
	keys := val.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	table := &archiverTable{}
	for _, k := range keys {
		uid, err := e.encode(val.MapIndex(k))
		if err != nil {
			return 0, err
		}
		table.Keys = append(table.Keys, e.add(k.String()))
		table.Objects = append(table.Objects, uid)
	}
	table.Class = e.add(archiverDictionaryClass)
	return e.add(table), nil
}

// encodeStruct archives a struct as an NSDictionary, or as an object of
// its registered class.
func (e *archiveEncoder) encodeStruct(val reflect.Value) (UID, error) {
	tinfo, err := GetTypeInfo(val.Type())
	if err != nil {
		return 0, err
	}
	class, custom := registeredClass(val.Type())
	members := make(map[string]interface{}, len(tinfo.Fields)+1)
	table := &archiverTable{}
	for _, finfo := range tinfo.Fields {
		field, ok := finfo.valueForReading(val)
		if !ok || (finfo.OmitEmpty && isEmptyValue(field)) {
			continue
		}
		uid, err := e.encode(field)
		if err != nil {
			return 0, err
		}
		if custom {
			members[finfo.Name] = uid
			continue
		}
		table.Keys = append(table.Keys, e.add(finfo.Name))
		table.Objects = append(table.Objects, uid)
	}
	if custom {
		members["$class"] = e.add(class)
		return e.add(members), nil
	}
	table.Class = e.add(archiverDictionaryClass)
	return e.add(table), nil
}

//Print 输出对象树
func (a *Archiver) Print() string {
	if a.Top == nil {
		return errArchiverNoRoot.Error()
	}
	p := &archivePrinter{a: a, visiting: make(map[UID]bool), printed: make(map[UID]bool)}
	p.value(a.Top.Root, 0)
	return p.String()
}

// archivePrinter expands every container once. Later references print
// as ref(n), references back onto the current path as cycle(n).
type archivePrinter struct {
	strings.Builder
	a        *Archiver
	visiting map[UID]bool
	printed  map[UID]bool
}

func (p *archivePrinter) value(v interface{}, depth int) {
	switch v := v.(type) {
	case UID:
		if p.visiting[v] {
			fmt.Fprintf(p, "cycle(%d)", v)
			return
		}
		obj, err := p.a.object(v)
		if err != nil {
			fmt.Fprintf(p, "invalid(%v)", err)
			return
		}
		switch obj.(type) {
		case map[string]interface{}, []interface{}:
			if p.printed[v] {
				fmt.Fprintf(p, "ref(%d)", v)
				return
			}
			p.printed[v] = true
		}
		p.visiting[v] = true
		p.value(obj, depth)
		delete(p.visiting, v)
	case string:
		if v == archiverNull {
			p.WriteString("null")
			return
		}
		fmt.Fprintf(p, "string(%s)", v)
	case int64, uint64, float64, bool:
		fmt.Fprintf(p, "%T(%v)", v, v)
	case []byte:
		fmt.Fprintf(p, "[]byte(%x)", v)
	case []interface{}:
		p.list("[]interface{", "}", v, depth)
	case map[string]interface{}:
		p.object(v, depth)
	default:
		fmt.Fprintf(p, "unknown(%v)", v)
	}
}

func (p *archivePrinter) object(dict map[string]interface{}, depth int) {
	class, err := p.a.class(dict)
	if err != nil {
		fmt.Fprintf(p, "invalid(%v)", err)
		return
	}
	switch class.kind() {
	case archivedDictionary:
		kvs, err := p.a.table(dict)
		if err != nil {
			fmt.Fprintf(p, "invalid(%v)", err)
			return
		}
		p.members("dict", kvs, depth)
	case archivedArray:
		items, err := p.a.array(dict)
		if err != nil {
			fmt.Fprintf(p, "invalid(%v)", err)
			return
		}
		p.list("array[", "]", items, depth)
	case archivedData:
		data, err := p.a.data(dict)
		if err != nil {
			fmt.Fprintf(p, "invalid(%v)", err)
			return
		}
		fmt.Fprintf(p, "[]byte(%x)", data)
	case archivedUUID:
		u, err := p.a.uuid(dict)
		if err != nil {
			fmt.Fprintf(p, "invalid(%v)", err)
			return
		}
		fmt.Fprintf(p, "uuid(%s)", u)
	case archivedDate:
		t, err := p.a.date(dict)
		if err != nil {
			fmt.Fprintf(p, "invalid(%v)", err)
			return
		}
		fmt.Fprintf(p, "time(%v)", t)
	default:
		p.members(class.ClassName, fields(dict), depth)
	}
}

func (p *archivePrinter) members(name string, kvs map[string]interface{}, depth int) {
	keys := make([]string, 0, len(kvs))
	for k := range kvs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	p.WriteString(name + "{\n")
	for _, k := range keys {
		p.indent(depth + 1)
		fmt.Fprintf(p, "[%s]: ", k)
		p.value(kvs[k], depth+1)
		p.WriteString("\n")
	}
	p.indent(depth)
	p.WriteString("}")
}

func (p *archivePrinter) list(open, end string, items []interface{}, depth int) {
	p.WriteString(open + "\n")
	for i, item := range items {
		p.indent(depth + 1)
		fmt.Fprintf(p, "[%d]: ", i)
		p.value(item, depth+1)
		p.WriteString("\n")
	}
	p.indent(depth)
	p.WriteString(end)
}

func (p *archivePrinter) indent(depth int) {
	p.WriteString(strings.Repeat("\t", depth))
}
