package plist

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// UID is a keyed-archiver object reference. It is encoded as its own
// object kind and never converted to or from a plain integer.
type UID uint64

// Set is an unordered collection of property list values.
// Its elements are written, and read back, in slice order.
type Set []interface{}

type cfValue interface {
	typeName() string
	hash() interface{}
}

// Leaf dedup keys. Each kind gets its own Go type so that values of
// different kinds never compare equal inside the object table index.
type (
	realKey uint64
	dateKey uint64
	dataKey string
)

type cfNull struct{}

func (cfNull) typeName() string {
	return "null"
}

func (p cfNull) hash() interface{} {
	return p
}

type cfBoolean bool

func (cfBoolean) typeName() string {
	return "boolean"
}

func (p cfBoolean) hash() interface{} {
	return p
}

// cfNumber holds an integer in -2^63 ... 2^64-1. signed is set exactly
// when the value is negative, in which case value holds its two's complement.
type cfNumber struct {
	signed bool
	value  uint64
}

func newSignedInteger(n int64) *cfNumber {
	return &cfNumber{signed: n < 0, value: uint64(n)}
}

func newUnsignedInteger(n uint64) *cfNumber {
	return &cfNumber{signed: false, value: n}
}

func (*cfNumber) typeName() string {
	return "integer"
}

func (p *cfNumber) hash() interface{} {
	return *p
}

type cfReal struct {
	value float64
}

func (*cfReal) typeName() string {
	return "real"
}

func (p *cfReal) hash() interface{} {
	return realKey(math.Float64bits(p.value))
}

// cfDate is a count of seconds since 2001-01-01T00:00:00Z.
type cfDate float64

const (
	secondsPerMinute       = 60
	secondsPerHour         = 60 * secondsPerMinute
	secondsPerDay          = 24 * secondsPerHour
	unixToCocoa      int64 = (31*365 + 31/4 + 1) * secondsPerDay
)

func newDate(t time.Time) cfDate {
	secs := t.Unix() - unixToCocoa
	return cfDate(float64(secs) + float64(t.Nanosecond())/float64(time.Second))
}

func (p cfDate) toTime() time.Time {
	secs, frac := math.Modf(float64(p))
	return time.Unix(int64(secs)+unixToCocoa, int64(math.Round(frac*float64(time.Second)))).UTC()
}

func (cfDate) typeName() string {
	return "date"
}

func (p cfDate) hash() interface{} {
	return dateKey(math.Float64bits(float64(p)))
}

type cfData []byte

func (cfData) typeName() string {
	return "data"
}

func (p cfData) hash() interface{} {
	return dataKey(p)
}

// cfString is a string stored one byte per character.
type cfString string

func (cfString) typeName() string {
	return "string"
}

func (p cfString) hash() interface{} {
	return p
}

// cfUnicodeString is a string stored as UTF-16 code units.
type cfUnicodeString string

func (cfUnicodeString) typeName() string {
	return "unicode string"
}

func (p cfUnicodeString) hash() interface{} {
	return p
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// newString picks the narrowest string kind for s.
func newString(s string) cfValue {
	if isASCII(s) {
		return cfString(s)
	}
	return cfUnicodeString(s)
}

type cfUID UID

func (cfUID) typeName() string {
	return "UID"
}

func (p cfUID) hash() interface{} {
	return p
}

func (p cfUID) toDict() *cfDictionary {
	return &cfDictionary{
		keys:   []cfValue{cfString("CF$UID")},
		values: []cfValue{newUnsignedInteger(uint64(p))},
	}
}

// Containers hash by identity.

type cfArray struct {
	values []cfValue
}

func (*cfArray) typeName() string {
	return "array"
}

func (p *cfArray) hash() interface{} {
	return p
}

type cfSet struct {
	values []cfValue
}

func (*cfSet) typeName() string {
	return "set"
}

func (p *cfSet) hash() interface{} {
	return p
}

type cfDictionary struct {
	keys   []cfValue
	values []cfValue
}

func (*cfDictionary) typeName() string {
	return "dictionary"
}

func (p *cfDictionary) hash() interface{} {
	return p
}

func (p *cfDictionary) Len() int {
	return len(p.keys)
}

func (p *cfDictionary) Less(i, j int) bool {
	return keyString(p.keys[i]) < keyString(p.keys[j])
}

func (p *cfDictionary) Swap(i, j int) {
	p.keys[i], p.keys[j] = p.keys[j], p.keys[i]
	p.values[i], p.values[j] = p.values[j], p.values[i]
}

func (p *cfDictionary) sort() {
	sort.Stable(p)
}

// maybeUID turns a {"CF$UID": n} dictionary into a UID.
func (p *cfDictionary) maybeUID(lax bool) cfValue {
	if len(p.keys) != 1 || keyString(p.keys[0]) != "CF$UID" {
		return p
	}
	switch v := p.values[0].(type) {
	case *cfNumber:
		if !v.signed && (lax || v.value <= math.MaxUint32) {
			return cfUID(v.value)
		}
	case cfUID:
		return v
	}
	return p
}

// validateKey accepts only the two string kinds as dictionary keys.
func validateKey(k cfValue) error {
	switch k.(type) {
	case cfString, cfUnicodeString:
		return nil
	case nil:
		return fmt.Errorf("%w: missing key", ErrInvalidKey)
	}
	return fmt.Errorf("%w: %s", ErrInvalidKey, k.typeName())
}

// keyString returns the text of a validated key.
func keyString(k cfValue) string {
	switch k := k.(type) {
	case cfString:
		return string(k)
	case cfUnicodeString:
		return string(k)
	}
	return ""
}
