package plist

import (
	"errors"
	"reflect"
)

var (
	// ErrUnsupportedType reports a Go value with no property list representation.
	ErrUnsupportedType = errors.New("plist: unsupported type")
	// ErrOutOfRange reports an integer outside -2^63 ... 2^64-1.
	ErrOutOfRange = errors.New("plist: integer out of range")
	// ErrInvalidKey reports a dictionary key that is not a string.
	ErrInvalidKey = errors.New("plist: invalid dictionary key")
	// ErrCyclicReference reports a container that contains itself, on encode or decode.
	ErrCyclicReference = errors.New("plist: cyclic reference")
	// ErrMalformed reports input that is not a well-formed property list.
	ErrMalformed = errors.New("plist: malformed property list")
)

// UnsupportedTypeError is returned when marshalling a value of a type
// that cannot be represented in a property list.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (u *UnsupportedTypeError) Error() string {
	if u.Type == nil {
		return "plist: unsupported type <nil>"
	}
	return "plist: unsupported type: " + u.Type.String()
}

func (u *UnsupportedTypeError) Unwrap() error {
	return ErrUnsupportedType
}

// invalidPlistError is returned when the input is recognized but broken.
type invalidPlistError struct {
	format string
	err    error
}

func (e invalidPlistError) Error() string {
	s := "plist: invalid " + e.format + " property list"
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

func (e invalidPlistError) Unwrap() error {
	return e.err
}

func (e invalidPlistError) Is(target error) bool {
	return target == ErrMalformed
}

// plistParseError wraps failures of the underlying tokenizer.
type plistParseError struct {
	format string
	err    error
}

func (e plistParseError) Error() string {
	s := "plist: error parsing " + e.format + " property list"
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

func (e plistParseError) Unwrap() error {
	return e.err
}

func (e plistParseError) Is(target error) bool {
	return target == ErrMalformed
}
