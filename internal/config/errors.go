package config

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrFileNotFound = errors.New("config file not found")
	ErrParse        = errors.New("config parse error")
	ErrSchema       = errors.New("config schema error")
)

// ErrorKind classifies configuration failures.
type ErrorKind int

const (
	KindFileNotFound ErrorKind = iota
	KindParse
	KindSchema
)

func (k ErrorKind) String() string {
	switch k {
	case KindFileNotFound:
		return "file not found"
	case KindParse:
		return "parse error"
	case KindSchema:
		return "schema error"
	default:
		return "config error"
	}
}

// Error is returned by Load and Resolve. Field is the dotted path of the
// offending setting for schema errors, e.g. "commands.set_pwm.command".
type Error struct {
	Kind  ErrorKind
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " at " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, msg)
	}
	return "config: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrFileNotFound:
		return e.Kind == KindFileNotFound
	case ErrParse:
		return e.Kind == KindParse
	case ErrSchema:
		return e.Kind == KindSchema
	}
	return false
}

func schemaError(field, format string, args ...any) *Error {
	return &Error{Kind: KindSchema, Field: field, Err: fmt.Errorf(format, args...)}
}
