package bridge

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for the serial bridge.
var (
	// ErrNotConnected indicates a command was sent without an open link.
	ErrNotConnected = errors.New("serial link not connected")

	// ErrClosed indicates the connection was closed and cannot be reused.
	ErrClosed = errors.New("serial connection closed")

	// ErrConnectInProgress indicates another connect attempt did not finish
	// within the configured timeout.
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrNoDevice indicates autodetection found no device that answered.
	ErrNoDevice = errors.New("no responsive serial device found")

	// ErrTimeout indicates the sentinel line did not arrive in time.
	ErrTimeout = errors.New("timed out waiting for response")

	// ErrIO indicates a read or write on the link failed.
	ErrIO = errors.New("serial I/O error")

	// ErrResponseParse indicates a value could not be extracted from the
	// sentinel line.
	ErrResponseParse = errors.New("response parse error")
)

// ConnectionError records why a port could not be opened or handshaken.
type ConnectionError struct {
	Port string
	Err  error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("connect: %v", e.Err)
	}
	return fmt.Sprintf("connect %s: %v", e.Port, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when read_timeout elapses before the sentinel.
// Partial holds whatever lines arrived, for diagnostics.
type TimeoutError struct {
	After   time.Duration
	Partial []string
}

func (e *TimeoutError) Error() string {
	if len(e.Partial) == 0 {
		return fmt.Sprintf("no response after %s", e.After)
	}
	return fmt.Sprintf("no response after %s (partial: %q)", e.After, strings.Join(e.Partial, "\n"))
}

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IOError wraps a failed read or write. The connection is dropped to
// Disconnected when one occurs.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("serial %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is matches ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// ParseError reports a sentinel line that carried no extractable value.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse response %q: %s", e.Line, e.Reason)
}

// Is matches ErrResponseParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrResponseParse
}
