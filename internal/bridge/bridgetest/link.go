// Package bridgetest provides an in-memory serial device for exercising the
// bridge without hardware.
package bridgetest

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/allbin/mcp2serial"
	"github.com/allbin/mcp2serial/internal/bridge"
)

// PollDelay is how long an idle Read blocks before returning (0, nil),
// standing in for the tty's VTIME poll.
const PollDelay = 5 * time.Millisecond

// Responder returns the bytes a device sends back after receiving line.
// The line is passed without its terminator.
type Responder func(line string) string

// Replies answers known lines from a table and stays silent otherwise.
func Replies(table map[string]string) Responder {
	return func(line string) string {
		return table[line]
	}
}

// Link is a scripted serial device. It records every write and queues the
// responder's reply for subsequent reads.
type Link struct {
	path string

	mu       sync.Mutex
	respond  Responder
	open     bool
	pending  []byte
	writes   []string
	flushes  int
	drains   int
	closes   int
	readErr  error
	writeErr error
}

var _ bridge.Link = (*Link)(nil)

// NewLink returns an open device at path.
func NewLink(path string, respond Responder) *Link {
	return &Link{path: path, respond: respond, open: true}
}

func (l *Link) Path() string {
	return l.path
}

func (l *Link) Read(buf []byte) (int, error) {
	l.mu.Lock()
	if !l.open {
		l.mu.Unlock()
		return 0, serial.ErrPortClosed
	}
	if l.readErr != nil {
		err := l.readErr
		l.mu.Unlock()
		return 0, err
	}
	if len(l.pending) > 0 {
		n := copy(buf, l.pending)
		l.pending = l.pending[n:]
		l.mu.Unlock()
		return n, nil
	}
	l.mu.Unlock()

	time.Sleep(PollDelay)
	return 0, nil
}

func (l *Link) WriteContext(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.open {
		return 0, serial.ErrPortClosed
	}
	if l.writeErr != nil {
		return 0, l.writeErr
	}
	l.writes = append(l.writes, string(data))
	if l.respond != nil {
		reply := l.respond(strings.TrimRight(string(data), "\r\n"))
		l.pending = append(l.pending, reply...)
	}
	return len(data), nil
}

func (l *Link) Drain() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return serial.ErrPortClosed
	}
	l.drains++
	return nil
}

func (l *Link) FlushInput() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return serial.ErrPortClosed
	}
	l.flushes++
	l.pending = nil
	return nil
}

func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return serial.ErrPortClosed
	}
	l.open = false
	l.closes++
	return nil
}

// Feed queues unsolicited bytes from the device.
func (l *Link) Feed(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, s...)
}

// FailReads makes every following Read return err.
func (l *Link) FailReads(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readErr = err
}

// Hangup makes every following Read report end of file, the way a tty
// reads once its device is unplugged.
func (l *Link) Hangup() {
	l.FailReads(io.EOF)
}

// FailWrites makes every following write return err.
func (l *Link) FailWrites(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeErr = err
}

// Writes returns everything written, one entry per write call.
func (l *Link) Writes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.writes)
}

// Flushes returns how many times input was flushed.
func (l *Link) Flushes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushes
}

// Drains returns how many times output was drained.
func (l *Link) Drains() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drains
}

// Closes returns how many times the handle was released.
func (l *Link) Closes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closes
}

// IsOpen reports whether the handle is currently held.
func (l *Link) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

func (l *Link) reopen() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = true
	l.pending = nil
}
