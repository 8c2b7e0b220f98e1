// Package bridge owns the single serial link to the device: discovery,
// the connection state machine and the write-then-read command turn.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/allbin/mcp2serial"
	"github.com/allbin/mcp2serial/internal/config"
)

// PollInterval is how often a blocked read wakes up to check for Close.
const PollInterval = 100 * time.Millisecond

// Link is the byte stream the connection drives. serial.Port satisfies it.
type Link interface {
	Path() string
	Read(buf []byte) (int, error)
	WriteContext(ctx context.Context, data []byte) (int, error)
	Drain() error
	FlushInput() error
	Close() error
}

// Opener opens the device at path with the given settings.
type Opener func(path string, settings config.Settings) (Link, error)

// OpenPort opens a tty in raw mode with PollInterval read polling.
func OpenPort(path string, settings config.Settings) (Link, error) {
	return serial.Open(path, portOptions(settings)...)
}

func portOptions(settings config.Settings) []serial.Option {
	opts := []serial.Option{
		serial.WithBaudRate(settings.BaudRate),
		serial.WithReadTimeout(PollInterval),
	}
	if settings.DataBits != 0 {
		opts = append(opts, serial.WithDataBits(settings.DataBits))
	}
	if settings.StopBits != 0 {
		opts = append(opts, serial.WithStopBits(settings.StopBits))
	}
	switch settings.Parity {
	case serial.ParityOdd.String():
		opts = append(opts, serial.WithParity(serial.ParityOdd))
	case serial.ParityEven.String():
		opts = append(opts, serial.WithParity(serial.ParityEven))
	}
	if settings.FlowControl == serial.FlowControlRTSCTS.String() {
		opts = append(opts, serial.WithFlowControl(serial.FlowControlRTSCTS))
	}
	return opts
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithOpener replaces the function used to open ports.
func WithOpener(open Opener) Option {
	return func(c *Connection) {
		c.open = open
	}
}

// WithCandidates replaces the function listing ports to autodetect.
func WithCandidates(list func() ([]string, error)) Option {
	return func(c *Connection) {
		c.candidates = list
	}
}

// Connection is the bridge's one physical link. Connect, SendCommand and
// Close are serialized by a single turn token, so a command's write and
// its reply are never interleaved with another caller's bytes.
type Connection struct {
	settings   config.Settings
	open       Opener
	candidates func() ([]string, error)
	log        *slog.Logger

	// turn is held for the whole of a connect attempt, a command turn or
	// the final close.
	turn      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	state       State
	link        Link
	lastErr     error
	connectDone chan struct{}
}

// New creates a disconnected Connection for settings.
func New(settings config.Settings, opts ...Option) *Connection {
	c := &Connection{
		settings:   settings,
		open:       OpenPort,
		candidates: serial.Candidates,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		turn:       make(chan struct{}, 1),
		closing:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the serial settings the connection was created with.
func (c *Connection) Settings() config.Settings {
	return c.settings
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Port returns the path of the open device, or "" when not connected.
func (c *Connection) Port() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.link == nil {
		return ""
	}
	return c.link.Path()
}

// LastError returns why the most recent connect attempt failed, or the I/O
// error that dropped the link. It is cleared by a successful connect.
func (c *Connection) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Connection) acquire(ctx context.Context, limit <-chan time.Time) error {
	select {
	case c.turn <- struct{}{}:
		return nil
	case <-c.closing:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-limit:
		return ErrConnectInProgress
	}
}

func (c *Connection) release() {
	<-c.turn
}

func (c *Connection) isClosing() bool {
	select {
	case <-c.closing:
		return true
	default:
		return false
	}
}

// Connect opens the configured port, or probes the autodetect candidates
// in order, and reports whether the link is up. A failed attempt returns
// false and leaves the reason in LastError; the returned error is reserved
// for ErrClosed, ErrConnectInProgress and context cancellation.
//
// A caller that finds another attempt in flight waits for it for at most
// the configured timeout.
func (c *Connection) Connect(ctx context.Context) (bool, error) {
	c.mu.Lock()
	switch c.state {
	case Closed:
		c.mu.Unlock()
		return false, ErrClosed
	case Connected:
		c.mu.Unlock()
		return true, nil
	case Connecting:
		done := c.connectDone
		c.mu.Unlock()
		return c.awaitConnect(ctx, done)
	}
	c.mu.Unlock()

	limit := time.NewTimer(c.settings.Timeout)
	defer limit.Stop()
	if err := c.acquire(ctx, limit.C); err != nil {
		return false, err
	}
	defer c.release()

	c.mu.Lock()
	switch c.state {
	case Closed:
		c.mu.Unlock()
		return false, ErrClosed
	case Connected:
		c.mu.Unlock()
		return true, nil
	}
	c.state = Connecting
	done := make(chan struct{})
	c.connectDone = done
	c.mu.Unlock()

	start := time.Now()
	link, err := c.dial(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(done)

	if err == nil && c.isClosing() {
		link.Close()
		err = ErrClosed
	}
	if err != nil {
		c.state = Disconnected
		c.lastErr = err
		c.log.Warn("serial connect failed", "error", err, "duration", time.Since(start))
		if errors.Is(err, ErrClosed) || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
			return false, err
		}
		return false, nil
	}

	c.state = Connected
	c.link = link
	c.lastErr = nil
	c.log.Info("serial connected", "port", link.Path(), "baud_rate", c.settings.BaudRate, "duration", time.Since(start))
	return true, nil
}

func (c *Connection) awaitConnect(ctx context.Context, done <-chan struct{}) (bool, error) {
	limit := time.NewTimer(c.settings.Timeout)
	defer limit.Stop()

	select {
	case <-done:
	case <-limit.C:
		return false, ErrConnectInProgress
	case <-c.closing:
		return false, ErrClosed
	case <-ctx.Done():
		return false, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Connected:
		return true, nil
	case Closed:
		return false, ErrClosed
	default:
		return false, nil
	}
}

// dial opens the explicit port, or walks the candidates until one passes
// the handshake.
func (c *Connection) dial(ctx context.Context) (Link, error) {
	if !c.settings.Autodetect() {
		return c.handshake(ctx, c.settings.Port)
	}

	paths, err := c.candidates()
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("%w: %v", ErrNoDevice, err)}
	}
	if len(paths) == 0 {
		return nil, &ConnectionError{Err: ErrNoDevice}
	}

	var errs []error
	for _, path := range paths {
		if c.isClosing() {
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		link, err := c.handshake(ctx, path)
		if err == nil {
			return link, nil
		}
		c.log.Debug("autodetect candidate rejected", "port", path, "error", err)
		errs = append(errs, err)
	}
	return nil, &ConnectionError{Err: fmt.Errorf("%w: %w", ErrNoDevice, errors.Join(errs...))}
}

// handshake opens path, discards stale input and, when a handshake command
// is configured, requires the expected reply within the connect timeout.
func (c *Connection) handshake(ctx context.Context, path string) (Link, error) {
	link, err := c.open(path, c.settings)
	if err != nil {
		return nil, &ConnectionError{Port: path, Err: err}
	}

	fail := func(err error) (Link, error) {
		link.Close()
		return nil, &ConnectionError{Port: path, Err: err}
	}

	if err := link.FlushInput(); err != nil {
		return fail(err)
	}
	if c.settings.Handshake == "" {
		return link, nil
	}

	wctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()
	if _, err := link.WriteContext(wctx, []byte(c.settings.Handshake+c.settings.LineEnding)); err != nil {
		return fail(fmt.Errorf("handshake write: %w", err))
	}

	parser := ResponseParser{Sentinel: c.settings.HandshakeResponse}
	if _, err := c.readReply(ctx, link, parser, c.settings.Timeout); err != nil {
		return fail(fmt.Errorf("handshake: %w", err))
	}
	return link, nil
}

// SendCommand renders spec with params, writes it and collects the reply up
// to the sentinel line. The parameter set is checked before anything is
// written. An I/O failure drops the link to Disconnected; a timeout leaves
// it Connected.
func (c *Connection) SendCommand(ctx context.Context, spec *config.CommandSpec, params map[string]any) ([]ResponseItem, error) {
	if err := c.acquire(ctx, nil); err != nil {
		return nil, err
	}
	defer c.release()

	c.mu.Lock()
	state, link := c.state, c.link
	c.mu.Unlock()

	switch state {
	case Connected:
	case Closed:
		return nil, ErrClosed
	default:
		return nil, ErrNotConnected
	}

	line, err := spec.Template.Render(params)
	if err != nil {
		return nil, err
	}

	if err := link.FlushInput(); err != nil {
		return nil, c.drop(&IOError{Op: "flush", Err: err})
	}

	wctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()
	if _, err := link.WriteContext(wctx, []byte(line+c.settings.LineEnding)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.drop(&IOError{Op: "write", Err: err})
	}
	// With RTS/CTS a held-off CTS would block tcdrain indefinitely.
	if c.settings.FlowControl != serial.FlowControlRTSCTS.String() {
		if err := link.Drain(); err != nil {
			return nil, c.drop(&IOError{Op: "drain", Err: err})
		}
	}
	c.log.Debug("serial write", "command", spec.Name, "line", line)

	parser := ResponseParser{
		Sentinel:  c.settings.ResponseStartString,
		Separator: c.settings.ParseSeparator,
	}
	lines, err := c.readReply(ctx, link, parser, c.settings.ReadTimeout)
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return nil, c.drop(err)
		}
		return nil, err
	}
	return parser.Result(lines, spec.NeedParse)
}

// readReply reads lines until one satisfies parser or limit elapses. It
// wakes every poll interval to notice Close and ctx cancellation.
func (c *Connection) readReply(ctx context.Context, link Link, parser ResponseParser, limit time.Duration) ([]string, error) {
	r := newLineReader(link)
	deadline := time.Now().Add(limit)

	var lines []string
	for {
		if c.isClosing() {
			return lines, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return lines, err
		}
		if !time.Now().Before(deadline) {
			return lines, &TimeoutError{After: limit, Partial: lines}
		}

		line, ok, err := r.next()
		if err != nil {
			return lines, &IOError{Op: "read", Err: err}
		}
		if !ok || line == "" {
			continue
		}
		lines = append(lines, line)
		if parser.Terminal(line) {
			return lines, nil
		}
	}
}

// drop releases the link after an I/O failure. The caller holds the turn.
func (c *Connection) drop(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.link != nil {
		c.link.Close()
		c.link = nil
	}
	if c.state == Connected {
		c.state = Disconnected
	}
	c.lastErr = err
	c.log.Warn("serial link dropped", "error", err)
	return err
}

// Close ends the connection. It is safe to call from any state and more
// than once; the device handle is released exactly once. An in-flight
// command or connect attempt is interrupted within one poll interval.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.closing) })

	c.turn <- struct{}{}
	defer c.release()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return nil
	}
	c.state = Closed
	link := c.link
	c.link = nil
	if link == nil {
		return nil
	}
	c.log.Info("serial connection closed", "port", link.Path())
	return link.Close()
}
