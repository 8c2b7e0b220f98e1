// Package dispatch resolves tool calls to commands and runs them on the
// serial connection.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/allbin/mcp2serial/internal/bridge"
	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/config"
)

var (
	// ErrUnknownCommand indicates a call for a tool that is not configured.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUnavailable indicates the device could not be connected for a call.
	ErrUnavailable = errors.New("serial device unavailable")
)

// Default connect breaker settings.
const (
	defaultMaxConnectFailures uint32 = 3
	defaultConnectCooldown           = 5 * time.Second
)

// Conn is the part of bridge.Connection the dispatcher drives.
type Conn interface {
	State() bridge.State
	Connect(ctx context.Context) (bool, error)
	LastError() error
	SendCommand(ctx context.Context, spec *config.CommandSpec, params map[string]any) ([]bridge.ResponseItem, error)
}

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	logger             *slog.Logger
	maxConnectFailures uint32
	connectCooldown    time.Duration
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConnectBackoff sets how many consecutive failed lazy connects stop
// further attempts, and for how long.
func WithConnectBackoff(failures uint32, cooldown time.Duration) Option {
	return func(o *options) {
		o.maxConnectFailures = failures
		o.connectCooldown = cooldown
	}
}

// Dispatcher turns tool calls into serial commands. Calls are synchronous;
// the connection serializes them on the wire.
type Dispatcher struct {
	commands *config.Registry
	catalog  *catalog.Catalog
	conn     Conn
	log      *slog.Logger
	breaker  *gobreaker.CircuitBreaker[bool]
	limiter  *rate.Limiter
}

// New creates a dispatcher for cfg's commands. cat must have been built
// from the same registry.
func New(cfg *config.Config, cat *catalog.Catalog, conn Conn, opts ...Option) *Dispatcher {
	o := options{
		maxConnectFailures: defaultMaxConnectFailures,
		connectCooldown:    defaultConnectCooldown,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Dispatcher{
		commands: cfg.Commands,
		catalog:  cat,
		conn:     conn,
		log:      logger,
	}
	d.breaker = gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "serial-connect",
		MaxRequests: 1,
		Timeout:     o.connectCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.maxConnectFailures
		},
		IsSuccessful: func(err error) bool {
			var u uncounted
			return err == nil || errors.As(err, &u)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("connect breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	if interval := cfg.Serial.CommandInterval; interval > 0 {
		d.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return d
}

// Catalog returns the tool catalog the dispatcher validates against.
func (d *Dispatcher) Catalog() *catalog.Catalog {
	return d.catalog
}

// Invoke runs the named tool with args. Unknown names, parameter mismatches
// and schema violations are rejected before the device is touched. The
// connection is opened on first use.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) (items []bridge.ResponseItem, err error) {
	start := time.Now()
	log := d.log.With("tool", name, "call_id", uuid.NewString())
	defer func() {
		if err != nil {
			log.Warn("tool call failed", "error", err, "duration", time.Since(start))
			return
		}
		log.Info("tool call", "items", len(items), "duration", time.Since(start))
	}()

	spec, ok := d.commands.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if err := spec.Template.Check(args); err != nil {
		return nil, err
	}
	if err := d.catalog.Validate(name, args); err != nil {
		return nil, err
	}
	if err := d.ensureConnected(ctx); err != nil {
		return nil, err
	}
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	log.Debug("sending command", "command", spec.Command)
	return d.conn.SendCommand(ctx, spec, args)
}

// uncounted marks a connect error that says nothing about the device: the
// caller gave up, another attempt was still running, or the connection
// was closed. The breaker does not count it as a failure.
type uncounted struct{ error }

func (u uncounted) Unwrap() error { return u.error }

// ensureConnected connects lazily. Repeated failures open the breaker so
// an absent device is not re-probed on every call.
func (d *Dispatcher) ensureConnected(ctx context.Context) error {
	if d.conn.State() == bridge.Connected {
		return nil
	}

	_, err := d.breaker.Execute(func() (bool, error) {
		ok, err := d.conn.Connect(ctx)
		if err != nil {
			if errors.Is(err, bridge.ErrConnectInProgress) || errors.Is(err, bridge.ErrClosed) || ctx.Err() != nil {
				return false, uncounted{err}
			}
			return false, err
		}
		if !ok {
			if last := d.conn.LastError(); last != nil {
				return false, last
			}
			return false, bridge.ErrNoDevice
		}
		return true, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bridge.ErrClosed):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: backing off after repeated connect failures: %w", ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
