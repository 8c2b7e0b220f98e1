package serial

import "time"

// maxReadTimeout is the largest VTIME value (255 deciseconds).
const maxReadTimeout = 255 * 100 * time.Millisecond

// Config holds the line settings applied when a port is opened
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	FlowControl FlowControl
	// ReadTimeout is the VTIME poll interval. A Read with no pending input
	// returns (0, nil) once it elapses. Must be a multiple of 100ms.
	ReadTimeout time.Duration
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns 115200 8N1, no flow control, 100ms read polling.
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity != ParityNone && parity != ParityOdd && parity != ParityEven {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		if fc != FlowControlNone && fc != FlowControlRTSCTS {
			return ErrInvalidConfig
		}
		c.FlowControl = fc
		return nil
	}
}

// WithReadTimeout sets the VTIME read poll interval. The kernel counts in
// tenths of a second, so d must be a multiple of 100ms between 0 and 25.5s.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 || d > maxReadTimeout || d%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = d
		return nil
	}
}

// IsSupportedBaudRate reports whether rate maps to a termios speed constant.
func IsSupportedBaudRate(rate int) bool {
	_, err := getBaudRate(rate)
	return err == nil
}

func (c Config) vtime() uint8 {
	return uint8(c.ReadTimeout / (100 * time.Millisecond))
}
