package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Port represents a serial port connection interface
type Port interface {
	Path() string
	Close() error
	Read(buf []byte) (int, error)
	WriteContext(ctx context.Context, data []byte) (int, error)
	Drain() error
	FlushInput() error
}

// port is the concrete implementation of the Port interface
type port struct {
	mu     sync.RWMutex
	fd     int
	path   string
	config Config
	closed bool
}

// Ensure port implements Port interface at compile time
var _ Port = (*port)(nil)

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlRTSCTS
)

// String returns the config-file spelling of the mode.
func (f FlowControl) String() string {
	switch f {
	case FlowControlRTSCTS:
		return "rtscts"
	default:
		return "none"
	}
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// String returns the config-file spelling of the mode.
func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return "none"
	}
}

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	switch rate {
	case 50:
		return unix.B50, nil
	case 75:
		return unix.B75, nil
	case 110:
		return unix.B110, nil
	case 134:
		return unix.B134, nil
	case 150:
		return unix.B150, nil
	case 200:
		return unix.B200, nil
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 1800:
		return unix.B1800, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 500000:
		return unix.B500000, nil
	case 576000:
		return unix.B576000, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 1152000:
		return unix.B1152000, nil
	case 1500000:
		return unix.B1500000, nil
	case 2000000:
		return unix.B2000000, nil
	case 2500000:
		return unix.B2500000, nil
	case 3000000:
		return unix.B3000000, nil
	case 3500000:
		return unix.B3500000, nil
	case 4000000:
		return unix.B4000000, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

// openError maps errno values from open(2) onto the package sentinels.
func openError(device string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENXIO), errors.Is(err, unix.ENODEV):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, device)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %s", ErrDeviceInUse, device)
	default:
		return fmt.Errorf("failed to open %s: %w", device, err)
	}
}

// Open opens a serial port with the given device path and options
func Open(device string, opts ...Option) (Port, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	// O_NONBLOCK keeps open(2) from waiting on carrier detect; it is cleared
	// once CLOCAL is set so VTIME governs reads.
	flags := unix.O_RDWR | unix.O_NOCTTY | unix.O_NONBLOCK | unix.O_CLOEXEC

	fd, err := unix.Open(device, flags, 0)
	if err != nil {
		return nil, openError(device, err)
	}

	if err := configurePort(fd, config); err != nil {
		unix.Close(fd)
		return nil, err
	}

	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to clear O_NONBLOCK: %v", err)
	}

	// Claim the tty so a second bridge process cannot open it underneath us.
	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s", ErrDeviceInUse, device)
	}

	return &port{
		fd:     fd,
		path:   device,
		config: config,
	}, nil
}

// configurePort puts the tty into raw mode with the requested line settings
func configurePort(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %v", err)
	}

	termios.Cflag = unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	// VMIN=0 with VTIME>0 makes read(2) return after VTIME with no data,
	// which is what lets callers poll for cancellation between reads.
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = config.vtime()

	baudRate, err := getBaudRate(config.BaudRate)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baudRate
	termios.Ispeed = baudRate
	termios.Ospeed = baudRate

	switch config.DataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	if config.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	switch config.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	}

	if config.FlowControl == FlowControlRTSCTS {
		termios.Cflag |= unix.CRTSCTS
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %v", err)
	}
	return nil
}

// Path returns the device path the port was opened with
func (p *port) Path() string {
	return p.path
}

// Close closes the serial port
func (p *port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	unix.IoctlSetInt(p.fd, unix.TIOCNXCL, 0)
	err := unix.Close(p.fd)
	p.closed = true
	return err
}

// Read reads data from the serial port. With no input pending it returns
// (0, nil) after the configured ReadTimeout. A hung-up tty (USB unplug,
// carrier loss) reads as io.EOF instead of an endless run of empty polls.
func (p *port) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	ready, err := unix.Poll(fds, int(p.config.ReadTimeout/time.Millisecond))
	if errors.Is(err, unix.EINTR) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if ready == 0 {
		return 0, nil
	}
	if fds[0].Revents&unix.POLLIN == 0 && fds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
		return 0, io.EOF
	}

	n, err := unix.Read(p.fd, buf)
	if errors.Is(err, unix.EINTR) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	// poll reported the fd readable, so zero bytes means end of file.
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// WriteContext writes data with context timeout support
func (p *port) WriteContext(ctx context.Context, data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	go func() {
		n, err := unix.Write(p.fd, data)
		resultCh <- writeResult{n: n, err: err}
	}()

	select {
	case result := <-resultCh:
		return result.n, result.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Drain waits until all output written to the port has been transmitted
func (p *port) Drain() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCSBRK, 1)
}

// FlushInput discards any unread input data
func (p *port) FlushInput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCIFLUSH)
}
