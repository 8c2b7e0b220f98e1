package serial

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", config.BaudRate)
	}

	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}

	if config.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", config.StopBits)
	}

	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}

	if config.FlowControl != FlowControlNone {
		t.Errorf("Expected FlowControl None, got %v", config.FlowControl)
	}

	if config.ReadTimeout != 100*time.Millisecond {
		t.Errorf("Expected ReadTimeout 100ms, got %v", config.ReadTimeout)
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	err := WithBaudRate(9600)(&config)
	if err != nil {
		t.Errorf("WithBaudRate failed: %v", err)
	}
	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	err = WithDataBits(7)(&config)
	if err != nil {
		t.Errorf("WithDataBits failed: %v", err)
	}
	if config.DataBits != 7 {
		t.Errorf("Expected DataBits 7, got %d", config.DataBits)
	}

	err = WithStopBits(2)(&config)
	if err != nil {
		t.Errorf("WithStopBits failed: %v", err)
	}
	if config.StopBits != 2 {
		t.Errorf("Expected StopBits 2, got %d", config.StopBits)
	}

	err = WithParity(ParityEven)(&config)
	if err != nil {
		t.Errorf("WithParity failed: %v", err)
	}
	if config.Parity != ParityEven {
		t.Errorf("Expected Parity Even, got %v", config.Parity)
	}

	err = WithFlowControl(FlowControlRTSCTS)(&config)
	if err != nil {
		t.Errorf("WithFlowControl failed: %v", err)
	}
	if config.FlowControl != FlowControlRTSCTS {
		t.Errorf("Expected FlowControl RTSCTS, got %v", config.FlowControl)
	}
}

func TestInvalidBaudRate(t *testing.T) {
	config := DefaultConfig()
	err := WithBaudRate(123456)(&config)
	if err != ErrInvalidBaudRate {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}

func TestInvalidDataBits(t *testing.T) {
	config := DefaultConfig()
	err := WithDataBits(9)(&config)
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidStopBits(t *testing.T) {
	config := DefaultConfig()
	err := WithStopBits(3)(&config)
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidFlowControl(t *testing.T) {
	config := DefaultConfig()
	err := WithFlowControl(FlowControl(42))(&config)
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidParity(t *testing.T) {
	config := DefaultConfig()
	err := WithParity(Parity(7))(&config)
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestParityString(t *testing.T) {
	tests := map[Parity]string{
		ParityNone: "none",
		ParityOdd:  "odd",
		ParityEven: "even",
	}
	for parity, want := range tests {
		if got := parity.String(); got != want {
			t.Errorf("Parity(%d).String() = %q, want %q", parity, got, want)
		}
	}
}

func TestFlowControlString(t *testing.T) {
	if got := FlowControlNone.String(); got != "none" {
		t.Errorf("FlowControlNone.String() = %q", got)
	}
	if got := FlowControlRTSCTS.String(); got != "rtscts" {
		t.Errorf("FlowControlRTSCTS.String() = %q", got)
	}
}

func TestGetBaudRate(t *testing.T) {
	tests := []struct {
		input    int
		hasError bool
	}{
		{115200, false},
		{9600, false},
		{57600, false},
		{123456, true},
	}

	for _, test := range tests {
		result, err := getBaudRate(test.input)
		if test.hasError {
			if err != ErrInvalidBaudRate {
				t.Errorf("Expected ErrInvalidBaudRate for %d, got %v", test.input, err)
			}
		} else {
			if err != nil {
				t.Errorf("Unexpected error for baud rate %d: %v", test.input, err)
			}
			if result == 0 {
				t.Errorf("Got zero result for valid baud rate %d", test.input)
			}
		}
	}
}

func TestOpenNonExistentDevice(t *testing.T) {
	_, err := Open("/dev/nonexistent")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestOpenRejectsInvalidOption(t *testing.T) {
	_, err := Open("/dev/nonexistent", WithBaudRate(123456))
	if err != ErrInvalidBaudRate {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}

func TestClosedPortOperations(t *testing.T) {
	p := &port{fd: -1, path: "/dev/ttyTEST", closed: true}

	if _, err := p.Read(make([]byte, 1)); err != ErrPortClosed {
		t.Errorf("Read: expected ErrPortClosed, got %v", err)
	}
	if _, err := p.WriteContext(context.Background(), []byte("x")); err != ErrPortClosed {
		t.Errorf("WriteContext: expected ErrPortClosed, got %v", err)
	}
	if err := p.Drain(); err != ErrPortClosed {
		t.Errorf("Drain: expected ErrPortClosed, got %v", err)
	}
	if err := p.FlushInput(); err != ErrPortClosed {
		t.Errorf("FlushInput: expected ErrPortClosed, got %v", err)
	}
	if err := p.Close(); err != ErrPortClosed {
		t.Errorf("Close: expected ErrPortClosed, got %v", err)
	}
	if p.Path() != "/dev/ttyTEST" {
		t.Errorf("Path() = %q", p.Path())
	}
}

func TestContextAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &port{fd: -1}

	if _, err := p.WriteContext(ctx, []byte("test")); !errors.Is(err, context.Canceled) {
		t.Errorf("WriteContext: expected context.Canceled, got %v", err)
	}
}
