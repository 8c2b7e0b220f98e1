package serial

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// usbSettleTime is how long a reset device usually takes to re-enumerate.
const usbSettleTime = 2 * time.Second

// ResetUSBDevice performs a USB-level reset of the device behind portPath.
// It recovers boards whose firmware has wedged the USB serial interface.
//
// Requirements:
// - usbreset utility must be installed (from usbutils package)
// - Requires appropriate permissions (typically root/sudo)
//
// Returns ErrUSBInfoNotAvailable if the port has no USB bus/device numbers
// and ErrUSBResetNotAvailable if usbreset is not on PATH.
func ResetUSBDevice(ctx context.Context, portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}

	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	cmd := exec.CommandContext(ctx, "usbreset", formatUSBPath(info.BusNumber, info.DeviceNumber))
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	select {
	case <-time.After(usbSettleTime):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResetUSBDeviceBySerial resets a USB device by its serial number
func ResetUSBDeviceBySerial(ctx context.Context, serialNumber string) error {
	ports, err := ListPorts()
	if err != nil {
		return err
	}

	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}

		if info.SerialNumber == serialNumber {
			return ResetUSBDevice(ctx, portPath)
		}
	}

	return fmt.Errorf("device with serial %s not found", serialNumber)
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}

// formatUSBPath renders bus and device numbers as the zero-padded BBB/DDD
// form usbreset expects.
func formatUSBPath(bus, device string) string {
	b, errB := strconv.Atoi(bus)
	d, errD := strconv.Atoi(device)
	if errB != nil || errD != nil {
		return bus + "/" + device
	}
	return fmt.Sprintf("%03d/%03d", b, d)
}
