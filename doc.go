// Package serial is the Linux serial port layer of mcp2serial: raw-mode
// termios setup, polling reads, port discovery with USB metadata, and USB
// device reset.
//
// # Opening a Port
//
// Open a port with default configuration (115200 8N1, no flow control,
// 100ms read polling):
//
//	port, err := serial.Open("/dev/ttyACM0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
// Functional options change the line settings:
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithDataBits(7),
//	    serial.WithParity(serial.ParityEven),
//	    serial.WithFlowControl(serial.FlowControlRTSCTS),
//	    serial.WithReadTimeout(200*time.Millisecond),
//	)
//
// # Reads
//
// Ports are opened with VMIN=0 and VTIME set from the read timeout, so Read
// returns (0, nil) when no input arrived within one poll interval. Callers
// loop on Read and check their own deadline or cancellation between polls;
// nothing blocks longer than the poll interval. Once the tty hangs up, as
// when a USB adapter is unplugged, Read returns io.EOF.
//
// Ports are opened exclusively (TIOCEXCL). A second open of the same device
// fails with ErrDeviceInUse.
//
// # Port Discovery
//
// Candidates lists serial devices in auto-detection order: USB serial
// adapters, CDC/ACM boards, SoC UARTs, then ttyS*. GetPortInfo adds USB
// metadata read from sysfs:
//
//	ports, err := serial.Candidates()
//	for _, p := range ports {
//	    info, _ := serial.GetPortInfo(p)
//	    fmt.Printf("%s: %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// # USB Device Reset
//
//	err := serial.ResetUSBDevice(ctx, "/dev/ttyACM0")
//	err = serial.ResetUSBDeviceBySerial(ctx, "E6614C311B7A6B2C")
//
// Reset requires the usbreset utility from usbutils and root permissions.
//
// # Errors
//
// Open maps errno values onto ErrDeviceNotFound, ErrPermissionDenied and
// ErrDeviceInUse; use errors.Is to check them.
package serial
