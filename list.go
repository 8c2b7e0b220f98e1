package serial

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// devDir and sysfsRoot are variables so tests can point discovery at a
// fake tree.
var (
	devDir    = "/dev"
	sysfsRoot = "/sys"
)

// serialPatterns lists device name families in autodetect priority order:
// USB adapters and CDC/ACM boards first, on-board UARTs last.
var serialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
	regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
	regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
	regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
	regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
	regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
	regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
	regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
}

// excludePatterns covers virtual terminals and pseudo-terminals
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^tty\d+$`),
	regexp.MustCompile(`^console$`),
	regexp.MustCompile(`^ptmx$`),
	regexp.MustCompile(`^pty.*$`),
	regexp.MustCompile(`^pts/.*$`),
}

// portPriority returns the index of the first pattern matching name, or -1.
func portPriority(name string) int {
	for _, p := range excludePatterns {
		if p.MatchString(name) {
			return -1
		}
	}
	for i, p := range serialPatterns {
		if p.MatchString(name) {
			return i
		}
	}
	return -1
}

// ListPorts returns the serial character devices on the system, sorted by path
func ListPorts() ([]string, error) {
	ports, err := scanPorts()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}

// Candidates returns the serial ports in the order autodetection should
// probe them: USB serial, CDC/ACM, SoC UARTs, then ttyS*. Ports within a
// family are ordered by name with numeric suffixes compared numerically.
func Candidates() ([]string, error) {
	ports, err := scanPorts()
	if err != nil {
		return nil, err
	}
	sortCandidates(ports)
	return ports, nil
}

func sortCandidates(ports []string) {
	sort.SliceStable(ports, func(i, j int) bool {
		a, b := filepath.Base(ports[i]), filepath.Base(ports[j])
		pa, pb := portPriority(a), portPriority(b)
		if pa != pb {
			return pa < pb
		}
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}

func scanPorts() ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		name := entry.Name()
		if portPriority(name) < 0 {
			continue
		}
		fullPath := filepath.Join(devDir, name)
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}
	return ports, nil
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// PortInfo describes a serial port and, for USB devices, its sysfs metadata
type PortInfo struct {
	Name            string
	Path            string
	Description     string
	Mode            os.FileMode
	VendorID        string
	ProductID       string
	SerialNumber    string
	Manufacturer    string
	Product         string
	InterfaceNumber string
	BusNumber       string
	DeviceNumber    string
}

// IsUSB reports whether USB metadata was found for the port
func (i *PortInfo) IsUSB() bool {
	return i.VendorID != "" || i.ProductID != ""
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	stat, err := os.Stat(portPath)
	if err != nil || stat.Mode()&os.ModeCharDevice == 0 {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(portPath)
	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Description: getPortDescription(name),
		Mode:        stat.Mode().Perm(),
	}

	if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
		enrichUSBInfo(info)
	}

	return info, nil
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}

// enrichUSBInfo fills USB metadata by following
// /sys/class/tty/<name>/device to the interface directory, whose parent is
// the USB device directory.
func enrichUSBInfo(info *PortInfo) {
	devicePath := filepath.Join(sysfsRoot, "class", "tty", info.Name, "device")
	resolvedPath, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return
	}

	// ttyUSB devices hang one level below the interface; ttyACM link
	// straight to it.
	interfacePath := resolvedPath
	if strings.HasPrefix(info.Name, "ttyUSB") {
		interfacePath = filepath.Dir(resolvedPath)
	}
	info.InterfaceNumber = readSysfsFile(filepath.Join(interfacePath, "bInterfaceNumber"))

	usbDevicePath := filepath.Dir(interfacePath)
	info.VendorID = readSysfsFile(filepath.Join(usbDevicePath, "idVendor"))
	info.ProductID = readSysfsFile(filepath.Join(usbDevicePath, "idProduct"))
	info.SerialNumber = readSysfsFile(filepath.Join(usbDevicePath, "serial"))
	info.Manufacturer = readSysfsFile(filepath.Join(usbDevicePath, "manufacturer"))
	info.Product = readSysfsFile(filepath.Join(usbDevicePath, "product"))
	info.BusNumber = readSysfsFile(filepath.Join(usbDevicePath, "busnum"))
	info.DeviceNumber = readSysfsFile(filepath.Join(usbDevicePath, "devnum"))

	if info.Product != "" {
		info.Description = info.Product
	}
}

// readSysfsFile returns the trimmed contents of a sysfs attribute, or "" if
// it cannot be read.
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
