package serial

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestReadSysfsFile tests the sysfs file reading helper
func TestReadSysfsFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		expected string
		setup    func(string) error
	}{
		{
			name:     "normal file",
			expected: "1234",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("1234\n"), 0644)
			},
		},
		{
			name:     "file with spaces",
			expected: "test value",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("  test value  \n"), 0644)
			},
		},
		{
			name:     "nonexistent file",
			expected: "",
			setup:    func(path string) error { return nil },
		},
		{
			name:     "empty file",
			expected: "",
			setup: func(path string) error {
				return os.WriteFile(path, []byte(""), 0644)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tmpDir, tt.name)
			if err := tt.setup(testFile); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}

			result := readSysfsFile(testFile)
			if result != tt.expected {
				t.Errorf("readSysfsFile() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

// fakeSysfs builds class/tty/<tty>/device -> devices/usb5/5-2.3.1/5-2.3.1:1.0[/<tty>]
func fakeSysfs(t *testing.T, tty string, nested bool) string {
	t.Helper()
	root := t.TempDir()

	devicePath := filepath.Join(root, "devices", "usb5", "5-2.3.1")
	interfacePath := filepath.Join(devicePath, "5-2.3.1:1.0")
	target := interfacePath
	if nested {
		target = filepath.Join(interfacePath, tty)
	}
	classTtyPath := filepath.Join(root, "class", "tty", tty)

	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatalf("Failed to create directory structure: %v", err)
	}
	if err := os.MkdirAll(classTtyPath, 0755); err != nil {
		t.Fatalf("Failed to create class/tty directory: %v", err)
	}

	deviceFiles := map[string]string{
		"idVendor":     "2e8a",
		"idProduct":    "000a",
		"serial":       "E6614103E7",
		"manufacturer": "Raspberry Pi",
		"product":      "Pico",
		"busnum":       "5",
		"devnum":       "7",
	}
	for filename, content := range deviceFiles {
		if err := os.WriteFile(filepath.Join(devicePath, filename), []byte(content+"\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", filename, err)
		}
	}
	if err := os.WriteFile(filepath.Join(interfacePath, "bInterfaceNumber"), []byte("00\n"), 0644); err != nil {
		t.Fatalf("Failed to write interface number: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(classTtyPath, "device")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	return root
}

func TestEnrichUSBInfo(t *testing.T) {
	tests := []struct {
		tty    string
		nested bool
	}{
		{"ttyUSB0", true},
		{"ttyACM0", false},
	}

	for _, tt := range tests {
		t.Run(tt.tty, func(t *testing.T) {
			orig := sysfsRoot
			sysfsRoot = fakeSysfs(t, tt.tty, tt.nested)
			defer func() { sysfsRoot = orig }()

			info := &PortInfo{Name: tt.tty, Path: "/dev/" + tt.tty, Description: getPortDescription(tt.tty)}
			enrichUSBInfo(info)

			checks := []struct {
				name     string
				got      string
				expected string
			}{
				{"VendorID", info.VendorID, "2e8a"},
				{"ProductID", info.ProductID, "000a"},
				{"SerialNumber", info.SerialNumber, "E6614103E7"},
				{"InterfaceNumber", info.InterfaceNumber, "00"},
				{"BusNumber", info.BusNumber, "5"},
				{"DeviceNumber", info.DeviceNumber, "7"},
				{"Manufacturer", info.Manufacturer, "Raspberry Pi"},
				{"Product", info.Product, "Pico"},
				{"Description", info.Description, "Pico"},
			}
			for _, c := range checks {
				if c.got != c.expected {
					t.Errorf("%s = %q, expected %q", c.name, c.got, c.expected)
				}
			}
			if !info.IsUSB() {
				t.Error("IsUSB() = false after enrichment")
			}
		})
	}
}

// TestEnrichUSBInfoGracefulFailure tests that enrichUSBInfo handles missing files gracefully
func TestEnrichUSBInfoGracefulFailure(t *testing.T) {
	info := &PortInfo{
		Name: "ttyUSB999",
		Path: "/dev/ttyUSB999",
	}

	enrichUSBInfo(info)

	if info.VendorID != "" {
		t.Errorf("VendorID should be empty, got %q", info.VendorID)
	}
	if info.ProductID != "" {
		t.Errorf("ProductID should be empty, got %q", info.ProductID)
	}
	if info.SerialNumber != "" {
		t.Errorf("SerialNumber should be empty, got %q", info.SerialNumber)
	}
}

func TestFormatUSBPath(t *testing.T) {
	tests := []struct {
		bus      string
		device   string
		expected string
	}{
		{"5", "7", "005/007"},
		{"1", "2", "001/002"},
		{"123", "456", "123/456"},
		{"1", "10", "001/010"},
		{"x", "1", "x/1"},
	}

	for _, tt := range tests {
		formatted := formatUSBPath(tt.bus, tt.device)
		if formatted != tt.expected {
			t.Errorf("formatUSBPath(%q, %q) = %q, expected %q",
				tt.bus, tt.device, formatted, tt.expected)
		}
	}
}

func TestResetUSBDeviceNotUSB(t *testing.T) {
	err := ResetUSBDevice(context.Background(), "/dev/null")
	if err != ErrUSBInfoNotAvailable {
		t.Errorf("Expected ErrUSBInfoNotAvailable, got %v", err)
	}
}

// TestResetUSBDeviceBySerialNotFound tests error handling when device not found
func TestResetUSBDeviceBySerialNotFound(t *testing.T) {
	err := ResetUSBDeviceBySerial(context.Background(), "NONEXISTENT_SERIAL")
	if err == nil {
		t.Fatal("Expected error for nonexistent serial number")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected 'not found' error, got: %v", err)
	}
}
