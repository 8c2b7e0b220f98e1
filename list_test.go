package serial

import (
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestListPorts(t *testing.T) {
	ports, err := ListPorts()
	if err != nil {
		t.Errorf("ListPorts failed: %v", err)
	}

	for _, port := range ports {
		if !strings.HasPrefix(port, "/dev/") {
			t.Errorf("Port path doesn't start with /dev/: %s", port)
		}
		if !isCharacterDevice(port) {
			t.Errorf("Port is not a character device: %s", port)
		}
	}

	for i := 1; i < len(ports); i++ {
		if ports[i-1] > ports[i] {
			t.Errorf("Ports are not sorted: %s > %s", ports[i-1], ports[i])
		}
	}
}

func TestListPortsMissingDevDir(t *testing.T) {
	orig := devDir
	devDir = "/nonexistent-dev"
	defer func() { devDir = orig }()

	if _, err := ListPorts(); err == nil {
		t.Error("Expected error for missing device directory")
	}
	if _, err := Candidates(); err == nil {
		t.Error("Expected error for missing device directory")
	}
}

func TestIsCharacterDevice(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/dev/null", true},
		{"/dev/zero", true},
		{"/tmp", false},
		{"/nonexistent", false},
	}

	for _, test := range tests {
		result := isCharacterDevice(test.path)
		if result != test.expected {
			t.Errorf("isCharacterDevice(%s) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestGetPortDescription(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"ttyUSB0", "USB Serial Port"},
		{"ttyACM0", "USB CDC/ACM Device"},
		{"ttyS0", "Standard Serial Port"},
		{"ttyAMA0", "ARM Serial Port"},
		{"ttymxc0", "i.MX Serial Port"},
		{"ttyO0", "OMAP Serial Port"},
		{"ttySAC0", "Samsung Serial Port"},
		{"ttyTHS0", "Tegra Serial Port"},
		{"unknown", "Serial Port"},
	}

	for _, test := range tests {
		result := getPortDescription(test.name)
		if result != test.expected {
			t.Errorf("getPortDescription(%s) = %s, expected %s", test.name, result, test.expected)
		}
	}
}

func TestGetPortInfo(t *testing.T) {
	info, err := GetPortInfo("/dev/null")
	if err != nil {
		t.Fatalf("GetPortInfo failed for /dev/null: %v", err)
	}

	if info.Name != "null" {
		t.Errorf("Expected name 'null', got '%s'", info.Name)
	}
	if info.Path != "/dev/null" {
		t.Errorf("Expected path '/dev/null', got '%s'", info.Path)
	}
	if info.Description == "" {
		t.Error("Description should not be empty")
	}
	if info.IsUSB() {
		t.Error("/dev/null should not report USB metadata")
	}

	_, err = GetPortInfo("/dev/nonexistent")
	if err != ErrDeviceNotFound {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}

	_, err = GetPortInfo(os.TempDir())
	if err != ErrDeviceNotFound {
		t.Errorf("Expected ErrDeviceNotFound for a directory, got %v", err)
	}
}

func TestPortPriority(t *testing.T) {
	tests := []struct {
		name        string
		shouldMatch bool
	}{
		{"ttyUSB0", true},
		{"ttyUSB1", true},
		{"ttyACM0", true},
		{"ttyS0", true},
		{"ttyAMA0", true},
		{"ttyTHS2", true},
		{"tty1", false},
		{"tty2", false},
		{"console", false},
		{"ptmx", false},
		{"ptyp0", false},
		{"random", false},
		{"urandom", false},
	}

	for _, tt := range tests {
		matched := portPriority(tt.name) >= 0
		if matched != tt.shouldMatch {
			t.Errorf("portPriority(%s) matched=%v, want %v", tt.name, matched, tt.shouldMatch)
		}
	}

	if portPriority("ttyUSB0") >= portPriority("ttyACM0") {
		t.Error("ttyUSB should be probed before ttyACM")
	}
	if portPriority("ttyAMA0") >= portPriority("ttyS0") {
		t.Error("ttyAMA should be probed before ttyS")
	}
}

func TestSortCandidates(t *testing.T) {
	ports := []string{
		"/dev/ttyS0",
		"/dev/ttyUSB10",
		"/dev/ttyACM0",
		"/dev/ttyAMA0",
		"/dev/ttyUSB2",
		"/dev/ttyS1",
		"/dev/ttyUSB0",
	}
	sortCandidates(ports)

	want := []string{
		"/dev/ttyUSB0",
		"/dev/ttyUSB2",
		"/dev/ttyUSB10",
		"/dev/ttyACM0",
		"/dev/ttyAMA0",
		"/dev/ttyS0",
		"/dev/ttyS1",
	}
	if !reflect.DeepEqual(ports, want) {
		t.Errorf("sortCandidates() = %v, want %v", ports, want)
	}
}

// BenchmarkListPorts benchmarks the ListPorts function
func BenchmarkListPorts(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := ListPorts()
		if err != nil {
			b.Errorf("ListPorts failed: %v", err)
		}
	}
}

// TestListPortsIntegration logs the ports found on the host
func TestListPortsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ports, err := Candidates()
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}

	t.Logf("Found %d serial ports:", len(ports))
	for i, port := range ports {
		info, err := GetPortInfo(port)
		if err != nil {
			t.Logf("  %d. %s (error getting info: %v)", i+1, port, err)
		} else {
			t.Logf("  %d. %s (%s)", i+1, port, info.Description)
		}
	}
}
