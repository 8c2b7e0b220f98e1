package cmd

import (
	"testing"
)

func TestFilterPorts(t *testing.T) {
	ports := []string{"/dev/ttyUSB0", "/dev/ttyACM1", "/dev/ttyAMA0", "/dev/ttySAC2", "/dev/ttyS0"}

	tests := []struct {
		filter string
		want   []string
	}{
		{"", ports},
		{"all", ports},
		{"usb", []string{"/dev/ttyUSB0", "/dev/ttyACM1"}},
		{"USB", []string{"/dev/ttyUSB0", "/dev/ttyACM1"}},
		{"standard", []string{"/dev/ttyS0"}},
		{"soc", []string{"/dev/ttyAMA0", "/dev/ttySAC2"}},
		{"bluetooth", nil},
	}

	for _, tt := range tests {
		got := filterPorts(ports, tt.filter)
		if len(got) != len(tt.want) {
			t.Errorf("filterPorts(%q) = %v, want %v", tt.filter, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("filterPorts(%q) = %v, want %v", tt.filter, got, tt.want)
				break
			}
		}
	}
}

func TestResetTarget(t *testing.T) {
	got, err := resetTarget([]string{"/dev/ttyACM0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/dev/ttyACM0" {
		t.Errorf("resetTarget = %q, want /dev/ttyACM0", got)
	}
}
