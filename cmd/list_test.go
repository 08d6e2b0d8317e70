package cmd

import (
	"reflect"
	"testing"
)

func TestFilterPorts(t *testing.T) {
	ports := []string{"/dev/ttyACM0", "/dev/ttyAMA0", "/dev/ttyS0", "/dev/ttySAC1", "/dev/ttyUSB0"}

	tests := []struct {
		filter string
		want   []string
	}{
		{"", ports},
		{"all", ports},
		{"USB", []string{"/dev/ttyACM0", "/dev/ttyUSB0"}},
		{"standard", []string{"/dev/ttyS0"}},
		{"arm", []string{"/dev/ttyAMA0"}},
		{"bogus", nil},
	}

	for _, tt := range tests {
		if got := filterPorts(ports, tt.filter); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("filterPorts(%q) = %v, want %v", tt.filter, got, tt.want)
		}
	}
}
