package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterPorts(t *testing.T) {
	ports := []string{
		"/dev/ttyACM0",
		"/dev/ttyAMA0",
		"/dev/ttyS0",
		"/dev/ttySAC0",
		"/dev/ttyUSB0",
	}

	tests := []struct {
		filter string
		want   []string
	}{
		{"", ports},
		{"all", ports},
		{"usb", []string{"/dev/ttyACM0", "/dev/ttyUSB0"}},
		{"USB", []string{"/dev/ttyACM0", "/dev/ttyUSB0"}},
		{"standard", []string{"/dev/ttyS0"}},
		{"arm", []string{"/dev/ttyAMA0"}},
		{"bogus", nil},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			require.Equal(t, tt.want, filterPorts(ports, tt.filter))
		})
	}
}

func TestDescribePortsFallback(t *testing.T) {
	infos := describePorts([]string{"/nonexistent/ttyUSB9"})

	require.Len(t, infos, 1)
	require.Equal(t, "/nonexistent/ttyUSB9", infos[0].Path)
	require.Equal(t, "ttyUSB9", infos[0].Name)
	require.NotEmpty(t, infos[0].Description)
}
