package serial

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPortCatalogList(t *testing.T) {
	tests := []struct {
		name  string
		ports []string
		want  []string
	}{
		{
			name:  "empty",
			ports: nil,
			want:  []string{},
		},
		{
			name:  "sorted",
			ports: []string{"/dev/ttyUSB1", "/dev/ttyACM0", "/dev/ttyS0"},
			want:  []string{"/dev/ttyACM0", "/dev/ttyS0", "/dev/ttyUSB1"},
		},
		{
			name:  "duplicates and blanks removed",
			ports: []string{"COM3", "", "COM1", "COM3"},
			want:  []string{"COM1", "COM3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPortCatalog(&fakeDriver{ports: tt.ports})
			got, err := c.List()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPortCatalogPropagatesError(t *testing.T) {
	cause := errors.New("enumeration unsupported")
	c := NewPortCatalog(&fakeDriver{listErr: cause})

	ports, err := c.List()
	require.ErrorIs(t, err, cause)
	require.Nil(t, ports)
}
