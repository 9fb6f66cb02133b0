package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHostPort(t *testing.T) {
	tests := []struct {
		addr string
		host string
		port uint16
	}{
		{"10.0.0.9:1883", "10.0.0.9", 1883},
		{"broker.example.com:8883", "broker.example.com", 8883},
		{"[fe80::1]:1883", "fe80::1", 1883},
		{"localhost:65535", "localhost", 65535},
	}
	for _, tt := range tests {
		host, port, err := splitHostPort(tt.addr)
		require.NoError(t, err, tt.addr)
		assert.Equal(t, tt.host, host, tt.addr)
		assert.Equal(t, tt.port, port, tt.addr)
	}
}

func TestSplitHostPortErrors(t *testing.T) {
	for _, addr := range []string{
		"10.0.0.9",
		":1883",
		"host:",
		"host:18x3",
		"host:65536",
		"host:0",
		"host:99999999999",
	} {
		_, _, err := splitHostPort(addr)
		assert.Error(t, err, addr)
	}
}
