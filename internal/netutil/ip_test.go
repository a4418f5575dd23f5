package netutil

import (
	"errors"
	"net"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name           string
		forwarded      string
		realIP         string
		remoteAddr     string
		expectedResult string
	}{
		{
			name:           "X-Forwarded-For with multiple IPs",
			forwarded:      "203.0.113.1, 203.0.113.2, 203.0.113.3",
			remoteAddr:     "192.168.1.1:12345",
			expectedResult: "203.0.113.1",
		},
		{
			name:           "X-Real-IP header",
			realIP:         "203.0.113.1",
			remoteAddr:     "192.168.1.1:12345",
			expectedResult: "203.0.113.1",
		},
		{
			name:           "RemoteAddr fallback",
			remoteAddr:     "192.168.1.1:12345",
			expectedResult: "192.168.1.1",
		},
		{
			name:           "RemoteAddr without port",
			remoteAddr:     "192.168.1.7",
			expectedResult: "192.168.1.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/metrics", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			req.RemoteAddr = tt.remoteAddr

			if result := ClientIP(req); result != tt.expectedResult {
				t.Errorf("Expected %s, got %s", tt.expectedResult, result)
			}
		})
	}
}

func TestGetLocalIP(t *testing.T) {
	ip, err := GetLocalIP()
	if errors.Is(err, ErrNoInterface) {
		t.Skip("no non-loopback IPv4 interface available")
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil || parsed.IsLoopback() {
		t.Errorf("expected a non-loopback IPv4 address, got %q", ip)
	}
}
