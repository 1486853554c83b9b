package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name          string
		xForwardedFor string
		xRealIP       string
		remoteAddr    string
		expectedIP    string
	}{
		{
			name:          "X-Forwarded-For ignored",
			xForwardedFor: "192.168.1.1",
			remoteAddr:    "10.0.0.1:12345",
			expectedIP:    "10.0.0.1",
		},
		{
			name:          "spoofed X-Forwarded-For chain ignored",
			xForwardedFor: "1.2.3.4, 10.0.0.2, 172.16.0.1",
			remoteAddr:    "10.0.0.1:12345",
			expectedIP:    "10.0.0.1",
		},
		{
			name:       "X-Real-IP ignored",
			xRealIP:    "192.168.1.1",
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "10.0.0.1",
		},
		{
			name:       "RemoteAddr with port",
			remoteAddr: "192.168.1.1:12345",
			expectedIP: "192.168.1.1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.1",
			expectedIP: "192.168.1.1",
		},
		{
			name:       "IPv6 RemoteAddr with port",
			remoteAddr: "[::1]:8080",
			expectedIP: "::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if got := ClientIP(req); got != tt.expectedIP {
				t.Errorf("ClientIP() = %q, want %q", got, tt.expectedIP)
			}
		})
	}
}

func TestClientIP_NilRequest(t *testing.T) {
	if got := ClientIP(nil); got != "" {
		t.Errorf("ClientIP(nil) = %q, want empty", got)
	}
}

func TestRequestURL(t *testing.T) {
	req := httptest.NewRequest("GET", "/time?x=1", nil)
	if got := RequestURL(req); got != "http://example.com/time?x=1" {
		t.Errorf("RequestURL() = %q", got)
	}

	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	if got := RequestURL(req); got != "https://example.com/time?x=1" {
		t.Errorf("RequestURL() behind proxy = %q", got)
	}

	if got := RequestURL(nil); got != "" {
		t.Errorf("RequestURL(nil) = %q, want empty", got)
	}
}

func TestClientIP_BehindRealIP(t *testing.T) {
	var got string
	h := chimw.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	req.Header.Set("X-Real-IP", "192.168.1.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "192.168.1.1" {
		t.Errorf("ClientIP() after RealIP = %q, want 192.168.1.1", got)
	}
}
