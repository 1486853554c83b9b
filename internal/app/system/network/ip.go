// Package network extracts client and URL details from a request for logs
// and error reports.
package network

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are
// not read here: the router's RealIP middleware has already applied them to
// RemoteAddr, and a raw header is client-controlled. It returns "" for a nil
// request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RequestURL rebuilds the absolute URL the client asked for. It returns ""
// for a nil request.
func RequestURL(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.ToLower(strings.TrimSpace(p))
	}
	if r.Host == "" {
		return r.URL.RequestURI()
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
