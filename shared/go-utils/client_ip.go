package utils

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the best client IP address from typical proxy headers,
// falling back to RemoteAddr. Returns "" when nothing parses as an IP.
func ClientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		for _, ip := range strings.Split(forwardedFor, ",") {
			cleanIP := strings.TrimSpace(ip)
			if isValidIP(cleanIP) {
				return cleanIP
			}
		}
	}

	if cf := r.Header.Get("CF-Connecting-IP"); cf != "" && isValidIP(cf) {
		return cf
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" && isValidIP(realIP) {
		return realIP
	}

	if forwarded := r.Header.Get("Forwarded"); forwarded != "" {
		for _, part := range strings.Split(forwarded, ";") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "for=") {
				maybeIP := strings.Trim(strings.TrimPrefix(part, "for="), "\"")
				if isValidIP(maybeIP) {
					return maybeIP
				}
			}
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && isValidIP(ip) {
		return ip
	}
	return ""
}

func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}
