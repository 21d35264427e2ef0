package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

// ClientIPFromRequest extracts the client IP from the X-Forwarded-For header.
//
// The last IP before the load balancer adds internal IP addresses is the IP
// of the client connecting to the load balancer. Anything before that is
// untrustworthy. Unfortunately, different load balancers may add additional
// IPs after the client, so the exact location of the client IP is
// configurable for the deployment's infrastructure.
func ClientIPFromRequest(r *http.Request, xffClientIpPosition int) (string, error) {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 && xffClientIpPosition >= 0 && xffClientIpPosition < len(ips) {
			return strings.TrimSpace(ips[len(ips)-xffClientIpPosition-1]), nil
		}
	}

	return "", errors.New("no client IP found in header")
}

// ClientIP resolves the client IP for a request, falling back to the
// connection's remote address when no forwarding header is present.
func ClientIP(r *http.Request, xffClientIpPosition int) string {
	if ip, err := ClientIPFromRequest(r, xffClientIpPosition); err == nil {
		return ip
	}

	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}

	return r.RemoteAddr
}
