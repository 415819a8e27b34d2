package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"bloodlink/pkg/requestcontext"
)

// ClientMetadata records the caller's IP, User-Agent and device name on the
// context. Rate limiting keys anonymous callers on the IP and activity
// entries store all three.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua)
		if device := DeviceName(ua); device != "" {
			ctx = requestcontext.WithDevice(ctx, device)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceName turns a User-Agent into "<browser> on <os>". An empty header
// yields "".
func DeviceName(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if ua.Bot() {
		return browser + " (bot)"
	}
	system := ua.OS()
	if system == "" {
		system = ua.Platform()
	}
	if system == "" {
		system = "Unknown OS"
	}
	return browser + " on " + system
}

// ClientIPFromRequest prefers the first X-Forwarded-For hop, then X-Real-IP,
// then the socket address.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.Trim(r.RemoteAddr, "[]")
	}
	return host
}
