package models

import (
	"net/http"
	"strings"
	"time"
)

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassRead: lookups such as GET /requests, GET /nearby
	ClassRead EndpointClass = "read"
	// ClassWrite: request creation, transitions and inventory updates
	ClassWrite EndpointClass = "write"
)

func (c EndpointClass) IsValid() bool {
	return c == ClassRead || c == ClassWrite
}

// ClassFor maps an HTTP method to its class.
func ClassFor(method string) EndpointClass {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	default:
		return ClassWrite
	}
}

// Limit is a request allowance per sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// so an identifier containing ':' cannot address another bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Key builds the bucket key for a subject ("user" or "ip").
func Key(subject string, class EndpointClass, identifier string) string {
	return "ratelimit:" + subject + ":" + string(class) + ":" + SanitizeKeySegment(identifier)
}
