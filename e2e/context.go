package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// actor is one of the users seeded from fixtures/seed.json.
type actor struct {
	userID    string
	role      string
	profileID string
}

// actors mirrors fixtures/seed.json; the server must be started with
// BLOODLINK_SEED_FILE pointing at it.
var actors = map[string]actor{
	"receiver":     {userID: "3d2e3c4a-4b7a-4d2c-8c2a-2f9b7d4e1a33", role: "RECEIVER", profileID: "0d3b7e6c-4d1a-4a5f-8e2b-3b7c6f9a2d03"},
	"hospital":     {userID: "1b0c1a2e-2f5e-4b0a-8a0e-0d7f5b2c9e11", role: "HOSPITAL", profileID: "6f0f3a52-8a1a-4e57-9a43-4f8d1c6b0a01"},
	"blood bank":   {userID: "2c1d2b3f-3a6f-4c1b-9b1f-1e8a6c3d0f22", role: "BLOOD_BANK", profileID: "9e4a8c1d-3c2b-4c4e-9d7a-2a6b5e8f1c02"},
	"donor":        {userID: "4e3f4d5b-5c8b-4e3d-9d3b-3a0c8e5f2b44", role: "DONOR", profileID: "4a5b6c7d-5e2b-4b6a-9f3c-4c8d7a0b3e04"},
	"second donor": {userID: "6a5b6f7d-7e0d-4a5f-9f5d-5c2e0a7b4d66", role: "DONOR", profileID: "7b8c9d0e-6f3c-4c7b-8a4d-5d9e8b1c4f05"},
	"admin":        {userID: "5f4a5e6c-6d9c-4f4e-8e4c-4b1d9f6a3c55", role: "ADMIN"},
}

// TestContext holds per-scenario HTTP state.
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client

	signingKey []byte
	issuer     string

	current     *actor
	nextHeaders map[string]string
	saved       map[string]string

	LastResponse     *http.Response
	LastResponseBody []byte
}

func NewTestContext() *TestContext {
	return &TestContext{
		BaseURL:     envOr("BASE_URL", "http://localhost:8080"),
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		signingKey:  []byte(envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production")),
		issuer:      envOr("JWT_ISSUER", "bloodlink"),
		nextHeaders: map[string]string{},
		saved:       map[string]string{},
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Reset clears state between scenarios.
func (tc *TestContext) Reset() {
	tc.current = nil
	tc.nextHeaders = map[string]string{}
	tc.saved = map[string]string{}
	tc.LastResponse = nil
	tc.LastResponseBody = nil
}

// ActAs switches the caller for subsequent requests.
func (tc *TestContext) ActAs(alias string) error {
	a, ok := actors[alias]
	if !ok {
		return fmt.Errorf("unknown actor %q", alias)
	}
	tc.current = &a
	return nil
}

// ProfileID returns the seeded profile id of an actor.
func (tc *TestContext) ProfileID(alias string) (string, error) {
	a, ok := actors[alias]
	if !ok || a.profileID == "" {
		return "", fmt.Errorf("actor %q has no profile", alias)
	}
	return a.profileID, nil
}

// SetNextHeader adds a header to the next request only.
func (tc *TestContext) SetNextHeader(key, value string) {
	tc.nextHeaders[key] = value
}

func (tc *TestContext) Save(key, value string) {
	tc.saved[key] = value
}

func (tc *TestContext) Saved(key string) (string, error) {
	v, ok := tc.saved[key]
	if !ok {
		return "", fmt.Errorf("nothing saved as %q", key)
	}
	return v, nil
}

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body interface{}) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), tc.HTTPClient.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.current != nil {
		token, err := tc.mintToken(*tc.current)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range tc.nextHeaders {
		req.Header.Set(k, v)
	}
	tc.nextHeaders = map[string]string{}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	return err
}

// mintToken signs a token the server's HS256 validator accepts.
func (tc *TestContext) mintToken(a actor) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": a.userID,
		"role":    a.role,
		"sub":     a.userID,
		"iss":     tc.issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(10 * time.Minute).Unix(),
		"jti":     fmt.Sprintf("e2e-%d", now.UnixNano()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.signingKey)
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func (tc *TestContext) GetLastResponseHeader(key string) string {
	if tc.LastResponse == nil {
		return ""
	}
	return tc.LastResponse.Header.Get(key)
}

// GetResponseField reads a dotted path such as "request.status" from the
// last JSON body.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var body interface{}
	if err := json.Unmarshal(tc.LastResponseBody, &body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	current := body
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return current, nil
}
