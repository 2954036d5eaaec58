package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"tailscale.com/client/tailscale/apitype"
	"tailscale.com/tailcfg"
)

type fakeWhoIs struct {
	resp *apitype.WhoIsResponse
	err  error
}

func (f fakeWhoIs) WhoIs(context.Context, string) (*apitype.WhoIsResponse, error) {
	return f.resp, f.err
}

func quietServer() *Server {
	return &Server{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// TestAPIKeyAuth verifies missing keys get 401, wrong keys 403, and the
// right key reaches the handler.
func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	tests := []struct {
		key  string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"nope", http.StatusForbidden},
		{"secret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.key != "" {
			req.Header.Set("X-API-Key", tt.key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("key %q: status = %d, want %d", tt.key, rec.Code, tt.want)
		}
	}
}

// TestIdentityDevUser verifies the dev identity is used without Tailscale.
func TestIdentityDevUser(t *testing.T) {
	s := quietServer()
	var got UserInfo
	handler := s.identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = userInfoFromContext(r)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != devUser {
		t.Errorf("identity = %+v, want %+v", got, devUser)
	}
}

// TestIdentityTailscaleUser verifies the tailnet login is used when WhoIs
// succeeds and the dev user when it fails.
func TestIdentityTailscaleUser(t *testing.T) {
	s := quietServer()
	s.SetTailscale(fakeWhoIs{resp: &apitype.WhoIsResponse{
		UserProfile: &tailcfg.UserProfile{LoginName: "alice@example.com", DisplayName: "Alice"},
	}})
	rec := httptest.NewRecorder()
	s.identity(http.HandlerFunc(s.handleMe)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" || info.DisplayName != "Alice" {
		t.Errorf("me = %+v", info)
	}

	s.SetTailscale(fakeWhoIs{err: errors.New("not a peer")})
	var got UserInfo
	s.identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = userInfoFromContext(r)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != devUser {
		t.Errorf("identity after whois error = %+v, want dev user", got)
	}
}

// TestUserInfoFromContextDefault verifies the fallback UserInfo when no
// identity middleware has set a value.
func TestUserInfoFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if info := userInfoFromContext(req); info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
}

// TestRequestLogging verifies that the logging middleware calls the next handler and records status.
func TestRequestLogging(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RequestLogging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

// TestCORSHeaders verifies that CORS headers are set on responses.
func TestCORSHeaders(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q, want *", got)
	}
}

// TestCORSPreflight verifies that OPTIONS requests get 204 with CORS headers.
func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called for OPTIONS")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
