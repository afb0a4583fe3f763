package anubis

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/last-man-standing/internal/platform/logging"
	"github.com/riskibarqy/last-man-standing/internal/platform/resilience"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

func TestVerifyAccessToken_SendsAdminKeyAndParsesResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/v1/auth/introspect" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-admin-key"); got != "admin-secret" {
			t.Errorf("unexpected x-admin-key %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"active":true,"user_id":"user-123","email":"user@example.com","roles":["player","admin"]}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "admin-secret", resilience.CircuitBreakerConfig{}, logging.NewNop())

	principal, err := client.VerifyAccessToken(t.Context(), "token-abc")
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if principal.UserID != "user-123" {
		t.Fatalf("unexpected user id %q", principal.UserID)
	}
	if principal.Email != "user@example.com" {
		t.Fatalf("unexpected email %q", principal.Email)
	}
	if !principal.IsAdmin {
		t.Fatal("expected admin principal")
	}
}

func TestVerifyAccessToken_NonAdminRoles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"active":true,"user_id":"user-9","roles":["player"]}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "", resilience.CircuitBreakerConfig{}, logging.NewNop())

	principal, err := client.VerifyAccessToken(t.Context(), "token-abc")
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if principal.IsAdmin {
		t.Fatal("expected non-admin principal")
	}
}

func TestVerifyAccessToken_EmptyToken(t *testing.T) {
	t.Parallel()

	client := NewClient(nil, "http://localhost:0", "/v1/auth/introspect", "", resilience.CircuitBreakerConfig{}, logging.NewNop())

	_, err := client.VerifyAccessToken(t.Context(), "   ")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyAccessToken_InactiveToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"active":false}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "", resilience.CircuitBreakerConfig{}, logging.NewNop())

	_, err := client.VerifyAccessToken(t.Context(), "token-abc")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyAccessToken_DeniedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "", resilience.CircuitBreakerConfig{}, logging.NewNop())

	_, err := client.VerifyAccessToken(t.Context(), "token-abc")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyAccessToken_CircuitBreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "", resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	}, logging.NewNop())

	if _, err := client.VerifyAccessToken(t.Context(), "token-abc"); err == nil {
		t.Fatal("expected first introspection to fail")
	}
	_, err := client.VerifyAccessToken(t.Context(), "token-abc")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable from open breaker, got %v", err)
	}
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	if got := buildURL("https://auth.internal/", "v1/auth/introspect"); got != "https://auth.internal/v1/auth/introspect" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := buildURL("https://auth.internal", "https://other.internal/introspect"); got != "https://other.internal/introspect" {
		t.Fatalf("expected absolute path to win, got %q", got)
	}
	if got := buildURL("https://auth.internal/", ""); got != "https://auth.internal" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestHashToken_StableAndOpaque(t *testing.T) {
	t.Parallel()

	first := hashToken("token-abc")
	if first != hashToken("token-abc") {
		t.Fatal("expected stable hash")
	}
	if strings.Contains(first, "token-abc") {
		t.Fatal("expected token absent from hash")
	}
	if len(first) != 64 {
		t.Fatalf("expected sha256 hex length 64, got %d", len(first))
	}
}

func TestVerifyAccessToken_CachesVerifiedPrincipal(t *testing.T) {
	t.Parallel()

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"active":true,"user_id":"user-5","roles":["player"]}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "", resilience.CircuitBreakerConfig{}, logging.NewNop())

	for range 2 {
		principal, err := client.VerifyAccessToken(t.Context(), "token-cached")
		if err != nil {
			t.Fatalf("VerifyAccessToken: %v", err)
		}
		if principal.UserID != "user-5" {
			t.Fatalf("unexpected user id %q", principal.UserID)
		}
	}

	if requests != 1 {
		t.Fatalf("expected 1 introspection request, got %d", requests)
	}
}
