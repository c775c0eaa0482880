package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edumeal/edumeal-api/internal/pkg/jwt"
)

func TestVerifyAcceptsKnownUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("expected apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"u-1","email":"cook@school.test","app_metadata":{"role":"scanner"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "anon", nil, time.Minute)

	id, err := c.Verify(context.Background(), "good")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != "u-1" || id.Role != jwt.RoleScanner {
		t.Fatalf("unexpected identity %+v", id)
	}

	if _, err := c.Verify(context.Background(), "bad"); !errors.Is(err, jwt.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestVerifyReportsOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, 0)
	if _, err := c.Verify(context.Background(), "any"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestCacheKeyHidesToken(t *testing.T) {
	key := cacheKey("secret-token")
	if strings.Contains(key, "secret-token") {
		t.Fatalf("cache key leaks token: %s", key)
	}
	if !strings.HasPrefix(key, cachePrefix) || len(key) != len(cachePrefix)+64 {
		t.Fatalf("unexpected key %s", key)
	}
}
