package profiles_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"homio/internal/adapters/profiles"
	"homio/internal/domain"
)

func TestClient_Authenticate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/profiles/me" {
			w.WriteHeader(404)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(401)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "type": "personal", "displayName": "Ana"})
	}))
	defer ts.Close()

	cl, err := profiles.New(ts.URL, "", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	p, err := cl.Authenticate(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.ID != 7 || p.Type != domain.ProfilePersonal || !p.CanReview() {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if _, err := cl.Authenticate(context.Background(), "wrong"); !errors.Is(err, profiles.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := cl.Authenticate(context.Background(), "  "); !errors.Is(err, profiles.ErrUnauthorized) {
		t.Fatalf("blank token should fail locally, got %v", err)
	}
}

func TestClient_Authenticate_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "type": "personal", "displayName": "Ana"})
		}
	}))
	defer ts.Close()

	cl, err := profiles.New(ts.URL, "", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p, err := cl.Authenticate(ctx, "tok-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.ID != 7 || p.Type != domain.ProfilePersonal {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetProfile_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := profiles.New(ts.URL, "svc-key", 100)
	_, err := cl.GetProfile(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
