package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/craftlink/session-agent/internal/core/domain"
	"github.com/craftlink/session-agent/internal/core/ports"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{BaseURL: srv.URL}, zerolog.Nop())
}

func TestLogin_SendsIdentifierUnderEmailField(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"token":  "tok",
			"role":   "craftsman",
			"user":   map[string]any{"id": 42, "name": "mia"},
		})
	}))
	defer srv.Close()

	// Craftsmen log in with a phone number, but the server still expects
	// it under the field named "email".
	_, err := newTestClient(srv).Login(context.Background(), ports.LoginInput{
		Role:       domain.RoleCraftsman,
		Identifier: "0555123456",
		Password:   "secret",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got["email"] != "0555123456" {
		t.Fatalf("identifier must be sent as \"email\", body: %v", got)
	}
	if _, present := got["identifier"]; present {
		t.Fatalf("no identifier field may be sent")
	}
}

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   true,
			"token":    "tok-1",
			"role":     "admin",
			"redirect": "/admin/dashboard",
			"user":     map[string]any{"id": 1, "name": "root", "email": "root@example.com", "profile_image_url": "https://cdn/x.png"},
		})
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Login(context.Background(), ports.LoginInput{Identifier: "root@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token != "tok-1" || res.Role != "admin" || res.Redirect != "/admin/dashboard" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Actor.ID != 1 || res.Actor.AvatarURL != "https://cdn/x.png" {
		t.Fatalf("unexpected actor: %+v", res.Actor)
	}
}

func TestLogin_BusinessRejectionCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "your account is pending approval",
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Login(context.Background(), ports.LoginInput{Identifier: "a", Password: "b"})

	var rejected *domain.LoginRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected LoginRejectedError, got %v", err)
	}
	if rejected.Message != "your account is pending approval" {
		t.Fatalf("unexpected message: %q", rejected.Message)
	}
}

func TestLogin_StatusFalseWith200IsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "wrong password"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Login(context.Background(), ports.LoginInput{Identifier: "a", Password: "b"})
	var rejected *domain.LoginRejectedError
	if !errors.As(err, &rejected) || rejected.Message != "wrong password" {
		t.Fatalf("expected rejection with message, got %v", err)
	}
}

func TestLogin_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Login(context.Background(), ports.LoginInput{Identifier: "a", Password: "b"})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchProfile_RoleSelectsEndpoint(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "name": "hans", "profile_photo": "p.jpg"})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	if _, err := client.FetchProfile(context.Background(), domain.RoleUser, "tok"); err != nil {
		t.Fatalf("user fetch failed: %v", err)
	}
	profile, err := client.FetchProfile(context.Background(), domain.RoleCraftsman, "tok")
	if err != nil {
		t.Fatalf("craftsman fetch failed: %v", err)
	}

	if len(paths) != 2 || paths[0] != "/user/me" || paths[1] != "/craftsmen/profile/me" {
		t.Fatalf("wrong endpoints: %v", paths)
	}
	if profile.AvatarURL != "p.jpg" {
		t.Fatalf("profile_photo must map to avatar, got %q", profile.AvatarURL)
	}
}

func TestFetchProfile_Classification(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()
	client := newTestClient(srv)

	if _, err := client.FetchProfile(context.Background(), domain.RoleUser, "tok"); !errors.Is(err, domain.ErrCredentialRejected) {
		t.Fatalf("401 must classify as rejection, got %v", err)
	}

	status = http.StatusInternalServerError
	if _, err := client.FetchProfile(context.Background(), domain.RoleUser, "tok"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("500 must classify as unavailable, got %v", err)
	}
}

func TestFetchProfile_NetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(Config{BaseURL: srv.URL}, zerolog.Nop())
	if _, err := client.FetchProfile(context.Background(), domain.RoleUser, "tok"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
