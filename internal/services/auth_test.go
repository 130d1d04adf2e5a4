package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/reelx/internal/shared"
)

func newAuthTestServer(t *testing.T, handler http.HandlerFunc) *AuthService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewAuthService(shared.SupabaseConfig{URL: server.URL, AnonKey: "anon"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return srv
}

func TestAuthService(t *testing.T) {
	t.Run("New Requires Anon Key", func(t *testing.T) {
		if _, err := NewAuthService(shared.SupabaseConfig{URL: "http://x"}, nil); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("SignIn", func(t *testing.T) {
		t.Run("Returns Session", func(t *testing.T) {
			srv := newAuthTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
					t.Errorf("unexpected url %s", r.URL)
				}
				if r.Header.Get("apikey") != "anon" {
					t.Errorf("expected apikey header")
				}

				var creds map[string]string
				json.NewDecoder(r.Body).Decode(&creds)
				if creds["email"] != "a@b.co" || creds["password"] != "secret" {
					t.Errorf("unexpected credentials %v", creds)
				}

				w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"u1","email":"a@b.co"}}`))
			})

			session, err := srv.SignIn(context.Background(), "a@b.co", "secret")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if session.AccessToken != "at" || session.User.ID != "u1" {
				t.Errorf("unexpected session %+v", session)
			}
			if session.ExpiresAt == 0 {
				t.Error("expected expires_at derived from expires_in")
			}
		})

		t.Run("Bad Credentials", func(t *testing.T) {
			srv := newAuthTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			})

			_, err := srv.SignIn(context.Background(), "a@b.co", "wrong")
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})

		t.Run("Missing Password", func(t *testing.T) {
			srv := newAuthTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			})
			if _, err := srv.SignIn(context.Background(), "a@b.co", ""); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("SignUp", func(t *testing.T) {
		t.Run("Password Mismatch", func(t *testing.T) {
			srv := newAuthTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			})
			if _, err := srv.SignUp(context.Background(), "a@b.co", "one", "two"); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Confirmation Pending", func(t *testing.T) {
			srv := newAuthTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/auth/v1/signup" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(`{"id":"u2","email":"new@b.co"}`))
			})

			session, err := srv.SignUp(context.Background(), "new@b.co", "pw", "pw")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if session.AccessToken != "" || session.User.ID != "u2" {
				t.Errorf("unexpected session %+v", session)
			}
		})
	})

	t.Run("SignOut Sends Bearer", func(t *testing.T) {
		srv := newAuthTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/v1/logout" || r.Header.Get("Authorization") != "Bearer at" {
				t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusNoContent)
		})

		if err := srv.SignOut(context.Background(), "at"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := srv.SignOut(context.Background(), ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("User Expired Token", func(t *testing.T) {
		srv := newAuthTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "jwt expired", http.StatusUnauthorized)
		})

		if _, err := srv.User(context.Background(), "old"); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})
}
