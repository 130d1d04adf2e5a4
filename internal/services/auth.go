package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// AuthService signs users in and out of a Supabase GoTrue backend.
type AuthService struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewAuthService creates an [AuthService] from cfg.
func NewAuthService(cfg shared.SupabaseConfig, client *http.Client) (*AuthService, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: supabase url", shared.ErrMissingConfig)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("%w: supabase anon_key", shared.ErrMissingCredentials)
	}

	return &AuthService{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:    cfg.AnonKey,
		httpClient: newHTTPClient(client, 30*time.Second),
	}, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *AuthService) request(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	req, err := newJSONRequest(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", a.anonKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// SignIn exchanges an email and password for a session.
func (a *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}

	req, err := a.request(ctx, http.MethodPost, "/token?grant_type=password", "", credentials{email, password})
	if err != nil {
		return nil, err
	}

	body, err := send(a.httpClient, "auth", req)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, se.Body)
		}
		return nil, err
	}

	var session models.Session
	if err := decode("auth", body, &session); err != nil {
		return nil, err
	}
	if session.ExpiresAt == 0 && session.ExpiresIn > 0 {
		session.ExpiresAt = time.Now().Unix() + session.ExpiresIn
	}
	return &session, nil
}

// SignUp registers a new account. When the backend requires email confirmation the returned session has no access token.
func (a *AuthService) SignUp(ctx context.Context, email, password, confirm string) (*models.Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}
	if password != confirm {
		return nil, fmt.Errorf("%w: passwords do not match", shared.ErrInvalidInput)
	}

	req, err := a.request(ctx, http.MethodPost, "/signup", "", credentials{email, password})
	if err != nil {
		return nil, err
	}

	body, err := send(a.httpClient, "auth", req)
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := decode("auth", body, &session); err != nil {
		return nil, err
	}

	// Confirmation-pending signups return the bare user object.
	if session.AccessToken == "" && session.User.ID == "" {
		var user models.AuthUser
		if err := decode("auth", body, &user); err != nil {
			return nil, err
		}
		session.User = user
	}
	return &session, nil
}

// SignOut revokes the session behind accessToken.
func (a *AuthService) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return shared.ErrNotAuthenticated
	}

	req, err := a.request(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}

	_, err = send(a.httpClient, "auth", req)
	return err
}

// User returns the account behind accessToken.
func (a *AuthService) User(ctx context.Context, accessToken string) (*models.AuthUser, error) {
	if accessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	req, err := a.request(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return nil, err
	}

	body, err := send(a.httpClient, "auth", req)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", shared.ErrTokenExpired, se.Body)
		}
		return nil, err
	}

	var user models.AuthUser
	if err := decode("auth", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
