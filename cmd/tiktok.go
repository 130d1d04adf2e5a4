package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/reelx/internal/server"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// TikTokAuth performs the TikTok Login Kit flow.
//
// Starts a local HTTP server on the redirect URI, opens the browser for consent and exchanges the code for a token.
func (r *Runner) TikTokAuth(ctx context.Context, cmd *cli.Command) error {
	tiktok, err := services.NewTikTokService(r.config.Credentials.TikTok)
	if err != nil {
		return fmt.Errorf("%w: set credentials.tiktok.client_key and client_secret in %s", err, r.configPath)
	}

	token, err := r.doOAuth(ctx, tiktok, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	cfg := &r.config.Credentials.TikTok
	if err := cfg.Update(token); err != nil {
		return fmt.Errorf("failed to update tiktok configuration: %w", err)
	}

	if user, err := tiktok.UserInfo(ctx, token.AccessToken); err != nil {
		r.logger.Warn("failed to fetch tiktok profile", "error", err)
	} else {
		cfg.DisplayName = user.Handle()
		if cfg.OpenID == "" {
			cfg.OpenID = user.OpenID
		}
	}

	if err := r.saveConfig(); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if cfg.DisplayName != "" {
		r.writePlain("✓ Connected as %s\n", cfg.DisplayName)
	}
	r.writePlain("✓ Token saved to %s\n", r.configPath)
	return nil
}

// TikTokWhoAmI prints the profile behind the stored TikTok token.
func (r *Runner) TikTokWhoAmI(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Credentials.TikTok
	if cfg.AccessToken == "" {
		return fmt.Errorf("%w: run 'reelx tiktok auth' first", shared.ErrNotAuthenticated)
	}

	tiktok, err := services.NewTikTokService(cfg)
	if err != nil {
		return err
	}

	user, err := tiktok.UserInfo(ctx, cfg.AccessToken)
	if err != nil {
		if errors.Is(err, shared.ErrTokenExpired) {
			return fmt.Errorf("%w: run 'reelx tiktok auth' again", err)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Hello, %s!\n", user.Handle())
	r.writePlain("  Open ID: %s\n", user.OpenID)
	if user.Username != "" {
		r.writePlain("  Username: @%s\n", user.Username)
	}
	return nil
}

// doOAuth executes the authorization code flow with a local callback server bound to the redirect URI.
func (r *Runner) doOAuth(ctx context.Context, tiktok *services.TikTokService, openBrowser bool) (*oauth2.Token, error) {
	redirect, err := url.Parse(tiktok.RedirectURL())
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, tiktok.RedirectURL())
	}

	state := shared.GenerateID()
	authURL := tiktok.AuthURL(state)

	oauthHandler := server.NewOAuthHandler(tiktok, state, redirect.Path)
	router := chi.NewRouter()
	server.Mount(router, oauthHandler)

	httpServer := &http.Server{
		Addr:              redirect.Host,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", redirect.Host)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	if openBrowser {
		r.writePlain("→ Opening browser for TikTok authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			openBrowser = false
		}
	}
	if !openBrowser {
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrAuthFailed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
