package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) authService() (*services.AuthService, error) {
	return services.NewAuthService(r.config.Credentials.Supabase, r.httpClient)
}

// storeSession saves session into the config file so later commands can call the proxy.
func (r *Runner) storeSession(session *models.Session) error {
	r.config.Credentials.Supabase.UpdateSession(session.AccessToken, session.RefreshToken, session.ExpiresAt, session.User.Email)
	if err := r.saveConfig(); err != nil {
		return err
	}
	r.studio = nil
	r.engine = nil
	return nil
}

// AuthSignIn exchanges email and password for a session and stores it.
func (r *Runner) AuthSignIn(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authService()
	if err != nil {
		return err
	}

	email := cmd.String("email")
	r.logger.Info("signing in", "email", email)

	session, err := auth.SignIn(ctx, email, cmd.String("password"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if err := r.storeSession(session); err != nil {
		return err
	}

	r.writePlain("✓ Signed in as %s\n", session.User.Email)
	r.writePlain("✓ Session saved to %s\n", r.configPath)
	return nil
}

// AuthSignUp registers an account. Backends that require email confirmation return no session.
func (r *Runner) AuthSignUp(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authService()
	if err != nil {
		return err
	}

	email := cmd.String("email")
	r.logger.Info("signing up", "email", email)

	session, err := auth.SignUp(ctx, email, cmd.String("password"), cmd.String("confirm"))
	if err != nil {
		return err
	}

	if session.AccessToken == "" {
		return r.writePlain("✓ Account created. Check %s for a confirmation link, then run 'reelx auth signin'\n", email)
	}

	if err := r.storeSession(session); err != nil {
		return err
	}
	return r.writePlain("✓ Account created and signed in as %s\n", session.User.Email)
}

// AuthSignOut revokes the stored session and clears it from the config file.
//
// The local session is cleared even when the backend rejects the revoke.
func (r *Runner) AuthSignOut(ctx context.Context, cmd *cli.Command) error {
	token := r.config.Credentials.Supabase.AccessToken
	if token == "" {
		return r.writePlain("Not signed in\n")
	}

	if auth, err := r.authService(); err != nil {
		r.logger.Warn("skipping remote sign out", "error", err)
	} else if err := auth.SignOut(ctx, token); err != nil {
		r.logger.Warn("remote sign out failed", "error", err)
	}

	r.config.Credentials.Supabase.ClearSession()
	if err := r.saveConfig(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports the stored session and verifies it with the auth backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	session := r.config.Credentials.Supabase
	if session.AccessToken == "" {
		return r.writePlain("✗ Not signed in\n")
	}

	stored := models.Session{AccessToken: session.AccessToken, ExpiresAt: session.ExpiresAt}
	if stored.Expired(time.Now()) {
		r.writePlain("⚠ Session for %s expired at %s\n", session.UserEmail, time.Unix(session.ExpiresAt, 0).Format(time.RFC1123))
		return fmt.Errorf("%w: run 'reelx auth signin' again", shared.ErrTokenExpired)
	}

	auth, err := r.authService()
	if err != nil {
		return err
	}

	user, err := auth.User(ctx, session.AccessToken)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}

	r.writePlain("✓ Signed in as %s\n", user.Email)
	r.writePlain("  User ID: %s\n", user.ID)
	if session.ExpiresAt > 0 {
		r.writePlain("  Expires: %s\n", time.Unix(session.ExpiresAt, 0).Format(time.RFC1123))
	}
	return nil
}

// Hello calls the proxy greeting with the stored session.
func (r *Runner) Hello(ctx context.Context, cmd *cli.Command) error {
	studio, err := r.studioClient()
	if err != nil {
		return err
	}

	resp, err := studio.Hello(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("%s\n", resp.Message)
	if resp.Authenticated {
		r.writePlain("Authentication: ✓ Authenticated\n")
	} else {
		r.writePlain("Authentication: ✗ Not authenticated\n")
	}
	return nil
}
