package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/reelx/internal/server"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/storage"
	"github.com/urfave/cli/v3"
)

// serverConfig builds the proxy dependencies from the loaded config.
//
// Missing render or TikTok credentials disable those routes instead of failing.
func (r *Runner) serverConfig(addr string) (server.Config, error) {
	cfg := r.config
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	secret := cfg.Credentials.Supabase.JWTSecret
	if secret == "" {
		return server.Config{}, fmt.Errorf("%w: credentials.supabase.jwt_secret", shared.ErrMissingConfig)
	}

	publicURL := cfg.Server.PublicURL
	if publicURL == "" {
		publicURL = "http://" + addr
	}
	media, err := storage.NewLocalStore(cfg.Storage, publicURL)
	if err != nil {
		return server.Config{}, err
	}

	srvCfg := server.Config{
		Addr:           addr,
		Media:          media,
		JWTSecret:      secret,
		FrontendURL:    cfg.Server.FrontendURL,
		MaxUploadBytes: media.MaxBytes(),
		Logger:         shared.WithLogger(r.logger, "component", "server"),
	}

	if renderer, err := services.NewJSON2VideoService(cfg.Credentials.JSON2Video, r.httpClient); err != nil {
		r.logger.Warn("rendering disabled", "error", err)
	} else {
		srvCfg.Renderer = renderer
	}

	if tiktok, err := services.NewTikTokService(cfg.Credentials.TikTok); err != nil {
		r.logger.Warn("tiktok routes disabled", "error", err)
	} else {
		srvCfg.TikTok = tiktok
	}

	return srvCfg, nil
}

// Serve runs the proxy server until interrupted, then shuts it down gracefully.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	srvCfg, err := r.serverConfig(cmd.String("addr"))
	if err != nil {
		return err
	}

	srv := server.NewServer(srvCfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	r.writePlain("✓ Proxy listening on http://%s\n", srv.Addr())

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
