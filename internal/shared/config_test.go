package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./reelx.db" {
			t.Errorf("expected database path ./reelx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}

		if config.Render.Resolution != "full-hd" || config.Render.Quality != "high" {
			t.Errorf("unexpected render defaults: %+v", config.Render)
		}

		if config.Render.PollInterval() != 5*time.Second {
			t.Errorf("expected 5s poll interval, got %v", config.Render.PollInterval())
		}

		if config.Upload.Timeout() != 300*time.Second {
			t.Errorf("expected 300s upload timeout, got %v", config.Upload.Timeout())
		}
		if (UploadConfig{}).Timeout() != 5*time.Minute {
			t.Errorf("expected 5m fallback upload timeout, got %v", (UploadConfig{}).Timeout())
		}

		if config.Credentials.Graph.ScriptOutput != "cC3GP5c3BfeQTGWitCTR" {
			t.Errorf("unexpected script output node %s", config.Credentials.Graph.ScriptOutput)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig Keeps Defaults For Missing Keys", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[server]
host = "0.0.0.0"
port = 9090

[render]
poll_interval_seconds = 2
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Addr() != "0.0.0.0:9090" {
			t.Errorf("expected addr 0.0.0.0:9090, got %s", config.Server.Addr())
		}
		if config.Render.PollInterval() != 2*time.Second {
			t.Errorf("expected 2s interval, got %v", config.Render.PollInterval())
		}
		if config.Render.Resolution != "full-hd" {
			t.Errorf("expected default resolution to survive, got %s", config.Render.Resolution)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("SaveConfig Round Trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Supabase.UpdateSession("access", "refresh", 1700000000, "me@example.com")

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if loaded.Credentials.Supabase.AccessToken != "access" {
			t.Errorf("expected access token to persist, got %q", loaded.Credentials.Supabase.AccessToken)
		}
		if loaded.Credentials.Supabase.UserEmail != "me@example.com" {
			t.Errorf("expected email to persist, got %q", loaded.Credentials.Supabase.UserEmail)
		}

		loaded.Credentials.Supabase.ClearSession()
		if loaded.Credentials.Supabase.AccessToken != "" {
			t.Error("expected session to be cleared")
		}
	})

	t.Run("TikTok Update", func(t *testing.T) {
		var tk TikTokConfig
		if err := tk.Update(nil); err == nil {
			t.Error("expected error for nil token")
		}

		expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		token := (&oauth2.Token{
			AccessToken:  "act.123",
			RefreshToken: "rft.456",
			Expiry:       expiry,
		}).WithExtra(map[string]any{"open_id": "open-1"})

		if err := tk.Update(token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tk.AccessToken != "act.123" || tk.RefreshToken != "rft.456" || tk.OpenID != "open-1" {
			t.Errorf("unexpected tiktok config: %+v", tk)
		}
		if tk.Expiry != expiry.Format(time.RFC3339) {
			t.Errorf("unexpected expiry %s", tk.Expiry)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("REELX_GRAPH_API_KEY", "hm_test")
		t.Setenv("REELX_STUDIO_URL", "http://studio.local")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Graph.APIKey != "hm_test" {
			t.Errorf("expected graph api key override, got %q", config.Credentials.Graph.APIKey)
		}
		if config.Studio.BaseURL != "http://studio.local" {
			t.Errorf("expected studio url override, got %q", config.Studio.BaseURL)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("REELX_TEST_LOADENV=yes\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("REELX_TEST_LOADENV") })

		if err := LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if os.Getenv("REELX_TEST_LOADENV") != "yes" {
			t.Error("expected variable from .env file")
		}
	})
}
