package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Studio      StudioConfig      `toml:"studio"`
	Render      RenderConfig      `toml:"render"`
	Upload      UploadConfig      `toml:"upload"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Supabase   SupabaseConfig   `toml:"supabase"`
	Graph      GraphConfig      `toml:"graph"`
	JSON2Video JSON2VideoConfig `toml:"json2video"`
	TikTok     TikTokConfig     `toml:"tiktok"`
}

// SupabaseConfig holds the auth backend project settings and the current session.
type SupabaseConfig struct {
	URL          string `toml:"url"`
	AnonKey      string `toml:"anon_key"`
	JWTSecret    string `toml:"jwt_secret"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	ExpiresAt    int64  `toml:"expires_at"`
	UserEmail    string `toml:"user_email"`
}

// GraphConfig contains the graph-execution API settings.
type GraphConfig struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	DeploymentID    string `toml:"deployment_id"`
	ScriptGraphID   string `toml:"script_graph_id"`
	TemplateGraphID string `toml:"template_graph_id"`
	LocationGraphID string `toml:"location_graph_id"`
	PostOutput      string `toml:"post_output"`
	ScriptOutput    string `toml:"script_output"`
	TemplateOutput  string `toml:"template_output"`
}

// JSON2VideoConfig contains the rendering service credentials used by the proxy server.
type JSON2VideoConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// TikTokConfig contains TikTok Login Kit credentials and the stored user token.
type TikTokConfig struct {
	ClientKey    string   `toml:"client_key"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
	AccessToken  string   `toml:"access_token"`
	RefreshToken string   `toml:"refresh_token"`
	OpenID       string   `toml:"open_id"`
	DisplayName  string   `toml:"display_name"`
	Expiry       string   `toml:"expiry"`
}

// StudioConfig points at the proxy that fronts uploads and rendering.
type StudioConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RenderConfig controls the final template and the status polling loop.
type RenderConfig struct {
	Resolution          string  `toml:"resolution"`
	Quality             string  `toml:"quality"`
	DefaultDuration     float64 `toml:"default_duration"`
	PollIntervalSeconds int     `toml:"poll_interval_seconds"`
	MaxPollAttempts     int     `toml:"max_poll_attempts"`
	DeadlineMinutes     int     `toml:"deadline_minutes"`
}

// UploadConfig bounds concurrent scene uploads.
type UploadConfig struct {
	MaxConcurrency int     `toml:"max_concurrency"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	PublicURL   string `toml:"public_url"`
	FrontendURL string `toml:"frontend_url"`
}

// StorageConfig describes where uploaded scene clips are kept.
type StorageConfig struct {
	MediaDir    string `toml:"media_dir"`
	MaxUploadMB int64  `toml:"max_upload_mb"`
}

// LogConfig sets the default log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the listen address for the proxy server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PollInterval returns the delay between status polls.
func (r RenderConfig) PollInterval() time.Duration {
	if r.PollIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(r.PollIntervalSeconds) * time.Second
}

// Deadline returns the overall polling deadline, or zero when unbounded.
func (r RenderConfig) Deadline() time.Duration {
	return time.Duration(r.DeadlineMinutes) * time.Minute
}

// Timeout returns the studio HTTP client timeout.
func (s StudioConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Timeout returns the limit for a single clip upload.
func (u UploadConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// Update stores a freshly exchanged TikTok token.
func (t *TikTokConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}

	t.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		t.RefreshToken = token.RefreshToken
	}
	if openID, ok := token.Extra("open_id").(string); ok && openID != "" {
		t.OpenID = openID
	}
	if !token.Expiry.IsZero() {
		t.Expiry = token.Expiry.Format(time.RFC3339)
	}
	return nil
}

// UpdateSession stores an auth backend session.
func (s *SupabaseConfig) UpdateSession(accessToken, refreshToken string, expiresAt int64, email string) {
	s.AccessToken = accessToken
	s.RefreshToken = refreshToken
	s.ExpiresAt = expiresAt
	s.UserEmail = email
}

// ClearSession forgets the stored auth backend session.
func (s *SupabaseConfig) ClearSession() {
	s.UpdateSession("", "", 0, "")
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the configuration back to path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv reads dotenv files into the process environment. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides secrets and endpoints from REELX_* environment variables.
func (c *Config) ApplyEnv() {
	overrides := map[string]*string{
		"REELX_SUPABASE_URL":         &c.Credentials.Supabase.URL,
		"REELX_SUPABASE_ANON_KEY":    &c.Credentials.Supabase.AnonKey,
		"REELX_SUPABASE_JWT_SECRET":  &c.Credentials.Supabase.JWTSecret,
		"REELX_GRAPH_URL":            &c.Credentials.Graph.BaseURL,
		"REELX_GRAPH_API_KEY":        &c.Credentials.Graph.APIKey,
		"REELX_JSON2VIDEO_API_KEY":   &c.Credentials.JSON2Video.APIKey,
		"REELX_TIKTOK_CLIENT_KEY":    &c.Credentials.TikTok.ClientKey,
		"REELX_TIKTOK_CLIENT_SECRET": &c.Credentials.TikTok.ClientSecret,
		"REELX_STUDIO_URL":           &c.Studio.BaseURL,
		"REELX_PUBLIC_URL":           &c.Server.PublicURL,
		"REELX_LOG_LEVEL":            &c.Log.Level,
	}
	for key, target := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}
}
