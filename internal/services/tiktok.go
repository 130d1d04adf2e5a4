package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	tiktokAuthURL  = "https://www.tiktok.com/v2/auth/authorize/"
	tiktokTokenURL = "https://open.tiktokapis.com/v2/oauth/token/"
	tiktokAPIURL   = "https://open.tiktokapis.com/v2"

	tiktokUserFields = "open_id,union_id,avatar_url,display_name,username"
)

// TikTokService performs the TikTok Login Kit OAuth flow and reads the user profile.
//
// TikTok names the client id "client_key", so it is sent alongside the standard oauth2 parameters.
type TikTokService struct {
	config     *oauth2.Config
	clientKey  string
	apiURL     string
	httpClient *http.Client
}

// TikTokOption configures a [TikTokService].
type TikTokOption func(*TikTokService)

// WithTikTokHTTPClient overrides the HTTP client used for token and API calls.
func WithTikTokHTTPClient(client *http.Client) TikTokOption {
	return func(t *TikTokService) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithTikTokEndpoints points the service at alternate authorize, token and API URLs.
func WithTikTokEndpoints(authURL, tokenURL, apiURL string) TikTokOption {
	return func(t *TikTokService) {
		t.config.Endpoint.AuthURL = authURL
		t.config.Endpoint.TokenURL = tokenURL
		t.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// NewTikTokService creates a new TikTok service from the configured app credentials.
func NewTikTokService(cfg shared.TikTokConfig, opts ...TikTokOption) (*TikTokService, error) {
	if cfg.ClientKey == "" {
		return nil, fmt.Errorf("%w: tiktok client_key", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: tiktok client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"user.info.basic"}
	}

	t := &TikTokService{
		config: &oauth2.Config{
			ClientID:     cfg.ClientKey,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   tiktokAuthURL,
				TokenURL:  tiktokTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		clientKey:  cfg.ClientKey,
		apiURL:     tiktokAPIURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

func (t *TikTokService) Name() string { return "TikTok" }

// RedirectURL returns the callback URL registered with TikTok.
func (t *TikTokService) RedirectURL() string { return t.config.RedirectURL }

// AuthURL returns the consent page URL for state.
//
// TikTok expects a comma separated scope list.
func (t *TikTokService) AuthURL(state string) string {
	u, err := url.Parse(t.config.AuthCodeURL(state, oauth2.SetAuthURLParam("client_key", t.clientKey)))
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("scope", strings.Join(t.config.Scopes, ","))
	u.RawQuery = q.Encode()
	return u.String()
}

// Exchange trades an authorization code for an access token. The token's "open_id" extra identifies the user.
func (t *TikTokService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.httpClient)
	token, err := t.config.Exchange(ctx, code, oauth2.SetAuthURLParam("client_key", t.clientKey))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}
	return token, nil
}

type tiktokUserResponse struct {
	Data struct {
		User models.TikTokUser `json:"user"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		LogID   string `json:"log_id"`
	} `json:"error"`
}

// UserInfo retrieves the basic profile of the user behind accessToken.
func (t *TikTokService) UserInfo(ctx context.Context, accessToken string) (*models.TikTokUser, error) {
	if accessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	req, err := newJSONRequest(ctx, http.MethodGet, t.apiURL+"/user/info/?fields="+tiktokUserFields, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := send(t.httpClient, "tiktok", req)
	if err != nil {
		return nil, err
	}

	var resp tiktokUserResponse
	if err := decode("tiktok", body, &resp); err != nil {
		return nil, err
	}

	if resp.Error.Code != "" && resp.Error.Code != "ok" {
		if resp.Error.Code == "access_token_invalid" {
			return nil, fmt.Errorf("%w: %s", shared.ErrTokenExpired, resp.Error.Message)
		}
		return nil, fmt.Errorf("%w: tiktok %s: %s", shared.ErrAPIRequest, resp.Error.Code, resp.Error.Message)
	}

	return &resp.Data.User, nil
}
