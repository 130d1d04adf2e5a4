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
)

// JSON2VideoService implements [Renderer] against the json2video movies API.
type JSON2VideoService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewJSON2VideoService creates a new json2video client.
func NewJSON2VideoService(cfg shared.JSON2VideoConfig, client *http.Client) (*JSON2VideoService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: json2video api_key", shared.ErrMissingCredentials)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.json2video.com/v2"
	}

	return &JSON2VideoService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: newHTTPClient(client, 60*time.Second),
	}, nil
}

func (j *JSON2VideoService) Name() string { return "json2video" }

// CreateMovie submits tmpl and returns the json2video project id.
func (j *JSON2VideoService) CreateMovie(ctx context.Context, tmpl models.VideoTemplate) (string, error) {
	req, err := newJSONRequest(ctx, http.MethodPost, j.baseURL+"/movies", tmpl)
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", j.apiKey)

	body, err := send(j.httpClient, j.Name(), req)
	if err != nil {
		return "", err
	}

	var resp struct {
		Success bool   `json:"success"`
		Project string `json:"project"`
		Message string `json:"message"`
	}
	if err := decode(j.Name(), body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: json2video rejected movie: %s", shared.ErrRenderFailed, resp.Message)
	}
	if resp.Project == "" {
		return "", fmt.Errorf("%w: json2video response has no project", shared.ErrParse)
	}
	return resp.Project, nil
}

// MovieStatus reports the status of a json2video project, normalized to processing, completed or failed.
func (j *JSON2VideoService) MovieStatus(ctx context.Context, jobID string) (*models.RenderJob, error) {
	req, err := newJSONRequest(ctx, http.MethodGet, j.baseURL+"/movies?project="+url.QueryEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", j.apiKey)

	body, err := send(j.httpClient, j.Name(), req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Movie   struct {
			Status  string `json:"status"`
			URL     string `json:"url"`
			Message string `json:"message"`
		} `json:"movie"`
	}
	if err := decode(j.Name(), body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s: %s", shared.ErrProjectNotFound, jobID, resp.Message)
	}

	return &models.RenderJob{
		ProjectID: jobID,
		Status:    NormalizeMovieStatus(resp.Movie.Status),
		URL:       resp.Movie.URL,
		Message:   resp.Movie.Message,
	}, nil
}

// NormalizeMovieStatus maps json2video statuses onto [models.JobStatus].
func NormalizeMovieStatus(status string) models.JobStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "done", "completed", "success":
		return models.StatusCompleted
	case "error", "failed":
		return models.StatusFailed
	default:
		return models.StatusProcessing
	}
}
