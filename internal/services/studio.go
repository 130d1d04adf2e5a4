package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// StudioService calls the reelx proxy server: greeting, clip upload, movie creation and movie status.
//
// The bearer token is fixed at construction and sent on every request.
type StudioService struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	uploadClient *http.Client
}

// NewStudioService creates a new client for the proxy at baseURL.
func NewStudioService(baseURL, token string, client *http.Client) *StudioService {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000"
	}

	httpClient := newHTTPClient(client, 120*time.Second)
	uploadClient := *httpClient
	uploadClient.Timeout = 0

	return &StudioService{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		httpClient:   httpClient,
		uploadClient: &uploadClient,
	}
}

func (s *StudioService) Name() string { return "studio" }

func (s *StudioService) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}

// HelloResponse is the dashboard greeting.
type HelloResponse struct {
	Message       string `json:"message"`
	Authenticated bool   `json:"authenticated"`
}

// Hello fetches the greeting for the signed-in user.
func (s *StudioService) Hello(ctx context.Context) (*HelloResponse, error) {
	req, err := newJSONRequest(ctx, http.MethodGet, s.baseURL+"/api/hello/", nil)
	if err != nil {
		return nil, err
	}
	s.authorize(req)

	body, err := send(s.httpClient, s.Name(), req)
	if err != nil {
		return nil, err
	}

	var hello HelloResponse
	if err := decode(s.Name(), body, &hello); err != nil {
		return nil, err
	}
	return &hello, nil
}

// UploadResult is the hosted location of an uploaded clip.
type UploadResult struct {
	VideoURL  string `json:"video_url"`
	ProjectID string `json:"project_id"`
}

// UploadVideo streams the file at path as the multipart field "file".
//
// The client timeout does not apply to uploads; ctx bounds them.
func (s *StudioService) UploadVideo(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreatePart(fileHeader(filepath.Base(path)))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/proxy/video-upload/", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	s.authorize(req)

	body, err := send(s.uploadClient, s.Name(), req)
	pr.Close()
	if err != nil {
		return nil, err
	}

	var result UploadResult
	if err := decode(s.Name(), body, &result); err != nil {
		return nil, err
	}
	if result.VideoURL == "" {
		return nil, fmt.Errorf("%w: upload response has no video_url", shared.ErrParse)
	}
	return &result, nil
}

func fileHeader(name string) textproto.MIMEHeader {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	return h
}

// CreateMovie submits tmpl to the proxy and returns the render job id.
func (s *StudioService) CreateMovie(ctx context.Context, tmpl models.VideoTemplate) (string, error) {
	req, err := newJSONRequest(ctx, http.MethodPost, s.baseURL+"/api/proxy/create-movie/", tmpl)
	if err != nil {
		return "", err
	}
	s.authorize(req)

	body, err := send(s.httpClient, s.Name(), req)
	if err != nil {
		return "", err
	}

	var resp struct {
		Project string `json:"project"`
	}
	if err := decode(s.Name(), body, &resp); err != nil {
		return "", err
	}
	if resp.Project == "" {
		return "", fmt.Errorf("%w: create-movie response has no project", shared.ErrParse)
	}
	return resp.Project, nil
}

// MovieStatus reports the status of jobID as seen by the proxy. The status string is passed through unchanged.
func (s *StudioService) MovieStatus(ctx context.Context, jobID string) (*models.RenderJob, error) {
	endpoint := fmt.Sprintf("%s/api/proxy/movie-status/%s/", s.baseURL, url.PathEscape(jobID))
	req, err := newJSONRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	s.authorize(req)

	body, err := send(s.httpClient, s.Name(), req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status  string `json:"status"`
		URL     string `json:"url"`
		Message string `json:"message"`
	}
	if err := decode(s.Name(), body, &resp); err != nil {
		return nil, err
	}

	return &models.RenderJob{
		ProjectID: jobID,
		Status:    models.JobStatus(resp.Status),
		URL:       resp.URL,
		Message:   resp.Message,
	}, nil
}
