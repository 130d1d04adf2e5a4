// package services defines HTTP clients for the collaborators reelx talks to
//
// Graph execution, Supabase auth, TikTok, the studio proxy and json2video
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// Renderer submits render templates and reports job status.
//
// [StudioService] talks to a reelx proxy; [JSON2VideoService] talks to json2video directly.
type Renderer interface {
	// CreateMovie submits tmpl and returns the render job identifier.
	CreateMovie(ctx context.Context, tmpl models.VideoTemplate) (string, error)

	// MovieStatus reports the current status of a render job.
	MovieStatus(ctx context.Context, jobID string) (*models.RenderJob, error)

	// Name returns the name of the rendering backend
	Name() string
}

// StatusError is returned when a collaborator answers with a non-2xx status.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Service, e.StatusCode, body)
}

func (e *StatusError) Unwrap() error { return shared.ErrAPIRequest }

// IsRetryable reports whether the status is a transient server-side failure.
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// newHTTPClient returns client, or a client with timeout when client is nil.
func newHTTPClient(client *http.Client, timeout time.Duration) *http.Client {
	if client != nil {
		return client
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// newJSONRequest builds a request with body encoded as JSON. A nil body sends no payload.
func newJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send performs req and returns the body of a 2xx response. Any other status becomes a [*StatusError].
func send(client *http.Client, service string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %w", shared.ErrAPIRequest, service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Service: service, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// decode unmarshals body into result, wrapping failures with [shared.ErrParse].
func decode(service string, body []byte, result any) error {
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %s response: %w", shared.ErrParse, service, err)
	}
	return nil
}
