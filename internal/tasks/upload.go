package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Uploader stores one local clip remotely.
type Uploader interface {
	UploadVideo(ctx context.Context, path string) (*services.UploadResult, error)
}

// MissingVideosError is returned before any upload starts when scenes have no clip attached.
type MissingVideosError struct {
	SceneIDs []int
}

func (e *MissingVideosError) Error() string {
	ids := make([]string, len(e.SceneIDs))
	for i, id := range e.SceneIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("missing videos for scenes: %s", strings.Join(ids, ", "))
}

func (e *MissingVideosError) Unwrap() error { return shared.ErrValidation }

// UploadError describes the failed upload of one scene.
//
// StatusCode is zero when the request never got a response.
type UploadError struct {
	SceneID    int
	StatusCode int
	Message    string
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scene %d upload failed (status %d): %s", e.SceneID, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("scene %d upload failed: %s", e.SceneID, e.Message)
}

func (e *UploadError) Unwrap() error { return e.Err }

func newUploadError(sceneID int, err error) *UploadError {
	ue := &UploadError{SceneID: sceneID, Message: err.Error(), Err: err}

	var se *services.StatusError
	if errors.As(err, &se) {
		ue.StatusCode = se.StatusCode
		ue.Message = serverMessage(se.Body)
	}
	return ue
}

// serverMessage pulls a human readable message out of an error body, falling back to the raw text.
func serverMessage(body string) string {
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		for _, key := range []string{"error", "message", "detail"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
	}
	if body = strings.TrimSpace(body); body != "" {
		return body
	}
	return "no response body"
}

// UploadOptions bounds concurrent uploads.
type UploadOptions struct {
	MaxConcurrency int           // Uploads in flight at once (default: 4)
	RateLimit      float64       // Upload starts per second; zero disables limiting
	Timeout        time.Duration // Limit for a single upload; zero means none

	// OnUploaded is called once per finished upload. Calls are serialized.
	OnUploaded func(up models.UploadedScene, done, total int)
}

// UploadCoordinator uploads every scene clip concurrently and pairs each result with its scene id.
type UploadCoordinator struct {
	uploader Uploader
	opts     UploadOptions
	logger   *log.Logger
}

// NewUploadCoordinator creates a coordinator around uploader. A nil logger discards output.
func NewUploadCoordinator(uploader Uploader, opts UploadOptions, logger *log.Logger) *UploadCoordinator {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &UploadCoordinator{uploader: uploader, opts: opts, logger: logger}
}

// UploadAll uploads the clip of every scene and returns the results in scene order.
//
// A [*MissingVideosError] is returned before any request when a scene has no clip. The first failed
// upload cancels the ones still in flight; every failure that was not caused by that cancellation is
// returned as an [*UploadError] joined with [errors.Join]. No partial results are returned.
func (c *UploadCoordinator) UploadAll(ctx context.Context, scenes []models.Scene) ([]models.UploadedScene, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: no scenes to upload", shared.ErrValidation)
	}
	if missing := missingVideos(scenes); len(missing) > 0 {
		return nil, &MissingVideosError{SceneIDs: missing}
	}

	limit := rate.Inf
	if c.opts.RateLimit > 0 {
		limit = rate.Limit(c.opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.MaxConcurrency)

	results := make([]models.UploadedScene, len(scenes))

	var (
		mu       sync.Mutex
		failures []*UploadError
		done     int
	)

	for i, sc := range scenes {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}

			c.logger.Debug("uploading scene", "scene", sc.ID, "file", sc.VideoFile)
			res, err := c.upload(gctx, sc.VideoFile)
			if err != nil {
				if interrupted(gctx, err) {
					return err
				}
				ue := newUploadError(sc.ID, err)
				c.logger.Error("scene upload failed", "scene", sc.ID, "status", ue.StatusCode, "error", ue.Message)

				mu.Lock()
				failures = append(failures, ue)
				mu.Unlock()
				return ue
			}

			up := models.UploadedScene{SceneID: sc.ID, VideoURL: res.VideoURL, ProjectID: res.ProjectID}
			results[i] = up

			mu.Lock()
			done++
			if c.opts.OnUploaded != nil {
				c.opts.OnUploaded(up, done, len(scenes))
			}
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].SceneID < failures[j].SceneID })
		errs := make([]error, len(failures))
		for i, f := range failures {
			errs[i] = f
		}
		return nil, errors.Join(errs...)
	}
	if err != nil {
		return nil, fmt.Errorf("uploads interrupted: %w", err)
	}

	return results, nil
}

func (c *UploadCoordinator) upload(ctx context.Context, path string) (*services.UploadResult, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	return c.uploader.UploadVideo(ctx, path)
}

// interrupted reports whether err comes from the group context ending rather than from the upload
// itself. The group is cancelled with the first failure as its cause, and HTTP clients return that
// cause instead of [context.Canceled].
func interrupted(gctx context.Context, err error) bool {
	if gctx.Err() == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	cause := context.Cause(gctx)
	return cause != nil && errors.Is(err, cause)
}

// UploadMap keys uploads by scene id.
func UploadMap(uploads []models.UploadedScene) map[int]models.UploadedScene {
	m := make(map[int]models.UploadedScene, len(uploads))
	for _, up := range uploads {
		m[up.SceneID] = up
	}
	return m
}
