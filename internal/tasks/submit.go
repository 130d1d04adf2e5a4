package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
)

// SubmitError is returned when the rendering backend rejects a template.
type SubmitError struct {
	StatusCode int
	Body       string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("failed to create movie (status %d): %s", e.StatusCode, serverMessage(e.Body))
}

func (e *SubmitError) Unwrap() error { return shared.ErrAPIRequest }

// RenderSubmitter hands finished templates to a [services.Renderer].
type RenderSubmitter struct {
	renderer services.Renderer
	logger   *log.Logger
}

// NewRenderSubmitter creates a submitter. A nil logger discards output.
func NewRenderSubmitter(renderer services.Renderer, logger *log.Logger) *RenderSubmitter {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &RenderSubmitter{renderer: renderer, logger: logger}
}

// Submit sends tmpl for rendering and returns the job id.
func (s *RenderSubmitter) Submit(ctx context.Context, tmpl models.VideoTemplate) (string, error) {
	if len(tmpl.Scenes) == 0 {
		return "", fmt.Errorf("%w: no valid scenes to process", shared.ErrValidation)
	}

	jobID, err := s.renderer.CreateMovie(ctx, tmpl)
	if err != nil {
		var se *services.StatusError
		if errors.As(err, &se) {
			return "", &SubmitError{StatusCode: se.StatusCode, Body: se.Body}
		}
		return "", fmt.Errorf("failed to create movie: %w", err)
	}

	s.logger.Info("render submitted", "job", jobID, "renderer", s.renderer.Name(), "scenes", len(tmpl.Scenes))
	return jobID, nil
}
