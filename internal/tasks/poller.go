package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// DefaultPollInterval is the delay between status checks.
const DefaultPollInterval = 5 * time.Second

// PollState is the state of a [RenderPoller].
type PollState int

const (
	PollIdle PollState = iota
	PollProcessing
	PollCompleted
	PollFailed
)

func (s PollState) String() string {
	switch s {
	case PollIdle:
		return "idle"
	case PollProcessing:
		return "processing"
	case PollCompleted:
		return "completed"
	case PollFailed:
		return "failed"
	default:
		return ""
	}
}

// StatusClient reports render job status.
type StatusClient interface {
	MovieStatus(ctx context.Context, jobID string) (*models.RenderJob, error)
}

// PollEvent is reported to the observer on every poll outcome.
type PollEvent struct {
	State   PollState
	Attempt int
	Job     models.RenderJob
	Err     error
}

// PollerOptions bounds a polling run.
type PollerOptions struct {
	Interval    time.Duration // Delay between polls (default: 5s)
	MaxAttempts int           // Zero means unlimited
	Deadline    time.Duration // Zero means no deadline
	Observer    func(PollEvent)
}

// RenderPoller checks a render job until it completes, fails, runs out of attempts, or its context ends.
//
// One request is in flight at a time and the next is scheduled only after the previous one resolves.
type RenderPoller struct {
	client StatusClient
	opts   PollerOptions
	logger *log.Logger

	mu    sync.Mutex
	state PollState
}

// NewRenderPoller creates an idle poller. A nil logger discards output.
func NewRenderPoller(client StatusClient, opts PollerOptions, logger *log.Logger) *RenderPoller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &RenderPoller{client: client, opts: opts, logger: logger, state: PollIdle}
}

// State returns the current state.
func (p *RenderPoller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *RenderPoller) transition(ev PollEvent) {
	p.mu.Lock()
	p.state = ev.State
	p.mu.Unlock()

	if p.opts.Observer != nil {
		p.opts.Observer(ev)
	}
}

// NormalizeStatus maps a status string onto a [models.JobStatus]. Unknown statuses report false.
func NormalizeStatus(status models.JobStatus) (models.JobStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(string(status))) {
	case "processing", "queued", "pending", "running":
		return models.StatusProcessing, true
	case "completed":
		return models.StatusCompleted, true
	case "failed", "error":
		return models.StatusFailed, true
	default:
		return "", false
	}
}

// Poll checks jobID until a terminal state. The returned job is never nil; on failure its Message holds the reason.
func (p *RenderPoller) Poll(ctx context.Context, jobID string) (*models.RenderJob, error) {
	parent := ctx
	if p.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Deadline)
		defer cancel()
	}

	job := models.RenderJob{ProjectID: jobID, Status: models.StatusProcessing}
	p.transition(PollEvent{State: PollProcessing, Job: job})

	fail := func(attempt int, err error) (*models.RenderJob, error) {
		job.Status = models.StatusFailed
		job.Attempts = attempt
		job.Message = err.Error()
		p.logger.Warn("render polling stopped", "job", jobID, "attempt", attempt, "error", err)
		p.transition(PollEvent{State: PollFailed, Attempt: attempt, Job: job, Err: err})
		return &job, err
	}

	interrupted := func(attempt int) (*models.RenderJob, error) {
		if parent.Err() != nil {
			return fail(attempt, fmt.Errorf("polling cancelled: %w", parent.Err()))
		}
		return fail(attempt, fmt.Errorf("%w: job %s still processing after %s", shared.ErrPollTimeout, jobID, p.opts.Deadline))
	}

	timer := time.NewTimer(p.opts.Interval)
	timer.Stop()
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		status, err := p.client.MovieStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return interrupted(attempt)
			}
			return fail(attempt, fmt.Errorf("failed to check video status: %w", err))
		}

		job.Attempts = attempt
		job.URL = status.URL
		job.Message = status.Message

		normalized, ok := NormalizeStatus(status.Status)
		if !ok {
			return fail(attempt, fmt.Errorf("%w: unknown render status %q", shared.ErrParse, status.Status))
		}

		switch normalized {
		case models.StatusCompleted:
			job.Status = models.StatusCompleted
			p.logger.Info("render completed", "job", jobID, "attempts", attempt, "url", job.URL)
			p.transition(PollEvent{State: PollCompleted, Attempt: attempt, Job: job})
			return &job, nil
		case models.StatusFailed:
			msg := status.Message
			if msg == "" {
				msg = string(status.Status)
			}
			return fail(attempt, fmt.Errorf("%w: %s", shared.ErrRenderFailed, msg))
		}

		p.transition(PollEvent{State: PollProcessing, Attempt: attempt, Job: job})

		if p.opts.MaxAttempts > 0 && attempt >= p.opts.MaxAttempts {
			return fail(attempt, fmt.Errorf("%w: job %s still processing after %d attempts", shared.ErrPollTimeout, jobID, attempt))
		}

		timer.Reset(p.opts.Interval)
		select {
		case <-ctx.Done():
			return interrupted(attempt)
		case <-timer.C:
		}
	}
}

// IsPollTimeout reports whether err came from exhausting attempts or the deadline.
func IsPollTimeout(err error) bool {
	return errors.Is(err, shared.ErrPollTimeout)
}
