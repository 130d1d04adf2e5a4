package tasks

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	tu "github.com/desertthunder/reelx/internal/testing"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []PollState
}

func (r *stateRecorder) observe(ev PollEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, ev.State)
}

func (r *stateRecorder) Snapshot() []PollState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PollState(nil), r.states...)
}

func TestRenderPoller(t *testing.T) {
	t.Run("Processing Then Completed", func(t *testing.T) {
		renderer := &tu.MockRenderer{Statuses: []models.RenderJob{
			{Status: "processing"},
			{Status: "processing"},
			{Status: "completed", URL: "https://x/final.mp4"},
		}}
		rec := &stateRecorder{}
		poller := NewRenderPoller(renderer, PollerOptions{Interval: time.Millisecond, Observer: rec.observe}, nil)

		if poller.State() != PollIdle {
			t.Fatalf("expected idle before polling, got %s", poller.State())
		}

		job, err := poller.Poll(context.Background(), "job-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.URL != "https://x/final.mp4" {
			t.Errorf("expected final url, got %q", job.URL)
		}
		if job.Status != models.StatusCompleted || job.Attempts != 3 {
			t.Errorf("unexpected job %+v", job)
		}

		want := []PollState{PollProcessing, PollProcessing, PollProcessing, PollCompleted}
		got := rec.Snapshot()
		if len(got) != len(want) {
			t.Fatalf("expected transitions %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("transition %d: expected %s, got %s", i, want[i], got[i])
			}
		}
		if poller.State() != PollCompleted {
			t.Errorf("expected completed state, got %s", poller.State())
		}
	})

	t.Run("Non 2xx Stops Polling", func(t *testing.T) {
		renderer := &tu.MockRenderer{
			Errs:     []error{&services.StatusError{Service: "studio", StatusCode: http.StatusBadGateway}},
			Statuses: []models.RenderJob{{Status: "processing"}},
		}
		poller := NewRenderPoller(renderer, PollerOptions{Interval: time.Millisecond}, nil)

		job, err := poller.Poll(context.Background(), "job-2")
		if err == nil {
			t.Fatal("expected error")
		}
		if poller.State() != PollFailed || job.Status != models.StatusFailed {
			t.Errorf("expected failed, got state %s job %+v", poller.State(), job)
		}
		if job.Message == "" {
			t.Error("expected failure message on job")
		}

		time.Sleep(20 * time.Millisecond)
		if renderer.PollCount() != 1 {
			t.Errorf("expected exactly 1 poll, got %d", renderer.PollCount())
		}
	})

	t.Run("Aliases Count As Processing", func(t *testing.T) {
		renderer := &tu.MockRenderer{Statuses: []models.RenderJob{
			{Status: "queued"}, {Status: "pending"}, {Status: "completed"},
		}}
		job, err := NewRenderPoller(renderer, PollerOptions{Interval: time.Millisecond}, nil).Poll(context.Background(), "job")
		if err != nil || job.Status != models.StatusCompleted {
			t.Errorf("expected completion, got %+v, %v", job, err)
		}
	})

	t.Run("Server Reports Failure", func(t *testing.T) {
		renderer := &tu.MockRenderer{Statuses: []models.RenderJob{{Status: "failed", Message: "bad asset"}}}
		_, err := NewRenderPoller(renderer, PollerOptions{Interval: time.Millisecond}, nil).Poll(context.Background(), "job")
		if !errors.Is(err, shared.ErrRenderFailed) {
			t.Errorf("expected ErrRenderFailed, got %v", err)
		}
	})

	t.Run("Unknown Status Fails", func(t *testing.T) {
		renderer := &tu.MockRenderer{Statuses: []models.RenderJob{{Status: "exploded"}}}
		_, err := NewRenderPoller(renderer, PollerOptions{Interval: time.Millisecond}, nil).Poll(context.Background(), "job")
		if !errors.Is(err, shared.ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})

	t.Run("Max Attempts", func(t *testing.T) {
		renderer := &tu.MockRenderer{Statuses: []models.RenderJob{{Status: "processing"}}}
		poller := NewRenderPoller(renderer, PollerOptions{Interval: time.Millisecond, MaxAttempts: 3}, nil)

		_, err := poller.Poll(context.Background(), "job")
		if !IsPollTimeout(err) {
			t.Errorf("expected poll timeout, got %v", err)
		}
		if renderer.PollCount() != 3 {
			t.Errorf("expected 3 polls, got %d", renderer.PollCount())
		}
	})

	t.Run("Deadline", func(t *testing.T) {
		renderer := &tu.MockRenderer{Statuses: []models.RenderJob{{Status: "processing"}}}
		poller := NewRenderPoller(renderer, PollerOptions{Interval: 10 * time.Millisecond, Deadline: 35 * time.Millisecond}, nil)

		_, err := poller.Poll(context.Background(), "job")
		if !IsPollTimeout(err) {
			t.Errorf("expected poll timeout, got %v", err)
		}
		if poller.State() != PollFailed {
			t.Errorf("expected failed state, got %s", poller.State())
		}
	})

	t.Run("Cancellation Stops Scheduling", func(t *testing.T) {
		renderer := &tu.MockRenderer{Statuses: []models.RenderJob{{Status: "processing"}}}
		poller := NewRenderPoller(renderer, PollerOptions{Interval: time.Hour}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := poller.Poll(ctx, "job")
			done <- err
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("poller did not stop after cancellation")
		}

		if renderer.PollCount() != 1 {
			t.Errorf("expected 1 poll before cancellation, got %d", renderer.PollCount())
		}
	})

	t.Run("Default Interval", func(t *testing.T) {
		poller := NewRenderPoller(&tu.MockRenderer{}, PollerOptions{}, nil)
		if poller.opts.Interval != 5*time.Second {
			t.Errorf("expected 5s default interval, got %s", poller.opts.Interval)
		}
	})
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   models.JobStatus
		want models.JobStatus
		ok   bool
	}{
		{"processing", models.StatusProcessing, true},
		{" Queued ", models.StatusProcessing, true},
		{"completed", models.StatusCompleted, true},
		{"error", models.StatusFailed, true},
		{"", "", false},
		{"weird", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
