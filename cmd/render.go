package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/reelx/internal/formatter"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Render uploads the project's clips, renders the final video and records the job.
func (r *Runner) Render(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.studioClient(); err != nil {
		return err
	}

	project, store, err := r.loadScenes(cmd)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		return fmt.Errorf("%w: project #%d has no scenes", shared.ErrValidation, project.Sequence())
	}

	engine, err := r.contentEngine()
	if err != nil {
		return err
	}

	r.logger.Info("rendering project", "project", project.ID(), "scenes", store.Len())
	r.writePlain("Rendering project #%d: %s\n", project.Sequence(), project.Title())

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.watchProgress(progress)
	result, err := engine.Assemble(ctx, progress, tasks.AssembleRequest{Script: project.Script, Scenes: store.Scenes()})
	close(progress)
	<-done

	if result != nil && result.JobID != "" {
		job := models.RenderJob{ProjectID: result.JobID, Status: models.StatusFailed}
		if result.Job != nil {
			job = *result.Job
			job.ProjectID = result.JobID
		} else if err != nil {
			job.Message = err.Error()
		}
		if _, saveErr := r.jobs.Save(project.ID(), job); saveErr != nil {
			r.logger.Warn("failed to record render job", "job", result.JobID, "error", saveErr)
		}
	}

	if err != nil {
		var missing *tasks.MissingVideosError
		if errors.As(err, &missing) {
			r.writePlain("\n⚠ Attach clips first: reelx scenes attach --scene %d ./clip.mp4\n", missing.SceneIDs[0])
		}
		if result != nil && result.JobID != "" {
			r.writePlain("Check later with: reelx status %s\n", result.JobID)
		}
		r.writeRetryHint(err)
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Video Ready!")
	r.writePlain("URL: %s\n", result.Job.URL)
	r.writePlain("Job: %s\n", result.JobID)
	r.writePlain("Uploaded scenes: %d\n", len(result.Uploads))

	if path := cmd.String("download"); path != "" {
		return r.download(ctx, result.Job.URL, path)
	}
	return nil
}

// Status reports a render job, optionally waiting for it to finish and downloading the result.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	studio, err := r.studioClient()
	if err != nil {
		return err
	}
	if err := r.openStore(); err != nil {
		return err
	}

	jobID := cmd.StringArg("job")
	var projectID string
	if jobID == "" {
		project, err := r.resolveProject(cmd.String("project"))
		if err != nil {
			return err
		}
		records, err := r.jobs.ListByProject(project.ID())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("%w: project #%d has not been rendered", shared.ErrJobNotFound, project.Sequence())
		}
		jobID, projectID = records[0].ProjectID, project.ID()
	} else if rec, err := r.jobs.Get(jobID); err == nil {
		projectID = rec.DraftID
	}

	var job *models.RenderJob
	if cmd.Bool("watch") {
		poller := tasks.NewRenderPoller(studio, tasks.PollerOptions{
			Interval:    r.config.Render.PollInterval(),
			MaxAttempts: r.config.Render.MaxPollAttempts,
			Deadline:    r.config.Render.Deadline(),
			Observer: func(ev tasks.PollEvent) {
				r.writePlain("   %s (check %d)\n", ev.State, ev.Attempt)
			},
		}, r.logger)
		job, err = poller.Poll(ctx, jobID)
	} else {
		job, err = studio.MovieStatus(ctx, jobID)
	}

	if job != nil && projectID != "" {
		record := *job
		record.ProjectID = jobID
		if _, saveErr := r.jobs.Save(projectID, record); saveErr != nil {
			r.logger.Warn("failed to record render job", "job", jobID, "error", saveErr)
		}
	}
	if err != nil {
		r.writeRetryHint(err)
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(job, true)
	}

	r.writePlain("Job: %s\n", jobID)
	r.writePlain("Status: %s\n", job.Status)
	if job.URL != "" {
		r.writePlain("URL: %s\n", job.URL)
	}
	if job.Message != "" {
		r.writePlain("Message: %s\n", job.Message)
	}
	if !job.Status.Terminal() {
		r.writePlain("Still rendering. Follow it with: reelx status --watch %s\n", jobID)
	}

	if path := cmd.String("download"); path != "" {
		if job.Status != models.StatusCompleted {
			return fmt.Errorf("%w: job %s is %s", shared.ErrInvalidArgument, jobID, job.Status)
		}
		return r.download(ctx, job.URL, path)
	}
	return nil
}

// writeRetryHint tells the user when a failure came from a transient server error.
func (r *Runner) writeRetryHint(err error) {
	var se *services.StatusError
	if errors.As(err, &se) && se.IsRetryable() {
		r.writePlain("%s is temporarily unavailable (status %d). Try again shortly.\n", se.Service, se.StatusCode)
	}
}

func (r *Runner) download(ctx context.Context, url, path string) error {
	r.writePlain("→ Downloading video to %s...\n", path)
	n, err := formatter.DownloadRender(ctx, r.httpClient, url, path)
	if err != nil {
		return err
	}
	r.logger.Info("video downloaded", "path", path, "bytes", n)
	return r.writePlain("✓ Saved %s (%.1f MB)\n", path, float64(n)/(1<<20))
}
