package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive scene planner.
//
// Without a prompt it resumes the selected (or most recent) project; --new or a prompt starts a fresh one.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.contentEngine()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/reelx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	opts, project, err := r.tuiOptions(cmd)
	if err != nil {
		return err
	}
	opts.Save = func(ctx context.Context, snap ui.Snapshot) error {
		return r.saveSnapshot(project, snap)
	}

	model := ui.NewModel(ctx, engine, opts)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if project.ID() != "" {
		// Edits made after the last generation or render are saved on exit.
		if err := r.saveProject(project, model.Scenes()); err != nil {
			return err
		}
		r.writePlain("✓ Project #%d saved\n", project.Sequence())
	}
	return nil
}

// tuiOptions seeds the planner from the command line. The returned project is updated in place by later saves.
func (r *Runner) tuiOptions(cmd *cli.Command) (ui.Options, *models.Project, error) {
	prompt := strings.TrimSpace(cmd.StringArg("prompt"))
	if prompt != "" || cmd.Bool("new") {
		return ui.Options{Prompt: prompt}, models.NewProject(0, prompt), nil
	}

	project, err := r.resolveProject(cmd.String("project"))
	if errors.Is(err, shared.ErrProjectNotFound) && cmd.String("project") == "" {
		return ui.Options{}, models.NewProject(0, ""), nil
	}
	if err != nil {
		return ui.Options{}, nil, err
	}

	scenes, err := r.scenes.List(project.ID())
	if err != nil {
		return ui.Options{}, nil, err
	}

	return ui.Options{
		Prompt:     project.Prompt,
		Script:     project.Script,
		SocialPost: project.SocialPost,
		Scenes:     scenes,
	}, project, nil
}

// saveSnapshot persists the planner state into project, recording the render job when there is one.
func (r *Runner) saveSnapshot(project *models.Project, snap ui.Snapshot) error {
	project.Prompt = snap.Prompt
	project.Script = snap.Script
	project.SocialPost = snap.SocialPost
	if err := r.saveProject(project, snap.Scenes); err != nil {
		return err
	}

	if snap.Job != nil && snap.Job.ProjectID != "" {
		if _, err := r.jobs.Save(project.ID(), *snap.Job); err != nil {
			return fmt.Errorf("failed to record render job: %w", err)
		}
	}
	return nil
}
