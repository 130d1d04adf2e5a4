package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/reelx/internal/formatter"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// GenerateOutput is the JSON form of a generated project.
type GenerateOutput struct {
	ProjectID  string         `json:"projectId"`
	Sequence   int            `json:"sequence"`
	SocialPost string         `json:"socialPost"`
	Script     string         `json:"script"`
	Hashtags   []string       `json:"hashtags,omitempty"`
	Scenes     []models.Scene `json:"scenes"`
}

// resolveProject finds a project by id or sequence number. An empty ref selects the most recently updated project.
func (r *Runner) resolveProject(ref string) (*models.Project, error) {
	if err := r.openStore(); err != nil {
		return nil, err
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		project, err := r.projects.Latest()
		if errors.Is(err, shared.ErrProjectNotFound) {
			return nil, fmt.Errorf("%w: run 'reelx generate' first", err)
		}
		return project, err
	}
	if seq, err := strconv.Atoi(ref); err == nil {
		return r.projects.GetBySequence(seq)
	}
	return r.projects.Get(ref)
}

// saveProject creates or updates project and replaces its scenes.
func (r *Runner) saveProject(project *models.Project, scenes []models.Scene) error {
	if err := r.openStore(); err != nil {
		return err
	}

	if project.ID() == "" {
		if err := r.projects.Create(project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
	} else if err := r.projects.Update(project); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	if err := r.scenes.SaveAll(project.ID(), scenes); err != nil {
		return fmt.Errorf("failed to save scenes: %w", err)
	}
	return nil
}

// Generate runs the script graph for a prompt and stores the result as a new project.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(cmd.StringArg("prompt"))
	if prompt == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	engine, err := r.contentEngine()
	if err != nil {
		return err
	}

	r.logger.Info("generating content", "prompt", prompt)

	progress := make(chan tasks.ProgressUpdate, 10)
	done := r.watchProgress(progress)
	result, err := engine.Generate(ctx, progress, prompt)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	project := models.NewProject(0, prompt)
	project.Script = result.Script
	project.SocialPost = result.SocialPost
	if err := r.saveProject(project, result.Scenes); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(GenerateOutput{
			ProjectID:  project.ID(),
			Sequence:   project.Sequence(),
			SocialPost: result.SocialPost,
			Script:     result.Script,
			Hashtags:   formatter.Hashtags(result.SocialPost),
			Scenes:     result.Scenes,
		}, true)
	}

	r.writePlain("\n")
	r.writeContent(project)
	r.writeScenes(result.Scenes)
	r.writePlainln("✓ Saved as project #%d (%s)", project.Sequence(), project.ID())
	r.writePlain("Attach clips with: reelx scenes attach --scene 1 ./clip.mp4\n")
	return nil
}

// Analyze runs the location graph and prints its named outputs.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	location := strings.TrimSpace(cmd.StringArg("location"))
	if location == "" {
		return fmt.Errorf("%w: location", shared.ErrMissingArgument)
	}

	engine, err := r.contentEngine()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 10)
	done := r.watchProgress(progress)
	result, err := engine.Analyze(ctx, progress, location)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.Outputs, true)
	}

	ids := result.NodeIDs
	if len(ids) == 0 {
		for id := range result.Outputs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	r.writePlainHeader("Location Analysis")
	for _, id := range ids {
		r.writePlain("\n[%s]\n%s\n", id, strings.TrimSpace(result.Outputs[id]))
	}
	return nil
}

// ProjectsList prints stored projects.
func (r *Runner) ProjectsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	projects, err := r.projects.List(map[string]any{
		"query": cmd.String("query"),
		"limit": cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		return r.writePlain("No projects yet. Run 'reelx generate \"your prompt\"'\n")
	}

	r.writePlain("Found %d projects:\n\n", len(projects))
	for _, p := range projects {
		r.writePlain("#%d %s\n", p.Sequence(), p.Title())
		r.writePlain("   ID: %s\n", p.ID())
		r.writePlain("   Updated: %s\n\n", p.UpdatedAt().Format("2006-01-02 15:04"))
	}
	return nil
}

// ProjectsShow prints a project's generated content, scenes and render history.
func (r *Runner) ProjectsShow(ctx context.Context, cmd *cli.Command) error {
	project, err := r.resolveProject(cmd.String("project"))
	if err != nil {
		return err
	}

	scenes, err := r.scenes.List(project.ID())
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Project #%d: %s", project.Sequence(), project.Title()))
	r.writePlain("\n")
	r.writeContent(project)
	r.writeScenes(scenes)

	records, err := r.jobs.ListByProject(project.ID())
	if err != nil {
		return err
	}
	if len(records) > 0 {
		r.writePlainln("Renders:")
		for _, rec := range records {
			r.writePlain("  %s  %-10s %s\n", rec.ProjectID, rec.Status, rec.URL)
		}
	}
	return nil
}

// ProjectsDelete soft-deletes a project.
func (r *Runner) ProjectsDelete(ctx context.Context, cmd *cli.Command) error {
	project, err := r.resolveProject(cmd.String("project"))
	if err != nil {
		return err
	}

	if err := r.projects.Delete(project.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted project #%d\n", project.Sequence())
}

// writeContent prints the social post and script, rendering hashtag blocks inline.
func (r *Runner) writeContent(project *models.Project) {
	for _, section := range formatter.GeneratedSections(project.SocialPost, project.Script) {
		r.writePlain("── %s ──\n", section.Title)
		for _, block := range formatter.Sections(section.Content) {
			if len(block.Hashtags) > 0 {
				r.writePlain("%s\n\n", strings.Join(block.Hashtags, " "))
			} else {
				r.writePlain("%s\n\n", block.Text)
			}
		}
	}
}

func (r *Runner) writeScenes(scenes []models.Scene) {
	store := tasks.NewSceneStore(scenes)
	r.writePlain("Scenes (%d, ~%s):\n", store.Len(), formatter.FormatSeconds(store.EstimatedDuration()))
	for _, sc := range scenes {
		r.writePlain("  %d. %s\n", sc.ID, sc.Description)
		if sc.Duration != "" {
			r.writePlain("     Duration: %ss\n", sc.Duration)
		}
		if sc.Notes != "" {
			r.writePlain("     Notes: %s\n", sc.Notes)
		}
		if sc.HasVideo() {
			r.writePlain("     Video: %s\n", sc.VideoFile)
		} else {
			r.writePlain("     Video: (none)\n")
		}
	}
}
