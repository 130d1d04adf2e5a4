package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/reelx/internal/formatter"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// loadScenes resolves the --project flag and returns the project with an editable scene store.
func (r *Runner) loadScenes(cmd *cli.Command) (*models.Project, *tasks.SceneStore, error) {
	project, err := r.resolveProject(cmd.String("project"))
	if err != nil {
		return nil, nil, err
	}

	scenes, err := r.scenes.List(project.ID())
	if err != nil {
		return nil, nil, err
	}
	return project, tasks.NewSceneStore(scenes), nil
}

// editScene applies edit to the scene named by --scene and saves the project.
func (r *Runner) editScene(cmd *cli.Command, edit func(store *tasks.SceneStore, id int) error) (*models.Project, models.Scene, error) {
	project, store, err := r.loadScenes(cmd)
	if err != nil {
		return nil, models.Scene{}, err
	}

	id := cmd.Int("scene")
	if err := edit(store, id); err != nil {
		return nil, models.Scene{}, err
	}
	if err := r.saveProject(project, store.Scenes()); err != nil {
		return nil, models.Scene{}, err
	}

	scene, err := store.Get(id)
	return project, scene, err
}

// ScenesList prints the scenes of a project.
func (r *Runner) ScenesList(ctx context.Context, cmd *cli.Command) error {
	project, store, err := r.loadScenes(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(store.Scenes(), true)
	}

	r.writePlain("Project #%d: %s\n\n", project.Sequence(), project.Title())
	r.writeScenes(store.Scenes())
	if missing := store.Missing(); len(missing) > 0 {
		r.writePlainln("⚠ %d scenes still need a video", len(missing))
	} else if store.Len() > 0 {
		r.writePlainln("✓ Ready to render: reelx render")
	}
	return nil
}

// ScenesEdit sets one text field of a scene.
func (r *Runner) ScenesEdit(ctx context.Context, cmd *cli.Command) error {
	field := cmd.String("field")
	value := cmd.String("value")

	_, scene, err := r.editScene(cmd, func(store *tasks.SceneStore, id int) error {
		return store.Update(id, field, value)
	})
	if err != nil {
		return err
	}

	r.logger.Info("scene updated", "scene", scene.ID, "field", field)
	return r.writePlain("✓ Updated %s of scene %d\n", field, scene.ID)
}

// ScenesAttach attaches a local video clip to a scene.
func (r *Runner) ScenesAttach(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: video path", shared.ErrMissingArgument)
	}

	_, scene, err := r.editScene(cmd, func(store *tasks.SceneStore, id int) error {
		return store.AttachVideo(id, path)
	})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Attached %s to scene %d\n", scene.VideoFile, scene.ID)
}

// ScenesRemove clears the video clip of a scene.
func (r *Runner) ScenesRemove(ctx context.Context, cmd *cli.Command) error {
	_, scene, err := r.editScene(cmd, func(store *tasks.SceneStore, id int) error {
		return store.RemoveVideo(id)
	})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Removed video from scene %d\n", scene.ID)
}

// ScenesExport writes the shot list of a project to a file.
func (r *Runner) ScenesExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	project, store, err := r.loadScenes(cmd)
	if err != nil {
		return err
	}

	list := formatter.ShotList{
		Title:      project.Title(),
		SocialPost: project.SocialPost,
		Scenes:     store.Scenes(),
	}

	path, err := formatter.WriteExport(list, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Infof("shot list exported to %v", path)
	r.writePlain("✓ Shot list exported to %s\n", path)
	r.writePlain("  Scenes: %d\n", len(list.Scenes))
	r.writePlain("  Length: %s\n", formatter.FormatSeconds(list.TotalSeconds()))
	return nil
}
