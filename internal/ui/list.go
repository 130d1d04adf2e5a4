package ui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/reelx/internal/models"
)

var _ list.Item = sceneItem{}

// sceneItem wraps [models.Scene] to implement [list.Item].
type sceneItem struct {
	scene models.Scene
}

func (i sceneItem) FilterValue() string { return i.scene.Description }
func (i sceneItem) Title() string {
	return fmt.Sprintf("%d. %s", i.scene.ID, i.scene.Description)
}
func (i sceneItem) Description() string {
	desc := "no video"
	if i.scene.HasVideo() {
		desc = "▶ " + filepath.Base(i.scene.VideoFile)
	}
	if i.scene.Duration != "" {
		desc = fmt.Sprintf("%ss • %s", i.scene.Duration, desc)
	}
	if i.scene.Notes != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.scene.Notes)
	}
	return desc
}

func sceneItems(scenes []models.Scene) []list.Item {
	items := make([]list.Item, len(scenes))
	for i, sc := range scenes {
		items[i] = sceneItem{scene: sc}
	}
	return items
}
