package tasks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

const (
	DefaultResolution = "full-hd"
	DefaultQuality    = "high"
	DefaultDuration   = 5.0
)

// RenderDefaults fills in template fields the generated template leaves empty.
type RenderDefaults struct {
	Resolution string
	Quality    string
	Duration   float64
}

func (d RenderDefaults) withFallbacks() RenderDefaults {
	if d.Resolution == "" {
		d.Resolution = DefaultResolution
	}
	if d.Quality == "" {
		d.Quality = DefaultQuality
	}
	if d.Duration <= 0 {
		d.Duration = DefaultDuration
	}
	return d
}

// IsStubLine reports whether a script line describes a scene: bracketed stage directions,
// lines opening with "POV:", and lines carrying a "Caption:" or "Voiceover:" cue.
//
// The "POV:" cue must start the raw line; an indented "POV:" is prose.
func IsStubLine(line string) bool {
	switch {
	case strings.Contains(line, "[") && strings.Contains(line, "]"):
		return true
	case strings.HasPrefix(line, "POV:"):
		return true
	case strings.Contains(line, "Caption:"), strings.Contains(line, "Voiceover:"):
		return true
	}
	return false
}

// ExtractStubs turns generated script text into ordered scene stubs, one video element each.
//
// Lines are matched as written and the trimmed text becomes the stub comment.
func ExtractStubs(script string) []models.SceneTemplate {
	var stubs []models.SceneTemplate
	for _, line := range strings.Split(script, "\n") {
		if !IsStubLine(line) {
			continue
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		stubs = append(stubs, models.SceneTemplate{
			Comment:  text,
			Elements: []models.VideoElement{{Type: models.ElementVideo}},
		})
	}
	return stubs
}

// StubText joins stub comments back into script text.
func StubText(stubs []models.SceneTemplate) string {
	lines := make([]string, len(stubs))
	for i, st := range stubs {
		lines[i] = st.Comment
	}
	return strings.Join(lines, "\n")
}

// InitializeScenes creates one editable scene per stub with ids 1..n.
func InitializeScenes(stubs []models.SceneTemplate) []models.Scene {
	scenes := make([]models.Scene, len(stubs))
	for i, st := range stubs {
		scenes[i] = models.Scene{ID: i + 1, Description: st.Comment}
	}
	return scenes
}

// ParseTemplate decodes a render template produced by the template graph.
//
// Markdown code fences around the JSON are tolerated.
func ParseTemplate(raw string) (*models.VideoTemplate, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	if text == "" {
		return nil, fmt.Errorf("%w: template is empty", shared.ErrParse)
	}

	var tmpl models.VideoTemplate
	if err := json.Unmarshal([]byte(text), &tmpl); err != nil {
		return nil, fmt.Errorf("%w: invalid video template: %w", shared.ErrParse, err)
	}
	if tmpl.Scenes == nil {
		return nil, fmt.Errorf("%w: video template has no scenes", shared.ErrParse)
	}
	return &tmpl, nil
}

// BindScenes tags the k-th video-bearing stub with the id of the k-th scene and returns how many stubs were bound.
//
// Stubs beyond the last scene, and stubs without a video element, are left unbound.
func BindScenes(tmpl *models.VideoTemplate, scenes []models.Scene) int {
	k := 0
	for i := range tmpl.Scenes {
		st := &tmpl.Scenes[i]
		st.SceneID = 0
		if !st.HasVideo() {
			continue
		}
		if k < len(scenes) {
			st.SceneID = scenes[k].ID
			k++
		}
	}
	return k
}

// VideoSceneIDs returns the scene ids bound to video-bearing stubs, in template order.
func VideoSceneIDs(tmpl models.VideoTemplate) []int {
	var ids []int
	for _, st := range tmpl.Scenes {
		if st.HasVideo() && st.SceneID != 0 {
			ids = append(ids, st.SceneID)
		}
	}
	return ids
}

// MergeUploads builds the final render template.
//
// Every bound video-bearing stub with an upload keeps its other elements and gets its video element
// pointed at the uploaded clip (fit "cover", volume 1). Stubs without a video element or without a
// matching upload are dropped. Missing durations fall back to the scene's numeric duration, then to defaults.
func MergeUploads(tmpl models.VideoTemplate, scenes []models.Scene, uploads map[int]models.UploadedScene, defaults RenderDefaults) models.VideoTemplate {
	defaults = defaults.withFallbacks()

	byID := make(map[int]models.Scene, len(scenes))
	for _, sc := range scenes {
		byID[sc.ID] = sc
	}

	final := models.VideoTemplate{
		Resolution: tmpl.Resolution,
		Quality:    tmpl.Quality,
		Scenes:     []models.SceneTemplate{},
	}
	if final.Resolution == "" {
		final.Resolution = defaults.Resolution
	}
	if final.Quality == "" {
		final.Quality = defaults.Quality
	}

	for _, st := range tmpl.Scenes {
		idx := st.VideoIndex()
		if idx < 0 || st.SceneID == 0 {
			continue
		}
		up, ok := uploads[st.SceneID]
		if !ok || up.VideoURL == "" {
			continue
		}

		volume := 1.0
		merged := st
		merged.Elements = append([]models.VideoElement(nil), st.Elements...)
		merged.Elements[idx] = models.VideoElement{
			Type:   models.ElementVideo,
			Src:    up.VideoURL,
			Fit:    "cover",
			Volume: &volume,
		}

		if merged.Duration <= 0 {
			if secs, ok := byID[st.SceneID].Seconds(); ok {
				merged.Duration = models.Seconds(secs)
			} else {
				merged.Duration = models.Seconds(defaults.Duration)
			}
		}

		final.Scenes = append(final.Scenes, merged)
	}

	return final
}
