package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	tu "github.com/desertthunder/reelx/internal/testing"
)

var testGraphConfig = shared.GraphConfig{
	ScriptGraphID:   "script-graph",
	TemplateGraphID: "template-graph",
	LocationGraphID: "location-graph",
	PostOutput:      "post-node",
	ScriptOutput:    "script-node",
	TemplateOutput:  "template-node",
}

type mockGraph struct {
	mu      sync.Mutex
	outputs map[string]map[string]string
	err     error
	prompts map[string]string
}

func (m *mockGraph) Run(ctx context.Context, graphID, prompt string) (*services.GraphResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prompts == nil {
		m.prompts = make(map[string]string)
	}
	m.prompts[graphID] = prompt
	if m.err != nil {
		return nil, m.err
	}

	body, _ := json.Marshal(map[string]any{
		"message": "Graph executed successfully",
		"result":  map[string]any{"node_outputs": m.outputs[graphID]},
	})
	var res services.GraphResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func templateJSON(videoStubs int) string {
	tmpl := models.VideoTemplate{Resolution: "full-hd", Quality: "high"}
	tmpl.Scenes = append(tmpl.Scenes, models.SceneTemplate{Comment: "title card", Elements: []models.VideoElement{{Type: "text"}}})
	for i := 0; i < videoStubs; i++ {
		tmpl.Scenes = append(tmpl.Scenes, models.SceneTemplate{
			Comment:  fmt.Sprintf("shot %d", i+1),
			Elements: []models.VideoElement{{Type: models.ElementVideo}},
		})
	}
	data, _ := json.Marshal(tmpl)
	return string(data)
}

func drain(progress chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-progress:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestStudioEngine_Generate(t *testing.T) {
	t.Run("Extracts Scenes From Script Output", func(t *testing.T) {
		graph := &mockGraph{outputs: map[string]map[string]string{
			"script-graph": {"post-node": "Try our latte! #coffee", "script-node": sampleScript},
		}}
		engine := NewStudioEngine(graph, nil, nil, EngineOptions{Graph: testGraphConfig}, nil)
		progress := make(chan ProgressUpdate, 10)

		result, err := engine.Generate(context.Background(), progress, "coffee shop in Austin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.SocialPost != "Try our latte! #coffee" {
			t.Errorf("unexpected social post %q", result.SocialPost)
		}
		if len(result.Scenes) != 4 || result.Scenes[0].ID != 1 {
			t.Errorf("unexpected scenes %+v", result.Scenes)
		}
		if graph.prompts["script-graph"] != "coffee shop in Austin" {
			t.Errorf("prompt not forwarded: %v", graph.prompts)
		}

		updates := drain(progress)
		if len(updates) != 2 || updates[1].Phase != ExtractScenes {
			t.Errorf("unexpected progress %+v", updates)
		}
	})

	t.Run("Missing Script Output", func(t *testing.T) {
		graph := &mockGraph{outputs: map[string]map[string]string{"script-graph": {"other": "x"}}}
		engine := NewStudioEngine(graph, nil, nil, EngineOptions{Graph: testGraphConfig}, nil)

		if _, err := engine.Generate(context.Background(), nil, "prompt"); !errors.Is(err, shared.ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})

	t.Run("No Graph Service", func(t *testing.T) {
		engine := NewStudioEngine(nil, nil, nil, EngineOptions{}, nil)
		if _, err := engine.Generate(context.Background(), nil, "prompt"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestStudioEngine_Analyze(t *testing.T) {
	graph := &mockGraph{outputs: map[string]map[string]string{
		"location-graph": {"b-node": "foot traffic high", "a-node": "near campus"},
	}}
	engine := NewStudioEngine(graph, nil, nil, EngineOptions{Graph: testGraphConfig}, nil)

	result, err := engine.Analyze(context.Background(), nil, "6th street")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.NodeIDs) != 2 || result.NodeIDs[0] != "a-node" || result.Outputs["b-node"] != "foot traffic high" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestStudioEngine_Assemble(t *testing.T) {
	newEngine := func(graph GraphRunner, uploader Uploader, renderer services.Renderer) *StudioEngine {
		return NewStudioEngine(graph, uploader, renderer, EngineOptions{
			Graph: testGraphConfig,
			Poll:  PollerOptions{Interval: time.Millisecond, MaxAttempts: 10},
		}, nil)
	}

	okUploader := uploaderFunc(func(ctx context.Context, path string) (*services.UploadResult, error) {
		name := path[strings.LastIndex(path, "/")+1:]
		return &services.UploadResult{VideoURL: "https://cdn/" + name, ProjectID: "p"}, nil
	})

	t.Run("Full Chain", func(t *testing.T) {
		scenes := scenesWithVideos(t, 3)
		scenes[0].Duration = "4"

		graph := &mockGraph{outputs: map[string]map[string]string{"template-graph": {"template-node": templateJSON(2)}}}
		renderer := &tu.MockRenderer{JobID: "job-1", Statuses: []models.RenderJob{
			{Status: "processing"},
			{Status: "completed", URL: "https://x/final.mp4"},
		}}
		progress := make(chan ProgressUpdate, 50)

		result, err := newEngine(graph, okUploader, renderer).Assemble(context.Background(), progress, AssembleRequest{Script: sampleScript, Scenes: scenes})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Uploads) != 2 {
			t.Errorf("only bound scenes should be uploaded, got %d", len(result.Uploads))
		}
		if len(result.Final.Scenes) != 2 {
			t.Fatalf("expected 2 final scenes, got %d", len(result.Final.Scenes))
		}
		if result.Final.Scenes[0].Duration != 4 || result.Final.Scenes[1].Duration != 5 {
			t.Errorf("unexpected durations %v %v", result.Final.Scenes[0].Duration, result.Final.Scenes[1].Duration)
		}
		if src := result.Final.Scenes[1].Elements[0].Src; src != "https://cdn/scene-2.mp4" {
			t.Errorf("scene 2 url misattributed: %s", src)
		}
		if result.JobID != "job-1" || result.Job == nil || result.Job.URL != "https://x/final.mp4" {
			t.Errorf("unexpected job %+v", result.Job)
		}
		if len(renderer.Submitted) != 1 {
			t.Errorf("expected one submission, got %d", len(renderer.Submitted))
		}

		var prompt struct {
			OriginalScript string `json:"originalScript"`
			Scenes         []struct {
				SceneID      int `json:"sceneId"`
				VideoDetails struct {
					Name string `json:"name"`
					Size int64  `json:"size"`
				} `json:"videoDetails"`
			} `json:"scenes"`
		}
		if err := json.Unmarshal([]byte(graph.prompts["template-graph"]), &prompt); err != nil {
			t.Fatalf("template prompt is not JSON: %v", err)
		}
		if prompt.OriginalScript != sampleScript || len(prompt.Scenes) != 3 || prompt.Scenes[2].VideoDetails.Name != "scene-3.mp4" {
			t.Errorf("unexpected template prompt %+v", prompt)
		}
		if prompt.Scenes[0].VideoDetails.Size == 0 {
			t.Error("expected file size in prompt")
		}

		phases := map[Phase]bool{}
		for _, u := range drain(progress) {
			phases[u.Phase] = true
		}
		for _, p := range []Phase{ValidateScenes, BuildTemplate, UploadScenes, SubmitRender, PollRender} {
			if !phases[p] {
				t.Errorf("missing progress for phase %s", p)
			}
		}
	})

	t.Run("Missing Videos Before Any Request", func(t *testing.T) {
		graph := &mockGraph{}
		scenes := scenesWithVideos(t, 2)
		scenes[1].VideoFile = ""

		_, err := newEngine(graph, okUploader, &tu.MockRenderer{}).Assemble(context.Background(), nil, AssembleRequest{Scenes: scenes})

		var missing *MissingVideosError
		if !errors.As(err, &missing) || missing.SceneIDs[0] != 2 {
			t.Errorf("expected missing scene 2, got %v", err)
		}
		if len(graph.prompts) != 0 {
			t.Error("graph should not be called")
		}
	})

	t.Run("Template Without Video Stubs", func(t *testing.T) {
		graph := &mockGraph{outputs: map[string]map[string]string{"template-graph": {"template-node": templateJSON(0)}}}
		renderer := &tu.MockRenderer{JobID: "job"}

		_, err := newEngine(graph, okUploader, renderer).Assemble(context.Background(), nil, AssembleRequest{Scenes: scenesWithVideos(t, 1)})
		if !errors.Is(err, shared.ErrValidation) || !strings.Contains(err.Error(), "no valid scenes to process") {
			t.Errorf("expected no valid scenes error, got %v", err)
		}
		if len(renderer.Submitted) != 0 {
			t.Error("nothing should be submitted")
		}
	})

	t.Run("Malformed Template", func(t *testing.T) {
		graph := &mockGraph{outputs: map[string]map[string]string{"template-graph": {"template-node": "{oops"}}}
		_, err := newEngine(graph, okUploader, &tu.MockRenderer{}).Assemble(context.Background(), nil, AssembleRequest{Scenes: scenesWithVideos(t, 1)})
		if !errors.Is(err, shared.ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})

	t.Run("Render Failure Keeps Artifacts", func(t *testing.T) {
		graph := &mockGraph{outputs: map[string]map[string]string{"template-graph": {"template-node": templateJSON(1)}}}
		renderer := &tu.MockRenderer{JobID: "job-f", Statuses: []models.RenderJob{{Status: "failed", Message: "codec"}}}

		result, err := newEngine(graph, okUploader, renderer).Assemble(context.Background(), nil, AssembleRequest{Scenes: scenesWithVideos(t, 1)})
		if !errors.Is(err, shared.ErrRenderFailed) {
			t.Errorf("expected ErrRenderFailed, got %v", err)
		}
		if result.JobID != "job-f" || result.Job == nil || result.Job.Status != models.StatusFailed {
			t.Errorf("expected failed job in result, got %+v", result)
		}
	})
}

func TestCombinedPrompt(t *testing.T) {
	prompt, err := CombinedPrompt("script", []models.Scene{{ID: 1, Description: "d", Duration: "3", Notes: "n", VideoFile: "/missing/clip.webm"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, `"sceneId":1`) || !strings.Contains(prompt, `"name":"clip.webm"`) || !strings.Contains(prompt, `"type":"video/webm"`) {
		t.Errorf("unexpected prompt %s", prompt)
	}
}
