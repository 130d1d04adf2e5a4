package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/tasks"
	th "github.com/desertthunder/reelx/internal/testing"
)

type fakeEngine struct {
	generated *tasks.GenerateResult
	genErr    error
	assembled *tasks.AssembleResult
	asmErr    error
	requests  []tasks.AssembleRequest
}

func (f *fakeEngine) Generate(ctx context.Context, progress chan<- tasks.ProgressUpdate, prompt string) (*tasks.GenerateResult, error) {
	return f.generated, f.genErr
}

func (f *fakeEngine) Assemble(ctx context.Context, progress chan<- tasks.ProgressUpdate, req tasks.AssembleRequest) (*tasks.AssembleResult, error) {
	f.requests = append(f.requests, req)
	progress <- tasks.ProgressUpdate{Phase: tasks.UploadScenes, Step: 1, Total: 2, Message: "Uploaded scene 1"}
	return f.assembled, f.asmErr
}

func (f *fakeEngine) Analyze(ctx context.Context, progress chan<- tasks.ProgressUpdate, prompt string) (*tasks.AnalyzeResult, error) {
	return &tasks.AnalyzeResult{}, nil
}

func testScenes() []models.Scene {
	return []models.Scene{
		{ID: 1, Description: "Barista pours latte art", Duration: "4"},
		{ID: 2, Description: "Customer smiles", Duration: "5"},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func enter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

func esc() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEsc} }

func withVideos(t *testing.T, scenes []models.Scene) []models.Scene {
	t.Helper()
	dir := t.TempDir()
	for i := range scenes {
		scenes[i].VideoFile = th.WriteVideo(t, dir, scenes[i].Description[:3]+".mp4")
	}
	return scenes
}

func TestNewModel(t *testing.T) {
	t.Run("Starts At Prompt Without Scenes", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{})
		if m.State() != PromptView {
			t.Errorf("expected PromptView, got %v", m.State())
		}
		if m.Init() == nil {
			t.Error("expected focus command")
		}
	})

	t.Run("Starts At Scene List With Scenes", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: testScenes()})
		if m.State() != SceneListView {
			t.Errorf("expected SceneListView, got %v", m.State())
		}
		if m.Init() != nil {
			t.Error("expected no init command")
		}
		if !strings.Contains(m.View(), "2 scenes") {
			t.Errorf("expected footer with scene count, got %q", m.View())
		}
	})

	t.Run("Generates Immediately With Prompt", func(t *testing.T) {
		engine := &fakeEngine{generated: &tasks.GenerateResult{Scenes: testScenes()}}
		m := NewModel(context.Background(), engine, Options{Prompt: "coffee shop"})
		if m.Init() == nil {
			t.Fatal("expected generate command")
		}
		if m.State() != GeneratingView {
			t.Fatalf("expected GeneratingView, got %v", m.State())
		}

		msg := m.waitForProgress()()
		m.Update(msg)
		if m.State() != SceneListView {
			t.Errorf("expected SceneListView, got %v", m.State())
		}
		if len(m.Scenes()) != 2 {
			t.Errorf("expected 2 scenes, got %d", len(m.Scenes()))
		}
	})
}

func TestPromptView(t *testing.T) {
	t.Run("Ignores Empty Prompt", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{})
		m.Update(enter())
		if m.State() != PromptView {
			t.Errorf("expected PromptView, got %v", m.State())
		}
	})

	t.Run("Enter Starts Generation", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{})
		m.input.SetValue("  bakery in Austin ")
		_, cmd := m.Update(enter())
		if cmd == nil {
			t.Fatal("expected command")
		}
		if m.State() != GeneratingView {
			t.Errorf("expected GeneratingView, got %v", m.State())
		}
		if m.opts.Prompt != "bakery in Austin" {
			t.Errorf("expected trimmed prompt, got %q", m.opts.Prompt)
		}
	})

	t.Run("Generation Failure Returns To Prompt", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{})
		m.view = GeneratingView
		m.Update(generatedMsg(nil, shared.ErrServiceUnavailable))
		if m.State() != PromptView {
			t.Errorf("expected PromptView, got %v", m.State())
		}
		if !errors.Is(m.Err(), shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "Generation failed") {
			t.Errorf("expected failure in view, got %q", m.View())
		}
	})
}

func TestGenerated(t *testing.T) {
	var saved []Snapshot
	save := func(ctx context.Context, snap Snapshot) error {
		saved = append(saved, snap)
		return nil
	}

	m := NewModel(context.Background(), &fakeEngine{}, Options{Prompt: "coffee", Save: save})
	m.view = GeneratingView
	_, cmd := m.Update(generatedMsg(&tasks.GenerateResult{
		Script:     "SCENE 1: ...",
		SocialPost: "Try it #coffee",
		Scenes:     testScenes(),
	}, nil))

	if m.State() != SceneListView {
		t.Fatalf("expected SceneListView, got %v", m.State())
	}
	if cmd == nil {
		t.Fatal("expected save command")
	}
	m.Update(cmd())

	if len(saved) != 1 {
		t.Fatalf("expected 1 save, got %d", len(saved))
	}
	if saved[0].Prompt != "coffee" || saved[0].SocialPost != "Try it #coffee" || len(saved[0].Scenes) != 2 {
		t.Errorf("unexpected snapshot: %+v", saved[0])
	}
	if saved[0].Job != nil {
		t.Error("expected no job on generation snapshot")
	}
}

func TestSceneListView(t *testing.T) {
	t.Run("Edits Description", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: testScenes()})
		m.Update(runes("e"))
		if m.State() != EditView {
			t.Fatalf("expected EditView, got %v", m.State())
		}
		if m.input.Value() != "Barista pours latte art" {
			t.Errorf("expected current description, got %q", m.input.Value())
		}

		m.input.SetValue("Barista pours a heart")
		m.Update(enter())
		if m.State() != SceneListView {
			t.Fatalf("expected SceneListView, got %v", m.State())
		}
		if got := m.Scenes()[0].Description; got != "Barista pours a heart" {
			t.Errorf("expected updated description, got %q", got)
		}
	})

	t.Run("Escape Cancels Edit", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: testScenes()})
		m.Update(runes("d"))
		m.input.SetValue("99")
		m.Update(esc())
		if m.State() != SceneListView {
			t.Fatalf("expected SceneListView, got %v", m.State())
		}
		if got := m.Scenes()[0].Duration; got != "4" {
			t.Errorf("expected unchanged duration, got %q", got)
		}
	})

	t.Run("Attaches Video", func(t *testing.T) {
		path := th.WriteVideo(t, t.TempDir(), "clip.mp4")
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: testScenes()})
		m.Update(runes("v"))
		m.input.SetValue(path)
		m.Update(enter())
		if got := m.Scenes()[0].VideoFile; got != path {
			t.Errorf("expected %s, got %q", path, got)
		}
	})

	t.Run("Rejects Non Video", func(t *testing.T) {
		path := th.WriteText(t, t.TempDir(), "notes.txt", "not a video")
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: testScenes()})
		m.Update(runes("v"))
		m.input.SetValue(path)
		m.Update(enter())
		if m.State() != EditView {
			t.Errorf("expected to stay in EditView, got %v", m.State())
		}
		if m.Scenes()[0].HasVideo() {
			t.Error("expected no video attached")
		}
		if m.notice == "" {
			t.Error("expected error notice")
		}
	})

	t.Run("Removes Video", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: withVideos(t, testScenes())})
		m.Update(runes("x"))
		if m.Scenes()[0].HasVideo() {
			t.Error("expected video removed")
		}
		if !m.Scenes()[1].HasVideo() {
			t.Error("expected second scene untouched")
		}
	})

	t.Run("Render Requires Videos", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: testScenes()})
		m.Update(runes("r"))
		if m.State() != SceneListView {
			t.Errorf("expected SceneListView, got %v", m.State())
		}
		if !strings.Contains(m.notice, "Missing: 1, 2") {
			t.Errorf("expected missing ids in notice, got %q", m.notice)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: testScenes()})
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.ctx.Err() == nil {
			t.Error("expected context cancelled")
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("Confirm No Returns To Scenes", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: withVideos(t, testScenes())})
		m.Update(runes("r"))
		if m.State() != ConfirmView {
			t.Fatalf("expected ConfirmView, got %v", m.State())
		}
		m.Update(runes("n"))
		if m.State() != SceneListView {
			t.Errorf("expected SceneListView, got %v", m.State())
		}
	})

	t.Run("Streams Progress Then Result", func(t *testing.T) {
		job := &models.RenderJob{Status: models.StatusCompleted, URL: "https://cdn.example.com/final.mp4"}
		engine := &fakeEngine{assembled: &tasks.AssembleResult{JobID: "job-1", Job: job, Uploads: make([]models.UploadedScene, 2)}}

		var saved []Snapshot
		m := NewModel(context.Background(), engine, Options{
			Script: "SCENE 1",
			Scenes: withVideos(t, testScenes()),
			Save: func(ctx context.Context, snap Snapshot) error {
				saved = append(saved, snap)
				return nil
			},
		})
		m.Update(runes("r"))
		m.Update(runes("y"))
		if m.State() != RenderView {
			t.Fatalf("expected RenderView, got %v", m.State())
		}

		var cmd tea.Cmd
		for i := 0; m.State() == RenderView && i < 5; i++ {
			_, cmd = m.Update(m.waitForProgress()())
		}
		if m.State() != ResultView {
			t.Fatalf("expected ResultView, got %v", m.State())
		}
		if m.progress.Message != "Uploaded scene 1" {
			t.Errorf("expected progress update, got %+v", m.progress)
		}
		if len(engine.requests) != 1 || engine.requests[0].Script != "SCENE 1" || len(engine.requests[0].Scenes) != 2 {
			t.Errorf("unexpected assemble request: %+v", engine.requests)
		}
		if !strings.Contains(m.View(), "https://cdn.example.com/final.mp4") {
			t.Errorf("expected URL in view, got %q", m.View())
		}

		if cmd == nil {
			t.Fatal("expected save command")
		}
		m.Update(cmd())
		if len(saved) != 1 || saved[0].Job == nil {
			t.Fatalf("expected snapshot with job, got %+v", saved)
		}
		if saved[0].Job.ProjectID != "job-1" || saved[0].Job.URL != job.URL {
			t.Errorf("unexpected saved job: %+v", saved[0].Job)
		}
	})

	t.Run("Failure Shows Error And Restarts", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: withVideos(t, testScenes())})
		m.view = RenderView
		m.Update(assembledMsg(&tasks.AssembleResult{JobID: "job-2"}, shared.ErrRenderFailed))

		view := m.View()
		if !strings.Contains(view, "Render failed") || !strings.Contains(view, "job-2") {
			t.Errorf("expected failure with job id, got %q", view)
		}

		m.Update(runes("r"))
		if m.State() != SceneListView {
			t.Errorf("expected SceneListView, got %v", m.State())
		}
		if len(m.Scenes()) != 2 {
			t.Error("expected scenes kept after failure")
		}
	})

	t.Run("Save Failure Shows Notice", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, Options{Scenes: testScenes()})
		m.view = ResultView
		m.Update(savedMsg(errors.New("disk full")))
		if !strings.Contains(m.notice, "disk full") {
			t.Errorf("expected save error notice, got %q", m.notice)
		}
	})
}

func TestJoinIDs(t *testing.T) {
	if got := joinIDs([]int{1, 3, 4}); got != "1, 3, 4" {
		t.Errorf("expected '1, 3, 4', got %q", got)
	}
	if got := joinIDs(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
