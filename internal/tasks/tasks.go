// package tasks implements the prompt-to-video workflow.
//
// The core abstraction is StudioEngine, which generates scripts, builds render templates, uploads scene
// clips, submits the render and polls it to completion.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
)

// GraphRunner executes a deployed graph.
type GraphRunner interface {
	Run(ctx context.Context, graphID, prompt string) (*services.GraphResult, error)
}

// ContentEngine defines the prompt-to-video operations.
type ContentEngine interface {
	// Generate runs the script graph for prompt and splits the script into scenes.
	Generate(ctx context.Context, progress chan<- ProgressUpdate, prompt string) (*GenerateResult, error)

	// Assemble builds the render template for the scenes, uploads their clips, submits the render and waits for it.
	Assemble(ctx context.Context, progress chan<- ProgressUpdate, req AssembleRequest) (*AssembleResult, error)

	// Analyze runs the location graph for prompt.
	Analyze(ctx context.Context, progress chan<- ProgressUpdate, prompt string) (*AnalyzeResult, error)
}

// GenerateResult contains the generated content and the scenes extracted from it.
type GenerateResult struct {
	SocialPost string
	Script     string
	Stubs      []models.SceneTemplate
	Scenes     []models.Scene
	Outputs    map[string]string
}

// AssembleRequest carries the edited scenes and the script they came from.
type AssembleRequest struct {
	Script string
	Scenes []models.Scene
}

// AssembleResult contains every artifact of an assembly run.
type AssembleResult struct {
	Template models.VideoTemplate // Generated template with scene bindings
	Uploads  []models.UploadedScene
	Final    models.VideoTemplate // Template submitted for rendering
	JobID    string
	Job      *models.RenderJob
}

// AnalyzeResult contains the named outputs of the location graph.
type AnalyzeResult struct {
	Outputs map[string]string
	NodeIDs []string
}

// EngineOptions configures a [StudioEngine].
type EngineOptions struct {
	Graph    shared.GraphConfig
	Defaults RenderDefaults
	Upload   UploadOptions
	Poll     PollerOptions
}

// StudioEngine implements [ContentEngine].
type StudioEngine struct {
	graph    GraphRunner
	uploader Uploader
	renderer services.Renderer
	opts     EngineOptions
	logger   *log.Logger
}

// NewStudioEngine creates a new StudioEngine. Any collaborator may be nil when the operations using it are not called.
func NewStudioEngine(graph GraphRunner, uploader Uploader, renderer services.Renderer, opts EngineOptions, logger *log.Logger) *StudioEngine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &StudioEngine{graph: graph, uploader: uploader, renderer: renderer, opts: opts, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *StudioEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Generate runs the script graph and extracts scenes from its script output.
func (e *StudioEngine) Generate(ctx context.Context, progress chan<- ProgressUpdate, prompt string) (*GenerateResult, error) {
	if e.graph == nil {
		return nil, fmt.Errorf("%w: graph service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, generatingUpdate())
	res, err := e.graph.Run(ctx, e.opts.Graph.ScriptGraphID, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	script, ok := res.Output(e.opts.Graph.ScriptOutput)
	if !ok {
		return nil, fmt.Errorf("%w: script output %s missing from graph result", shared.ErrParse, e.opts.Graph.ScriptOutput)
	}
	post, _ := res.Output(e.opts.Graph.PostOutput)

	stubs := ExtractStubs(script)
	result := &GenerateResult{
		SocialPost: post,
		Script:     script,
		Stubs:      stubs,
		Scenes:     InitializeScenes(stubs),
		Outputs:    res.Outputs(),
	}

	e.logger.Info("content generated", "scenes", len(result.Scenes))
	e.sendProgress(progress, extractedUpdate(len(result.Scenes)))
	return result, nil
}

// Analyze runs the location graph.
func (e *StudioEngine) Analyze(ctx context.Context, progress chan<- ProgressUpdate, prompt string) (*AnalyzeResult, error) {
	if e.graph == nil {
		return nil, fmt.Errorf("%w: graph service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, analyzingUpdate())
	res, err := e.graph.Run(ctx, e.opts.Graph.LocationGraphID, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze location: %w", err)
	}

	return &AnalyzeResult{Outputs: res.Outputs(), NodeIDs: res.NodeIDs()}, nil
}

// Assemble runs the full upload and render chain for req.
//
// The result carries everything produced so far even when a later step fails.
func (e *StudioEngine) Assemble(ctx context.Context, progress chan<- ProgressUpdate, req AssembleRequest) (*AssembleResult, error) {
	if missing := missingVideos(req.Scenes); len(missing) > 0 {
		return nil, &MissingVideosError{SceneIDs: missing}
	}
	if len(req.Scenes) == 0 {
		return nil, fmt.Errorf("%w: no scenes to assemble", shared.ErrValidation)
	}
	if e.graph == nil || e.uploader == nil || e.renderer == nil {
		return nil, fmt.Errorf("%w: assembly requires graph, upload and render services", shared.ErrServiceUnavailable)
	}
	e.sendProgress(progress, validatedUpdate(len(req.Scenes)))

	result := &AssembleResult{}

	e.sendProgress(progress, buildingTemplateUpdate())
	tmpl, err := e.buildTemplate(ctx, req)
	if err != nil {
		return result, err
	}
	bound := BindScenes(tmpl, req.Scenes)
	result.Template = *tmpl
	e.sendProgress(progress, templateReadyUpdate(bound, tmpl))

	if bound == 0 {
		return result, fmt.Errorf("%w: no valid scenes to process", shared.ErrValidation)
	}

	toUpload := scenesByID(req.Scenes, VideoSceneIDs(*tmpl))
	uploadOpts := e.opts.Upload
	uploadOpts.OnUploaded = func(up models.UploadedScene, done, total int) {
		e.sendProgress(progress, uploadedUpdate(up, done, total))
	}

	e.sendProgress(progress, uploadingUpdate(len(toUpload)))
	uploads, err := NewUploadCoordinator(e.uploader, uploadOpts, e.logger).UploadAll(ctx, toUpload)
	if err != nil {
		return result, err
	}
	result.Uploads = uploads

	result.Final = MergeUploads(*tmpl, req.Scenes, UploadMap(uploads), e.opts.Defaults)
	if len(result.Final.Scenes) == 0 {
		return result, fmt.Errorf("%w: no valid scenes to process", shared.ErrValidation)
	}

	e.sendProgress(progress, submittingUpdate(len(result.Final.Scenes)))
	jobID, err := NewRenderSubmitter(e.renderer, e.logger).Submit(ctx, result.Final)
	if err != nil {
		return result, err
	}
	result.JobID = jobID

	job, err := e.Watch(ctx, progress, jobID)
	result.Job = job
	return result, err
}

// Watch polls jobID until it reaches a terminal state, forwarding every transition as progress.
func (e *StudioEngine) Watch(ctx context.Context, progress chan<- ProgressUpdate, jobID string) (*models.RenderJob, error) {
	if e.renderer == nil {
		return nil, fmt.Errorf("%w: render service not initialized", shared.ErrServiceUnavailable)
	}

	pollOpts := e.opts.Poll
	observer := pollOpts.Observer
	pollOpts.Observer = func(ev PollEvent) {
		e.sendProgress(progress, pollUpdate(ev))
		if observer != nil {
			observer(ev)
		}
	}

	return NewRenderPoller(e.renderer, pollOpts, e.logger).Poll(ctx, jobID)
}

func (e *StudioEngine) buildTemplate(ctx context.Context, req AssembleRequest) (*models.VideoTemplate, error) {
	prompt, err := CombinedPrompt(req.Script, req.Scenes)
	if err != nil {
		return nil, err
	}

	res, err := e.graph.Run(ctx, e.opts.Graph.TemplateGraphID, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate video template: %w", err)
	}

	raw, ok := res.Output(e.opts.Graph.TemplateOutput)
	if !ok {
		return nil, fmt.Errorf("%w: template output %s missing from graph result", shared.ErrParse, e.opts.Graph.TemplateOutput)
	}
	return ParseTemplate(raw)
}

type videoDetails struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

type sceneMetadata struct {
	SceneID      int          `json:"sceneId"`
	Description  string       `json:"description"`
	Duration     string       `json:"duration"`
	Notes        string       `json:"notes"`
	VideoDetails videoDetails `json:"videoDetails"`
}

// CombinedPrompt builds the template graph prompt describing the script and every scene clip.
func CombinedPrompt(script string, scenes []models.Scene) (string, error) {
	meta := make([]sceneMetadata, len(scenes))
	for i, sc := range scenes {
		details := videoDetails{Name: filepath.Base(sc.VideoFile), Type: mime.TypeByExtension(filepath.Ext(sc.VideoFile))}
		if details.Type == "" {
			details.Type = "video/" + trimDot(filepath.Ext(sc.VideoFile))
		}
		if info, err := os.Stat(sc.VideoFile); err == nil {
			details.Size = info.Size()
		}

		meta[i] = sceneMetadata{
			SceneID:      sc.ID,
			Description:  sc.Description,
			Duration:     sc.Duration,
			Notes:        sc.Notes,
			VideoDetails: details,
		}
	}

	data, err := json.Marshal(struct {
		OriginalScript string          `json:"originalScript"`
		Scenes         []sceneMetadata `json:"scenes"`
	}{script, meta})
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt: %w", err)
	}
	return string(data), nil
}

func trimDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}

func scenesByID(scenes []models.Scene, ids []int) []models.Scene {
	byID := make(map[int]models.Scene, len(scenes))
	for _, sc := range scenes {
		byID[sc.ID] = sc
	}

	out := make([]models.Scene, 0, len(ids))
	for _, id := range ids {
		if sc, ok := byID[id]; ok {
			out = append(out, sc)
		}
	}
	return out
}
