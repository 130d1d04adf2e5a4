package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/repositories"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// StudioClient is the proxy API used by the CLI: clip uploads, rendering and the greeting.
type StudioClient interface {
	tasks.Uploader
	services.Renderer
	Hello(ctx context.Context) (*services.HelloResponse, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	projects   *repositories.ProjectRepository
	scenes     *repositories.SceneRepository
	jobs       *repositories.RenderJobRepository
	studio     StudioClient
	engine     tasks.ContentEngine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Studio and Engine are built from Config when nil. DB is opened lazily from Config.Database when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
	Studio     StudioClient
	Engine     tasks.ContentEngine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		studio:     opts.Studio,
		engine:     opts.Engine,
	}
	if opts.DB != nil {
		r.useDB(opts.DB)
	}
	return r
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, tiktokCommand, generateCommand, analyzeCommand, projectsCommand,
		scenesCommand, renderCommand, statusCommand, serveCommand, helloCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) useDB(db *sql.DB) {
	r.db = db
	r.projects = repositories.NewProjectRepository(db)
	r.scenes = repositories.NewSceneRepository(db)
	r.jobs = repositories.NewRenderJobRepository(db)
}

// openStore opens the project database and runs pending migrations on first use.
func (r *Runner) openStore() error {
	if r.db != nil {
		return nil
	}

	r.logger.Debug("opening database", "path", r.config.Database.Path)
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.useDB(db)
	return nil
}

// studioClient returns the proxy client, authenticated with the stored session.
func (r *Runner) studioClient() (StudioClient, error) {
	if r.studio != nil {
		return r.studio, nil
	}

	session := r.config.Credentials.Supabase
	if session.AccessToken == "" {
		return nil, fmt.Errorf("%w: run 'reelx auth signin' first", shared.ErrNotAuthenticated)
	}

	client := &http.Client{Timeout: r.config.Studio.Timeout(), Transport: r.httpClient.Transport}
	r.studio = services.NewStudioService(r.config.Studio.BaseURL, session.AccessToken, client)
	return r.studio, nil
}

// contentEngine builds the [tasks.StudioEngine] from config on first use.
func (r *Runner) contentEngine() (tasks.ContentEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	graph, err := services.NewGraphService(r.config.Credentials.Graph, r.httpClient)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}

	// Generation and analysis work without a session; rendering checks for one itself.
	var uploader tasks.Uploader
	var renderer services.Renderer
	if studio, err := r.studioClient(); err == nil {
		uploader, renderer = studio, studio
	} else {
		r.logger.Debug("studio client unavailable", "error", err)
	}

	cfg := r.config
	r.engine = tasks.NewStudioEngine(graph, uploader, renderer, tasks.EngineOptions{
		Graph: cfg.Credentials.Graph,
		Defaults: tasks.RenderDefaults{
			Resolution: cfg.Render.Resolution,
			Quality:    cfg.Render.Quality,
			Duration:   cfg.Render.DefaultDuration,
		},
		Upload: tasks.UploadOptions{
			MaxConcurrency: cfg.Upload.MaxConcurrency,
			RateLimit:      cfg.Upload.RateLimit,
			Timeout:        cfg.Upload.Timeout(),
		},
		Poll: tasks.PollerOptions{
			Interval:    cfg.Render.PollInterval(),
			MaxAttempts: cfg.Render.MaxPollAttempts,
			Deadline:    cfg.Render.Deadline(),
		},
	}, r.logger)
	return r.engine, nil
}

// saveConfig writes the in-memory config back to the runner's config path.
func (r *Runner) saveConfig() error {
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// watchProgress prints updates until progress is closed. The returned channel closes once printing is done.
func (r *Runner) watchProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.GenerateScript, tasks.AnalyzeLocation:
				r.writePlain("✎ %s\n", update.Message)
			case tasks.ExtractScenes, tasks.ValidateScenes, tasks.BuildTemplate:
				r.writePlain("▤ %s\n", update.Message)
			case tasks.UploadScenes:
				if update.Step > 0 {
					r.writePlain("   %s\n", update.Message)
				} else {
					r.writePlain("\n⇪ %s\n", update.Message)
				}
			case tasks.SubmitRender:
				r.writePlain("\n▶ %s\n", update.Message)
			case tasks.PollRender:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()
	return done
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
