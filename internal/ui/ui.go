package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/formatter"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PromptView ViewState = iota
	GeneratingView
	SceneListView
	EditView
	ConfirmView
	RenderView
	ResultView
)

// fieldVideo is the pseudo field edited by the attach binding.
const fieldVideo = "video"

// Snapshot is the project state handed to [Options.Save].
type Snapshot struct {
	Prompt     string
	Script     string
	SocialPost string
	Scenes     []models.Scene
	Job        *models.RenderJob
}

// Options seeds the model. When Scenes is empty the TUI starts at the prompt.
type Options struct {
	Prompt     string
	Script     string
	SocialPost string
	Scenes     []models.Scene

	// Save persists the project after generation and after each render. Optional.
	Save func(ctx context.Context, snap Snapshot) error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	engine       tasks.ContentEngine
	store        *tasks.SceneStore
	opts         Options
	width        int
	height       int
	sceneList    list.Model
	input        textinput.Model
	spinner      spinner.Model
	editID       int
	editField    string
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.AssembleResult
	err          error
	notice       string
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine tasks.ContentEngine, opts Options) *Model {
	ctx, cancel := context.WithCancel(ctx)

	input := textinput.New()
	input.CharLimit = 500
	input.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	m := &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    PromptView,
		engine:  engine,
		store:   tasks.NewSceneStore(opts.Scenes),
		opts:    opts,
		input:   input,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}

	m.sceneList = list.New(sceneItems(opts.Scenes), list.NewDefaultDelegate(), 0, 0)
	m.sceneList.Title = "Scenes"
	m.sceneList.SetFilteringEnabled(false)
	m.sceneList.SetShowHelp(false)
	m.sceneList.DisableQuitKeybindings()

	if len(opts.Scenes) > 0 {
		m.view = SceneListView
	} else {
		m.input.Placeholder = "Describe the business or campaign"
		m.input.SetValue(opts.Prompt)
	}
	return m
}

// State returns the current view.
func (m *Model) State() ViewState { return m.view }

// Scenes returns a copy of the scenes being edited.
func (m *Model) Scenes() []models.Scene { return m.store.Scenes() }

// Result returns the last assembly result, if any.
func (m *Model) Result() *tasks.AssembleResult { return m.result }

// Err returns the last generation or render error.
func (m *Model) Err() error { return m.err }

// Init focuses the prompt, or starts generating right away when a prompt was supplied.
func (m *Model) Init() tea.Cmd {
	if m.view != PromptView {
		return nil
	}
	if strings.TrimSpace(m.opts.Prompt) != "" {
		return m.startGenerate(m.opts.Prompt)
	}
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sceneList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		switch m.view {
		case PromptView:
			return m.handlePromptKeys(msg)
		case GeneratingView, RenderView:
			if key.Matches(msg, m.keys.quit) {
				m.cancel()
				return m, tea.Quit
			}
			return m, nil
		case SceneListView:
			return m.handleSceneListKeys(msg)
		case EditView:
			return m.handleEditKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != GeneratingView && m.view != RenderView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgGenerated:
		data := msg.data.(generatedData)
		m.clearJob()
		if data.err != nil {
			m.err = data.err
			m.view = PromptView
			return m, m.input.Focus()
		}
		m.err = nil
		m.opts.Script = data.result.Script
		m.opts.SocialPost = data.result.SocialPost
		m.store.Replace(data.result.Scenes)
		m.refreshScenes()
		m.view = SceneListView
		m.notice = fmt.Sprintf("Extracted %d scenes", m.store.Len())
		return m, m.save(nil)

	case MsgAssembled:
		data := msg.data.(assembledData)
		m.clearJob()
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		if data.result != nil && data.result.Job != nil {
			job := *data.result.Job
			job.ProjectID = data.result.JobID
			return m, m.save(&job)
		}
		return m, nil

	case MsgSaved:
		if err, ok := msg.data.(error); ok && err != nil {
			m.notice = styles.warn.Render(fmt.Sprintf("Save failed: %v", err))
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.cancel()
		return m, tea.Quit
	case tea.KeyEnter:
		prompt := strings.TrimSpace(m.input.Value())
		if prompt == "" {
			return m, nil
		}
		m.opts.Prompt = prompt
		m.input.Blur()
		return m, m.startGenerate(prompt)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSceneListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.description):
		return m.beginEdit(tasks.FieldDescription)
	case key.Matches(msg, m.keys.duration):
		return m.beginEdit(tasks.FieldDuration)
	case key.Matches(msg, m.keys.notes):
		return m.beginEdit(tasks.FieldNotes)
	case key.Matches(msg, m.keys.video):
		return m.beginEdit(fieldVideo)
	case key.Matches(msg, m.keys.unlink):
		if sc, ok := m.selected(); ok {
			if err := m.store.RemoveVideo(sc.ID); err != nil {
				m.notice = styles.err.Render(err.Error())
			} else {
				m.notice = fmt.Sprintf("Removed video from scene %d", sc.ID)
				m.refreshScenes()
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.render):
		if m.store.Len() == 0 {
			m.notice = styles.warn.Render("No scenes to render")
			return m, nil
		}
		if missing := m.store.Missing(); len(missing) > 0 {
			m.notice = styles.warn.Render("Attach videos first. Missing: " + joinIDs(missing))
			return m, nil
		}
		m.notice = ""
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.sceneList, cmd = m.sceneList.Update(msg)
	return m, cmd
}

func (m *Model) beginEdit(field string) (tea.Model, tea.Cmd) {
	sc, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.editID = sc.ID
	m.editField = field
	m.notice = ""

	m.input.Reset()
	m.input.Placeholder = field
	switch field {
	case tasks.FieldDescription:
		m.input.SetValue(sc.Description)
	case tasks.FieldDuration:
		m.input.Placeholder = "seconds"
		m.input.SetValue(sc.Duration)
	case tasks.FieldNotes:
		m.input.SetValue(sc.Notes)
	case fieldVideo:
		m.input.Placeholder = "/path/to/clip.mp4"
		m.input.SetValue(sc.VideoFile)
	}
	m.input.CursorEnd()
	m.view = EditView
	return m, m.input.Focus()
}

func (m *Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.notice = ""
		m.view = SceneListView
		return m, nil
	case tea.KeyEnter:
		if err := m.applyEdit(m.input.Value()); err != nil {
			m.notice = styles.err.Render(err.Error())
			return m, nil
		}
		m.input.Blur()
		m.refreshScenes()
		m.notice = fmt.Sprintf("Updated %s of scene %d", m.editField, m.editID)
		m.view = SceneListView
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) applyEdit(value string) error {
	if m.editField != fieldVideo {
		return m.store.Update(m.editID, m.editField, value)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return m.store.RemoveVideo(m.editID)
	}
	return m.store.AttachVideo(m.editID, value)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = RenderView
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, m.startAssemble()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = SceneListView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = SceneListView
		m.notice = ""
		return m, nil
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PromptView, EditView:
		m.input, cmd = m.input.Update(msg)
	case SceneListView:
		m.sceneList, cmd = m.sceneList.Update(msg)
	}
	return m, cmd
}

func (m *Model) selected() (models.Scene, bool) {
	item, ok := m.sceneList.SelectedItem().(sceneItem)
	if !ok {
		return models.Scene{}, false
	}
	return item.scene, true
}

func (m *Model) refreshScenes() {
	index := m.sceneList.Index()
	m.sceneList.SetItems(sceneItems(m.store.Scenes()))
	if index < m.store.Len() {
		m.sceneList.Select(index)
	}
}

func (m *Model) startGenerate(prompt string) tea.Cmd {
	m.view = GeneratingView
	m.err = nil
	m.progress = tasks.ProgressUpdate{Message: "Generating content..."}
	return m.startJob(func(progress chan<- tasks.ProgressUpdate) Msg {
		return generatedMsg(m.engine.Generate(m.ctx, progress, prompt))
	})
}

func (m *Model) startAssemble() tea.Cmd {
	req := tasks.AssembleRequest{Script: m.opts.Script, Scenes: m.store.Scenes()}
	return m.startJob(func(progress chan<- tasks.ProgressUpdate) Msg {
		return assembledMsg(m.engine.Assemble(m.ctx, progress, req))
	})
}

// startJob runs fn in the background and streams its progress updates until it finishes.
func (m *Model) startJob(fn func(progress chan<- tasks.ProgressUpdate) Msg) tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.done = done

	go func() {
		done <- fn(progress)
		close(progress)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) clearJob() {
	m.progressChan = nil
	m.done = nil
}

func (m *Model) save(job *models.RenderJob) tea.Cmd {
	if m.opts.Save == nil {
		return nil
	}
	snap := Snapshot{
		Prompt:     m.opts.Prompt,
		Script:     m.opts.Script,
		SocialPost: m.opts.SocialPost,
		Scenes:     m.store.Scenes(),
		Job:        job,
	}
	return func() tea.Msg {
		return savedMsg(m.opts.Save(m.ctx, snap))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PromptView:
		return m.renderPrompt()
	case GeneratingView, RenderView:
		return m.renderWorking()
	case SceneListView:
		return m.renderSceneList()
	case EditView:
		return m.renderEdit()
	case ConfirmView:
		return m.renderConfirm()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderPrompt() string {
	title := styles.title.Render("New Video")
	var errView string
	if m.err != nil {
		errView = "\n" + styles.err.Render(fmt.Sprintf("Generation failed: %v", m.err)) + "\n"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.input.View(), errView, helpView)
}

func (m *Model) renderWorking() string {
	title := "Generating Content"
	if m.view == RenderView {
		title = "Rendering Video"
	}

	status := m.progress.Message
	if status == "" {
		status = "Processing..."
	}
	if m.progress.Total > 0 {
		status = fmt.Sprintf("%s (%d/%d)", status, m.progress.Step, m.progress.Total)
	}

	return fmt.Sprintf("%s\n\n%s %s\n\n%s",
		styles.title.Render(title),
		m.spinner.View(), status,
		m.help.ShortHelpView([]key.Binding{m.keys.quit}),
	)
}

func (m *Model) renderSceneList() string {
	footer := fmt.Sprintf("%d scenes • ~%s", m.store.Len(), formatter.FormatSeconds(m.store.EstimatedDuration()))
	if missing := m.store.Missing(); len(missing) > 0 {
		footer += " • " + styles.warn.Render("missing videos: "+joinIDs(missing))
	} else if m.store.Len() > 0 {
		footer += " • " + styles.ok.Render("ready")
	}
	if m.notice != "" {
		footer += "\n" + m.notice
	}

	helpKeys := []key.Binding{
		m.keys.description, m.keys.duration, m.keys.notes,
		m.keys.video, m.keys.unlink, m.keys.render, m.keys.quit,
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.sceneList.View(), footer, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderEdit() string {
	title := styles.title.Render(fmt.Sprintf("Scene %d: %s", m.editID, m.editField))
	var notice string
	if m.notice != "" {
		notice = "\n" + m.notice + "\n"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.input.View(), notice, helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Render this video?")
	info := fmt.Sprintf("\nScenes: %d\nEstimated length: %s\n",
		m.store.Len(), formatter.FormatSeconds(m.store.EstimatedDuration()))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		var job string
		if m.result != nil && m.result.JobID != "" {
			job = fmt.Sprintf("\nJob: %s", m.result.JobID)
		}
		return fmt.Sprintf("%s%s\n\n%s",
			styles.err.Render(fmt.Sprintf("Render failed: %v", m.err)), job, helpView)
	}
	if m.result == nil || m.result.Job == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Video Ready!")
	info := fmt.Sprintf("\nStatus: %s\nURL: %s\nJob: %s\nUploaded scenes: %d",
		styles.status(m.result.Job.Status), m.result.Job.URL, m.result.JobID, len(m.result.Uploads))
	var notice string
	if m.notice != "" {
		notice = "\n" + m.notice
	}
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, notice, helpView)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
