package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mcpspotify/internal/tasks"
)

// ViewState represents the current view of the build screen.
type ViewState int

const (
	ConfirmView ViewState = iota
	BuildingView
	ResultView
)

// Builder runs a playlist build, reporting progress on the given channel.
type Builder interface {
	Build(ctx context.Context, req tasks.BuildRequest, progress chan<- tasks.ProgressUpdate) (*tasks.BuildResult, error)
}

// BuildModel represents the build screen state.
type BuildModel struct {
	ctx       context.Context
	stop      context.CancelFunc
	view      ViewState
	builder   Builder
	request   tasks.BuildRequest
	songs     list.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	progress  tasks.ProgressUpdate
	updates   chan tasks.ProgressUpdate
	done      chan buildCompleteMsg
	result    *tasks.BuildResult
	err       error
	cancelled bool
}

// NewBuildModel creates a build screen for req.
func NewBuildModel(ctx context.Context, builder Builder, req tasks.BuildRequest) *BuildModel {
	songs := list.New(songItems(req.Songs), list.NewDefaultDelegate(), 0, 0)
	songs.Title = fmt.Sprintf("Songs for '%s'", req.Name)
	songs.SetShowHelp(false)

	ctx, stop := context.WithCancel(ctx)
	return &BuildModel{
		ctx:     ctx,
		stop:    stop,
		view:    ConfirmView,
		builder: builder,
		request: req,
		songs:   songs,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(NewStyle("#1DB954"))),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the build outcome once the screen has finished.
func (m *BuildModel) Result() (*tasks.BuildResult, error) { return m.result, m.err }

// Cancelled reports whether the user declined the build.
func (m *BuildModel) Cancelled() bool { return m.cancelled }

// State returns the current view.
func (m *BuildModel) State() ViewState { return m.view }

func (m *BuildModel) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *BuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.songs.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case BuildingView:
			if key.Matches(msg, m.keys.cancel) {
				m.cancelled = true
				m.stop()
				return m, tea.Quit
			}
		case ResultView:
			if key.Matches(msg, m.keys.quit) || msg.Type == tea.KeyEnter {
				m.stop()
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != BuildingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case buildCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.updates = nil
		m.done = nil
		return m, nil
	}

	return m, nil
}

func (m *BuildModel) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = BuildingView
		return m, tea.Batch(m.spinner.Tick, m.startBuild())
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.cancelled = true
		m.stop()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.songs, cmd = m.songs.Update(msg)
	return m, cmd
}

func (m *BuildModel) startBuild() tea.Cmd {
	m.updates = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan buildCompleteMsg, 1)

	updates, done := m.updates, m.done
	go func() {
		result, err := m.builder.Build(m.ctx, m.request, updates)
		close(updates)
		done <- buildCompleteMsg{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *BuildModel) waitForProgress() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		update, ok := <-updates
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *BuildModel) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case BuildingView:
		return m.renderBuilding()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *BuildModel) renderConfirm() string {
	title := styles.Title(fmt.Sprintf("Create playlist '%s' from %d songs?", m.request.Name, len(m.request.Songs)))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.songs.View(), helpView)
}

func (m *BuildModel) renderBuilding() string {
	title := styles.Title("Building Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchUser:
		phase = "Fetching Spotify user..."
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.AddTracks:
		phase = "Adding tracks..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), phase, m.progress.Message)
}

func (m *BuildModel) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.err != nil {
		var b strings.Builder
		b.WriteString(styles.Err(fmt.Sprintf("Build failed: %v", m.err)))
		b.WriteString(m.renderMissing())
		fmt.Fprintf(&b, "\n\n%s", helpView)
		return b.String()
	}

	if m.result == nil || m.result.Playlist == nil {
		return styles.Err("No result available") + "\n\n" + helpView
	}

	title := styles.OK("✓ Playlist Created!")
	info := fmt.Sprintf(
		"\nPlaylist: %s (ID: %s)\nMatched: %d/%d (%.1f%%)",
		m.result.Playlist.Name,
		m.result.Playlist.ID,
		m.result.SuccessCount,
		m.result.TotalTracks,
		m.result.MatchPercentage,
	)
	if url := m.result.Playlist.ExternalURLs.Spotify; url != "" {
		info += "\nURL: " + url
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, m.renderMissing(), helpView)
}

func (m *BuildModel) renderMissing() string {
	if m.result == nil || m.result.FailedCount == 0 {
		return ""
	}
	out := fmt.Sprintf("\n\n%s", styles.Warn(fmt.Sprintf("No match for %d songs:", m.result.FailedCount)))
	for _, name := range m.result.Missing() {
		out += fmt.Sprintf("\n  • %s", name)
	}
	return out
}

// RunBuild shows the build screen until the user quits and returns the build outcome.
//
// A declined build returns a nil result and nil error.
func RunBuild(ctx context.Context, builder Builder, req tasks.BuildRequest, opts ...tea.ProgramOption) (*tasks.BuildResult, error) {
	model := NewBuildModel(ctx, builder, req)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return nil, fmt.Errorf("error running build screen: %w", err)
	}
	if model.Cancelled() {
		return nil, nil
	}
	return model.Result()
}
