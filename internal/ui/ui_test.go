package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mcpspotify/internal/services"
	"github.com/desertthunder/mcpspotify/internal/shared"
	"github.com/desertthunder/mcpspotify/internal/tasks"
)

type fakeBuilder struct {
	updates []tasks.ProgressUpdate
	result  *tasks.BuildResult
	err     error
	ctx     context.Context
}

func (f *fakeBuilder) Build(ctx context.Context, req tasks.BuildRequest, progress chan<- tasks.ProgressUpdate) (*tasks.BuildResult, error) {
	f.ctx = ctx
	for _, u := range f.updates {
		progress <- u
	}
	return f.result, f.err
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func builtResult() *tasks.BuildResult {
	return &tasks.BuildResult{
		Playlist: &services.SpotifyPlaylist{
			ID:           "pl-1",
			Name:         "Evening",
			ExternalURLs: services.ExternalURLs{Spotify: "https://open.spotify.com/playlist/pl-1"},
		},
		TrackMatches: []tasks.TrackMatchResult{
			{Query: "Numb", URI: "spotify:track:numb"},
			{Query: "zzzz", Error: shared.ErrNoMatch},
		},
		SuccessCount:    1,
		FailedCount:     1,
		TotalTracks:     2,
		MatchPercentage: 50,
	}
}

// drive runs cmd and feeds the message it yields back into the model until the build completes.
func drive(t *testing.T, m *BuildModel, cmd tea.Cmd) {
	t.Helper()
	for i := 0; i < 20 && m.State() == BuildingView; i++ {
		if cmd == nil {
			t.Fatal("expected a command while building")
		}
		msg := cmd()
		_, cmd = m.Update(msg)
	}
	if m.State() != ResultView {
		t.Fatalf("state = %v, want ResultView", m.State())
	}
}

func TestBuildModel(t *testing.T) {
	req := tasks.BuildRequest{Name: "Evening", Songs: []string{"Numb", "zzzz"}}

	t.Run("starts on confirm view listing songs", func(t *testing.T) {
		m := NewBuildModel(context.Background(), &fakeBuilder{}, req)
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})

		if m.State() != ConfirmView {
			t.Fatalf("state = %v, want ConfirmView", m.State())
		}
		view := m.View()
		if !strings.Contains(view, "Create playlist 'Evening' from 2 songs?") {
			t.Errorf("confirm view missing title:\n%s", view)
		}
		if !strings.Contains(view, "Numb") {
			t.Errorf("confirm view missing song:\n%s", view)
		}
	})

	t.Run("declining quits without building", func(t *testing.T) {
		builder := &fakeBuilder{}
		m := NewBuildModel(context.Background(), builder, req)

		_, cmd := m.Update(keyPress("n"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if !m.Cancelled() {
			t.Error("expected Cancelled() to be true")
		}
		if builder.ctx != nil {
			t.Error("builder should not run")
		}
	})

	t.Run("confirming runs the build and shows the result", func(t *testing.T) {
		builder := &fakeBuilder{
			updates: []tasks.ProgressUpdate{
				{Phase: tasks.FetchUser, Step: 1, Total: 1, Message: "Fetching Spotify user..."},
				{Phase: tasks.SearchTracks, Step: 1, Total: 2, Message: "[1/2] ✓ Numb"},
			},
			result: builtResult(),
		}
		m := NewBuildModel(context.Background(), builder, req)

		m.Update(keyPress("y"))
		if m.State() != BuildingView {
			t.Fatalf("state = %v, want BuildingView", m.State())
		}
		if !strings.Contains(m.View(), "Building Playlist") {
			t.Errorf("building view missing title:\n%s", m.View())
		}

		drive(t, m, m.waitForProgress())

		result, err := m.Result()
		if err != nil || result == nil {
			t.Fatalf("Result() = %v, %v", result, err)
		}
		view := m.View()
		for _, want := range []string{"Playlist Created", "pl-1", "1/2", "zzzz"} {
			if !strings.Contains(view, want) {
				t.Errorf("result view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("progress updates render phase", func(t *testing.T) {
		m := NewBuildModel(context.Background(), &fakeBuilder{}, req)
		m.view = BuildingView

		m.Update(progressUpdateMsg{Phase: tasks.SearchTracks, Step: 1, Total: 2, Message: "[1/2] ✓ Numb"})
		view := m.View()
		if !strings.Contains(view, "Searching tracks (1/2)") || !strings.Contains(view, "[1/2] ✓ Numb") {
			t.Errorf("building view:\n%s", view)
		}
	})

	t.Run("failed build shows error and missing songs", func(t *testing.T) {
		result := builtResult()
		result.Playlist = nil
		builder := &fakeBuilder{result: result, err: shared.ErrNoMatch}
		m := NewBuildModel(context.Background(), builder, req)

		_, _ = m.Update(keyPress("enter"))
		drive(t, m, m.waitForProgress())

		if _, err := m.Result(); !errors.Is(err, shared.ErrNoMatch) {
			t.Errorf("Result() err = %v", err)
		}
		view := m.View()
		if !strings.Contains(view, "Build failed") || !strings.Contains(view, "• zzzz") {
			t.Errorf("result view:\n%s", view)
		}
	})

	t.Run("result view quits on q", func(t *testing.T) {
		m := NewBuildModel(context.Background(), &fakeBuilder{}, req)
		m.Update(buildCompleteMsg{result: builtResult()})

		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.Cancelled() {
			t.Error("completed build should not be cancelled")
		}
	})

	t.Run("abort during build cancels the context", func(t *testing.T) {
		m := NewBuildModel(context.Background(), &fakeBuilder{}, req)
		m.view = BuildingView

		m.Update(keyPress("ctrl+c"))
		if !m.Cancelled() {
			t.Error("expected Cancelled() to be true")
		}
		if m.ctx.Err() == nil {
			t.Error("expected build context to be cancelled")
		}
	})
}

func TestPalette(t *testing.T) {
	p := NewPalette("#000000", "#000000", "#000000", "#000000", "#000000")
	for name, got := range map[string]string{
		"Title":  p.Title("hello"),
		"OK":     p.OK("hello"),
		"Err":    p.Err("hello"),
		"Warn":   p.Warn("hello"),
		"Help":   p.Help("hello"),
		"Header": p.Header("hello"),
	} {
		if !strings.Contains(got, "hello") {
			t.Errorf("%s() = %q, want text preserved", name, got)
		}
	}
	if Styles() == nil {
		t.Error("Styles() returned nil")
	}
}
