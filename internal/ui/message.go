package ui

import (
	"github.com/desertthunder/mcpspotify/internal/tasks"
)

type progressUpdateMsg tasks.ProgressUpdate

type buildCompleteMsg struct {
	result *tasks.BuildResult
	err    error
}
