package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = songItem{}

// songItem wraps a requested song name to implement [list.Item].
type songItem struct {
	index int
	name  string
}

func (i songItem) FilterValue() string { return i.name }
func (i songItem) Title() string       { return i.name }
func (i songItem) Description() string { return fmt.Sprintf("#%d", i.index+1) }

func songItems(songs []string) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{index: i, name: s}
	}
	return items
}
