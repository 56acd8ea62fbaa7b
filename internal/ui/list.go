package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/repx/internal/models"
)

var (
	_ list.Item = programItem{}
	_ list.Item = dayItem{}
)

// programItem wraps [models.Program] to implement [list.Item].
type programItem struct {
	program *models.Program
}

func (i programItem) FilterValue() string { return i.program.Name }
func (i programItem) Title() string       { return i.program.Name }
func (i programItem) Description() string {
	if i.program.Description != "" {
		return i.program.Description
	}
	return fmt.Sprintf("program #%d", i.program.Sequence)
}

// dayItem wraps [models.Day] to implement [list.Item].
type dayItem struct {
	day *models.Day
}

func (i dayItem) FilterValue() string { return i.day.Name }
func (i dayItem) Title() string {
	return fmt.Sprintf("%d. %s", i.day.Position+1, i.day.Name)
}
func (i dayItem) Description() string {
	if i.day.RestDay {
		return "rest day"
	}
	return "workout"
}

func newList(items []list.Item, title string, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetSize(listSize(width, height))
	return l
}

// listSize leaves room for the help line and flash messages.
func listSize(width, height int) (int, int) {
	return max(width-4, 0), max(height-8, 0)
}
