package emaillist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/theme"
	"github.com/nhle/mailsort/internal/triage"
	"github.com/nhle/mailsort/internal/ui"
)

// EmailItem wraps a model.Email so it can be used in a bubbles/list.
type EmailItem struct {
	Email model.Email
}

// FilterValue returns the string used for fuzzy filtering.
func (i EmailItem) FilterValue() string { return i.Email.Subject }

// marks is shared by reference between the Model and its delegate so the
// delegate always renders the current selection.
type marks struct {
	selection triage.Selection
	now       func() time.Time
}

// ItemDelegate renders an email as a checkbox line plus a summary line.
type ItemDelegate struct {
	marks *marks
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single email.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(EmailItem)
	if !ok {
		return
	}
	e := ei.Email

	box := "[ ]"
	if d.marks.selection.Has(e.ID) {
		box = lipgloss.NewStyle().Foreground(theme.Active.Accent).Render("[x]")
	}

	width := m.Width() - 8
	subject := ui.Truncate(e.Subject, width/2)
	meta := theme.DimmedStyle.Render(fmt.Sprintf("%s · %s",
		ui.Truncate(e.From, width/3),
		ui.RelativeTime(e.ReceivedAt, d.marks.now()),
	))
	first := fmt.Sprintf("%s %s  %s", box, subject, meta)
	second := "    " + theme.HelpStyle.Render(ui.Truncate(e.Summary, width))

	if index == m.Index() {
		first = theme.SelectedItemStyle.Render(first)
		second = theme.SelectedItemStyle.Render(second)
	} else {
		first = theme.ListItemStyle.Render(first)
		second = theme.ListItemStyle.Render(second)
	}

	fmt.Fprint(w, first+"\n"+second)
}
