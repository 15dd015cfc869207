package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailsort/internal/theme"
)

// Layout manages the terminal frame: a one-line header, the content area
// and a one-line status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title on the left and the user and backend
// health on the right.
func (l Layout) RenderHeader(title, user string, health lipgloss.Style, healthText string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	userRendered := theme.HeaderStyle.Render(user)
	healthRendered := health.Render(healthText)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(userRendered) -
		lipgloss.Width(healthRendered)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler(theme.HeaderStyle, gap),
		userRendered,
		healthRendered,
	)
}

// RenderStatusBar renders the bottom bar. A non-empty errText replaces
// the hints and switches to the error style.
func (l Layout) RenderStatusBar(hints, errText string) string {
	style := theme.StatusBarStyle
	text := hints
	if errText != "" {
		style = theme.ErrorBarStyle
		text = errText
	}

	rendered := style.MaxWidth(l.Width).Render(text)
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		rendered,
		filler(style, l.Width-lipgloss.Width(rendered)),
	)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar. The content is padded to the
// content height so the status bar stays at the bottom.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	body := lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		body,
		statusBar,
	)
}

func filler(style lipgloss.Style, width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(width).
		Background(style.GetBackground()).
		Render("")
}
