package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of adaptive colors the styles are built from.
type Palette struct {
	Accent lipgloss.AdaptiveColor
	Good   lipgloss.AdaptiveColor
	Warn   lipgloss.AdaptiveColor
	Bad    lipgloss.AdaptiveColor
	Muted  lipgloss.AdaptiveColor
	Text   lipgloss.AdaptiveColor
	Subtle lipgloss.AdaptiveColor
	Border lipgloss.AdaptiveColor
}

// Palettes lists the themes selectable through display.theme.
var Palettes = map[string]Palette{
	"default": {
		Accent: lipgloss.AdaptiveColor{Dark: "#818CF8", Light: "#4F46E5"},
		Good:   lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"},
		Warn:   lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"},
		Bad:    lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"},
		Muted:  lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"},
		Text:   lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"},
		Subtle: lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"},
		Border: lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"},
	},
	"mono": {
		Accent: lipgloss.AdaptiveColor{Dark: "#FFFFFF", Light: "#000000"},
		Good:   lipgloss.AdaptiveColor{Dark: "#E0E0E0", Light: "#202020"},
		Warn:   lipgloss.AdaptiveColor{Dark: "#C0C0C0", Light: "#404040"},
		Bad:    lipgloss.AdaptiveColor{Dark: "#FFFFFF", Light: "#000000"},
		Muted:  lipgloss.AdaptiveColor{Dark: "#808080", Light: "#808080"},
		Text:   lipgloss.AdaptiveColor{Dark: "#F0F0F0", Light: "#101010"},
		Subtle: lipgloss.AdaptiveColor{Dark: "#404040", Light: "#D0D0D0"},
		Border: lipgloss.AdaptiveColor{Dark: "#606060", Light: "#A0A0A0"},
	},
}

// Active is the palette the current styles were built from.
var Active Palette

var (
	// HeaderStyle is used for the application title bar.
	HeaderStyle lipgloss.Style
	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style
	// ErrorBarStyle replaces StatusBarStyle while an error is shown.
	ErrorBarStyle lipgloss.Style
	// PanelStyle wraps the detail, help and palette panels.
	PanelStyle lipgloss.Style
	// TitleStyle is used for section headings inside a screen.
	TitleStyle lipgloss.Style
	// ListItemStyle is the base style for items in a list.
	ListItemStyle lipgloss.Style
	// SelectedItemStyle highlights the currently focused list item.
	SelectedItemStyle lipgloss.Style
	// HelpStyle is used for keyboard shortcut hints and help text.
	HelpStyle lipgloss.Style
	// DimmedStyle renders secondary text such as senders and timestamps.
	DimmedStyle lipgloss.Style
	// NoticeStyle renders transient notices on a screen.
	NoticeStyle lipgloss.Style
	// LabelStyle renders field labels in the email detail view.
	LabelStyle lipgloss.Style
)

func init() {
	use(Palettes["default"])
}

// Apply rebuilds every style from the named palette. An empty name selects
// the default palette.
func Apply(name string) error {
	if name == "" {
		name = "default"
	}
	p, ok := Palettes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	use(p)
	return nil
}

func use(p Palette) {
	Active = p

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Text).
		Background(p.Accent).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Subtle).
		Padding(0, 1)

	ErrorBarStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(p.Bad).
		Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Text).
		MarginBottom(1)

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(p.Accent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Accent)

	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)

	DimmedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	NoticeStyle = lipgloss.NewStyle().
		Foreground(p.Warn).
		Italic(true)

	LabelStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		Width(10)
}

// CountStyle returns the badge style for a category email count.
// Empty categories are dimmed.
func CountStyle(count int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if count == 0 {
		return base.Foreground(Active.Muted)
	}
	return base.Foreground(Active.Good)
}

// ConnectionStyle returns the style for an account connection badge.
func ConnectionStyle(connected bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if connected {
		return base.Foreground(Active.Good)
	}
	return base.Foreground(Active.Bad)
}

// HealthStyle returns the header style for a backend health state name.
func HealthStyle(state string) lipgloss.Style {
	switch state {
	case "ok":
		return HeaderStyle.Foreground(Active.Good)
	case "down":
		return HeaderStyle.Foreground(Active.Warn)
	default:
		return HeaderStyle
	}
}
