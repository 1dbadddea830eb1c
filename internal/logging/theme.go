package logging

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors used for CLI output.
type Theme struct {
	Primary   lipgloss.Color // titles
	Secondary lipgloss.Color // method and pane names
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Success   lipgloss.Color
	Info      lipgloss.Color
	TextMuted lipgloss.Color // hints, unavailable entries
}

// DarkTheme is the default theme.
func DarkTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#fab283"),
		Secondary: lipgloss.Color("#5c9cf5"),
		Error:     lipgloss.Color("#e06c75"),
		Warning:   lipgloss.Color("#f5a742"),
		Success:   lipgloss.Color("#7fd88f"),
		Info:      lipgloss.Color("#56b6c2"),
		TextMuted: lipgloss.Color("#808080"),
	}
}

// LightTheme suits bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#b35c00"),
		Secondary: lipgloss.Color("#0550ae"),
		Error:     lipgloss.Color("#cf222e"),
		Warning:   lipgloss.Color("#bf8700"),
		Success:   lipgloss.Color("#116329"),
		Info:      lipgloss.Color("#0969da"),
		TextMuted: lipgloss.Color("#656d76"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	Title lipgloss.Style
	Name  lipgloss.Style
	Good  lipgloss.Style
	Bad   lipgloss.Style
	Warn  lipgloss.Style
	Info  lipgloss.Style
	Dim   lipgloss.Style
}

// NewStyles builds all styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Name:  lipgloss.NewStyle().Foreground(t.Secondary),
		Good:  lipgloss.NewStyle().Foreground(t.Success),
		Bad:   lipgloss.NewStyle().Foreground(t.Error),
		Warn:  lipgloss.NewStyle().Foreground(t.Warning),
		Info:  lipgloss.NewStyle().Foreground(t.Info),
		Dim:   lipgloss.NewStyle().Foreground(t.TextMuted),
	}
}
