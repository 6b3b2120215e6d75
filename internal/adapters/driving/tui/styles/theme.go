// Package styles holds the colours and lipgloss styles of the chat TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme is a palette. Accent marks the assistant and the input box,
// Highlight marks the user and source labels.
type Theme struct {
	Accent    lipgloss.Color
	Highlight lipgloss.Color
	Muted     lipgloss.Color
	Border    lipgloss.Color
	Bar       lipgloss.Color

	// Confidence colours, best first.
	Good, Fair, Poor lipgloss.Color
}

func DefaultTheme() *Theme {
	return &Theme{
		Accent:    "#7C3AED",
		Highlight: "#06B6D4",
		Muted:     "#6C7086",
		Border:    "#45475A",
		Bar:       "#181825",
		Good:      "#A6E3A1",
		Fair:      "#F9E2AF",
		Poor:      "#F38BA8",
	}
}

type Styles struct {
	theme *Theme

	Title     lipgloss.Style
	Muted     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Source    lipgloss.Style

	Transcript lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
}

func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	box := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(c).Padding(0, 1)
	}

	return &Styles{
		theme:      theme,
		Title:      fg(theme.Accent).Bold(true),
		Muted:      fg(theme.Muted),
		User:       fg(theme.Highlight).Bold(true),
		Assistant:  fg(theme.Accent).Bold(true),
		Source:     fg(theme.Highlight),
		Transcript: box(theme.Border),
		InputField: box(theme.Accent),
		StatusBar:  fg(theme.Muted).Background(theme.Bar).Padding(0, 1),
	}
}

func DefaultStyles() *Styles {
	return NewStyles(nil)
}

func (s *Styles) Theme() *Theme {
	return s.theme
}

// Confidence colours a score: good from 0.75, fair from 0.5.
func (s *Styles) Confidence(c float64) lipgloss.Style {
	colour := s.theme.Poor
	switch {
	case c >= 0.75:
		colour = s.theme.Good
	case c >= 0.5:
		colour = s.theme.Fair
	}
	return lipgloss.NewStyle().Foreground(colour)
}
