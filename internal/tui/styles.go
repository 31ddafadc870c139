package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lektrico/internal/ui"
	"github.com/muurk/lektrico/internal/version"
)

// AppName is shown in the dashboard title bar.
const AppName = "LEKTRICO WATCH"

// AppVersion returns the application version from the version package
func AppVersion() string {
	return version.Version
}

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			Italic(true)

	// BodyStyle frames the telemetry block
	BodyStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.PrimaryColor).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ui.ErrorColor).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			PaddingTop(1)
)
