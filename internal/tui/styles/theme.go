package styles

import (
	"github.com/allbin/go-serialchat/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Picker header
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	HintStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay1).
			Padding(0, 1)

	// Data log
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	// CLI output
	InfoStyle = lipgloss.NewStyle().
			Foreground(colors.Mauve).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true)
)
