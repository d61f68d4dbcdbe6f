package components

import (
	"fmt"

	"github.com/allbin/go-serialchat/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// LinkState is the connection state shown in the status bar
type LinkState int

const (
	LinkClosed LinkState = iota
	LinkOpening
	LinkOpen
	LinkFailed
)

type ConnectionInfo struct {
	Driver   string
	BaudRate int
}

type StatusBar struct {
	portPath       string
	state          LinkState
	err            error
	width          int
	connectionInfo *ConnectionInfo
}

func NewStatusBar(portPath string) *StatusBar {
	return &StatusBar{portPath: portPath}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetPortPath(portPath string) {
	sb.portPath = portPath
}

func (sb *StatusBar) SetConnectionInfo(info *ConnectionInfo) {
	sb.connectionInfo = info
}

func (sb *StatusBar) SetOpening() {
	sb.state = LinkOpening
	sb.err = nil
}

func (sb *StatusBar) SetOpen() {
	sb.state = LinkOpen
	sb.err = nil
}

// SetClosed marks the link closed; err is the failure that closed it, if any
func (sb *StatusBar) SetClosed(err error) {
	if err != nil {
		sb.state = LinkFailed
	} else {
		sb.state = LinkClosed
	}
	sb.err = err
}

func (sb *StatusBar) State() LinkState {
	return sb.state
}

func (sb *StatusBar) Err() error {
	return sb.err
}

// ComprehensiveStatusBar renders mode, port, link state, settings and clock on one line
func (sb *StatusBar) ComprehensiveStatusBar(inputMode, sendingMode string, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	modeBackground := colors.Blue
	if inputMode == "INSERT" {
		modeBackground = colors.Green
	}
	mode := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(modeBackground).
		Bold(true).
		Padding(0, 1).
		Render(inputMode)

	port := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.portPath)

	var indicatorColor lipgloss.Color
	var indicator string
	switch sb.state {
	case LinkOpen:
		indicatorColor, indicator = colors.Green, "●"
	case LinkOpening:
		indicatorColor, indicator = colors.Yellow, "○"
	case LinkFailed:
		indicatorColor, indicator = colors.Red, "✗"
	default:
		indicatorColor, indicator = colors.Red, "○"
	}
	connectionIndicator := lipgloss.NewStyle().Foreground(indicatorColor).Render(indicator)

	connInfo := "⚡ serial"
	if sb.connectionInfo != nil {
		connInfo = fmt.Sprintf("⚡ %d baud 8N1 %s", sb.connectionInfo.BaudRate, sb.connectionInfo.Driver)
	}
	connectionDetails := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(connInfo)

	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{mode, port, connectionIndicator}
	if inputMode == "INSERT" {
		left = append(left, lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, connectionDetails, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
