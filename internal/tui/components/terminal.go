package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Terminal is the scrolling log of sent and received data
type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	entries   []any // DataMsg or NoticeMsg
	lines     []string
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(false, true), // Chat view: text only
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
}

func (t *Terminal) Width() int {
	return t.viewport.Width
}

func (t *Terminal) AddMessage(msg DataMsg) {
	t.entries = append(t.entries, msg)
	t.appendLine(t.formatter.FormatMessage(msg))
}

func (t *Terminal) AddNotice(msg NoticeMsg) {
	t.entries = append(t.entries, msg)
	t.appendLine(t.formatter.FormatNotice(msg))
}

// Len returns the number of entries in the log
func (t *Terminal) Len() int {
	return len(t.entries)
}

func (t *Terminal) appendLine(line string) {
	t.lines = append(t.lines, line)
	t.viewport.SetContent(strings.Join(t.lines, "\n"))
	t.viewport.GotoBottom()
}

// refresh re-renders every entry after a display mode change
func (t *Terminal) refresh() {
	t.lines = t.lines[:0]
	for _, e := range t.entries {
		switch e := e.(type) {
		case DataMsg:
			t.lines = append(t.lines, t.formatter.FormatMessage(e))
		case NoticeMsg:
			t.lines = append(t.lines, t.formatter.FormatNotice(e))
		}
	}
	t.viewport.SetContent(strings.Join(t.lines, "\n"))
	t.viewport.GotoBottom()
}

func (t *Terminal) Clear() {
	t.entries = nil
	t.lines = nil
	t.viewport.SetContent("")
}

func (t *Terminal) ToggleHex() {
	t.formatter.ToggleHex()
	t.refresh()
}

func (t *Terminal) ToggleASCII() {
	t.formatter.ToggleASCII()
	t.refresh()
}

func (t *Terminal) GetDisplayMode() DisplayMode {
	return t.formatter.GetDisplayMode()
}

func (t *Terminal) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// Key messages stay with the connect model so they don't scroll the log
	switch msg.(type) {
	case tea.WindowSizeMsg, tea.MouseMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return t.viewport, cmd
	default:
		return t.viewport, nil
	}
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
