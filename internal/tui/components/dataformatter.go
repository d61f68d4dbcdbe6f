package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-serialchat/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// Direction tells sent data from received data
type Direction int

const (
	DirectionRX Direction = iota
	DirectionTX
)

func (d Direction) String() string {
	if d == DirectionTX {
		return "TX"
	}
	return "RX"
}

// DataMsg is one chunk of data shown in the terminal
type DataMsg struct {
	Timestamp time.Time
	Data      []byte
	Direction Direction
}

// NoticeMsg is a line of UI feedback, e.g. an open failure or a bad hex input
type NoticeMsg struct {
	Timestamp time.Time
	Text      string
	IsError   bool
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

// Printable replaces every byte outside printable ASCII with a dot
func Printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func (df *DataFormatter) FormatMessage(msg DataMsg) string {
	var indicator string
	if msg.Direction == DirectionTX {
		indicator = lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Render("↗ TX")
	} else {
		indicator = lipgloss.NewStyle().
			Foreground(colors.Sky).
			Bold(true).
			Render("↙ RX")
	}

	var parts []string
	if df.mode.ShowASCII {
		parts = append(parts, Printable(msg.Data))
	}
	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}

	return fmt.Sprintf("%s %s: %s", formatTimestamp(msg.Timestamp), indicator, strings.Join(parts, "  "))
}

func (df *DataFormatter) FormatNotice(msg NoticeMsg) string {
	color := colors.Overlay1
	if msg.IsError {
		color = colors.Red
	}
	text := lipgloss.NewStyle().Foreground(color).Italic(true).Render("-- " + msg.Text)
	return fmt.Sprintf("%s %s", formatTimestamp(msg.Timestamp), text)
}

func formatTimestamp(ts time.Time) string {
	return lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render(fmt.Sprintf("[%s]", ts.Format("15:04:05.000")))
}
