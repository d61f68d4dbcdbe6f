package models

import (
	"time"

	"github.com/allbin/go-serialchat"
	"github.com/allbin/go-serialchat/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// OpenedMsg reports that the port is open
type OpenedMsg struct {
	Port string
	Baud int
}

// OpenFailedMsg reports that an open attempt failed; the port stays closed
type OpenFailedMsg struct {
	Port string
	Err  error
}

// ClosedMsg reports that the port closed, with the I/O error that caused it if any
type ClosedMsg struct {
	Err error
}

// Bridge turns connection manager callbacks into bubbletea messages.
// Send is normally (*tea.Program).Send, which hands the message to the UI loop.
type Bridge struct {
	send func(tea.Msg)
}

var _ serial.StateObserver = (*Bridge)(nil)

func NewBridge(send func(tea.Msg)) *Bridge {
	return &Bridge{send: send}
}

func (b *Bridge) OnDataSent(text string) {
	b.send(components.DataMsg{Timestamp: time.Now(), Data: []byte(text), Direction: components.DirectionTX})
}

func (b *Bridge) OnDataReceived(text string) {
	b.send(components.DataMsg{Timestamp: time.Now(), Data: []byte(text), Direction: components.DirectionRX})
}

func (b *Bridge) OnOpened(port string, baud int) {
	b.send(OpenedMsg{Port: port, Baud: baud})
}

func (b *Bridge) OnOpenFailed(port string, err error) {
	b.send(OpenFailedMsg{Port: port, Err: err})
}

func (b *Bridge) OnClosed(err error) {
	b.send(ClosedMsg{Err: err})
}

// SerialModel is the state shared by the connect views: the manager, the
// selected port and the input mode. It is only touched from the UI loop.
type SerialModel struct {
	manager  *serial.Manager
	portPath string
	baud     int

	ready     bool
	inputMode InputMode
}

func NewSerialModel(manager *serial.Manager, portPath string, baud int) *SerialModel {
	return &SerialModel{
		manager:  manager,
		portPath: portPath,
		baud:     baud,
	}
}

func (m *SerialModel) Manager() *serial.Manager {
	return m.manager
}

func (m *SerialModel) GetPortPath() string {
	return m.portPath
}

func (m *SerialModel) SetPortPath(portPath string) {
	m.portPath = portPath
}

func (m *SerialModel) Baud() int {
	return m.baud
}

func (m *SerialModel) IsConnected() bool {
	return m.manager.IsOpen()
}

// Open asks the manager to open the selected port
func (m *SerialModel) Open() {
	m.manager.Open(m.portPath, m.baud)
}

// ToggleConnection closes an open port or opens a closed one.
// It reports true when an open was requested.
func (m *SerialModel) ToggleConnection() bool {
	if m.manager.IsOpen() {
		m.manager.Close()
		return false
	}
	m.Open()
	return true
}

func (m *SerialModel) IsReady() bool {
	return m.ready
}

func (m *SerialModel) SetReady(ready bool) {
	m.ready = ready
}

func (m *SerialModel) GetInputMode() InputMode {
	return m.inputMode
}

func (m *SerialModel) SetInputMode(mode InputMode) {
	m.inputMode = mode
}

func (m *SerialModel) IsInInsertMode() bool {
	return m.inputMode == InputModeInsert
}
