package models

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/allbin/go-serialchat"
	"github.com/allbin/go-serialchat/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type idleHandle struct{}

func (idleHandle) Read([]byte) (int, error) {
	time.Sleep(5 * time.Millisecond)
	return 0, nil
}

func (idleHandle) Write(p []byte) (int, error) { return len(p), nil }
func (idleHandle) Close() error                { return nil }

type idleDriver struct{}

func (idleDriver) ListPorts() ([]string, error) { return []string{"/dev/ttyUSB0"}, nil }

func (idleDriver) Open(string, int) (serial.Handle, error) { return idleHandle{}, nil }

type msgLog struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (l *msgLog) send(msg tea.Msg) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *msgLog) all() []tea.Msg {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]tea.Msg(nil), l.msgs...)
}

func TestBridge(t *testing.T) {
	log := &msgLog{}
	b := NewBridge(log.send)

	cause := errors.New("unplugged")
	b.OnOpened("/dev/ttyUSB0", 9600)
	b.OnDataSent("ping")
	b.OnDataReceived("pong")
	b.OnOpenFailed("/dev/ttyUSB1", cause)
	b.OnClosed(cause)

	msgs := log.all()
	require.Len(t, msgs, 5)
	require.Equal(t, OpenedMsg{Port: "/dev/ttyUSB0", Baud: 9600}, msgs[0])

	sent, ok := msgs[1].(components.DataMsg)
	require.True(t, ok)
	require.Equal(t, components.DirectionTX, sent.Direction)
	require.Equal(t, "ping", string(sent.Data))

	received, ok := msgs[2].(components.DataMsg)
	require.True(t, ok)
	require.Equal(t, components.DirectionRX, received.Direction)
	require.Equal(t, "pong", string(received.Data))

	require.Equal(t, OpenFailedMsg{Port: "/dev/ttyUSB1", Err: cause}, msgs[3])
	require.Equal(t, ClosedMsg{Err: cause}, msgs[4])
}

func TestSerialModelToggleConnection(t *testing.T) {
	mgr, err := serial.NewManager(idleDriver{})
	require.NoError(t, err)
	defer mgr.Shutdown(context.Background())

	log := &msgLog{}
	mgr.RegisterObserver(NewBridge(log.send))

	m := NewSerialModel(mgr, "/dev/ttyUSB0", 9600)
	require.False(t, m.IsConnected())

	require.True(t, m.ToggleConnection())
	require.Eventually(t, m.IsConnected, time.Second, time.Millisecond)

	require.False(t, m.ToggleConnection())
	require.Eventually(t, func() bool { return !m.IsConnected() }, time.Second, time.Millisecond)

	require.Eventually(t, func() bool { return len(log.all()) == 2 }, time.Second, time.Millisecond)
	require.Equal(t, OpenedMsg{Port: "/dev/ttyUSB0", Baud: 9600}, log.all()[0])
	require.Equal(t, ClosedMsg{}, log.all()[1])
}

func TestInputModeString(t *testing.T) {
	require.Equal(t, "NORMAL", InputModeNormal.String())
	require.Equal(t, "INSERT", InputModeInsert.String())
}
