/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/allbin/go-serialchat/internal/tui/components"
	"github.com/allbin/go-serialchat/internal/tui/keys"
	"github.com/allbin/go-serialchat/internal/tui/models"
	"github.com/allbin/go-serialchat/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect [port]",
	Short: "Open a serial port and exchange messages interactively",
	Long: `Open a serial port in an interactive terminal and exchange text with the
device on the other end.

Without a port argument a picker lists the available ports first.
Features include:
- Sent and received data listed with timestamps
- ASCII and hex sending modes (Tab)
- ASCII and hex display modes
- Opening and closing the port without leaving the UI ('o')
- Message history (↑/↓)

Example usage:
  serialchat connect
  serialchat connect /dev/ttyUSB0
  serialchat connect /dev/ttyUSB0 --baud 9600 --eol crlf
  serialchat connect COM3 --driver bugst`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eolName, _ := cmd.Flags().GetString("eol")
		eol, err := lineEnding(eolName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		portPath := ""
		if len(args) == 1 {
			portPath = args[0]
		}

		if err := runConnectTUI(portPath, baudRate(cmd), eol); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().IntP("baud", "b", 115200, "Baud rate")
	connectCmd.Flags().String("eol", "none", "Line ending appended to ASCII messages: none, lf, cr, crlf")
}

// connectModel represents the Bubble Tea model for the connect command
type connectModel struct {
	*models.SerialModel
	eol string

	picking bool
	picker  *components.PortPicker

	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.ConnectKeys
	pickKeys  keys.PickerKeys
}

func runConnectTUI(portPath string, baud int, eol string) error {
	mgr, log, err := newManager()
	if err != nil {
		return err
	}
	defer shutdown(mgr, log)

	m := &connectModel{
		SerialModel: models.NewSerialModel(mgr, portPath, baud),
		eol:         eol,
		terminal:    components.NewTerminal(0, 0), // Sized by the first WindowSizeMsg
		statusBar:   components.NewStatusBar(portPath),
		input:       components.NewInput("Type message and press Enter to send..."),
		help:        help.New(),
		keys:        keys.NewConnectKeys(),
		pickKeys:    keys.NewPickerKeys(),
	}
	m.statusBar.SetConnectionInfo(&components.ConnectionInfo{
		Driver:   viper.GetString("driver"),
		BaudRate: baud,
	})

	if portPath == "" {
		ports, err := mgr.ListPorts()
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}
		if len(ports) == 0 {
			return errors.New("no serial ports found")
		}
		m.picking = true
		m.picker = components.NewPortPicker(describePorts(ports))
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	bridge := models.NewBridge(p.Send)
	mgr.RegisterObserver(bridge)
	defer mgr.UnregisterObserver(bridge)

	if !m.picking {
		m.startOpen()
	}

	_, err = p.Run()
	return err
}

func (m *connectModel) Init() tea.Cmd {
	return nil
}

func (m *connectModel) startOpen() {
	m.statusBar.SetOpening()
	m.Open()
}

func (m *connectModel) notice(text string, isError bool) {
	m.terminal.AddNotice(components.NoticeMsg{Timestamp: time.Now(), Text: text, IsError: isError})
}

func (m *connectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Input box (with border) and status bar
		verticalMarginHeight := 3 + 1

		m.terminal.SetSize(msg.Width, msg.Height-verticalMarginHeight)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width
		if m.picker != nil {
			m.picker.SetSize(msg.Width, msg.Height-2)
		}
		m.SetReady(true)

		_, cmd := m.terminal.Update(msg)
		return m, cmd

	case models.OpenedMsg:
		m.statusBar.SetOpen()
		m.notice(fmt.Sprintf("Opened %s at %d baud", msg.Port, msg.Baud), false)
		return m, nil

	case models.OpenFailedMsg:
		m.statusBar.SetClosed(msg.Err)
		m.notice(fmt.Sprintf("Could not open %s: %v", msg.Port, msg.Err), true)
		return m, nil

	case models.ClosedMsg:
		m.statusBar.SetClosed(msg.Err)
		if msg.Err != nil {
			m.notice(fmt.Sprintf("Connection lost: %v", msg.Err), true)
		} else {
			m.notice("Port closed", false)
		}
		return m, nil

	case components.DataMsg:
		m.terminal.AddMessage(msg)
		return m, nil

	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		if m.IsInInsertMode() {
			return m.updateInsert(msg)
		}
		return m.updateNormal(msg)

	case tea.MouseMsg:
		if !m.picking {
			_, cmd := m.terminal.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *connectModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.pickKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.pickKeys.Select):
		path, ok := m.picker.Selected()
		if !ok {
			return m, nil
		}
		m.picking = false
		m.SetPortPath(path)
		m.statusBar.SetPortPath(path)
		m.startOpen()
		return m, nil
	}
	return m, m.picker.Update(msg)
}

func (m *connectModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.ToggleConnection):
		if m.statusBar.State() == components.LinkOpening {
			return m, nil
		}
		if m.ToggleConnection() {
			m.statusBar.SetOpening()
		}

	case key.Matches(msg, m.keys.InsertMode):
		m.SetInputMode(models.InputModeInsert)
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Clear):
		m.terminal.Clear()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.ToggleHex):
		m.terminal.ToggleHex()

	case key.Matches(msg, m.keys.ToggleASCII):
		m.terminal.ToggleASCII()

	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	}
	return m, nil
}

func (m *connectModel) updateInsert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.SetInputMode(models.InputModeNormal)
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		m.sendInput()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.input.NavigateHistoryUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.input.NavigateHistoryDown()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sendInput queues the input line; it shows up in the log once written
func (m *connectModel) sendInput() {
	text := m.input.Value()
	if text == "" {
		return
	}
	if !m.IsConnected() {
		m.notice("Port is closed, press Esc then 'o' to open it", true)
		return
	}

	switch m.input.GetSendingMode() {
	case components.SendingModeHex:
		data, err := parseHex(text)
		if err != nil {
			m.notice(fmt.Sprintf("Invalid hex input: %v", err), true)
			return
		}
		m.Manager().SendBytes(data)
	default:
		m.Manager().Send(text + m.eol)
	}

	m.input.AddToHistory(text)
	m.input.SetValue("")
}

func (m *connectModel) View() string {
	if m.picking {
		title := styles.TitleStyle.Render("Select a serial port")
		hint := styles.HintStyle.Render(m.help.View(m.pickKeys))
		return lipgloss.JoinVertical(lipgloss.Left, title, m.picker.View(), hint)
	}

	content := "Initializing..."
	if m.IsReady() {
		content = m.terminal.View()
	}

	input := m.input.ViewWithMode(m.IsInInsertMode())

	m.statusBar.SetWidth(m.terminal.Width())
	statusBar := m.statusBar.ComprehensiveStatusBar(
		m.GetInputMode().String(),
		m.input.GetSendingMode().String(),
		time.Now().Format("15:04:05"),
	)

	sections := []string{styles.ContentBorderStyle.Render(content), input, statusBar}
	if m.help.ShowAll {
		sections = append(sections, styles.HintStyle.Render(m.help.View(m.keys)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
