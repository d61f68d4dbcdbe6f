package components

import (
	"github.com/allbin/go-serialchat"
	"github.com/allbin/go-serialchat/internal/tui/colors"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

const (
	columnKeyPort    = "port"
	columnKeyType    = "type"
	columnKeyUSB     = "usb"
	columnKeyProduct = "product"
)

// NewPortTable builds a table with one row per port
func NewPortTable(ports []serial.PortInfo) table.Model {
	columns := []table.Column{
		table.NewColumn(columnKeyPort, "Port", 16),
		table.NewColumn(columnKeyType, "Type", 22),
		table.NewColumn(columnKeyUSB, "VID:PID", 11),
		table.NewFlexColumn(columnKeyProduct, "Product", 1),
	}

	rows := make([]table.Row, 0, len(ports))
	for _, p := range ports {
		usb := ""
		if p.IsUSB() {
			usb = p.VendorID + ":" + p.ProductID
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyPort:    p.Path,
			columnKeyType:    p.Description,
			columnKeyUSB:     usb,
			columnKeyProduct: p.Product,
		}))
	}

	return table.New(columns).
		WithRows(rows).
		WithTargetWidth(80).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(colors.Text).
			BorderForeground(colors.Surface2).
			Align(lipgloss.Left)).
		HeaderStyle(lipgloss.NewStyle().
			Foreground(colors.Mauve).
			Bold(true)).
		HighlightStyle(lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Blue)).
		WithFooterVisibility(false)
}

// PortPicker lets the user choose a port before connecting
type PortPicker struct {
	table table.Model
	count int
}

func NewPortPicker(ports []serial.PortInfo) *PortPicker {
	return &PortPicker{
		table: NewPortTable(ports).Focused(true),
		count: len(ports),
	}
}

func (pp *PortPicker) SetSize(width, height int) {
	pageSize := height - 4 // header and borders
	if pageSize < 1 {
		pageSize = 1
	}
	pp.table = pp.table.WithTargetWidth(width).WithPageSize(pageSize)
}

func (pp *PortPicker) Len() int {
	return pp.count
}

// Selected returns the path of the highlighted port
func (pp *PortPicker) Selected() (string, bool) {
	if pp.count == 0 {
		return "", false
	}
	path, ok := pp.table.HighlightedRow().Data[columnKeyPort].(string)
	return path, ok && path != ""
}

func (pp *PortPicker) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	pp.table, cmd = pp.table.Update(msg)
	return cmd
}

func (pp *PortPicker) View() string {
	if pp.count == 0 {
		return lipgloss.NewStyle().Foreground(colors.Overlay1).Render("No serial ports found")
	}
	return pp.table.View()
}
