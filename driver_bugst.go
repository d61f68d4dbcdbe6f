package serial

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	bugst "go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// BugstDriver opens ports through go.bug.st/serial, which also works on
// macOS and Windows
type BugstDriver struct {
	ReadTimeout time.Duration
}

var _ Driver = BugstDriver{}

// ListPorts returns the ports reported by the platform enumerator
func (d BugstDriver) ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}

// Open opens the named port at baud with 8N1 framing
func (d BugstDriver) Open(name string, baud int) (Handle, error) {
	timeout := d.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	p, err := bugst.Open(name, &bugst.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	})
	if err != nil {
		return nil, classifyBugstError(name, err)
	}

	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to flush input: %w", err)
	}

	return &bugstHandle{port: p}, nil
}

// Details returns USB metadata for every port the enumerator can see
func (d BugstDriver) Details() ([]PortInfo, error) {
	list, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	infos := make([]PortInfo, 0, len(list))
	for _, p := range list {
		name := filepath.Base(p.Name)
		info := PortInfo{
			Name:        name,
			Path:        p.Name,
			Description: getPortDescription(name),
		}
		if p.IsUSB {
			info.VendorID = p.VID
			info.ProductID = p.PID
			info.SerialNumber = p.SerialNumber
			info.Product = p.Product
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

func classifyBugstError(name string, err error) error {
	// Errors from open(2) other than EBUSY and EACCES come back unwrapped
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	}

	var perr *bugst.PortError
	if !errors.As(err, &perr) {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}

	switch perr.Code() {
	case bugst.PortNotFound:
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	case bugst.PortBusy:
		return fmt.Errorf("%w: %s", ErrDeviceInUse, name)
	case bugst.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, name)
	case bugst.InvalidSpeed:
		return fmt.Errorf("%w: %s", ErrInvalidBaudRate, name)
	default:
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
}

type bugstHandle struct {
	port bugst.Port
}

func (h *bugstHandle) Read(buf []byte) (int, error) {
	return h.port.Read(buf)
}

func (h *bugstHandle) Write(data []byte) (int, error) {
	return h.port.Write(data)
}

func (h *bugstHandle) Close() error {
	return closeDrained(h.port.Drain, h.port.ResetOutputBuffer, h.port.Close)
}
