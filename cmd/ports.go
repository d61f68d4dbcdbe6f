/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"path/filepath"
	"strings"

	"github.com/allbin/go-serialchat"
)

// describePorts returns a PortInfo for every path, with USB details from
// the go.bug.st enumerator where it knows the port
func describePorts(paths []string) []serial.PortInfo {
	usb := make(map[string]serial.PortInfo)
	if details, err := (serial.BugstDriver{}).Details(); err == nil {
		for _, d := range details {
			usb[d.Path] = d
		}
	}

	infos := make([]serial.PortInfo, 0, len(paths))
	for _, path := range paths {
		if d, ok := usb[path]; ok {
			infos = append(infos, d)
			continue
		}
		if info, err := serial.GetPortInfo(path); err == nil {
			infos = append(infos, *info)
			continue
		}
		infos = append(infos, serial.PortInfo{
			Name:        filepath.Base(path),
			Path:        path,
			Description: "Serial Port",
		})
	}
	return infos
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []string, filterType string) []string {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		name := strings.ToLower(filepath.Base(port))
		switch filterType {
		case "usb":
			if strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm") {
				filtered = append(filtered, port)
			}
		case "standard":
			if strings.HasPrefix(name, "ttys") && !strings.HasPrefix(name, "ttysac") {
				filtered = append(filtered, port)
			}
		case "arm":
			if strings.HasPrefix(name, "ttyama") {
				filtered = append(filtered, port)
			}
		}
	}
	return filtered
}
