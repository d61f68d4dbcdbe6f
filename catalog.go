package serial

import "sort"

// PortCatalog enumerates the ports a driver can open
type PortCatalog struct {
	driver Driver
}

// NewPortCatalog returns a catalog backed by driver
func NewPortCatalog(driver Driver) PortCatalog {
	return PortCatalog{driver: driver}
}

// List returns the available port names, sorted and without duplicates.
// A driver failure is returned as-is rather than masked as an empty list.
func (c PortCatalog) List() ([]string, error) {
	ports, err := c.driver.ListPorts()
	if err != nil {
		return nil, err
	}

	sorted := make([]string, 0, len(ports))
	seen := make(map[string]struct{}, len(ports))
	for _, p := range ports {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	return sorted, nil
}
