package battery

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SysfsReader reads the state of charge from the Linux power_supply class
// (/sys/class/power_supply/<supply>/capacity).
type SysfsReader struct {
	path string
}

// NewSysfsReader creates a reader for the named power supply.
func NewSysfsReader(supply string) *SysfsReader {
	return &SysfsReader{
		path: filepath.Join("/sys/class/power_supply", supply, "capacity"),
	}
}

// Read parses the kernel-reported capacity percentage.
func (r *SysfsReader) Read() (float64, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return 0, fmt.Errorf("read capacity: %w", err)
	}

	level, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse capacity %q: %w", strings.TrimSpace(string(raw)), err)
	}

	return level, nil
}
