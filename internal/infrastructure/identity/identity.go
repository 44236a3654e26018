// Package identity reads the hub's machine identifier.
//
// Hiome hubs are identified by the MAC address of their primary network
// interface. The identifier tags logs, metrics and health messages so a
// report can be traced back to a physical installation.
package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptyMachineID is returned when the identifier file exists but holds
// nothing but whitespace.
var ErrEmptyMachineID = errors.New("identity: machine id file is empty")

// ReadMachineID returns the trimmed contents of path.
//
// A missing or unreadable file is an error; the caller treats it as fatal
// at startup since diagnostics without a site tag cannot be attributed.
func ReadMachineID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading machine id: %w", err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyMachineID, path)
	}
	return id, nil
}
