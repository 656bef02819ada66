//go:build linux

package discovery

import (
	"context"
	"fmt"
	"os/exec"
)

// Paired returns the devices BlueZ has paired with
func Paired(ctx context.Context) ([]Device, error) {
	out, err := exec.CommandContext(ctx, "bluetoothctl", "devices", "Paired").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list paired devices: %w", err)
	}
	return parsePairedDevices(string(out)), nil
}
