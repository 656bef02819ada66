//go:build windows

package discovery

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// Paired returns the COM ports Windows created for paired Bluetooth SPP
// devices. The port name is the address to connect with.
func Paired(ctx context.Context) ([]Device, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, `HARDWARE\DEVICEMAP\SERIALCOMM`, registry.READ)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}

	var devices []Device
	for _, name := range names {
		port, _, err := key.GetStringValue(name)
		if err != nil {
			continue
		}
		lower := strings.ToLower(name)
		if strings.Contains(lower, "bth") || strings.Contains(lower, "bluetooth") {
			devices = append(devices, Device{Name: name, Address: port})
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Address < devices[j].Address })
	return devices, nil
}
