//go:build !linux

package printer

import (
	"context"
	"fmt"
	"io"
)

// openRFCOMM is only available on Linux. Elsewhere paired SPP printers show
// up as serial ports (COMn on Windows, /dev/tty.* on macOS); connect with
// that name instead of the MAC address.
func openRFCOMM(ctx context.Context, mac string, channel int) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("rfcomm socket to %s: %w", mac, ErrNotSupported)
}
