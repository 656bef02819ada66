//go:build linux

package printer

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// openRFCOMM connects to a Bluetooth device via an RFCOMM socket.
// mac: Bluetooth MAC address in format "XX:XX:XX:XX:XX:XX"
func openRFCOMM(ctx context.Context, mac string, channel int) (io.ReadWriteCloser, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("invalid MAC address %s: %w", mac, err)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("MAC address must be 6 bytes, got %d", len(hw))
	}

	// SockaddrRFCOMM wants the address little-endian
	var addr [6]byte
	for i := 0; i < 6; i++ {
		addr[i] = hw[5-i]
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket: %w", err)
	}

	sa := &unix.SockaddrRFCOMM{Addr: addr, Channel: uint8(channel)}
	err = connectAbortable(ctx,
		func() error { return unix.Connect(fd, sa) },
		func() { unix.Shutdown(fd, unix.SHUT_RDWR) },
		func() { unix.Close(fd) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", mac, err)
	}

	return os.NewFile(uintptr(fd), "rfcomm:"+mac), nil
}
