package printer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

// bluetoothTransport reaches a Bluetooth SPP printer either through an
// RFCOMM socket (address is a MAC) or through an already bound serial
// device such as /dev/rfcomm0 or COM3.
type bluetoothTransport struct {
	address      string
	channel      int
	baudRate     int
	writeTimeout time.Duration
	port         io.ReadWriteCloser
}

func newBluetoothTransport(address string, opts TransportOptions) *bluetoothTransport {
	channel := opts.BluetoothChannel
	if channel <= 0 {
		channel = DefaultBluetoothChannel
	}
	baud := opts.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &bluetoothTransport{
		address:      address,
		channel:      channel,
		baudRate:     baud,
		writeTimeout: opts.WriteTimeout,
	}
}

// IsSerialDevice reports whether address names a serial port rather than a
// Bluetooth MAC address
func IsSerialDevice(address string) bool {
	upper := strings.ToUpper(address)
	return strings.HasPrefix(address, "/dev/") ||
		strings.HasPrefix(address, `\\.\`) ||
		(strings.HasPrefix(upper, "COM") && len(upper) > 3)
}

func (t *bluetoothTransport) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if IsSerialDevice(t.address) {
		port, err := openSerialPort(t.address, t.baudRate)
		if err != nil {
			return err
		}
		t.port = port
		return nil
	}

	sock, err := openRFCOMM(ctx, t.address, t.channel)
	if err != nil {
		return err
	}
	t.port = sock
	return nil
}

func (t *bluetoothTransport) Write(p []byte) (int, error) {
	if t.port == nil {
		return 0, ErrClosed
	}
	return writeWithTimeout(t.port, p, t.writeTimeout)
}

func (t *bluetoothTransport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

// openSerialPort opens a serial port with default settings for printer
func openSerialPort(name string, baudRate int) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", name, err)
	}
	return port, nil
}
