package printer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Kind selects the transport used to reach a printer
type Kind string

const (
	KindBluetooth Kind = "bluetooth"
	KindNetwork   Kind = "network"
)

// ParseKind maps the connect type argument onto a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindBluetooth:
		return KindBluetooth, nil
	case KindNetwork:
		return KindNetwork, nil
	case "":
		return "", ErrMissingArguments
	default:
		return "", fmt.Errorf("%w: unknown printer type %q", ErrMissingArguments, s)
	}
}

// Transport is a byte pipe to one printer
type Transport interface {
	Connect(ctx context.Context) error
	Write(p []byte) (int, error)
	Close() error
}

// TransportFunc builds an unconnected transport for a printer address
type TransportFunc func(kind Kind, address string, port int) (Transport, error)

// TransportOptions tune the built-in transports
type TransportOptions struct {
	WriteTimeout     time.Duration
	BluetoothChannel int // RFCOMM channel, 1 for most printers
	BaudRate         int // used when the bluetooth address is a serial device
}

// Defaults for the built-in transports
const (
	DefaultWriteTimeout     = 10 * time.Second
	DefaultBluetoothChannel = 1
	DefaultBaudRate         = 115200
	DefaultNetworkPort      = 9100
)

// DefaultTransportOptions returns the options used by NewPool
func DefaultTransportOptions() TransportOptions {
	return TransportOptions{
		WriteTimeout:     DefaultWriteTimeout,
		BluetoothChannel: DefaultBluetoothChannel,
		BaudRate:         DefaultBaudRate,
	}
}

// NewTransportFunc returns a TransportFunc creating bluetooth and network
// transports configured with opts.
func NewTransportFunc(opts TransportOptions) TransportFunc {
	return func(kind Kind, address string, port int) (Transport, error) {
		switch kind {
		case KindBluetooth:
			return newBluetoothTransport(address, opts), nil
		case KindNetwork:
			return newNetworkTransport(address, port, opts), nil
		default:
			return nil, fmt.Errorf("%w: unknown printer type %q", ErrMissingArguments, kind)
		}
	}
}

// writeWithTimeout writes p to w, giving up after timeout.
// On timeout the pending write is abandoned; closing w releases it.
func writeWithTimeout(w io.Writer, p []byte, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		return w.Write(p)
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := w.Write(p)
		done <- result{n, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.n, r.err
	case <-timer.C:
		return 0, ErrTimeout
	}
}

// connectAbortable runs connect until it returns or ctx is done. When ctx
// wins, abort is called to unblock connect and release runs only after
// connect has returned, so the resource it uses is never freed under it.
func connectAbortable(ctx context.Context, connect func() error, abort, release func()) error {
	done := make(chan error, 1)
	go func() {
		done <- connect()
	}()

	select {
	case err := <-done:
		if err != nil {
			release()
		}
		return err
	case <-ctx.Done():
		abort()
		go func() {
			<-done
			release()
		}()
		return ctx.Err()
	}
}
