package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// networkTransport talks raw ESC/POS to a TCP print server (port 9100)
type networkTransport struct {
	endpoint     string
	writeTimeout time.Duration
	conn         net.Conn
}

func newNetworkTransport(host string, port int, opts TransportOptions) *networkTransport {
	if port <= 0 {
		port = DefaultNetworkPort
	}
	return &networkTransport{
		endpoint:     net.JoinHostPort(host, strconv.Itoa(port)),
		writeTimeout: opts.WriteTimeout,
	}
}

func (t *networkTransport) Connect(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.endpoint)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.endpoint, err)
	}
	t.conn = conn
	return nil
}

func (t *networkTransport) Write(p []byte) (int, error) {
	if t.conn == nil {
		return 0, ErrClosed
	}
	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return 0, err
		}
	}

	n, err := t.conn.Write(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return n, err
}

func (t *networkTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
