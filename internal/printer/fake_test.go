package printer

import (
	"bytes"
	"context"
	"sync"
)

// fakeTransport records everything written to it
type fakeTransport struct {
	mu         sync.Mutex
	address    string
	block      chan struct{} // Connect waits for it when set
	buf        bytes.Buffer
	connects   int
	closes     int
	chunk      int // max bytes accepted per Write, 0 for all
	connectErr error
	writeErr   error
	closeErr   error
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connectErr
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.chunk > 0 && len(p) > f.chunk {
		p = p[:f.chunk]
	}
	return f.buf.Write(p)
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return f.closeErr
}

func (f *fakeTransport) Bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Clone(f.buf.Bytes())
}

func (f *fakeTransport) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf.Reset()
}

func (f *fakeTransport) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// fakeDialer hands out one new fakeTransport per dial and remembers them
type fakeDialer struct {
	mu    sync.Mutex
	dials []*fakeTransport
	setup func(*fakeTransport)
}

func (d *fakeDialer) dial(kind Kind, address string, port int) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := &fakeTransport{address: address}
	if d.setup != nil {
		d.setup(t)
	}
	d.dials = append(d.dials, t)
	return t, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func (d *fakeDialer) last() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[len(d.dials)-1]
}
