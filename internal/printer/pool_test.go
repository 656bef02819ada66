package printer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addr = "AA:BB"

func newTestPool(t *testing.T, grace time.Duration, opts ...Option) (*Pool, *fakeDialer) {
	t.Helper()
	d := &fakeDialer{}
	opts = append([]Option{WithGracePeriod(grace), WithDialer(d.dial)}, opts...)
	p := NewPool(opts...)
	t.Cleanup(p.Close)
	return p, d
}

func TestPoolConnectIdempotent(t *testing.T) {
	p, d := newTestPool(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, addr, 0, "bluetooth"))
	first, err := p.Session(addr)
	require.NoError(t, err)

	require.NoError(t, p.Connect(ctx, addr, 0, "bluetooth"))
	second, err := p.Session(addr)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, d.count())
	assert.Equal(t, []string{addr}, p.Addresses())
}

func TestPoolConnectErrors(t *testing.T) {
	p, _ := newTestPool(t, time.Minute)
	ctx := context.Background()

	tests := []struct {
		name    string
		address string
		typ     string
	}{
		{"empty address", "", "bluetooth"},
		{"empty type", addr, ""},
		{"unknown type", addr, "usb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Connect(ctx, tt.address, 0, tt.typ)
			assert.ErrorIs(t, err, ErrMissingArguments)
		})
	}
	assert.Empty(t, p.Addresses())
}

func TestPoolConnectFailure(t *testing.T) {
	d := &fakeDialer{setup: func(f *fakeTransport) { f.connectErr = errors.New("host is down") }}
	p := NewPool(WithDialer(d.dial))
	defer p.Close()

	err := p.Connect(context.Background(), "10.0.0.9", 9100, "network")
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Empty(t, p.Addresses())

	_, err = p.Session("10.0.0.9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPoolScenario(t *testing.T) {
	p, d := newTestPool(t, DefaultGracePeriod)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, addr, 0, "bluetooth"))
	require.NoError(t, p.PrintLn(addr, "Hello"))
	assert.Equal(t, []byte("Hello\n"), d.last().Bytes())

	start := time.Now()
	require.NoError(t, p.Disconnect(addr))
	assert.Less(t, time.Since(start), time.Second)

	require.NoError(t, p.PrintLn(addr, "Hello"))
	assert.Equal(t, []byte("Hello\nHello\n"), d.last().Bytes())
	assert.Equal(t, 1, d.count())
	assert.Zero(t, d.last().Closes())
}

func TestPoolOperationCancelsDisconnect(t *testing.T) {
	p, d := newTestPool(t, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, addr, 0, "network"))
	require.NoError(t, p.Disconnect(addr))
	require.NoError(t, p.Print(addr, "x"))
	require.NoError(t, p.Print(addr, "y"))

	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, []string{addr}, p.Addresses())
	assert.Zero(t, d.last().Closes())
	assert.Equal(t, []byte("xy"), d.last().Bytes())
	assert.Equal(t, 1, d.count())
}

func TestPoolDisconnectFires(t *testing.T) {
	p, d := newTestPool(t, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, addr, 0, "bluetooth"))
	require.NoError(t, p.Disconnect(addr))

	require.Eventually(t, func() bool { return len(p.Addresses()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, d.last().Closes())

	err := p.Print(addr, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	// a new connect allocates a fresh session
	require.NoError(t, p.Connect(ctx, addr, 0, "bluetooth"))
	assert.Equal(t, 2, d.count())
	require.NoError(t, p.Print(addr, "x"))
	assert.Equal(t, []byte("x"), d.last().Bytes())
}

func TestPoolDisconnectRearms(t *testing.T) {
	p, d := newTestPool(t, 200*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, addr, 0, "network"))
	require.NoError(t, p.Disconnect(addr))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, p.Disconnect(addr))
	time.Sleep(120 * time.Millisecond)

	// past the first deadline, before the second one
	assert.Equal(t, []string{addr}, p.Addresses())

	require.Eventually(t, func() bool { return len(p.Addresses()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, d.last().Closes())
}

func TestPoolDisconnectUnknown(t *testing.T) {
	p, _ := newTestPool(t, time.Minute)
	assert.ErrorIs(t, p.Disconnect("nope"), ErrNotFound)
	assert.ErrorIs(t, p.Beep("nope"), ErrNotFound)
}

func TestPoolDisconnectOnError(t *testing.T) {
	d := &fakeDialer{setup: func(f *fakeTransport) { f.closeErr = errors.New("already gone") }}
	p := NewPool(WithDialer(d.dial))
	defer p.Close()
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, addr, 0, "bluetooth"))
	require.NoError(t, p.Disconnect(addr))

	p.DisconnectOnError(addr)
	assert.Empty(t, p.Addresses())
	assert.Equal(t, 1, d.last().Closes())

	// second call is a no-op
	p.DisconnectOnError(addr)
	assert.Equal(t, 1, d.last().Closes())
}

func TestPoolWriteFailureTearsDown(t *testing.T) {
	d := &fakeDialer{setup: func(f *fakeTransport) { f.writeErr = errors.New("broken pipe") }}
	p := NewPool(WithDialer(d.dial))
	defer p.Close()

	require.NoError(t, p.Connect(context.Background(), addr, 0, "bluetooth"))
	err := p.PrintLn(addr, "Hello")
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Empty(t, p.Addresses())
	assert.Equal(t, 1, d.last().Closes())
}

func TestPoolRequestErrorKeepsSession(t *testing.T) {
	p, _ := newTestPool(t, time.Minute)
	require.NoError(t, p.Connect(context.Background(), addr, 0, "bluetooth"))

	assert.ErrorIs(t, p.Print(addr, "€"), ErrEncoding)
	assert.ErrorIs(t, p.PrintImage(addr, "/does/not/exist.png"), ErrIO)
	assert.ErrorIs(t, p.PrintBarcode(addr, "123", "EAN13", 3, 80, "BELOW", "A"), ErrBarcodeSize)
	assert.Equal(t, []string{addr}, p.Addresses())
}

func TestPoolEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []Event
	)
	handler := func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}
	snapshot := func() []Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]Event(nil), events...)
	}

	p, _ := newTestPool(t, 10*time.Millisecond, WithEventHandler(handler))
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, addr, 0, "bluetooth"))
	require.NoError(t, p.Connect(ctx, "192.168.1.50", 9100, "network"))
	require.NoError(t, p.Disconnect(addr))
	require.Eventually(t, func() bool { return len(snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	got := snapshot()
	assert.Equal(t, Event{State: EventConnected, DeviceInfo: DeviceInfo{MACAddress: addr}}, got[0])
	assert.Equal(t, Event{State: EventDisconnected, DeviceInfo: DeviceInfo{MACAddress: addr}}, got[1])
}

func TestPoolConcurrentConnect(t *testing.T) {
	p, d := newTestPool(t, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Connect(ctx, addr, 0, "bluetooth"))
			assert.NoError(t, p.Print(addr, "x"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, d.count())
	assert.Len(t, d.last().Bytes(), 20)
}

func TestPoolSlowDialDoesNotBlockOthers(t *testing.T) {
	release := make(chan struct{})
	d := &fakeDialer{setup: func(f *fakeTransport) {
		if strings.HasPrefix(f.address, "slow") {
			f.block = release
		}
	}}
	p := NewPool(WithDialer(d.dial))
	defer p.Close()
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, "fast", 0, "network"))

	done := make(chan error, 1)
	go func() { done <- p.Connect(ctx, "slow", 0, "network") }()
	require.Eventually(t, func() bool { return d.count() == 2 }, time.Second, time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Print("fast", "x"))
	require.NoError(t, p.Disconnect("fast"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, []string{"fast"}, p.Addresses())

	t.Run("dial honours the caller's deadline", func(t *testing.T) {
		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		err := p.Connect(short, "slow-2", 0, "network")
		assert.ErrorIs(t, err, ErrConnectionFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	// joins the pending dial or finds its session
	second := make(chan error, 1)
	go func() { second <- p.Connect(ctx, "slow", 0, "network") }()

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, <-second)
	assert.Equal(t, 3, d.count())
	assert.Equal(t, []string{"fast", "slow"}, p.Addresses())
}

func TestPoolCloseDuringDial(t *testing.T) {
	release := make(chan struct{})
	d := &fakeDialer{setup: func(f *fakeTransport) { f.block = release }}
	p := NewPool(WithDialer(d.dial))

	done := make(chan error, 1)
	go func() { done <- p.Connect(context.Background(), addr, 0, "bluetooth") }()
	require.Eventually(t, func() bool { return d.count() == 1 }, time.Second, time.Millisecond)

	p.Close()
	close(release)

	err := <-done
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 1, d.last().Closes())
	assert.Empty(t, p.Addresses())

	assert.ErrorIs(t, p.Connect(context.Background(), addr, 0, "bluetooth"), ErrClosed)
}

func TestPoolClose(t *testing.T) {
	p, d := newTestPool(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, "a", 0, "network"))
	require.NoError(t, p.Connect(ctx, "b", 0, "network"))
	require.NoError(t, p.Disconnect("a"))

	p.Close()
	assert.Empty(t, p.Addresses())
	for _, tr := range d.dials {
		assert.Equal(t, 1, tr.Closes())
	}
}

func TestIdleTimer(t *testing.T) {
	t.Run("cancel before fire", func(t *testing.T) {
		fired := make(chan struct{}, 1)
		it := newIdleTimer(20*time.Millisecond, func(it *idleTimer) {
			if it.markFired() {
				fired <- struct{}{}
			}
		})
		assert.True(t, it.cancel())
		assert.False(t, it.cancel())

		select {
		case <-fired:
			t.Fatal("cancelled timer fired")
		case <-time.After(60 * time.Millisecond):
		}
	})

	t.Run("cancel after fire", func(t *testing.T) {
		done := make(chan struct{})
		it := newIdleTimer(time.Millisecond, func(it *idleTimer) {
			it.markFired()
			close(done)
		})
		<-done
		assert.False(t, it.cancel())
		assert.False(t, it.markFired())
	})

	t.Run("nil handle", func(t *testing.T) {
		var it *idleTimer
		assert.False(t, it.cancel())
	})
}
