package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/bluetooth"
)

// fakeAdapter scans until StopScan is called
type fakeAdapter struct {
	enableErr error
	stopped   chan struct{}
	handler   func(bluetooth.Address, bool)
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{stopped: make(chan struct{}, 1)}
}

func (f *fakeAdapter) Enable() error { return f.enableErr }

func (f *fakeAdapter) Scan(func(*bluetooth.Adapter, bluetooth.ScanResult)) error {
	<-f.stopped
	return nil
}

func (f *fakeAdapter) StopScan() error {
	f.stopped <- struct{}{}
	return nil
}

func (f *fakeAdapter) SetConnectHandler(c func(bluetooth.Address, bool)) {
	f.handler = c
}

func TestParsePairedDevices(t *testing.T) {
	out := `Device 00:11:22:33:44:55 MTP-II
Device AA:BB:CC:DD:EE:FF Receipt Printer 80mm
Some unrelated line
Device 12:34:56:78:9A:BC
`
	got := parsePairedDevices(out)
	assert.Equal(t, []Device{
		{Name: "MTP-II", Address: "00:11:22:33:44:55"},
		{Name: "Receipt Printer 80mm", Address: "AA:BB:CC:DD:EE:FF"},
		{Name: "", Address: "12:34:56:78:9A:BC"},
	}, got)

	assert.Empty(t, parsePairedDevices(""))
}

func TestCollector(t *testing.T) {
	c := newCollector()

	assert.True(t, c.add(Device{Address: "BB"}))
	assert.True(t, c.add(Device{Name: "first", Address: "AA"}))
	assert.False(t, c.add(Device{Name: "second", Address: "AA"}))
	assert.False(t, c.add(Device{Name: "named later", Address: "BB"}))

	assert.Equal(t, []Device{
		{Name: "first", Address: "AA"},
		{Name: "named later", Address: "BB"},
	}, c.list())
}

func TestScannerStopScan(t *testing.T) {
	s := newScanner(newFakeAdapter(), nil)
	assert.False(t, s.StopScan())

	type result struct {
		devices []Device
		err     error
	}
	done := make(chan result, 1)
	go func() {
		devices, err := s.Scan(context.Background(), time.Minute, nil)
		done <- result{devices, err}
	}()

	require.Eventually(t, s.StopScan, time.Second, time.Millisecond)
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Empty(t, r.devices)
	case <-time.After(time.Second):
		t.Fatal("scan did not stop")
	}
	assert.False(t, s.StopScan())
}

func TestScannerBusy(t *testing.T) {
	s := newScanner(newFakeAdapter(), nil)

	go s.Scan(context.Background(), time.Minute, nil)
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.stop != nil
	}, time.Second, time.Millisecond)

	_, err := s.Scan(context.Background(), time.Second, nil)
	assert.ErrorIs(t, err, ErrScanInProgress)
	assert.True(t, s.StopScan())
}

func TestScannerWatch(t *testing.T) {
	a := newFakeAdapter()
	s := newScanner(a, nil)

	var got []bool
	require.NoError(t, s.Watch(func(address string, connected bool) {
		assert.Equal(t, bluetooth.Address{}.String(), address)
		got = append(got, connected)
	}))
	require.NotNil(t, a.handler)

	a.handler(bluetooth.Address{}, true)
	a.handler(bluetooth.Address{}, false)
	assert.Equal(t, []bool{true, false}, got)

	broken := newFakeAdapter()
	broken.enableErr = errors.New("no adapter")
	assert.Error(t, newScanner(broken, nil).Watch(func(string, bool) {}))
}
