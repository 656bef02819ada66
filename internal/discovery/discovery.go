// Package discovery finds printers: nearby Bluetooth LE advertisers, devices
// already paired with the host and local serial ports.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"
)

// DefaultScanTimeout bounds a scan when the caller gives no deadline
const DefaultScanTimeout = 10 * time.Second

var (
	ErrScanInProgress = errors.New("a scan is already running")
	ErrNotSupported   = errors.New("not supported on this platform")
)

// Device is a printer candidate
type Device struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// adapter is the part of *bluetooth.Adapter the scanner drives
type adapter interface {
	Enable() error
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
	SetConnectHandler(c func(device bluetooth.Address, connected bool))
}

// Scanner runs Bluetooth LE scans on the default adapter, one at a time
type Scanner struct {
	adapter adapter
	log     *zap.Logger

	enableOnce sync.Once
	enableErr  error
	scanning   sync.Mutex

	mu   sync.Mutex
	stop context.CancelFunc // ends the running scan
}

func NewScanner(log *zap.Logger) *Scanner {
	return newScanner(bluetooth.DefaultAdapter, log)
}

func newScanner(a adapter, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{adapter: a, log: log}
}

func (s *Scanner) enable() error {
	s.enableOnce.Do(func() { s.enableErr = s.adapter.Enable() })
	if s.enableErr != nil {
		return fmt.Errorf("enable bluetooth adapter: %w", s.enableErr)
	}
	return nil
}

// Scan listens for advertisements until ctx is done, timeout elapses or
// StopScan is called and returns every device seen, sorted by address.
// found is called once per new device while the scan runs.
func (s *Scanner) Scan(ctx context.Context, timeout time.Duration, found func(Device)) ([]Device, error) {
	if !s.scanning.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.scanning.Unlock()

	if err := s.enable(); err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.mu.Lock()
	s.stop = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.stop = nil
		s.mu.Unlock()
	}()

	seen := newCollector()
	done := make(chan error, 1)
	go func() {
		done <- s.adapter.Scan(func(_ *bluetooth.Adapter, res bluetooth.ScanResult) {
			d := Device{Name: res.LocalName(), Address: res.Address.String()}
			if seen.add(d) {
				s.log.Debug("device found", zap.String("address", d.Address), zap.String("name", d.Name))
				if found != nil {
					found(d)
				}
			}
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("bluetooth scan: %w", err)
		}
	case <-ctx.Done():
		if err := s.adapter.StopScan(); err != nil {
			s.log.Warn("stop scan", zap.Error(err))
		}
		<-done
	}

	devices := seen.list()
	s.log.Info("scan finished", zap.Int("devices", len(devices)))
	return devices, nil
}

// StopScan ends the running scan early and reports whether one was running.
// The interrupted Scan still returns the devices seen so far.
func (s *Scanner) StopScan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return false
	}
	s.stop()
	return true
}

// Watch calls fn whenever a Bluetooth device connects to or disconnects from
// the host adapter, including devices the pool never dialed.
func (s *Scanner) Watch(fn func(address string, connected bool)) error {
	if err := s.enable(); err != nil {
		return err
	}
	s.adapter.SetConnectHandler(func(device bluetooth.Address, connected bool) {
		s.log.Debug("adapter connection changed", zap.String("address", device.String()), zap.Bool("connected", connected))
		fn(device.String(), connected)
	})
	return nil
}

// collector keeps the first sighting of every address. A later sighting
// fills in a name the first advertisement lacked.
type collector struct {
	mu      sync.Mutex
	devices map[string]Device
}

func newCollector() *collector {
	return &collector{devices: make(map[string]Device)}
}

func (c *collector) add(d Device) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.devices[d.Address]; ok {
		if prev.Name == "" && d.Name != "" {
			c.devices[d.Address] = d
		}
		return false
	}
	c.devices[d.Address] = d
	return true
}

func (c *collector) list() []Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Device, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// SerialPorts lists the serial devices of the host. Paired Bluetooth SPP
// printers bound with rfcomm (Linux) or given a COM port (Windows) show up
// here and can be connected to with the bluetooth type.
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}

// parsePairedDevices reads `bluetoothctl devices Paired` output.
// Format: "Device XX:XX:XX:XX:XX:XX DeviceName"
func parsePairedDevices(out string) []Device {
	var devices []Device
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Device ") {
			continue
		}
		mac, name, _ := strings.Cut(strings.TrimPrefix(line, "Device "), " ")
		if mac == "" {
			continue
		}
		devices = append(devices, Device{Name: name, Address: mac})
	}
	return devices
}
