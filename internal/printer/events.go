package printer

import "escpos-print/internal/layout"

// EventState is the kind of an asynchronous printer notification
type EventState string

const (
	EventConnected    EventState = "CONNECTED"
	EventDisconnected EventState = "DISCONNECTED"
	EventDeviceFound  EventState = "DEVICE_FOUND"
)

// DeviceInfo identifies the device an event is about
type DeviceInfo struct {
	Name       string `json:"name"`
	MACAddress string `json:"macAddress"`
}

// Event is a connection state change or a discovered device
type Event struct {
	State      EventState `json:"state"`
	DeviceInfo DeviceInfo `json:"deviceInfo"`
}

// EventHandler receives events. It is called without any pool lock held
// and must not block for long.
type EventHandler func(Event)

// Constants returns the identifiers callers use to interpret paper sizes
// and events.
func Constants() map[string]string {
	out := map[string]string{
		"BLUETOOTH_CONNECTED":    string(EventConnected),
		"BLUETOOTH_DISCONNECTED": string(EventDisconnected),
		"BLUETOOTH_DEVICE_FOUND": string(EventDeviceFound),
	}
	for _, size := range layout.AllSizes {
		out[string(size)] = string(size)
	}
	return out
}
