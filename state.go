package focuser

// State is the connection lifecycle state. Exactly one State exists per
// client and it is the single source of truth for whether I/O may be
// issued: every read, write and subscribe is gated behind StateReady.
type State int

const (
	// StateDisconnected is the initial state; no link, no handles.
	StateDisconnected State = iota
	// StateScanning means the client is looking for a controller
	// advertising the focuser service.
	StateScanning
	// StateConnecting means a matching controller was found and the
	// physical link is being established.
	StateConnecting
	// StateDiscovering means the link is up but the characteristic table
	// has not been fully resolved yet.
	StateDiscovering
	// StateReady means the link is usable: every data point has a valid
	// handle and commands are written immediately.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateScanning:
		return "Scanning"
	case StateConnecting:
		return "Connecting"
	case StateDiscovering:
		return "Discovering"
	case StateReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Status is the human-readable connection status reported through the
// OnStatusChange callback. The set of values is closed.
type Status int

const (
	StatusDisconnected Status = iota
	StatusSearching
	StatusDeviceFound
	StatusConnected
	StatusReady
	StatusRadioUnavailable
)

// String returns the display form of the status.
func (s Status) String() string {
	switch s {
	case StatusSearching:
		return "SearchingForDevice"
	case StatusDeviceFound:
		return "DeviceFound"
	case StatusConnected:
		return "Connected"
	case StatusReady:
		return "Ready"
	case StatusRadioUnavailable:
		return "RadioUnavailable"
	default:
		return "Disconnected"
	}
}
