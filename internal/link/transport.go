// Package link defines the radio capability the focuser core requires from
// its environment, and provides the BLE implementation of it.
//
// The core never talks to the platform radio stack directly. It is handed a
// Transport at construction, which keeps the connection state machine
// testable against a scripted transport and keeps the platform dependency in
// one file.
package link

import "errors"

// Errors reported by transports.
var (
	ErrRadioUnavailable = errors.New("link: radio unavailable")
	ErrNotConnected     = errors.New("link: not connected to device")
	ErrAlreadyConnected = errors.New("link: already connected to a device")
	ErrDataPointMissing = errors.New("link: data point not found on device")
)

// Peripheral is an opaque handle to a discovered device. It is valid for one
// connection attempt; after a disconnect the device must be rediscovered.
type Peripheral struct {
	Name   string // advertised local name
	ID     string // platform device identifier (MAC or UUID)
	RSSI   int16  // signal strength in dBm
	Handle any    // platform-specific address, owned by the transport
}

// DataPoint is one addressable characteristic on the connected device.
type DataPoint interface {
	// Write writes without waiting for an acknowledgement.
	Write(data []byte) error

	// Read starts an asynchronous read. The done callback is invoked from a
	// transport goroutine with the value or an error, never both.
	Read(done func(data []byte, err error))

	// Subscribe enables notifications, invoking fn once per update until
	// Unsubscribe is called or the link drops.
	Subscribe(fn func(data []byte)) error

	// Unsubscribe disables notifications.
	Unsubscribe() error
}

// Transport is the radio capability interface. Implementations deliver all
// callbacks (scan results, link loss, read completions, notifications) from
// their own goroutines; callers are expected to marshal them onto their own
// serial context.
type Transport interface {
	// Enable powers on the radio. Returns ErrRadioUnavailable (possibly
	// wrapped) when no usable radio exists.
	Enable() error

	// Scan starts scanning for peripherals advertising the given service,
	// invoking found once per discovered device until StopScan. Scan does
	// not block.
	Scan(serviceUUID string, found func(Peripheral)) error

	// StopScan stops an in-progress scan. Safe to call when not scanning.
	StopScan()

	// Connect establishes the physical link to a discovered peripheral.
	Connect(p Peripheral) error

	// DiscoverDataPoints resolves the given characteristic UUIDs within the
	// service. It fails unless every requested data point is found.
	DiscoverDataPoints(serviceUUID string, pointUUIDs []string) (map[string]DataPoint, error)

	// Disconnect tears down the physical link. Safe to call when not
	// connected.
	Disconnect() error

	// SetLinkLossHandler sets the callback invoked when the link drops for
	// any reason other than an explicit Disconnect.
	SetLinkLossHandler(fn func(err error))
}
