package link

import (
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"
)

// BLE is the tinygo bluetooth implementation of Transport. It manages a
// single adapter and at most one connected device.
type BLE struct {
	adapter *bluetooth.Adapter

	mu         sync.Mutex
	scanning   bool
	connected  bool
	device     bluetooth.Device
	onLinkLoss func(error)
}

// NewBLE returns a Transport backed by the default platform adapter.
func NewBLE() *BLE {
	return &BLE{adapter: bluetooth.DefaultAdapter}
}

// Enable powers on the adapter and installs the disconnect watcher.
func (b *BLE) Enable() error {
	if err := b.adapter.Enable(); err != nil {
		return fmt.Errorf("%w: %v", ErrRadioUnavailable, err)
	}

	b.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		b.mu.Lock()
		wasConnected := b.connected
		b.connected = false
		cb := b.onLinkLoss
		b.mu.Unlock()

		if wasConnected && cb != nil {
			cb(fmt.Errorf("link: connection to %s lost", device.Address.String()))
		}
	})

	return nil
}

// Scan starts a background scan for devices advertising serviceUUID.
// Each matching device is reported once.
func (b *BLE) Scan(serviceUUID string, found func(Peripheral)) error {
	svc, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return fmt.Errorf("link: bad service uuid %q: %w", serviceUUID, err)
	}

	b.mu.Lock()
	if b.scanning {
		b.mu.Unlock()
		return nil
	}
	b.scanning = true
	b.mu.Unlock()

	go func() {
		seen := make(map[string]bool)

		// Scan blocks until StopScan; run it off the caller's goroutine
		// the same way the adapter examples do.
		err := b.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !result.AdvertisementPayload.HasServiceUUID(svc) {
				return
			}

			addr := result.Address.String()
			if seen[addr] {
				return
			}
			seen[addr] = true

			found(Peripheral{
				Name:   result.LocalName(),
				ID:     addr,
				RSSI:   result.RSSI,
				Handle: result.Address,
			})
		})

		b.mu.Lock()
		b.scanning = false
		cb := b.onLinkLoss
		b.mu.Unlock()

		if err != nil && cb != nil {
			cb(fmt.Errorf("link: scan failed: %w", err))
		}
	}()

	return nil
}

// StopScan stops the background scan if one is running.
func (b *BLE) StopScan() {
	b.mu.Lock()
	scanning := b.scanning
	b.mu.Unlock()

	if scanning {
		b.adapter.StopScan()
	}
}

// Connect establishes the physical link to a scanned peripheral.
func (b *BLE) Connect(p Peripheral) error {
	b.mu.Lock()
	if b.connected {
		b.mu.Unlock()
		return ErrAlreadyConnected
	}
	b.mu.Unlock()

	addr, ok := p.Handle.(bluetooth.Address)
	if !ok {
		return fmt.Errorf("link: peripheral %s has no usable address", p.ID)
	}

	device, err := b.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("link: connect to %s: %w", p.ID, err)
	}

	b.mu.Lock()
	b.device = device
	b.connected = true
	b.mu.Unlock()

	return nil
}

// DiscoverDataPoints resolves every requested characteristic within the
// service. Missing characteristics fail the whole discovery; the caller
// never sees a partial table.
func (b *BLE) DiscoverDataPoints(serviceUUID string, pointUUIDs []string) (map[string]DataPoint, error) {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		return nil, ErrNotConnected
	}
	device := b.device
	b.mu.Unlock()

	svc, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("link: bad service uuid %q: %w", serviceUUID, err)
	}

	wanted := make([]bluetooth.UUID, 0, len(pointUUIDs))
	for _, s := range pointUUIDs {
		u, err := bluetooth.ParseUUID(s)
		if err != nil {
			return nil, fmt.Errorf("link: bad characteristic uuid %q: %w", s, err)
		}
		wanted = append(wanted, u)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{svc})
	if err != nil {
		return nil, fmt.Errorf("link: discover services: %w", err)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("%w: service %s", ErrDataPointMissing, serviceUUID)
	}

	chars, err := services[0].DiscoverCharacteristics(wanted)
	if err != nil {
		return nil, fmt.Errorf("link: discover characteristics: %w", err)
	}

	points := make(map[string]DataPoint, len(pointUUIDs))
	for i, s := range pointUUIDs {
		for _, ch := range chars {
			if ch.UUID() == wanted[i] {
				points[s] = &bleDataPoint{char: ch}
				break
			}
		}
		if _, ok := points[s]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrDataPointMissing, s)
		}
	}

	return points, nil
}

// Disconnect tears down the link.
func (b *BLE) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return nil
	}
	b.connected = false
	return b.device.Disconnect()
}

// SetLinkLossHandler sets the unexpected-disconnect callback.
func (b *BLE) SetLinkLossHandler(fn func(error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onLinkLoss = fn
}

// bleDataPoint wraps a discovered characteristic.
type bleDataPoint struct {
	char bluetooth.DeviceCharacteristic
}

// Write writes without response, falling back to an acknowledged write on
// stacks that reject unacknowledged writes for this characteristic.
func (d *bleDataPoint) Write(data []byte) error {
	if _, err := d.char.WriteWithoutResponse(data); err != nil {
		if _, err := d.char.Write(data); err != nil {
			return fmt.Errorf("link: write: %w", err)
		}
	}
	return nil
}

// Read performs the blocking platform read on its own goroutine and reports
// the result through done.
func (d *bleDataPoint) Read(done func([]byte, error)) {
	go func() {
		buf := make([]byte, 32)
		n, err := d.char.Read(buf)
		if err != nil {
			done(nil, fmt.Errorf("link: read: %w", err))
			return
		}
		done(buf[:n], nil)
	}()
}

// Subscribe enables notifications for the characteristic.
func (d *bleDataPoint) Subscribe(fn func([]byte)) error {
	if err := d.char.EnableNotifications(fn); err != nil {
		return fmt.Errorf("link: subscribe: %w", err)
	}
	return nil
}

// Unsubscribe disables notifications.
func (d *bleDataPoint) Unsubscribe() error {
	return d.char.EnableNotifications(nil)
}
