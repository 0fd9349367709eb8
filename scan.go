package focuser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/astrokit/focuser/internal/link"
	"github.com/astrokit/focuser/internal/protocol"
)

// Peripheral describes a discovered focus controller.
type Peripheral struct {
	Name string // advertised name
	ID   string // platform device identifier
	RSSI int16  // signal strength in dBm
}

// Scan discovers nearby focus controllers. It returns every controller
// advertising the focuser service seen within the timeout.
//
// A Focuser client does its own scanning during Connect; Scan is for
// listing devices, e.g. from a CLI.
func Scan(ctx context.Context, timeout time.Duration) ([]Peripheral, error) {
	t := link.NewBLE()
	if err := t.Enable(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRadioUnavailable, err)
	}

	var mu sync.Mutex
	var out []Peripheral

	err := t.Scan(protocol.ServiceUUID, func(p link.Peripheral) {
		mu.Lock()
		out = append(out, Peripheral{Name: p.Name, ID: p.ID, RSSI: p.RSSI})
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	select {
	case <-time.After(timeout):
	case <-ctx.Done():
	}
	t.StopScan()

	mu.Lock()
	defer mu.Unlock()
	return out, nil
}
