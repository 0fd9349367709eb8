package cli

import (
	"fmt"
	"time"

	"github.com/astrokit/focuser"
)

// connectReady creates a client, connects and blocks until the link is
// Ready or the timeout passes. The caller owns the returned client.
func connectReady(timeout time.Duration, opts ...focuser.Option) (*focuser.Focuser, error) {
	f := focuser.New(opts...)

	ready := make(chan struct{}, 1)
	unavailable := make(chan struct{}, 1)
	f.OnStatusChange(func(s focuser.Status) {
		if verbose {
			fmt.Println("status:", s)
		}
		switch s {
		case focuser.StatusReady:
			select {
			case ready <- struct{}{}:
			default:
			}
		case focuser.StatusRadioUnavailable:
			select {
			case unavailable <- struct{}{}:
			default:
			}
		}
	})

	if err := f.Connect(); err != nil {
		f.Close()
		return nil, err
	}

	select {
	case <-ready:
		return f, nil
	case <-unavailable:
		f.Close()
		return nil, focuser.ErrRadioUnavailable
	case <-time.After(timeout):
		f.Close()
		return nil, fmt.Errorf("no controller became ready within %s", timeout)
	}
}
