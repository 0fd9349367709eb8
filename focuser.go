// Package focuser provides a Go client for a BLE stepper-motor focus
// controller, the kind mounted on a telescope focus rack.
//
// # Features
//
//   - Device discovery and connection for the focuser service
//   - Fire-and-forget motor commands with automatic deferral while the
//     link is down
//   - One-shot and streaming accelerometer telemetry
//   - Idle disconnect so the shared controller stays available to other
//     handsets
//
// # Quick Start
//
// Connect and nudge the focuser:
//
//	f := focuser.New()
//	defer f.Close()
//
//	f.OnStatusChange(func(s focuser.Status) {
//	    fmt.Println("Status:", s)
//	})
//
//	f.Connect()
//	f.Rotate(focuser.Clockwise, focuser.ModeMedium)
//
// Commands issued before the link is up are held (latest one wins) and
// replayed automatically once the connection is ready. All telemetry is
// delivered via callbacks:
//
//	f.OnSample(func(s focuser.Sample) {
//	    fmt.Printf("tilt: %.2f %.2f %.2f\n", s.X, s.Y, s.Z)
//	})
//	f.StartSampleStream()
//
// # Connection Lifecycle
//
// The client owns a single connection to a single controller and moves
// through Disconnected, Scanning, Connecting, Discovering and Ready. Motor
// and telemetry commands are only written while Ready; at any other time
// they are stored as the pending action and the client (re)connects on its
// own. An inactivity timer releases the link after a few seconds without
// user actions unless the connection is explicitly locked with SetLock.
package focuser
