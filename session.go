package focuser

import (
	"sync/atomic"
	"time"

	"github.com/astrokit/focuser/internal/link"
	"github.com/astrokit/focuser/internal/protocol"
)

// Sample is one accelerometer reading from the controller, in g.
type Sample struct {
	X, Y, Z float32
}

// Focuser is a client for one focus controller. It owns at most one link
// at a time and serializes every state change onto an internal event loop:
// public methods and transport callbacks both post onto the loop, so the
// connection state, characteristic table and subscription state have a
// single writer.
type Focuser struct {
	cfg       *config
	transport link.Transport

	ops    chan func()
	done   chan struct{}
	closed atomic.Bool

	stateMirror atomic.Int32

	// Owned by the run loop.
	state      State
	gen        uint64
	peripheral link.Peripheral
	points     map[string]link.DataPoint
	pending    func()
	microSteps int32
	mode       StepMode
	lastSample Sample
	streaming  bool
	locked     bool
	active     bool
	idleStop   chan struct{}

	onStatus   func(Status)
	onSample   func(Sample)
	onPosition func(int32)
}

// New creates a client backed by the platform BLE adapter. The client is
// idle until Connect is called or a command forces a connection.
func New(opts ...Option) *Focuser {
	return newWith(link.NewBLE(), opts...)
}

// newWith injects the transport; tests use it with a scripted transport.
func newWith(t link.Transport, opts ...Option) *Focuser {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	f := &Focuser{
		cfg:        cfg,
		transport:  t,
		ops:        make(chan func(), 16),
		done:       make(chan struct{}),
		microSteps: cfg.microFallback,
		mode:       ModeMedium,
	}
	go f.run()
	return f
}

// Close disconnects and stops the event loop. The client cannot be reused.
func (f *Focuser) Close() error {
	if f.closed.Swap(true) {
		return ErrClosed
	}
	f.call(func() { f.disconnect(true) })
	close(f.done)
	return nil
}

// run is the serial execution context; it is the only goroutine that
// touches the loop-owned fields.
func (f *Focuser) run() {
	for {
		select {
		case op := <-f.ops:
			op()
		case <-f.done:
			return
		}
	}
}

// post schedules op on the event loop. Returns false if the loop has shut
// down.
func (f *Focuser) post(op func()) bool {
	select {
	case f.ops <- op:
		return true
	case <-f.done:
		return false
	}
}

// call runs op on the event loop and waits for it to finish.
func (f *Focuser) call(op func()) {
	ran := make(chan struct{})
	if !f.post(func() { op(); close(ran) }) {
		return
	}
	select {
	case <-ran:
	case <-f.done:
	}
}

func (f *Focuser) setState(s State) {
	f.state = s
	f.stateMirror.Store(int32(s))
}

func (f *Focuser) emit(s Status) {
	if f.onStatus != nil {
		f.onStatus(s)
	}
}

// Lifecycle, loop context only.

// startConnect begins a connection attempt: Disconnected -> Scanning.
// A radio that cannot be powered on is reported and left alone; the next
// user action retries.
func (f *Focuser) startConnect() {
	if f.state != StateDisconnected {
		return
	}

	if err := f.transport.Enable(); err != nil {
		f.emit(StatusRadioUnavailable)
		return
	}

	gen := f.gen
	f.transport.SetLinkLossHandler(func(err error) {
		f.post(func() { f.handleLinkLoss(gen) })
	})

	f.setState(StateScanning)
	f.emit(StatusSearching)

	err := f.transport.Scan(protocol.ServiceUUID, func(p link.Peripheral) {
		f.post(func() { f.handleFound(gen, p) })
	})
	if err != nil {
		f.setState(StateDisconnected)
		f.emit(StatusDisconnected)
	}
}

// handleFound reacts to the first matching scan result. First match wins:
// scanning stops immediately and later results are dropped by the state
// check.
func (f *Focuser) handleFound(gen uint64, p link.Peripheral) {
	if gen != f.gen || f.state != StateScanning {
		return
	}

	f.transport.StopScan()
	f.peripheral = p
	f.setState(StateConnecting)
	f.emit(StatusDeviceFound)

	go func() {
		err := f.transport.Connect(p)
		f.post(func() { f.handleConnected(gen, err) })
	}()
}

func (f *Focuser) handleConnected(gen uint64, err error) {
	if gen != f.gen || f.state != StateConnecting {
		return
	}
	if err != nil {
		f.handleFailure()
		return
	}

	f.setState(StateDiscovering)
	f.emit(StatusConnected)

	go func() {
		points, err := f.transport.DiscoverDataPoints(protocol.ServiceUUID, []string{
			protocol.CommandUUID,
			protocol.TelemetryUUID,
			protocol.ConfigUUID,
		})
		f.post(func() { f.handleDiscovered(gen, points, err) })
	}()
}

// handleDiscovered completes the lifecycle: Discovering -> Ready. The
// characteristic table is all-or-nothing; a partial table never reaches
// Ready. The pending action replays synchronously and the slot is cleared
// before anything else can queue.
func (f *Focuser) handleDiscovered(gen uint64, points map[string]link.DataPoint, err error) {
	if gen != f.gen || f.state != StateDiscovering {
		return
	}
	if err != nil {
		f.handleFailure()
		return
	}

	f.points = points
	f.setState(StateReady)
	f.emit(StatusReady)

	f.readMicroSteps(gen)

	f.active = false
	f.startIdleTimer()

	action := f.pending
	f.pending = nil
	if action != nil {
		action()
	}
}

// readMicroSteps reads the configuration jumper once per connection. Until
// the read completes the fallback value stays in effect.
func (f *Focuser) readMicroSteps(gen uint64) {
	dp, ok := f.points[protocol.ConfigUUID]
	if !ok {
		return
	}
	dp.Read(func(data []byte, err error) {
		f.post(func() {
			if gen != f.gen || err != nil {
				return
			}
			if v, derr := protocol.DecodeInt32(data); derr == nil && v > 0 {
				f.microSteps = v
			}
		})
	})
}

// handleFailure handles a transport-reported failure in any state. Device
// unavailability is an expected condition, so the machine resets to
// Disconnected instead of surfacing an error; the pending action survives
// for the next attempt.
func (f *Focuser) handleFailure() {
	f.resetLink()
	f.emit(StatusDisconnected)
}

func (f *Focuser) handleLinkLoss(gen uint64) {
	if gen != f.gen || f.state == StateDisconnected {
		return
	}
	f.resetLink()
	f.emit(StatusDisconnected)
}

// resetLink invalidates everything tied to the current connection cycle.
// Bumping the generation makes in-flight callbacks from the old cycle
// no-ops.
func (f *Focuser) resetLink() {
	f.gen++
	f.stopIdleTimer()
	f.transport.StopScan()
	_ = f.transport.Disconnect()
	f.points = nil
	f.streaming = false
	f.peripheral = link.Peripheral{}
	f.microSteps = f.cfg.microFallback
	f.setState(StateDisconnected)
}

// disconnect is the explicit teardown path, shared by Disconnect, Close
// and the inactivity supervisor.
func (f *Focuser) disconnect(clearPending bool) {
	if f.state == StateDisconnected {
		return
	}
	f.resetLink()
	if clearPending {
		f.pending = nil
	}
	f.emit(StatusDisconnected)
}

// Inactivity supervisor, loop context only.

// startIdleTimer starts a fresh supervisor for the current Ready period.
// The previous timer never carries over across reconnects.
func (f *Focuser) startIdleTimer() {
	stop := make(chan struct{})
	f.idleStop = stop
	gen := f.gen

	go func() {
		ticker := time.NewTicker(f.cfg.idlePeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f.post(func() { f.handleIdleTick(gen) })
			case <-stop:
				return
			case <-f.done:
				return
			}
		}
	}()
}

func (f *Focuser) stopIdleTimer() {
	if f.idleStop != nil {
		close(f.idleStop)
		f.idleStop = nil
	}
}

// handleIdleTick disconnects after one full period without user activity,
// unless the connection is pinned open.
func (f *Focuser) handleIdleTick(gen uint64) {
	if gen != f.gen || f.state != StateReady {
		return
	}
	if f.locked {
		return
	}
	if f.active {
		f.active = false
		return
	}
	f.disconnect(true)
}

// Telemetry, loop context only.

// handleSample decodes one telemetry update. A short buffer drops the
// update and keeps the previous sample.
func (f *Focuser) handleSample(data []byte) {
	s, err := protocol.DecodeSample(data)
	if err != nil {
		return
	}
	f.lastSample = Sample{X: s.X, Y: s.Y, Z: s.Z}
	if f.onSample != nil {
		f.onSample(f.lastSample)
	}
}

func (f *Focuser) readTelemetry() {
	gen := f.gen
	dp, ok := f.points[protocol.TelemetryUUID]
	if !ok {
		return
	}
	dp.Read(func(data []byte, err error) {
		f.post(func() {
			if gen != f.gen || err != nil {
				return
			}
			f.handleSample(data)
		})
	})
}

func (f *Focuser) readPosition() {
	gen := f.gen
	dp, ok := f.points[protocol.TelemetryUUID]
	if !ok {
		return
	}
	dp.Read(func(data []byte, err error) {
		f.post(func() {
			if gen != f.gen || err != nil {
				return
			}
			if v, derr := protocol.DecodeInt32(data); derr == nil && f.onPosition != nil {
				f.onPosition(v)
			}
		})
	})
}
