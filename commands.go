package focuser

import (
	"github.com/astrokit/focuser/internal/protocol"
)

// Connect requests a connection. The attempt proceeds asynchronously;
// progress is reported through OnStatusChange.
func (f *Focuser) Connect() error {
	if f.closed.Load() {
		return ErrClosed
	}
	f.post(func() { f.startConnect() })
	return nil
}

// Disconnect tears down the link and drops any pending command.
func (f *Focuser) Disconnect() error {
	if f.closed.Load() {
		return ErrClosed
	}
	f.post(func() { f.disconnect(true) })
	return nil
}

// submit is the two-path dispatch every command goes through. Ready runs
// the action immediately; otherwise the action becomes the pending action
// (replacing any earlier one, last caller wins) and a connection attempt
// starts if none is in flight.
func (f *Focuser) submit(action func()) {
	if f.closed.Load() {
		return
	}
	f.post(func() {
		f.active = true
		if f.state == StateReady {
			action()
			return
		}
		f.pending = action
		if f.state == StateDisconnected {
			f.startConnect()
		}
	})
}

// writeCommand writes one command record to the command characteristic.
// Writes are unacknowledged; a dead link surfaces through the transport's
// link-loss handler, not here.
func (f *Focuser) writeCommand(op protocol.Opcode, value int32) {
	dp, ok := f.points[protocol.CommandUUID]
	if !ok {
		return
	}
	_ = dp.Write(protocol.EncodeCommand(op, value))
}

// Rotate moves the focuser one discrete input in the given direction and
// step mode. The micro-step magnitude is resolved when the command is
// actually written, so a deferred Rotate picks up the controller's real
// gearing once it has been read.
func (f *Focuser) Rotate(dir Direction, mode StepMode) {
	f.submit(func() {
		f.writeCommand(protocol.OpMove, signedSteps(dir, mode, f.microSteps))
	})
}

// Halt stops the motor immediately.
func (f *Focuser) Halt() {
	f.submit(func() {
		f.writeCommand(protocol.OpStop, 0)
	})
}

// Initialize re-runs the controller's init sequence.
func (f *Focuser) Initialize() {
	f.submit(func() {
		f.writeCommand(protocol.OpInit, 0)
	})
}

// SetPosition overwrites the controller's position counter.
func (f *Focuser) SetPosition(n int32) {
	f.submit(func() {
		f.writeCommand(protocol.OpSetPosition, n)
	})
}

// RequestPosition asks for the position counter; the value arrives through
// OnPositionChange.
func (f *Focuser) RequestPosition() {
	f.submit(func() {
		f.writeCommand(protocol.OpGetPosition, 0)
		f.readPosition()
	})
}

// RequestSample asks for a single accelerometer sample; the value arrives
// through OnSample.
func (f *Focuser) RequestSample() {
	f.submit(func() {
		f.writeCommand(protocol.OpSampleRead, 0)
		f.readTelemetry()
	})
}

// StartSampleStream subscribes to the telemetry characteristic and tells
// the controller to stream samples.
func (f *Focuser) StartSampleStream() {
	f.submit(func() {
		if f.streaming {
			return
		}
		dp, ok := f.points[protocol.TelemetryUUID]
		if !ok {
			return
		}
		gen := f.gen
		if err := dp.Subscribe(func(data []byte) {
			f.post(func() {
				if gen != f.gen {
					return
				}
				f.handleSample(data)
			})
		}); err != nil {
			return
		}
		f.streaming = true
		f.writeCommand(protocol.OpSampleStart, 0)
	})
}

// StopSampleStream stops the stream and drops the subscription.
func (f *Focuser) StopSampleStream() {
	f.submit(func() {
		if !f.streaming {
			return
		}
		f.writeCommand(protocol.OpSampleStop, 0)
		if dp, ok := f.points[protocol.TelemetryUUID]; ok {
			_ = dp.Unsubscribe()
		}
		f.streaming = false
	})
}

// ReportActivity marks the connection as in use for the inactivity
// supervisor and reconnects if the link is down. UI layers call this for
// any user interaction, not just motor commands.
func (f *Focuser) ReportActivity() {
	if f.closed.Load() {
		return
	}
	f.post(func() { f.touch() })
}

// touch is the loop-context body of ReportActivity.
func (f *Focuser) touch() {
	f.active = true
	if f.state == StateDisconnected {
		f.startConnect()
	}
}

// SetLock pins the connection open: while locked the inactivity supervisor
// never disconnects.
func (f *Focuser) SetLock(locked bool) {
	if f.closed.Load() {
		return
	}
	f.post(func() {
		f.touch()
		f.locked = locked
	})
}

// SetStepMode sets the default step mode reported by Mode.
func (f *Focuser) SetStepMode(mode StepMode) {
	if f.closed.Load() {
		return
	}
	f.post(func() {
		f.touch()
		f.mode = mode
	})
}

// Callbacks. Set them before Connect; they are invoked from the client's
// event loop, so they must not block for long and must not call back into
// blocking queries.

// OnStatusChange sets the status callback.
func (f *Focuser) OnStatusChange(cb func(Status)) {
	f.post(func() { f.onStatus = cb })
}

// OnSample sets the telemetry callback.
func (f *Focuser) OnSample(cb func(Sample)) {
	f.post(func() { f.onSample = cb })
}

// OnPositionChange sets the position callback.
func (f *Focuser) OnPositionChange(cb func(int32)) {
	f.post(func() { f.onPosition = cb })
}

// Queries.

// State returns the current lifecycle state.
func (f *Focuser) State() State {
	return State(f.stateMirror.Load())
}

// IsReady reports whether the link is usable right now.
func (f *Focuser) IsReady() bool {
	return f.State() == StateReady
}

// Mode returns the current default step mode.
func (f *Focuser) Mode() StepMode {
	var m StepMode
	f.call(func() { m = f.mode })
	return m
}

// LastSample returns the most recent good sample. A malformed telemetry
// update never clears it.
func (f *Focuser) LastSample() Sample {
	var s Sample
	f.call(func() { s = f.lastSample })
	return s
}

// MicroSteps returns the micro-steps-per-step value in effect: the value
// read from the controller, or the configured fallback before the read
// completes.
func (f *Focuser) MicroSteps() int {
	var n int32
	f.call(func() { n = f.microSteps })
	return int(n)
}

// DeviceName returns the advertised name of the connected controller, or
// "" when disconnected.
func (f *Focuser) DeviceName() string {
	var name string
	f.call(func() { name = f.peripheral.Name })
	return name
}
