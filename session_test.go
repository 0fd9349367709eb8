package focuser

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/astrokit/focuser/internal/link"
	"github.com/astrokit/focuser/internal/protocol"
)

// fakeTransport is a scripted link.Transport. Scan results are emitted
// manually with emitDevice so tests control exactly when the lifecycle
// advances.
type fakeTransport struct {
	mu sync.Mutex

	enableErr   error
	connectErr  error
	discoverErr error

	scanCalls    int
	stopScans    int
	connectCalls int
	disconnects  int

	found    func(link.Peripheral)
	linkLoss func(error)

	command   *fakePoint
	telemetry *fakePoint
	config    *fakePoint
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		command:   &fakePoint{},
		telemetry: &fakePoint{},
		config:    &fakePoint{readData: []byte{0x04, 0x00, 0x00, 0x00}},
	}
}

func (ft *fakeTransport) Enable() error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.enableErr
}

func (ft *fakeTransport) Scan(serviceUUID string, found func(link.Peripheral)) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.scanCalls++
	ft.found = found
	return nil
}

func (ft *fakeTransport) StopScan() {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.stopScans++
}

func (ft *fakeTransport) Connect(p link.Peripheral) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.connectCalls++
	return ft.connectErr
}

func (ft *fakeTransport) DiscoverDataPoints(serviceUUID string, pointUUIDs []string) (map[string]link.DataPoint, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if ft.discoverErr != nil {
		return nil, ft.discoverErr
	}
	return map[string]link.DataPoint{
		protocol.CommandUUID:   ft.command,
		protocol.TelemetryUUID: ft.telemetry,
		protocol.ConfigUUID:    ft.config,
	}, nil
}

func (ft *fakeTransport) Disconnect() error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.disconnects++
	return nil
}

func (ft *fakeTransport) SetLinkLossHandler(fn func(error)) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.linkLoss = fn
}

func (ft *fakeTransport) emitDevice() {
	ft.mu.Lock()
	found := ft.found
	ft.mu.Unlock()
	if found != nil {
		found(link.Peripheral{Name: "FocusDrive-01A3", ID: "AA:BB:CC:DD:EE:FF", RSSI: -42})
	}
}

func (ft *fakeTransport) dropLink() {
	ft.mu.Lock()
	cb := ft.linkLoss
	ft.mu.Unlock()
	if cb != nil {
		cb(errors.New("link lost"))
	}
}

func (ft *fakeTransport) counts() (scans, connects, disconnects int) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.scanCalls, ft.connectCalls, ft.disconnects
}

// fakePoint is a scripted characteristic.
type fakePoint struct {
	mu           sync.Mutex
	writes       [][]byte
	readData     []byte
	readErr      error
	notify       func([]byte)
	unsubscribes int
}

func (p *fakePoint) Write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	p.writes = append(p.writes, buf)
	return nil
}

func (p *fakePoint) Read(done func([]byte, error)) {
	p.mu.Lock()
	data, err := p.readData, p.readErr
	p.mu.Unlock()
	done(data, err)
}

func (p *fakePoint) Subscribe(fn func([]byte)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notify = fn
	return nil
}

func (p *fakePoint) Unsubscribe() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notify = nil
	p.unsubscribes++
	return nil
}

func (p *fakePoint) push(data []byte) {
	p.mu.Lock()
	fn := p.notify
	p.mu.Unlock()
	if fn != nil {
		fn(data)
	}
}

func (p *fakePoint) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

func (p *fakePoint) lastWrite() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.writes) == 0 {
		return nil
	}
	return p.writes[len(p.writes)-1]
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func sampleBytes(x, y, z float32) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(x))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(z))
	return buf
}

func TestConnectLifecycleStatuses(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft, WithIdlePeriod(time.Hour))
	defer f.Close()

	var mu sync.Mutex
	var statuses []Status
	f.OnStatusChange(func(s Status) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	})

	if err := f.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "scan never started")
	ft.emitDevice()
	waitFor(t, f.IsReady, "never became ready")

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusSearching, StatusDeviceFound, StatusConnected, StatusReady}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("status[%d] = %v, want %v", i, statuses[i], want[i])
		}
	}
}

func TestRotateWhileDisconnectedConnectsAndDefers(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft, WithIdlePeriod(time.Hour))
	defer f.Close()

	f.Rotate(Clockwise, ModeMedium)
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "rotate did not trigger a connect")

	if n := ft.command.writeCount(); n != 0 {
		t.Fatalf("wrote %d commands before Ready", n)
	}

	ft.emitDevice()
	waitFor(t, func() bool { return ft.command.writeCount() == 1 }, "deferred rotate never replayed")

	// Medium with microSteps=4: (37/4)*4 = 36.
	want := protocol.EncodeCommand(protocol.OpMove, 36)
	got := ft.command.lastWrite()
	if string(got) != string(want) {
		t.Errorf("replayed command = % X, want % X", got, want)
	}
}

func TestPendingActionOverwrite(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft, WithIdlePeriod(time.Hour))
	defer f.Close()

	f.Rotate(Clockwise, ModeMedium)
	f.Rotate(CounterClockwise, ModeFine)
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "connect never started")

	ft.emitDevice()
	waitFor(t, f.IsReady, "never became ready")

	// Only the second rotate replays: one write of MOVE -4.
	waitFor(t, func() bool { return ft.command.writeCount() == 1 }, "pending action never replayed")
	time.Sleep(20 * time.Millisecond)
	if n := ft.command.writeCount(); n != 1 {
		t.Fatalf("wrote %d commands, want 1", n)
	}
	want := protocol.EncodeCommand(protocol.OpMove, -4)
	if got := ft.command.lastWrite(); string(got) != string(want) {
		t.Errorf("replayed command = % X, want % X", got, want)
	}

	if s, _, _ := ft.counts(); s != 1 {
		t.Errorf("scan started %d times, want 1", s)
	}
}

func TestFirstMatchWins(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft, WithIdlePeriod(time.Hour))
	defer f.Close()

	if err := f.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "scan never started")

	ft.emitDevice()
	ft.emitDevice()
	waitFor(t, f.IsReady, "never became ready")

	if _, c, _ := ft.counts(); c != 1 {
		t.Errorf("connected %d times, want 1", c)
	}
}

func TestRadioUnavailable(t *testing.T) {
	ft := newFakeTransport()
	ft.enableErr = errors.New("no adapter")
	f := newWith(ft)
	defer f.Close()

	var mu sync.Mutex
	var last Status
	f.OnStatusChange(func(s Status) {
		mu.Lock()
		last = s
		mu.Unlock()
	})

	if err := f.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last == StatusRadioUnavailable
	}, "radio unavailable never reported")

	if got := f.State(); got != StateDisconnected {
		t.Errorf("state = %v, want Disconnected", got)
	}
	if s, _, _ := ft.counts(); s != 0 {
		t.Errorf("scan started %d times with radio off", s)
	}
}

func TestDiscoveryFailureKeepsPendingAction(t *testing.T) {
	ft := newFakeTransport()
	ft.discoverErr = errors.New("characteristic missing")
	f := newWith(ft, WithIdlePeriod(time.Hour))
	defer f.Close()

	f.Rotate(Clockwise, ModeCoarse)
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "connect never started")
	ft.emitDevice()
	waitFor(t, func() bool { return f.State() == StateDisconnected }, "failed discovery never reset")

	if n := ft.command.writeCount(); n != 0 {
		t.Fatalf("wrote %d commands through a partial table", n)
	}

	// The pending action survives the failure and replays on the next
	// successful connect.
	ft.mu.Lock()
	ft.discoverErr = nil
	ft.mu.Unlock()

	if err := f.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 2 }, "reconnect never started")
	ft.emitDevice()
	waitFor(t, func() bool { return ft.command.writeCount() == 1 }, "pending action lost across failure")

	// Coarse with microSteps=4: 37*4 = 148.
	want := protocol.EncodeCommand(protocol.OpMove, 148)
	if got := ft.command.lastWrite(); string(got) != string(want) {
		t.Errorf("replayed command = % X, want % X", got, want)
	}
}

func TestShortSampleRetainsPrevious(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft, WithIdlePeriod(time.Hour))
	defer f.Close()

	var mu sync.Mutex
	var received []Sample
	f.OnSample(func(s Sample) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	})

	f.StartSampleStream()
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "connect never started")
	ft.emitDevice()
	waitFor(t, f.IsReady, "never became ready")
	waitFor(t, func() bool { return ft.command.writeCount() == 1 }, "SAMPLE_START never written")

	ft.telemetry.push(sampleBytes(1, -2, 0.5))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, "sample never delivered")

	// A short update is dropped; the last sample and the subscription are
	// untouched.
	ft.telemetry.push(sampleBytes(9, 9, 9)[:6])
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	n := len(received)
	mu.Unlock()
	if n != 1 {
		t.Errorf("short sample delivered, callback count = %d", n)
	}
	if s := f.LastSample(); s.X != 1 || s.Y != -2 || s.Z != 0.5 {
		t.Errorf("LastSample = %+v, want {1 -2 0.5}", s)
	}

	ft.telemetry.push(sampleBytes(3, 3, 3))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, "subscription broken after short sample")
}

func TestIdleDisconnectAfterOnePeriod(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft, WithIdlePeriod(30*time.Millisecond))
	defer f.Close()

	if err := f.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "scan never started")
	ft.emitDevice()
	waitFor(t, f.IsReady, "never became ready")

	waitFor(t, func() bool { return f.State() == StateDisconnected }, "idle client never disconnected")
	if _, _, d := ft.counts(); d == 0 {
		t.Error("transport Disconnect never called")
	}
}

func TestLockPreventsIdleDisconnect(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft, WithIdlePeriod(20*time.Millisecond))
	defer f.Close()

	f.SetLock(true)
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "SetLock never triggered a connect")
	ft.emitDevice()
	waitFor(t, f.IsReady, "never became ready")

	time.Sleep(150 * time.Millisecond)
	if !f.IsReady() {
		t.Fatal("locked client disconnected")
	}

	f.SetLock(false)
	waitFor(t, func() bool { return f.State() == StateDisconnected }, "unlocked idle client never disconnected")
}

func TestLinkLossResetsAndIgnoresStaleTelemetry(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft, WithIdlePeriod(time.Hour))
	defer f.Close()

	var mu sync.Mutex
	var received int
	f.OnSample(func(Sample) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	f.StartSampleStream()
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "connect never started")
	ft.emitDevice()
	waitFor(t, func() bool { return ft.command.writeCount() == 1 }, "stream never started")

	ft.dropLink()
	waitFor(t, func() bool { return f.State() == StateDisconnected }, "link loss never observed")

	// A notification still in flight from the dead connection is dropped.
	ft.telemetry.push(sampleBytes(1, 1, 1))
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if received != 0 {
		t.Errorf("stale telemetry delivered %d samples after link loss", received)
	}
}

func TestActivityReconnects(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft, WithIdlePeriod(time.Hour))
	defer f.Close()

	f.ReportActivity()
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "activity never triggered a connect")
}

func TestMicroStepsReadFromController(t *testing.T) {
	ft := newFakeTransport()
	ft.config.readData = []byte{0x08, 0x00, 0x00, 0x00}
	f := newWith(ft, WithIdlePeriod(time.Hour))
	defer f.Close()

	if err := f.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, func() bool { s, _, _ := ft.counts(); return s == 1 }, "scan never started")
	ft.emitDevice()
	waitFor(t, f.IsReady, "never became ready")
	waitFor(t, func() bool { return f.MicroSteps() == 8 }, "jumper value never read")

	// Eighth-stepping: medium = (37/4)*8 = 72.
	f.Rotate(Clockwise, ModeMedium)
	waitFor(t, func() bool { return ft.command.writeCount() == 1 }, "rotate never written")
	want := protocol.EncodeCommand(protocol.OpMove, 72)
	if got := ft.command.lastWrite(); string(got) != string(want) {
		t.Errorf("command = % X, want % X", got, want)
	}
}

func TestCloseRejectsFurtherUse(t *testing.T) {
	ft := newFakeTransport()
	f := newWith(ft)
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := f.Connect(); !errors.Is(err, ErrClosed) {
		t.Errorf("Connect after Close = %v, want ErrClosed", err)
	}
	if err := f.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
}
