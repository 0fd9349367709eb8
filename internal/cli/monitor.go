package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/astrokit/focuser"
	"github.com/astrokit/focuser/internal/storage"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive monitoring and control",
	Long: `Start an interactive TUI connected to the controller. Telemetry is
streamed live and recorded into the session database.

Keyboard shortcuts:
  left/right - nudge the focuser CCW/CW
  c, m, f    - select coarse/medium/fine step mode
  l          - toggle the connection lock
  s          - request a single sample
  q/Esc      - quit`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	readyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))

	sampleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Messages
type tickMsg time.Time
type statusMsg focuser.Status
type sampleMsg focuser.Sample

type monitorModel struct {
	f *focuser.Focuser

	// Database
	db       *storage.DB
	sessions *storage.SessionRepository
	samples  *storage.SampleRepository
	events   *storage.EventRepository

	sessionID string
	start     time.Time

	statusCh chan focuser.Status
	sampleCh chan focuser.Sample

	// State
	status      focuser.Status
	sample      focuser.Sample
	haveSample  bool
	sampleCount int
	mode        focuser.StepMode
	locked      bool
	moves       int

	// UI
	width    int
	height   int
	err      error
	quitting bool
}

func newMonitorModel(db *storage.DB) *monitorModel {
	m := &monitorModel{
		f:        focuser.New(),
		db:       db,
		sessions: storage.NewSessionRepository(db),
		samples:  storage.NewSampleRepository(db),
		events:   storage.NewEventRepository(db),
		start:    time.Now(),
		statusCh: make(chan focuser.Status, 16),
		sampleCh: make(chan focuser.Sample, 64),
		mode:     focuser.ModeMedium,
	}

	m.f.OnStatusChange(func(s focuser.Status) {
		select {
		case m.statusCh <- s:
		default:
		}
	})
	m.f.OnSample(func(s focuser.Sample) {
		select {
		case m.sampleCh <- s:
		default:
			// Channel full, drop the sample; the stream keeps going.
		}
	})

	return m
}

func (m *monitorModel) Init() tea.Cmd {
	m.f.Connect()
	return tea.Batch(
		m.listenForStatus(),
		m.listenForSamples(),
		m.tickCmd(),
	)
}

func (m *monitorModel) listenForStatus() tea.Cmd {
	return func() tea.Msg {
		return statusMsg(<-m.statusCh)
	}
}

func (m *monitorModel) listenForSamples() tea.Cmd {
	return func() tea.Msg {
		return sampleMsg(<-m.sampleCh)
	}
}

func (m *monitorModel) tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *monitorModel) recordEvent(eventType, detail string) {
	if m.sessionID == "" {
		return
	}
	ts := time.Since(m.start).Milliseconds()
	if _, err := m.events.Create(m.sessionID, ts, eventType, detail); err != nil {
		m.err = err
	}
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			if m.sessionID != "" {
				m.sessions.End(m.sessionID)
			}
			m.f.Close()
			return m, tea.Quit

		case "right":
			m.f.Rotate(focuser.Clockwise, m.mode)
			m.moves++
			m.recordEvent("command", fmt.Sprintf("MOVE CW %s", m.mode))

		case "left":
			m.f.Rotate(focuser.CounterClockwise, m.mode)
			m.moves++
			m.recordEvent("command", fmt.Sprintf("MOVE CCW %s", m.mode))

		case "c":
			m.mode = focuser.ModeCoarse
			m.f.SetStepMode(m.mode)

		case "m":
			m.mode = focuser.ModeMedium
			m.f.SetStepMode(m.mode)

		case "f":
			m.mode = focuser.ModeFine
			m.f.SetStepMode(m.mode)

		case "l":
			m.locked = !m.locked
			m.f.SetLock(m.locked)
			m.recordEvent("lock", fmt.Sprintf("%v", m.locked))

		case "s":
			m.f.RequestSample()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, m.tickCmd()

	case statusMsg:
		m.status = focuser.Status(msg)
		m.recordEvent("status", m.status.String())

		if m.status == focuser.StatusReady {
			if m.sessionID == "" {
				id, err := m.sessions.Create(m.f.DeviceName(), "")
				if err != nil {
					m.err = err
				} else {
					m.sessionID = id
				}
			}
			m.f.StartSampleStream()
		}
		return m, m.listenForStatus()

	case sampleMsg:
		m.sample = focuser.Sample(msg)
		m.haveSample = true
		m.sampleCount++
		if m.sessionID != "" {
			ts := time.Since(m.start).Milliseconds()
			if _, err := m.samples.Create(m.sessionID, ts,
				float64(m.sample.X), float64(m.sample.Y), float64(m.sample.Z)); err != nil {
				m.err = err
			}
		}
		return m, m.listenForSamples()
	}

	return m, nil
}

func (m *monitorModel) View() string {
	if m.quitting {
		return "Session ended.\n"
	}

	s := titleStyle.Render("Focus Controller Monitor") + "\n\n"

	statusLine := m.status.String()
	if m.status == focuser.StatusReady {
		statusLine = readyStyle.Render(statusLine)
	} else {
		statusLine = statusStyle.Render(statusLine)
	}
	s += fmt.Sprintf("Status:  %s\n", statusLine)

	if name := m.f.DeviceName(); name != "" {
		s += fmt.Sprintf("Device:  %s (micro-steps: %d)\n", name, m.f.MicroSteps())
	}

	lock := "off"
	if m.locked {
		lock = "on"
	}
	s += fmt.Sprintf("Mode:    %s    Lock: %s    Moves: %d\n\n", m.mode, lock, m.moves)

	if m.haveSample {
		s += sampleStyle.Render(fmt.Sprintf("Tilt:    x=%+.3f  y=%+.3f  z=%+.3f", m.sample.X, m.sample.Y, m.sample.Z)) + "\n"
		s += statusStyle.Render(fmt.Sprintf("         %d samples recorded", m.sampleCount)) + "\n"
	} else {
		s += statusStyle.Render("Waiting for telemetry...") + "\n"
	}

	if m.err != nil {
		s += "\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	s += "\n" + helpStyle.Render("←/→ move • c/m/f step mode • l lock • s sample • q quit") + "\n"
	return s
}

func runMonitor(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	p := tea.NewProgram(newMonitorModel(db))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor failed: %w", err)
	}
	return nil
}
