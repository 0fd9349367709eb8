package focuser

import "time"

// Option configures client behavior.
type Option func(*config)

type config struct {
	idlePeriod    time.Duration
	microFallback int32
}

func defaultConfig() *config {
	return &config{
		idlePeriod:    DefaultIdlePeriod,
		microFallback: DefaultMicroSteps,
	}
}

// WithIdlePeriod sets the inactivity supervisor period. After one full
// period with no user action and no lock, the client disconnects to yield
// the controller to other handsets. Default: DefaultIdlePeriod.
func WithIdlePeriod(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.idlePeriod = d
		}
	}
}

// WithMicroStepFallback sets the micro-steps-per-step value used until the
// real value has been read from the controller's configuration jumper.
// This is a documented default, not an error condition.
// Default: DefaultMicroSteps.
func WithMicroStepFallback(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.microFallback = int32(n)
		}
	}
}
