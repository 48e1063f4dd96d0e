package combo

import "github.com/joeycumines/logiface"

// engineConfig holds the optional configuration gathered from Option values.
type engineConfig struct {
	logger  *logiface.Logger[logiface.Event]
	metrics *Metrics
}

// Option configures optional Engine behavior not required for correctness:
// logging and metrics. The mandatory collaborators (Bus, LayerQuery,
// TimerFactory, the combo list, and Limits) are constructor arguments,
// taking required configuration directly rather than via options.
type Option func(*engineConfig)

// WithLogger attaches a structured logger. Runtime degradation paths (no
// free slot, no free active-combo entry, release with no slot claim) log at
// Err; a combo firing and a combo's behavior release log at Debug. Candidate
// selection, capture and timeout rescheduling are not logged. A nil *logiface.Logger is safe to pass
// (and the zero-value default if this option is omitted): all of its
// methods are nil-receiver safe and simply produce no output.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithMetrics attaches a Metrics sink. If omitted, the engine counts into a
// Metrics sink of its own that is not exposed to the caller.
func WithMetrics(m *Metrics) Option {
	return func(c *engineConfig) {
		c.metrics = m
	}
}

func resolveOptions(opts []Option) engineConfig {
	var c engineConfig
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	if c.metrics == nil {
		c.metrics = NewMetrics()
	}
	return c
}
