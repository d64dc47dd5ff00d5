package supervisor

import (
	"time"

	"camoufox-launcher/internal/metrics"
)

// Option configures the Supervisor
type Option func(*Supervisor)

// WithPacer sets the spawn pacing policy
func WithPacer(p Pacer) Option {
	return func(s *Supervisor) {
		s.pacer = p
	}
}

// WithKillAfter force kills workers still running this long after the
// termination signal. Zero waits forever.
func WithKillAfter(d time.Duration) Option {
	return func(s *Supervisor) {
		s.killAfter = d
	}
}

// WithMetricsCollector sets the metrics collector
func WithMetricsCollector(mc metrics.Collector) Option {
	return func(s *Supervisor) {
		if mc != nil {
			s.metrics = mc
		}
	}
}
