package supervisor

import (
	"time"

	"camoufox-launcher/internal/config"

	"github.com/pkg/errors"
)

// State represents the lifecycle state of the supervisor
type State int

const (
	// StateIdle - nothing launched yet
	StateIdle State = iota
	// StateSpawning - creating a worker process
	StateSpawning
	// StateRunning - last spawned worker is tracked
	StateRunning
	// StatePacing - waiting before the next spawn
	StatePacing
	// StateSupervising - all launches done, waiting for workers to exit
	StateSupervising
	// StateTerminating - interrupt received, signalling workers
	StateTerminating
	// StateTerminated - every worker confirmed exit after an interrupt
	StateTerminated
	// StateCompleted - every worker exited on its own
	StateCompleted
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSpawning:
		return "Spawning"
	case StateRunning:
		return "Running"
	case StatePacing:
		return "Pacing"
	case StateSupervising:
		return "Supervising"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	case StateCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Handle is one running worker unit
type Handle interface {
	// Name returns the credential file the worker was started for
	Name() string
	// PID returns the OS process id, or 0 when not backed by a process
	PID() int
	// Terminate asks the worker to exit
	Terminate() error
	// Kill forces the worker to exit
	Kill() error
	// Done is closed once the worker has exited
	Done() <-chan struct{}
	// Err returns the exit error; only meaningful after Done is closed
	Err() error
}

// Spawner creates one isolated worker per finalized config
type Spawner interface {
	Spawn(cfg config.FinalizedConfig) (Handle, error)
}

// InstanceStatus is a point-in-time view of one tracked worker
type InstanceStatus struct {
	Name      string    `json:"name"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Exited    bool      `json:"exited"`
	ExitError string    `json:"exit_error,omitempty"`
}

var (
	// ErrNothingToLaunch no profile passed validation
	ErrNothingToLaunch = config.NewError("no valid instance config to launch")
	// ErrNothingLaunched every spawn attempt failed
	ErrNothingLaunched = errors.New("no instance could be started")
)
