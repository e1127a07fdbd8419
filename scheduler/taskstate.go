package scheduler

// TaskState tracks a launched task through its lifecycle.
type TaskState int

// Task lifecycle states. Staging is the initial state of every task this
// scheduler launches; the four terminal states absorb all later updates.
const (
	TaskStaging TaskState = iota
	TaskStarting
	TaskRunning
	TaskFinished
	TaskFailed
	TaskKilled
	TaskLost
)

func (s TaskState) String() string {
	switch s {
	case TaskStaging:
		return "TASK_STAGING"
	case TaskStarting:
		return "TASK_STARTING"
	case TaskRunning:
		return "TASK_RUNNING"
	case TaskFinished:
		return "TASK_FINISHED"
	case TaskFailed:
		return "TASK_FAILED"
	case TaskKilled:
		return "TASK_KILLED"
	case TaskLost:
		return "TASK_LOST"
	default:
		return "TASK_UNKNOWN"
	}
}

// IsTerminal reports whether no further state transitions are accepted.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskFinished, TaskFailed, TaskKilled, TaskLost:
		return true
	default:
		return false
	}
}

// ConnectionState tracks the framework's relationship to the Mesos master.
type ConnectionState int32

const (
	// Disconnected means offer and status callbacks are not expected.
	Disconnected ConnectionState = iota
	// Registered means the framework holds a live master session.
	Registered
)

func (c ConnectionState) String() string {
	if c == Registered {
		return "REGISTERED"
	}
	return "DISCONNECTED"
}
