package scheduler

import (
	"sync"
)

// Task is the tracked record of a launched (or observed) task. Records are
// never deleted; terminal tasks are retained for counting.
type Task struct {
	ID         string
	SlaveID    string
	ExecutorID string
	State      TaskState
}

// State holds all mutable scheduler state: connection status, the
// launched/finished counters, the task table and the offer registry.
// Offer handling runs concurrently, so every access goes through the
// mutex.
type State struct {
	mu sync.Mutex

	connection  ConnectionState
	frameworkID string

	tasksLaunched int
	tasksFinished int
	tasks         map[string]*Task

	// pendingOffers tracks offers currently being decided on; the value
	// flips to true when the offer is rescinded mid-flight.
	pendingOffers  map[string]bool
	consumedOffers map[string]struct{}
}

// NewState returns an empty scheduler state with zeroed counters.
func NewState() *State {
	return &State{
		tasks:          make(map[string]*Task),
		pendingOffers:  make(map[string]bool),
		consumedOffers: make(map[string]struct{}),
	}
}

// Register records a successful registration with the master.
func (s *State) Register(frameworkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameworkID = frameworkID
	s.connection = Registered
}

// Reregister records a re-registration with a newly elected master.
// Counters survive re-registration; they reset only on process restart.
func (s *State) Reregister() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connection = Registered
}

// Disconnect records loss of the master session.
func (s *State) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connection = Disconnected
}

// Connection returns the current master connection state.
func (s *State) Connection() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connection
}

// FrameworkID returns the framework ID assigned at registration, or the
// empty string before the first registration.
func (s *State) FrameworkID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameworkID
}

// BeginOffer registers an offer as in-flight. It returns false if the
// offer ID is already pending or was already consumed; a second consumer
// for the same offer ID must not act on it.
func (s *State) BeginOffer(offerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pendingOffers[offerID]; ok {
		return false
	}
	if _, ok := s.consumedOffers[offerID]; ok {
		return false
	}
	s.pendingOffers[offerID] = false
	return true
}

// AbandonOffer drops an in-flight offer without consuming it, the
// bookkeeping side of an implicit decline. The master re-offers or
// expires the resources on its own schedule.
func (s *State) AbandonOffer(offerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingOffers, offerID)
}

// RescindOffer invalidates a pending offer. It returns true if an
// in-flight offer was invalidated; rescinding an unknown or already
// consumed offer ID is a no-op.
func (s *State) RescindOffer(offerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pendingOffers[offerID]; !ok {
		return false
	}
	s.pendingOffers[offerID] = true
	return true
}

// ConsumeOffer atomically marks a pending offer as used and reports
// whether a launch against it may proceed. It returns false if the offer
// was rescinded while the decision was in flight, was never registered,
// or was already consumed.
func (s *State) ConsumeOffer(offerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rescinded, ok := s.pendingOffers[offerID]
	if !ok {
		return false
	}
	delete(s.pendingOffers, offerID)
	if rescinded {
		return false
	}
	s.consumedOffers[offerID] = struct{}{}
	return true
}

// RecordLaunches registers freshly built tasks and bumps the launched
// counter once per task.
func (s *State) RecordLaunches(tasks []*Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range tasks {
		s.tasks[task.ID] = task
		s.tasksLaunched++
	}
}

// ApplyStatusUpdate advances the per-task state machine. Unknown task IDs
// are accepted and tracked: updates may arrive for tasks launched by a
// previous incarnation of this process. Once a task is terminal every
// further update is an idempotent no-op, so a duplicate TASK_FINISHED
// never double-counts. The returned state is the task's state after the
// update.
func (s *State) ApplyStatusUpdate(taskID string, slaveID string, newState TaskState) TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		task = &Task{ID: taskID, SlaveID: slaveID, State: newState}
		s.tasks[taskID] = task
		if newState == TaskFinished {
			s.tasksFinished++
		}
		return task.State
	}

	if task.State.IsTerminal() {
		return task.State
	}

	task.State = newState
	if newState == TaskFinished {
		s.tasksFinished++
	}
	return task.State
}

// Counters returns the monotonic launched and finished task counts.
func (s *State) Counters() (launched, finished int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksLaunched, s.tasksFinished
}

// CurrentState is the JSON document served by the status endpoint.
type CurrentState struct {
	Connection    string            `json:"connection"`
	FrameworkID   string            `json:"framework_id"`
	TasksLaunched int               `json:"tasks_launched"`
	TasksFinished int               `json:"tasks_finished"`
	Tasks         map[string]string `json:"tasks"`
}

// Snapshot returns a point-in-time copy of the observable state.
func (s *State) Snapshot() *CurrentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make(map[string]string, len(s.tasks))
	for id, task := range s.tasks {
		tasks[id] = task.State.String()
	}
	return &CurrentState{
		Connection:    s.connection.String(),
		FrameworkID:   s.frameworkID,
		TasksLaunched: s.tasksLaunched,
		TasksFinished: s.tasksFinished,
		Tasks:         tasks,
	}
}
