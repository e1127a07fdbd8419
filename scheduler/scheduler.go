package scheduler

import (
	"context"
	"time"

	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const (
	defaultDecisionTimeout   = 10 * time.Second
	defaultInflightDecisions = 8
)

// PlacementClient asks the external decision service which tasks to run
// against a normalized offer. Implemented by decision.Client.
type PlacementClient interface {
	RequestPlacement(ctx context.Context, record *OfferRecord) ([]TaskSpec, error)
}

// Launcher is the single outbound capability the scheduler needs from the
// Mesos driver: launch a batch of tasks against one offer.
type Launcher interface {
	LaunchTasks(offerID *mesos.OfferID, tasks []*mesos.TaskInfo) error
}

// Options tune offer handling.
type Options struct {
	// DecisionTimeout bounds a single placement request, queueing
	// included. An offer that cannot be decided in time is implicitly
	// declined.
	DecisionTimeout time.Duration
	// MaxInflightDecisions caps concurrent placement requests so a burst
	// of offers cannot overload the decision service.
	MaxInflightDecisions int64
}

// Scheduler mediates between resource offers and the decision service:
// it normalizes each offer, asks the decision service for placements, and
// launches the requested tasks, keeping lifecycle state in State.
type Scheduler struct {
	ctx      context.Context
	state    *State
	client   PlacementClient
	executor *mesos.ExecutorInfo
	timeout  time.Duration
	inflight *semaphore.Weighted
}

// New creates a scheduler core. The context bounds all background offer
// handling; cancel it to stop issuing new placement requests.
func New(ctx context.Context, state *State, client PlacementClient, executor *mesos.ExecutorInfo, opts Options) *Scheduler {
	if opts.DecisionTimeout <= 0 {
		opts.DecisionTimeout = defaultDecisionTimeout
	}
	if opts.MaxInflightDecisions <= 0 {
		opts.MaxInflightDecisions = defaultInflightDecisions
	}
	return &Scheduler{
		ctx:      ctx,
		state:    state,
		client:   client,
		executor: executor,
		timeout:  opts.DecisionTimeout,
		inflight: semaphore.NewWeighted(opts.MaxInflightDecisions),
	}
}

// State exposes the scheduler's mutable state, for the status endpoint.
func (s *Scheduler) State() *State {
	return s.state
}

// HandleRegistered records a successful registration with the master.
func (s *Scheduler) HandleRegistered(frameworkID string) {
	s.state.Register(frameworkID)
	log.Warnf("Registered with framework ID %s", frameworkID)
}

// HandleReregistered records re-registration with a newly elected master.
func (s *Scheduler) HandleReregistered() {
	s.state.Reregister()
	log.Warn("Re-registered with new master")
}

// HandleDisconnected records loss of the master session. Offers and
// status updates are not expected again until re-registration.
func (s *Scheduler) HandleDisconnected() {
	s.state.Disconnect()
	log.Warn("Disconnected from master")
}

// HandleOffers processes a batch of resource offers. Each offer is
// independent and handled on its own goroutine so one slow decision does
// not starve the rest; the semaphore caps how many placement requests run
// at once.
func (s *Scheduler) HandleOffers(launcher Launcher, offers []*mesos.Offer) {
	log.Infof("Got %d resource offers", len(offers))
	for _, offer := range offers {
		offerID := offer.GetId().GetValue()
		if !s.state.BeginOffer(offerID) {
			log.WithField("offerID", offerID).Warn("Offer already in flight or consumed, ignoring")
			continue
		}
		offer := offer
		go func() {
			if err := s.processOffer(launcher, offer); err != nil {
				log.WithField("offerID", offer.GetId().GetValue()).Warn("Declining offer: ", err)
			}
		}()
	}
}

// processOffer runs the decode, decide and launch pipeline for a single
// offer. Every error return means the offer was not acted on; the master
// re-offers the resources after its own offer timeout.
func (s *Scheduler) processOffer(launcher Launcher, offer *mesos.Offer) error {
	offerID := offer.GetId().GetValue()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if err := s.inflight.Acquire(ctx, 1); err != nil {
		s.state.AbandonOffer(offerID)
		return errors.Wrap(err, "waiting for a decision slot")
	}
	defer s.inflight.Release(1)

	record, err := NormalizeOffer(offer)
	if err != nil {
		s.state.AbandonOffer(offerID)
		return errors.WithMessage(err, "decoding offer")
	}
	log.WithField("offerID", offerID).Debugf("Offer: %+v", record)

	specs, err := s.client.RequestPlacement(ctx, record)
	if err != nil {
		s.state.AbandonOffer(offerID)
		return errors.WithMessage(err, "requesting placement")
	}
	if len(specs) == 0 {
		s.state.AbandonOffer(offerID)
		log.WithField("offerID", offerID).Info("Decision service requested no tasks")
		return nil
	}

	tasks, buildErr := BuildLaunches(offer, s.executor, specs)
	if buildErr != nil {
		log.WithField("offerID", offerID).Warn("Skipped task specs: ", buildErr)
	}
	if len(tasks) == 0 {
		s.state.AbandonOffer(offerID)
		return nil
	}

	// The offer may have been rescinded while the decision was in
	// flight. In that case the launch attempt has failed; it is not
	// retried against the same offer ID.
	if !s.state.ConsumeOffer(offerID) {
		log.WithField("offerID", offerID).Warnf("Offer no longer valid, dropping %d launches", len(tasks))
		return nil
	}

	s.state.RecordLaunches(trackedTasks(tasks))
	for _, task := range tasks {
		log.Infof("Accepting offer on %s to start task %s", offer.GetHostname(), task.GetTaskId().GetValue())
	}

	if err := launcher.LaunchTasks(offer.GetId(), tasks); err != nil {
		// The offer is consumed either way. The master reports the
		// tasks as lost if the launch did not go through.
		log.WithField("offerID", offerID).Error("Launch call failed: ", err)
	}
	return nil
}

// HandleRescind invalidates a pending offer. Rescission of an offer that
// was already consumed by a launch is a no-op.
func (s *Scheduler) HandleRescind(offerID string) {
	if s.state.RescindOffer(offerID) {
		log.Infof("Offer rescinded: %s", offerID)
		return
	}
	log.Debugf("Offer rescinded: %s (not in flight)", offerID)
}

// HandleStatusUpdate advances the task state machine for one update.
func (s *Scheduler) HandleStatusUpdate(taskID, slaveID string, newState TaskState, message string) {
	applied := s.state.ApplyStatusUpdate(taskID, slaveID, newState)
	log.Infof("Task %s is in state %s", taskID, applied)
	if message != "" {
		log.WithField("taskID", taskID).Debug("Status message: ", message)
	}
}

// HandleFrameworkMessage logs a best-effort executor message.
func (s *Scheduler) HandleFrameworkMessage(executorID, slaveID, message string) {
	log.Infof("Received message from executor %s on slave %s: %q", executorID, slaveID, message)
}

// HandleSlaveLost notes an unreachable slave. Tasks on it get TASK_LOST
// updates from the master, so there is nothing to mutate here.
func (s *Scheduler) HandleSlaveLost(slaveID string) {
	log.Warnf("Slave lost: %s", slaveID)
}

// HandleExecutorLost notes a terminated executor. As with slave loss, the
// master delivers TASK_LOST for affected tasks on its own.
func (s *Scheduler) HandleExecutorLost(executorID, slaveID string, status int) {
	log.Warnf("Executor %s lost on slave %s (status %d)", executorID, slaveID, status)
}

// HandleError records an unrecoverable error reported by the master. The
// driver is already aborted when this fires; its Run call returns a
// non-stopped status and the process exits non-zero.
func (s *Scheduler) HandleError(message string) {
	s.state.Disconnect()
	log.Errorf("Error from Mesos: %s", message)
}
