package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	fn func(ctx context.Context, record *OfferRecord) ([]TaskSpec, error)
}

func (f *fakeClient) RequestPlacement(ctx context.Context, record *OfferRecord) ([]TaskSpec, error) {
	return f.fn(ctx, record)
}

func staticClient(specs []TaskSpec, err error) *fakeClient {
	return &fakeClient{fn: func(context.Context, *OfferRecord) ([]TaskSpec, error) {
		return specs, err
	}}
}

type launchCall struct {
	offerID string
	taskIDs []string
}

type fakeLauncher struct {
	mu       sync.Mutex
	calls    []launchCall
	launched chan launchCall
	err      error
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{launched: make(chan launchCall, 16)}
}

func (f *fakeLauncher) LaunchTasks(offerID *mesos.OfferID, tasks []*mesos.TaskInfo) error {
	taskIDs := make([]string, 0, len(tasks))
	for _, task := range tasks {
		taskIDs = append(taskIDs, task.GetTaskId().GetValue())
	}
	call := launchCall{offerID: offerID.GetValue(), taskIDs: taskIDs}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	f.launched <- call
	return f.err
}

func (f *fakeLauncher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestScheduler(t *testing.T, client PlacementClient) (*Scheduler, *State, *fakeLauncher) {
	t.Helper()
	state := NewState()
	core := New(context.Background(), state, client, testExecutor(), Options{
		DecisionTimeout: time.Second,
	})
	return core, state, newFakeLauncher()
}

func TestProcessOfferLaunchesRequestedTasks(t *testing.T) {
	client := staticClient([]TaskSpec{
		{ID: "t1", Resources: TaskResources{CPUs: 1, Mem: 256}},
	}, nil)
	core, state, launcher := newTestScheduler(t, client)

	offer := sampleOffer()
	require.True(t, state.BeginOffer("offer-1"))
	require.NoError(t, core.processOffer(launcher, offer))

	require.Equal(t, 1, launcher.callCount())
	assert.Equal(t, "offer-1", launcher.calls[0].offerID)
	assert.Equal(t, []string{"t1"}, launcher.calls[0].taskIDs)

	launched, finished := state.Counters()
	assert.Equal(t, 1, launched)
	assert.Equal(t, 0, finished)
	assert.Equal(t, "TASK_STAGING", state.Snapshot().Tasks["t1"])

	assert.False(t, state.BeginOffer("offer-1"), "offer must stay consumed")
}

func TestProcessOfferDecisionFailure(t *testing.T) {
	client := staticClient(nil, errors.New("boom"))
	core, state, launcher := newTestScheduler(t, client)

	offer := sampleOffer()
	require.True(t, state.BeginOffer("offer-1"))
	err := core.processOffer(launcher, offer)
	require.Error(t, err)

	assert.Equal(t, 0, launcher.callCount(), "failed decision must not launch")
	launched, _ := state.Counters()
	assert.Equal(t, 0, launched)
	assert.True(t, state.BeginOffer("offer-1"), "declined offer id may be re-offered")
}

func TestProcessOfferEmptyDecision(t *testing.T) {
	client := staticClient([]TaskSpec{}, nil)
	core, state, launcher := newTestScheduler(t, client)

	offer := sampleOffer()
	require.True(t, state.BeginOffer("offer-1"))
	require.NoError(t, core.processOffer(launcher, offer))

	assert.Equal(t, 0, launcher.callCount())
}

func TestProcessOfferAllSpecsOverAllocated(t *testing.T) {
	client := staticClient([]TaskSpec{
		{ID: "greedy", Resources: TaskResources{CPUs: 1024, Mem: 1 << 20}},
	}, nil)
	core, state, launcher := newTestScheduler(t, client)

	offer := sampleOffer()
	require.True(t, state.BeginOffer("offer-1"))
	require.NoError(t, core.processOffer(launcher, offer))

	assert.Equal(t, 0, launcher.callCount())
	launched, _ := state.Counters()
	assert.Equal(t, 0, launched)
}

func TestProcessOfferRescindedMidFlight(t *testing.T) {
	var core *Scheduler
	client := &fakeClient{fn: func(context.Context, *OfferRecord) ([]TaskSpec, error) {
		// The rescission lands while the decision request is in
		// flight.
		core.HandleRescind("offer-1")
		return []TaskSpec{{ID: "t1", Resources: TaskResources{CPUs: 1, Mem: 256}}}, nil
	}}
	core, state, launcher := newTestScheduler(t, client)

	offer := sampleOffer()
	require.True(t, state.BeginOffer("offer-1"))
	require.NoError(t, core.processOffer(launcher, offer))

	assert.Equal(t, 0, launcher.callCount(), "rescinded offer must not launch")
	launched, _ := state.Counters()
	assert.Equal(t, 0, launched, "dropped launches are not counted")
}

func TestHandleOffersProcessesEachOfferIndependently(t *testing.T) {
	client := staticClient([]TaskSpec{
		{ID: "t1", Resources: TaskResources{CPUs: 1, Mem: 256}},
	}, nil)
	core, _, launcher := newTestScheduler(t, client)

	first := sampleOffer()
	second := sampleOffer()
	second.Id = &mesos.OfferID{Value: stringPtr("offer-2")}
	core.HandleOffers(launcher, []*mesos.Offer{first, second})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case call := <-launcher.launched:
			seen[call.offerID] = true
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for launches")
		}
	}
	assert.True(t, seen["offer-1"])
	assert.True(t, seen["offer-2"])
}

func TestHandleOffersIgnoresDuplicateOfferIDs(t *testing.T) {
	client := staticClient([]TaskSpec{
		{ID: "t1", Resources: TaskResources{CPUs: 1, Mem: 256}},
	}, nil)
	core, _, launcher := newTestScheduler(t, client)

	core.HandleOffers(launcher, []*mesos.Offer{sampleOffer(), sampleOffer()})

	select {
	case <-launcher.launched:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for launch")
	}
	select {
	case call := <-launcher.launched:
		t.Fatalf("unexpected second launch for offer %s", call.offerID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDecisionTimeoutDeclinesOffer(t *testing.T) {
	client := &fakeClient{fn: func(ctx context.Context, _ *OfferRecord) ([]TaskSpec, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	state := NewState()
	core := New(context.Background(), state, client, testExecutor(), Options{
		DecisionTimeout: 50 * time.Millisecond,
	})
	launcher := newFakeLauncher()

	offer := sampleOffer()
	require.True(t, state.BeginOffer("offer-1"))
	err := core.processOffer(launcher, offer)
	require.Error(t, err)
	assert.Equal(t, 0, launcher.callCount())
}

func TestLifecycleHandlers(t *testing.T) {
	core, state, _ := newTestScheduler(t, staticClient(nil, nil))

	core.HandleRegistered("fw-1")
	assert.Equal(t, Registered, state.Connection())
	assert.Equal(t, "fw-1", state.FrameworkID())

	core.HandleDisconnected()
	assert.Equal(t, Disconnected, state.Connection())

	core.HandleReregistered()
	assert.Equal(t, Registered, state.Connection())

	core.HandleStatusUpdate("t9", "slave-3", TaskFinished, "done")
	_, finished := state.Counters()
	assert.Equal(t, 1, finished)

	core.HandleError("framework removed")
	assert.Equal(t, Disconnected, state.Connection())
}

func stringPtr(s string) *string {
	return &s
}
