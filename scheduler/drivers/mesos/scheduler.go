package mesosdriver

import (
	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	sched "github.com/mesos/mesos-go/api/v0/scheduler"
	log "github.com/sirupsen/logrus"

	"github.com/mesosproxy/scheduler/scheduler"
)

// proxyScheduler implements mesos-go's Scheduler interface by forwarding
// every callback to the core. The driver handle passed into each callback
// is wrapped into the narrow Launcher capability the core works against.
type proxyScheduler struct {
	core *scheduler.Scheduler
}

func (p *proxyScheduler) Registered(_ sched.SchedulerDriver, frameworkID *mesos.FrameworkID, masterInfo *mesos.MasterInfo) {
	p.core.HandleRegistered(frameworkID.GetValue())
}

func (p *proxyScheduler) Reregistered(_ sched.SchedulerDriver, masterInfo *mesos.MasterInfo) {
	p.core.HandleReregistered()
}

func (p *proxyScheduler) Disconnected(_ sched.SchedulerDriver) {
	p.core.HandleDisconnected()
}

func (p *proxyScheduler) ResourceOffers(driver sched.SchedulerDriver, offers []*mesos.Offer) {
	p.core.HandleOffers(&driverLauncher{driver: driver}, offers)
}

func (p *proxyScheduler) OfferRescinded(_ sched.SchedulerDriver, offerID *mesos.OfferID) {
	p.core.HandleRescind(offerID.GetValue())
}

func (p *proxyScheduler) StatusUpdate(_ sched.SchedulerDriver, update *mesos.TaskStatus) {
	p.core.HandleStatusUpdate(
		update.GetTaskId().GetValue(),
		update.GetSlaveId().GetValue(),
		mesosToTaskState(update.GetState()),
		update.GetMessage(),
	)
}

func (p *proxyScheduler) FrameworkMessage(_ sched.SchedulerDriver, executorID *mesos.ExecutorID, slaveID *mesos.SlaveID, message string) {
	p.core.HandleFrameworkMessage(executorID.GetValue(), slaveID.GetValue(), message)
}

func (p *proxyScheduler) SlaveLost(_ sched.SchedulerDriver, slaveID *mesos.SlaveID) {
	p.core.HandleSlaveLost(slaveID.GetValue())
}

func (p *proxyScheduler) ExecutorLost(_ sched.SchedulerDriver, executorID *mesos.ExecutorID, slaveID *mesos.SlaveID, status int) {
	p.core.HandleExecutorLost(executorID.GetValue(), slaveID.GetValue(), status)
}

func (p *proxyScheduler) Error(_ sched.SchedulerDriver, message string) {
	p.core.HandleError(message)
}

// driverLauncher adapts the scheduler driver to the core's Launcher
// capability. All tasks for one offer go out in a single LaunchTasks call
// so the offer is consumed exactly once.
type driverLauncher struct {
	driver sched.SchedulerDriver
}

func (l *driverLauncher) LaunchTasks(offerID *mesos.OfferID, tasks []*mesos.TaskInfo) error {
	_, err := l.driver.LaunchTasks([]*mesos.OfferID{offerID}, tasks, &mesos.Filters{})
	return err
}

func mesosToTaskState(state mesos.TaskState) scheduler.TaskState {
	switch state {
	case mesos.TaskState_TASK_STAGING:
		return scheduler.TaskStaging
	case mesos.TaskState_TASK_STARTING:
		return scheduler.TaskStarting
	case mesos.TaskState_TASK_RUNNING:
		return scheduler.TaskRunning
	case mesos.TaskState_TASK_FINISHED:
		return scheduler.TaskFinished
	case mesos.TaskState_TASK_FAILED:
		return scheduler.TaskFailed
	case mesos.TaskState_TASK_KILLED:
		return scheduler.TaskKilled
	case mesos.TaskState_TASK_LOST:
		return scheduler.TaskLost
	default:
		log.Printf("Unrecognized Mesos task state %s", state.String())
		return scheduler.TaskLost
	}
}
