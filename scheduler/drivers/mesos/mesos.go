// Package mesosdriver wraps the mesos-go scheduler driver. It owns the
// driver lifecycle and translates driver callbacks into calls on the
// scheduler core, so the core never depends on the driver runtime.
package mesosdriver

import (
	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	sched "github.com/mesos/mesos-go/api/v0/scheduler"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mesosproxy/scheduler/scheduler"
)

// Driver runs the Mesos scheduler driver for a proxy scheduler core.
type Driver struct {
	mesosDriver sched.SchedulerDriver
}

// New allocates a Driver connected to the given master, delivering all
// callbacks to the core.
func New(core *scheduler.Scheduler, framework *mesos.FrameworkInfo, master string) (*Driver, error) {
	driverCfg := sched.DriverConfig{
		Scheduler: &proxyScheduler{core: core},
		Framework: framework,
		Master:    master,
	}

	log.Printf("Starting Mesos scheduler driver against master %s", master)
	mesosDriver, err := sched.NewMesosSchedulerDriver(driverCfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating Mesos scheduler driver")
	}
	return &Driver{mesosDriver: mesosDriver}, nil
}

// Run drives the event loop until the driver terminates. It returns true
// if the driver reports a clean stop, which the caller maps to the
// process exit status.
func (d *Driver) Run() (bool, error) {
	status, err := d.mesosDriver.Run()
	log.Infof("Mesos driver terminated. Status: %s : %v", status, err)
	return status == mesos.Status_DRIVER_STOPPED, err
}

// Stop signals the driver to stop its event loop without failover. The
// actual stopping happens asynchronously; Run unblocks once it is done.
func (d *Driver) Stop() error {
	status, err := d.mesosDriver.Stop(false)
	log.Infof("Mesos driver stopped. Status: %s : %v", status, err)
	return err
}
