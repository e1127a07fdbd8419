package scheduler

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	multierror "github.com/hashicorp/go-multierror"
	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	"github.com/mesos/mesos-go/api/v0/mesosutil"
	"github.com/pkg/errors"
)

// ErrOverAllocation indicates a task spec requested more of a resource
// than the offer holds. The spec is skipped; remaining specs still launch.
var ErrOverAllocation = errors.New("task spec exceeds offered resources")

// TaskSpec is one task the decision service asked us to run against an
// offer. It is produced per-offer and consumed immediately; nothing
// persists it.
type TaskSpec struct {
	ID        string        `json:"id"`
	Resources TaskResources `json:"resources"`
}

// TaskResources are the scalar amounts a task spec requests.
type TaskResources struct {
	CPUs float64 `json:"cpus"`
	Mem  float64 `json:"mem"`
}

// BuildLaunches converts accepted task specs into Mesos TaskInfos bound to
// the given offer's slave and the framework's single executor. Specs that
// request more cpus or mem than the offer has left are skipped; their
// errors come back aggregated next to the successfully built tasks.
func BuildLaunches(offer *mesos.Offer, executor *mesos.ExecutorInfo, specs []TaskSpec) ([]*mesos.TaskInfo, error) {
	availableCPUs, availableMem := scalarTotals(offer.GetResources())

	var errs *multierror.Error
	tasks := make([]*mesos.TaskInfo, 0, len(specs))
	for _, spec := range specs {
		if spec.Resources.CPUs > availableCPUs || spec.Resources.Mem > availableMem {
			errs = multierror.Append(errs, errors.Wrapf(ErrOverAllocation,
				"task %s wants cpus=%g mem=%g but offer %s has cpus=%g mem=%g left",
				spec.ID, spec.Resources.CPUs, spec.Resources.Mem,
				offer.GetId().GetValue(), availableCPUs, availableMem))
			continue
		}
		availableCPUs -= spec.Resources.CPUs
		availableMem -= spec.Resources.Mem

		tasks = append(tasks, &mesos.TaskInfo{
			Name:     proto.String(fmt.Sprintf("task %s", spec.ID)),
			TaskId:   mesosutil.NewTaskID(spec.ID),
			SlaveId:  offer.GetSlaveId(),
			Executor: executor,
			Resources: []*mesos.Resource{
				mesosutil.NewScalarResource("cpus", spec.Resources.CPUs),
				mesosutil.NewScalarResource("mem", spec.Resources.Mem),
			},
		})
	}
	return tasks, errs.ErrorOrNil()
}

// trackedTasks mirrors built TaskInfos into lifecycle records, all in the
// initial staging state.
func trackedTasks(tasks []*mesos.TaskInfo) []*Task {
	records := make([]*Task, 0, len(tasks))
	for _, task := range tasks {
		records = append(records, &Task{
			ID:         task.GetTaskId().GetValue(),
			SlaveID:    task.GetSlaveId().GetValue(),
			ExecutorID: task.GetExecutor().GetExecutorId().GetValue(),
			State:      TaskStaging,
		})
	}
	return records
}

func scalarTotals(resources []*mesos.Resource) (cpus, mem float64) {
	for _, r := range resources {
		if r.GetType() != mesos.Value_SCALAR {
			continue
		}
		switch r.GetName() {
		case "cpus":
			cpus += r.GetScalar().GetValue()
		case "mem":
			mem += r.GetScalar().GetValue()
		}
	}
	return cpus, mem
}
