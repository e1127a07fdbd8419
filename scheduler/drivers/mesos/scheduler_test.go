package mesosdriver

import (
	"testing"

	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	"github.com/stretchr/testify/assert"

	"github.com/mesosproxy/scheduler/scheduler"
)

func TestMesosToTaskState(t *testing.T) {
	fixtures := []struct {
		input mesos.TaskState
		want  scheduler.TaskState
	}{
		{mesos.TaskState_TASK_STAGING, scheduler.TaskStaging},
		{mesos.TaskState_TASK_STARTING, scheduler.TaskStarting},
		{mesos.TaskState_TASK_RUNNING, scheduler.TaskRunning},
		{mesos.TaskState_TASK_FINISHED, scheduler.TaskFinished},
		{mesos.TaskState_TASK_FAILED, scheduler.TaskFailed},
		{mesos.TaskState_TASK_KILLED, scheduler.TaskKilled},
		{mesos.TaskState_TASK_LOST, scheduler.TaskLost},
	}

	for _, f := range fixtures {
		assert.Equal(t, f.want, mesosToTaskState(f.input))
	}
}

func TestUnrecognizedStateMapsToLost(t *testing.T) {
	assert.Equal(t, scheduler.TaskLost, mesosToTaskState(mesos.TaskState(99)))
}
