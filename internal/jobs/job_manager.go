package jobs

import (
	"fmt"
)

// Job is a scheduled background task.
type Job interface {
	Start() error
	Stop()
}

// JobManager starts and stops the background jobs together.
type JobManager struct {
	jobs []Job
}

// NewJobManager keeps the non-nil jobs in start order.
func NewJobManager(jobs ...Job) *JobManager {
	jm := &JobManager{}
	for _, j := range jobs {
		if j == nil || isNilJob(j) {
			continue
		}
		jm.jobs = append(jm.jobs, j)
	}
	return jm
}

// StartAll starts every job. If one fails, the already started ones are stopped.
func (jm *JobManager) StartAll() error {
	for i, j := range jm.jobs {
		if err := j.Start(); err != nil {
			for k := i - 1; k >= 0; k-- {
				jm.jobs[k].Stop()
			}
			return fmt.Errorf("failed to start job %T: %w", j, err)
		}
	}
	return nil
}

// StopAll stops the jobs in reverse start order.
func (jm *JobManager) StopAll() {
	for i := len(jm.jobs) - 1; i >= 0; i-- {
		jm.jobs[i].Stop()
	}
}

func isNilJob(j Job) bool {
	switch v := j.(type) {
	case *DriverPresenceJob:
		return v == nil
	case *OrderDispatchJob:
		return v == nil
	}
	return false
}
