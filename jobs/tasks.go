package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardRefresh recomputes the admin dashboard snapshot.
	TaskDashboardRefresh = "dashboard:refresh"
)

// DashboardRefreshPayload tells why a refresh was requested.
type DashboardRefreshPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewDashboardRefreshTask constructs an Asynq task.
func NewDashboardRefreshTask(payload DashboardRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardRefresh, data), nil
}

// DashboardCron registers the periodic refresh.
func DashboardCron(interval time.Duration) (CronRegistration, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	task, err := NewDashboardRefreshTask(DashboardRefreshPayload{Reason: "schedule"})
	if err != nil {
		return CronRegistration{}, err
	}
	return CronRegistration{
		Spec:    "@every " + interval.String(),
		Task:    task,
		Options: []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(0), asynq.Timeout(interval)},
	}, nil
}
