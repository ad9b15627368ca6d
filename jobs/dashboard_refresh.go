package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/hotelia/frontdesk/internal/dashboard"
	jobmetrics "github.com/hotelia/frontdesk/internal/jobs"
)

// Refresher recomputes the dashboard snapshot.
type Refresher interface {
	Refresh(ctx context.Context) (dashboard.Snapshot, error)
}

// DashboardRefreshJob handles TaskDashboardRefresh.
type DashboardRefreshJob struct {
	Refresher Refresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDashboardRefreshJob wires dependencies for the refresh handler.
func NewDashboardRefreshJob(refresher Refresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardRefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardRefreshJob{Refresher: refresher, Logger: logger, Metrics: metrics}
}

// Handle processes dashboard refresh tasks.
func (j *DashboardRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Refresher == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	var payload DashboardRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.Metrics.Track(TaskDashboardRefresh)
	snap, err := j.Refresher.Refresh(ctx)
	if err != nil {
		j.Logger.Error("dashboard refresh", slog.String("reason", payload.Reason), slog.Any("error", err))
		return tracker.End(err)
	}
	j.Logger.Debug("dashboard refreshed",
		slog.String("reason", payload.Reason),
		slog.Int("pending_requests", snap.PendingRequests),
		slog.Int("checked_in", snap.CheckedIn))
	return tracker.End(nil)
}
