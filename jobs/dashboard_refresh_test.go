package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelia/frontdesk/internal/dashboard"
	jobmetrics "github.com/hotelia/frontdesk/internal/jobs"
	"github.com/hotelia/frontdesk/jobs"
	_ "github.com/hotelia/frontdesk/testing"
)

type refresherStub struct {
	calls int
	err   error
}

func (r *refresherStub) Refresh(context.Context) (dashboard.Snapshot, error) {
	r.calls++
	return dashboard.Snapshot{PendingRequests: 2}, r.err
}

func TestDashboardRefreshJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	stub := &refresherStub{}
	job := jobs.NewDashboardRefreshJob(stub, nil, metrics)

	task, err := jobs.NewDashboardRefreshTask(jobs.DashboardRefreshPayload{Reason: "test"})
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskDashboardRefresh, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, stub.calls)

	stub.err = errors.New("backend down")
	assert.Error(t, job.Handle(context.Background(), task))

	count, err := testutil.GatherAndCount(reg, "frontdesk_jobs_total", "frontdesk_jobs_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDashboardRefreshJobSkipsBadPayload(t *testing.T) {
	stub := &refresherStub{}
	job := jobs.NewDashboardRefreshJob(stub, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskDashboardRefresh, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, stub.calls)
}

func TestDashboardCron(t *testing.T) {
	entry, err := jobs.DashboardCron(30 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "@every 30s", entry.Spec)
	assert.Equal(t, jobs.TaskDashboardRefresh, entry.Task.Type())
}
