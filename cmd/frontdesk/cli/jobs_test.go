package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hotelia/frontdesk/jobs"
)

func TestTaskForKnownJobs(t *testing.T) {
	task, err := taskFor(jobs.TaskDashboardRefresh)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskDashboardRefresh, task.Type())
	require.Contains(t, string(task.Payload()), `"manual"`)
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), "ledger:close")
	require.ErrorContains(t, err, "unsupported job ledger:close")
}

func TestRunUsage(t *testing.T) {
	err := Run(context.Background(), "127.0.0.1:6379", nil, func(string) {})
	require.ErrorContains(t, err, "usage")

	err = Run(context.Background(), "", []string{"stats"}, func(string) {})
	require.ErrorContains(t, err, "redis address required")
}

func TestQueueStatsString(t *testing.T) {
	s := QueueStats{Queue: "default", Pending: 2, Retry: 1}
	require.Equal(t, "queue=default pending=2 active=0 scheduled=0 retry=1", s.String())
}
