package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/walink/internal/logging"
)

func noop(ctx context.Context) error { return nil }

func TestNewRejectsUnknownTimezone(t *testing.T) {
	_, err := New("Mars/Olympus", logging.Discard())
	assert.Error(t, err)
}

func TestAddSyncJob(t *testing.T) {
	s, err := New("Asia/Jakarta", logging.Discard())
	require.NoError(t, err)

	require.NoError(t, s.AddSyncJob("*/30 * * * *", noop))
	assert.Error(t, s.AddSyncJob("*/30 * * * *", noop), "duplicate name")

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, SyncJobName, jobs[0].Name)

	s.RemoveJob(SyncJobName)
	assert.Empty(t, s.ListJobs())
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s, err := New("UTC", logging.Discard())
	require.NoError(t, err)

	assert.Error(t, s.AddJob("bad", "every half hour", noop))
	assert.Empty(t, s.ListJobs())
}

func TestNextRunAfterStart(t *testing.T) {
	s, err := New("UTC", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, s.AddSyncJob("0 * * * *", noop))

	s.Start()
	defer s.Stop()

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].NextRun.After(time.Now()))
	assert.Zero(t, jobs[0].NextRun.Minute())
}

func TestRunNow(t *testing.T) {
	s, err := New("UTC", logging.Discard())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.RunNow(context.Background(), SyncJobName, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok, "jobs run with a deadline")
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
