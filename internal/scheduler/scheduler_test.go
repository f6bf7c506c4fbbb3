package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewScheduler(log)
}

func TestStartRequiresJobs(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.ScheduleCron("ingestion", "0 */6 * * *", time.Hour, func(ctx context.Context) error {
		return nil
	}))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestCannotScheduleWhileRunning(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.ScheduleEvery("sweep", time.Minute, func(ctx context.Context) error {
		return nil
	}))
	require.NoError(t, s.Start())
	defer s.Stop()

	err := s.ScheduleEvery("score-sync", time.Minute, func(ctx context.Context) error {
		return nil
	})
	assert.Error(t, err)
}

func TestInvalidCronExpression(t *testing.T) {
	s := newTestScheduler()
	err := s.ScheduleCron("bad", "not a cron expr", time.Minute, func(ctx context.Context) error {
		return nil
	})
	assert.Error(t, err)
}
