package background

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	mu      sync.Mutex
	calls   int
	changed int
	err     error
	done    chan struct{}
}

func (f *fakeSyncer) SyncAll(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.done != nil {
		close(f.done)
		f.done = nil
	}
	return f.changed, f.err
}

func TestNewJobScheduler_RejectsBadCron(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewJobScheduler("every night", time.UTC, &fakeSyncer{}, logger)

	assert.Error(t, err)
}

func TestJobScheduler_RunNow(t *testing.T) {
	logger, hook := test.NewNullLogger()
	syncer := &fakeSyncer{changed: 4, done: make(chan struct{})}
	done := syncer.done

	js, err := NewJobScheduler("0 3 * * *", time.UTC, syncer, logger)
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	require.NoError(t, js.RunNow(statusSyncJob))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("status sync did not run")
	}

	assert.Error(t, js.RunNow("missing"))

	status := js.GetJobStatus()
	assert.Equal(t, 1, status["total_jobs"])
	assert.Contains(t, status["jobs"], statusSyncJob)

	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "scheduled status sync completed" {
				return e.Data["changed"] == 4
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}

func TestJobScheduler_SyncFailureIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	js := &JobScheduler{syncer: &fakeSyncer{err: errors.New("db down")}, log: logger}

	err := js.syncStatuses(context.Background())

	assert.Error(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
