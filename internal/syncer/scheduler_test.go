package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerStartStop(t *testing.T) {
	e := NewEngine(testConfig("/src"), newFakeGit(), nil, &fakeIndexer{}, &fakeStore{}, nil)
	s := NewScheduler(e, time.Hour, time.Hour, nil)

	s.Start(context.Background())
	// Start is idempotent.
	s.Start(context.Background())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	// Stop is idempotent.
	s.Stop()
}

func TestSchedulerRunsInitialCycle(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(testConfig("/src"), newFakeGit(), nil, &fakeIndexer{}, store, nil)
	s := NewScheduler(e, time.Hour, time.Millisecond, nil)

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return store.lastSaved() != nil
	}, 5*time.Second, 10*time.Millisecond)
}
