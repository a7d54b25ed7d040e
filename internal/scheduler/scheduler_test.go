package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"recap/internal/compaction"
)

func TestScheduler_CoalescesOverlappingTriggers(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	run := func(ctx context.Context, userID, projectPath string, now time.Time) compaction.Result {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			once.Do(func() { close(started) })
			<-release
		}
		return compaction.Result{}
	}

	s := NewScheduler(run, zerolog.Nop())
	s.Trigger(context.Background(), "u1", "/p")
	<-started

	// Two more triggers arrive while the first run is still in flight;
	// they must coalesce into at most one extra run.
	s.Trigger(context.Background(), "u1", "/p")
	s.Trigger(context.Background(), "u1", "/p")

	close(release)

	deadline := time.After(2 * time.Second)
	for {
		s.mu.Lock()
		done := !s.running["u1"]
		s.mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("scheduler never finished")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected exactly 2 runs (1 initial + 1 coalesced), got %d", got)
	}
}
