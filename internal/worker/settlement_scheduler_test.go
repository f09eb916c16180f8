package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSettler struct {
	mu     sync.Mutex
	closed []uint
	err    error
	fired  chan uint
}

func newRecordingSettler() *recordingSettler {
	return &recordingSettler{fired: make(chan uint, 16)}
}

func (r *recordingSettler) AutoClose(_ context.Context, tradeID uint) error {
	r.mu.Lock()
	r.closed = append(r.closed, tradeID)
	r.mu.Unlock()
	r.fired <- tradeID
	return r.err
}

func (r *recordingSettler) ids() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint(nil), r.closed...)
}

func startScheduler(t *testing.T, settler Settler) *SettlementScheduler {
	t.Helper()
	s := NewSettlementScheduler(settler)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	t.Cleanup(func() {
		cancel()
		s.Stop()
	})
	return s
}

func waitFired(t *testing.T, r *recordingSettler) uint {
	t.Helper()
	select {
	case id := <-r.fired:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("auto-close did not fire")
		return 0
	}
}

func TestSchedulerFiresInDueOrder(t *testing.T) {
	settler := newRecordingSettler()
	s := startScheduler(t, settler)

	now := time.Now()
	s.Schedule(2, now.Add(80*time.Millisecond))
	s.Schedule(1, now.Add(20*time.Millisecond))

	assert.Equal(t, uint(1), waitFired(t, settler))
	assert.Equal(t, uint(2), waitFired(t, settler))
	assert.Zero(t, s.Pending())
}

func TestSchedulerFiresOverdueImmediately(t *testing.T) {
	settler := newRecordingSettler()
	s := startScheduler(t, settler)

	s.Schedule(7, time.Now().Add(-time.Minute))
	assert.Equal(t, uint(7), waitFired(t, settler))
}

func TestSchedulerCancel(t *testing.T) {
	settler := newRecordingSettler()
	s := startScheduler(t, settler)

	now := time.Now()
	s.Schedule(1, now.Add(50*time.Millisecond))
	s.Schedule(2, now.Add(100*time.Millisecond))
	s.Cancel(1)
	s.Cancel(99)

	assert.Equal(t, uint(2), waitFired(t, settler))
	assert.Equal(t, []uint{2}, settler.ids())
}

func TestSchedulerRescheduleMovesDueTime(t *testing.T) {
	settler := newRecordingSettler()
	s := startScheduler(t, settler)

	now := time.Now()
	s.Schedule(1, now.Add(time.Hour))
	s.Schedule(2, now.Add(60*time.Millisecond))
	s.Schedule(1, now.Add(10*time.Millisecond))
	require.Equal(t, 2, s.Pending())

	assert.Equal(t, uint(1), waitFired(t, settler))
	assert.Equal(t, uint(2), waitFired(t, settler))
}

func TestSchedulerDropsSettlerErrors(t *testing.T) {
	settler := newRecordingSettler()
	settler.err = errors.New("settle failed")
	s := startScheduler(t, settler)

	s.Schedule(1, time.Now())
	s.Schedule(2, time.Now().Add(20*time.Millisecond))

	waitFired(t, settler)
	waitFired(t, settler)
	assert.ElementsMatch(t, []uint{1, 2}, settler.ids())
}
