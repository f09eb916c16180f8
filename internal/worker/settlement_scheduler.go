package worker

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/edgemarket/internal/logger"
)

const settleTimeout = 10 * time.Second

// Settler closes a trade whose duration has elapsed
type Settler interface {
	AutoClose(ctx context.Context, tradeID uint) error
}

// SettlementScheduler fires the auto-close of open trades at their due
// time. Pending closes live in a min-heap keyed by due time; a single loop
// sleeps until the earliest one.
type SettlementScheduler struct {
	settler Settler

	mu    sync.Mutex
	queue dueQueue
	index map[uint]*dueItem

	wake     chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
}

// NewSettlementScheduler creates a new SettlementScheduler
func NewSettlementScheduler(settler Settler) *SettlementScheduler {
	return &SettlementScheduler{
		settler:  settler,
		index:    make(map[uint]*dueItem),
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
}

// Schedule arms the auto-close of a trade. Scheduling a trade again moves
// its due time.
func (s *SettlementScheduler) Schedule(tradeID uint, due time.Time) {
	s.mu.Lock()
	if item, ok := s.index[tradeID]; ok {
		item.due = due
		heap.Fix(&s.queue, item.pos)
	} else {
		item := &dueItem{tradeID: tradeID, due: due}
		heap.Push(&s.queue, item)
		s.index[tradeID] = item
	}
	s.mu.Unlock()
	s.signal()
}

// Cancel disarms the auto-close of a trade. Unknown IDs are ignored.
func (s *SettlementScheduler) Cancel(tradeID uint) {
	s.mu.Lock()
	if item, ok := s.index[tradeID]; ok {
		heap.Remove(&s.queue, item.pos)
		delete(s.index, tradeID)
	}
	s.mu.Unlock()
	s.signal()
}

// Pending returns the number of armed closes
func (s *SettlementScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Start runs the scheduling loop until ctx is done or Stop is called.
func (s *SettlementScheduler) Start(ctx context.Context) {
	logger.Info("settlement scheduler started", "pending", s.Pending())

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		if wait, ok := s.untilNext(); ok {
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			logger.Info("settlement scheduler stopped")
			return
		case <-s.stopChan:
			logger.Info("settlement scheduler stopped")
			return
		case <-s.wake:
		case <-timer.C:
			s.fireDue(ctx)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

// Stop ends the loop and waits for closes already firing.
func (s *SettlementScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.inflight.Wait()
}

func (s *SettlementScheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *SettlementScheduler) untilNext() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return 0, false
	}
	wait := time.Until(s.queue[0].due)
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

func (s *SettlementScheduler) fireDue(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	var due []uint
	for len(s.queue) > 0 && !s.queue[0].due.After(now) {
		item := heap.Pop(&s.queue).(*dueItem)
		delete(s.index, item.tradeID)
		due = append(due, item.tradeID)
	}
	s.mu.Unlock()

	base := context.WithoutCancel(ctx)
	for _, tradeID := range due {
		s.inflight.Add(1)
		go func(tradeID uint) {
			defer s.inflight.Done()

			settleCtx, cancel := context.WithTimeout(base, settleTimeout)
			defer cancel()

			if err := s.settler.AutoClose(settleCtx, tradeID); err != nil {
				logger.Error("auto-close failed", "trade_id", tradeID, "error", err)
			}
		}(tradeID)
	}
}

type dueItem struct {
	tradeID uint
	due     time.Time
	pos     int
}

// dueQueue implements heap.Interface ordered by due time
type dueQueue []*dueItem

func (q dueQueue) Len() int { return len(q) }

func (q dueQueue) Less(i, j int) bool { return q[i].due.Before(q[j].due) }

func (q dueQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].pos = i
	q[j].pos = j
}

func (q *dueQueue) Push(x any) {
	item := x.(*dueItem)
	item.pos = len(*q)
	*q = append(*q, item)
}

func (q *dueQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
