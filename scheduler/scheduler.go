// Package scheduler manages periodic ticks and delayed one-shot
// invocations with a distinct interruption path, so a cancelled delay can
// still run its cleanup.
package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Scheduler manages named tickers and cancellable delays. Callbacks run on
// timer goroutines; callers that mutate game state must route the callback
// through the engine loop.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*tickerEntry
	delays  map[string]*delayEntry
	logger  *zap.Logger
	stopCh  chan struct{}
}

type tickerEntry struct {
	ticker *time.Ticker
	stopCh chan struct{}
}

type delayEntry struct {
	timer       *time.Timer
	onInterrupt TaskFn
}

// New creates a Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tickers: make(map[string]*tickerEntry),
		delays:  make(map[string]*delayEntry),
		stopCh:  make(chan struct{}),
		logger:  logger,
	}
}

// AddTicker registers a task to run on a fixed interval. A task with the
// same name is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tickers[name]; ok {
		close(old.stopCh)
		delete(s.tickers, name)
	}

	entry := &tickerEntry{
		ticker: time.NewTicker(interval),
		stopCh: make(chan struct{}),
	}
	s.tickers[name] = entry

	go func() {
		for {
			select {
			case <-entry.ticker.C:
				s.runSafe(name, fn)
			case <-entry.stopCh:
				entry.ticker.Stop()
				return
			case <-s.stopCh:
				entry.ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered",
		zap.String("name", name), zap.Duration("interval", interval))
}

// Delay schedules onComplete to run once after d and returns the
// scheduling id used for cancellation. Cancelling before it fires runs
// onInterrupt instead; exactly one of the two callbacks ever runs. Either
// callback may be nil.
func (s *Scheduler) Delay(d time.Duration, onComplete, onInterrupt TaskFn) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &delayEntry{onInterrupt: onInterrupt}
	entry.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.delays[id]
		delete(s.delays, id)
		s.mu.Unlock()
		// A concurrent Cancel may have won; it already ran onInterrupt.
		if !live {
			return
		}
		if onComplete != nil {
			s.runSafe(id, onComplete)
		}
	})
	s.delays[id] = entry
	return id
}

// Cancel interrupts a pending delay by id. Returns false when the id is
// unknown or the delay already fired.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	entry, ok := s.delays[id]
	if ok {
		delete(s.delays, id)
		entry.timer.Stop()
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	if entry.onInterrupt != nil {
		s.runSafe(id, entry.onInterrupt)
	}
	return true
}

// Pending returns the number of delays that have not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}

// RemoveTicker stops and removes a ticker by name.
func (s *Scheduler) RemoveTicker(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.tickers[name]; ok {
		close(entry.stopCh)
		delete(s.tickers, name)
	}
}

// Stop stops all tickers. Pending delays are left to fire; callers that
// want them interrupted cancel them individually first.
func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// ListTickers returns the names of all registered ticker tasks.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) runSafe(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
	}()
	fn()
}
