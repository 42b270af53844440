// Package scheduler runs the editor's background jobs: fixed-interval
// tasks such as catalog autosave and cron-spec tasks such as file export.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Task kinds reported by List.
const (
	KindTicker = "ticker"
	KindDelay  = "delay"
	KindCron   = "cron"
)

// TaskInfo describes one registered task.
type TaskInfo struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next,omitempty"`
}

// Scheduler manages periodic, delayed and cron tasks.
type Scheduler struct {
	mu       sync.Mutex
	tickers  map[string]*tickerEntry
	timers   map[string]*timerEntry
	crons    map[string]*cronEntry
	cron     *cron.Cron
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

type tickerEntry struct {
	interval time.Duration
	stopCh   chan struct{}
}

type timerEntry struct {
	timer *time.Timer
	due   time.Time
}

type cronEntry struct {
	id   cron.EntryID
	spec string
}

// New creates a Scheduler. Cron specs take a leading seconds field.
func New(logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		tickers: make(map[string]*tickerEntry),
		timers:  make(map[string]*timerEntry),
		crons:   make(map[string]*cronEntry),
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
	s.cron.Start()
	return s
}

func (s *Scheduler) run(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name), zap.Any("recover", r))
		}
	}()
	fn()
}

// AddTicker registers a task to run on a fixed interval, replacing any
// ticker of the same name.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tickers[name]; ok {
		close(old.stopCh)
	}
	entry := &tickerEntry{interval: interval, stopCh: make(chan struct{})}
	s.tickers[name] = entry

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(name, fn)
			case <-entry.stopCh:
				return
			case <-s.stopCh:
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered",
		zap.String("name", name), zap.Duration("interval", interval))
}

// AddDelay runs fn once after delay, replacing any pending delay of the same name.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[name]; ok {
		old.timer.Stop()
	}
	entry := &timerEntry{due: time.Now().Add(delay)}
	entry.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[name] == entry {
			delete(s.timers, name)
		}
		s.mu.Unlock()
		s.run(name, fn)
	})
	s.timers[name] = entry
}

// AddCron registers fn under a six-field cron spec ("0 */15 * * * *"),
// replacing any cron task of the same name.
func (s *Scheduler) AddCron(name, spec string, fn TaskFn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	if err != nil {
		return err
	}
	if old, ok := s.crons[name]; ok {
		s.cron.Remove(old.id)
	}
	s.crons[name] = &cronEntry{id: id, spec: spec}
	s.logger.Info("scheduler cron registered",
		zap.String("name", name), zap.String("spec", spec))
	return nil
}

// Remove stops and removes every task registered under name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.tickers[name]; ok {
		close(entry.stopCh)
		delete(s.tickers, name)
	}
	if entry, ok := s.timers[name]; ok {
		entry.timer.Stop()
		delete(s.timers, name)
	}
	if entry, ok := s.crons[name]; ok {
		s.cron.Remove(entry.id)
		delete(s.crons, name)
	}
}

// Stop stops all tasks. Running cron jobs are not waited for.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.cron.Stop()
		s.mu.Lock()
		for _, entry := range s.timers {
			entry.timer.Stop()
		}
		s.mu.Unlock()
	})
}

// ListTickers returns the names of all registered ticker tasks, sorted.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List describes every registered task, sorted by name then kind.
func (s *Scheduler) List() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskInfo, 0, len(s.tickers)+len(s.timers)+len(s.crons))
	for name, e := range s.tickers {
		out = append(out, TaskInfo{Name: name, Kind: KindTicker, Schedule: e.interval.String()})
	}
	for name, e := range s.timers {
		out = append(out, TaskInfo{Name: name, Kind: KindDelay, Schedule: e.due.Format(time.RFC3339), Next: e.due})
	}
	for name, e := range s.crons {
		out = append(out, TaskInfo{Name: name, Kind: KindCron, Schedule: e.spec, Next: s.cron.Entry(e.id).Next})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
