// Package editor serializes access to the reward catalog and adds the
// side effects of editing it: audit trail, change events, metrics,
// export memoization and database snapshots.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unrealsaint/lucera2missionparser/audit"
	"github.com/unrealsaint/lucera2missionparser/cache"
	"github.com/unrealsaint/lucera2missionparser/catalog"
	"github.com/unrealsaint/lucera2missionparser/config"
	"github.com/unrealsaint/lucera2missionparser/metrics"
	"github.com/unrealsaint/lucera2missionparser/reward"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("editor: reward not found")
	// ErrConflict means an update would move a reward onto an id already in use.
	ErrConflict = errors.New("editor: reward id already exists")
	// ErrNoPath means neither the call nor the config names a file.
	ErrNoPath = errors.New("editor: no file path configured")
	// ErrBadPath means a caller-supplied file name leaves the export directory.
	ErrBadPath = errors.New("editor: path outside export directory")
)

// Options wires the service's collaborators. Only Logger is required;
// nil DB disables snapshots, nil Cache disables export memoization.
type Options struct {
	Catalog config.CatalogConfig
	DB      *gorm.DB
	Cache   cache.Cache
	PubSub  cache.PubSub
	Audit   *audit.Service
	Metrics *metrics.CodecMetrics
	Logger  *zap.Logger
}

// Service owns the in-memory catalog. All methods are safe for concurrent use.
type Service struct {
	mu       sync.RWMutex
	cat      *catalog.Catalog
	revision uint64
	savedRev uint64 // revision of the last database snapshot

	cfg      config.CatalogConfig
	db       *gorm.DB
	cache    cache.Cache
	pubsub   cache.PubSub
	audit    *audit.Service
	metrics  *metrics.CodecMetrics
	logger   *zap.Logger
	instance string
}

// New creates a Service around an empty catalog.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cat:      catalog.New(),
		cfg:      opts.Catalog,
		db:       opts.DB,
		cache:    opts.Cache,
		pubsub:   opts.PubSub,
		audit:    opts.Audit,
		metrics:  opts.Metrics,
		logger:   logger,
		instance: uuid.NewString()[:8],
	}
}

// Revision increases on every catalog mutation.
func (s *Service) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Len returns the number of rewards held.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat.Len()
}

// List returns copies of every reward ordered by id.
func (s *Service) List() []*reward.Reward {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sorted := s.cat.Sorted()
	out := make([]*reward.Reward, len(sorted))
	for i, rw := range sorted {
		out[i] = rw.Clone()
	}
	return out
}

// Get returns a copy of the reward with the given id.
func (s *Service) Get(id int) (*reward.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rw, ok := s.cat.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return rw.Clone(), nil
}

// Upsert stores rw under rw.ID, keeping the slot of an existing entry.
// It reports whether a new entry was created.
func (s *Service) Upsert(ctx context.Context, rw *reward.Reward) (bool, error) {
	start := time.Now()
	rw = rw.Clone()

	s.mu.Lock()
	created := !s.cat.Has(rw.ID)
	s.cat.Put(rw)
	rev, size := s.bumpLocked()
	s.mu.Unlock()

	s.afterChange(ctx, "reward.upsert", &rw.ID, rw, nil, start,
		Event{Action: ActionUpsert, IDs: []int{rw.ID}, Revision: rev, Size: size})
	return created, nil
}

// Update replaces the reward stored under id with rw. When rw.ID differs
// this is a rename: the entry under id is removed and rw is appended at
// the end under its new id, so the old id no longer resolves. Use Create
// to add a copy under a new id while keeping the original.
func (s *Service) Update(ctx context.Context, id int, rw *reward.Reward) error {
	start := time.Now()
	rw = rw.Clone()

	s.mu.Lock()
	if !s.cat.Has(id) {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %d", ErrNotFound, id)
		s.record(ctx, "reward.update", &id, rw, err, start)
		return err
	}
	if rw.ID != id && s.cat.Has(rw.ID) {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %d", ErrConflict, rw.ID)
		s.record(ctx, "reward.update", &id, rw, err, start)
		return err
	}
	if rw.ID != id {
		s.cat.Delete(id)
	}
	s.cat.Put(rw)
	rev, size := s.bumpLocked()
	s.mu.Unlock()

	ids := []int{rw.ID}
	if rw.ID != id {
		ids = append(ids, id)
	}
	s.afterChange(ctx, "reward.update", &id, rw, nil, start,
		Event{Action: ActionUpsert, IDs: ids, Revision: rev, Size: size})
	return nil
}

// Delete removes the given ids and returns those that existed.
func (s *Service) Delete(ctx context.Context, ids ...int) []int {
	start := time.Now()

	s.mu.Lock()
	deleted := make([]int, 0, len(ids))
	for _, id := range ids {
		if s.cat.Delete(id) {
			deleted = append(deleted, id)
		}
	}
	var rev uint64
	var size int
	if len(deleted) > 0 {
		rev, size = s.bumpLocked()
	} else {
		rev, size = s.revision, s.cat.Len()
	}
	s.mu.Unlock()

	if len(deleted) == 0 {
		s.record(ctx, "reward.delete", nil, ids, nil, start)
		return deleted
	}
	var one *int
	if len(deleted) == 1 {
		one = &deleted[0]
	}
	s.afterChange(ctx, "reward.delete", one, ids, nil, start,
		Event{Action: ActionDelete, IDs: deleted, Revision: rev, Size: size})
	return deleted
}

// bumpLocked advances the revision. Caller holds the write lock.
func (s *Service) bumpLocked() (uint64, int) {
	s.revision++
	return s.revision, s.cat.Len()
}

func (s *Service) afterChange(ctx context.Context, action string, rewardID *int, req interface{}, err error, start time.Time, ev Event) {
	s.metrics.SetCatalogSize(ev.Size)
	s.record(ctx, action, rewardID, req, err, start)
	s.publish(ctx, ev)
}

func (s *Service) record(ctx context.Context, action string, rewardID *int, req interface{}, err error, start time.Time) {
	a := ActorFrom(ctx)
	s.audit.Log(audit.Entry{
		TraceID:  a.TraceID,
		Editor:   a.Editor,
		Action:   action,
		RewardID: rewardID,
		Request:  req,
		Err:      err,
		IP:       a.IP,
		Duration: time.Since(start),
	})
}
