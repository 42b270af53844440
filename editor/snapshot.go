package editor

import (
	"context"
	"errors"
	"time"

	"github.com/unrealsaint/lucera2missionparser/catalog"
	"github.com/unrealsaint/lucera2missionparser/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoDatabase is returned by snapshot operations when no DB is wired.
var ErrNoDatabase = errors.New("editor: no database configured")

const snapshotBatch = 200

// SaveSnapshot replaces the stored snapshot with the current catalog in
// one transaction and returns the number of rows written.
func (s *Service) SaveSnapshot(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrNoDatabase
	}
	start := time.Now()

	s.mu.RLock()
	rev := s.revision
	rows := make([]*model.RewardSnapshot, 0, s.cat.Len())
	var err error
	for i, rw := range s.cat.Rewards() {
		var row *model.RewardSnapshot
		if row, err = model.NewRewardSnapshot(i, rw); err != nil {
			break
		}
		rows = append(rows, row)
	}
	s.mu.RUnlock()

	if err == nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("1 = 1").Delete(&model.RewardSnapshot{}).Error; err != nil {
				return err
			}
			if len(rows) == 0 {
				return nil
			}
			return tx.CreateInBatches(rows, snapshotBatch).Error
		})
	}
	s.record(ctx, "catalog.snapshot", nil, map[string]int{"rows": len(rows)}, err, start)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if rev > s.savedRev {
		s.savedRev = rev
	}
	s.mu.Unlock()
	s.logger.Info("catalog snapshot saved", zap.Int("rows", len(rows)), zap.Uint64("revision", rev))
	return len(rows), nil
}

// LoadSnapshot replaces the catalog with the stored snapshot, in stored order.
func (s *Service) LoadSnapshot(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrNoDatabase
	}
	start := time.Now()

	var rows []model.RewardSnapshot
	err := s.db.WithContext(ctx).Order("position ASC").Find(&rows).Error
	next := catalog.New()
	if err == nil {
		for i := range rows {
			rw, convErr := rows[i].Reward()
			if convErr != nil {
				err = convErr
				break
			}
			next.Put(rw)
		}
	}
	if err != nil {
		s.record(ctx, "catalog.restore", nil, nil, err, start)
		return 0, err
	}

	s.mu.Lock()
	s.cat = next
	rev, size := s.bumpLocked()
	s.savedRev = rev
	s.mu.Unlock()

	s.afterChange(ctx, "catalog.restore", nil, map[string]int{"rows": len(rows)}, nil, start,
		Event{Action: ActionRestore, Revision: rev, Size: size})
	return size, nil
}

// Autosave snapshots the catalog when it changed since the last snapshot.
func (s *Service) Autosave(ctx context.Context) (bool, error) {
	s.mu.RLock()
	dirty := s.revision != s.savedRev
	s.mu.RUnlock()
	if !dirty {
		return false, nil
	}
	if _, err := s.SaveSnapshot(ctx); err != nil {
		return false, err
	}
	return true, nil
}
