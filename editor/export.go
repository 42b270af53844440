package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/unrealsaint/lucera2missionparser/cache"
	"github.com/unrealsaint/lucera2missionparser/reward"
	"go.uber.org/zap"
)

// Output file names used by ExportFiles.
const (
	MarkupFileName   = "OneDayReward.xml"
	FlatTextFileName = "onedayreward.txt"
)

const exportLockTTL = time.Minute

// ExportKey is the cache key of a rendered catalog revision.
func (s *Service) ExportKey(format reward.Format, revision uint64) string {
	return fmt.Sprintf("catalog:export:%s:%s:%d", s.instance, format, revision)
}

// Export renders the catalog in format. Renders are memoized per
// revision, so repeated downloads of an unchanged catalog skip the codec.
func (s *Service) Export(ctx context.Context, format reward.Format) ([]byte, error) {
	if s.cache == nil {
		data, _, _, err := s.render(format)
		return data, err
	}
	key := s.ExportKey(format, s.Revision())
	if v, err := s.cache.Get(ctx, key); err == nil {
		return []byte(v), nil
	} else if !cache.IsMiss(err) {
		s.logger.Warn("export cache read failed", zap.String("key", key), zap.Error(err))
	}

	data, rev, _, err := s.render(format)
	if err != nil {
		return nil, err
	}
	// The revision may have moved between the lookup and the render.
	key = s.ExportKey(format, rev)
	if err := s.cache.Set(ctx, key, string(data), s.cfg.ExportCacheTTL); err != nil {
		s.logger.Warn("export cache write failed", zap.String("key", key), zap.Error(err))
	}
	return data, nil
}

// ExportFiles writes both formats into dir (the configured export dir when
// empty). It returns false without writing when another export holds the
// lock.
func (s *Service) ExportFiles(ctx context.Context, dir string) (bool, error) {
	if dir == "" {
		dir = s.cfg.ExportDir
	}
	if dir == "" {
		return false, ErrNoPath
	}
	if s.cache != nil {
		ok, err := s.cache.SetNX(ctx, "lock:export", s.instance, exportLockTTL)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		defer func() { _ = s.cache.Del(context.Background(), "lock:export") }()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("%w: create %s: %v", reward.ErrIO, dir, err)
	}
	if err := s.SaveMarkup(ctx, filepath.Join(dir, MarkupFileName)); err != nil {
		return false, err
	}
	if err := s.SaveFlatText(ctx, filepath.Join(dir, FlatTextFileName)); err != nil {
		return false, err
	}
	return true, nil
}
