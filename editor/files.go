package editor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/unrealsaint/lucera2missionparser/catalog"
	"github.com/unrealsaint/lucera2missionparser/reward"
	"go.uber.org/zap"
)

// ImportResult reports what a load or import changed.
type ImportResult struct {
	Format  reward.Format `json:"format"`
	Records int           `json:"records"`
	Added   []int         `json:"added,omitempty"`
	Updated []int         `json:"updated,omitempty"`
	// Skipped holds flat-text ids absent from the catalog.
	Skipped []int `json:"skipped,omitempty"`
}

func (s *Service) pathFor(format reward.Format, path string) (string, error) {
	if path != "" {
		return path, nil
	}
	switch format {
	case reward.FormatMarkup:
		path = s.cfg.MarkupPath
	case reward.FormatFlat:
		path = s.cfg.FlatTextPath
	}
	if path == "" {
		return "", ErrNoPath
	}
	return path, nil
}

// ClientPath resolves a file name supplied by a remote caller to a path
// under the export directory. Absolute names and names that climb out with
// ".." fail with ErrBadPath. An empty name stays empty so the configured
// catalog path applies.
func (s *Service) ClientPath(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrBadPath, name)
	}
	if s.cfg.ExportDir == "" {
		return "", ErrNoPath
	}
	return filepath.Join(s.cfg.ExportDir, filepath.Clean(name)), nil
}

// parse runs a parser and feeds the codec metrics.
func (s *Service) parse(format reward.Format, fn func() ([]*reward.Reward, error)) ([]*reward.Reward, error) {
	start := time.Now()
	rewards, err := fn()
	kind := ""
	if err != nil {
		kind = reward.Kind(err)
	}
	s.metrics.ObserveParse(string(format), len(rewards), kind, time.Since(start))
	return rewards, err
}

// LoadMarkup replaces the whole catalog with the contents of a markup
// file. An empty path means the configured markup path. On error the
// catalog is unchanged.
func (s *Service) LoadMarkup(ctx context.Context, path string) (ImportResult, error) {
	start := time.Now()
	path, err := s.pathFor(reward.FormatMarkup, path)
	if err != nil {
		return ImportResult{}, err
	}
	rewards, err := s.parse(reward.FormatMarkup, func() ([]*reward.Reward, error) {
		return catalog.ReadFile(path, reward.FormatMarkup)
	})
	req := map[string]string{"path": path}
	if err != nil {
		s.record(ctx, "catalog.load_markup", nil, req, err, start)
		return ImportResult{}, err
	}

	next := catalog.New()
	next.PutAll(rewards)
	res := ImportResult{Format: reward.FormatMarkup, Records: len(rewards), Added: next.IDs()}

	s.mu.Lock()
	s.cat = next
	rev, size := s.bumpLocked()
	s.mu.Unlock()

	s.logger.Info("catalog loaded",
		zap.String("path", path), zap.Int("records", len(rewards)), zap.Int("size", size))
	s.afterChange(ctx, "catalog.load_markup", nil, req, nil, start,
		Event{Action: ActionLoad, Format: string(reward.FormatMarkup), Path: path, Revision: rev, Size: size})
	return res, nil
}

// LoadFlatText overlays a flat-text file onto the catalog. Only name,
// description and category of existing rewards change.
func (s *Service) LoadFlatText(ctx context.Context, path string) (ImportResult, error) {
	start := time.Now()
	path, err := s.pathFor(reward.FormatFlat, path)
	if err != nil {
		return ImportResult{}, err
	}
	fragments, err := s.parse(reward.FormatFlat, func() ([]*reward.Reward, error) {
		return catalog.ReadFile(path, reward.FormatFlat)
	})
	req := map[string]string{"path": path}
	if err != nil {
		s.record(ctx, "catalog.load_flat", nil, req, err, start)
		return ImportResult{}, err
	}
	res := s.overlay(ctx, "catalog.load_flat", fragments, req, start, path)
	return res, nil
}

func (s *Service) overlay(ctx context.Context, action string, fragments []*reward.Reward, req interface{}, start time.Time, path string) ImportResult {
	s.mu.Lock()
	ov := s.cat.ApplyFlatOverlay(fragments)
	var rev uint64
	var size int
	if len(ov.Applied) > 0 {
		rev, size = s.bumpLocked()
	} else {
		rev, size = s.revision, s.cat.Len()
	}
	s.mu.Unlock()

	s.metrics.ObserveOverlay(len(ov.Applied), len(ov.Skipped))
	if len(ov.Skipped) > 0 {
		s.logger.Info("flat overlay skipped unknown rewards",
			zap.Ints("ids", ov.Skipped))
	}
	s.afterChange(ctx, action, nil, req, nil, start,
		Event{Action: ActionOverlay, IDs: ov.Applied, Format: string(reward.FormatFlat), Path: path, Revision: rev, Size: size})
	return ImportResult{
		Format:  reward.FormatFlat,
		Records: len(fragments),
		Updated: ov.Applied,
		Skipped: ov.Skipped,
	}
}

// Import parses an uploaded document. Markup adds or overwrites rewards
// by id; flat text is applied as an overlay.
func (s *Service) Import(ctx context.Context, format reward.Format, body io.Reader) (ImportResult, error) {
	start := time.Now()
	rewards, err := s.parse(format, func() ([]*reward.Reward, error) {
		return catalog.Decode(body, format)
	})
	req := map[string]string{"format": string(format)}
	if err != nil {
		s.record(ctx, "catalog.import", nil, req, err, start)
		return ImportResult{}, err
	}
	if format == reward.FormatFlat {
		return s.overlay(ctx, "catalog.import", rewards, req, start, ""), nil
	}

	res := ImportResult{Format: format, Records: len(rewards)}
	s.mu.Lock()
	for _, rw := range rewards {
		if s.cat.Has(rw.ID) {
			res.Updated = append(res.Updated, rw.ID)
		} else {
			res.Added = append(res.Added, rw.ID)
		}
		s.cat.Put(rw)
	}
	rev, size := s.bumpLocked()
	s.mu.Unlock()

	ids := append(append([]int{}, res.Added...), res.Updated...)
	s.afterChange(ctx, "catalog.import", nil, req, nil, start,
		Event{Action: ActionImport, IDs: ids, Format: string(format), Revision: rev, Size: size})
	return res, nil
}

// render serializes the catalog under the read lock and returns the
// bytes with the revision they reflect.
func (s *Service) render(format reward.Format) ([]byte, uint64, int, error) {
	start := time.Now()
	s.mu.RLock()
	data, err := s.cat.Render(format)
	rev, n := s.revision, s.cat.Len()
	s.mu.RUnlock()
	if err != nil {
		return nil, rev, n, err
	}
	s.metrics.ObserveWrite(string(format), n, time.Since(start))
	return data, rev, n, nil
}

// SaveMarkup writes the catalog as markup. An empty path means the
// configured markup path.
func (s *Service) SaveMarkup(ctx context.Context, path string) error {
	return s.save(ctx, reward.FormatMarkup, path)
}

// SaveFlatText writes the catalog as flat text. An empty path means the
// configured flat-text path.
func (s *Service) SaveFlatText(ctx context.Context, path string) error {
	return s.save(ctx, reward.FormatFlat, path)
}

func (s *Service) save(ctx context.Context, format reward.Format, path string) error {
	start := time.Now()
	path, err := s.pathFor(format, path)
	if err != nil {
		return err
	}
	req := map[string]string{"format": string(format), "path": path}
	data, rev, size, err := s.render(format)
	if err == nil {
		err = writeAtomic(path, data)
	}
	s.record(ctx, "catalog.save", nil, req, err, start)
	if err != nil {
		return err
	}
	s.logger.Info("catalog saved",
		zap.String("path", path), zap.String("format", string(format)), zap.Int("records", size))
	s.publish(ctx, Event{Action: ActionSave, Format: string(format), Path: path, Revision: rev, Size: size})
	return nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: write %s: %v", reward.ErrIO, path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: write %s: %v", reward.ErrIO, path, err)
	}
	return nil
}
