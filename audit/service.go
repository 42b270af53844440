// Package audit persists a trail of catalog edits and file operations.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/unrealsaint/lucera2missionparser/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	queueSize     = 1024
	batchSize     = 100
	flushInterval = 2 * time.Second
)

// Entry describes one editor action.
type Entry struct {
	TraceID  string
	Editor   string
	Action   string
	RewardID *int
	Request  interface{}
	Err      error
	IP       string
	Duration time.Duration
}

// Service writes audit entries asynchronously in batches.
type Service struct {
	db       *gorm.DB
	ch       chan *model.AuditLog
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// New creates an audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.AuditLog, queueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an entry. A nil Service discards it.
func (svc *Service) Log(e Entry) {
	if svc == nil {
		return
	}
	record := &model.AuditLog{
		TraceID:    e.TraceID,
		Editor:     e.Editor,
		Action:     e.Action,
		RewardID:   e.RewardID,
		IP:         e.IP,
		DurationMs: int(e.Duration / time.Millisecond),
	}
	if e.Request != nil {
		if raw, err := json.Marshal(e.Request); err == nil {
			record.Request = datatypes.JSON(raw)
		}
	}
	if e.Err != nil {
		record.Error = e.Err.Error()
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit queue full, dropping entry",
			zap.String("action", e.Action),
			zap.String("editor", e.Editor))
	}
}

// Stop flushes queued entries and blocks until the worker exits.
func (svc *Service) Stop(_ context.Context) {
	if svc == nil {
		return
	}
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed",
				zap.Int("entries", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-svc.ch:
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case rec := <-svc.ch:
					batch = append(batch, rec)
					if len(batch) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
