// Package audit persists level run outcomes asynchronously.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aokumo/nightwarden/game/world"
	"github.com/aokumo/nightwarden/model"
)

const (
	chanBuf       = 1024
	batchSize     = 100
	flushInterval = 2 * time.Second
)

// Service writes run logs in background batches. Implements world.Recorder.
type Service struct {
	db     *gorm.DB
	ch     chan *model.RunLog
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.RunLog, chanBuf),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// RecordRun enqueues a run outcome for async DB write.
func (svc *Service) RecordRun(entry world.RunEntry) {
	detailJSON, _ := json.Marshal(entry.Detail)
	record := &model.RunLog{
		RoomID:     entry.RoomID,
		LevelID:    entry.LevelID,
		AccountID:  entry.AccountID,
		Outcome:    entry.Outcome,
		DurationMs: int(entry.Duration.Milliseconds()),
		Detail:     datatypes.JSON(detailJSON),
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("run log channel full, dropping entry",
			zap.String("room_id", entry.RoomID),
			zap.String("outcome", entry.Outcome))
	}
}

// Recent returns the latest run logs, newest first.
func (svc *Service) Recent(limit int) ([]*model.RunLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*model.RunLog
	err := svc.db.Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.RunLog, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("run log batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
