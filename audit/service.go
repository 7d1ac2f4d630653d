package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/driftmud/driftmud/model"
)

// Entry holds one script or admin event to be logged.
type Entry struct {
	TraceID    string
	ScriptKey  string
	TrigType   string
	OwnerUID   uint64
	Context    interface{}
	Error      string
	DurationMs int
}

// Service logs script invocations asynchronously in batches. It satisfies
// the trigger dispatcher's Recorder interface.
type Service struct {
	db     *gorm.DB
	ch     chan *model.ScriptLog
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.ScriptLog, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an entry for async DB write.
func (svc *Service) Log(entry Entry) {
	ctxJSON, _ := json.Marshal(entry.Context)
	record := &model.ScriptLog{
		TraceID:    entry.TraceID,
		ScriptKey:  entry.ScriptKey,
		TrigType:   entry.TrigType,
		OwnerUID:   entry.OwnerUID,
		Context:    datatypes.JSON(ctxJSON),
		Error:      entry.Error,
		DurationMs: entry.DurationMs,
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("script_key", entry.ScriptKey))
	}
}

// RecordScript implements the trigger Recorder interface.
func (svc *Service) RecordScript(key, trigType string, ownerUID uint64, duration time.Duration, err error) {
	entry := Entry{
		ScriptKey:  key,
		TrigType:   trigType,
		OwnerUID:   ownerUID,
		DurationMs: int(duration.Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	svc.Log(entry)
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
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.ScriptLog, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= 100 {
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
