package services

import (
	"sync"
	"time"

	"ideahub/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recountKey struct {
	Kind models.TargetKind
	ID   uint
}

// RecountService repairs denormalized tallies in the background. Targets land
// here when a synchronous tally write fails after a ledger write, or when an
// admin requests a repair; the worker simply re-runs the recount, which is
// idempotent.
type RecountService struct {
	db      *gorm.DB
	logger  *zap.Logger
	queue   chan recountKey
	pending map[recountKey]bool
	mu      sync.Mutex
}

func NewRecountService(gdb *gorm.DB, logger *zap.Logger) *RecountService {
	s := &RecountService{
		db:      gdb,
		logger:  logger,
		queue:   make(chan recountKey, 1000), // buffered so callers never block
		pending: make(map[recountKey]bool),
	}
	go s.worker()
	return s
}

// Schedule enqueues a target for recount. Duplicate requests for a target
// already waiting are dropped.
func (s *RecountService) Schedule(kind models.TargetKind, targetID uint) {
	key := recountKey{Kind: kind, ID: targetID}

	s.mu.Lock()
	if s.pending[key] {
		s.mu.Unlock()
		return
	}
	s.pending[key] = true
	s.mu.Unlock()

	select {
	case s.queue <- key:
	default:
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
		s.logger.Warn("recount queue full, dropping target",
			zap.String("target_kind", string(kind)),
			zap.Uint("target_id", targetID))
	}
}

func (s *RecountService) worker() {
	batch := make([]recountKey, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case key := <-s.queue:
			batch = append(batch, key)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RecountService) processBatch(keys []recountKey) {
	for _, key := range keys {
		if _, err := recomputeTally(s.db, key.Kind, key.ID); err != nil {
			s.logger.Error("tally repair failed",
				zap.String("target_kind", string(key.Kind)),
				zap.Uint("target_id", key.ID),
				zap.Error(err))
		}

		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
	}
}

// RepairNow recounts a single target synchronously, for the admin repair
// endpoint where the caller wants the fixed tally back.
func (s *RecountService) RepairNow(kind models.TargetKind, targetID uint) (Tally, error) {
	tally, err := recomputeTally(s.db, kind, targetID)
	if err != nil {
		return Tally{}, Unavailable("tally repair failed", err)
	}
	return tally, nil
}
