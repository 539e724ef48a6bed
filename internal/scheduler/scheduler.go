package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// batchSize bounds the orphans handled in one pass.
const batchSize = 100

// Sweeper retries removal of stored files whose rows are already gone.
type Sweeper struct {
	db       *gorm.DB
	store    storage.FileStore
	interval time.Duration
	log      *logrus.Entry

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	ticker  *time.Ticker
	done    chan struct{}
	running bool
}

func NewSweeper(db *gorm.DB, store storage.FileStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &Sweeper{
		db:       db,
		store:    store,
		interval: interval,
		log:      logutils.WithComponent("sweeper"),
	}
}

// Start runs an immediate pass and then one pass per interval until Stop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.ticker = time.NewTicker(s.interval)
	s.done = make(chan struct{})
	s.running = true

	go s.run(s.ctx, s.ticker, s.done)

	s.log.WithField("interval", s.interval.String()).Info("Sweeper started")
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.cancel()
	s.ticker.Stop()
	done := s.done
	s.running = false
	s.mu.Unlock()

	<-done
	s.log.Info("Sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context, ticker *time.Ticker, done chan struct{}) {
	defer close(done)

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep makes one removal attempt per orphan, oldest first, and returns how
// many were cleared.
func (s *Sweeper) Sweep(ctx context.Context) int {
	var orphans []models.OrphanedFile

	err := s.db.WithContext(ctx).Order("id").Limit(batchSize).Find(&orphans).Error
	if err != nil {
		if ctx.Err() == nil {
			s.log.WithError(err).Error("Failed to load orphaned files")
		}
		return 0
	}

	cleared := 0

	for _, orphan := range orphans {
		if ctx.Err() != nil {
			break
		}

		if s.retry(ctx, orphan) {
			cleared++
		}
	}

	if len(orphans) > 0 {
		s.log.WithFields(logrus.Fields{
			"pending": len(orphans),
			"cleared": cleared,
		}).Info("Orphan sweep finished")
	}

	return cleared
}

func (s *Sweeper) retry(ctx context.Context, orphan models.OrphanedFile) bool {
	log := s.log.WithField("path", orphan.Path)

	err := s.store.Remove(ctx, orphan.Path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		if dbErr := s.db.WithContext(ctx).Delete(&models.OrphanedFile{}, orphan.ID).Error; dbErr != nil {
			log.WithError(dbErr).Error("Failed to clear orphan record")
			return false
		}
		return true
	}

	now := time.Now()

	dbErr := s.db.WithContext(ctx).Model(&models.OrphanedFile{}).
		Where("id = ?", orphan.ID).
		Updates(map[string]any{
			"attempts":    gorm.Expr("attempts + 1"),
			"last_error":  err.Error(),
			"last_try_at": now,
		}).Error

	if dbErr != nil {
		log.WithError(dbErr).Error("Failed to record sweep attempt")
	}

	log.WithError(err).WithField("attempts", orphan.Attempts+1).Warn("Orphaned file still not removable")
	return false
}
