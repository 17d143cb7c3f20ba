package notify

import (
	"context"
	"time"

	"github.com/fundops/fundledger/internal/settings"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

const (
	defaultRetentionInterval = 6 * time.Hour
	defaultDeleteBatchSize   = 5000
	maxDeleteBatchesPerRun   = 2000
)

// RetentionCleaner periodically deletes delivered outbox rows older than
// OUTBOX_RETENTION_DAYS. Undelivered rows are never touched.
type RetentionCleaner struct {
	store     *store.Store
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewRetentionCleaner returns a cleaner over s, or nil when s is nil.
func NewRetentionCleaner(s *store.Store) *RetentionCleaner {
	if s == nil {
		return nil
	}
	return &RetentionCleaner{
		store:     s,
		interval:  defaultRetentionInterval,
		batchSize: defaultDeleteBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the cleanup loop in a background goroutine.
func (c *RetentionCleaner) Start(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go c.run(ctx)
	log.Infof("outbox retention cleaner started (interval=%s)", c.interval)
}

func (c *RetentionCleaner) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.CleanupOnce(ctx)
		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

// CleanupOnce runs one retention pass and returns the number of rows deleted.
func (c *RetentionCleaner) CleanupOnce(ctx context.Context) int64 {
	if c == nil {
		return 0
	}
	snap, errLoad := settings.Load(ctx, c.store.DB())
	if errLoad != nil {
		log.WithError(errLoad).Warn("outbox retention cleaner: load settings failed")
		return 0
	}
	retentionDays := snap.Int(settings.OutboxRetentionDaysKey, settings.DefaultOutboxRetentionDays)
	if retentionDays <= 0 {
		return 0
	}
	cutoff := c.now().AddDate(0, 0, -retentionDays)

	var deletedTotal int64
	for i := 0; i < maxDeleteBatchesPerRun; i++ {
		if ctx.Err() != nil {
			break
		}
		n, errDelete := c.deleteBatch(ctx, cutoff)
		if errDelete != nil {
			log.WithError(errDelete).Warn("outbox retention cleaner: delete batch failed")
			break
		}
		if n <= 0 {
			break
		}
		deletedTotal += n
	}
	if deletedTotal > 0 {
		log.Infof("outbox retention cleaner: deleted %d rows (cutoff=%s retention_days=%d)", deletedTotal, cutoff.Format(time.RFC3339), retentionDays)
	}
	return deletedTotal
}

func (c *RetentionCleaner) deleteBatch(ctx context.Context, cutoff time.Time) (int64, error) {
	// Limited subquery keeps each delete short on large tables.
	res := c.store.DB().WithContext(ctx).Exec(`
		DELETE FROM notification_outboxes
		WHERE id IN (
			SELECT id FROM notification_outboxes
			WHERE delivered_at IS NOT NULL AND delivered_at < ?
			ORDER BY delivered_at ASC
			LIMIT ?
		)
	`, cutoff, c.batchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
