package notify

import (
	"context"
	"time"

	"github.com/fundops/fundledger/internal/metrics"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

const (
	defaultDispatchInterval = 5 * time.Second
	defaultBatchSize        = 100
	defaultMaxAttempts      = 10
	baseBackoff             = 2 * time.Second
	maxBackoff              = 30 * time.Minute
)

// DispatcherOptions tunes the outbox dispatcher.
type DispatcherOptions struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// Dispatcher moves outbox rows into a Sink, retrying failures with exponential backoff.
type Dispatcher struct {
	store       *store.Store
	sink        Sink
	interval    time.Duration
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

// NewDispatcher builds a Dispatcher; zero options take defaults.
func NewDispatcher(s *store.Store, sink Sink, opts DispatcherOptions) *Dispatcher {
	if s == nil || sink == nil {
		return nil
	}
	d := &Dispatcher{
		store:       s,
		sink:        sink,
		interval:    opts.Interval,
		batchSize:   opts.BatchSize,
		maxAttempts: opts.MaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if d.interval <= 0 {
		d.interval = defaultDispatchInterval
	}
	if d.batchSize <= 0 {
		d.batchSize = defaultBatchSize
	}
	if d.maxAttempts <= 0 {
		d.maxAttempts = defaultMaxAttempts
	}
	return d
}

// Start launches the dispatch loop in a background goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go d.run(ctx)
	log.Infof("notification dispatcher started (interval=%s)", d.interval)
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, errRun := d.RunOnce(ctx); errRun != nil {
			log.WithError(errRun).Warn("notification dispatcher: run failed")
		}
		timer := time.NewTimer(d.interval)
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

// RunOnce delivers every due row once and returns how many were delivered.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now()
	var rows []models.NotificationOutbox
	if errFind := d.store.DB().WithContext(ctx).
		Where("delivered_at IS NULL AND attempts < ? AND next_attempt_at <= ?", d.maxAttempts, now).
		Order("id ASC").
		Limit(d.batchSize).
		Find(&rows).Error; errFind != nil {
		return 0, errFind
	}

	delivered := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		errDeliver := d.sink.Deliver(ctx, row)
		metrics.OutboxDeliveries.WithLabelValues(metrics.Result(errDeliver)).Inc()
		if errDeliver == nil {
			deliveredAt := d.now()
			if errUpdate := d.store.Outbox.Update(ctx, row.ID, map[string]any{
				"attempts":     row.Attempts + 1,
				"delivered_at": &deliveredAt,
				"last_error":   "",
			}); errUpdate != nil {
				log.WithError(errUpdate).Warnf("notification dispatcher: mark %s delivered", row.EventID)
				continue
			}
			delivered++
			continue
		}

		attempts := row.Attempts + 1
		fields := map[string]any{
			"attempts":        attempts,
			"last_error":      errDeliver.Error(),
			"next_attempt_at": d.now().Add(Backoff(attempts)),
		}
		if errUpdate := d.store.Outbox.Update(ctx, row.ID, fields); errUpdate != nil {
			log.WithError(errUpdate).Warnf("notification dispatcher: reschedule %s", row.EventID)
		}
		entry := log.WithError(errDeliver).WithFields(log.Fields{"event_id": row.EventID, "attempts": attempts})
		if attempts >= d.maxAttempts {
			entry.Error("notification dispatcher: giving up")
		} else {
			entry.Warn("notification dispatcher: delivery failed")
		}
	}
	return delivered, nil
}

// Backoff returns the wait before the next attempt after attempts failures.
func Backoff(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	wait := baseBackoff
	for i := 1; i < attempts; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
