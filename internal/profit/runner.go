package profit

import (
	"context"
	"time"

	"github.com/fundops/fundledger/internal/metrics"
	log "github.com/sirupsen/logrus"
)

const defaultRunInterval = time.Hour

// Runner triggers the automated monthly distribution on a timer.
type Runner struct {
	engine   *Engine
	interval time.Duration
}

// NewRunner returns a Runner. interval <= 0 uses one hour.
func NewRunner(engine *Engine, interval time.Duration) *Runner {
	if engine == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultRunInterval
	}
	return &Runner{engine: engine, interval: interval}
}

// Start launches the loop in a background goroutine.
func (r *Runner) Start(ctx context.Context) {
	if r == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go r.run(ctx)
	log.Infof("auto payout runner started (interval=%s)", r.interval)
}

func (r *Runner) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, errRun := r.RunOnce(ctx); errRun != nil {
			log.WithError(errRun).Warn("auto payout runner: run failed")
		}
		timer := time.NewTimer(r.interval)
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

// RunOnce performs one automated distribution.
func (r *Runner) RunOnce(ctx context.Context) (*AutoResult, error) {
	result, errRun := r.engine.AutoMonthly(ctx)
	metrics.Transitions.WithLabelValues("profit", "auto_monthly", metrics.Result(errRun)).Inc()
	return result, errRun
}
