// Package scheduler runs periodic maintenance jobs
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Maskan/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var clickEventsPruned = promauto.NewCounter(prometheus.CounterOpts{
	Name: "click_events_pruned_total",
	Help: "Click events deleted after leaving the retention window",
})

// ClickEventPruner is the slice of the click event repository the pruner needs
type ClickEventPruner interface {
	PruneBefore(ctx context.Context, before time.Time) (int64, error)
}

// ClickPruner deletes click events older than the retention window.
// Dedup only ever looks one window back, so older rows are dead weight.
type ClickPruner struct {
	repo      ClickEventPruner
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	now       func() time.Time
}

func NewClickPruner(repo ClickEventPruner, retention, interval time.Duration, logger *log.Logger) *ClickPruner {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ClickPruner{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       utils.UTCNow,
	}
}

// RunOnce prunes a single time and reports how many rows were removed
func (p *ClickPruner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.repo.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	clickEventsPruned.Add(float64(n))
	return n, nil
}

// Start prunes immediately and then on every tick. The returned function stops the loop and waits for it.
func (p *ClickPruner) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (p *ClickPruner) tick(ctx context.Context) {
	n, err := p.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Printf("click pruner: prune failed: %v", err)
		}
		return
	}
	if n > 0 {
		p.logger.Printf("click pruner: removed %d click events", n)
	}
}
