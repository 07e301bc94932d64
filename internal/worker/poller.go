package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StatusPoller is the part of fulfillment the poller drives.
type StatusPoller interface {
	PollOnce(ctx context.Context) (int, error)
}

// Poller refreshes reseller order statuses on a fixed interval.
type Poller struct {
	poller   StatusPoller
	interval time.Duration
	logger   *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewPoller(poller StatusPoller, interval time.Duration, l *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &Poller{
		poller:   poller,
		interval: interval,
		logger:   l,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called. Rounds never
// overlap: a slow round delays the next tick instead of stacking up.
func (p *Poller) Start(ctx context.Context) {
	defer close(p.done)

	p.logger.Info("status poller started", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.run(ctx)
		case <-p.stop:
			p.logger.Info("status poller stopped")
			return
		case <-ctx.Done():
			p.logger.Info("status poller stopped")
			return
		}
	}
}

// Stop asks Start to return once the current round is over.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// Done is closed when Start has returned.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) run(ctx context.Context) {
	roundCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	start := time.Now()
	n, err := p.poller.PollOnce(roundCtx)
	if err != nil {
		p.logger.Error("status poll failed", zap.Error(err))
		return
	}
	if n > 0 {
		p.logger.Debug("status poll finished",
			zap.Int("refreshed", n),
			zap.Duration("took", time.Since(start)))
	}
}
