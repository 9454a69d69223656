package watcher

import (
	"context"
	"time"

	"github.com/nkiryanov/bankmatch/internal/logger"
)

// Producer emits all campaigns as one batch per tick
type Producer struct {
	interval  time.Duration
	campaigns []Campaign
	logger    logger.Logger
}

func (p *Producer) Produce(ctx context.Context, out chan<- []Campaign) <-chan struct{} {
	idleStopped := make(chan struct{})
	p.logger.Debug("Starting producer", "interval", p.interval, "campaigns", len(p.campaigns))

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Debug("Producer stopped by context")
				return

			case <-ticker.C:
				if len(p.campaigns) == 0 {
					continue
				}

				// Ticks are dropped while the consumer is busy with the previous batch
				select {
				case <-ctx.Done():
					p.logger.Debug("Producer stopped by context while sending campaigns")
					return
				case out <- p.campaigns:
					p.logger.Debug("Campaigns sent to channel", "campaigns", len(p.campaigns))
				}
			}
		}
	}()

	return idleStopped
}
