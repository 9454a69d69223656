// Package watcher periodically verifies donations for configured campaigns.
package watcher

import (
	"context"
	"time"

	"github.com/nkiryanov/bankmatch/internal/logger"
	"github.com/nkiryanov/bankmatch/internal/service/reconcile"
)

const (
	DefaultProduceInterval = 5 * time.Minute // Interval for producing campaigns

	minRetryDelay = 100 * time.Millisecond
)

type donationService interface {
	VerifyDonations(ctx context.Context, reqs []reconcile.DonationRequest) ([]reconcile.CampaignResult, error)
}

type Watcher struct {
	consumer *Consumer
	producer *Producer
}

func New(campaigns []Campaign, interval time.Duration, service donationService, logger logger.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultProduceInterval
	}

	return &Watcher{
		consumer: &Consumer{
			service: service,
			logger:  logger,
		},
		producer: &Producer{
			interval:  interval,
			campaigns: campaigns,
			logger:    logger,
		},
	}
}

// Process runs until ctx is done. The returned channel is closed when every goroutine has stopped.
func (w *Watcher) Process(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	batchChan := make(chan []Campaign)

	producerStopped := w.producer.Produce(ctx, batchChan)
	consumerStopped := w.consumer.Consume(ctx, batchChan)

	go func() {
		defer close(idleStopped)
		defer close(batchChan)
		<-producerStopped
		<-consumerStopped
		w.consumer.logger.Debug("Watcher stopped")
	}()

	return idleStopped
}
