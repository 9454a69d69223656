package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/nkiryanov/bankmatch/internal/apperrors"
	"github.com/nkiryanov/bankmatch/internal/logger"
	"github.com/nkiryanov/bankmatch/internal/service/reconcile"
)

// Consumer verifies campaign batches one at a time.
// A single feed call serves a whole batch, the feed allows one call per window.
type Consumer struct {
	service donationService
	logger  logger.Logger
}

func (c *Consumer) Consume(ctx context.Context, in <-chan []Campaign) <-chan struct{} {
	idleStopped := make(chan struct{})

	go func() {
		defer close(idleStopped)

		for {
			select {
			case <-ctx.Done():
				c.logger.Debug("Consumer stopped")
				return

			case batch, ok := <-in:
				if !ok {
					c.logger.Debug("Consumer stopped, input channel closed")
					return
				}

				c.verify(ctx, batch)
			}
		}
	}()

	return idleStopped
}

// verify retries the same batch while the feed is rate limited
func (c *Consumer) verify(ctx context.Context, batch []Campaign) {
	reqs := make([]reconcile.DonationRequest, 0, len(batch))
	for _, campaign := range batch {
		reqs = append(reqs, reconcile.DonationRequest{
			EventID:        campaign.EventID,
			VariableSymbol: campaign.VariableSymbol,
		})
	}

	for {
		results, err := c.service.VerifyDonations(ctx, reqs)

		var rlErr *apperrors.RateLimitError

		switch {
		case err == nil:
			c.report(results)
			return

		case errors.As(err, &rlErr):
			wait := max(rlErr.Wait, minRetryDelay)
			c.logger.Info("Rate limit exceeded, waiting", "retry_after", wait, "upstream", rlErr.Upstream)

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				continue
			}

		case errors.Is(err, apperrors.ErrFeedUnavailable):
			c.logger.Warn("Transaction feed is not configured", "campaigns", len(batch))
			return

		default:
			c.logger.Error("Failed to verify campaigns", "error", err, "campaigns", len(batch))
			return
		}
	}
}

func (c *Consumer) report(results []reconcile.CampaignResult) {
	for _, r := range results {
		if r.Err != nil {
			c.logger.Error("Failed to verify campaign", "error", r.Err, "event_id", r.EventID)
			continue
		}
		c.logger.Debug("Campaign verified", "event_id", r.EventID, "status", r.Result.Status, "added", len(r.Result.Added))
	}
}
