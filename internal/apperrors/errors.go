package apperrors

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrValidation = errors.New("validation failed")

	ErrRateLimited     = errors.New("transaction feed rate limited")
	ErrFeedUnavailable = errors.New("transaction feed is not configured")
	ErrFeedFailed      = errors.New("transaction feed request failed")

	ErrPaymentNotFound  = errors.New("payment not found")
	ErrDonationNotFound = errors.New("donation not found")
)

// Validation wraps ErrValidation with a human readable reason
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// RateLimitError is returned when the feed must not be called right now.
// Upstream is set when the feed itself rejected the call after the local gate passed.
type RateLimitError struct {
	Wait     time.Duration
	Upstream bool
}

func (e *RateLimitError) Error() string {
	if e.Upstream {
		return fmt.Sprintf("transaction feed rejected request as too frequent, retry after %ds", e.WaitSeconds())
	}
	return fmt.Sprintf("transaction feed rate limited, retry after %ds", e.WaitSeconds())
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// WaitSeconds returns remaining wait rounded up to whole seconds
func (e *RateLimitError) WaitSeconds() int {
	if e.Wait <= 0 {
		return 0
	}
	return int(math.Ceil(e.Wait.Seconds()))
}

// FeedError is a non-success response of the transaction feed.
// Body is kept for logging only and must not be shown to end users.
type FeedError struct {
	StatusCode int
	Body       string
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("transaction feed responded with status %d", e.StatusCode)
}

func (e *FeedError) Is(target error) bool {
	return target == ErrFeedFailed
}
