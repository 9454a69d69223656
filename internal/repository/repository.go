package repository

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

// Store is a durable key-value storage for records and the shared rate-limit timestamp.
// Implementations are safe for concurrent use but offer no transactions across keys.
type Store interface {
	// Get returns stored value
	// If key does not exist must return ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or overwrites value
	Put(ctx context.Context, key string, value []byte) error
}

// Swapper is implemented by stores able to update a value atomically.
type Swapper interface {
	// CompareAndSwap stores newValue only if the current value equals oldValue.
	// Nil oldValue means the key must not exist yet.
	// Returns false without error if another writer won.
	CompareAndSwap(ctx context.Context, key string, oldValue []byte, newValue []byte) (bool, error)
}

// Keys used by the application
const (
	RateLimitKey = "ratelimit:feed"

	paymentKeyPrefix  = "payment:"
	donationKeyPrefix = "donation:"
)

func PaymentKey(requestID string) string {
	return paymentKeyPrefix + requestID
}

func DonationKey(eventID string) string {
	return donationKeyPrefix + eventID
}
