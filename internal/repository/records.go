package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nkiryanov/bankmatch/internal/apperrors"
	"github.com/nkiryanov/bankmatch/internal/models"
)

type PaymentRepo struct {
	Store Store
}

// GetPayment returns apperrors.ErrPaymentNotFound if there is no record for the request
func (r *PaymentRepo) GetPayment(ctx context.Context, requestID string) (models.PaymentRecord, error) {
	var rec models.PaymentRecord
	err := get(ctx, r.Store, PaymentKey(requestID), &rec)

	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, ErrNotFound):
		return rec, apperrors.ErrPaymentNotFound
	default:
		return rec, err
	}
}

func (r *PaymentRepo) SavePayment(ctx context.Context, rec models.PaymentRecord) error {
	return put(ctx, r.Store, PaymentKey(rec.RequestID), rec)
}

type DonationRepo struct {
	Store Store
}

// GetDonation returns apperrors.ErrDonationNotFound if there is no record for the event
func (r *DonationRepo) GetDonation(ctx context.Context, eventID string) (models.DonationRecord, error) {
	var rec models.DonationRecord
	err := get(ctx, r.Store, DonationKey(eventID), &rec)

	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, ErrNotFound):
		return rec, apperrors.ErrDonationNotFound
	default:
		return rec, err
	}
}

func (r *DonationRepo) SaveDonation(ctx context.Context, rec models.DonationRecord) error {
	return put(ctx, r.Store, DonationKey(rec.EventID), rec)
}

func get(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("corrupted record %q: %w", key, err)
	}

	return nil
}

func put(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("can't encode record %q: %w", key, err)
	}

	return s.Put(ctx, key, raw)
}
