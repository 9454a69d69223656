// Package reconcile matches expected bank transfers against the transaction feed
// and keeps payment and donation records up to date.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bankmatch/internal/apperrors"
	"github.com/nkiryanov/bankmatch/internal/logger"
	"github.com/nkiryanov/bankmatch/internal/models"
	"github.com/nkiryanov/bankmatch/internal/repository"
	"github.com/nkiryanov/bankmatch/internal/service/matcher"
	"github.com/nkiryanov/bankmatch/internal/service/qrpay"
	"github.com/nkiryanov/bankmatch/internal/service/varsym"
)

// Verification outcomes. None of them is an error.
const (
	StatusAlreadyPaid = "already_paid"
	StatusMatched     = "matched"
	StatusPending     = "pending"
	StatusNoNew       = "no_new"
)

const (
	DefaultQuotaGrant = 30
	DefaultLookback   = 30 * 24 * time.Hour
)

type Feed interface {
	Transactions(ctx context.Context, from time.Time, to time.Time) ([]models.Transaction, error)
}

type Gate interface {
	Acquire(ctx context.Context) error
}

type Notifier interface {
	PaymentMatched(ctx context.Context, rec models.PaymentRecord, purchase models.Purchase) error
	DonationsMatched(ctx context.Context, rec models.DonationRecord, added []models.Donation) error
}

type Config struct {
	// Quota granted by every matched payment
	QuotaGrant int

	// How far back the feed is scanned
	Lookback time.Duration

	// Receiving account and defaults for QR payloads
	Account       string
	RecipientName string
	Message       string
}

type PaymentRequest struct {
	RequestID      string
	VariableSymbol string
	Amount         decimal.Decimal
}

type PaymentResult struct {
	Status string
	Record models.PaymentRecord
}

type DonationRequest struct {
	EventID        string
	VariableSymbol string
}

type DonationResult struct {
	Status string
	Added  []models.Donation
	Record models.DonationRecord
}

// NewPayment is a payment the buyer is expected to send
type NewPayment struct {
	Record models.PaymentRecord
	Amount decimal.Decimal
	QR     string
}

type Service struct {
	cfg Config

	payments  *repository.PaymentRepo
	donations *repository.DonationRepo

	feed     Feed
	gate     Gate
	notifier Notifier
	logger   logger.Logger

	now func() time.Time
}

func NewService(cfg Config, store repository.Store, feed Feed, gate Gate, notifier Notifier, l logger.Logger) *Service {
	if cfg.QuotaGrant <= 0 {
		cfg.QuotaGrant = DefaultQuotaGrant
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}

	return &Service{
		cfg:       cfg,
		payments:  &repository.PaymentRepo{Store: store},
		donations: &repository.DonationRepo{Store: store},
		feed:      feed,
		gate:      gate,
		notifier:  notifier,
		logger:    l,
		now:       time.Now,
	}
}

// CreatePayment issues a variable symbol for the request and stores a pending record.
// Repeated calls for the same request return the already issued symbol.
func (s *Service) CreatePayment(ctx context.Context, requestID string, amount decimal.Decimal, message string) (NewPayment, error) {
	if err := validateRequestID(requestID); err != nil {
		return NewPayment{}, err
	}
	if err := validateAmount(amount); err != nil {
		return NewPayment{}, err
	}

	rec, err := s.payments.GetPayment(ctx, requestID)
	switch {
	case errors.Is(err, apperrors.ErrPaymentNotFound):
		now := s.now()
		rec = models.PaymentRecord{
			RequestID:      requestID,
			Status:         models.PaymentStatusPending,
			VariableSymbol: varsym.Generate(),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.payments.SavePayment(ctx, rec); err != nil {
			return NewPayment{}, fmt.Errorf("can't save payment: %w", err)
		}
		s.logger.Info("Payment created", "request_id", requestID, "variable_symbol", rec.VariableSymbol)

	case err != nil:
		return NewPayment{}, fmt.Errorf("can't load payment: %w", err)
	}

	return NewPayment{
		Record: rec,
		Amount: amount,
		QR:     s.QR(amount, rec.VariableSymbol, message),
	}, nil
}

// QR builds the payment descriptor for the receiving account, empty if no account is configured
func (s *Service) QR(amount decimal.Decimal, vs string, message string) string {
	if s.cfg.Account == "" {
		return ""
	}

	if message == "" {
		message = s.cfg.Message
	}

	var opts []qrpay.Option
	if message != "" {
		opts = append(opts, qrpay.WithMessage(message))
	}
	if s.cfg.RecipientName != "" {
		opts = append(opts, qrpay.WithRecipientName(s.cfg.RecipientName))
	}

	return qrpay.Encode(s.cfg.Account, amount, vs, opts...)
}

// VerifyPayment looks for the expected transfer in the feed and credits quota when it arrived.
// A paid record with quota left is reported as already paid without calling the feed.
func (s *Service) VerifyPayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	if err := validateRequestID(req.RequestID); err != nil {
		return PaymentResult{}, err
	}
	if err := validateVariableSymbol(req.VariableSymbol); err != nil {
		return PaymentResult{}, err
	}
	if err := validateAmount(req.Amount); err != nil {
		return PaymentResult{}, err
	}

	var existing *models.PaymentRecord
	rec, err := s.payments.GetPayment(ctx, req.RequestID)
	switch {
	case err == nil:
		existing = &rec
	case errors.Is(err, apperrors.ErrPaymentNotFound):
		rec = models.PaymentRecord{
			RequestID:      req.RequestID,
			Status:         models.PaymentStatusPending,
			VariableSymbol: req.VariableSymbol,
		}
	default:
		return PaymentResult{}, fmt.Errorf("can't load payment: %w", err)
	}

	if existing != nil {
		if existing.VariableSymbol != "" && varsym.Normalize(existing.VariableSymbol) != varsym.Normalize(req.VariableSymbol) {
			return PaymentResult{}, apperrors.Validation("variable symbol %s was not issued for request %s", req.VariableSymbol, req.RequestID)
		}
		if CheckAccess(existing).Allowed {
			return PaymentResult{Status: StatusAlreadyPaid, Record: rec}, nil
		}
	}

	txs, err := s.fetch(ctx)
	if err != nil {
		return PaymentResult{}, err
	}

	tx, ok := matcher.Payment(txs, req.VariableSymbol, req.Amount, rec.PurchasedIDs())
	if !ok {
		s.logger.Debug("Payment not matched yet", "request_id", req.RequestID, "variable_symbol", req.VariableSymbol)
		return PaymentResult{Status: StatusPending, Record: rec}, nil
	}

	now := s.now()
	updated := ApplyMatch(existing, tx, s.cfg.QuotaGrant, now)
	updated.RequestID = req.RequestID
	if updated.VariableSymbol == "" {
		updated.VariableSymbol = req.VariableSymbol
	}

	if err := s.payments.SavePayment(ctx, updated); err != nil {
		return PaymentResult{}, fmt.Errorf("can't save payment: %w", err)
	}

	purchase := updated.Purchases[len(updated.Purchases)-1]
	s.logger.Info("Payment matched",
		"request_id", updated.RequestID,
		"transaction_id", purchase.TransactionID,
		"amount", purchase.Amount,
		"limit", updated.Limit,
	)

	if err := s.notifier.PaymentMatched(ctx, updated, purchase); err != nil {
		s.logger.Warn("Failed to notify about payment", "error", err, "request_id", updated.RequestID)
	}

	return PaymentResult{Status: StatusMatched, Record: updated}, nil
}

// VerifyDonation collects every new transfer sent with the campaign variable symbol.
// Invalid requests are rejected before the feed is called.
func (s *Service) VerifyDonation(ctx context.Context, req DonationRequest) (DonationResult, error) {
	results, err := s.VerifyDonations(ctx, []DonationRequest{req})
	if err != nil {
		return DonationResult{}, err
	}

	return results[0].Result, results[0].Err
}

// CampaignResult is the outcome of one request of a donation batch
type CampaignResult struct {
	EventID string
	Result  DonationResult
	Err     error
}

// VerifyDonations matches all campaigns against a single feed fetch.
// The returned error is set only when the feed could not be read, failures of
// single campaigns are reported in their CampaignResult.
func (s *Service) VerifyDonations(ctx context.Context, reqs []DonationRequest) ([]CampaignResult, error) {
	results := make([]CampaignResult, len(reqs))
	records := make([]*models.DonationRecord, len(reqs))

	pending := 0
	for i, req := range reqs {
		results[i].EventID = req.EventID

		rec, err := s.loadDonation(ctx, req)
		if err != nil {
			results[i].Err = err
			continue
		}
		records[i] = &rec
		pending++
	}
	if pending == 0 {
		return results, nil
	}

	txs, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	for i, req := range reqs {
		if records[i] == nil {
			continue
		}
		results[i].Result, results[i].Err = s.collectDonations(ctx, *records[i], req.VariableSymbol, txs)
	}

	return results, nil
}

func (s *Service) loadDonation(ctx context.Context, req DonationRequest) (models.DonationRecord, error) {
	if strings.TrimSpace(req.EventID) == "" {
		return models.DonationRecord{}, apperrors.Validation("event id is required")
	}
	if err := validateVariableSymbol(req.VariableSymbol); err != nil {
		return models.DonationRecord{}, err
	}

	rec, err := s.donations.GetDonation(ctx, req.EventID)
	switch {
	case err == nil:
		if rec.VariableSymbol != "" && varsym.Normalize(rec.VariableSymbol) != varsym.Normalize(req.VariableSymbol) {
			return models.DonationRecord{}, apperrors.Validation("variable symbol %s does not belong to event %s", req.VariableSymbol, req.EventID)
		}
		return rec, nil
	case errors.Is(err, apperrors.ErrDonationNotFound):
		return models.DonationRecord{EventID: req.EventID, VariableSymbol: req.VariableSymbol}, nil
	default:
		return models.DonationRecord{}, fmt.Errorf("can't load donation: %w", err)
	}
}

func (s *Service) collectDonations(ctx context.Context, rec models.DonationRecord, vs string, txs []models.Transaction) (DonationResult, error) {
	matched := matcher.Donations(txs, vs, rec.DonatedIDs())
	if len(matched) == 0 {
		return DonationResult{Status: StatusNoNew, Record: rec}, nil
	}

	updated, added := AggregateDonations(rec, matched, s.now())
	if err := s.donations.SaveDonation(ctx, updated); err != nil {
		return DonationResult{}, fmt.Errorf("can't save donation: %w", err)
	}

	s.logger.Info("Donations matched", "event_id", updated.EventID, "added", len(added), "total", updated.Total)

	if err := s.notifier.DonationsMatched(ctx, updated, added); err != nil {
		s.logger.Warn("Failed to notify about donations", "error", err, "event_id", updated.EventID)
	}

	return DonationResult{Status: StatusMatched, Added: added, Record: updated}, nil
}

// Access reports whether the request may perform a metered action
func (s *Service) Access(ctx context.Context, requestID string) (models.Access, error) {
	if err := validateRequestID(requestID); err != nil {
		return models.Access{}, err
	}

	rec, err := s.payments.GetPayment(ctx, requestID)
	switch {
	case errors.Is(err, apperrors.ErrPaymentNotFound):
		return CheckAccess(nil), nil
	case err != nil:
		return models.Access{}, fmt.Errorf("can't load payment: %w", err)
	}

	return CheckAccess(&rec), nil
}

// Consume spends one unit of quota if access is allowed.
// A denied access is returned as is, it is not an error.
func (s *Service) Consume(ctx context.Context, requestID string) (models.Access, error) {
	if err := validateRequestID(requestID); err != nil {
		return models.Access{}, err
	}

	rec, err := s.payments.GetPayment(ctx, requestID)
	switch {
	case errors.Is(err, apperrors.ErrPaymentNotFound):
		return CheckAccess(nil), nil
	case err != nil:
		return models.Access{}, fmt.Errorf("can't load payment: %w", err)
	}

	access := CheckAccess(&rec)
	if !access.Allowed {
		return access, nil
	}

	rec.Used++
	rec.UpdatedAt = s.now()
	if err := s.payments.SavePayment(ctx, rec); err != nil {
		return models.Access{}, fmt.Errorf("can't save payment: %w", err)
	}

	return models.Access{Allowed: true, Used: rec.Used, Limit: rec.Limit}, nil
}

// Donation returns the stored donation record for the event
func (s *Service) Donation(ctx context.Context, eventID string) (models.DonationRecord, error) {
	if strings.TrimSpace(eventID) == "" {
		return models.DonationRecord{}, apperrors.Validation("event id is required")
	}

	return s.donations.GetDonation(ctx, eventID)
}

// fetch passes the rate limit gate and reads the lookback window of the feed.
// Rate limit and feed errors are returned untouched so callers can inspect them.
func (s *Service) fetch(ctx context.Context) ([]models.Transaction, error) {
	if err := s.gate.Acquire(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	return s.feed.Transactions(ctx, now.Add(-s.cfg.Lookback), now)
}

func validateRequestID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation("request id is required")
	}
	return nil
}

func validateVariableSymbol(vs string) error {
	if !varsym.IsValid(vs) {
		return apperrors.Validation("variable symbol %q must be %d digits without leading zero", vs, varsym.Length)
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return apperrors.Validation("amount %s must be positive", amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return apperrors.Validation("amount %s has more than two decimal places", amount)
	}
	return nil
}
