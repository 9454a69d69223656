package handlers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bankmatch/internal/handlers/middleware"
	"github.com/nkiryanov/bankmatch/internal/logger"
	"github.com/nkiryanov/bankmatch/internal/models"
	"github.com/nkiryanov/bankmatch/internal/service/reconcile"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	svc reconcileService,
	tokens tokenParser,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(tokens)

	api := http.NewServeMux()

	api.Handle("POST /payments", handleCreatePayment(svc, logger))
	api.Handle("POST /payments/verify", handleVerifyPayment(svc, logger))
	api.Handle("GET /payments/{request_id}/access", handleAccess(svc, logger))
	api.Handle("POST /payments/{request_id}/consume", handleConsume(svc, logger))
	api.Handle("POST /donations/verify", handleVerifyDonation(svc, logger))
	api.Handle("GET /donations/{event_id}", handleGetDonation(svc, logger))
	api.Handle("GET /qr", handleQR(svc))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", withAuth(api)))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type tokenParser interface {
	// Parse token and return client application it was issued for
	Parse(value string) (string, error)
}

type reconcileService interface {
	// Issue variable symbol for the request, repeated calls return the same one
	CreatePayment(ctx context.Context, requestID string, amount decimal.Decimal, message string) (reconcile.NewPayment, error)

	// Look for the payment in the bank feed
	// Has to return *apperrors.RateLimitError if the feed can't be called right now
	VerifyPayment(ctx context.Context, req reconcile.PaymentRequest) (reconcile.PaymentResult, error)

	// Collect new donations from the bank feed
	VerifyDonation(ctx context.Context, req reconcile.DonationRequest) (reconcile.DonationResult, error)

	Access(ctx context.Context, requestID string) (models.Access, error)
	Consume(ctx context.Context, requestID string) (models.Access, error)

	// Has to return apperrors.ErrDonationNotFound if nothing was donated yet
	Donation(ctx context.Context, eventID string) (models.DonationRecord, error)

	QR(amount decimal.Decimal, vs string, message string) string
}
