package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/bankmatch/internal/apperrors"
	"github.com/nkiryanov/bankmatch/internal/handlers/render"
	"github.com/nkiryanov/bankmatch/internal/logger"
)

// renderError maps service errors to responses. Feed details are logged, never sent to clients.
func renderError(w http.ResponseWriter, err error, l logger.Logger) {
	var rlErr *apperrors.RateLimitError
	var feedErr *apperrors.FeedError

	switch {
	case errors.As(err, &rlErr):
		render.RateLimited(w, rlErr.WaitSeconds(), rlErr.Upstream)
	case errors.Is(err, apperrors.ErrValidation):
		render.ServiceError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrPaymentNotFound):
		render.ServiceError(w, "Payment not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrDonationNotFound):
		render.ServiceError(w, "Donation not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrFeedUnavailable):
		render.ServiceError(w, "Bank feed is not configured", http.StatusServiceUnavailable)
	case errors.As(err, &feedErr):
		l.Error("Bank feed responded with error", "status_code", feedErr.StatusCode, "body", feedErr.Body)
		render.ServiceError(w, "Bank feed failed", http.StatusBadGateway)
	case errors.Is(err, apperrors.ErrFeedFailed):
		l.Error("Bank feed request failed", "error", err)
		render.ServiceError(w, "Bank feed failed", http.StatusBadGateway)
	default:
		l.Error("Unexpected error", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
