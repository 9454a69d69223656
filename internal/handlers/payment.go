package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bankmatch/internal/handlers/clientctx"
	"github.com/nkiryanov/bankmatch/internal/handlers/render"
	"github.com/nkiryanov/bankmatch/internal/logger"
	"github.com/nkiryanov/bankmatch/internal/models"
	"github.com/nkiryanov/bankmatch/internal/service/reconcile"
)

type accessResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Used    int    `json:"used"`
	Limit   int    `json:"limit"`
}

func newAccessResponse(a models.Access) accessResponse {
	return accessResponse{Allowed: a.Allowed, Reason: a.Reason, Used: a.Used, Limit: a.Limit}
}

func handleCreatePayment(svc reconcileService, l logger.Logger) http.Handler {
	type request struct {
		RequestID string          `json:"request_id" validate:"required,max=128"`
		Amount    decimal.Decimal `json:"amount"`
		Message   string          `json:"message" validate:"max=60"`
	}

	type response struct {
		RequestID      string          `json:"request_id"`
		VariableSymbol string          `json:"variable_symbol"`
		Status         string          `json:"status"`
		Amount         decimal.Decimal `json:"amount"`
		QR             string          `json:"qr,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		p, err := svc.CreatePayment(r.Context(), data.RequestID, data.Amount, data.Message)
		if err != nil {
			renderError(w, err, l)
			return
		}

		client, _ := clientctx.FromContext(r.Context())
		l.Debug("Payment requested", "client", client, "request_id", p.Record.RequestID)

		render.JSON(w, response{
			RequestID:      p.Record.RequestID,
			VariableSymbol: p.Record.VariableSymbol,
			Status:         p.Record.Status,
			Amount:         p.Amount,
			QR:             p.QR,
		})
	})
}

func handleVerifyPayment(svc reconcileService, l logger.Logger) http.Handler {
	type request struct {
		RequestID      string          `json:"request_id" validate:"required,max=128"`
		VariableSymbol string          `json:"variable_symbol" validate:"required,varsym"`
		Amount         decimal.Decimal `json:"amount"`
	}

	type response struct {
		RequestID      string `json:"request_id"`
		Status         string `json:"status"`
		VariableSymbol string `json:"variable_symbol"`
		Used           int    `json:"used"`
		Limit          int    `json:"limit"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := svc.VerifyPayment(r.Context(), reconcile.PaymentRequest{
			RequestID:      data.RequestID,
			VariableSymbol: data.VariableSymbol,
			Amount:         data.Amount,
		})
		if err != nil {
			renderError(w, err, l)
			return
		}

		client, _ := clientctx.FromContext(r.Context())
		l.Debug("Payment verified", "client", client, "request_id", data.RequestID, "status", res.Status)

		render.JSON(w, response{
			RequestID:      data.RequestID,
			Status:         res.Status,
			VariableSymbol: res.Record.VariableSymbol,
			Used:           res.Record.Used,
			Limit:          res.Record.Limit,
		})
	})
}

func handleAccess(svc reconcileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access, err := svc.Access(r.Context(), r.PathValue("request_id"))
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, newAccessResponse(access))
	})
}

func handleConsume(svc reconcileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access, err := svc.Consume(r.Context(), r.PathValue("request_id"))
		if err != nil {
			renderError(w, err, l)
			return
		}

		if !access.Allowed {
			render.JSONWithStatus(w, newAccessResponse(access), http.StatusPaymentRequired)
			return
		}

		render.JSON(w, newAccessResponse(access))
	})
}
