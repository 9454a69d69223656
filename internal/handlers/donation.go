package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bankmatch/internal/handlers/render"
	"github.com/nkiryanov/bankmatch/internal/logger"
	"github.com/nkiryanov/bankmatch/internal/service/reconcile"
)

func handleVerifyDonation(svc reconcileService, l logger.Logger) http.Handler {
	type request struct {
		EventID        string `json:"event_id" validate:"required,max=128"`
		VariableSymbol string `json:"variable_symbol" validate:"required,varsym"`
	}

	type response struct {
		EventID string          `json:"event_id"`
		Status  string          `json:"status"`
		New     int             `json:"new"`
		Total   decimal.Decimal `json:"total"`
		Count   int             `json:"count"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := svc.VerifyDonation(r.Context(), reconcile.DonationRequest{
			EventID:        data.EventID,
			VariableSymbol: data.VariableSymbol,
		})
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, response{
			EventID: data.EventID,
			Status:  res.Status,
			New:     len(res.Added),
			Total:   res.Record.Total,
			Count:   res.Record.Count,
		})
	})
}

func handleGetDonation(svc reconcileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Donation(r.Context(), r.PathValue("event_id"))
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, rec)
	})
}
