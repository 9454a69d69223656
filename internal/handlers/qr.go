package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bankmatch/internal/handlers/render"
	"github.com/nkiryanov/bankmatch/internal/service/varsym"
)

func handleQR(svc reconcileService) http.Handler {
	type response struct {
		QR string `json:"qr"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		amount, err := decimal.NewFromString(q.Get("amount"))
		if err != nil || amount.Sign() <= 0 {
			render.ServiceError(w, "Amount must be a positive number", http.StatusBadRequest)
			return
		}

		vs := q.Get("vs")
		if vs != "" && !varsym.IsValid(vs) {
			render.ServiceError(w, "Variable symbol must be 8 digits without leading zero", http.StatusBadRequest)
			return
		}

		qr := svc.QR(amount, vs, q.Get("message"))
		if qr == "" {
			render.ServiceError(w, "Receiving account is not configured", http.StatusServiceUnavailable)
			return
		}

		render.JSON(w, response{QR: qr})
	})
}
