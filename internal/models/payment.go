package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// PaymentRecord is keyed by the caller supplied request id, not by the variable symbol
type PaymentRecord struct {
	RequestID      string     `json:"request_id"`
	Status         string     `json:"status"`
	Used           int        `json:"used"`
	Limit          int        `json:"limit"`
	VariableSymbol string     `json:"variable_symbol"`
	Purchases      []Purchase `json:"purchases"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Purchase is a matched bank transaction that granted quota
type Purchase struct {
	TransactionID int64           `json:"transaction_id"`
	Date          *time.Time      `json:"date,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Quota         int             `json:"quota"`
}

// PurchasedIDs returns ids of transactions that must never be matched again
func (r *PaymentRecord) PurchasedIDs() IDSet {
	s := make(IDSet, len(r.Purchases))
	for _, p := range r.Purchases {
		s[p.TransactionID] = struct{}{}
	}
	return s
}
