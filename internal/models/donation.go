package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DonationRecord accumulates voluntary contributions for an event or campaign
type DonationRecord struct {
	EventID        string          `json:"event_id"`
	VariableSymbol string          `json:"variable_symbol"`
	Total          decimal.Decimal `json:"total"`
	Count          int             `json:"count"`
	Donations      []Donation      `json:"donations"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type Donation struct {
	TransactionID int64           `json:"transaction_id"`
	Date          *time.Time      `json:"date,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CounterName   string          `json:"counter_name,omitempty"`
	Message       string          `json:"message,omitempty"`
}

func (r *DonationRecord) DonatedIDs() IDSet {
	s := make(IDSet, len(r.Donations))
	for _, d := range r.Donations {
		s[d.TransactionID] = struct{}{}
	}
	return s
}
