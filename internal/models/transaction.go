package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// The only currency payments are accepted in
const CurrencyCZK = "CZK"

// Transaction as observed in the bank feed.
// Fields absent in the feed stay nil (or empty for free text) and never match anything.
type Transaction struct {
	ID             *int64
	Date           *time.Time
	Amount         *decimal.Decimal
	Currency       string
	CounterAccount string
	CounterName    string
	VariableSymbol string
	Message        string
}

// IDSet is a set of bank transaction ids that were already processed
type IDSet map[int64]struct{}

func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}
