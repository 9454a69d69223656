// Package matcher finds bank transactions carrying an expected variable symbol.
//
// Both entry points share the same rules: only incoming transactions with a
// present id and a positive amount in CZK are considered, transactions listed
// in the exclusion set are skipped, and variable symbols are compared after
// stripping leading zeros on both sides.
package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bankmatch/internal/models"
	"github.com/nkiryanov/bankmatch/internal/service/varsym"
)

// Payment returns the first transaction in feed order that pays exactly amount for vs
func Payment(txs []models.Transaction, vs string, amount decimal.Decimal, exclude models.IDSet) (models.Transaction, bool) {
	expected := varsym.Normalize(vs)
	if expected == "" {
		return models.Transaction{}, false
	}

	for _, tx := range txs {
		if !candidate(tx, expected, exclude) {
			continue
		}
		if tx.Amount.Equal(amount) {
			return tx, true
		}
	}

	return models.Transaction{}, false
}

// Donations returns every transaction for vs regardless of amount, in feed order
func Donations(txs []models.Transaction, vs string, exclude models.IDSet) []models.Transaction {
	expected := varsym.Normalize(vs)
	if expected == "" {
		return nil
	}

	var found []models.Transaction
	for _, tx := range txs {
		if candidate(tx, expected, exclude) {
			found = append(found, tx)
		}
	}

	return found
}

func candidate(tx models.Transaction, expected string, exclude models.IDSet) bool {
	switch {
	case tx.Amount == nil || tx.Amount.Sign() <= 0:
		return false
	case tx.ID == nil:
		return false
	case exclude.Has(*tx.ID):
		return false
	case tx.Currency != models.CurrencyCZK:
		return false
	default:
		return varsym.Normalize(tx.VariableSymbol) == expected
	}
}
