package reconcile

import (
	"slices"
	"time"

	"github.com/nkiryanov/bankmatch/internal/models"
)

// CheckAccess decides whether a metered action is allowed for the record, nil means no record exists
func CheckAccess(rec *models.PaymentRecord) models.Access {
	if rec == nil {
		return models.Access{Allowed: false, Reason: models.AccessReasonPaymentRequired}
	}

	access := models.Access{Used: rec.Used, Limit: rec.Limit}

	switch {
	case rec.Status != models.PaymentStatusPaid:
		access.Reason = models.AccessReasonPaymentRequired
	case rec.Used >= rec.Limit:
		access.Reason = models.AccessReasonLimitReached
	default:
		access.Allowed = true
	}

	return access
}

// ApplyMatch credits the matched transaction to the record.
// A new record starts paid with zero usage and the granted limit, an existing one gets the grant added to its limit.
// Applying a transaction that is already among the purchases returns the record unchanged.
func ApplyMatch(existing *models.PaymentRecord, tx models.Transaction, grant int, now time.Time) models.PaymentRecord {
	var rec models.PaymentRecord
	if existing != nil {
		rec = *existing
		rec.Purchases = slices.Clone(existing.Purchases)
	} else {
		rec.CreatedAt = now
	}

	if tx.ID == nil || tx.Amount == nil || rec.PurchasedIDs().Has(*tx.ID) {
		return rec
	}

	rec.Status = models.PaymentStatusPaid
	rec.Limit += grant
	rec.Purchases = append(rec.Purchases, models.Purchase{
		TransactionID: *tx.ID,
		Date:          tx.Date,
		Amount:        *tx.Amount,
		Quota:         grant,
	})
	rec.UpdatedAt = now

	return rec
}

// AggregateDonations adds not yet recorded transactions to the record.
// Returns the updated record and the donations that were added.
func AggregateDonations(rec models.DonationRecord, txs []models.Transaction, now time.Time) (models.DonationRecord, []models.Donation) {
	seen := rec.DonatedIDs()
	rec.Donations = slices.Clone(rec.Donations)

	var added []models.Donation
	for _, tx := range txs {
		if tx.ID == nil || tx.Amount == nil || seen.Has(*tx.ID) {
			continue
		}
		seen[*tx.ID] = struct{}{}

		d := models.Donation{
			TransactionID: *tx.ID,
			Date:          tx.Date,
			Amount:        *tx.Amount,
			CounterName:   tx.CounterName,
			Message:       tx.Message,
		}
		rec.Total = rec.Total.Add(d.Amount)
		rec.Count++
		rec.Donations = append(rec.Donations, d)
		added = append(added, d)
	}

	if len(added) > 0 {
		rec.UpdatedAt = now
	}

	return rec, added
}
