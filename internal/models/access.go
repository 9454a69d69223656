package models

const (
	AccessReasonPaymentRequired = "payment_required"
	AccessReasonLimitReached    = "limit_reached"
)

// Access is a decision whether a metered action is allowed for a payment record
type Access struct {
	Allowed bool
	Reason  string
	Used    int
	Limit   int
}
