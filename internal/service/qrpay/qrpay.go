// Package qrpay encodes payment parameters into the Czech "Short Payment Descriptor"
// string that banking apps scan from QR codes.
package qrpay

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bankmatch/internal/models"
)

const (
	DefaultMessage = "Platba"

	header           = "SPD*1.0"
	delimiter        = "*"
	maxMessageLength = 60
)

type options struct {
	message       string
	recipientName string
}

type Option func(*options)

// WithMessage overrides the default message. Empty message omits the field.
func WithMessage(msg string) Option {
	return func(o *options) { o.message = msg }
}

func WithRecipientName(name string) Option {
	return func(o *options) { o.recipientName = name }
}

// Encode builds the descriptor. Field order is fixed and must not change,
// scanning apps rely on it.
func Encode(account string, amount decimal.Decimal, vs string, opts ...Option) string {
	o := options{message: DefaultMessage}
	for _, opt := range opts {
		opt(&o)
	}

	fields := []string{
		header,
		"ACC:" + account,
		"AM:" + amount.StringFixed(2),
		"CC:" + models.CurrencyCZK,
	}

	if vs != "" {
		fields = append(fields, "X-VS:"+vs)
	}
	if msg := truncate(strip(o.message), maxMessageLength); msg != "" {
		fields = append(fields, "MSG:"+msg)
	}
	if name := strip(o.recipientName); name != "" {
		fields = append(fields, "RN:"+name)
	}

	return strings.Join(fields, delimiter)
}

func strip(s string) string {
	return strings.ReplaceAll(s, delimiter, "")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
