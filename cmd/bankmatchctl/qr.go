package main

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nkiryanov/bankmatch/internal/service/qrpay"
	"github.com/nkiryanov/bankmatch/internal/service/varsym"
)

func qrCmd() *cobra.Command {
	var (
		iban    string
		amount  string
		vs      string
		message string
		name    string
	)

	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Print the QR payment payload for banking apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if iban == "" {
				return errors.New("iban is required")
			}

			am, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			if !am.IsPositive() {
				return fmt.Errorf("amount must be positive, got %s", amount)
			}

			if vs != "" && !varsym.IsValid(vs) {
				return fmt.Errorf("%q is not a valid variable symbol", vs)
			}

			payload := qrpay.Encode(iban, am, vs, qrpay.WithMessage(message), qrpay.WithRecipientName(name))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), payload)
			return err
		},
	}

	cmd.Flags().StringVar(&iban, "iban", "", "Receiving account IBAN")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in CZK")
	cmd.Flags().StringVar(&vs, "vs", "", "Variable symbol")
	cmd.Flags().StringVar(&message, "message", qrpay.DefaultMessage, "Message for the recipient")
	cmd.Flags().StringVar(&name, "name", "", "Recipient name")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
