// Package notify tells the operator about matched payments and donations.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/nkiryanov/bankmatch/internal/models"
)

// Nop drops every notification
type Nop struct{}

func (Nop) PaymentMatched(context.Context, models.PaymentRecord, models.Purchase) error {
	return nil
}

func (Nop) DonationsMatched(context.Context, models.DonationRecord, []models.Donation) error {
	return nil
}

type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// Telegram posts HTML formatted messages to a single chat
type Telegram struct {
	chatID int64
	sender sender
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("can't create telegram bot: %w", err)
	}

	return &Telegram{chatID: chatID, sender: b}, nil
}

func (t *Telegram) PaymentMatched(ctx context.Context, rec models.PaymentRecord, p models.Purchase) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Payment received</b>\n")
	fmt.Fprintf(&b, "Request: <code>%s</code>\n", html.EscapeString(rec.RequestID))
	fmt.Fprintf(&b, "VS: <code>%s</code>\n", html.EscapeString(rec.VariableSymbol))
	fmt.Fprintf(&b, "Amount: %s CZK\n", p.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Quota: %d/%d", rec.Used, rec.Limit)

	return t.send(ctx, b.String())
}

func (t *Telegram) DonationsMatched(ctx context.Context, rec models.DonationRecord, added []models.Donation) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%d new donation(s)</b> for <code>%s</code>\n", len(added), html.EscapeString(rec.EventID))
	for _, d := range added {
		fmt.Fprintf(&b, "• %s CZK", d.Amount.StringFixed(2))
		if d.CounterName != "" {
			fmt.Fprintf(&b, " from %s", html.EscapeString(d.CounterName))
		}
		if d.Message != "" {
			fmt.Fprintf(&b, ": <i>%s</i>", html.EscapeString(d.Message))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total: %s CZK in %d donation(s)", rec.Total.StringFixed(2), rec.Count)

	return t.send(ctx, b.String())
}

func (t *Telegram) send(ctx context.Context, text string) error {
	disablePreview := true
	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
		LinkPreviewOptions: &tgmodels.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
	})
	if err != nil {
		return fmt.Errorf("can't send telegram message: %w", err)
	}
	return nil
}
