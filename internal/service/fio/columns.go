package fio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bankmatch/internal/models"
)

// Fio sends dates as "2024-03-01+0100"
const dateLayout = "2006-01-02-0700"

type statement struct {
	AccountStatement struct {
		TransactionList struct {
			Transaction []transaction `json:"transaction"`
		} `json:"transactionList"`
	} `json:"accountStatement"`
}

// transaction is a row of the statement. Every column may be null or missing entirely.
type transaction struct {
	Date           *column[date]            `json:"column0"`
	Amount         *column[decimal.Decimal] `json:"column1"`
	CounterAccount *column[text]            `json:"column2"`
	VariableSymbol *column[text]            `json:"column5"`
	CounterName    *column[text]            `json:"column10"`
	Currency       *column[text]            `json:"column14"`
	Message        *column[text]            `json:"column16"`
	ID             *column[int64]           `json:"column22"`
}

type column[T any] struct {
	Value *T `json:"value"`
}

func (c *column[T]) get() *T {
	if c == nil {
		return nil
	}
	return c.Value
}

func (t transaction) model() models.Transaction {
	tx := models.Transaction{
		ID:             t.ID.get(),
		Amount:         t.Amount.get(),
		Currency:       t.Currency.get().String(),
		CounterAccount: t.CounterAccount.get().String(),
		CounterName:    t.CounterName.get().String(),
		VariableSymbol: t.VariableSymbol.get().String(),
		Message:        t.Message.get().String(),
	}
	if d := t.Date.get(); d != nil {
		tm := time.Time(*d)
		tx.Date = &tm
	}
	return tx
}

type date time.Time

func (d *date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		t, err = time.Parse(time.DateOnly, s)
	}
	if err != nil {
		return fmt.Errorf("unexpected date %q: %w", s, err)
	}

	*d = date(t)
	return nil
}

// text accepts both strings and numbers; variable symbols come either way
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = text(n.String())
	return nil
}

func (t *text) String() string {
	if t == nil {
		return ""
	}
	return string(*t)
}
