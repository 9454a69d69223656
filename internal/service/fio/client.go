// Package fio reads account statements from the Fio banka REST API.
package fio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nkiryanov/bankmatch/internal/apperrors"
	"github.com/nkiryanov/bankmatch/internal/logger"
	"github.com/nkiryanov/bankmatch/internal/models"
)

const (
	DefaultAddr = "https://fioapi.fio.cz"

	// Used when the feed throttles us without Retry-After header
	defaultRetryAfter = 30 * time.Second

	requestTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

type Client struct {
	Addr string

	token      string
	retryAfter time.Duration
	client     *http.Client
	logger     logger.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// WithRetryAfter sets the wait reported when the feed throttles without telling how long to wait
func WithRetryAfter(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.retryAfter = d
		}
	}
}

func NewClient(addr string, token string, l logger.Logger, opts ...Option) *Client {
	if addr == "" {
		addr = DefaultAddr
	}

	c := &Client{
		Addr:       strings.TrimRight(addr, "/"),
		token:      token,
		retryAfter: defaultRetryAfter,
		client:     &http.Client{Timeout: requestTimeout},
		logger:     l,
	}
	for _, o := range opts {
		o(c)
	}

	return c
}

// Transactions returns the account movements booked between from and to (both inclusive, by date)
// in the order the bank reports them.
func (c *Client) Transactions(ctx context.Context, from time.Time, to time.Time) ([]models.Transaction, error) {
	if c.token == "" {
		return nil, apperrors.ErrFeedUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.periodURL(from, to), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", apperrors.ErrFeedFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error carries the url with the token inside
		var uErr *url.Error
		if errors.As(err, &uErr) {
			err = uErr.Err
		}
		return nil, fmt.Errorf("%w: failed to send request: %w", apperrors.ErrFeedFailed, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return c.processSuccess(resp)
	case http.StatusConflict, http.StatusTooManyRequests:
		return nil, c.processTooManyRequests(resp)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("Transaction feed failed", "status_code", resp.StatusCode, "body", string(body))
		return nil, &apperrors.FeedError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

func (c *Client) periodURL(from time.Time, to time.Time) string {
	return fmt.Sprintf("%s/v1/rest/periods/%s/%s/%s/transactions.json",
		c.Addr,
		url.PathEscape(c.token),
		from.Format(time.DateOnly),
		to.Format(time.DateOnly),
	)
}

func (c *Client) processSuccess(resp *http.Response) ([]models.Transaction, error) {
	var s statement
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		c.logger.Warn("Failed to decode statement", "error", err)
		return nil, fmt.Errorf("%w: failed to decode statement: %w", apperrors.ErrFeedFailed, err)
	}

	rows := s.AccountStatement.TransactionList.Transaction
	txs := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.model())
	}

	c.logger.Debug("Statement fetched", "transactions", len(txs))
	return txs, nil
}

func (c *Client) processTooManyRequests(resp *http.Response) error {
	wait := c.retryAfter

	header := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		wait = time.Duration(seconds) * time.Second
	}

	c.logger.Warn("Transaction feed throttled", "status_code", resp.StatusCode, "retry_after", wait)
	return &apperrors.RateLimitError{Wait: wait, Upstream: true}
}
