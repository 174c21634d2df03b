// Package gateway talks to the external payment provider and normalizes its
// transaction records.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/pkg/retry"
)

// StatusPaid is the provider-side status meaning the money actually moved.
const StatusPaid = "paid"

// TransactionInfo is the normalized view of one provider transaction.
type TransactionInfo struct {
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	MerchantUID string `json:"merchant_uid"`
	CardName    string `json:"card_name,omitempty"`
	CardNumber  string `json:"card_number,omitempty"`
	PayMethod   string `json:"pay_method,omitempty"`
	Provider    string `json:"pg_provider,omitempty"`
}

// providerError is a non-2xx or non-zero-code answer from the provider.
type providerError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *providerError) Error() string {
	return fmt.Sprintf("provider responded %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

type Client struct {
	baseURL string
	hc      *http.Client
	tokens  TokenSource
	logger  *zap.Logger
	policy  retry.Policy

	// OnAttempts, when set, observes how many attempts a lookup took.
	OnAttempts func(n int)
}

func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
		tokens:  tokens,
		logger:  logger,
		policy: retry.Policy{
			MaxAttempts: 3,
			IsRetryable: isTransient,
			Backoff:     retry.Exponential(time.Second),
		},
	}
}

// WithPolicy overrides the retry policy; used by tests to drop the backoff.
func (c *Client) WithPolicy(p retry.Policy) *Client {
	c.policy = p
	return c
}

// FetchTransaction returns the provider's record for one transaction id.
// Transient failures (network, timeout, provider 5xx) are retried with
// exponential backoff; anything else fails immediately. A terminal failure is
// reported as *domain.PaymentLookupError.
func (c *Client) FetchTransaction(ctx context.Context, transactionID string) (TransactionInfo, error) {
	attempts := 0
	info, err := retry.Do(ctx, c.policy, func(ctx context.Context) (TransactionInfo, error) {
		attempts++
		return c.fetchOnce(ctx, transactionID)
	})
	if c.OnAttempts != nil {
		c.OnAttempts(attempts)
	}
	if err != nil {
		c.logger.Warn("transaction lookup failed",
			zap.String("tx_id", transactionID),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return TransactionInfo{}, &domain.PaymentLookupError{TransactionID: transactionID, Err: err}
	}
	return info, nil
}

func (c *Client) fetchOnce(ctx context.Context, transactionID string) (TransactionInfo, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return TransactionInfo{}, fmt.Errorf("acquire token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/payments/"+url.PathEscape(transactionID), nil)
	if err != nil {
		return TransactionInfo{}, err
	}
	req.Header.Set("Authorization", token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return TransactionInfo{}, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Code     int             `json:"code"`
		Message  string          `json:"message"`
		Response TransactionInfo `json:"response"`
	}
	if resp.StatusCode != http.StatusOK {
		return TransactionInfo{}, &providerError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return TransactionInfo{}, fmt.Errorf("decode provider response: %w", err)
	}
	if envelope.Code != 0 {
		return TransactionInfo{}, &providerError{StatusCode: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
	}
	return envelope.Response, nil
}

// isTransient classifies retryable failures: network errors, timeouts, and
// provider 5xx. Provider 4xx and business errors are final.
func isTransient(err error) bool {
	var pe *providerError
	if errors.As(err, &pe) {
		return pe.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// http.Client wraps connection failures in *url.Error.
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
