package processor

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds processor credentials and endpoints. It is injected at
// construction; nothing in here is read from the environment directly.
type Config struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	AccountNumber string
	WebhookSecret string
	Timeout       time.Duration
}

const defaultTimeout = 15 * time.Second

type httpClient struct {
	config Config
	client *http.Client
}

// NewHTTPClient creates a processor client over the REST API with a bounded
// request timeout.
func NewHTTPClient(config Config) Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &httpClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *httpClient) do(ctx context.Context, method, path string, body interface{}) (*PayoutEntity, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.config.KeyID, c.config.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Network failures and timeouts are indistinguishable from a 5xx
		// for our purposes: the submission may or may not have landed, and
		// only an idempotent retry or reconciliation can tell.
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 400:
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("%w: %s", ErrRejected, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	var entity PayoutEntity
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to decode payout entity: %w", err)
	}
	return &entity, nil
}

func (c *httpClient) CreatePayout(ctx context.Context, req CreatePayoutRequest) (*PayoutEntity, error) {
	if req.AccountNumber == "" {
		req.AccountNumber = c.config.AccountNumber
	}
	return c.do(ctx, http.MethodPost, "/v1/payouts", req)
}

func (c *httpClient) GetPayout(ctx context.Context, externalID string) (*PayoutEntity, error) {
	return c.do(ctx, http.MethodGet, "/v1/payouts/"+externalID, nil)
}

func (c *httpClient) CancelPayout(ctx context.Context, externalID string) (*PayoutEntity, error) {
	return c.do(ctx, http.MethodPost, "/v1/payouts/"+externalID+"/cancel", nil)
}

// VerifySignature checks the webhook HMAC over the raw body bytes with a
// constant-time compare.
func (c *httpClient) VerifySignature(rawBody []byte, signature string) bool {
	return VerifySignature(c.config.WebhookSecret, rawBody, signature)
}

// VerifySignature computes HMAC-SHA256 over rawBody and compares it against
// the hex-encoded signature in constant time.
func VerifySignature(secret string, rawBody []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
