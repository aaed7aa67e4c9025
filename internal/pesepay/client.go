package pesepay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrGatewayUnavailable marks network failures and provider 5xx responses.
// Callers retry these; they never mean the charge failed.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// ErrRejected marks provider 4xx responses: the request itself was bad and
// retrying it unchanged will not help.
var ErrRejected = errors.New("payment gateway rejected request")

// Status is the three-way verdict the rest of the system works with,
// folded from the provider's status vocabulary.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

const (
	requestTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20
)

// ClientConfig carries the gateway credentials and callback URLs.
type ClientConfig struct {
	BaseURL        string
	IntegrationKey string
	EncryptionKey  string
	ResultURL      string
	ReturnURL      string
}

// Client talks to the Pesepay payments engine. All bodies cross the wire
// encrypted; see crypto.go.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log,
	}
}

// Configured reports whether gateway credentials are present. An empty key
// disables payment initiation without affecting the rest of the system.
func (c *Client) Configured() bool {
	return c.cfg.IntegrationKey != "" && c.cfg.EncryptionKey != ""
}

// --- wire types ---

type amountDetails struct {
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
}

type customerDetails struct {
	PhoneNumber string `json:"phoneNumber"`
}

type paymentRequest struct {
	AmountDetails     amountDetails    `json:"amountDetails"`
	ReasonForPayment  string           `json:"reasonForPayment"`
	ResultURL         string           `json:"resultUrl"`
	ReturnURL         string           `json:"returnUrl"`
	MerchantReference string           `json:"merchantReference,omitempty"`
	PaymentMethodCode string           `json:"paymentMethodCode,omitempty"`
	Customer          *customerDetails `json:"customer,omitempty"`
}

type paymentResponse struct {
	ReferenceNumber   string `json:"referenceNumber"`
	PollURL           string `json:"pollUrl"`
	RedirectURL       string `json:"redirectUrl"`
	TransactionStatus string `json:"transactionStatus"`
}

type encryptedEnvelope struct {
	Payload string `json:"payload"`
}

// InitiateRequest describes one charge attempt.
type InitiateRequest struct {
	AmountUSD float64
	Currency  string
	Reason    string
	Method    string
	Phone     string
	Reference string
}

// InitiateResult is the provider's acknowledgement. The charge itself settles
// out of band; PollURL is where its outcome becomes visible.
type InitiateResult struct {
	Reference   string
	PollURL     string
	RedirectURL string
	Status      Status
}

// InitiateSeamless starts a mobile-money charge that prompts the payer on
// their device. Card methods come back with a RedirectURL instead.
func (c *Client) InitiateSeamless(ctx context.Context, in InitiateRequest) (*InitiateResult, error) {
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	req := paymentRequest{
		AmountDetails:     amountDetails{Amount: in.AmountUSD, CurrencyCode: currency},
		ReasonForPayment:  in.Reason,
		ResultURL:         c.cfg.ResultURL,
		ReturnURL:         c.cfg.ReturnURL,
		MerchantReference: in.Reference,
		PaymentMethodCode: strings.ToUpper(in.Method),
	}
	if in.Phone != "" {
		req.Customer = &customerDetails{PhoneNumber: in.Phone}
	}

	resp, err := c.post(ctx, c.cfg.BaseURL+"/v2/payments/make-payment", req)
	if err != nil {
		return nil, err
	}

	ref := resp.ReferenceNumber
	if ref == "" {
		ref = in.Reference
	}
	return &InitiateResult{
		Reference:   ref,
		PollURL:     resp.PollURL,
		RedirectURL: resp.RedirectURL,
		Status:      MapStatus(resp.TransactionStatus),
	}, nil
}

// CheckStatus performs a single poll against the payment's poll URL.
func (c *Client) CheckStatus(ctx context.Context, pollURL string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return StatusPending, fmt.Errorf("create poll request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.IntegrationKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StatusPending, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return StatusPending, fmt.Errorf("%w: read poll response: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return StatusPending, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return StatusPending, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	pr, err := c.decodeResponse(raw)
	if err != nil {
		return StatusPending, err
	}
	return MapStatus(pr.TransactionStatus), nil
}

// PollUntilTerminal polls on a fixed interval until the charge reaches a
// terminal status or the attempt budget runs out. Exhausting the budget
// returns StatusPending: the outcome is still unknown, not failed. Transient
// gateway errors consume attempts and are logged, never surfaced.
func (c *Client) PollUntilTerminal(ctx context.Context, pollURL string, interval time.Duration, maxAttempts int) (Status, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return StatusPending, ctx.Err()
			case <-time.After(interval):
			}
		}

		status, err := c.CheckStatus(ctx, pollURL)
		if err != nil {
			if errors.Is(err, ErrGatewayUnavailable) {
				c.log.Warn("payment status poll failed", "attempt", attempt, "error", err)
				continue
			}
			return StatusPending, err
		}
		if status != StatusPending {
			return status, nil
		}
	}
	return StatusPending, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) (*paymentResponse, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	enc, err := encryptPayload(plain, c.cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload: %w", err)
	}
	body, err := json.Marshal(encryptedEnvelope{Payload: enc})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.cfg.IntegrationKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, truncateBody(raw))
	}
	return c.decodeResponse(raw)
}

// decodeResponse unwraps an encrypted envelope when present, otherwise reads
// the body as plain JSON. Sandbox endpoints answer in the clear.
func (c *Client) decodeResponse(raw []byte) (*paymentResponse, error) {
	var env encryptedEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Payload != "" {
		plain, err := decryptPayload(env.Payload, c.cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("decrypt response: %w", err)
		}
		raw = plain
	}
	var pr paymentResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &pr, nil
}

// MapStatus folds the provider vocabulary into the internal three-way status.
// Anything unrecognized stays pending rather than guessing a terminal state.
// Webhook payloads carry the same vocabulary, so this is exported.
func MapStatus(s string) Status {
	switch strings.ToUpper(s) {
	case "SUCCESS", "PAID", "SETTLED", "COMPLETED":
		return StatusSuccess
	case "FAILED", "CANCELLED", "DECLINED", "REVERSED", "TIME_OUT", "ERROR", "INSUFFICIENT_FUNDS":
		return StatusFailed
	default:
		return StatusPending
	}
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
