package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nucleotide-health/nucleotide-backend/pkg/config"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
)

var (
	errKeyIDRequired         = errors.New("razorpay key id is required")
	errKeySecretRequired     = errors.New("razorpay key secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
	errLoggerRequired        = errors.New("razorpay logger is required")
)

// Client exposes the gateway REST primitives with centralized auth, logging
// and error mapping.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	logger        *logger.Logger
}

// Order is the gateway order object returned by create/fetch calls.
type Order struct {
	ID         string         `json:"id"`
	Amount     int64          `json:"amount"`
	AmountPaid int64          `json:"amount_paid"`
	AmountDue  int64          `json:"amount_due"`
	Currency   string         `json:"currency"`
	Receipt    string         `json:"receipt"`
	Status     string         `json:"status"`
	Notes      map[string]any `json:"notes"`
}

// Payment is the gateway payment object returned by fetch-payment.
type Payment struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	ErrorCode   string `json:"error_code"`
	ErrorReason string `json:"error_reason"`
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       baseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		logger:        logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// SetHTTPClient swaps the underlying HTTP client, used by tests pointing the
// wrapper at a local server.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// KeyID returns the configured public key id, handed to the checkout UI.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// KeySecret returns the secret used for payment signature verification.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// WebhookSecret returns the secret used for webhook signature verification.
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// CreateOrder registers an order with the gateway. Amount is in paise.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*Order, error) {
	body := map[string]any{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}

	c.log(ctx, "request", "create_order", map[string]any{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	})

	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", body, &order); err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"razorpay_order_id": order.ID,
		"status":            order.Status,
	})
	return &order, nil
}

// FetchPayment loads a payment by its gateway id.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	c.log(ctx, "request", "fetch_payment", map[string]any{"razorpay_payment_id": paymentID})

	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment); err != nil {
		c.log(ctx, "error", "fetch_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "fetch_payment", map[string]any{
		"razorpay_payment_id": payment.ID,
		"status":              payment.Status,
	})
	return &payment, nil
}

// FetchOrder loads a gateway order by its id.
func (c *Client) FetchOrder(ctx context.Context, gatewayOrderID string) (*Order, error) {
	c.log(ctx, "request", "fetch_order", map[string]any{"razorpay_order_id": gatewayOrderID})

	var order Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+gatewayOrderID, nil, &order); err != nil {
		c.log(ctx, "error", "fetch_order", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "fetch_order", map[string]any{
		"razorpay_order_id": order.ID,
		"status":            order.Status,
	})
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding gateway request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling payment gateway")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading gateway response")
	}

	if resp.StatusCode >= 400 {
		return c.mapGatewayError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway response")
		}
	}
	return nil
}

func (c *Client) mapGatewayError(status int, raw []byte) error {
	var payload struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	description := fmt.Sprintf("gateway returned status %d", status)
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Description != "" {
		description = payload.Error.Description
	}

	code := pkgerrors.CodeDependency
	switch status {
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusBadRequest:
		code = pkgerrors.CodeValidation
	}
	return pkgerrors.New(code, description)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("razorpay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("razorpay %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "signature", "token", "card", "contact", "email"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
