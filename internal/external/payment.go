package external

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"boxoffice/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentClient authorizes payments against the HTTP payment gateway.
type PaymentClient struct {
	baseURL    string
	teamSlug   string
	password   string
	currency   string
	httpClient *http.Client
}

type PaymentConfig struct {
	Mode     string // "gateway" or "sandbox"
	BaseURL  string
	TeamSlug string
	Password string
	Currency string
	Timeout  time.Duration
}

type PaymentAuthorizeRequest struct {
	TeamSlug     string `json:"teamSlug"`
	Token        string `json:"token"`
	Amount       int64  `json:"amount"`
	OrderID      string `json:"orderId"`
	Currency     string `json:"currency"`
	PaymentToken string `json:"paymentToken"`
}

type PaymentAuthorizeResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}

	return &PaymentClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		teamSlug: cfg.TeamSlug,
		password: cfg.Password,
		currency: cfg.Currency,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// generateToken signs a request: values of params plus TeamSlug and Password,
// concatenated in key order, hashed with SHA-256.
func (pc *PaymentClient) generateToken(params map[string]string) string {
	params["TeamSlug"] = pc.teamSlug
	params["Password"] = pc.password

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(params[key])
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// ToMinorUnits converts a currency amount to cents.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Authorize makes a single authorization call. A declined payment is a
// result with Success=false; transport and server errors are returned as err.
func (pc *PaymentClient) Authorize(ctx context.Context, amount decimal.Decimal, paymentToken string) (models.PaymentResult, error) {
	minor := ToMinorUnits(amount)
	orderID := uuid.NewString()

	req := PaymentAuthorizeRequest{
		TeamSlug: pc.teamSlug,
		Token: pc.generateToken(map[string]string{
			"Amount":   strconv.FormatInt(minor, 10),
			"Currency": pc.currency,
			"OrderId":  orderID,
		}),
		Amount:       minor,
		OrderID:      orderID,
		Currency:     pc.currency,
		PaymentToken: paymentToken,
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return models.PaymentResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/api/v1/PaymentAuthorize/authorize", bytes.NewReader(jsonBody))
	if err != nil {
		return models.PaymentResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := pc.httpClient.Do(httpReq)
	if err != nil {
		return models.PaymentResult{}, fmt.Errorf("failed to authorize payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.PaymentResult{}, fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result PaymentAuthorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.PaymentResult{}, fmt.Errorf("failed to decode response: %w", err)
	}

	out := models.PaymentResult{Success: result.Success, Reference: result.PaymentID}
	if !result.Success {
		out.Error = result.Message
		if out.Error == "" {
			out.Error = "payment declined: " + result.Status
		}
	}
	return out, nil
}
