package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/metrics"
)

// SSLCommerzClient implements Client against an SSLCommerz-compatible API.
type SSLCommerzClient struct {
	cfg        Config
	httpClient *http.Client
}

func NewSSLCommerzClient(cfg Config) *SSLCommerzClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "BDT"
	}

	return &SSLCommerzClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type initResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// validationResponse mirrors the validator payload. Amount arrives as a
// quoted decimal from the live API and as a number from some sandboxes.
type validationResponse struct {
	Status string          `json:"status"`
	TranID string          `json:"tran_id"`
	ValID  string          `json:"val_id"`
	Amount json.RawMessage `json:"amount"`
}

func (c *SSLCommerzClient) Init(ctx context.Context, req InitRequest) (string, error) {
	if !c.cfg.Configured() {
		return "", ErrNotConfigured
	}

	amount := strconv.FormatFloat(req.Amount, 'f', 2, 64)
	form := url.Values{
		"store_id":         {c.cfg.StoreID},
		"store_passwd":     {c.cfg.StorePassword},
		"total_amount":     {amount},
		"currency":         {c.cfg.Currency},
		"tran_id":          {req.TransactionID},
		"success_url":      {callbackURL(c.cfg.SuccessURL, req.TransactionID, amount, "success")},
		"fail_url":         {callbackURL(c.cfg.FailURL, req.TransactionID, amount, "fail")},
		"cancel_url":       {callbackURL(c.cfg.CancelURL, req.TransactionID, amount, "cancel")},
		"ipn_url":          {c.cfg.IPNURL},
		"shipping_method":  {"NO"},
		"product_name":     {"Tour"},
		"product_category": {"Service"},
		"product_profile":  {"general"},
		"cus_name":         {req.CustomerName},
		"cus_email":        {req.CustomerEmail},
		"cus_add1":         {orNA(req.CustomerAddress)},
		"cus_city":         {"N/A"},
		"cus_country":      {"N/A"},
		"cus_phone":        {orNA(req.CustomerPhone)},
	}

	start := time.Now()
	var out initResponse
	err := c.do(ctx, http.MethodPost, c.cfg.PaymentAPI, strings.NewReader(form.Encode()), &out)
	if err == nil && (!strings.EqualFold(out.Status, "SUCCESS") || out.GatewayPageURL == "") {
		err = fmt.Errorf("gateway status %q: %s", out.Status, out.FailedReason)
	}
	observe("init", start, err)

	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("transaction_id", req.TransactionID).Warn("gateway init failed")
		return "", apperror.Wrap(err, ErrInitFailed.Kind, ErrInitFailed.Message)
	}
	return out.GatewayPageURL, nil
}

func (c *SSLCommerzClient) Validate(ctx context.Context, validationID string) (*ValidationResult, error) {
	if !c.cfg.Configured() {
		return nil, ErrNotConfigured
	}

	u, err := url.Parse(c.cfg.ValidationAPI)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternalConfiguration, "invalid validation API URL")
	}
	q := u.Query()
	q.Set("val_id", validationID)
	q.Set("store_id", c.cfg.StoreID)
	q.Set("store_passwd", c.cfg.StorePassword)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	start := time.Now()
	var out validationResponse
	err = c.do(ctx, http.MethodGet, u.String(), nil, &out)
	observe("validate", start, err)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("gateway validation call failed")
		return nil, apperror.Wrap(err, ErrValidation.Kind, ErrValidation.Message)
	}

	res := &ValidationResult{
		Status:       strings.ToUpper(out.Status),
		TranID:       out.TranID,
		ValidationID: out.ValID,
	}
	if amt, ok := parseAmount(out.Amount); ok {
		res.Amount = amt
		res.HasAmount = true
	}
	return res, nil
}

func (c *SSLCommerzClient) do(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func callbackURL(base, transactionID, amount, status string) string {
	if base == "" {
		return ""
	}
	q := url.Values{
		"transactionId": {transactionID},
		"amount":        {amount},
		"status":        {status},
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

func parseAmount(raw json.RawMessage) (float64, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func observe(call string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.GatewayDuration.WithLabelValues(call, result).Observe(time.Since(start).Seconds())
}
