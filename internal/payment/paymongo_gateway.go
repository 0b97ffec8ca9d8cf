package payment

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

	"bookpay-be/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	defaultBaseURL    = "https://api.paymongo.com"
	defaultTimeout    = 15 * time.Second
	currencyPHP       = "PHP"
	idempotencyHeader = "Idempotency-Key"

	statusAwaitingNextAction = "awaiting_next_action"
)

var hundred = decimal.NewFromInt(100)

type PayMongoConfig struct {
	SecretKey string
	BaseURL   string
	ReturnURL string
	Timeout   time.Duration
}

type paymongoGateway struct {
	secretKey  string
	baseURL    string
	returnURL  string
	httpClient *http.Client
}

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("paymongo error (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("paymongo error (%d)", e.StatusCode)
}

// ----------------- Constructor -----------------

func NewPayMongoGateway(cfg PayMongoConfig) Gateway {
	if cfg.SecretKey == "" {
		logger.L().Warn("PayMongo secret key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &paymongoGateway{
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		returnURL: cfg.ReturnURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ----------------- Wire types -----------------

type requestBody struct {
	Data struct {
		Attributes map[string]interface{} `json:"attributes"`
	} `json:"data"`
}

func wrap(attrs map[string]interface{}) requestBody {
	var b requestBody
	b.Data.Attributes = attrs
	return b
}

type intentEnvelope struct {
	Data intentResource `json:"data"`
}

type methodEnvelope struct {
	Data methodResource `json:"data"`
}

type intentResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Amount     int64  `json:"amount"`
		Currency   string `json:"currency"`
		ClientKey  string `json:"client_key"`
		Status     string `json:"status"`
		NextAction *struct {
			Type     string `json:"type"`
			Redirect struct {
				URL string `json:"url"`
			} `json:"redirect"`
		} `json:"next_action"`
		PaymentMethod string `json:"payment_method"`
		Payments      []struct {
			ID string `json:"id"`
		} `json:"payments"`
		LastPaymentError *struct {
			FailedMessage string `json:"failed_message"`
			FailedCode    string `json:"failed_code"`
		} `json:"last_payment_error"`
	} `json:"attributes"`
}

type methodResource struct {
	ID string `json:"id"`
}

type errorBody struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// ----------------- CreateIntent -----------------

func (p *paymongoGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, methods []MethodID) (*Intent, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("intent amount must be positive, got %s", amount)
	}
	if len(methods) == 0 {
		return nil, errors.New("at least one payment method is required")
	}

	allowed := make([]string, 0, len(methods))
	for _, m := range methods {
		allowed = append(allowed, string(m))
	}

	body := wrap(map[string]interface{}{
		"amount":                 toCentavos(amount),
		"currency":               currencyPHP,
		"payment_method_allowed": allowed,
		"capture_type":           "automatic",
		"payment_method_options": map[string]interface{}{
			"card": map[string]interface{}{"request_three_d_secure": "any"},
		},
	})

	var res intentEnvelope
	if err := p.do(ctx, "CreateIntent", http.MethodPost, "/v1/payment_intents", body, &res, true); err != nil {
		return nil, err
	}

	return &Intent{
		ID:        res.Data.ID,
		ClientKey: res.Data.Attributes.ClientKey,
		Amount:    fromCentavos(res.Data.Attributes.Amount),
		Currency:  res.Data.Attributes.Currency,
		Methods:   methods,
		Status:    res.Data.Attributes.Status,
		CreatedAt: time.Now(),
	}, nil
}

// ----------------- AttachMethod -----------------

// AttachMethod attaches a method to the intent, creating the method record
// first when the payload does not carry one.
func (p *paymongoGateway) AttachMethod(ctx context.Context, intentID string, mp MethodPayload) (*AttachOutcome, error) {
	if intentID == "" {
		return nil, errors.New("intent id is required")
	}

	methodID := mp.PaymentMethodID
	if methodID == "" {
		if _, ok := LookupMethod(mp.Method); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, mp.Method)
		}
		id, err := p.createMethod(ctx, mp)
		if err != nil {
			return nil, err
		}
		methodID = id
	}

	returnURL := mp.ReturnURL
	if returnURL == "" {
		returnURL = p.returnURL
	}

	attrs := map[string]interface{}{
		"payment_method": methodID,
	}
	if mp.ClientKey != "" {
		attrs["client_key"] = mp.ClientKey
	}
	if returnURL != "" {
		attrs["return_url"] = returnURL
	}

	var res intentEnvelope
	path := "/v1/payment_intents/" + intentID + "/attach"
	body := wrap(attrs)
	if err := p.do(ctx, "AttachMethod", http.MethodPost, path, body, &res, false); err != nil {
		return nil, err
	}

	out := &AttachOutcome{
		Status:          NormalizeStatus(res.Data.Attributes.Status),
		PaymentMethodID: methodID,
	}
	if na := res.Data.Attributes.NextAction; na != nil && na.Type == "redirect" {
		out.RedirectURL = na.Redirect.URL
	}
	if n := len(res.Data.Attributes.Payments); n > 0 {
		out.PaymentID = res.Data.Attributes.Payments[n-1].ID
	}

	return out, nil
}

func (p *paymongoGateway) createMethod(ctx context.Context, mp MethodPayload) (string, error) {
	attrs := map[string]interface{}{
		"type": string(mp.Method),
	}
	if mp.Billing != nil {
		attrs["billing"] = mp.Billing
	}

	var res methodEnvelope
	body := wrap(attrs)
	if err := p.do(ctx, "CreateMethod", http.MethodPost, "/v1/payment_methods", body, &res, false); err != nil {
		return "", err
	}
	if res.Data.ID == "" {
		return "", errors.New("paymongo returned an empty payment method id")
	}
	return res.Data.ID, nil
}

// ----------------- RetrieveIntent -----------------

func (p *paymongoGateway) RetrieveIntent(ctx context.Context, intentID string) (*IntentStatus, error) {
	if intentID == "" {
		return nil, errors.New("intent id is required")
	}

	var res intentEnvelope
	if err := p.do(ctx, "RetrieveIntent", http.MethodGet, "/v1/payment_intents/"+intentID, nil, &res, false); err != nil {
		return nil, err
	}

	st := &IntentStatus{
		ID:              res.Data.ID,
		Status:          NormalizeStatus(res.Data.Attributes.Status),
		Amount:          fromCentavos(res.Data.Attributes.Amount),
		PaymentMethodID: res.Data.Attributes.PaymentMethod,
	}
	if na := res.Data.Attributes.NextAction; na != nil && na.Type == "redirect" {
		st.RedirectURL = na.Redirect.URL
	}
	if n := len(res.Data.Attributes.Payments); n > 0 {
		st.PaymentID = res.Data.Attributes.Payments[n-1].ID
	}
	if le := res.Data.Attributes.LastPaymentError; le != nil {
		st.LastError = le.FailedMessage
	}
	return st, nil
}

// ----------------- Transport -----------------

func (p *paymongoGateway) do(ctx context.Context, op, method, path string, body, out interface{}, idempotent bool) error {
	ctx, span := otel.Tracer("payment/paymongo").Start(ctx, "PayMongo."+op)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("paymongo.path", path))

	log := logger.FromCtx(ctx).With(zap.String("op", op), zap.String("path", path))

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			log.Error("Failed to marshal gateway request", zap.Error(err))
			return err
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return err
	}

	req.SetBasicAuth(p.secretKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotent {
		req.Header.Set(idempotencyHeader, uuid.NewString())
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Error("PayMongo request failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		return fmt.Errorf("failed to read paymongo response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(bodyBytes, &eb) == nil && len(eb.Errors) > 0 {
			apiErr.Code = eb.Errors[0].Code
			apiErr.Detail = eb.Errors[0].Detail
		}
		log.Error("PayMongo returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Code),
			zap.String("detail", apiErr.Detail),
		)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Code)
		return apiErr
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		log.Error("Failed decoding PayMongo response", zap.Error(err))
		return err
	}

	log.Info("PayMongo call completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

// NormalizeStatus maps gateway intent statuses onto the attach statuses.
func NormalizeStatus(s string) string {
	if s == statusAwaitingNextAction {
		return AttachRequiresAction
	}
	return s
}

func toCentavos(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func fromCentavos(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
