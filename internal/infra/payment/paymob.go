package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"coursehub/config"
	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/service"
)

const (
	defaultPaymobBaseURL = "https://accept.paymob.com/api"
	paymobTimeout        = 15 * time.Second
	paymentKeyExpiration = 3600 // seconds
)

// paymobProvider drives Paymob's three-step checkout: authenticate, register
// an order, then mint a payment key for the hosted iframe. The local payment
// ID is passed as the merchant order ID so callbacks can correlate.
type paymobProvider struct {
	apiKey        string
	integrationID int64
	iframeID      int64
	hmacSecret    string
	baseURL       string
	httpClient    *http.Client
}

// NewPaymobProvider wires the Paymob client from configuration.
func NewPaymobProvider(cfg *config.PaymobConfig) service.PaymentProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPaymobBaseURL
	}

	return &paymobProvider{
		apiKey:        cfg.APIKey,
		integrationID: cfg.IntegrationID,
		iframeID:      cfg.IframeID,
		hmacSecret:    cfg.HMACSecret,
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: paymobTimeout},
	}
}

func (p *paymobProvider) Name() entity.PaymentProvider {
	return entity.ProviderPaymob
}

func (p *paymobProvider) CreateCheckout(ctx context.Context, intent *service.CheckoutIntent) (*service.CheckoutSession, error) {
	token, err := p.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	orderID, err := p.registerOrder(ctx, token, intent)
	if err != nil {
		return nil, err
	}

	paymentKey, err := p.paymentKey(ctx, token, orderID, intent)
	if err != nil {
		return nil, err
	}

	redirectURL := fmt.Sprintf("%s/acceptance/iframes/%d?payment_token=%s", p.baseURL, p.iframeID, paymentKey)

	return &service.CheckoutSession{
		ProviderOrderID: strconv.FormatInt(orderID, 10),
		RedirectURL:     redirectURL,
	}, nil
}

func (p *paymobProvider) authenticate(ctx context.Context) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := p.post(ctx, "/auth/tokens", map[string]any{"api_key": p.apiKey}, &resp)
	if err != nil {
		return "", errors.Wrap(err, "failed to authenticate with Paymob")
	}

	return resp.Token, nil
}

func (p *paymobProvider) registerOrder(ctx context.Context, token string, intent *service.CheckoutIntent) (int64, error) {
	body := map[string]any{
		"auth_token":        token,
		"delivery_needed":   false,
		"amount_cents":      intent.Amount,
		"currency":          intent.Currency,
		"merchant_order_id": intent.PaymentID.String(),
		"items": []map[string]any{
			{
				"name":         intent.CourseTitle,
				"amount_cents": intent.Amount,
				"quantity":     1,
			},
		},
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	if err := p.post(ctx, "/ecommerce/orders", body, &resp); err != nil {
		return 0, errors.Wrap(err, "failed to register Paymob order")
	}

	return resp.ID, nil
}

func (p *paymobProvider) paymentKey(ctx context.Context, token string, orderID int64, intent *service.CheckoutIntent) (string, error) {
	body := map[string]any{
		"auth_token":     token,
		"amount_cents":   strconv.FormatInt(intent.Amount, 10),
		"expiration":     paymentKeyExpiration,
		"order_id":       orderID,
		"currency":       intent.Currency,
		"integration_id": p.integrationID,
		"billing_data": map[string]any{
			"email":        intent.CustomerEmail,
			"first_name":   intent.CustomerName,
			"last_name":    "NA",
			"phone_number": "NA",
			"apartment":    "NA",
			"floor":        "NA",
			"street":       "NA",
			"building":     "NA",
			"city":         "NA",
			"country":      "NA",
		},
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := p.post(ctx, "/acceptance/payment_keys", body, &resp); err != nil {
		return "", errors.Wrap(err, "failed to create Paymob payment key")
	}

	return resp.Token, nil
}

// paymobTransaction mirrors the callback payload. json.Number keeps the
// original digits so the HMAC concatenation matches what Paymob signed.
type paymobTransaction struct {
	AmountCents           json.Number `json:"amount_cents"`
	CreatedAt             string      `json:"created_at"`
	Currency              string      `json:"currency"`
	ErrorOccured          bool        `json:"error_occured"`
	HasParentTransaction  bool        `json:"has_parent_transaction"`
	ID                    json.Number `json:"id"`
	IntegrationID         json.Number `json:"integration_id"`
	Is3DSecure            bool        `json:"is_3d_secure"`
	IsAuth                bool        `json:"is_auth"`
	IsCapture             bool        `json:"is_capture"`
	IsRefunded            bool        `json:"is_refunded"`
	IsStandalonePayment   bool        `json:"is_standalone_payment"`
	IsVoided              bool        `json:"is_voided"`
	Owner                 json.Number `json:"owner"`
	Pending               bool        `json:"pending"`
	Success               bool        `json:"success"`

	Order struct {
		ID json.Number `json:"id"`
	} `json:"order"`

	SourceData struct {
		Pan     string `json:"pan"`
		SubType string `json:"sub_type"`
		Type    string `json:"type"`
	} `json:"source_data"`
}

// hmacFields returns the transaction fields in the fixed lexical order
// Paymob concatenates before signing.
func (t *paymobTransaction) hmacFields() []string {
	return []string{
		t.AmountCents.String(),
		t.CreatedAt,
		t.Currency,
		strconv.FormatBool(t.ErrorOccured),
		strconv.FormatBool(t.HasParentTransaction),
		t.ID.String(),
		t.IntegrationID.String(),
		strconv.FormatBool(t.Is3DSecure),
		strconv.FormatBool(t.IsAuth),
		strconv.FormatBool(t.IsCapture),
		strconv.FormatBool(t.IsRefunded),
		strconv.FormatBool(t.IsStandalonePayment),
		strconv.FormatBool(t.IsVoided),
		t.Order.ID.String(),
		t.Owner.String(),
		strconv.FormatBool(t.Pending),
		t.SourceData.Pan,
		t.SourceData.SubType,
		t.SourceData.Type,
		strconv.FormatBool(t.Success),
	}
}

func (p *paymobProvider) VerifyWebhook(payload []byte, _ http.Header, query map[string]string) (*service.WebhookEvent, error) {
	provided := query["hmac"]
	if provided == "" {
		return nil, errors.New("missing Paymob HMAC parameter")
	}

	var callback struct {
		Type string             `json:"type"`
		Obj  *paymobTransaction `json:"obj"`
	}
	if err := json.Unmarshal(payload, &callback); err != nil {
		return nil, errors.Wrap(err, "failed to decode Paymob callback")
	}
	if callback.Obj == nil {
		return nil, errors.New("Paymob callback has no transaction object")
	}

	var concatenated bytes.Buffer
	for _, field := range callback.Obj.hmacFields() {
		concatenated.WriteString(field)
	}

	mac := hmac.New(sha512.New, []byte(p.hmacSecret))
	mac.Write(concatenated.Bytes())
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(provided)) {
		return nil, errors.New("Paymob HMAC mismatch")
	}

	if callback.Type != "TRANSACTION" {
		return &service.WebhookEvent{}, nil
	}

	return &service.WebhookEvent{
		ProviderOrderID: callback.Obj.Order.ID.String(),
		Paid:            callback.Obj.Success && !callback.Obj.Pending,
	}, nil
}

func (p *paymobProvider) PollStatus(ctx context.Context, providerOrderID string) (bool, error) {
	token, err := p.authenticate(ctx)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/ecommerce/orders/"+providerOrderID, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to build Paymob order request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp struct {
		AmountCents     int64 `json:"amount_cents"`
		PaidAmountCents int64 `json:"paid_amount_cents"`
	}
	if err := p.do(req, &resp); err != nil {
		return false, errors.Wrap(err, "failed to fetch Paymob order")
	}

	return resp.AmountCents > 0 && resp.PaidAmountCents >= resp.AmountCents, nil
}

func (p *paymobProvider) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	return p.do(req, out)
}

func (p *paymobProvider) do(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	return errors.Wrap(decoder.Decode(out), "failed to decode response body")
}
