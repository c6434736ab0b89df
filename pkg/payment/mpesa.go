package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MpesaProvider implements M-Pesa STK push via the card API gateway.
type MpesaProvider struct {
	BaseURL     string
	Email       string
	Password    string
	WebhookBase string
	client      *http.Client
}

func NewMpesaProvider(baseURL, email, password, webhookBase string) *MpesaProvider {
	return &MpesaProvider{
		BaseURL:     baseURL,
		Email:       email,
		Password:    password,
		WebhookBase: webhookBase,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string `json:"token"`
}

// getToken logs in and returns a fresh token (per transaction as the gateway recommends).
func (p *MpesaProvider) getToken(ctx context.Context) (string, error) {
	body, _ := json.Marshal(loginReq{Email: p.Email, Password: p.Password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1/merchants/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %d", resp.StatusCode)
	}
	var out loginResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

type stkReq struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	CustomerPhone string `json:"customer_phone"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CallbackURL   string `json:"callback_url"`
	OrderID       string `json:"order_id"`
}

type stkResp struct {
	UUID                string `json:"uuid"`
	OrderID             string `json:"order_id"`
	MerchantOrderID     string `json:"merchant_order_id"`
	CheckoutRequestID   string `json:"checkout_request_id"`
	Status              string `json:"status"`
	ResponseCode        string `json:"response_code"`
	ResponseDescription string `json:"response_description"`
}

func (p *MpesaProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("mpesa login: %w", err)
	}
	callbackURL := req.CallbackURL
	if callbackURL == "" && p.WebhookBase != "" {
		callbackURL = p.WebhookBase + "/api/v1/webhooks/mpesa"
	}
	// Amount is whole currency units; cents round down with a floor of 1.
	amountStr := strconv.FormatInt(req.AmountCents/100, 10)
	if req.AmountCents < 100 && req.AmountCents > 0 {
		amountStr = "1"
	}
	currency := req.Currency
	if currency == "" {
		currency = "KES"
	}
	payload := stkReq{
		Amount:        amountStr,
		Currency:      currency,
		Description:   req.Description,
		CustomerPhone: req.CustomerPhone,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CallbackURL:   callbackURL,
		OrderID:       req.OrderID,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1/transactions/mpesa", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+token)
	log.Printf("[Mpesa] POST %s/transactions/mpesa order_id=%s", p.BaseURL, req.OrderID)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("mpesa stk: %d", resp.StatusCode)
	}
	var out stkResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &PaymentResponse{
		Reference:         req.OrderID,
		Status:            out.Status,
		CheckoutRequestID: out.CheckoutRequestID,
		ExpiresAt:         time.Now().Add(10 * time.Minute),
	}, nil
}

// NormalizePhone canonicalizes a Kenyan MSISDN to 2547XXXXXXXX, returning ""
// when the input cannot be a valid number.
func NormalizePhone(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}
	if strings.HasPrefix(d, "0") {
		d = "254" + d[1:]
	} else if !strings.HasPrefix(d, "254") {
		d = "254" + d
	}
	if len(d) != 12 {
		return ""
	}
	return d
}
