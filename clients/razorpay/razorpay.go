// Package razorpay creates checkout orders and verifies the signature the
// checkout popup hands back after a successful payment.
package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
)

const BaseURL = "https://api.razorpay.com"

type Gateway struct {
	http      *resty.Client
	keyID     string
	keySecret string
}

func NewClient() *resty.Client {
	return resty.New().SetBaseURL(BaseURL)
}

func NewGateway(http *resty.Client, keyID, keySecret string) *Gateway {
	return &Gateway{
		http:      http,
		keyID:     keyID,
		keySecret: keySecret,
	}
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type APIError struct {
	Detail struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Detail.Code, e.Detail.Description)
}

// KeyID is the public key the checkout popup is opened with.
func (g *Gateway) KeyID() string {
	return g.keyID
}

// CreateOrder registers an order for amount, expressed in the currency's
// smallest unit.
func (g *Gateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error) {
	order := &Order{}
	responseError := &APIError{}
	resp, err := g.http.R().
		SetContext(ctx).
		SetBasicAuth(g.keyID, g.keySecret).
		SetHeader("Content-Type", "application/json").
		SetBody(orderRequest{
			Amount:   amount,
			Currency: currency,
			Receipt:  receipt,
			Notes:    notes,
		}).
		SetResult(order).
		SetError(responseError).
		Post("/v1/orders")
	if err != nil {
		slog.With("error", err.Error()).Error("Error creating checkout order")
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("error creating checkout order: %w", responseError)
	}
	return order, nil
}

// VerifySignature checks the HMAC-SHA256 of "orderID|paymentID" against the
// signature returned by the checkout popup.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, Sign(g.keySecret, orderID, paymentID))
}

// Sign computes the raw payment signature.
func Sign(secret, orderID, paymentID string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return mac.Sum(nil)
}
