package razorpay

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
)

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test" || pass != "secret" {
			t.Errorf("basic auth = %s %s %v", user, pass, ok)
		}
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Amount != 50000 || req.Currency != "INR" || req.Receipt != "listing-1" {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_1","amount":50000,"currency":"INR","receipt":"listing-1","status":"created"}`))
	}))
	defer server.Close()

	g := NewGateway(resty.New().SetBaseURL(server.URL), "rzp_test", "secret")
	order, err := g.CreateOrder(context.Background(), 50000, "INR", "listing-1", nil)
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.ID != "order_1" || order.Status != "created" {
		t.Errorf("CreateOrder() = %+v", order)
	}
}

func TestCreateOrderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer server.Close()

	g := NewGateway(resty.New().SetBaseURL(server.URL), "k", "s")
	_, err := g.CreateOrder(context.Background(), 1, "INR", "r", nil)
	if err == nil || !strings.Contains(err.Error(), "amount too small") {
		t.Errorf("CreateOrder() error = %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	g := NewGateway(nil, "k", "secret")
	valid := hex.EncodeToString(Sign("secret", "order_1", "pay_1"))
	tests := []struct {
		name      string
		paymentID string
		signature string
		want      bool
	}{
		{"valid", "pay_1", valid, true},
		{"wrong payment", "pay_2", valid, false},
		{"not hex", "pay_1", "zz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.VerifySignature("order_1", tt.paymentID, tt.signature); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
