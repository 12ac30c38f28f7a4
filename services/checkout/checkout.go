// Package checkout runs a payment through the hosted checkout popup. The
// popup is fire and forget: Open hands back an order, and the front end
// later reports Complete or Cancel.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"styleSphere/clients/razorpay"
	"styleSphere/clients/storage"
	"styleSphere/generator"
	"styleSphere/models"
)

// ReceiptsKey is the local store slot holding completed payments.
const ReceiptsKey = "receipts"

const currencyINR = "INR"

type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

var _ Gateway = (*razorpay.Gateway)(nil)

// Charge is an amount in the currency's smallest unit.
type Charge struct {
	Amount      int64
	Currency    string
	Description string
	ListingID   string
}

// ListingCharge prices a marketplace listing. Listing prices are whole
// rupees; the gateway expects paise.
func ListingCharge(l models.Listing) Charge {
	return Charge{
		Amount:      l.Price * 100,
		Currency:    currencyINR,
		Description: l.Name,
		ListingID:   l.ID,
	}
}

// Pending is what the popup needs to open.
type Pending struct {
	OrderID     string `json:"orderId"`
	KeyID       string `json:"keyId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type Service interface {
	Open(ctx context.Context, charge Charge, onSuccess func(models.Receipt), onCancel func()) (*Pending, error)
	Complete(ctx context.Context, orderID, paymentID, signature string) (*models.Receipt, error)
	Cancel(orderID string) error
	Receipts() ([]models.Receipt, error)
}

type order struct {
	charge    Charge
	onSuccess func(models.Receipt)
	onCancel  func()
}

type service struct {
	gateway Gateway
	local   storage.Store
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]order
}

var _ Service = (*service)(nil)

// NewService builds checkout. A nil gateway disables payments.
func NewService(gateway Gateway, local storage.Store) Service {
	return &service{
		gateway: gateway,
		local:   local,
		now:     time.Now,
		pending: map[string]order{},
	}
}

func (s *service) Open(ctx context.Context, charge Charge, onSuccess func(models.Receipt), onCancel func()) (*Pending, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("payments are not configured: %w", models.ErrNoIdentity)
	}
	if charge.Amount <= 0 {
		return nil, models.Invalid("amount must be positive")
	}
	if charge.Currency == "" {
		charge.Currency = currencyINR
	}
	notes := map[string]string{}
	if charge.ListingID != "" {
		notes["listingId"] = charge.ListingID
	}
	o, err := s.gateway.CreateOrder(ctx, charge.Amount, charge.Currency, generator.ReceiptID(), notes)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkout: %w", err)
	}

	s.mu.Lock()
	s.pending[o.ID] = order{charge: charge, onSuccess: onSuccess, onCancel: onCancel}
	s.mu.Unlock()

	return &Pending{
		OrderID:     o.ID,
		KeyID:       s.gateway.KeyID(),
		Amount:      charge.Amount,
		Currency:    charge.Currency,
		Description: charge.Description,
	}, nil
}

func (s *service) take(orderID string) (order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.pending[orderID]
	if !ok {
		return order{}, fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
	}
	delete(s.pending, orderID)
	return o, nil
}

func (s *service) Complete(ctx context.Context, orderID, paymentID, signature string) (*models.Receipt, error) {
	s.mu.Lock()
	_, ok := s.pending[orderID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
	}
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		slog.Warn("payment signature mismatch", "orderId", orderID)
		return nil, models.Invalid("payment signature does not match")
	}
	o, err := s.take(orderID)
	if err != nil {
		return nil, err
	}

	receipt := models.Receipt{
		OrderID:     orderID,
		PaymentID:   paymentID,
		ListingID:   o.charge.ListingID,
		Amount:      o.charge.Amount,
		Currency:    o.charge.Currency,
		Description: o.charge.Description,
		PaidAt:      s.now(),
	}
	if err := s.record(receipt); err != nil {
		slog.With("error", err.Error()).Error("payment succeeded but receipt was not saved", "orderId", orderID)
	}
	if o.onSuccess != nil {
		o.onSuccess(receipt)
	}
	return &receipt, nil
}

func (s *service) record(receipt models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var receipts []models.Receipt
	if _, err := storage.LoadJSON(s.local, ReceiptsKey, &receipts); err != nil {
		return err
	}
	receipts = append([]models.Receipt{receipt}, receipts...)
	return storage.SaveJSON(s.local, ReceiptsKey, receipts)
}

func (s *service) Cancel(orderID string) error {
	o, err := s.take(orderID)
	if err != nil {
		return err
	}
	if o.onCancel != nil {
		o.onCancel()
	}
	return nil
}

func (s *service) Receipts() ([]models.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	receipts := []models.Receipt{}
	if _, err := storage.LoadJSON(s.local, ReceiptsKey, &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}
