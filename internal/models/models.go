package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side an ad owner trades on
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// Opposite returns the side a taker trades on against an ad of direction d
func (d Direction) Opposite() Direction {
	if d == DirectionBuy {
		return DirectionSell
	}
	return DirectionBuy
}

// PaymentMethod is a fiat payment rail accepted by an ad
type PaymentMethod string

const (
	PaymentBankTransfer  PaymentMethod = "Bank Transfer"
	PaymentMobileMoney   PaymentMethod = "Mobile Money"
	PaymentAlipay        PaymentMethod = "Alipay"
	PaymentCustomAccount PaymentMethod = "Custom Account"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentBankTransfer, PaymentMobileMoney, PaymentAlipay, PaymentCustomAccount:
		return true
	}
	return false
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPendingPayment  OrderStatus = "pending_payment"
	StatusAwaitingRelease OrderStatus = "awaiting_release"
	StatusCompleted       OrderStatus = "completed"
	StatusCancelled       OrderStatus = "cancelled"
	StatusDisputed        OrderStatus = "disputed"
)

// Terminal reports whether no further transition leaves s
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusDisputed
}

// Trader is a registered merchant/trader profile
type Trader struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"display_name"`
	PasswordHash   string    `json:"-"`
	Rating         int       `json:"rating"` // 0-100
	TotalTrades    int       `json:"total_trades"`
	CompletionRate int       `json:"completion_rate"` // 0-100
	Verified       bool      `json:"verified"`
	Country        string    `json:"country"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ad is a standing offer to buy or sell crypto at a stated price
type Ad struct {
	ID                   string          `json:"id"`
	OwnerID              string          `json:"owner_id"`
	Direction            Direction       `json:"direction"`
	CryptoCurrency       string          `json:"crypto_currency"`
	FiatCurrency         string          `json:"fiat_currency"`
	UnitPrice            decimal.Decimal `json:"unit_price"`         // fiat per crypto unit
	AvailableQuantity    decimal.Decimal `json:"available_quantity"` // crypto units
	MinLimit             decimal.Decimal `json:"min_limit"`          // fiat
	MaxLimit             decimal.Decimal `json:"max_limit"`          // fiat
	PaymentMethods       []PaymentMethod `json:"payment_methods"`
	PaymentWindowMinutes int             `json:"payment_window_minutes"`
	Instructions         string          `json:"instructions,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Accepts reports whether the ad allows payment method m
func (a *Ad) Accepts(m PaymentMethod) bool {
	for _, pm := range a.PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// PaymentWindow returns the payment window as a duration
func (a *Ad) PaymentWindow() time.Duration {
	return time.Duration(a.PaymentWindowMinutes) * time.Minute
}

// Order is a single trade opened against an ad
type Order struct {
	ID                   string          `json:"id"`
	AdID                 string          `json:"ad_id"`
	BuyerID              string          `json:"buyer_id"`        // user who opened the order
	CounterpartyID       string          `json:"counterparty_id"` // ad owner
	CryptoCurrency       string          `json:"crypto_currency"`
	FiatCurrency         string          `json:"fiat_currency"`
	CryptoAmount         decimal.Decimal `json:"crypto_amount"`
	FiatAmount           decimal.Decimal `json:"fiat_amount"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	Fee                  decimal.Decimal `json:"fee"`
	Status               OrderStatus     `json:"status"`
	PaymentMethod        PaymentMethod   `json:"payment_method"`
	PaymentWindowMinutes int             `json:"payment_window_minutes"`
	AccountDetails       string          `json:"account_details,omitempty"`
	CancelReason         string          `json:"cancel_reason,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	ExpiresAt            time.Time       `json:"expires_at"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
	ReleasedAt           *time.Time      `json:"released_at,omitempty"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	CancelledAt          *time.Time      `json:"cancelled_at,omitempty"`
	DisputedAt           *time.Time      `json:"disputed_at,omitempty"`
}

// Participant reports whether userID is one of the two sides of the order
func (o *Order) Participant(userID string) bool {
	return userID != "" && (o.BuyerID == userID || o.CounterpartyID == userID)
}

// Expired reports whether a pending order has passed its payment window
func (o *Order) Expired(now time.Time) bool {
	return o.Status == StatusPendingPayment && now.After(o.ExpiresAt)
}

// FeeConfig is the platform fee applied to P2P fiat amounts
type FeeConfig struct {
	Enabled    bool                `json:"enabled"`
	Percentage decimal.Decimal     `json:"percentage"`
	MinFee     decimal.NullDecimal `json:"min_fee"`
	MaxFee     decimal.NullDecimal `json:"max_fee"`
}
