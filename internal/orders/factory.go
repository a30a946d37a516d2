package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xtrntr/p2pdesk/internal/models"
)

const (
	fiatScale   = 2
	cryptoScale = 8
)

// FeeQuoter prices the platform fee for a fiat amount.
type FeeQuoter interface {
	Quote(amount decimal.Decimal) decimal.Decimal
}

// Request is what a user submits to open an order against an ad. When both
// amounts are set the fiat amount wins and crypto is derived from it.
type Request struct {
	BuyerID        string
	FiatAmount     decimal.NullDecimal
	CryptoAmount   decimal.NullDecimal
	PaymentMethod  models.PaymentMethod
	AccountDetails string
}

// Factory validates requests and builds new orders.
type Factory struct {
	Fees  FeeQuoter
	Now   func() time.Time
	NewID func() string
}

// NewFactory creates a factory using wall-clock time and random ids.
func NewFactory(fees FeeQuoter) *Factory {
	return &Factory{
		Fees:  fees,
		Now:   time.Now,
		NewID: func() string { return "order-" + uuid.NewString() },
	}
}

// New validates req against ad and returns an order in pending_payment.
func (f *Factory) New(ad *models.Ad, req Request) (*models.Order, error) {
	if !ad.UnitPrice.IsPositive() {
		return nil, invalid(InvalidAmount, "ad %s has no valid price", ad.ID)
	}

	fiat, crypto, err := deriveAmounts(ad.UnitPrice, req)
	if err != nil {
		return nil, err
	}

	if fiat.LessThan(ad.MinLimit) || fiat.GreaterThan(ad.MaxLimit) {
		return nil, invalid(OutOfRange, "amount must be between %s and %s %s",
			ad.MinLimit, ad.MaxLimit, ad.FiatCurrency)
	}
	if crypto.GreaterThan(ad.AvailableQuantity) {
		return nil, invalid(InsufficientAvailability, "only %s %s available",
			ad.AvailableQuantity, ad.CryptoCurrency)
	}
	if !ad.Accepts(req.PaymentMethod) {
		return nil, invalid(UnsupportedPaymentMethod, "payment method %q not accepted by this ad", req.PaymentMethod)
	}
	details := strings.TrimSpace(req.AccountDetails)
	if details == "" {
		return nil, invalid(MissingAccountDetails, "account details are required to receive funds")
	}
	if req.BuyerID == ad.OwnerID {
		return nil, invalid(SelfTrade, "cannot open an order against your own ad")
	}

	now := f.Now().UTC()
	fee := decimal.Zero
	if f.Fees != nil {
		fee = f.Fees.Quote(fiat)
	}

	return &models.Order{
		ID:                   f.NewID(),
		AdID:                 ad.ID,
		BuyerID:              req.BuyerID,
		CounterpartyID:       ad.OwnerID,
		CryptoCurrency:       ad.CryptoCurrency,
		FiatCurrency:         ad.FiatCurrency,
		CryptoAmount:         crypto,
		FiatAmount:           fiat,
		UnitPrice:            ad.UnitPrice,
		Fee:                  fee,
		Status:               models.StatusPendingPayment,
		PaymentMethod:        req.PaymentMethod,
		PaymentWindowMinutes: ad.PaymentWindowMinutes,
		AccountDetails:       details,
		CreatedAt:            now,
		ExpiresAt:            now.Add(ad.PaymentWindow()),
	}, nil
}

// deriveAmounts fills in whichever side of fiat = crypto * price is missing.
func deriveAmounts(price decimal.Decimal, req Request) (fiat, crypto decimal.Decimal, err error) {
	switch {
	case req.FiatAmount.Valid:
		fiat = req.FiatAmount.Decimal.Round(fiatScale)
		if !fiat.IsPositive() {
			return fiat, crypto, invalid(InvalidAmount, "please enter a valid amount")
		}
		crypto = fiat.DivRound(price, cryptoScale)
	case req.CryptoAmount.Valid:
		crypto = req.CryptoAmount.Decimal.Round(cryptoScale)
		if !crypto.IsPositive() {
			return fiat, crypto, invalid(InvalidAmount, "please enter a valid amount")
		}
		fiat = crypto.Mul(price).Round(fiatScale)
	default:
		return fiat, crypto, invalid(InvalidAmount, "fiat_amount or crypto_amount is required")
	}
	if !crypto.IsPositive() {
		return fiat, crypto, invalid(InvalidAmount, "amount is too small for price %s", price)
	}
	return fiat, crypto, nil
}
