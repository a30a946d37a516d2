package orders

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtrntr/p2pdesk/internal/models"
)

var testNow = time.Date(2024, 10, 5, 10, 30, 0, 0, time.UTC)

type flatFee decimal.Decimal

func (f flatFee) Quote(amount decimal.Decimal) decimal.Decimal {
	return decimal.Decimal(f)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func testAd() *models.Ad {
	return &models.Ad{
		ID:                   "ad1",
		OwnerID:              "trader1",
		Direction:            models.DirectionSell,
		CryptoCurrency:       "USDC",
		FiatCurrency:         "USD",
		UnitPrice:            dec("1.02"),
		AvailableQuantity:    dec("5000"),
		MinLimit:             dec("100"),
		MaxLimit:             dec("2000"),
		PaymentMethods:       []models.PaymentMethod{models.PaymentBankTransfer, models.PaymentMobileMoney},
		PaymentWindowMinutes: 15,
	}
}

func testFactory() *Factory {
	n := 0
	return &Factory{
		Fees: flatFee(dec("1.5")),
		Now:  func() time.Time { return testNow },
		NewID: func() string {
			n++
			return "order-" + string(rune('0'+n))
		},
	}
}

func validRequest() Request {
	return Request{
		BuyerID:        "buyer1",
		FiatAmount:     amount("500"),
		PaymentMethod:  models.PaymentBankTransfer,
		AccountDetails: "0xabc123",
	}
}

func TestFactory_New(t *testing.T) {
	order, err := testFactory().New(testAd(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, models.StatusPendingPayment, order.Status)
	assert.Equal(t, "ad1", order.AdID)
	assert.Equal(t, "buyer1", order.BuyerID)
	assert.Equal(t, "trader1", order.CounterpartyID)
	assert.True(t, dec("500").Equal(order.FiatAmount))
	assert.True(t, dec("490.19607843").Equal(order.CryptoAmount), "got %s", order.CryptoAmount)
	assert.True(t, dec("1.02").Equal(order.UnitPrice))
	assert.True(t, dec("1.5").Equal(order.Fee))
	assert.Equal(t, testNow, order.CreatedAt)
	assert.Equal(t, testNow.Add(15*time.Minute), order.ExpiresAt)
	assert.Equal(t, 15, order.PaymentWindowMinutes)
	assert.Nil(t, order.PaidAt)
}

func TestFactory_NewFromCryptoAmount(t *testing.T) {
	req := validRequest()
	req.FiatAmount = decimal.NullDecimal{}
	req.CryptoAmount = amount("200")

	order, err := testFactory().New(testAd(), req)
	require.NoError(t, err)
	assert.True(t, dec("204").Equal(order.FiatAmount), "got %s", order.FiatAmount)
	assert.True(t, dec("200").Equal(order.CryptoAmount))
}

func TestFactory_NewWithBothAmounts(t *testing.T) {
	req := validRequest()
	req.CryptoAmount = amount("1")

	order, err := testFactory().New(testAd(), req)
	require.NoError(t, err)
	assert.True(t, dec("500").Equal(order.FiatAmount), "fiat amount wins")
	assert.True(t, dec("490.19607843").Equal(order.CryptoAmount), "got %s", order.CryptoAmount)
}

func TestFactory_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Request)
		want   ValidationKind
	}{
		{
			name:   "BelowMinLimit",
			modify: func(r *Request) { r.FiatAmount = amount("50") },
			want:   OutOfRange,
		},
		{
			name:   "AboveMaxLimit",
			modify: func(r *Request) { r.FiatAmount = amount("2000.01") },
			want:   OutOfRange,
		},
		{
			name:   "NoAmount",
			modify: func(r *Request) { r.FiatAmount = decimal.NullDecimal{} },
			want:   InvalidAmount,
		},
		{
			name:   "NegativeAmount",
			modify: func(r *Request) { r.FiatAmount = amount("-10") },
			want:   InvalidAmount,
		},
		{
			name:   "UnsupportedPaymentMethod",
			modify: func(r *Request) { r.PaymentMethod = models.PaymentAlipay },
			want:   UnsupportedPaymentMethod,
		},
		{
			name:   "MissingAccountDetails",
			modify: func(r *Request) { r.AccountDetails = "   " },
			want:   MissingAccountDetails,
		},
		{
			name:   "SelfTrade",
			modify: func(r *Request) { r.BuyerID = "trader1" },
			want:   SelfTrade,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)
			order, err := testFactory().New(testAd(), req)
			assert.Nil(t, order)
			assert.Equal(t, tt.want, KindOf(err), "err: %v", err)
		})
	}
}

func TestFactory_InsufficientAvailability(t *testing.T) {
	ad := testAd()
	ad.AvailableQuantity = dec("100")

	_, err := testFactory().New(ad, validRequest())
	assert.Equal(t, InsufficientAvailability, KindOf(err))
}

func TestFactory_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("created orders respect limits and price", prop.ForAll(
		func(fiat float64, price float64) bool {
			ad := testAd()
			ad.UnitPrice = decimal.NewFromFloat(price).Round(4)
			ad.AvailableQuantity = dec("1000000000")
			ad.MinLimit = dec("100")
			ad.MaxLimit = dec("50000")

			req := validRequest()
			req.FiatAmount = decimal.NewNullDecimal(decimal.NewFromFloat(fiat))

			order, err := testFactory().New(ad, req)
			if err != nil {
				return KindOf(err) == OutOfRange
			}
			if order.FiatAmount.LessThan(ad.MinLimit) || order.FiatAmount.GreaterThan(ad.MaxLimit) {
				return false
			}
			diff := order.CryptoAmount.Mul(order.UnitPrice).Sub(order.FiatAmount).Abs()
			return diff.LessThanOrEqual(dec("0.01")) && order.Status == models.StatusPendingPayment
		},
		gen.Float64Range(1, 100000),
		gen.Float64Range(0.01, 1000),
	))

	properties.TestingRun(t)
}
