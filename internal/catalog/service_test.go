package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/models"
)

func newSeededService(t *testing.T) (*Service, *events.Subscription) {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, Seed(context.Background(), store))
	hub := events.NewHub(16, zerolog.Nop())
	sub := hub.Subscribe()
	svc := NewService(store, hub, zerolog.Nop())
	svc.Now = func() time.Time { return seedTime.Add(time.Hour) }
	svc.NewID = func() string { return "ad-new" }
	return svc, sub
}

func newAd() models.Ad {
	return models.Ad{
		Direction:         models.DirectionSell,
		CryptoCurrency:    " usdc ",
		FiatCurrency:      "ngn",
		UnitPrice:         dec("1500"),
		AvailableQuantity: dec("100"),
		MinLimit:          dec("10000"),
		MaxLimit:          dec("150000"),
		PaymentMethods:    []models.PaymentMethod{models.PaymentBankTransfer, models.PaymentBankTransfer},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestService_CreateAd(t *testing.T) {
	svc, sub := newSeededService(t)

	ad, err := svc.CreateAd(context.Background(), "trader1", newAd())
	require.NoError(t, err)
	assert.Equal(t, "ad-new", ad.ID)
	assert.Equal(t, "trader1", ad.OwnerID)
	assert.Equal(t, "USDC", ad.CryptoCurrency)
	assert.Equal(t, "NGN", ad.FiatCurrency)
	assert.Equal(t, DefaultPaymentWindow, ad.PaymentWindowMinutes)
	assert.Equal(t, []models.PaymentMethod{models.PaymentBankTransfer}, ad.PaymentMethods)

	ev := <-sub.C
	assert.Equal(t, events.AdCreated, ev.Type)

	mine, err := svc.ListByOwner(context.Background(), "trader1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ad-new", "ad1", "ad6"}, ids(mine))
}

func TestService_CreateAdValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(ad *models.Ad)
	}{
		{"BadDirection", func(ad *models.Ad) { ad.Direction = "hold" }},
		{"MissingFiat", func(ad *models.Ad) { ad.FiatCurrency = "" }},
		{"ZeroPrice", func(ad *models.Ad) { ad.UnitPrice = dec("0") }},
		{"NegativeAvailable", func(ad *models.Ad) { ad.AvailableQuantity = dec("-1") }},
		{"MinAboveMax", func(ad *models.Ad) { ad.MinLimit = dec("200000") }},
		{"MaxAboveCapacity", func(ad *models.Ad) { ad.MaxLimit = dec("150000.01") }},
		{"NoPaymentMethods", func(ad *models.Ad) { ad.PaymentMethods = nil }},
		{"UnknownPaymentMethod", func(ad *models.Ad) { ad.PaymentMethods = []models.PaymentMethod{"Cash"} }},
		{"NegativeWindow", func(ad *models.Ad) { ad.PaymentWindowMinutes = -5 }},
		{"WindowOverOneDay", func(ad *models.Ad) { ad.PaymentWindowMinutes = MaxPaymentWindow + 1 }},
		{"WindowOverflowsDuration", func(ad *models.Ad) { ad.PaymentWindowMinutes = 200000000 }},
		{"LongCurrencyCode", func(ad *models.Ad) { ad.CryptoCurrency = "ABCDEFGHIJKLMNOPQ" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newSeededService(t)
			ad := newAd()
			tt.modify(&ad)
			_, err := svc.CreateAd(context.Background(), "trader1", ad)
			assert.True(t, errors.Is(err, ErrInvalidAd), "got %v", err)
		})
	}
}

func TestService_CreateAdMaxWindow(t *testing.T) {
	svc, _ := newSeededService(t)
	ad := newAd()
	ad.PaymentWindowMinutes = MaxPaymentWindow

	created, err := svc.CreateAd(context.Background(), "trader1", ad)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, created.PaymentWindow())
}

type gateFunc func(traderID string) error

func (f gateFunc) CanPublish(ctx context.Context, traderID string) error {
	return f(traderID)
}

func TestService_CreateAdGate(t *testing.T) {
	errDenied := errors.New("denied")
	svc, sub := newSeededService(t)
	svc.Gate = gateFunc(func(traderID string) error {
		if traderID == "trader1" {
			return nil
		}
		return errDenied
	})

	_, err := svc.CreateAd(context.Background(), "trader2", newAd())
	assert.ErrorIs(t, err, errDenied)
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}

	_, err = svc.CreateAd(context.Background(), "trader1", newAd())
	assert.NoError(t, err)
}

func TestService_CreateAdUnknownOwner(t *testing.T) {
	svc, _ := newSeededService(t)
	_, err := svc.CreateAd(context.Background(), "ghost", newAd())
	assert.ErrorIs(t, err, ErrTraderNotFound)
}

func TestService_DeleteAd(t *testing.T) {
	svc, sub := newSeededService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteAd(ctx, "ad1", "trader2"), ErrNotOwner)
	assert.ErrorIs(t, svc.DeleteAd(ctx, "missing", "trader1"), ErrAdNotFound)

	require.NoError(t, svc.DeleteAd(ctx, "ad1", "trader1"))
	assert.Equal(t, events.AdDeleted, (<-sub.C).Type)

	_, err := svc.GetAd(ctx, "ad1")
	assert.ErrorIs(t, err, ErrAdNotFound)
}

func TestService_Search(t *testing.T) {
	svc, _ := newSeededService(t)
	got, err := svc.Search(context.Background(), Query{Side: models.DirectionBuy, CryptoCurrency: "CNGN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ad3", "ad10"}, ids(got))
}

func TestSeed_Idempotent(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, Seed(context.Background(), store))
	require.NoError(t, Seed(context.Background(), store))

	traders, err := store.ListTraders(context.Background())
	require.NoError(t, err)
	assert.Len(t, traders, 5)

	ads, err := store.ListAds(context.Background())
	require.NoError(t, err)
	assert.Len(t, ads, 10)
}
