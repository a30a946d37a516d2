package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/p2pdesk/internal/models"
)

var seedTime = time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)

// SeedTraders is the starting trader directory.
func SeedTraders() []models.Trader {
	return []models.Trader{
		{ID: "trader1", DisplayName: "CryptoKing", Rating: 98, TotalTrades: 1247, CompletionRate: 99, Verified: true, Country: "US", CreatedAt: seedTime},
		{ID: "trader2", DisplayName: "FiatMaster", Rating: 95, TotalTrades: 856, CompletionRate: 97, Verified: true, Country: "US", CreatedAt: seedTime},
		{ID: "trader3", DisplayName: "SwapWizard", Rating: 92, TotalTrades: 543, CompletionRate: 95, Verified: true, Country: "CN", CreatedAt: seedTime},
		{ID: "trader4", DisplayName: "QuickTrade", Rating: 88, TotalTrades: 324, CompletionRate: 93, Verified: false, Country: "GH", CreatedAt: seedTime},
		{ID: "trader5", DisplayName: "P2PExpert", Rating: 97, TotalTrades: 2103, CompletionRate: 98, Verified: true, Country: "CM", CreatedAt: seedTime},
	}
}

func seedAd(id, owner string, dir models.Direction, crypto, fiat, price, available, min, max string, window int, instructions string, methods ...models.PaymentMethod) models.Ad {
	return models.Ad{
		ID:                   id,
		OwnerID:              owner,
		Direction:            dir,
		CryptoCurrency:       crypto,
		FiatCurrency:         fiat,
		UnitPrice:            decimal.RequireFromString(price),
		AvailableQuantity:    decimal.RequireFromString(available),
		MinLimit:             decimal.RequireFromString(min),
		MaxLimit:             decimal.RequireFromString(max),
		PaymentMethods:       methods,
		PaymentWindowMinutes: window,
		Instructions:         instructions,
		CreatedAt:            seedTime,
	}
}

// SeedAds is the starting ad catalog. Some seeded ads predate the
// max limit check in CreateAd and are stored as-is.
func SeedAds() []models.Ad {
	bank, mobile := models.PaymentBankTransfer, models.PaymentMobileMoney
	buy, sell := models.DirectionBuy, models.DirectionSell
	return []models.Ad{
		seedAd("ad1", "trader1", sell, "USDC", "USD", "1.02", "5000", "100", "2000", 15, "Please include order ID in payment reference.", bank, mobile),
		seedAd("ad2", "trader2", buy, "USDC", "USD", "0.98", "3000", "50", "1500", 30, "", bank),
		seedAd("ad3", "trader3", sell, "CNGN", "RMB", "0.12", "50000", "500", "5000", 15, "WeChat Pay accepted. Fast release after confirmation.", bank, mobile),
		seedAd("ad4", "trader4", sell, "USDC", "GHS", "15.8", "2000", "200", "1000", 30, "", mobile),
		seedAd("ad5", "trader5", buy, "USDC", "XAF", "620", "8000", "5000", "50000", 15, "", bank),
		seedAd("ad6", "trader1", sell, "USDC", "XOF", "625", "4000", "3000", "30000", 30, "", bank, mobile),
		seedAd("ad7", "trader3", buy, "USDC", "RMB", "7.15", "10000", "1000", "10000", 20, "Buying USDC with RMB. Alipay or WeChat Pay.", bank),
		seedAd("ad8", "trader2", buy, "USDC", "GHS", "15.5", "5000", "200", "2000", 25, "Buying USDC. Mobile Money preferred for faster payment.", mobile, bank),
		seedAd("ad9", "trader4", buy, "CNGN", "USD", "0.0012", "100000", "100", "5000", 15, "I buy CNGN. Quick payment guaranteed.", bank, mobile),
		seedAd("ad10", "trader5", sell, "CNGN", "RMB", "0.125", "40000", "500", "8000", 20, "", bank),
	}
}

// Seed loads the starting traders and ads into store. Existing traders are
// left untouched.
func Seed(ctx context.Context, store Store) error {
	for _, t := range SeedTraders() {
		if err := store.CreateTrader(ctx, &t); err != nil && !errors.Is(err, ErrTraderExists) {
			return fmt.Errorf("failed to seed trader %s: %w", t.ID, err)
		}
	}
	for _, ad := range SeedAds() {
		if err := store.PutAd(ctx, &ad); err != nil {
			return fmt.Errorf("failed to seed ad %s: %w", ad.ID, err)
		}
	}
	return nil
}
