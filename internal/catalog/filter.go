package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/p2pdesk/internal/models"
)

// SortKey orders filtered ads.
type SortKey string

const (
	SortPrice  SortKey = "price"
	SortRating SortKey = "rating"
)

// Query selects ads for a taker. Zero fields match everything.
type Query struct {
	// Side is the taker's side. A taker buying is shown sell ads.
	Side           models.Direction
	CryptoCurrency string
	FiatCurrency   string
	PaymentMethod  models.PaymentMethod
	MinPrice       decimal.NullDecimal
	MaxPrice       decimal.NullDecimal
	VerifiedOnly   bool
	// MinAmount drops ads whose min_limit is above it.
	MinAmount decimal.NullDecimal
	Country   string
	Sort      SortKey
}

// Filter returns the ads matching q in a deterministic order. ads and
// traders are not modified.
func Filter(ads []models.Ad, traders map[string]models.Trader, q Query) []models.Ad {
	out := make([]models.Ad, 0, len(ads))
	for _, ad := range ads {
		if q.match(&ad, traders) {
			out = append(out, ad)
		}
	}

	switch q.Sort {
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := traders[out[i].OwnerID].Rating, traders[out[j].OwnerID].Rating
			if ri == rj {
				return out[i].ID < out[j].ID
			}
			return ri > rj
		})
	default:
		// Best price first: cheapest sell ad for a buying taker, highest
		// buy ad for a selling taker.
		descending := q.Side == models.DirectionSell
		sort.SliceStable(out, func(i, j int) bool {
			c := out[i].UnitPrice.Cmp(out[j].UnitPrice)
			if c == 0 {
				return out[i].ID < out[j].ID
			}
			if descending {
				return c > 0
			}
			return c < 0
		})
	}
	return out
}

func (q Query) match(ad *models.Ad, traders map[string]models.Trader) bool {
	if q.Side != "" && ad.Direction != q.Side.Opposite() {
		return false
	}
	if q.CryptoCurrency != "" && !strings.EqualFold(ad.CryptoCurrency, q.CryptoCurrency) {
		return false
	}
	if q.FiatCurrency != "" && !strings.EqualFold(ad.FiatCurrency, q.FiatCurrency) {
		return false
	}
	if q.PaymentMethod != "" && !ad.Accepts(q.PaymentMethod) {
		return false
	}
	if q.MinPrice.Valid && ad.UnitPrice.LessThan(q.MinPrice.Decimal) {
		return false
	}
	if q.MaxPrice.Valid && ad.UnitPrice.GreaterThan(q.MaxPrice.Decimal) {
		return false
	}
	if q.MinAmount.Valid && q.MinAmount.Decimal.IsPositive() && ad.MinLimit.GreaterThan(q.MinAmount.Decimal) {
		return false
	}
	if q.VerifiedOnly || q.Country != "" {
		trader, ok := traders[ad.OwnerID]
		if !ok {
			return false
		}
		if q.VerifiedOnly && !trader.Verified {
			return false
		}
		if q.Country != "" && !strings.EqualFold(trader.Country, q.Country) {
			return false
		}
	}
	return true
}
