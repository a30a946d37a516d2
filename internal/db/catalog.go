package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xtrntr/p2pdesk/internal/catalog"
	"github.com/xtrntr/p2pdesk/internal/models"
)

// CatalogStore implements catalog.Store on PostgreSQL
type CatalogStore struct {
	db *DB
}

var _ catalog.Store = (*CatalogStore)(nil)

const adColumns = `id, owner_id, direction, crypto_currency, fiat_currency, unit_price,
	available_quantity, min_limit, max_limit, payment_methods, payment_window_minutes,
	instructions, created_at`

const traderColumns = `id, display_name, password_hash, rating, total_trades, completion_rate,
	verified, country, created_at`

func scanAd(row pgx.Row, ad *models.Ad) error {
	var methods []string
	err := row.Scan(
		&ad.ID, &ad.OwnerID, &ad.Direction, &ad.CryptoCurrency, &ad.FiatCurrency, &ad.UnitPrice,
		&ad.AvailableQuantity, &ad.MinLimit, &ad.MaxLimit, &methods, &ad.PaymentWindowMinutes,
		&ad.Instructions, &ad.CreatedAt,
	)
	if err != nil {
		return err
	}
	ad.PaymentMethods = make([]models.PaymentMethod, len(methods))
	for i, m := range methods {
		ad.PaymentMethods[i] = models.PaymentMethod(m)
	}
	return nil
}

func scanTrader(row pgx.Row, t *models.Trader) error {
	return row.Scan(
		&t.ID, &t.DisplayName, &t.PasswordHash, &t.Rating, &t.TotalTrades, &t.CompletionRate,
		&t.Verified, &t.Country, &t.CreatedAt,
	)
}

// PutAd inserts or replaces an ad
func (s *CatalogStore) PutAd(ctx context.Context, ad *models.Ad) error {
	methods := make([]string, len(ad.PaymentMethods))
	for i, m := range ad.PaymentMethods {
		methods[i] = string(m)
	}
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO ads (`+adColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			direction = EXCLUDED.direction, crypto_currency = EXCLUDED.crypto_currency,
			fiat_currency = EXCLUDED.fiat_currency, unit_price = EXCLUDED.unit_price,
			available_quantity = EXCLUDED.available_quantity, min_limit = EXCLUDED.min_limit,
			max_limit = EXCLUDED.max_limit, payment_methods = EXCLUDED.payment_methods,
			payment_window_minutes = EXCLUDED.payment_window_minutes, instructions = EXCLUDED.instructions`,
		ad.ID, ad.OwnerID, ad.Direction, ad.CryptoCurrency, ad.FiatCurrency, ad.UnitPrice,
		ad.AvailableQuantity, ad.MinLimit, ad.MaxLimit, methods, ad.PaymentWindowMinutes,
		ad.Instructions, ad.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store ad: %w", err)
	}
	return nil
}

// GetAd retrieves an ad by id
func (s *CatalogStore) GetAd(ctx context.Context, id string) (*models.Ad, error) {
	ad := &models.Ad{}
	if err := scanAd(s.db.Pool.QueryRow(ctx, "SELECT "+adColumns+" FROM ads WHERE id = $1", id), ad); err != nil {
		if isNoRows(err) {
			return nil, catalog.ErrAdNotFound
		}
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	return ad, nil
}

// DeleteAd removes an ad
func (s *CatalogStore) DeleteAd(ctx context.Context, id string) error {
	tag, err := s.db.Pool.Exec(ctx, "DELETE FROM ads WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrAdNotFound
	}
	return nil
}

// ListAds retrieves every ad ordered by id
func (s *CatalogStore) ListAds(ctx context.Context) ([]models.Ad, error) {
	rows, err := s.db.Pool.Query(ctx, "SELECT "+adColumns+" FROM ads ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	defer rows.Close()

	ads := make([]models.Ad, 0)
	for rows.Next() {
		var ad models.Ad
		if err := scanAd(rows, &ad); err != nil {
			return nil, fmt.Errorf("failed to scan ad: %w", err)
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// CreateTrader inserts a new trader profile
func (s *CatalogStore) CreateTrader(ctx context.Context, t *models.Trader) error {
	_, err := s.db.Pool.Exec(ctx,
		"INSERT INTO traders ("+traderColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		t.ID, t.DisplayName, t.PasswordHash, t.Rating, t.TotalTrades, t.CompletionRate,
		t.Verified, t.Country, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrTraderExists
		}
		return fmt.Errorf("failed to create trader: %w", err)
	}
	return nil
}

// GetTrader retrieves a trader by id
func (s *CatalogStore) GetTrader(ctx context.Context, id string) (*models.Trader, error) {
	return s.getTrader(ctx, "id", id)
}

// GetTraderByName retrieves a trader by display name
func (s *CatalogStore) GetTraderByName(ctx context.Context, name string) (*models.Trader, error) {
	return s.getTrader(ctx, "display_name", name)
}

func (s *CatalogStore) getTrader(ctx context.Context, column, value string) (*models.Trader, error) {
	t := &models.Trader{}
	err := scanTrader(s.db.Pool.QueryRow(ctx, "SELECT "+traderColumns+" FROM traders WHERE "+column+" = $1", value), t)
	if err != nil {
		if isNoRows(err) {
			return nil, catalog.ErrTraderNotFound
		}
		return nil, fmt.Errorf("failed to get trader: %w", err)
	}
	return t, nil
}

// ListTraders retrieves every trader ordered by id
func (s *CatalogStore) ListTraders(ctx context.Context) ([]models.Trader, error) {
	rows, err := s.db.Pool.Query(ctx, "SELECT "+traderColumns+" FROM traders ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list traders: %w", err)
	}
	defer rows.Close()

	traders := make([]models.Trader, 0)
	for rows.Next() {
		var t models.Trader
		if err := scanTrader(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan trader: %w", err)
		}
		traders = append(traders, t)
	}
	return traders, rows.Err()
}
