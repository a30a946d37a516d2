package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/logging"
	"github.com/xtrntr/p2pdesk/internal/models"
)

// ErrInvalidAd wraps every ad validation failure.
var ErrInvalidAd = errors.New("invalid ad")

const (
	// DefaultPaymentWindow applies when an ad does not set one.
	DefaultPaymentWindow = 15
	// MaxPaymentWindow is one day, in minutes.
	MaxPaymentWindow = 24 * 60

	maxCurrencyLen = 16
)

// PublishGate decides whether a trader may post ads.
type PublishGate interface {
	CanPublish(ctx context.Context, traderID string) error
}

// Service manages the ad catalog and the trader directory.
type Service struct {
	store Store
	pub   events.Publisher
	log   zerolog.Logger

	// Gate, when set, is consulted before every new ad.
	Gate PublishGate

	Now   func() time.Time
	NewID func() string
}

func NewService(store Store, pub events.Publisher, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		pub:   pub,
		log:   logging.WithComponent(log, "catalog"),
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: func() string { return "ad-" + uuid.NewString() },
	}
}

// Search filters the whole catalog with q.
func (s *Service) Search(ctx context.Context, q Query) ([]models.Ad, error) {
	ads, err := s.store.ListAds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	traders, err := s.traderIndex(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(ads, traders, q), nil
}

// GetAd returns one ad.
func (s *Service) GetAd(ctx context.Context, id string) (*models.Ad, error) {
	return s.store.GetAd(ctx, id)
}

// ListByOwner returns the ads posted by ownerID ordered by id.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.Ad, error) {
	ads, err := s.store.ListAds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	out := make([]models.Ad, 0)
	for _, ad := range ads {
		if ad.OwnerID == ownerID {
			out = append(out, ad)
		}
	}
	return out, nil
}

// CreateAd validates ad and stores it under ownerID. ID and CreatedAt are
// assigned here.
func (s *Service) CreateAd(ctx context.Context, ownerID string, ad models.Ad) (*models.Ad, error) {
	if _, err := s.store.GetTrader(ctx, ownerID); err != nil {
		return nil, err
	}
	if s.Gate != nil {
		if err := s.Gate.CanPublish(ctx, ownerID); err != nil {
			return nil, err
		}
	}
	ad.OwnerID = ownerID
	if err := normalize(&ad); err != nil {
		return nil, err
	}
	ad.ID = s.NewID()
	ad.CreatedAt = s.Now()

	if err := s.store.PutAd(ctx, &ad); err != nil {
		s.log.Error().Err(err).Str("owner_id", ownerID).Msg("failed to store ad")
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}
	s.log.Info().
		Str("ad_id", ad.ID).
		Str("owner_id", ownerID).
		Str("pair", ad.CryptoCurrency+"/"+ad.FiatCurrency).
		Msg("ad created")
	s.pub.Publish(events.AdCreated, &ad)
	return &ad, nil
}

// DeleteAd removes an ad. Only its owner may delete it.
func (s *Service) DeleteAd(ctx context.Context, id, actor string) error {
	ad, err := s.store.GetAd(ctx, id)
	if err != nil {
		return err
	}
	if ad.OwnerID != actor {
		return ErrNotOwner
	}
	if err := s.store.DeleteAd(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("ad_id", id).Str("owner_id", actor).Msg("ad deleted")
	s.pub.Publish(events.AdDeleted, map[string]string{"id": id, "owner_id": actor})
	return nil
}

// GetTrader returns one trader profile.
func (s *Service) GetTrader(ctx context.Context, id string) (*models.Trader, error) {
	return s.store.GetTrader(ctx, id)
}

// Traders returns every trader keyed by id.
func (s *Service) Traders(ctx context.Context) (map[string]models.Trader, error) {
	return s.traderIndex(ctx)
}

func (s *Service) traderIndex(ctx context.Context) (map[string]models.Trader, error) {
	list, err := s.store.ListTraders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list traders: %w", err)
	}
	idx := make(map[string]models.Trader, len(list))
	for _, t := range list {
		idx[t.ID] = t
	}
	return idx, nil
}

func normalize(ad *models.Ad) error {
	if !ad.Direction.Valid() {
		return fmt.Errorf("%w: direction must be 'buy' or 'sell'", ErrInvalidAd)
	}
	ad.CryptoCurrency = strings.ToUpper(strings.TrimSpace(ad.CryptoCurrency))
	ad.FiatCurrency = strings.ToUpper(strings.TrimSpace(ad.FiatCurrency))
	if ad.CryptoCurrency == "" || ad.FiatCurrency == "" {
		return fmt.Errorf("%w: crypto and fiat currency are required", ErrInvalidAd)
	}
	if len(ad.CryptoCurrency) > maxCurrencyLen || len(ad.FiatCurrency) > maxCurrencyLen {
		return fmt.Errorf("%w: currency codes are at most %d characters", ErrInvalidAd, maxCurrencyLen)
	}
	if !ad.UnitPrice.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidAd)
	}
	if !ad.AvailableQuantity.IsPositive() {
		return fmt.Errorf("%w: available quantity must be positive", ErrInvalidAd)
	}
	if !ad.MinLimit.IsPositive() {
		return fmt.Errorf("%w: min limit must be positive", ErrInvalidAd)
	}
	if ad.MinLimit.GreaterThan(ad.MaxLimit) {
		return fmt.Errorf("%w: min limit %s exceeds max limit %s", ErrInvalidAd, ad.MinLimit, ad.MaxLimit)
	}
	if capacity := ad.AvailableQuantity.Mul(ad.UnitPrice); ad.MaxLimit.GreaterThan(capacity) {
		return fmt.Errorf("%w: max limit %s exceeds available value %s", ErrInvalidAd, ad.MaxLimit, capacity)
	}
	if ad.PaymentWindowMinutes < 0 || ad.PaymentWindowMinutes > MaxPaymentWindow {
		return fmt.Errorf("%w: payment window must be between 1 and %d minutes", ErrInvalidAd, MaxPaymentWindow)
	}
	if ad.PaymentWindowMinutes == 0 {
		ad.PaymentWindowMinutes = DefaultPaymentWindow
	}

	seen := make(map[models.PaymentMethod]bool)
	methods := make([]models.PaymentMethod, 0, len(ad.PaymentMethods))
	for _, m := range ad.PaymentMethods {
		if !m.Valid() {
			return fmt.Errorf("%w: unknown payment method %q", ErrInvalidAd, m)
		}
		if !seen[m] {
			seen[m] = true
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		return fmt.Errorf("%w: at least one payment method is required", ErrInvalidAd)
	}
	ad.PaymentMethods = methods
	ad.Instructions = strings.TrimSpace(ad.Instructions)
	return nil
}
