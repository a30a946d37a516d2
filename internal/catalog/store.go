package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/xtrntr/p2pdesk/internal/models"
)

var (
	ErrAdNotFound     = errors.New("ad not found")
	ErrTraderNotFound = errors.New("trader not found")
	ErrTraderExists   = errors.New("trader already exists")
	ErrNotOwner       = errors.New("ad belongs to another trader")
)

// Store persists ads and trader profiles.
type Store interface {
	PutAd(ctx context.Context, ad *models.Ad) error
	GetAd(ctx context.Context, id string) (*models.Ad, error)
	DeleteAd(ctx context.Context, id string) error
	ListAds(ctx context.Context) ([]models.Ad, error)
	CreateTrader(ctx context.Context, t *models.Trader) error
	GetTrader(ctx context.Context, id string) (*models.Trader, error)
	GetTraderByName(ctx context.Context, name string) (*models.Trader, error)
	ListTraders(ctx context.Context) ([]models.Trader, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	ads     map[string]models.Ad
	traders map[string]models.Trader
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ads:     make(map[string]models.Ad),
		traders: make(map[string]models.Trader),
	}
}

func (s *MemoryStore) PutAd(ctx context.Context, ad *models.Ad) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ad
	cp.PaymentMethods = append([]models.PaymentMethod(nil), ad.PaymentMethods...)
	s.ads[ad.ID] = cp
	return nil
}

func (s *MemoryStore) GetAd(ctx context.Context, id string) (*models.Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ad, ok := s.ads[id]
	if !ok {
		return nil, ErrAdNotFound
	}
	return &ad, nil
}

func (s *MemoryStore) DeleteAd(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ads[id]; !ok {
		return ErrAdNotFound
	}
	delete(s.ads, id)
	return nil
}

// ListAds returns every ad ordered by id.
func (s *MemoryStore) ListAds(ctx context.Context) ([]models.Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Ad, 0, len(s.ads))
	for _, ad := range s.ads {
		out = append(out, ad)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateTrader(ctx context.Context, t *models.Trader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.traders[t.ID]; ok {
		return ErrTraderExists
	}
	for _, existing := range s.traders {
		if existing.DisplayName == t.DisplayName {
			return ErrTraderExists
		}
	}
	s.traders[t.ID] = *t
	return nil
}

func (s *MemoryStore) GetTrader(ctx context.Context, id string) (*models.Trader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.traders[id]
	if !ok {
		return nil, ErrTraderNotFound
	}
	return &t, nil
}

func (s *MemoryStore) GetTraderByName(ctx context.Context, name string) (*models.Trader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.traders {
		if t.DisplayName == name {
			return &t, nil
		}
	}
	return nil, ErrTraderNotFound
}

func (s *MemoryStore) ListTraders(ctx context.Context) ([]models.Trader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Trader, 0, len(s.traders))
	for _, t := range s.traders {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
