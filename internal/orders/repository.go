package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xtrntr/p2pdesk/internal/models"
)

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	UserID string // buyer or counterparty
	AdID   string
	Status models.OrderStatus
}

func (f Filter) match(o *models.Order) bool {
	if f.UserID != "" && !o.Participant(f.UserID) {
		return false
	}
	if f.AdID != "" && o.AdID != f.AdID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}

// Repository is the single write authority for orders. Update runs fn with
// exclusive access to one order; if fn returns an error nothing is written.
type Repository interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, f Filter) ([]models.Order, error)
	Update(ctx context.Context, id string, fn func(o *models.Order) error) (*models.Order, error)
	ExpiredIDs(ctx context.Context, now time.Time) ([]string, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error)
}

// MemoryRepository keeps orders in process memory behind a mutex.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]*models.Order)}
}

func (r *MemoryRepository) Create(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID]; exists {
		return ErrDuplicate
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// List returns matching orders, newest first.
func (r *MemoryRepository) List(ctx context.Context, f Filter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Order, 0)
	for _, o := range r.orders {
		if f.match(o) {
			result = append(result, *o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, fn func(o *models.Order) error) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	if err := fn(&cp); err != nil {
		return nil, err
	}
	r.orders[id] = &cp
	out := cp
	return &out, nil
}

func (r *MemoryRepository) ExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, o := range r.orders {
		if o.Expired(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *MemoryRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.OrderStatus]int)
	for _, o := range r.orders {
		counts[o.Status]++
	}
	return counts, nil
}
