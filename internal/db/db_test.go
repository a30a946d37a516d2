package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/p2pdesk/internal/catalog"
	"github.com/xtrntr/p2pdesk/internal/models"
	"github.com/xtrntr/p2pdesk/internal/orders"
)

var testDB *DB

func TestMain(m *testing.M) {
	url := os.Getenv("P2PDESK_TEST_POSTGRES_URL")
	if url == "" {
		fmt.Fprintln(os.Stderr, "P2PDESK_TEST_POSTGRES_URL not set, skipping postgres tests")
		os.Exit(m.Run())
	}

	db, err := NewDB(context.Background(), url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close(context.Background())

	if err := db.Migrate(context.Background(), "../../migrations/001_init.sql"); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to apply migration: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	os.Exit(m.Run())
}

func reset(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres not configured")
	}
	_, err := testDB.Pool.Exec(context.Background(), "TRUNCATE TABLE orders, ads, traders")
	if err != nil {
		t.Fatalf("Failed to clean up database: %v", err)
	}
	if err := catalog.Seed(context.Background(), testDB.Catalog()); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}
}

var created = time.Date(2024, 10, 5, 10, 30, 0, 0, time.UTC)

func testOrder(id string, status models.OrderStatus) *models.Order {
	return &models.Order{
		ID:                   id,
		AdID:                 "ad1",
		BuyerID:              "buyer1",
		CounterpartyID:       "trader1",
		CryptoCurrency:       "USDC",
		FiatCurrency:         "USD",
		CryptoAmount:         decimal.RequireFromString("490.19607843"),
		FiatAmount:           decimal.RequireFromString("500"),
		UnitPrice:            decimal.RequireFromString("1.02"),
		Fee:                  decimal.RequireFromString("5"),
		Status:               status,
		PaymentMethod:        models.PaymentBankTransfer,
		PaymentWindowMinutes: 15,
		AccountDetails:       "0xabc123",
		CreatedAt:            created,
		ExpiresAt:            created.Add(15 * time.Minute),
	}
}

func TestMigrate_Rerun(t *testing.T) {
	reset(t)
	if err := testDB.Migrate(context.Background(), "../../migrations/001_init.sql"); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
	if err := testDB.Migrate(context.Background(), "../../migrations/missing.sql"); err == nil {
		t.Error("expected an error for a missing migration file")
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	reset(t)
	repo := testDB.Orders()
	ctx := context.Background()

	if err := repo.Create(ctx, testOrder("order-1", models.StatusPendingPayment)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Create(ctx, testOrder("order-1", models.StatusPendingPayment)); !errors.Is(err, orders.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	got, err := repo.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.CryptoAmount.Equal(decimal.RequireFromString("490.19607843")) {
		t.Errorf("crypto amount not preserved: %s", got.CryptoAmount)
	}
	if !got.ExpiresAt.Equal(created.Add(15 * time.Minute)) {
		t.Errorf("expires_at not preserved: %s", got.ExpiresAt)
	}
	if got.PaidAt != nil {
		t.Errorf("expected nil paid_at, got %v", got.PaidAt)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, orders.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderRepository_List(t *testing.T) {
	reset(t)
	repo := testDB.Orders()
	ctx := context.Background()

	for i, status := range []models.OrderStatus{models.StatusPendingPayment, models.StatusCompleted, models.StatusCancelled} {
		o := testOrder(fmt.Sprintf("order-%d", i+1), status)
		o.CreatedAt = created.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, o); err != nil {
			t.Fatalf("Failed to insert order: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter orders.Filter
		want   []string
	}{
		{"All", orders.Filter{}, []string{"order-3", "order-2", "order-1"}},
		{"Counterparty", orders.Filter{UserID: "trader1"}, []string{"order-3", "order-2", "order-1"}},
		{"Status", orders.Filter{Status: models.StatusCompleted}, []string{"order-2"}},
		{"Stranger", orders.Filter{UserID: "mallory"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("expected %d orders, got %d", len(tt.want), len(list))
			}
			for i, id := range tt.want {
				if list[i].ID != id {
					t.Errorf("expected %s at %d, got %s", id, i, list[i].ID)
				}
			}
		})
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[models.StatusPendingPayment] != 1 || counts[models.StatusCompleted] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	ids, err := repo.ExpiredIDs(ctx, created.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "order-1" {
		t.Errorf("expected [order-1], got %v", ids)
	}
}

func TestOrderRepository_UpdateRollsBackOnError(t *testing.T) {
	reset(t)
	repo := testDB.Orders()
	ctx := context.Background()

	if err := repo.Create(ctx, testOrder("order-1", models.StatusPendingPayment)); err != nil {
		t.Fatalf("Failed to insert order: %v", err)
	}

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "order-1", func(o *models.Order) error {
		o.Status = models.StatusCompleted
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected callback error, got %v", err)
	}

	got, _ := repo.Get(ctx, "order-1")
	if got.Status != models.StatusPendingPayment {
		t.Errorf("status changed despite error: %s", got.Status)
	}
}

func TestOrderRepository_Update_Concurrent(t *testing.T) {
	reset(t)
	repo := testDB.Orders()
	ctx := context.Background()

	if err := repo.Create(ctx, testOrder("order-1", models.StatusPendingPayment)); err != nil {
		t.Fatalf("Failed to insert order: %v", err)
	}

	var wg sync.WaitGroup
	n := 10
	wg.Add(n)
	successCount := 0
	mu := sync.Mutex{}

	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, "order-1", func(o *models.Order) error {
				return orders.Transition(o, orders.ActionCancel, "buyer1", "cancelled by buyer1", time.Now())
			})
			if err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successCount != 1 {
		t.Errorf("expected exactly 1 successful cancellation, got %d", successCount)
	}

	got, err := repo.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Errorf("order-1 not cancelled: status=%s", got.Status)
	}
	if got.CancelledAt == nil {
		t.Errorf("cancelled_at not written")
	}
}

func TestCatalogStore(t *testing.T) {
	reset(t)
	store := testDB.Catalog()
	ctx := context.Background()

	ads, err := store.ListAds(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ads) != 10 {
		t.Fatalf("expected 10 seeded ads, got %d", len(ads))
	}

	ad, err := store.GetAd(ctx, "ad1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ad.PaymentMethods) != 2 || ad.PaymentMethods[0] != models.PaymentBankTransfer {
		t.Errorf("payment methods not preserved: %v", ad.PaymentMethods)
	}
	if !ad.UnitPrice.Equal(decimal.RequireFromString("1.02")) {
		t.Errorf("unit price not preserved: %s", ad.UnitPrice)
	}

	if err := store.DeleteAd(ctx, "ad1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetAd(ctx, "ad1"); !errors.Is(err, catalog.ErrAdNotFound) {
		t.Errorf("expected ErrAdNotFound, got %v", err)
	}

	dup := catalog.SeedTraders()[0]
	if err := store.CreateTrader(ctx, &dup); !errors.Is(err, catalog.ErrTraderExists) {
		t.Errorf("expected ErrTraderExists, got %v", err)
	}
	trader, err := store.GetTraderByName(ctx, "CryptoKing")
	if err != nil || trader.ID != "trader1" {
		t.Errorf("expected trader1, got %v, err=%v", trader, err)
	}
}
