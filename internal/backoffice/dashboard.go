package backoffice

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/p2pdesk/internal/blobstore"
	"github.com/xtrntr/p2pdesk/internal/models"
)

const recentTransactions = 3

// DashboardStats summarizes the back-office.
type DashboardStats struct {
	// VolumeByCurrency sums completed transactions per currency.
	VolumeByCurrency   map[string]decimal.Decimal `json:"volume_by_currency"`
	ActiveUsers        int                        `json:"active_users"`
	SuspendedAccounts  int                        `json:"suspended_accounts"`
	PendingKYC         int                        `json:"pending_kyc"`
	RecentTransactions []models.Transaction       `json:"recent_transactions"`
	P2POrders          map[models.OrderStatus]int `json:"p2p_orders"`
}

func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{VolumeByCurrency: make(map[string]decimal.Decimal)}

	txns, err := s.ListTransactions(ctx, TransactionQuery{})
	if err != nil {
		return nil, err
	}
	for _, t := range txns {
		if t.Status == "Completed" {
			stats.VolumeByCurrency[t.Currency] = stats.VolumeByCurrency[t.Currency].Add(t.Amount)
		}
	}
	if len(txns) > recentTransactions {
		txns = txns[:recentTransactions]
	}
	stats.RecentTransactions = txns

	users, err := blobstore.LoadJSON(ctx, s.blobs, keyUsers, seedUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		switch u.Status {
		case models.AccountActive:
			stats.ActiveUsers++
		case models.AccountSuspended:
			stats.SuspendedAccounts++
		}
	}

	pending, err := s.ListKYC(ctx, models.KYCPending)
	if err != nil {
		return nil, err
	}
	stats.PendingKYC = len(pending)

	if s.orders != nil {
		counts, err := s.orders.CountByStatus(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count orders: %w", err)
		}
		stats.P2POrders = counts
	}
	return stats, nil
}
