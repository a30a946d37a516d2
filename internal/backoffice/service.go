// Package backoffice implements the admin review surfaces: KYC, user
// accounts, transactions, disputes, merchants, platform settings and the
// dashboard. It also owns the trader side of KYC and merchant applications.
package backoffice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xtrntr/p2pdesk/internal/blobstore"
	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/logging"
	"github.com/xtrntr/p2pdesk/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidAction   = errors.New("invalid action")
	ErrInvalidRequest  = errors.New("invalid request data")
	ErrAlreadyReviewed = errors.New("kyc request already reviewed")
	ErrKYCInProgress   = errors.New("kyc already submitted")
	ErrKYCRequired     = errors.New("kyc approval required")
	ErrAlreadyApplied  = errors.New("merchant application already on file")
	ErrNotMerchant     = errors.New("merchant approval required to publish ads")
)

// Blob keys.
const (
	keyKYC          = "kyc"
	keyUsers        = "users"
	keyTransactions = "transactions"
	keyDisputes     = "disputes"
	keyMerchants    = "merchants"
	keySettings     = "settings"
)

// OrderCounter reports P2P order totals for the dashboard.
type OrderCounter interface {
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error)
}

// Service serves the back-office over a blob store. Each collection lives
// under one key and is seeded on first access.
type Service struct {
	blobs  blobstore.Store
	orders OrderCounter
	pub    events.Publisher
	log    zerolog.Logger

	Now func() time.Time
}

func NewService(blobs blobstore.Store, orders OrderCounter, pub events.Publisher, log zerolog.Logger) *Service {
	return &Service{
		blobs:  blobs,
		orders: orders,
		pub:    pub,
		log:    logging.WithComponent(log, "backoffice"),
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func matchAny(needle string, fields ...string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)
	for _, f := range fields {
		if contains(f, needle) {
			return true
		}
	}
	return false
}
