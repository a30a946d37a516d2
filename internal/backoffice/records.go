package backoffice

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xtrntr/p2pdesk/internal/blobstore"
	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/models"
)

// UserQuery filters ListUsers. Search matches name or email.
type UserQuery struct {
	Search string
	Status models.AccountStatus
}

func (s *Service) ListUsers(ctx context.Context, q UserQuery) ([]models.UserAccount, error) {
	users, err := blobstore.LoadJSON(ctx, s.blobs, keyUsers, seedUsers)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserAccount, 0, len(users))
	for _, u := range users {
		if !matchAny(q.Search, u.Name, u.Email) {
			continue
		}
		if q.Status != "" && u.Status != q.Status {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

var userActions = map[string]models.AccountStatus{
	"suspend":  models.AccountSuspended,
	"activate": models.AccountActive,
	"delete":   models.AccountDeleted,
}

// UserAction applies suspend, activate or delete to a user account.
func (s *Service) UserAction(ctx context.Context, id, action string) (*models.UserAccount, error) {
	status, ok := userActions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	var updated models.UserAccount
	_, err := blobstore.UpdateJSON(ctx, s.blobs, keyUsers, seedUsers, func(users *[]models.UserAccount) error {
		for i := range *users {
			if (*users)[i].ID == id {
				(*users)[i].Status = status
				updated = (*users)[i]
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Str("action", action).Msg("user account updated")
	return &updated, nil
}

// TransactionQuery filters ListTransactions. From and To are inclusive.
type TransactionQuery struct {
	Type     string
	Currency string
	From     time.Time
	To       time.Time
}

// ListTransactions returns matching transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, q TransactionQuery) ([]models.Transaction, error) {
	txns, err := blobstore.LoadJSON(ctx, s.blobs, keyTransactions, seedTransactions)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if q.Type != "" && t.Type != q.Type {
			continue
		}
		if q.Currency != "" && !strings.EqualFold(t.Currency, q.Currency) {
			continue
		}
		if !q.From.IsZero() && t.Date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && t.Date.After(q.To) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// DisputeQuery filters ListDisputes. Search matches ids, party names and
// the description.
type DisputeQuery struct {
	Search   string
	Status   models.DisputeStatus
	Priority string
	Category string
}

func (s *Service) ListDisputes(ctx context.Context, q DisputeQuery) ([]models.Dispute, error) {
	disputes, err := blobstore.LoadJSON(ctx, s.blobs, keyDisputes, seedDisputes)
	if err != nil {
		return nil, err
	}
	out := make([]models.Dispute, 0, len(disputes))
	for _, d := range disputes {
		if !matchAny(q.Search, d.ID, d.TradeID, d.InitiatedBy.Name, d.Respondent.Name, d.Description) {
			continue
		}
		if q.Status != "" && d.Status != q.Status {
			continue
		}
		if q.Priority != "" && d.Priority != q.Priority {
			continue
		}
		if q.Category != "" && d.Category != q.Category {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// MerchantQuery filters ListMerchants. Search matches business name, owner,
// email and id.
type MerchantQuery struct {
	Search  string
	Status  models.MerchantStatus
	Tier    string
	Country string
}

func (s *Service) ListMerchants(ctx context.Context, q MerchantQuery) ([]models.Merchant, error) {
	merchants, err := blobstore.LoadJSON(ctx, s.blobs, keyMerchants, seedMerchants)
	if err != nil {
		return nil, err
	}
	out := make([]models.Merchant, 0, len(merchants))
	for _, m := range merchants {
		if !matchAny(q.Search, m.BusinessName, m.OwnerName, m.Email, m.ID) {
			continue
		}
		if q.Status != "" && m.Status != q.Status {
			continue
		}
		if q.Tier != "" && m.Tier != q.Tier {
			continue
		}
		if q.Country != "" && m.Country != q.Country {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// MerchantAction verifies, suspends, rejects or sends a merchant back to
// review. Suspending requires a reason; rejecting records one if given.
func (s *Service) MerchantAction(ctx context.Context, id, action, reason string) (*models.Merchant, error) {
	var status models.MerchantStatus
	switch action {
	case "verify":
		status = models.MerchantVerified
	case "suspend":
		status = models.MerchantSuspended
		if strings.TrimSpace(reason) == "" {
			return nil, fmt.Errorf("%w: suspension reason is required", ErrInvalidRequest)
		}
	case "review":
		status = models.MerchantUnderReview
	case "reject":
		status = models.MerchantRejected
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	var updated models.Merchant
	_, err := blobstore.UpdateJSON(ctx, s.blobs, keyMerchants, seedMerchants, func(merchants *[]models.Merchant) error {
		for i := range *merchants {
			m := &(*merchants)[i]
			if m.ID != id {
				continue
			}
			m.Status = status
			if status == models.MerchantSuspended || status == models.MerchantRejected {
				m.SuspensionReason = strings.TrimSpace(reason)
			} else {
				m.SuspensionReason = ""
			}
			updated = *m
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("merchant_id", id).Str("status", string(status)).Msg("merchant status updated")
	s.pub.Publish(events.MerchantUpdated, updated)
	return &updated, nil
}
