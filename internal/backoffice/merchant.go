package backoffice

import (
	"context"
	"fmt"
	"strings"

	"github.com/xtrntr/p2pdesk/internal/blobstore"
	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/models"
)

// MerchantApplicationRequest is what a trader sends to join the merchant
// programme.
type MerchantApplicationRequest struct {
	BusinessName string `json:"business_name"`
	OwnerName    string `json:"owner_name"`
	Email        string `json:"email"`
	Country      string `json:"country"`
}

func (r MerchantApplicationRequest) validate() error {
	switch {
	case strings.TrimSpace(r.BusinessName) == "":
		return fmt.Errorf("%w: business name is required", ErrInvalidRequest)
	case strings.TrimSpace(r.Email) == "":
		return fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	return nil
}

func applicationStatus(s models.MerchantStatus) models.ApplicationStatus {
	switch s {
	case models.MerchantVerified:
		return models.ApplicationApproved
	case models.MerchantSuspended:
		return models.ApplicationSuspended
	case models.MerchantRejected:
		return models.ApplicationRejected
	}
	return models.ApplicationPending
}

func findByUser(merchants []models.Merchant, userID string) int {
	for i := range merchants {
		if merchants[i].UserID == userID {
			return i
		}
	}
	return -1
}

// MerchantApplication returns userID's standing in the merchant programme.
func (s *Service) MerchantApplication(ctx context.Context, userID string) (models.MerchantApplication, error) {
	merchants, err := blobstore.LoadJSON(ctx, s.blobs, keyMerchants, seedMerchants)
	if err != nil {
		return models.MerchantApplication{}, err
	}
	i := findByUser(merchants, userID)
	if i < 0 {
		return models.MerchantApplication{UserID: userID, Status: models.ApplicationNone}, nil
	}
	m := merchants[i]
	return models.MerchantApplication{
		UserID:     userID,
		Status:     applicationStatus(m.Status),
		MerchantID: m.ID,
		Reason:     m.SuspensionReason,
	}, nil
}

// ApplyMerchant files a merchant application for userID. The user's KYC must
// be approved, and a new application is accepted only when none is on file or
// the last one was rejected. Admins decide it with MerchantAction.
func (s *Service) ApplyMerchant(ctx context.Context, userID string, req MerchantApplicationRequest) (*models.Merchant, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	kyc, err := s.KYCStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if kyc.Status != models.KYCApproved {
		return nil, fmt.Errorf("%w: kyc status is %s", ErrKYCRequired, kyc.Status)
	}

	now := s.Now()
	var filed models.Merchant
	_, err = blobstore.UpdateJSON(ctx, s.blobs, keyMerchants, seedMerchants, func(merchants *[]models.Merchant) error {
		m := models.Merchant{
			UserID:       userID,
			BusinessName: strings.TrimSpace(req.BusinessName),
			OwnerName:    strings.TrimSpace(req.OwnerName),
			Email:        strings.TrimSpace(req.Email),
			Country:      req.Country,
			Status:       models.MerchantPending,
			Tier:         "standard",
			TotalVolume:  amt("0"),
			RegisteredAt: now,
		}
		if i := findByUser(*merchants, userID); i >= 0 {
			existing := (*merchants)[i]
			if existing.Status != models.MerchantRejected {
				return fmt.Errorf("%w: status is %s", ErrAlreadyApplied, existing.Status)
			}
			m.ID = existing.ID
			(*merchants)[i] = m
		} else {
			m.ID = fmt.Sprintf("MER-%03d", len(*merchants)+1)
			*merchants = append(*merchants, m)
		}
		filed = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("merchant_id", filed.ID).Str("user_id", userID).Msg("merchant application filed")
	s.pub.Publish(events.MerchantUpdated, filed)
	return &filed, nil
}

// CanPublish reports whether traderID may post ads: only verified merchants
// can.
func (s *Service) CanPublish(ctx context.Context, traderID string) error {
	app, err := s.MerchantApplication(ctx, traderID)
	if err != nil {
		return err
	}
	if app.Status != models.ApplicationApproved {
		return fmt.Errorf("%w: merchant status is %s", ErrNotMerchant, app.Status)
	}
	return nil
}
