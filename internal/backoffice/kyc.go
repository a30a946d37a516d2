package backoffice

import (
	"context"
	"fmt"
	"strings"

	"github.com/xtrntr/p2pdesk/internal/blobstore"
	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/models"
)

// kycState holds requests and per-user standing in one document so a
// submission or review updates both atomically.
type kycState struct {
	Requests []models.KYCRequest       `json:"requests"`
	Users    map[string]models.UserKYC `json:"users"`
}

// KYCSubmission is what a user sends for verification.
type KYCSubmission struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Country      string   `json:"country"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`
	DocumentType string   `json:"document_type"`
	Documents    []string `json:"documents"`
}

func (s KYCSubmission) validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	case strings.TrimSpace(s.Email) == "":
		return fmt.Errorf("%w: email is required", ErrInvalidRequest)
	case strings.TrimSpace(s.DocumentType) == "":
		return fmt.Errorf("%w: document type is required", ErrInvalidRequest)
	case len(s.Documents) == 0:
		return fmt.Errorf("%w: at least one document is required", ErrInvalidRequest)
	}
	return nil
}

// ListKYC returns KYC requests, optionally only those with status.
func (s *Service) ListKYC(ctx context.Context, status models.KYCStatus) ([]models.KYCRequest, error) {
	st, err := blobstore.LoadJSON(ctx, s.blobs, keyKYC, seedKYC)
	if err != nil {
		return nil, err
	}
	out := make([]models.KYCRequest, 0, len(st.Requests))
	for _, r := range st.Requests {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

// KYCStatus returns userID's standing. Users who never submitted are none.
func (s *Service) KYCStatus(ctx context.Context, userID string) (models.UserKYC, error) {
	st, err := blobstore.LoadJSON(ctx, s.blobs, keyKYC, seedKYC)
	if err != nil {
		return models.UserKYC{}, err
	}
	if u, ok := st.Users[userID]; ok {
		return u, nil
	}
	return models.UserKYC{UserID: userID, Status: models.KYCNone}, nil
}

// SubmitKYC files a request for userID. Allowed only when the user has no
// request on file or the last one was rejected.
func (s *Service) SubmitKYC(ctx context.Context, userID string, sub KYCSubmission) (*models.KYCRequest, error) {
	if err := sub.validate(); err != nil {
		return nil, err
	}
	now := s.Now()
	var req models.KYCRequest
	_, err := blobstore.UpdateJSON(ctx, s.blobs, keyKYC, seedKYC, func(st *kycState) error {
		if st.Users == nil {
			st.Users = make(map[string]models.UserKYC)
		}
		if u, ok := st.Users[userID]; ok && u.Status != models.KYCNone && u.Status != models.KYCRejected {
			return fmt.Errorf("%w: status is %s", ErrKYCInProgress, u.Status)
		}
		req = models.KYCRequest{
			ID:           fmt.Sprintf("KYC%03d", len(st.Requests)+1),
			UserID:       userID,
			Name:         strings.TrimSpace(sub.Name),
			Email:        strings.TrimSpace(sub.Email),
			Country:      sub.Country,
			Phone:        sub.Phone,
			Address:      sub.Address,
			DocumentType: sub.DocumentType,
			Documents:    sub.Documents,
			Status:       models.KYCPending,
			SubmittedAt:  now,
		}
		st.Requests = append(st.Requests, req)
		st.Users[userID] = models.UserKYC{UserID: userID, Status: models.KYCPending, RequestID: req.ID, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("kyc_id", req.ID).Str("user_id", userID).Msg("kyc submitted")
	s.pub.Publish(events.KYCUpdated, req)
	return &req, nil
}

// ReviewKYC approves or rejects a pending request. action is "approve" or
// "reject".
func (s *Service) ReviewKYC(ctx context.Context, id, action, reason string) (*models.KYCRequest, error) {
	var status models.KYCStatus
	switch action {
	case "approve":
		status = models.KYCApproved
	case "reject":
		status = models.KYCRejected
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	now := s.Now()
	var req models.KYCRequest
	_, err := blobstore.UpdateJSON(ctx, s.blobs, keyKYC, seedKYC, func(st *kycState) error {
		for i := range st.Requests {
			r := &st.Requests[i]
			if r.ID != id {
				continue
			}
			if r.Status != models.KYCPending {
				return fmt.Errorf("%w: %s is %s", ErrAlreadyReviewed, id, r.Status)
			}
			r.Status = status
			r.Reason = reason
			r.ReviewedAt = &now
			if r.UserID != "" {
				if st.Users == nil {
					st.Users = make(map[string]models.UserKYC)
				}
				st.Users[r.UserID] = models.UserKYC{UserID: r.UserID, Status: status, RequestID: r.ID, Reason: reason, UpdatedAt: now}
			}
			req = *r
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}

	ev := s.log.Info().Str("kyc_id", id).Str("status", string(status))
	if reason != "" {
		ev = ev.Str("reason", reason)
	}
	ev.Msg("kyc reviewed")
	s.pub.Publish(events.KYCUpdated, req)
	return &req, nil
}
