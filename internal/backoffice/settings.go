package backoffice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xtrntr/p2pdesk/internal/blobstore"
	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/models"
)

// Settings is the platform settings document. Fee settings live in fee.Store.
type Settings struct {
	Announcements []models.Announcement `json:"announcements"`
}

// AnnouncementInput creates or replaces an announcement. Nil fields are left
// unchanged by UpdateAnnouncement.
type AnnouncementInput struct {
	Title   *string                  `json:"title"`
	Message *string                  `json:"message"`
	Type    *models.AnnouncementType `json:"type"`
	Active  *bool                    `json:"active"`
}

func (in AnnouncementInput) apply(a *models.Announcement) error {
	if in.Title != nil {
		a.Title = strings.TrimSpace(*in.Title)
	}
	if in.Message != nil {
		a.Message = strings.TrimSpace(*in.Message)
	}
	if in.Type != nil {
		a.Type = *in.Type
	}
	if in.Active != nil {
		a.Active = *in.Active
	}
	return validateAnnouncement(*a)
}

func validateAnnouncement(a models.Announcement) error {
	switch {
	case a.Title == "":
		return fmt.Errorf("%w: announcement title is required", ErrInvalidRequest)
	case a.Message == "":
		return fmt.Errorf("%w: announcement message is required", ErrInvalidRequest)
	case !a.Type.Valid():
		return fmt.Errorf("%w: unknown announcement type %q", ErrInvalidRequest, a.Type)
	}
	return nil
}

// Settings returns the platform settings.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	return blobstore.LoadJSON(ctx, s.blobs, keySettings, seedSettings)
}

// Announcements returns announcements, optionally only active ones.
func (s *Service) Announcements(ctx context.Context, activeOnly bool) ([]models.Announcement, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Announcement, 0, len(st.Announcements))
	for _, a := range st.Announcements {
		if !activeOnly || a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

// CreateAnnouncement adds an announcement. Type defaults to info.
func (s *Service) CreateAnnouncement(ctx context.Context, in AnnouncementInput) (*models.Announcement, error) {
	a := models.Announcement{
		ID:        "ANN-" + uuid.NewString()[:8],
		Type:      models.AnnouncementInfo,
		Active:    true,
		CreatedAt: s.Now(),
	}
	if err := in.apply(&a); err != nil {
		return nil, err
	}
	_, err := blobstore.UpdateJSON(ctx, s.blobs, keySettings, seedSettings, func(st *Settings) error {
		st.Announcements = append(st.Announcements, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.announced("created", a)
	return &a, nil
}

// UpdateAnnouncement edits the announcement with id.
func (s *Service) UpdateAnnouncement(ctx context.Context, id string, in AnnouncementInput) (*models.Announcement, error) {
	var updated models.Announcement
	_, err := blobstore.UpdateJSON(ctx, s.blobs, keySettings, seedSettings, func(st *Settings) error {
		for i := range st.Announcements {
			if st.Announcements[i].ID != id {
				continue
			}
			a := st.Announcements[i]
			if err := in.apply(&a); err != nil {
				return err
			}
			st.Announcements[i] = a
			updated = a
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	s.announced("updated", updated)
	return &updated, nil
}

// DeleteAnnouncement removes the announcement with id.
func (s *Service) DeleteAnnouncement(ctx context.Context, id string) error {
	var removed models.Announcement
	_, err := blobstore.UpdateJSON(ctx, s.blobs, keySettings, seedSettings, func(st *Settings) error {
		for i, a := range st.Announcements {
			if a.ID == id {
				removed = a
				st.Announcements = append(st.Announcements[:i], st.Announcements[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return err
	}
	removed.Active = false
	s.announced("deleted", removed)
	return nil
}

// ReplaceAnnouncements swaps the whole announcement list, as the settings
// page saves it. Missing ids and creation times are filled in.
func (s *Service) ReplaceAnnouncements(ctx context.Context, list []models.Announcement) ([]models.Announcement, error) {
	now := s.Now()
	seen := make(map[string]bool, len(list))
	for i := range list {
		a := &list[i]
		a.Title = strings.TrimSpace(a.Title)
		a.Message = strings.TrimSpace(a.Message)
		if a.ID == "" {
			a.ID = "ANN-" + uuid.NewString()[:8]
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("%w: duplicate announcement id %s", ErrInvalidRequest, a.ID)
		}
		seen[a.ID] = true
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if err := validateAnnouncement(*a); err != nil {
			return nil, err
		}
	}
	st, err := blobstore.UpdateJSON(ctx, s.blobs, keySettings, seedSettings, func(st *Settings) error {
		st.Announcements = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("count", len(list)).Msg("announcements replaced")
	s.pub.Publish(events.AnnouncementUpdated, st.Announcements)
	return st.Announcements, nil
}

func (s *Service) announced(change string, a models.Announcement) {
	s.log.Info().Str("announcement_id", a.ID).Bool("active", a.Active).Msg("announcement " + change)
	s.pub.Publish(events.AnnouncementUpdated, a)
}
