package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/logging"
	"github.com/xtrntr/p2pdesk/internal/metrics"
	"github.com/xtrntr/p2pdesk/internal/models"
)

var tracer = otel.Tracer("github.com/xtrntr/p2pdesk/internal/orders")

// AdLookup resolves the ad an order is opened against.
type AdLookup interface {
	GetAd(ctx context.Context, id string) (*models.Ad, error)
}

// Service owns the order lifecycle. All writes go through the repository's
// Update so concurrent transitions on one order are serialized.
type Service struct {
	repo    Repository
	ads     AdLookup
	factory *Factory
	pub     events.Publisher
	log     zerolog.Logger
}

// NewService wires a lifecycle service.
func NewService(repo Repository, ads AdLookup, factory *Factory, pub events.Publisher, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		ads:     ads,
		factory: factory,
		pub:     pub,
		log:     logging.WithComponent(log, "orders"),
	}
}

// Create validates req against the ad and stores a new pending order.
func (s *Service) Create(ctx context.Context, adID string, req Request) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.Create")
	defer span.End()
	span.SetAttributes(attribute.String("ad.id", adID))

	ad, err := s.ads.GetAd(ctx, adID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to load ad: %w", err)
	}

	order, err := s.factory.New(ad, req)
	if err != nil {
		if kind := KindOf(err); kind != "" {
			metrics.OrderRejections.WithLabelValues(string(kind)).Inc()
		}
		return nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.log.Error().Err(err).Str("ad_id", adID).Msg("failed to store order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	metrics.OrdersCreated.WithLabelValues(order.CryptoCurrency, order.FiatCurrency).Inc()
	l := logging.WithOrderID(s.log, order.ID)
	l.Info().
		Str("ad_id", ad.ID).
		Str("buyer_id", order.BuyerID).
		Str("fiat_amount", order.FiatAmount.String()).
		Time("expires_at", order.ExpiresAt).
		Msg("order created")
	s.pub.Publish(events.OrderCreated, order)
	return order, nil
}

// Get returns an order, cancelling it first if its payment window lapsed.
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Expired(s.factory.Now()) {
		o, _, err = s.expire(ctx, id)
		return o, err
	}
	return o, nil
}

// GetFor returns an order visible to userID.
func (s *Service) GetFor(ctx context.Context, id, userID string) (*models.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Participant(userID) {
		return nil, ErrNotParticipant
	}
	return o, nil
}

// List returns matching orders after evaluating expiry on pending ones.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Order, error) {
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	now := s.factory.Now()
	out := list[:0]
	for _, o := range list {
		if o.Expired(now) {
			updated, _, err := s.expire(ctx, o.ID)
			if err != nil {
				return nil, err
			}
			o = *updated
		}
		if f.Status == "" || o.Status == f.Status {
			out = append(out, o)
		}
	}
	return out, nil
}

// CountByStatus reports how many orders sit in each status.
func (s *Service) CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	return s.repo.CountByStatus(ctx)
}

// MarkPaid records that the buyer sent payment.
func (s *Service) MarkPaid(ctx context.Context, id, actor string) (*models.Order, error) {
	return s.transition(ctx, id, ActionMarkPaid, actor, "")
}

// Release records that the counterparty confirmed receipt and released funds.
func (s *Service) Release(ctx context.Context, id, actor string) (*models.Order, error) {
	return s.transition(ctx, id, ActionRelease, actor, "")
}

// Dispute moves the order to disputed pending manual review.
func (s *Service) Dispute(ctx context.Context, id, actor string) (*models.Order, error) {
	return s.transition(ctx, id, ActionDispute, actor, "")
}

// Cancel cancels a pending order on behalf of either party.
func (s *Service) Cancel(ctx context.Context, id, actor, reason string) (*models.Order, error) {
	if reason == "" {
		reason = "cancelled by " + actor
	}
	return s.transition(ctx, id, ActionCancel, actor, reason)
}

func (s *Service) transition(ctx context.Context, id string, a Action, actor, reason string) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "orders."+string(a))
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id), attribute.String("order.action", string(a)))

	now := s.factory.Now()
	expired := false
	o, err := s.repo.Update(ctx, id, func(o *models.Order) error {
		if !o.Participant(actor) {
			return ErrNotParticipant
		}
		if Expire(o, now) {
			expired = true
			return nil
		}
		return Transition(o, a, actor, reason, now)
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrNotParticipant) && !errors.Is(err, ErrWrongParty) && !errors.Is(err, ErrNotFound) {
			span.SetStatus(codes.Error, err.Error())
			s.log.Error().Err(err).Str("order_id", id).Str("action", string(a)).Msg("order transition failed")
		}
		return nil, err
	}

	if expired {
		s.recordTransition(o, ActionExpire)
		if a == ActionCancel {
			return o, nil
		}
		return nil, fmt.Errorf("%w: order %s expired before it could be %s", ErrInvalidTransition, id, pastTense(a))
	}

	s.recordTransition(o, a)
	return o, nil
}

// expire cancels the order if it is still pending past its expiry and
// reports whether this call did so.
func (s *Service) expire(ctx context.Context, id string) (*models.Order, bool, error) {
	changed := false
	o, err := s.repo.Update(ctx, id, func(o *models.Order) error {
		changed = Expire(o, s.factory.Now())
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("order_id", id).Msg("failed to expire order")
		return nil, false, err
	}
	if changed {
		s.recordTransition(o, ActionExpire)
	}
	return o, changed, nil
}

func (s *Service) recordTransition(o *models.Order, a Action) {
	metrics.OrderTransitions.WithLabelValues(string(a)).Inc()
	l := logging.WithOrderID(s.log, o.ID)
	l.Info().
		Str("action", string(a)).
		Str("status", string(o.Status)).
		Msg("order transitioned")
	s.pub.Publish(events.OrderUpdated, o)
}

// SweepExpired cancels every pending order past its expiry and returns how
// many it cancelled. Orders that moved on since they were listed are skipped.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	ids, err := s.repo.ExpiredIDs(ctx, s.factory.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired orders: %w", err)
	}
	n := 0
	for _, id := range ids {
		_, changed, err := s.expire(ctx, id)
		if err != nil {
			return n, err
		}
		if changed {
			n++
		}
	}
	return n, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if n > 0 {
				s.log.Info().Int("cancelled", n).Msg("expired orders cancelled")
			}
		}
	}
}

func pastTense(a Action) string {
	switch a {
	case ActionMarkPaid:
		return "marked paid"
	case ActionRelease:
		return "released"
	case ActionDispute:
		return "disputed"
	}
	return string(a) + "ed"
}
