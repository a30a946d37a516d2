package orders

import (
	"fmt"
	"time"

	"github.com/xtrntr/p2pdesk/internal/models"
)

// Action is a lifecycle trigger.
type Action string

const (
	ActionMarkPaid Action = "paid"
	ActionRelease  Action = "release"
	ActionDispute  Action = "dispute"
	ActionCancel   Action = "cancel"
	ActionExpire   Action = "expire"
)

// CancelReasonExpired is recorded when the payment window lapses.
const CancelReasonExpired = "payment window expired"

type rule struct {
	from []models.OrderStatus
	to   models.OrderStatus
}

var rules = map[Action]rule{
	ActionMarkPaid: {from: []models.OrderStatus{models.StatusPendingPayment}, to: models.StatusAwaitingRelease},
	ActionRelease:  {from: []models.OrderStatus{models.StatusAwaitingRelease}, to: models.StatusCompleted},
	ActionDispute:  {from: []models.OrderStatus{models.StatusPendingPayment, models.StatusAwaitingRelease}, to: models.StatusDisputed},
	ActionCancel:   {from: []models.OrderStatus{models.StatusPendingPayment}, to: models.StatusCancelled},
	ActionExpire:   {from: []models.OrderStatus{models.StatusPendingPayment}, to: models.StatusCancelled},
}

// CanTransition reports whether action a is accepted from status s.
func CanTransition(s models.OrderStatus, a Action) bool {
	r, ok := rules[a]
	if !ok {
		return false
	}
	for _, from := range r.from {
		if from == s {
			return true
		}
	}
	return false
}

// Transition applies action a by actor to o at now. On error o is unchanged.
func Transition(o *models.Order, a Action, actor string, reason string, now time.Time) error {
	if a != ActionExpire {
		if !o.Participant(actor) {
			return ErrNotParticipant
		}
		switch a {
		case ActionMarkPaid:
			if actor != o.BuyerID {
				return fmt.Errorf("%w: only the buyer can mark payment sent", ErrWrongParty)
			}
		case ActionRelease:
			if actor != o.CounterpartyID {
				return fmt.Errorf("%w: only the counterparty can release funds", ErrWrongParty)
			}
		}
	}

	if !CanTransition(o.Status, a) {
		return fmt.Errorf("%w: cannot %s an order in status %s", ErrInvalidTransition, a, o.Status)
	}
	if a == ActionExpire && !o.Expired(now) {
		return fmt.Errorf("%w: order %s has not expired", ErrInvalidTransition, o.ID)
	}

	t := now.UTC()
	switch a {
	case ActionMarkPaid:
		o.PaidAt = &t
	case ActionRelease:
		o.ReleasedAt = &t
		o.CompletedAt = &t
	case ActionDispute:
		o.DisputedAt = &t
	case ActionCancel:
		o.CancelledAt = &t
		o.CancelReason = reason
	case ActionExpire:
		o.CancelledAt = &t
		o.CancelReason = CancelReasonExpired
	}
	o.Status = rules[a].to
	return nil
}

// Expire cancels o when it is pending past its expiry and reports whether it
// did.
func Expire(o *models.Order, now time.Time) bool {
	if !o.Expired(now) {
		return false
	}
	return Transition(o, ActionExpire, "", "", now) == nil
}
