package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrDuplicate         = errors.New("order already exists")
	ErrInvalidTransition = errors.New("invalid order transition")
	ErrNotParticipant    = errors.New("not a participant in this order")
	ErrWrongParty        = errors.New("action not allowed for this party")
)

// ValidationKind classifies a rejected order request.
type ValidationKind string

const (
	InvalidAmount            ValidationKind = "InvalidAmount"
	OutOfRange               ValidationKind = "OutOfRange"
	InsufficientAvailability ValidationKind = "InsufficientAvailability"
	UnsupportedPaymentMethod ValidationKind = "UnsupportedPaymentMethod"
	MissingAccountDetails    ValidationKind = "MissingAccountDetails"
	SelfTrade                ValidationKind = "SelfTrade"
)

// ValidationError is returned when an order request is rejected. No order is
// created.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func invalid(kind ValidationKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the validation kind of err, or "" when err is not a
// validation error.
func KindOf(err error) ValidationKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}
