package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEventNotFound is returned when an event ID does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("event question not found")
	// ErrTenantSeasonNotFound is returned when a tenant season ID does not exist.
	ErrTenantSeasonNotFound = errors.New("tenant season not found")
	// ErrNotMember is returned when a user does not belong to a tenant season.
	ErrNotMember = errors.New("user is not a member of the tenant season")
	// ErrLocked is returned when a prediction write hits a locked event.
	ErrLocked = errors.New("event is locked for predictions")
	// ErrConflict indicates a concurrent update collision that survived one
	// internal retry. Callers may re-run the scoring pass; it is idempotent.
	ErrConflict = errors.New("concurrent update conflict")
)

// InvalidTransitionError reports an illegal lifecycle change. It is never
// retried automatically; the operator decides what to do.
type InvalidTransitionError struct {
	EventID   string
	From      EventStatus
	Requested EventStatus
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition for event %s: %s -> %s (%s)", e.EventID, e.From, e.Requested, e.Reason)
	}
	return fmt.Sprintf("invalid transition for event %s: %s -> %s", e.EventID, e.From, e.Requested)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
