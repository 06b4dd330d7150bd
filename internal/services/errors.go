// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/wastetrack/wastetrack-backend/internal/models"
)

// ErrNotFound covers any referenced form, segment or approval that does not
// exist (or is soft-deleted).
var ErrNotFound = errors.New("resource not found")

// InvalidTransitionError is returned when a lifecycle operation is called on
// a form that is not in the exact required predecessor state, or when the
// operation's required payload is missing. It is surfaced to the caller and
// never retried.
type InvalidTransitionError struct {
	Event    TransitionEvent
	Expected []models.FormStatus
	Actual   models.FormStatus
	Reason   string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %q on form in status %s: %s", e.Event, e.Actual, e.Reason)
	}
	return fmt.Sprintf("invalid transition %q: form is in status %s, expected one of %v", e.Event, e.Actual, e.Expected)
}

// UnauthorizedError is returned when the caller's company does not hold the
// role required for this edge. State is never changed; the caller must retry
// as the correct company.
type UnauthorizedError struct {
	Role          FormRole
	ExpectedSiret string
	CallerSiret   string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("company %s is not the %s of this form (expected %s)", e.CallerSiret, e.Role, e.ExpectedSiret)
}

func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}

func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}
