// internal/services/statemachine.go
package services

import (
	"github.com/wastetrack/wastetrack-backend/internal/models"
)

// TransitionEvent names one edge of the form lifecycle.
type TransitionEvent string

const (
	EventSeal                   TransitionEvent = "SEAL"
	EventSignedByTransporter    TransitionEvent = "SIGNED_BY_TRANSPORTER"
	EventMarkReceived           TransitionEvent = "MARK_RECEIVED"
	EventMarkAccepted           TransitionEvent = "MARK_ACCEPTED"
	EventMarkProcessed          TransitionEvent = "MARK_PROCESSED"
	EventMarkTempStored         TransitionEvent = "MARK_TEMP_STORED"
	EventMarkTempStorerAccepted TransitionEvent = "MARK_TEMP_STORER_ACCEPTED"
	EventMarkResealed           TransitionEvent = "MARK_RESEALED"
)

// transitions is the lifecycle state machine: for each event, the exact
// predecessor states it may fire from and the state it lands in. There is no
// state skipping.
var transitions = map[TransitionEvent]map[models.FormStatus]models.FormStatus{
	EventSeal: {
		models.FormStatusDraft: models.FormStatusSealed,
	},
	EventSignedByTransporter: {
		models.FormStatusSealed:   models.FormStatusSent,
		models.FormStatusResealed: models.FormStatusResent,
	},
	EventMarkReceived: {
		models.FormStatusSent:   models.FormStatusReceived,
		models.FormStatusResent: models.FormStatusReceived,
	},
	EventMarkAccepted: {
		models.FormStatusReceived: models.FormStatusAccepted,
	},
	EventMarkProcessed: {
		models.FormStatusAccepted: models.FormStatusProcessed,
	},
	EventMarkTempStored: {
		models.FormStatusSent: models.FormStatusTempStored,
	},
	EventMarkTempStorerAccepted: {
		models.FormStatusTempStored: models.FormStatusTempStorerAccepted,
	},
	EventMarkResealed: {
		models.FormStatusTempStorerAccepted: models.FormStatusResealed,
	},
}

// lifecycleRank orders statuses by progress so tests can assert that no
// transition ever moves a form backwards.
var lifecycleRank = map[models.FormStatus]int{
	models.FormStatusDraft:              0,
	models.FormStatusSealed:             1,
	models.FormStatusSent:               2,
	models.FormStatusTempStored:         3,
	models.FormStatusTempStorerAccepted: 4,
	models.FormStatusResealed:           5,
	models.FormStatusResent:             6,
	models.FormStatusReceived:           7,
	models.FormStatusAccepted:           8,
	models.FormStatusProcessed:          9,
}

func LifecycleRank(status models.FormStatus) int {
	return lifecycleRank[status]
}

// NextStatus returns the status the event leads to from the form's current
// status, or an InvalidTransitionError when the form is not in an exact
// predecessor state of the event.
func NextStatus(event TransitionEvent, from models.FormStatus) (models.FormStatus, error) {
	edges, ok := transitions[event]
	if !ok {
		return "", &InvalidTransitionError{Event: event, Actual: from, Reason: "unknown event"}
	}
	to, ok := edges[from]
	if !ok {
		expected := make([]models.FormStatus, 0, len(edges))
		for source := range edges {
			expected = append(expected, source)
		}
		return "", &InvalidTransitionError{Event: event, Expected: expected, Actual: from}
	}
	return to, nil
}

// FormRole names the company role that must sign a given edge.
type FormRole string

const (
	RoleEmitter     FormRole = "EMITTER"
	RoleTransporter FormRole = "TRANSPORTER"
	RoleRecipient   FormRole = "RECIPIENT"
	RoleDestination FormRole = "DESTINATION"
)

// RoleResolution is the explicit outcome of role resolution: which role the
// edge requires and which SIRET currently holds it on this form.
type RoleResolution struct {
	Role          FormRole
	ExpectedSiret string
}

// ResolveRequiredRole resolves, for a form and an edge, the company expected
// to sign it. The second return value is false when the form carries no
// company for the required role, which the caller reports as an invalid
// transition rather than guessing.
func ResolveRequiredRole(form *models.Form, event TransitionEvent) (RoleResolution, bool) {
	var res RoleResolution

	switch event {
	case EventSeal:
		res = RoleResolution{Role: RoleEmitter, ExpectedSiret: form.EmitterCompanySiret}
	case EventSignedByTransporter:
		res = RoleResolution{Role: RoleTransporter, ExpectedSiret: form.ActiveTransporterSiret()}
	case EventMarkReceived:
		res = RoleResolution{Role: RoleDestination, ExpectedSiret: form.DestinationSiret()}
	case EventMarkAccepted, EventMarkProcessed:
		res = RoleResolution{Role: RoleDestination, ExpectedSiret: form.DestinationSiret()}
	case EventMarkTempStored, EventMarkTempStorerAccepted, EventMarkResealed:
		res = RoleResolution{Role: RoleRecipient, ExpectedSiret: form.RecipientCompanySiret}
	default:
		return RoleResolution{}, false
	}

	if res.ExpectedSiret == "" {
		return RoleResolution{}, false
	}
	return res, true
}

// CheckTransition runs both guards of a lifecycle edge: exact
// predecessor state and caller role. It returns the target status on
// success and never mutates the form.
func CheckTransition(form *models.Form, event TransitionEvent, callerSiret string) (models.FormStatus, error) {
	to, err := NextStatus(event, form.Status)
	if err != nil {
		return "", err
	}

	res, ok := ResolveRequiredRole(form, event)
	if !ok {
		return "", &InvalidTransitionError{Event: event, Actual: form.Status, Reason: "form has no company for the required role"}
	}
	if res.ExpectedSiret != callerSiret {
		return "", &UnauthorizedError{Role: res.Role, ExpectedSiret: res.ExpectedSiret, CallerSiret: callerSiret}
	}

	return to, nil
}

// groupingOperationCodes are the processing codes that denote a grouping or
// transfer operation and therefore require next-destination data.
var groupingOperationCodes = map[string]bool{
	"D 13": true,
	"D 14": true,
	"D 15": true,
	"R 12": true,
	"R 13": true,
}

func IsGroupingOperationCode(code string) bool {
	return groupingOperationCodes[code]
}
