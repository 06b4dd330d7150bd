// internal/services/segmentchain.go
package services

import (
	"github.com/wastetrack/wastetrack-backend/internal/models"
)

// Transport segment chain guards. The chain only applies while the parent
// form is SENT or RESENT; each guard returns nil or a typed error and never
// mutates anything.

func formInTransit(status models.FormStatus) bool {
	return status == models.FormStatusSent || status == models.FormStatusResent
}

// CheckPrepareSegment allows the current carrier to open the next leg. At
// most one segment is in flight at a time: as long as the previous segment
// has not been taken over, preparing another one is rejected.
func CheckPrepareSegment(form *models.Form, callerSiret string) error {
	if !formInTransit(form.Status) {
		return &InvalidTransitionError{
			Event:    "PREPARE_SEGMENT",
			Expected: []models.FormStatus{models.FormStatusSent, models.FormStatusResent},
			Actual:   form.Status,
		}
	}

	if n := len(form.TransportSegments); n > 0 {
		last := form.TransportSegments[n-1]
		if last.TakenOverAt == nil {
			return &InvalidTransitionError{
				Event:  "PREPARE_SEGMENT",
				Actual: form.Status,
				Reason: "previous segment has not been taken over yet",
			}
		}
	}

	current := form.ActiveTransporterSiret()
	if current != callerSiret {
		return &UnauthorizedError{Role: RoleTransporter, ExpectedSiret: current, CallerSiret: callerSiret}
	}
	return nil
}

// CheckEditSegment guards segment edits. Before the hand-off the preparing
// carrier owns the segment; once ready (and until taken over) the designated
// next carrier may amend it, but not its transporter identity.
func CheckEditSegment(segment *models.TransportSegment, callerSiret string, touchesIdentity bool) error {
	if segment.TakenOverAt != nil {
		return &InvalidTransitionError{
			Event:  "EDIT_SEGMENT",
			Actual: models.FormStatusSent,
			Reason: "segment has already been taken over",
		}
	}

	if !segment.ReadyToTakeOver {
		if segment.PreviousTransporterCompanySiret != callerSiret {
			return &UnauthorizedError{
				Role:          RoleTransporter,
				ExpectedSiret: segment.PreviousTransporterCompanySiret,
				CallerSiret:   callerSiret,
			}
		}
		return nil
	}

	if segment.TransporterCompanySiret != callerSiret {
		return &UnauthorizedError{
			Role:          RoleTransporter,
			ExpectedSiret: segment.TransporterCompanySiret,
			CallerSiret:   callerSiret,
		}
	}
	if touchesIdentity {
		return &InvalidTransitionError{
			Event:  "EDIT_SEGMENT",
			Actual: models.FormStatusSent,
			Reason: "transporter identity is frozen once the segment is ready to take over",
		}
	}
	return nil
}

// CheckMarkSegmentAsReadyToTakeOver freezes a segment for hand-off. Only the
// carrier that prepared it may do so, and the next transporter identity must
// be filled in first.
func CheckMarkSegmentAsReadyToTakeOver(segment *models.TransportSegment, callerSiret string) error {
	if segment.ReadyToTakeOver {
		return &InvalidTransitionError{
			Event:  "MARK_SEGMENT_READY",
			Actual: models.FormStatusSent,
			Reason: "segment is already marked as ready to take over",
		}
	}
	if segment.TakenOverAt != nil {
		return &InvalidTransitionError{
			Event:  "MARK_SEGMENT_READY",
			Actual: models.FormStatusSent,
			Reason: "segment has already been taken over",
		}
	}
	if segment.PreviousTransporterCompanySiret != callerSiret {
		return &UnauthorizedError{
			Role:          RoleTransporter,
			ExpectedSiret: segment.PreviousTransporterCompanySiret,
			CallerSiret:   callerSiret,
		}
	}
	if segment.TransporterCompanySiret == "" {
		return &InvalidTransitionError{
			Event:  "MARK_SEGMENT_READY",
			Actual: models.FormStatusSent,
			Reason: "segment has no transporter to hand over to",
		}
	}
	return nil
}

// CheckTakeOverSegment allows the designated transporter to pick up the
// shipment, and no one else.
func CheckTakeOverSegment(segment *models.TransportSegment, callerSiret string) error {
	if segment.TakenOverAt != nil {
		return &InvalidTransitionError{
			Event:  "TAKE_OVER_SEGMENT",
			Actual: models.FormStatusSent,
			Reason: "segment has already been taken over",
		}
	}
	if !segment.ReadyToTakeOver {
		return &InvalidTransitionError{
			Event:  "TAKE_OVER_SEGMENT",
			Actual: models.FormStatusSent,
			Reason: "segment is not ready to take over",
		}
	}
	if segment.TransporterCompanySiret != callerSiret {
		return &UnauthorizedError{
			Role:          RoleTransporter,
			ExpectedSiret: segment.TransporterCompanySiret,
			CallerSiret:   callerSiret,
		}
	}
	return nil
}
