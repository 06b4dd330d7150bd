// internal/services/lifecycle_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wastetrack/wastetrack-backend/internal/metrics"
	"github.com/wastetrack/wastetrack-backend/internal/models"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

// FormLifecycleService drives the form status state machine. Every operation
// re-reads the form, checks both guards and performs a conditional write on
// the previous status, so two concurrent calls for the same edge resolve to
// exactly one winner.
type FormLifecycleService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewFormLifecycleService(db *gorm.DB) *FormLifecycleService {
	return &FormLifecycleService{db: db, now: time.Now}
}

// WithClock overrides the time source, used by scheduled jobs and tests.
func (s *FormLifecycleService) WithClock(now func() time.Time) *FormLifecycleService {
	return &FormLifecycleService{db: s.db, now: now}
}

type SignByTransporterRequest struct {
	SentBy      string `json:"sent_by" validate:"required"`
	NumberPlate string `json:"number_plate,omitempty"`
}

type MarkReceivedRequest struct {
	ReceivedBy       string   `json:"received_by" validate:"required"`
	QuantityReceived *float64 `json:"quantity_received" validate:"required"`
	QuantityRefused  *float64 `json:"quantity_refused,omitempty"`
	RefusalReason    string   `json:"refusal_reason,omitempty"`
}

type MarkAcceptedRequest struct {
	AcceptedBy string `json:"accepted_by" validate:"required"`
}

type MarkProcessedRequest struct {
	ProcessedBy             string `json:"processed_by" validate:"required"`
	ProcessingOperationDone string `json:"processing_operation_done" validate:"required"`
	ProcessingDescription   string `json:"processing_description,omitempty"`

	NextDestinationCompanySiret   string `json:"next_destination_company_siret,omitempty" validate:"omitempty,siret"`
	NextDestinationCompanyName    string `json:"next_destination_company_name,omitempty"`
	NextDestinationProcessingCode string `json:"next_destination_processing_code,omitempty"`
}

type MarkTempStoredRequest struct {
	ReceivedBy       string   `json:"received_by" validate:"required"`
	QuantityReceived *float64 `json:"quantity_received" validate:"required"`
	QuantityRefused  *float64 `json:"quantity_refused,omitempty"`
}

type MarkTempStorerAcceptedRequest struct {
	AcceptedBy string `json:"accepted_by" validate:"required"`
}

type MarkResealedRequest struct {
	TransporterCompanySiret string `json:"transporter_company_siret" validate:"required,siret"`
	TransporterCompanyName  string `json:"transporter_company_name,omitempty"`
	TransporterReceipt      string `json:"transporter_receipt,omitempty"`
}

// Seal moves a DRAFT form to SEALED; only the emitter may do it.
func (s *FormLifecycleService) Seal(formID uuid.UUID, callerSiret string) (*models.Form, error) {
	now := s.now()
	return s.applyTransition(formID, callerSiret, EventSeal, models.JSONB{
		"sealed_at": now,
	}, map[string]interface{}{
		"sealed_at": now,
	})
}

// SignByTransporter is the take-over signature: SEALED forms go to SENT,
// RESEALED forms (leaving temporary storage) go to RESENT.
func (s *FormLifecycleService) SignByTransporter(formID uuid.UUID, callerSiret string, req *SignByTransporterRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	updates := map[string]interface{}{
		"sent_at":       now,
		"taken_over_at": now,
		"sent_by":       req.SentBy,
	}
	return s.applyTransition(formID, callerSiret, EventSignedByTransporter, models.JSONB{
		"sent_by":       req.SentBy,
		"taken_over_at": now,
	}, updates)
}

// MarkReceived records arrival at the destination; SENT and RESENT are its
// only legal predecessors.
func (s *FormLifecycleService) MarkReceived(formID uuid.UUID, callerSiret string, req *MarkReceivedRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	updates := map[string]interface{}{
		"received_at":       now,
		"received_by":       req.ReceivedBy,
		"quantity_received": req.QuantityReceived,
	}
	if req.QuantityRefused != nil {
		updates["quantity_refused"] = req.QuantityRefused
		updates["waste_refusal_reason"] = req.RefusalReason
	}
	return s.applyTransition(formID, callerSiret, EventMarkReceived, models.JSONB{
		"received_by":       req.ReceivedBy,
		"quantity_received": req.QuantityReceived,
	}, updates)
}

func (s *FormLifecycleService) MarkAccepted(formID uuid.UUID, callerSiret string, req *MarkAcceptedRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	return s.applyTransition(formID, callerSiret, EventMarkAccepted, models.JSONB{
		"accepted_by": req.AcceptedBy,
	}, map[string]interface{}{
		"accepted_at": now,
	})
}

// MarkProcessed closes the lifecycle. Grouping and transfer operation codes
// require next-destination data: the waste leaves the site again and its
// paper trail must say where to.
func (s *FormLifecycleService) MarkProcessed(formID uuid.UUID, callerSiret string, req *MarkProcessedRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if IsGroupingOperationCode(req.ProcessingOperationDone) && req.NextDestinationCompanySiret == "" {
		return nil, &InvalidTransitionError{
			Event:  EventMarkProcessed,
			Actual: models.FormStatusAccepted,
			Reason: fmt.Sprintf("processing code %s requires next destination data", req.ProcessingOperationDone),
		}
	}

	now := s.now()
	updates := map[string]interface{}{
		"processed_at":              now,
		"processed_by":              req.ProcessedBy,
		"processing_operation_done": req.ProcessingOperationDone,
		"processing_description":    req.ProcessingDescription,
	}
	if req.NextDestinationCompanySiret != "" {
		updates["next_destination_company_siret"] = req.NextDestinationCompanySiret
		updates["next_destination_company_name"] = req.NextDestinationCompanyName
		updates["next_destination_processing_code"] = req.NextDestinationProcessingCode
	}
	return s.applyTransition(formID, callerSiret, EventMarkProcessed, models.JSONB{
		"processed_by":              req.ProcessedBy,
		"processing_operation_done": req.ProcessingOperationDone,
	}, updates)
}

func (s *FormLifecycleService) MarkTempStored(formID uuid.UUID, callerSiret string, req *MarkTempStoredRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	updates := map[string]interface{}{
		"temp_stored_at":    now,
		"received_by":       req.ReceivedBy,
		"quantity_received": req.QuantityReceived,
	}
	if req.QuantityRefused != nil {
		updates["quantity_refused"] = req.QuantityRefused
	}
	return s.applyTransition(formID, callerSiret, EventMarkTempStored, models.JSONB{
		"received_by":       req.ReceivedBy,
		"quantity_received": req.QuantityReceived,
	}, updates)
}

func (s *FormLifecycleService) MarkTempStorerAccepted(formID uuid.UUID, callerSiret string, req *MarkTempStorerAcceptedRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	return s.applyTransition(formID, callerSiret, EventMarkTempStorerAccepted, models.JSONB{
		"accepted_by": req.AcceptedBy,
	}, map[string]interface{}{
		"temp_storer_accepted_at": now,
	})
}

// MarkResealed re-opens the transport phase out of temporary storage with a
// fresh transporter.
func (s *FormLifecycleService) MarkResealed(formID uuid.UUID, callerSiret string, req *MarkResealedRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	return s.applyTransition(formID, callerSiret, EventMarkResealed, models.JSONB{
		"transporter_company_siret": req.TransporterCompanySiret,
	}, map[string]interface{}{
		"resealed_at":               now,
		"transporter_company_siret": req.TransporterCompanySiret,
		"transporter_company_name":  req.TransporterCompanyName,
		"transporter_receipt":       req.TransporterReceipt,
		"current_transporter_siret": "",
	})
}

// applyTransition loads the form, runs the guards and performs the
// conditional status write plus the status log in one transaction. The
// WHERE status = <from> clause is the optimistic guard: the losing caller of
// a race observes the state already advanced and gets an InvalidTransition.
// stampResent records the second departure out of temporary storage. RESENT
// is the one target that depends on the predecessor state, so it is stamped
// once the transition table has resolved it.
func stampResent(updates map[string]interface{}, to models.FormStatus, now time.Time) {
	if to == models.FormStatusResent {
		updates["resent_at"] = now
	}
}

func (s *FormLifecycleService) applyTransition(formID uuid.UUID, callerSiret string, event TransitionEvent, loggedFields models.JSONB, updates map[string]interface{}) (*models.Form, error) {
	var form models.Form
	if err := s.db.Preload("TransportSegments", func(db *gorm.DB) *gorm.DB {
		return db.Order("segment_number ASC")
	}).Where("is_deleted = ?", false).First(&form, formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	to, err := CheckTransition(&form, event, callerSiret)
	if err != nil {
		if IsUnauthorized(err) {
			metrics.RejectedTransitions.WithLabelValues(string(event), "unauthorized").Inc()
		} else {
			metrics.RejectedTransitions.WithLabelValues(string(event), "invalid_transition").Inc()
		}
		return nil, err
	}

	from := form.Status
	updates["status"] = to
	stampResent(updates, to, s.now())

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Form{}).
			Where("id = ? AND status = ? AND is_deleted = ?", formID, from, false).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update form: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Lost the race: someone advanced the form first.
			var current models.Form
			if err := tx.First(&current, formID).Error; err != nil {
				return ErrNotFound
			}
			return &InvalidTransitionError{Event: event, Expected: []models.FormStatus{from}, Actual: current.Status}
		}

		statusLog := &models.StatusLog{
			FormID:        formID,
			AuthorSiret:   callerSiret,
			Status:        to,
			LoggedAt:      s.now(),
			UpdatedFields: loggedFields,
		}
		if err := tx.Create(statusLog).Error; err != nil {
			return fmt.Errorf("failed to create status log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.FormTransitions.WithLabelValues(string(event)).Inc()

	if err := s.db.Preload("TransportSegments").First(&form, formID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload form: %w", err)
	}
	return &form, nil
}
