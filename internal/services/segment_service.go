// internal/services/segment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wastetrack/wastetrack-backend/internal/models"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

// TransportSegmentService implements the multi-modal relay: successive
// carriers prepare, freeze and take over segments while the form stays in
// SENT or RESENT.
type TransportSegmentService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTransportSegmentService(db *gorm.DB) *TransportSegmentService {
	return &TransportSegmentService{db: db, now: time.Now}
}

func (s *TransportSegmentService) WithClock(now func() time.Time) *TransportSegmentService {
	return &TransportSegmentService{db: s.db, now: now}
}

type PrepareSegmentRequest struct {
	TransporterCompanySiret string               `json:"transporter_company_siret" validate:"required,siret"`
	TransporterCompanyName  string               `json:"transporter_company_name,omitempty"`
	TransporterReceipt      string               `json:"transporter_receipt,omitempty"`
	TransporterDepartment   string               `json:"transporter_department,omitempty"`
	Mode                    models.TransportMode `json:"mode,omitempty"`
}

type EditSegmentRequest struct {
	TransporterCompanySiret string               `json:"transporter_company_siret,omitempty" validate:"omitempty,siret"`
	TransporterCompanyName  string               `json:"transporter_company_name,omitempty"`
	TransporterReceipt      string               `json:"transporter_receipt,omitempty"`
	TransporterDepartment   string               `json:"transporter_department,omitempty"`
	TransporterNumberPlate  string               `json:"transporter_number_plate,omitempty"`
	Mode                    models.TransportMode `json:"mode,omitempty"`
}

type TakeOverSegmentRequest struct {
	TakenOverBy string     `json:"taken_over_by" validate:"required"`
	TakenOverAt *time.Time `json:"taken_over_at,omitempty"`
}

// PrepareSegment creates the next leg of the relay for the current carrier.
func (s *TransportSegmentService) PrepareSegment(formID uuid.UUID, callerSiret string, req *PrepareSegmentRequest) (*models.TransportSegment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	form, err := s.loadForm(formID)
	if err != nil {
		return nil, err
	}

	if err := CheckPrepareSegment(form, callerSiret); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = models.TransportModeRoad
	}

	segment := &models.TransportSegment{
		FormID:                          formID,
		SegmentNumber:                   len(form.TransportSegments) + 1,
		Mode:                            mode,
		TransporterCompanySiret:         req.TransporterCompanySiret,
		TransporterCompanyName:          req.TransporterCompanyName,
		TransporterReceipt:              req.TransporterReceipt,
		TransporterDepartment:           req.TransporterDepartment,
		PreviousTransporterCompanySiret: callerSiret,
	}

	if err := s.db.Create(segment).Error; err != nil {
		return nil, fmt.Errorf("failed to create transport segment: %w", err)
	}
	return segment, nil
}

// EditSegment amends the not-yet-resolved last segment, within the ownership
// rules of the chain.
func (s *TransportSegmentService) EditSegment(segmentID uuid.UUID, callerSiret string, req *EditSegmentRequest) (*models.TransportSegment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	segment, err := s.loadSegment(segmentID)
	if err != nil {
		return nil, err
	}

	touchesIdentity := req.TransporterCompanySiret != "" && req.TransporterCompanySiret != segment.TransporterCompanySiret
	if err := CheckEditSegment(segment, callerSiret, touchesIdentity); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.TransporterCompanySiret != "" {
		updates["transporter_company_siret"] = req.TransporterCompanySiret
	}
	if req.TransporterCompanyName != "" {
		updates["transporter_company_name"] = req.TransporterCompanyName
	}
	if req.TransporterReceipt != "" {
		updates["transporter_receipt"] = req.TransporterReceipt
	}
	if req.TransporterDepartment != "" {
		updates["transporter_department"] = req.TransporterDepartment
	}
	if req.TransporterNumberPlate != "" {
		updates["transporter_number_plate"] = req.TransporterNumberPlate
	}
	if req.Mode != "" {
		updates["mode"] = req.Mode
	}

	if len(updates) > 0 {
		if err := s.db.Model(segment).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update transport segment: %w", err)
		}
	}
	return segment, nil
}

// MarkSegmentAsReadyToTakeOver freezes the segment's transporter identity
// and opens it for take-over by the next carrier.
func (s *TransportSegmentService) MarkSegmentAsReadyToTakeOver(segmentID uuid.UUID, callerSiret string) (*models.TransportSegment, error) {
	segment, err := s.loadSegment(segmentID)
	if err != nil {
		return nil, err
	}

	if err := CheckMarkSegmentAsReadyToTakeOver(segment, callerSiret); err != nil {
		return nil, err
	}

	result := s.db.Model(&models.TransportSegment{}).
		Where("id = ? AND ready_to_take_over = ? AND taken_over_at IS NULL", segmentID, false).
		Update("ready_to_take_over", true)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update transport segment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &InvalidTransitionError{
			Event:  "MARK_SEGMENT_READY",
			Actual: models.FormStatusSent,
			Reason: "segment is already marked as ready to take over",
		}
	}

	segment.ReadyToTakeOver = true
	return segment, nil
}

// TakeOverSegment records the hand-off and makes the segment's transporter
// the form's active carrier.
func (s *TransportSegmentService) TakeOverSegment(segmentID uuid.UUID, callerSiret string, req *TakeOverSegmentRequest) (*models.TransportSegment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	segment, err := s.loadSegment(segmentID)
	if err != nil {
		return nil, err
	}

	if err := CheckTakeOverSegment(segment, callerSiret); err != nil {
		return nil, err
	}

	takenOverAt := s.now()
	if req.TakenOverAt != nil {
		takenOverAt = *req.TakenOverAt
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TransportSegment{}).
			Where("id = ? AND ready_to_take_over = ? AND taken_over_at IS NULL", segmentID, true).
			Updates(map[string]interface{}{
				"taken_over_at": takenOverAt,
				"taken_over_by": req.TakenOverBy,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update transport segment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &InvalidTransitionError{
				Event:  "TAKE_OVER_SEGMENT",
				Actual: models.FormStatusSent,
				Reason: "segment has already been taken over",
			}
		}

		if err := tx.Model(&models.Form{}).
			Where("id = ?", segment.FormID).
			Update("current_transporter_siret", segment.TransporterCompanySiret).Error; err != nil {
			return fmt.Errorf("failed to update form transporter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	segment.TakenOverAt = &takenOverAt
	segment.TakenOverBy = req.TakenOverBy
	return segment, nil
}

func (s *TransportSegmentService) loadForm(formID uuid.UUID) (*models.Form, error) {
	var form models.Form
	if err := s.db.Preload("TransportSegments", func(db *gorm.DB) *gorm.DB {
		return db.Order("segment_number ASC")
	}).Where("is_deleted = ?", false).First(&form, formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &form, nil
}

func (s *TransportSegmentService) loadSegment(segmentID uuid.UUID) (*models.TransportSegment, error) {
	var segment models.TransportSegment
	if err := s.db.First(&segment, segmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &segment, nil
}
