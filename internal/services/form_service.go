// internal/services/form_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/wastetrack/wastetrack-backend/internal/models"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

type FormService struct {
	db   *gorm.DB
	hook FormDeletedHook
	now  func() time.Time
}

type CompanyInput struct {
	Siret   string `json:"siret" validate:"required,siret"`
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address,omitempty" validate:"max=255"`
	Contact string `json:"contact,omitempty" validate:"max=255"`
	Phone   string `json:"phone,omitempty" validate:"max=30"`
	Mail    string `json:"mail,omitempty" validate:"omitempty,email"`
}

type CreateFormRequest struct {
	EmitterType             models.EmitterType `json:"emitter_type,omitempty"`
	Emitter                 CompanyInput       `json:"emitter" validate:"required"`
	Transporter             *CompanyInput      `json:"transporter,omitempty"`
	TransporterReceipt      string             `json:"transporter_receipt,omitempty" validate:"max=50"`
	Recipient               *CompanyInput      `json:"recipient,omitempty"`
	RecipientIsTempStorage  bool               `json:"recipient_is_temp_storage,omitempty"`
	Destination             *CompanyInput      `json:"destination,omitempty"`
	RecipientProcessingCode string             `json:"recipient_processing_code,omitempty" validate:"max=10"`
	WasteCode               string             `json:"waste_code" validate:"required,waste_code"`
	WasteName               string             `json:"waste_name,omitempty" validate:"max=255"`
	Packagings              []string           `json:"packagings,omitempty"`
	QuantityEstimated       float64            `json:"quantity_estimated,omitempty" validate:"min=0"`
}

type UpdateFormRequest struct {
	Transporter             *CompanyInput `json:"transporter,omitempty"`
	TransporterReceipt      *string       `json:"transporter_receipt,omitempty"`
	Recipient               *CompanyInput `json:"recipient,omitempty"`
	Destination             *CompanyInput `json:"destination,omitempty"`
	RecipientProcessingCode *string       `json:"recipient_processing_code,omitempty"`
	WasteCode               *string       `json:"waste_code,omitempty" validate:"omitempty,waste_code"`
	WasteName               *string       `json:"waste_name,omitempty"`
	Packagings              []string      `json:"packagings,omitempty"`
	QuantityEstimated       *float64      `json:"quantity_estimated,omitempty" validate:"omitempty,min=0"`
}

type GroupFormsRequest struct {
	InitialFormIDs []uuid.UUID `json:"initial_form_ids" validate:"required,min=1"`
}

type FormSearchParams struct {
	utils.PaginationParams
	Siret       string              `json:"siret,omitempty"`
	Status      *models.FormStatus  `json:"status,omitempty"`
	EmitterType *models.EmitterType `json:"emitter_type,omitempty"`
	WasteCode   string              `json:"waste_code,omitempty"`
}

func NewFormService(db *gorm.DB, hook FormDeletedHook) *FormService {
	return &FormService{db: db, hook: hook, now: time.Now}
}

func (s *FormService) WithClock(now func() time.Time) *FormService {
	return &FormService{db: s.db, hook: s.hook, now: now}
}

// CreateForm opens a new DRAFT form on behalf of the emitter.
func (s *FormService) CreateForm(callerSiret string, req *CreateFormRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	emitterType := req.EmitterType
	if emitterType == "" {
		emitterType = models.EmitterTypeProducer
	}

	readableID, err := utils.GenerateReadableID("BSD", s.now().Format("20060102"))
	if err != nil {
		return nil, fmt.Errorf("failed to generate readable id: %w", err)
	}

	form := &models.Form{
		ReadableID:              readableID,
		Status:                  models.FormStatusDraft,
		EmitterType:             emitterType,
		EmitterCompanySiret:     req.Emitter.Siret,
		EmitterCompanyName:      req.Emitter.Name,
		EmitterCompanyAddress:   req.Emitter.Address,
		EmitterCompanyContact:   req.Emitter.Contact,
		EmitterCompanyPhone:     req.Emitter.Phone,
		EmitterCompanyMail:      req.Emitter.Mail,
		RecipientIsTempStorage:  req.RecipientIsTempStorage,
		ProcessingOperationCode: req.RecipientProcessingCode,
		TransporterReceipt:      req.TransporterReceipt,
		WasteCode:               req.WasteCode,
		WasteDescription:        req.WasteName,
		Packagings:              req.Packagings,
		QuantityEstimated:       req.QuantityEstimated,
	}
	if req.Transporter != nil {
		form.TransporterCompanySiret = req.Transporter.Siret
		form.TransporterCompanyName = req.Transporter.Name
		form.TransporterCompanyAddress = req.Transporter.Address
		form.TransporterCompanyContact = req.Transporter.Contact
		form.TransporterCompanyPhone = req.Transporter.Phone
		form.TransporterCompanyMail = req.Transporter.Mail
	}
	if req.Recipient != nil {
		form.RecipientCompanySiret = req.Recipient.Siret
		form.RecipientCompanyName = req.Recipient.Name
		form.RecipientCompanyAddress = req.Recipient.Address
		form.RecipientCompanyContact = req.Recipient.Contact
		form.RecipientCompanyPhone = req.Recipient.Phone
		form.RecipientCompanyMail = req.Recipient.Mail
	}
	if req.Destination != nil {
		form.DestinationCompanySiret = req.Destination.Siret
		form.DestinationCompanyName = req.Destination.Name
		form.DestinationCompanyAddress = req.Destination.Address
		form.DestinationCompanyContact = req.Destination.Contact
		form.DestinationCompanyPhone = req.Destination.Phone
		form.DestinationCompanyMail = req.Destination.Mail
	}

	if !formImplicatesSiret(form, callerSiret) {
		return nil, &UnauthorizedError{
			Role:        "creator",
			CallerSiret: callerSiret,
		}
	}

	if err := s.db.Create(form).Error; err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	return form, nil
}

// UpdateForm applies partial edits to a form still in DRAFT or SEALED.
func (s *FormService) UpdateForm(formID uuid.UUID, callerSiret string, req *UpdateFormRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	form, err := s.GetForm(formID, callerSiret)
	if err != nil {
		return nil, err
	}
	if form.Status != models.FormStatusDraft && form.Status != models.FormStatusSealed {
		return nil, &InvalidTransitionError{
			Event:  "UPDATE",
			Actual: form.Status,
			Reason: "only DRAFT and SEALED forms can be edited directly",
		}
	}

	updates := map[string]interface{}{}
	if req.Transporter != nil {
		updates["transporter_company_siret"] = req.Transporter.Siret
		updates["transporter_company_name"] = req.Transporter.Name
		updates["transporter_company_address"] = req.Transporter.Address
		updates["transporter_company_contact"] = req.Transporter.Contact
		updates["transporter_company_phone"] = req.Transporter.Phone
		updates["transporter_company_mail"] = req.Transporter.Mail
	}
	if req.TransporterReceipt != nil {
		updates["transporter_receipt"] = *req.TransporterReceipt
	}
	if req.Recipient != nil {
		updates["recipient_company_siret"] = req.Recipient.Siret
		updates["recipient_company_name"] = req.Recipient.Name
		updates["recipient_company_address"] = req.Recipient.Address
		updates["recipient_company_contact"] = req.Recipient.Contact
		updates["recipient_company_phone"] = req.Recipient.Phone
		updates["recipient_company_mail"] = req.Recipient.Mail
	}
	if req.Destination != nil {
		updates["destination_company_siret"] = req.Destination.Siret
		updates["destination_company_name"] = req.Destination.Name
		updates["destination_company_address"] = req.Destination.Address
		updates["destination_company_contact"] = req.Destination.Contact
		updates["destination_company_phone"] = req.Destination.Phone
		updates["destination_company_mail"] = req.Destination.Mail
	}
	if req.RecipientProcessingCode != nil {
		updates["processing_operation_code"] = *req.RecipientProcessingCode
	}
	if req.WasteCode != nil {
		updates["waste_code"] = *req.WasteCode
	}
	if req.WasteName != nil {
		updates["waste_description"] = *req.WasteName
	}
	if req.Packagings != nil {
		updates["packagings"] = pq.StringArray(req.Packagings)
	}
	if req.QuantityEstimated != nil {
		updates["quantity_estimated"] = *req.QuantityEstimated
	}
	if len(updates) == 0 {
		return form, nil
	}

	if err := s.db.Model(form).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update form: %w", err)
	}
	return s.GetForm(formID, callerSiret)
}

// DeleteForm soft-deletes a form that has not yet entered circulation and
// runs the deletion cascade.
func (s *FormService) DeleteForm(ctx context.Context, formID uuid.UUID, callerSiret string) error {
	form, err := s.GetForm(formID, callerSiret)
	if err != nil {
		return err
	}
	if form.Status != models.FormStatusDraft && form.Status != models.FormStatusSealed {
		return &InvalidTransitionError{
			Event:  "DELETE",
			Actual: form.Status,
			Reason: "a form in circulation can no longer be deleted",
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Form{}).
			Where("id = ? AND is_deleted = ?", formID, false).
			Update("is_deleted", true).Error; err != nil {
			return fmt.Errorf("failed to delete form: %w", err)
		}
		if err := tx.Where("next_form_id = ? OR initial_form_id = ?", formID, formID).
			Delete(&models.Grouping{}).Error; err != nil {
			return fmt.Errorf("failed to delete grouping rows: %w", err)
		}
		if s.hook != nil {
			if err := s.hook.OnFormDeleted(ctx, formID); err != nil {
				return fmt.Errorf("deletion hook failed: %w", err)
			}
		}
		return nil
	})
}

// GetForm loads a form with its relations. Only companies appearing on the
// form may read it.
func (s *FormService) GetForm(formID uuid.UUID, callerSiret string) (*models.Form, error) {
	var form models.Form
	err := s.db.
		Preload("TransportSegments", func(db *gorm.DB) *gorm.DB {
			return db.Order("segment_number ASC")
		}).
		Preload("Groupings").
		Preload("RevisionRequests", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("RevisionRequests.Approvals").
		Where("id = ? AND is_deleted = ?", formID, false).
		First(&form).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load form: %w", err)
	}

	if !formImplicatesSiret(&form, callerSiret) {
		return nil, &UnauthorizedError{
			Role:        "reader",
			CallerSiret: callerSiret,
		}
	}
	return &form, nil
}

// ListForms returns the caller's forms, newest first by default.
func (s *FormService) ListForms(params *FormSearchParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Form{}).Where("is_deleted = ?", false)

	if params.Siret != "" {
		query = query.Where(
			`emitter_company_siret = ? OR transporter_company_siret = ?
			 OR recipient_company_siret = ? OR destination_company_siret = ?
			 OR current_transporter_siret = ?`,
			params.Siret, params.Siret, params.Siret, params.Siret, params.Siret)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.EmitterType != nil {
		query = query.Where("emitter_type = ?", *params.EmitterType)
	}
	if params.WasteCode != "" {
		query = query.Where("waste_code = ?", params.WasteCode)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count forms: %w", err)
	}

	var forms []models.Form
	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "updated_at", "status", "waste_code"})
	query = utils.ApplyPagination(query, params.PaginationParams)
	if err := query.Find(&forms).Error; err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	result := utils.CreatePaginationResult(forms, total, params.PaginationParams)
	return &result, nil
}

// GroupForms attaches initial forms to an APPENDIX1 container, replacing the
// previous attachment set.
func (s *FormService) GroupForms(containerID uuid.UUID, callerSiret string, req *GroupFormsRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	container, err := s.GetForm(containerID, callerSiret)
	if err != nil {
		return err
	}
	if container.EmitterType != models.EmitterTypeAppendix1 {
		return &InvalidTransitionError{
			Event:  "GROUP",
			Actual: container.Status,
			Reason: "only an APPENDIX1 container can group other forms",
		}
	}

	var count int64
	if err := s.db.Model(&models.Form{}).
		Where("id IN ? AND emitter_type = ? AND is_deleted = ?",
			req.InitialFormIDs, models.EmitterTypeAppendix1Producer, false).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check grouped forms: %w", err)
	}
	if count != int64(len(req.InitialFormIDs)) {
		return fmt.Errorf("%w: one or more grouped forms do not exist or are not producer forms", ErrNotFound)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("next_form_id = ?", containerID).
			Delete(&models.Grouping{}).Error; err != nil {
			return fmt.Errorf("failed to clear groupings: %w", err)
		}
		for _, id := range req.InitialFormIDs {
			grouping := &models.Grouping{NextFormID: containerID, InitialFormID: id}
			if err := tx.Create(grouping).Error; err != nil {
				return fmt.Errorf("failed to create grouping: %w", err)
			}
		}
		return nil
	})
}

// formImplicatesSiret reports whether the siret appears anywhere on the form.
func formImplicatesSiret(form *models.Form, siret string) bool {
	if siret == "" {
		return false
	}
	for _, s := range []string{
		form.EmitterCompanySiret,
		form.TransporterCompanySiret,
		form.RecipientCompanySiret,
		form.DestinationCompanySiret,
		form.CurrentTransporterSiret,
		form.NextDestinationCompanySiret,
	} {
		if s == siret {
			return true
		}
	}
	for _, seg := range form.TransportSegments {
		if seg.TransporterCompanySiret == siret {
			return true
		}
	}
	return false
}
