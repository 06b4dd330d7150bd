// internal/services/revision_service.go
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

// RevisionRequestService runs the consensus workflow that lets companies
// amend a form after it has advanced past DRAFT, with the agreement of
// every implicated company.
type RevisionRequestService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRevisionRequestService(db *gorm.DB) *RevisionRequestService {
	return &RevisionRequestService{db: db, now: time.Now}
}

func (s *RevisionRequestService) WithClock(now func() time.Time) *RevisionRequestService {
	return &RevisionRequestService{db: s.db, now: now}
}

type CreateRevisionRequest struct {
	FormID  uuid.UUID    `json:"form_id" validate:"required"`
	Comment string       `json:"comment" validate:"required"`
	Content models.JSONB `json:"content" validate:"required"`
}

// revisableFields whitelists the form columns a revision may amend.
var revisableFields = map[string]string{
	"waste_code":                       "waste_code",
	"waste_description":                "waste_description",
	"quantity_received":                "quantity_received",
	"processing_operation_done":        "processing_operation_done",
	"processing_description":           "processing_description",
	"next_destination_company_siret":   "next_destination_company_siret",
	"next_destination_company_name":    "next_destination_company_name",
	"next_destination_processing_code": "next_destination_processing_code",
}

// Create opens a revision request on a form past DRAFT. The implicated
// company set is computed from the form and one PENDING approval per company
// is created atomically with the request.
func (s *RevisionRequestService) Create(authoringCompanyID uuid.UUID, req *CreateRevisionRequest) (*models.RevisionRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	for field := range req.Content {
		if _, ok := revisableFields[field]; !ok {
			return nil, fmt.Errorf("field %q cannot be revised", field)
		}
	}

	var authoringCompany models.Company
	if err := s.db.First(&authoringCompany, authoringCompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var form models.Form
	if err := s.db.Where("is_deleted = ?", false).First(&form, req.FormID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if form.Status == models.FormStatusDraft {
		return nil, errors.New("a draft form can be edited directly, not revised")
	}

	implicated := append([]string{form.EmitterCompanySiret, form.RecipientCompanySiret, form.TransporterCompanySiret},
		form.DestinationCompanySiret)
	if !containsString(implicated, authoringCompany.Siret) {
		return nil, &UnauthorizedError{Role: RoleEmitter, ExpectedSiret: form.EmitterCompanySiret, CallerSiret: authoringCompany.Siret}
	}

	approverSirets := RevisionApproverSirets(&form, authoringCompany.Siret)
	if len(approverSirets) == 0 {
		return nil, errors.New("no company is implicated in this revision")
	}

	request := &models.RevisionRequest{
		FormID:             req.FormID,
		AuthoringCompanyID: authoringCompanyID,
		Status:             models.RevisionRequestStatusPending,
		Comment:            req.Comment,
		Content:            req.Content,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("failed to create revision request: %w", err)
		}
		for _, siret := range approverSirets {
			approval := &models.RevisionRequestApproval{
				RevisionRequestID: request.ID,
				ApproverSiret:     siret,
				Status:            models.ApprovalStatusPending,
			}
			if err := tx.Create(approval).Error; err != nil {
				return fmt.Errorf("failed to create approval: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Approvals").First(request, request.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload revision request: %w", err)
	}
	return request, nil
}

// Approve resolves the caller's own approval positively and finalizes the
// request when no approval is left pending.
func (s *RevisionRequestService) Approve(approvalID uuid.UUID, callerSiret, comment string) (*models.RevisionRequest, error) {
	return s.resolveApproval(approvalID, callerSiret, comment, models.ApprovalStatusAccepted)
}

// Refuse resolves the caller's own approval negatively; a single refusal
// refuses the whole request and cancels the remaining pending approvals.
func (s *RevisionRequestService) Refuse(approvalID uuid.UUID, callerSiret, comment string) (*models.RevisionRequest, error) {
	return s.resolveApproval(approvalID, callerSiret, comment, models.ApprovalStatusRefused)
}

// Cancel withdraws a still-pending request; only the authoring company may
// do so.
func (s *RevisionRequestService) Cancel(requestID uuid.UUID, callerCompanyID uuid.UUID) (*models.RevisionRequest, error) {
	var request models.RevisionRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if request.AuthoringCompanyID != callerCompanyID {
		return nil, errors.New("only the authoring company can cancel a revision request")
	}
	if request.Status != models.RevisionRequestStatusPending {
		return nil, fmt.Errorf("revision request is already %s", request.Status)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RevisionRequest{}).
			Where("id = ? AND status = ?", requestID, models.RevisionRequestStatusPending).
			Update("status", models.RevisionRequestStatusCanceled)
		if result.Error != nil {
			return fmt.Errorf("failed to cancel revision request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("revision request is no longer pending")
		}

		return tx.Model(&models.RevisionRequestApproval{}).
			Where("revision_request_id = ? AND status = ?", requestID, models.ApprovalStatusPending).
			Update("status", models.ApprovalStatusCanceled).Error
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.RevisionRequestStatusCanceled
	return &request, nil
}

func (s *RevisionRequestService) resolveApproval(approvalID uuid.UUID, callerSiret, comment string, status models.ApprovalStatus) (*models.RevisionRequest, error) {
	var approval models.RevisionRequestApproval
	if err := s.db.First(&approval, approvalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if approval.ApproverSiret != callerSiret {
		return nil, &UnauthorizedError{Role: RoleEmitter, ExpectedSiret: approval.ApproverSiret, CallerSiret: callerSiret}
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, fmt.Errorf("approval is already %s", approval.Status)
	}

	var request models.RevisionRequest
	if err := s.db.First(&request, approval.RevisionRequestID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if request.Status != models.RevisionRequestStatusPending {
		return nil, fmt.Errorf("revision request is already %s", request.Status)
	}

	now := s.now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RevisionRequestApproval{}).
			Where("id = ? AND status = ?", approvalID, models.ApprovalStatusPending).
			Updates(map[string]interface{}{
				"status":      status,
				"comment":     comment,
				"resolved_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update approval: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("approval is no longer pending")
		}

		return s.finalizeRequest(tx, &request)
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Approvals").First(&request, request.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload revision request: %w", err)
	}
	return &request, nil
}

// finalizeRequest recomputes the request outcome from its approvals.
// Approvals whose company was deleted since request creation do not block
// resolution; they are skipped.
func (s *RevisionRequestService) finalizeRequest(tx *gorm.DB, request *models.RevisionRequest) error {
	var approvals []models.RevisionRequestApproval
	if err := tx.Where("revision_request_id = ?", request.ID).
		Order("created_at ASC").Find(&approvals).Error; err != nil {
		return fmt.Errorf("failed to load approvals: %w", err)
	}

	views := make([]ApprovalView, 0, len(approvals))
	for _, approval := range approvals {
		view := ApprovalView{Status: approval.Status, CompanyExists: true}
		if approval.Status == models.ApprovalStatusPending {
			var count int64
			if err := tx.Model(&models.Company{}).
				Where("siret = ?", approval.ApproverSiret).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check company: %w", err)
			}
			view.CompanyExists = count > 0
		}
		views = append(views, view)
	}

	outcome, resolved := ResolveConsensus(views)
	if !resolved {
		return nil
	}

	result := tx.Model(&models.RevisionRequest{}).
		Where("id = ? AND status = ?", request.ID, models.RevisionRequestStatusPending).
		Update("status", outcome)
	if result.Error != nil {
		return fmt.Errorf("failed to finalize revision request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Already finalized by a concurrent resolution.
		return nil
	}

	if err := tx.Model(&models.RevisionRequestApproval{}).
		Where("revision_request_id = ? AND status = ?", request.ID, models.ApprovalStatusPending).
		Update("status", models.ApprovalStatusCanceled).Error; err != nil {
		return fmt.Errorf("failed to cancel remaining approvals: %w", err)
	}

	if outcome == models.RevisionRequestStatusAccepted {
		return s.applyRevision(tx, request)
	}
	return nil
}

// applyRevision writes the accepted amendment content onto the form.
func (s *RevisionRequestService) applyRevision(tx *gorm.DB, request *models.RevisionRequest) error {
	updates := map[string]interface{}{}
	for field, value := range request.Content {
		if column, ok := revisableFields[field]; ok {
			updates[column] = value
		}
	}
	if len(updates) == 0 {
		return nil
	}

	if err := tx.Model(&models.Form{}).Where("id = ?", request.FormID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to apply revision to form: %w", err)
	}

	statusLog := &models.StatusLog{
		FormID:        request.FormID,
		Status:        models.FormStatusRevised,
		LoggedAt:      s.now(),
		UpdatedFields: request.Content,
	}
	if err := tx.Create(statusLog).Error; err != nil {
		return fmt.Errorf("failed to log revision: %w", err)
	}
	return nil
}

// ApprovalWithSubscribers pairs a still-pending approval with its live
// company and the admins subscribed to revision request notifications.
type ApprovalWithSubscribers struct {
	Approval    models.RevisionRequestApproval `json:"approval"`
	Company     models.Company                 `json:"company"`
	Subscribers []models.User                  `json:"subscribers"`
}

// RequestWithApprovals is the unit returned to the notification job.
type RequestWithApprovals struct {
	Request          models.RevisionRequest    `json:"request"`
	PendingApprovals []ApprovalWithSubscribers `json:"pending_approvals"`
}

// GetPendingRequestsWithSubscribers returns the revision requests created
// exactly daysAgo days ago that are still PENDING, each with its pending
// approvals resolved to live companies and subscribed admins. Approvals
// whose company has been deleted since creation are dropped, not failed on.
// Results are in creation order and the read is side-effect free, so two
// calls without intervening writes return identical results.
func (s *RevisionRequestService) GetPendingRequestsWithSubscribers(daysAgo int) ([]RequestWithApprovals, error) {
	windowStart, windowEnd := utils.DayWindow(s.now(), daysAgo)

	var requests []models.RevisionRequest
	if err := s.db.
		Where("status = ? AND created_at >= ? AND created_at < ?", models.RevisionRequestStatusPending, windowStart, windowEnd).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Form").
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to load pending revision requests: %w", err)
	}

	// Bulk-resolve every implicated SIRET in one query.
	siretSet := map[string]bool{}
	for _, request := range requests {
		for _, approval := range request.Approvals {
			if approval.Status == models.ApprovalStatusPending {
				siretSet[approval.ApproverSiret] = true
			}
		}
	}
	sirets := make([]string, 0, len(siretSet))
	for siret := range siretSet {
		sirets = append(sirets, siret)
	}

	companiesBySiret := map[string]models.Company{}
	subscribersBySiret := map[string][]models.User{}
	if len(sirets) > 0 {
		var companies []models.Company
		if err := s.db.Where("siret IN ?", sirets).
			Preload("Associations", "role = ?", models.CompanyRoleAdmin).
			Preload("Associations.User").
			Find(&companies).Error; err != nil {
			return nil, fmt.Errorf("failed to load companies: %w", err)
		}
		for _, company := range companies {
			companiesBySiret[company.Siret] = company
			for _, assoc := range company.Associations {
				if assoc.User.IsActive && assoc.User.NotifyRevisionRequests {
					subscribersBySiret[company.Siret] = append(subscribersBySiret[company.Siret], assoc.User)
				}
			}
		}
	}

	results := make([]RequestWithApprovals, 0, len(requests))
	for _, request := range requests {
		entry := RequestWithApprovals{Request: request}
		for _, approval := range request.Approvals {
			if approval.Status != models.ApprovalStatusPending {
				continue
			}
			company, exists := companiesBySiret[approval.ApproverSiret]
			if !exists {
				// Company deleted since the request was created.
				continue
			}
			entry.PendingApprovals = append(entry.PendingApprovals, ApprovalWithSubscribers{
				Approval:    approval,
				Company:     company,
				Subscribers: subscribersBySiret[approval.ApproverSiret],
			})
		}
		results = append(results, entry)
	}
	return results, nil
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
