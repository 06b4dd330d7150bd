// internal/handlers/revisions.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wastetrack/wastetrack-backend/internal/i18n"
	"github.com/wastetrack/wastetrack-backend/internal/models"
	"github.com/wastetrack/wastetrack-backend/internal/services"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

type RevisionHandler struct {
	revisionService *services.RevisionRequestService
	companyService  *services.CompanyService
}

type resolveApprovalRequest struct {
	Comment string `json:"comment,omitempty"`
}

func NewRevisionHandler(revisionService *services.RevisionRequestService, companyService *services.CompanyService) *RevisionHandler {
	return &RevisionHandler{
		revisionService: revisionService,
		companyService:  companyService,
	}
}

// POST /revisions
func (h *RevisionHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	company, err := h.callerCompany(c)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	request, err := h.revisionService.Create(company.ID, &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyRevisionCreated),
		"revision": request,
	})
}

// POST /revisions/approvals/:id/accept
func (h *RevisionHandler) Accept(c *gin.Context) {
	h.resolve(c, true)
}

// POST /revisions/approvals/:id/refuse
func (h *RevisionHandler) Refuse(c *gin.Context) {
	h.resolve(c, false)
}

func (h *RevisionHandler) resolve(c *gin.Context, accept bool) {
	lang := utils.GetLangFromContext(c)

	approvalID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req resolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	var request *models.RevisionRequest
	var err error
	messageKey := i18n.KeyRevisionApproved
	if accept {
		request, err = h.revisionService.Approve(approvalID, callerSiret(c), req.Comment)
	} else {
		request, err = h.revisionService.Refuse(approvalID, callerSiret(c), req.Comment)
		messageKey = i18n.KeyRevisionRefused
	}
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, messageKey),
		"revision": request,
	})
}

// POST /revisions/:id/cancel
func (h *RevisionHandler) Cancel(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	requestID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	company, err := h.callerCompany(c)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	request, err := h.revisionService.Cancel(requestID, company.ID)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyRevisionCanceled),
		"revision": request,
	})
}

func (h *RevisionHandler) callerCompany(c *gin.Context) (*models.Company, error) {
	return h.companyService.GetCompanyBySiret(callerSiret(c))
}
