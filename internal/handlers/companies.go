// internal/handlers/companies.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wastetrack/wastetrack-backend/internal/i18n"
	"github.com/wastetrack/wastetrack-backend/internal/models"
	"github.com/wastetrack/wastetrack-backend/internal/services"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

type CompanyHandler struct {
	companyService      *services.CompanyService
	notificationService *services.NotificationService
	authService         *services.AuthService
}

type addMemberRequest struct {
	UserID uuid.UUID          `json:"user_id" validate:"required"`
	Role   models.CompanyRole `json:"role,omitempty"`
}

func NewCompanyHandler(companyService *services.CompanyService, notificationService *services.NotificationService, authService *services.AuthService) *CompanyHandler {
	return &CompanyHandler{
		companyService:      companyService,
		notificationService: notificationService,
		authService:         authService,
	}
}

// POST /companies
func (h *CompanyHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	company, err := h.companyService.CreateCompany(userID, &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCompanyCreated),
		"company": company,
	})
}

// GET /companies
func (h *CompanyHandler) List(c *gin.Context) {
	params := services.CompanySearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}
	params.Search = c.Query("search")

	result, err := h.companyService.ListCompanies(&params)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /companies/:siret
func (h *CompanyHandler) Get(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	company, err := h.companyService.GetCompanyBySiret(c.Param("siret"))
	if err != nil {
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyCompanyNotFound))
		return
	}

	utils.SuccessResponse(c, gin.H{"company": company})
}

// PATCH /companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	companyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	userID, exists := currentUserID(c)
	if !exists {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	company, err := h.companyService.UpdateCompany(companyID, userID, &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCompanyUpdated),
		"company": company,
	})
}

// POST /companies/:id/members
func (h *CompanyHandler) AddMember(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	companyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if req.Role == "" {
		req.Role = models.CompanyRoleMember
	}

	callerID, exists := currentUserID(c)
	if !exists {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	association, err := h.companyService.AddMember(companyID, callerID, req.UserID, req.Role)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	// Confirmation email is best effort.
	if user, err := h.authService.GetUserByID(req.UserID); err == nil {
		if company, err := h.companyService.GetCompanyByID(companyID); err == nil {
			_ = h.notificationService.SendMembershipAddedEmail(user, company)
		}
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyMemberAdded),
		"association": association,
	})
}

// DELETE /companies/:id/members/:userId
func (h *CompanyHandler) RemoveMember(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	companyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "userId"), err.Error())
		return
	}

	callerID, exists := currentUserID(c)
	if !exists {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	if err := h.companyService.RemoveMember(companyID, callerID, userID); err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyMemberRemoved)})
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
