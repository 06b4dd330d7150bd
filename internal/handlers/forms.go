// internal/handlers/forms.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wastetrack/wastetrack-backend/internal/i18n"
	"github.com/wastetrack/wastetrack-backend/internal/models"
	"github.com/wastetrack/wastetrack-backend/internal/services"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

type FormHandler struct {
	formService      *services.FormService
	lifecycleService *services.FormLifecycleService
}

func NewFormHandler(formService *services.FormService, lifecycleService *services.FormLifecycleService) *FormHandler {
	return &FormHandler{
		formService:      formService,
		lifecycleService: lifecycleService,
	}
}

// POST /forms
func (h *FormHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	form, err := h.formService.CreateForm(callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormCreated),
		"form":    form,
	})
}

// GET /forms
func (h *FormHandler) List(c *gin.Context) {
	params := services.FormSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		Siret:            callerSiret(c),
		WasteCode:        c.Query("waste_code"),
	}
	if status := c.Query("status"); status != "" {
		s := models.FormStatus(status)
		params.Status = &s
	}
	if emitterType := c.Query("emitter_type"); emitterType != "" {
		t := models.EmitterType(emitterType)
		params.EmitterType = &t
	}

	result, err := h.formService.ListForms(&params)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /forms/:id
func (h *FormHandler) Get(c *gin.Context) {
	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	form, err := h.formService.GetForm(formID, callerSiret(c))
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"form": form})
}

// PATCH /forms/:id
func (h *FormHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	form, err := h.formService.UpdateForm(formID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormUpdated),
		"form":    form,
	})
}

// DELETE /forms/:id
func (h *FormHandler) Delete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.formService.DeleteForm(c.Request.Context(), formID, callerSiret(c)); err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyFormDeleted)})
}

// POST /forms/:id/groupings
func (h *FormHandler) Group(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.GroupFormsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if err := h.formService.GroupForms(formID, callerSiret(c), &req); err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyFormGrouped)})
}

// POST /forms/:id/seal
func (h *FormHandler) Seal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	form, err := h.lifecycleService.Seal(formID, callerSiret(c))
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormSealed),
		"form":    form,
	})
}

// POST /forms/:id/sign
func (h *FormHandler) SignByTransporter(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SignByTransporterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	form, err := h.lifecycleService.SignByTransporter(formID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormSigned),
		"form":    form,
	})
}

// POST /forms/:id/receive
func (h *FormHandler) MarkReceived(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.MarkReceivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	form, err := h.lifecycleService.MarkReceived(formID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormReceived),
		"form":    form,
	})
}

// POST /forms/:id/accept
func (h *FormHandler) MarkAccepted(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.MarkAcceptedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	form, err := h.lifecycleService.MarkAccepted(formID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormAccepted),
		"form":    form,
	})
}

// POST /forms/:id/process
func (h *FormHandler) MarkProcessed(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.MarkProcessedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	form, err := h.lifecycleService.MarkProcessed(formID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormProcessed),
		"form":    form,
	})
}

// POST /forms/:id/temp-store
func (h *FormHandler) MarkTempStored(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.MarkTempStoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	form, err := h.lifecycleService.MarkTempStored(formID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormTempStored),
		"form":    form,
	})
}

// POST /forms/:id/temp-storer-accept
func (h *FormHandler) MarkTempStorerAccepted(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.MarkTempStorerAcceptedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	form, err := h.lifecycleService.MarkTempStorerAccepted(formID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormAccepted),
		"form":    form,
	})
}

// POST /forms/:id/reseal
func (h *FormHandler) MarkResealed(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.MarkResealedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	form, err := h.lifecycleService.MarkResealed(formID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFormSealed),
		"form":    form,
	})
}
