// internal/handlers/attachments.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wastetrack/wastetrack-backend/internal/i18n"
	"github.com/wastetrack/wastetrack-backend/internal/services"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

// AttachmentHandler serves the scanned paper trail of a form. Access follows
// the form read rule: only implicated companies may upload or list.
type AttachmentHandler struct {
	formService    *services.FormService
	storageService *services.StorageService
}

func NewAttachmentHandler(formService *services.FormService, storageService *services.StorageService) *AttachmentHandler {
	return &AttachmentHandler{
		formService:    formService,
		storageService: storageService,
	}
}

// POST /forms/:id/attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.formService.GetForm(formID, callerSiret(c)); err != nil {
		serviceErrorResponse(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "file"), err.Error())
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadFormAttachment(formID, file, header)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFormAttachmentTooBig), err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyFormAttachmentAdded),
		"attachment": result,
	})
}

// GET /forms/:id/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.formService.GetForm(formID, callerSiret(c)); err != nil {
		serviceErrorResponse(c, err)
		return
	}

	keys, err := h.storageService.ListFormAttachments(formID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	attachments := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		url, err := h.storageService.GeneratePresignedURL(key, 15*time.Minute)
		if err != nil {
			utils.InternalErrorResponse(c, err.Error())
			return
		}
		attachments = append(attachments, gin.H{"key": key, "url": url})
	}

	utils.SuccessResponse(c, gin.H{"attachments": attachments})
}
