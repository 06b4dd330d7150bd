// internal/handlers/segments.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wastetrack/wastetrack-backend/internal/i18n"
	"github.com/wastetrack/wastetrack-backend/internal/services"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

type SegmentHandler struct {
	segmentService *services.TransportSegmentService
}

func NewSegmentHandler(segmentService *services.TransportSegmentService) *SegmentHandler {
	return &SegmentHandler{segmentService: segmentService}
}

// POST /forms/:id/segments
func (h *SegmentHandler) Prepare(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.PrepareSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	segment, err := h.segmentService.PrepareSegment(formID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySegmentPrepared),
		"segment": segment,
	})
}

// PATCH /segments/:id
func (h *SegmentHandler) Edit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	segmentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.EditSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	segment, err := h.segmentService.EditSegment(segmentID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySegmentUpdated),
		"segment": segment,
	})
}

// POST /segments/:id/ready
func (h *SegmentHandler) MarkReady(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	segmentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	segment, err := h.segmentService.MarkSegmentAsReadyToTakeOver(segmentID, callerSiret(c))
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySegmentReady),
		"segment": segment,
	})
}

// POST /segments/:id/take-over
func (h *SegmentHandler) TakeOver(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	segmentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.TakeOverSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	segment, err := h.segmentService.TakeOverSegment(segmentID, callerSiret(c), &req)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySegmentTakenOver),
		"segment": segment,
	})
}
