// internal/handlers/handlers.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wastetrack/wastetrack-backend/internal/i18n"
	"github.com/wastetrack/wastetrack-backend/internal/services"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

// serviceErrorResponse maps the service error taxonomy onto HTTP statuses:
// missing rows are 404, role violations 403, guard violations and races 409.
func serviceErrorResponse(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	if errors.Is(err, services.ErrNotFound) {
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyFormNotFound))
		return
	}
	if services.IsUnauthorized(err) {
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyCompanyNotAllowed))
		return
	}
	if services.IsInvalidTransition(err) {
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION",
			i18n.T(lang, i18n.KeyFormInvalidTransition), err.Error())
		return
	}
	utils.BadRequestResponse(c, err.Error(), nil)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func callerSiret(c *gin.Context) string {
	siret, _ := utils.GetCallerSiretFromContext(c)
	return siret
}
