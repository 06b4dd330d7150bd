// internal/services/errors_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wastetrack/wastetrack-backend/internal/models"
)

func TestUnauthorizedErrorCarriesCompanyRole(t *testing.T) {
	// Membership guards report the missing company role through the same
	// error type the lifecycle guards use for form roles.
	err := &UnauthorizedError{Role: FormRole(models.CompanyRoleAdmin), CallerSiret: "11111111111111"}

	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "ADMIN")
}

func TestIsUnauthorizedUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("removing member: %w", &UnauthorizedError{Role: RoleEmitter})
	assert.True(t, IsUnauthorized(wrapped))
	assert.False(t, IsUnauthorized(fmt.Errorf("plain failure")))
}
