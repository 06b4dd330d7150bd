// internal/services/lifecycle_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wastetrack/wastetrack-backend/internal/models"
)

func TestStampResent(t *testing.T) {
	now := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

	updates := map[string]interface{}{"sent_at": now}
	stampResent(updates, models.FormStatusResent, now)
	assert.Equal(t, now, updates["resent_at"])

	// The first departure does not touch resent_at.
	updates = map[string]interface{}{"sent_at": now}
	stampResent(updates, models.FormStatusSent, now)
	_, ok := updates["resent_at"]
	assert.False(t, ok)
}
