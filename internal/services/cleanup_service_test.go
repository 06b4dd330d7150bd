// internal/services/cleanup_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/wastetrack/wastetrack-backend/internal/models"
)

func signedAt(t time.Time) *time.Time { return &t }

func TestAppendix1CleanupLimitDate(t *testing.T) {
	now := time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)

	got := Appendix1CleanupLimitDate(now)
	assert.Equal(t, time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC), got)
}

func TestContainerEligibility(t *testing.T) {
	now := time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)
	limitDate := Appendix1CleanupLimitDate(now)

	old := signedAt(time.Date(2024, 6, 7, 9, 0, 0, 0, time.UTC))     // before cutoff
	boundary := signedAt(limitDate)                                  // exactly at cutoff
	recent := signedAt(time.Date(2024, 6, 9, 23, 0, 0, 0, time.UTC)) // within grace

	// One expired signature plus one unsigned child: eligible.
	assert.True(t, ContainerEligibleForCleanup([]GroupedChild{
		{TakenOverAt: old},
		{TakenOverAt: nil},
	}, limitDate))

	// The cutoff is inclusive.
	assert.True(t, ContainerEligibleForCleanup([]GroupedChild{
		{TakenOverAt: boundary},
		{TakenOverAt: nil},
	}, limitDate))

	// All children signed: nothing to reclaim.
	assert.False(t, ContainerEligibleForCleanup([]GroupedChild{
		{TakenOverAt: old},
		{TakenOverAt: recent},
	}, limitDate))

	// Unsigned children but every signature still within the grace period:
	// too early.
	assert.False(t, ContainerEligibleForCleanup([]GroupedChild{
		{TakenOverAt: recent},
		{TakenOverAt: nil},
	}, limitDate))

	// No signature at all: the grace period has not started.
	assert.False(t, ContainerEligibleForCleanup([]GroupedChild{
		{TakenOverAt: nil},
		{TakenOverAt: nil},
	}, limitDate))

	assert.False(t, ContainerEligibleForCleanup(nil, limitDate))
}

func TestReclaimableChildIDs(t *testing.T) {
	sealed := GroupedChild{FormID: uuid.New(), Status: models.FormStatusSealed}
	signed := GroupedChild{
		FormID:      uuid.New(),
		Status:      models.FormStatusSent,
		TakenOverAt: signedAt(time.Now()),
	}
	draft := GroupedChild{FormID: uuid.New(), Status: models.FormStatusDraft}

	ids := ReclaimableChildIDs([]GroupedChild{sealed, signed, draft})
	assert.Equal(t, []uuid.UUID{sealed.FormID}, ids)
}

func TestReclaimableChildIDsSkipsSignedChildren(t *testing.T) {
	// A child signed between the eligibility check and the reclaim pass is
	// left alone.
	child := GroupedChild{FormID: uuid.New(), Status: models.FormStatusSealed}
	assert.Len(t, ReclaimableChildIDs([]GroupedChild{child}), 1)

	child.TakenOverAt = signedAt(time.Now())
	child.Status = models.FormStatusSent
	assert.Empty(t, ReclaimableChildIDs([]GroupedChild{child}))
}
