// internal/services/cleanup_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wastetrack/wastetrack-backend/internal/metrics"
	"github.com/wastetrack/wastetrack-backend/internal/models"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

// FormDeletedHook is the cascade cleanup owned by the wider form subsystem
// (attachments and the like). The cleanup job calls it once per reclaimed
// form, inside that container's unit of work.
type FormDeletedHook interface {
	OnFormDeleted(ctx context.Context, formID uuid.UUID) error
}

// FormDeletedHookFunc adapts a function to the FormDeletedHook interface.
type FormDeletedHookFunc func(ctx context.Context, formID uuid.UUID) error

func (f FormDeletedHookFunc) OnFormDeleted(ctx context.Context, formID uuid.UUID) error {
	return f(ctx, formID)
}

// CleanupService reclaims never-signed producer forms grouped under an
// APPENDIX1 container once the signing grace period has run out.
type CleanupService struct {
	db   *gorm.DB
	hook FormDeletedHook
	now  func() time.Time
}

func NewCleanupService(db *gorm.DB, hook FormDeletedHook) *CleanupService {
	return &CleanupService{db: db, hook: hook, now: time.Now}
}

func (s *CleanupService) WithClock(now func() time.Time) *CleanupService {
	return &CleanupService{db: s.db, hook: s.hook, now: now}
}

// Appendix1CleanupLimitDate computes the take-over cutoff: start of today
// minus two days. A container becomes eligible once a child was taken over
// on or before that date, which yields a grace period of two full days plus
// however much of today has elapsed. This is the selection rule shipped to
// production; whether the intended rule was a day-aligned three-day window
// is pending product clarification.
func Appendix1CleanupLimitDate(now time.Time) time.Time {
	return utils.StartOfDay(now).AddDate(0, 0, -2)
}

// GroupedChild is the slice of a grouped form that the eligibility
// predicate needs.
type GroupedChild struct {
	FormID      uuid.UUID
	Status      models.FormStatus
	TakenOverAt *time.Time
}

// ContainerEligibleForCleanup requires the grace period to have started (at
// least one child signed on or before the limit date) while at least one
// child is still unsigned.
func ContainerEligibleForCleanup(children []GroupedChild, limitDate time.Time) bool {
	var hasExpiredSigned, hasUnsigned bool
	for _, child := range children {
		if child.TakenOverAt == nil {
			hasUnsigned = true
		} else if !child.TakenOverAt.After(limitDate) {
			hasExpiredSigned = true
		}
	}
	return hasExpiredSigned && hasUnsigned
}

// ReclaimableChildIDs selects the children a reclaim pass deletes: still
// SEALED, never signed. Already-deleted children no longer match SEALED, so
// re-running a pass is a no-op.
func ReclaimableChildIDs(children []GroupedChild) []uuid.UUID {
	var ids []uuid.UUID
	for _, child := range children {
		if child.Status == models.FormStatusSealed && child.TakenOverAt == nil {
			ids = append(ids, child.FormID)
		}
	}
	return ids
}

// CleanUnusedAppendix1ProducerForms is the daily reclaim pass. Each
// container is processed in its own transaction: soft-delete the unsigned
// children, run the deletion cascade hook per child, then drop the orphaned
// grouping rows. A failed container is logged and retried wholesale on the
// next run; it never blocks the others.
func (s *CleanupService) CleanUnusedAppendix1ProducerForms(ctx context.Context) (int, error) {
	now := s.now()
	limitDate := Appendix1CleanupLimitDate(now)

	var containers []models.Form
	err := s.db.WithContext(ctx).
		Where("emitter_type = ? AND status = ? AND is_deleted = ?",
			models.EmitterTypeAppendix1, models.FormStatusSent, false).
		Where(`EXISTS (
			SELECT 1 FROM groupings g
			JOIN forms child ON child.id = g.initial_form_id
			WHERE g.next_form_id = forms.id AND child.taken_over_at <= ?)`, limitDate).
		Where(`EXISTS (
			SELECT 1 FROM groupings g
			JOIN forms child ON child.id = g.initial_form_id
			WHERE g.next_form_id = forms.id AND child.taken_over_at IS NULL)`).
		Find(&containers).Error
	if err != nil {
		return 0, fmt.Errorf("failed to select appendix 1 containers: %w", err)
	}

	reclaimed := 0
	var failures int
	for _, container := range containers {
		n, err := s.reclaimContainer(ctx, container.ID)
		if err != nil {
			failures++
			logrus.WithError(err).WithFields(logrus.Fields{
				"container_id": container.ID,
				"readable_id":  container.ReadableID,
			}).Error("Failed to reclaim appendix 1 container, will retry on next run")
			continue
		}
		reclaimed += n
	}

	metrics.FormsReclaimed.Add(float64(reclaimed))
	logrus.WithFields(logrus.Fields{
		"containers": len(containers),
		"reclaimed":  reclaimed,
		"failures":   failures,
		"limit_date": limitDate,
	}).Info("Appendix 1 cleanup pass finished")

	if failures > 0 {
		return reclaimed, fmt.Errorf("%d of %d containers failed to reclaim", failures, len(containers))
	}
	return reclaimed, nil
}

// reclaimContainer soft-deletes the container's never-signed children and
// removes their grouping rows as one unit of work. A hook failure rolls the
// whole container back so flags, cascades and groupings never desynchronize.
func (s *CleanupService) reclaimContainer(ctx context.Context, containerID uuid.UUID) (int, error) {
	reclaimed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var children []GroupedChild
		if err := tx.Model(&models.Grouping{}).
			Select("forms.id AS form_id, forms.status AS status, forms.taken_over_at AS taken_over_at").
			Joins("JOIN forms ON forms.id = groupings.initial_form_id").
			Where("groupings.next_form_id = ? AND forms.is_deleted = ?", containerID, false).
			Scan(&children).Error; err != nil {
			return fmt.Errorf("failed to load grouped children: %w", err)
		}

		ids := ReclaimableChildIDs(children)
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Model(&models.Form{}).
			Where("id IN ? AND status = ?", ids, models.FormStatusSealed).
			Update("is_deleted", true).Error; err != nil {
			return fmt.Errorf("failed to soft-delete forms: %w", err)
		}

		for _, id := range ids {
			if err := s.hook.OnFormDeleted(ctx, id); err != nil {
				return fmt.Errorf("deletion hook failed for form %s: %w", id, err)
			}
		}

		if err := tx.Where("next_form_id = ? AND initial_form_id IN ?", containerID, ids).
			Delete(&models.Grouping{}).Error; err != nil {
			return fmt.Errorf("failed to delete grouping rows: %w", err)
		}

		reclaimed = len(ids)
		return nil
	})
	return reclaimed, err
}
