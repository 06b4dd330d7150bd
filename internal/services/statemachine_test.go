// internal/services/statemachine_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wastetrack/wastetrack-backend/internal/models"
)

func directForm() *models.Form {
	return &models.Form{
		Status:                  models.FormStatusDraft,
		EmitterCompanySiret:     "11111111111111",
		TransporterCompanySiret: "22222222222222",
		RecipientCompanySiret:   "33333333333333",
	}
}

func tempStorageForm() *models.Form {
	form := directForm()
	form.RecipientIsTempStorage = true
	form.DestinationCompanySiret = "44444444444444"
	return form
}

func TestNextStatusHappyPathDirect(t *testing.T) {
	steps := []struct {
		event TransitionEvent
		from  models.FormStatus
		to    models.FormStatus
	}{
		{EventSeal, models.FormStatusDraft, models.FormStatusSealed},
		{EventSignedByTransporter, models.FormStatusSealed, models.FormStatusSent},
		{EventMarkReceived, models.FormStatusSent, models.FormStatusReceived},
		{EventMarkAccepted, models.FormStatusReceived, models.FormStatusAccepted},
		{EventMarkProcessed, models.FormStatusAccepted, models.FormStatusProcessed},
	}

	for _, step := range steps {
		to, err := NextStatus(step.event, step.from)
		require.NoError(t, err, "event %s from %s", step.event, step.from)
		assert.Equal(t, step.to, to)
	}
}

func TestNextStatusHappyPathTempStorage(t *testing.T) {
	steps := []struct {
		event TransitionEvent
		from  models.FormStatus
		to    models.FormStatus
	}{
		{EventMarkTempStored, models.FormStatusSent, models.FormStatusTempStored},
		{EventMarkTempStorerAccepted, models.FormStatusTempStored, models.FormStatusTempStorerAccepted},
		{EventMarkResealed, models.FormStatusTempStorerAccepted, models.FormStatusResealed},
		{EventSignedByTransporter, models.FormStatusResealed, models.FormStatusResent},
		{EventMarkReceived, models.FormStatusResent, models.FormStatusReceived},
	}

	for _, step := range steps {
		to, err := NextStatus(step.event, step.from)
		require.NoError(t, err, "event %s from %s", step.event, step.from)
		assert.Equal(t, step.to, to)
	}
}

func TestNextStatusRejectsSkippingStates(t *testing.T) {
	// MarkProcessed requires exactly ACCEPTED; any other state fails, even
	// states further along.
	for _, from := range []models.FormStatus{
		models.FormStatusDraft,
		models.FormStatusSealed,
		models.FormStatusSent,
		models.FormStatusReceived,
		models.FormStatusProcessed,
	} {
		_, err := NextStatus(EventMarkProcessed, from)
		assert.Error(t, err, "from %s", from)
		assert.True(t, IsInvalidTransition(err))
	}
}

func TestNextStatusIsNotIdempotent(t *testing.T) {
	// Replaying an event from its own target state fails: the winner of a
	// race advances the form, the loser gets an error.
	_, err := NextStatus(EventSeal, models.FormStatusSealed)
	assert.True(t, IsInvalidTransition(err))

	_, err = NextStatus(EventMarkReceived, models.FormStatusReceived)
	assert.True(t, IsInvalidTransition(err))
}

func TestNextStatusUnknownEvent(t *testing.T) {
	_, err := NextStatus(TransitionEvent("BOGUS"), models.FormStatusDraft)
	assert.True(t, IsInvalidTransition(err))
}

func TestTransitionsNeverMoveBackwards(t *testing.T) {
	for event, edges := range transitions {
		for from, to := range edges {
			assert.Greater(t, LifecycleRank(to), LifecycleRank(from),
				"event %s moves %s -> %s backwards", event, from, to)
		}
	}
}

func TestResolveRequiredRoleDirectForm(t *testing.T) {
	form := directForm()

	cases := []struct {
		event TransitionEvent
		role  FormRole
		siret string
	}{
		{EventSeal, RoleEmitter, "11111111111111"},
		{EventSignedByTransporter, RoleTransporter, "22222222222222"},
		{EventMarkReceived, RoleDestination, "33333333333333"},
		{EventMarkAccepted, RoleDestination, "33333333333333"},
		{EventMarkProcessed, RoleDestination, "33333333333333"},
	}

	for _, c := range cases {
		res, ok := ResolveRequiredRole(form, c.event)
		require.True(t, ok, "event %s", c.event)
		assert.Equal(t, c.role, res.Role)
		assert.Equal(t, c.siret, res.ExpectedSiret)
	}
}

func TestResolveRequiredRoleAfterTempStorage(t *testing.T) {
	form := tempStorageForm()

	// Before temp storage the recipient acknowledges reception.
	res, ok := ResolveRequiredRole(form, EventMarkReceived)
	require.True(t, ok)
	assert.Equal(t, "33333333333333", res.ExpectedSiret)

	// The temp storage detour itself is signed by the recipient.
	res, ok = ResolveRequiredRole(form, EventMarkTempStored)
	require.True(t, ok)
	assert.Equal(t, RoleRecipient, res.Role)
	assert.Equal(t, "33333333333333", res.ExpectedSiret)

	// Once temp stored, the second reception belongs to the final
	// destination, not the temp storer.
	now := time.Now()
	form.TempStoredAt = &now
	res, ok = ResolveRequiredRole(form, EventMarkReceived)
	require.True(t, ok)
	assert.Equal(t, "44444444444444", res.ExpectedSiret)
}

func TestResolveRequiredRoleMissingCompany(t *testing.T) {
	form := directForm()
	form.TransporterCompanySiret = ""

	_, ok := ResolveRequiredRole(form, EventSignedByTransporter)
	assert.False(t, ok)
}

func TestResolveRequiredRoleUsesLastSegmentTransporter(t *testing.T) {
	form := directForm()
	form.Status = models.FormStatusSent
	form.TransportSegments = []models.TransportSegment{
		{SegmentNumber: 1, TransporterCompanySiret: "55555555555555"},
		{SegmentNumber: 2, TransporterCompanySiret: "66666666666666"},
	}

	res, ok := ResolveRequiredRole(form, EventSignedByTransporter)
	require.True(t, ok)
	assert.Equal(t, "66666666666666", res.ExpectedSiret)
}

func TestResolveRequiredRoleAfterResealIgnoresEarlierLegSegments(t *testing.T) {
	takenOver := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	resealed := takenOver.Add(48 * time.Hour)

	form := tempStorageForm()
	form.Status = models.FormStatusResealed
	form.ResealedAt = &resealed
	form.TransporterCompanySiret = "77777777777777"
	form.TransportSegments = []models.TransportSegment{
		{SegmentNumber: 1, TransporterCompanySiret: "55555555555555", TakenOverAt: &takenOver},
		{SegmentNumber: 2, TransporterCompanySiret: "66666666666666", TakenOverAt: &takenOver},
	}

	// The reseal named a fresh transporter; the multimodal segments of the
	// leg before temporary storage no longer speak for the form.
	res, ok := ResolveRequiredRole(form, EventSignedByTransporter)
	require.True(t, ok)
	assert.Equal(t, "77777777777777", res.ExpectedSiret)

	to, err := CheckTransition(form, EventSignedByTransporter, "77777777777777")
	require.NoError(t, err)
	assert.Equal(t, models.FormStatusResent, to)
}

func TestActiveTransporterScopesSegmentsToCurrentLeg(t *testing.T) {
	firstLeg := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	resealed := firstLeg.Add(48 * time.Hour)
	secondLeg := resealed.Add(24 * time.Hour)

	form := tempStorageForm()
	form.Status = models.FormStatusResent
	form.ResealedAt = &resealed
	form.TransporterCompanySiret = "77777777777777"
	form.TransportSegments = []models.TransportSegment{
		{SegmentNumber: 1, TransporterCompanySiret: "66666666666666", TakenOverAt: &firstLeg},
	}
	assert.Equal(t, "77777777777777", form.ActiveTransporterSiret())

	// A segment taken over after the reseal belongs to the current leg and
	// takes charge again.
	form.TransportSegments = append(form.TransportSegments, models.TransportSegment{
		SegmentNumber: 2, TransporterCompanySiret: "88888888888888", TakenOverAt: &secondLeg,
	})
	assert.Equal(t, "88888888888888", form.ActiveTransporterSiret())
}

func TestCheckTransitionRejectsWrongCaller(t *testing.T) {
	form := directForm()

	_, err := CheckTransition(form, EventSeal, "99999999999999")
	assert.True(t, IsUnauthorized(err))

	// The right caller passes.
	to, err := CheckTransition(form, EventSeal, "11111111111111")
	require.NoError(t, err)
	assert.Equal(t, models.FormStatusSealed, to)
}

func TestCheckTransitionStateGuardRunsFirst(t *testing.T) {
	form := directForm()
	form.Status = models.FormStatusProcessed

	// Even the correct company cannot replay a finished lifecycle.
	_, err := CheckTransition(form, EventSeal, "11111111111111")
	assert.True(t, IsInvalidTransition(err))
}

func TestCheckTransitionNeverMutatesForm(t *testing.T) {
	form := directForm()
	before := *form

	_, _ = CheckTransition(form, EventSeal, "11111111111111")
	_, _ = CheckTransition(form, EventMarkProcessed, "99999999999999")

	assert.Equal(t, before.Status, form.Status)
}

func TestIsGroupingOperationCode(t *testing.T) {
	for _, code := range []string{"D 13", "D 14", "D 15", "R 12", "R 13"} {
		assert.True(t, IsGroupingOperationCode(code), code)
	}
	for _, code := range []string{"D 10", "R 1", "", "D13", "r 12"} {
		assert.False(t, IsGroupingOperationCode(code), code)
	}
}
