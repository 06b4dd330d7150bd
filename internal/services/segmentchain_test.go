// internal/services/segmentchain_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wastetrack/wastetrack-backend/internal/models"
)

const (
	carrierA = "10000000000001" // original transporter
	carrierB = "10000000000002" // next carrier in the relay
	outsider = "10000000000009"
)

func sentForm() *models.Form {
	return &models.Form{
		Status:                  models.FormStatusSent,
		EmitterCompanySiret:     "11111111111111",
		TransporterCompanySiret: carrierA,
		RecipientCompanySiret:   "33333333333333",
	}
}

func preparedSegment() *models.TransportSegment {
	return &models.TransportSegment{
		SegmentNumber:                   1,
		TransporterCompanySiret:         carrierB,
		PreviousTransporterCompanySiret: carrierA,
	}
}

func TestPrepareSegmentOnlyWhileInTransit(t *testing.T) {
	form := sentForm()
	assert.NoError(t, CheckPrepareSegment(form, carrierA))

	for _, status := range []models.FormStatus{
		models.FormStatusDraft,
		models.FormStatusSealed,
		models.FormStatusReceived,
		models.FormStatusProcessed,
		models.FormStatusTempStored,
	} {
		form.Status = status
		err := CheckPrepareSegment(form, carrierA)
		assert.True(t, IsInvalidTransition(err), "status %s", status)
	}

	form.Status = models.FormStatusResent
	assert.NoError(t, CheckPrepareSegment(form, carrierA))
}

func TestPrepareSegmentOnlyCurrentCarrier(t *testing.T) {
	form := sentForm()

	err := CheckPrepareSegment(form, outsider)
	assert.True(t, IsUnauthorized(err))
}

func TestPrepareSegmentOneLegInFlight(t *testing.T) {
	form := sentForm()
	form.TransportSegments = []models.TransportSegment{*preparedSegment()}

	// The open leg blocks a second one regardless of caller.
	err := CheckPrepareSegment(form, carrierA)
	assert.True(t, IsInvalidTransition(err))

	// Once taken over, the new current carrier may prepare the next leg.
	now := time.Now()
	form.TransportSegments[0].TakenOverAt = &now
	assert.NoError(t, CheckPrepareSegment(form, carrierB))

	// The previous carrier lost the baton.
	err = CheckPrepareSegment(form, carrierA)
	assert.True(t, IsUnauthorized(err))
}

func TestEditSegmentBeforeReadyBelongsToPreparer(t *testing.T) {
	segment := preparedSegment()

	assert.NoError(t, CheckEditSegment(segment, carrierA, true))
	assert.True(t, IsUnauthorized(CheckEditSegment(segment, carrierB, false)))
	assert.True(t, IsUnauthorized(CheckEditSegment(segment, outsider, false)))
}

func TestEditSegmentAfterReadyBelongsToNextCarrier(t *testing.T) {
	segment := preparedSegment()
	segment.ReadyToTakeOver = true

	assert.NoError(t, CheckEditSegment(segment, carrierB, false))
	assert.True(t, IsUnauthorized(CheckEditSegment(segment, carrierA, false)))

	// Identity is frozen at hand-off even for the new owner.
	err := CheckEditSegment(segment, carrierB, true)
	assert.True(t, IsInvalidTransition(err))
}

func TestEditSegmentAfterTakeOverIsFrozen(t *testing.T) {
	segment := preparedSegment()
	segment.ReadyToTakeOver = true
	now := time.Now()
	segment.TakenOverAt = &now

	for _, caller := range []string{carrierA, carrierB} {
		err := CheckEditSegment(segment, caller, false)
		assert.True(t, IsInvalidTransition(err), "caller %s", caller)
	}
}

func TestMarkReadyGuards(t *testing.T) {
	segment := preparedSegment()
	assert.NoError(t, CheckMarkSegmentAsReadyToTakeOver(segment, carrierA))

	// Wrong caller
	assert.True(t, IsUnauthorized(CheckMarkSegmentAsReadyToTakeOver(segment, carrierB)))

	// No transporter identity yet
	blank := preparedSegment()
	blank.TransporterCompanySiret = ""
	assert.True(t, IsInvalidTransition(CheckMarkSegmentAsReadyToTakeOver(blank, carrierA)))

	// Already ready
	segment.ReadyToTakeOver = true
	assert.True(t, IsInvalidTransition(CheckMarkSegmentAsReadyToTakeOver(segment, carrierA)))
}

func TestTakeOverSegmentGuards(t *testing.T) {
	segment := preparedSegment()

	// Not ready yet
	assert.True(t, IsInvalidTransition(CheckTakeOverSegment(segment, carrierB)))

	segment.ReadyToTakeOver = true
	assert.True(t, IsUnauthorized(CheckTakeOverSegment(segment, carrierA)))
	assert.True(t, IsUnauthorized(CheckTakeOverSegment(segment, outsider)))
	assert.NoError(t, CheckTakeOverSegment(segment, carrierB))

	// Exactly once
	now := time.Now()
	segment.TakenOverAt = &now
	assert.True(t, IsInvalidTransition(CheckTakeOverSegment(segment, carrierB)))
}

func TestSegmentStateDerivation(t *testing.T) {
	segment := preparedSegment()
	assert.Equal(t, models.SegmentStatePrepared, segment.State())

	segment.ReadyToTakeOver = true
	assert.Equal(t, models.SegmentStateReady, segment.State())

	now := time.Now()
	segment.TakenOverAt = &now
	assert.Equal(t, models.SegmentStateTakenOver, segment.State())
}
