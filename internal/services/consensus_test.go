// internal/services/consensus_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wastetrack/wastetrack-backend/internal/models"
)

func live(status models.ApprovalStatus) ApprovalView {
	return ApprovalView{Status: status, CompanyExists: true}
}

func orphan(status models.ApprovalStatus) ApprovalView {
	return ApprovalView{Status: status, CompanyExists: false}
}

func TestConsensusStaysPendingUntilUnanimous(t *testing.T) {
	status, resolved := ResolveConsensus([]ApprovalView{
		live(models.ApprovalStatusAccepted),
		live(models.ApprovalStatusPending),
	})
	assert.False(t, resolved)
	assert.Equal(t, models.RevisionRequestStatusPending, status)
}

func TestConsensusUnanimousAcceptance(t *testing.T) {
	status, resolved := ResolveConsensus([]ApprovalView{
		live(models.ApprovalStatusAccepted),
		live(models.ApprovalStatusAccepted),
	})
	assert.True(t, resolved)
	assert.Equal(t, models.RevisionRequestStatusAccepted, status)
}

func TestConsensusSingleRefusalWins(t *testing.T) {
	// A refusal resolves the request no matter what the other approvals
	// hold, including still-pending ones.
	cases := [][]ApprovalView{
		{live(models.ApprovalStatusRefused)},
		{live(models.ApprovalStatusAccepted), live(models.ApprovalStatusRefused)},
		{live(models.ApprovalStatusRefused), live(models.ApprovalStatusPending)},
		{live(models.ApprovalStatusPending), live(models.ApprovalStatusRefused), live(models.ApprovalStatusAccepted)},
	}
	for i, approvals := range cases {
		status, resolved := ResolveConsensus(approvals)
		assert.True(t, resolved, "case %d", i)
		assert.Equal(t, models.RevisionRequestStatusRefused, status, "case %d", i)
	}
}

func TestConsensusOrderIndependent(t *testing.T) {
	a := []ApprovalView{live(models.ApprovalStatusAccepted), live(models.ApprovalStatusRefused)}
	b := []ApprovalView{live(models.ApprovalStatusRefused), live(models.ApprovalStatusAccepted)}

	statusA, _ := ResolveConsensus(a)
	statusB, _ := ResolveConsensus(b)
	assert.Equal(t, statusA, statusB)
}

func TestConsensusSkipsOrphanedApprovals(t *testing.T) {
	// A pending approval whose company was deleted no longer blocks the
	// request.
	status, resolved := ResolveConsensus([]ApprovalView{
		live(models.ApprovalStatusAccepted),
		orphan(models.ApprovalStatusPending),
	})
	assert.True(t, resolved)
	assert.Equal(t, models.RevisionRequestStatusAccepted, status)
}

func TestConsensusAllOrphanedRefuses(t *testing.T) {
	// Nobody left to consent: the request cannot be applied.
	status, resolved := ResolveConsensus([]ApprovalView{
		orphan(models.ApprovalStatusPending),
		orphan(models.ApprovalStatusPending),
	})
	assert.True(t, resolved)
	assert.Equal(t, models.RevisionRequestStatusRefused, status)
}

func TestRevisionApproverSirets(t *testing.T) {
	form := &models.Form{
		EmitterCompanySiret:   "11111111111111",
		RecipientCompanySiret: "33333333333333",
	}

	// The author never approves its own request.
	assert.Equal(t, []string{"33333333333333"}, RevisionApproverSirets(form, "11111111111111"))
	assert.Equal(t, []string{"11111111111111"}, RevisionApproverSirets(form, "33333333333333"))

	// A third party needs both.
	assert.Equal(t,
		[]string{"11111111111111", "33333333333333"},
		RevisionApproverSirets(form, "22222222222222"))
}

func TestRevisionApproverSiretsTempStorage(t *testing.T) {
	form := &models.Form{
		EmitterCompanySiret:     "11111111111111",
		RecipientCompanySiret:   "33333333333333",
		RecipientIsTempStorage:  true,
		DestinationCompanySiret: "44444444444444",
	}

	assert.Equal(t,
		[]string{"33333333333333", "44444444444444"},
		RevisionApproverSirets(form, "11111111111111"))
}

func TestRevisionApproverSiretsDeduplicates(t *testing.T) {
	form := &models.Form{
		EmitterCompanySiret:   "11111111111111",
		RecipientCompanySiret: "11111111111111",
	}

	assert.Empty(t, RevisionApproverSirets(form, "11111111111111"))
	assert.Equal(t, []string{"11111111111111"}, RevisionApproverSirets(form, "22222222222222"))
}
