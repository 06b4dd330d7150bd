// internal/services/consensus.go
package services

import (
	"github.com/wastetrack/wastetrack-backend/internal/models"
)

// ApprovalView is the slice of an approval that consensus resolution needs:
// its status and whether its company still exists. Companies deleted since
// request creation no longer block resolution (their approval is simply
// ignored) instead of wedging the request forever.
type ApprovalView struct {
	Status        models.ApprovalStatus
	CompanyExists bool
}

// ResolveConsensus decides whether a revision request leaves PENDING, and
// where it lands. The rule is strict unanimity, in any resolution order:
// one refusal refuses the request outright, and acceptance requires every
// surviving approval to be accepted.
func ResolveConsensus(approvals []ApprovalView) (models.RevisionRequestStatus, bool) {
	anyAccepted := false

	for _, a := range approvals {
		if a.Status == models.ApprovalStatusRefused {
			return models.RevisionRequestStatusRefused, true
		}
	}

	for _, a := range approvals {
		switch a.Status {
		case models.ApprovalStatusPending:
			if a.CompanyExists {
				return models.RevisionRequestStatusPending, false
			}
			// Orphaned approval, skipped.
		case models.ApprovalStatusAccepted:
			anyAccepted = true
		}
	}

	if anyAccepted {
		return models.RevisionRequestStatusAccepted, true
	}
	// Every approval was orphaned or canceled: nobody consented.
	return models.RevisionRequestStatusRefused, true
}

// RevisionApproverSirets computes the implicated company set for a revision
// of the given form: the companies whose consent is legally required, minus
// the authoring company itself, deduplicated in a stable order.
func RevisionApproverSirets(form *models.Form, authoringSiret string) []string {
	candidates := []string{
		form.EmitterCompanySiret,
		form.RecipientCompanySiret,
	}
	if form.RecipientIsTempStorage && form.DestinationCompanySiret != "" {
		candidates = append(candidates, form.DestinationCompanySiret)
	}

	seen := map[string]bool{authoringSiret: true, "": true}
	sirets := make([]string, 0, len(candidates))
	for _, siret := range candidates {
		if !seen[siret] {
			seen[siret] = true
			sirets = append(sirets, siret)
		}
	}
	return sirets
}
