// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Companies
	KeyCompanyCreated    = "company.created"
	KeyCompanyUpdated    = "company.updated"
	KeyCompanyNotFound   = "company.not_found"
	KeyCompanyNotAllowed = "company.not_allowed"
	KeyCompanyExists     = "company.exists"
	KeyMemberAdded       = "company.member_added"
	KeyMemberRemoved     = "company.member_removed"

	// Forms
	KeyFormCreated           = "form.created"
	KeyFormUpdated           = "form.updated"
	KeyFormDeleted           = "form.deleted"
	KeyFormNotFound          = "form.not_found"
	KeyFormSealed            = "form.sealed"
	KeyFormSigned            = "form.signed"
	KeyFormReceived          = "form.received"
	KeyFormAccepted          = "form.accepted"
	KeyFormProcessed         = "form.processed"
	KeyFormTempStored        = "form.temp_stored"
	KeyFormGrouped           = "form.grouped"
	KeyFormInvalidTransition = "form.invalid_transition"
	KeyFormAttachmentAdded   = "form.attachment_added"
	KeyFormAttachmentTooBig  = "form.attachment_too_big"

	// Transport segments
	KeySegmentPrepared    = "segment.prepared"
	KeySegmentUpdated     = "segment.updated"
	KeySegmentReady       = "segment.ready"
	KeySegmentTakenOver   = "segment.taken_over"
	KeySegmentNotFound    = "segment.not_found"
	KeySegmentNotEditable = "segment.not_editable"

	// Revision requests
	KeyRevisionCreated  = "revision.created"
	KeyRevisionApproved = "revision.approved"
	KeyRevisionRefused  = "revision.refused"
	KeyRevisionCanceled = "revision.canceled"
	KeyRevisionNotFound = "revision.not_found"
	KeyRevisionResolved = "revision.resolved"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"

	// System
	KeySystemError        = "system.error"
	KeySystemRateLimited  = "system.rate_limited"
	KeySystemMaintenance  = "system.maintenance"
	KeySystemNotSupported = "system.not_supported"
)
