// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums

// FormStatus is the lifecycle status of a waste shipment form (BSD).
type FormStatus string

const (
	FormStatusDraft              FormStatus = "DRAFT"
	FormStatusSealed             FormStatus = "SEALED"
	FormStatusSent               FormStatus = "SENT"
	FormStatusReceived           FormStatus = "RECEIVED"
	FormStatusAccepted           FormStatus = "ACCEPTED"
	FormStatusProcessed          FormStatus = "PROCESSED"
	FormStatusTempStored         FormStatus = "TEMP_STORED"
	FormStatusTempStorerAccepted FormStatus = "TEMP_STORER_ACCEPTED"
	FormStatusResealed           FormStatus = "RESEALED"
	FormStatusResent             FormStatus = "RESENT"

	// FormStatusRevised is not a lifecycle state; it only appears in status
	// logs when an accepted revision is applied to a form.
	FormStatusRevised FormStatus = "REVISED"
)

// EmitterType distinguishes regular forms from Appendix 1 containers and
// the producer-signed child forms grouped under them.
type EmitterType string

const (
	EmitterTypeProducer          EmitterType = "PRODUCER"
	EmitterTypeAppendix1         EmitterType = "APPENDIX1"
	EmitterTypeAppendix1Producer EmitterType = "APPENDIX1_PRODUCER"
)

type TransportMode string

const (
	TransportModeRoad  TransportMode = "ROAD"
	TransportModeRail  TransportMode = "RAIL"
	TransportModeAir   TransportMode = "AIR"
	TransportModeRiver TransportMode = "RIVER"
	TransportModeSea   TransportMode = "SEA"
)

type RevisionRequestStatus string

const (
	RevisionRequestStatusPending  RevisionRequestStatus = "PENDING"
	RevisionRequestStatusAccepted RevisionRequestStatus = "ACCEPTED"
	RevisionRequestStatusRefused  RevisionRequestStatus = "REFUSED"
	RevisionRequestStatusCanceled RevisionRequestStatus = "CANCELED"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusAccepted ApprovalStatus = "ACCEPTED"
	ApprovalStatusRefused  ApprovalStatus = "REFUSED"
	ApprovalStatusCanceled ApprovalStatus = "CANCELED"
)

type CompanyRole string

const (
	CompanyRoleAdmin  CompanyRole = "ADMIN"
	CompanyRoleMember CompanyRole = "MEMBER"
)
