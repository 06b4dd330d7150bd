// internal/models/revision.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// RevisionRequest is a proposed post-hoc amendment to a form already past
// DRAFT. It carries one approval per company whose consent is required and
// leaves PENDING only when every approval is resolved.
type RevisionRequest struct {
	BaseModel
	FormID             uuid.UUID             `json:"form_id" gorm:"type:uuid;not null;index"`
	AuthoringCompanyID uuid.UUID             `json:"authoring_company_id" gorm:"type:uuid;not null;index"`
	Status             RevisionRequestStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`
	Comment            string                `json:"comment" gorm:"type:text;not null"`
	Content            JSONB                 `json:"content" gorm:"type:jsonb;not null"`

	// Relationships
	Form             Form                      `json:"form,omitempty" gorm:"foreignKey:FormID"`
	AuthoringCompany Company                   `json:"authoring_company,omitempty" gorm:"foreignKey:AuthoringCompanyID"`
	Approvals        []RevisionRequestApproval `json:"approvals,omitempty" gorm:"foreignKey:RevisionRequestID"`
}

type RevisionRequestApproval struct {
	BaseModel
	RevisionRequestID uuid.UUID      `json:"revision_request_id" gorm:"type:uuid;not null;index"`
	ApproverSiret     string         `json:"approver_siret" gorm:"size:14;not null;index"`
	Status            ApprovalStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`
	Comment           string         `json:"comment,omitempty" gorm:"type:text"`
	ResolvedAt        *time.Time     `json:"resolved_at"`

	// Relationships
	RevisionRequest RevisionRequest `json:"revision_request,omitempty" gorm:"foreignKey:RevisionRequestID"`
}
