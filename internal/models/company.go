// internal/models/company.go
package models

import (
	"github.com/google/uuid"
)

// Company is identified by its SIRET, which is the authorization key for
// every lifecycle and revision operation.
type Company struct {
	BaseModel
	Siret        string `json:"siret" gorm:"uniqueIndex;size:14;not null"`
	Name         string `json:"name" gorm:"size:255;not null"`
	Address      string `json:"address" gorm:"type:text"`
	ContactEmail string `json:"contact_email" gorm:"size:255"`
	ContactPhone string `json:"contact_phone" gorm:"size:20"`

	// Relationships
	Associations []CompanyAssociation `json:"associations,omitempty" gorm:"foreignKey:CompanyID"`
}

// CompanyAssociation links a user to a company with a role.
type CompanyAssociation struct {
	BaseModel
	UserID    uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index:idx_company_assoc_user_company,unique"`
	CompanyID uuid.UUID   `json:"company_id" gorm:"type:uuid;not null;index:idx_company_assoc_user_company,unique"`
	Role      CompanyRole `json:"role" gorm:"type:varchar(20);default:'MEMBER'"`

	// Relationships
	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Company Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}
