// internal/models/status_log.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusLog records one lifecycle transition of a form, written in the same
// transaction as the status change itself.
type StatusLog struct {
	BaseModel
	FormID        uuid.UUID  `json:"form_id" gorm:"type:uuid;not null;index"`
	UserID        *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	AuthorSiret   string     `json:"author_siret" gorm:"size:14"`
	Status        FormStatus `json:"status" gorm:"type:varchar(30);not null"`
	LoggedAt      time.Time  `json:"logged_at" gorm:"not null;index"`
	UpdatedFields JSONB      `json:"updated_fields" gorm:"type:jsonb"`

	// Relationships
	Form Form  `json:"form,omitempty" gorm:"foreignKey:FormID"`
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
