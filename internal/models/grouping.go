// internal/models/grouping.go
package models

import (
	"github.com/google/uuid"
)

// Grouping links a producer-signed child form to the APPENDIX1 container
// form that carries it, with the quantity taken from the child.
type Grouping struct {
	BaseModel
	NextFormID    uuid.UUID `json:"next_form_id" gorm:"type:uuid;not null;index:idx_groupings_next_initial,unique"`
	InitialFormID uuid.UUID `json:"initial_form_id" gorm:"type:uuid;not null;index:idx_groupings_next_initial,unique"`
	Quantity      float64   `json:"quantity" gorm:"type:decimal(10,3);not null"`

	// Relationships
	NextForm    Form `json:"next_form,omitempty" gorm:"foreignKey:NextFormID"`
	InitialForm Form `json:"initial_form,omitempty" gorm:"foreignKey:InitialFormID"`
}
