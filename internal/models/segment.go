// internal/models/segment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// TransportSegment is one carrier leg of a form in transit. Segments are
// ordered by SegmentNumber and append-only; once ReadyToTakeOver is set the
// transporter identity of the segment is frozen.
type TransportSegment struct {
	BaseModel
	FormID        uuid.UUID     `json:"form_id" gorm:"type:uuid;not null;index"`
	SegmentNumber int           `json:"segment_number" gorm:"not null"`
	Mode          TransportMode `json:"mode" gorm:"type:varchar(20);default:'ROAD'"`

	TransporterCompanySiret string `json:"transporter_company_siret" gorm:"size:14;index"`
	TransporterCompanyName  string `json:"transporter_company_name" gorm:"size:255"`
	TransporterReceipt      string `json:"transporter_receipt" gorm:"size:50"`
	TransporterDepartment   string `json:"transporter_department" gorm:"size:10"`
	TransporterNumberPlate  string `json:"transporter_number_plate" gorm:"size:50"`

	PreviousTransporterCompanySiret string `json:"previous_transporter_company_siret" gorm:"size:14;index"`

	ReadyToTakeOver bool       `json:"ready_to_take_over" gorm:"default:false"`
	TakenOverAt     *time.Time `json:"taken_over_at"`
	TakenOverBy     string     `json:"taken_over_by" gorm:"size:255"`

	// Relationships
	Form Form `json:"form,omitempty" gorm:"foreignKey:FormID"`
}

// SegmentState is the derived sub-state of a transport segment.
type SegmentState string

const (
	SegmentStatePrepared  SegmentState = "PREPARED"
	SegmentStateReady     SegmentState = "READY"
	SegmentStateTakenOver SegmentState = "TAKEN_OVER"
)

func (s *TransportSegment) State() SegmentState {
	switch {
	case s.TakenOverAt != nil:
		return SegmentStateTakenOver
	case s.ReadyToTakeOver:
		return SegmentStateReady
	default:
		return SegmentStatePrepared
	}
}
