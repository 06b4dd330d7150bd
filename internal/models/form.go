// internal/models/form.go
package models

import (
	"time"

	"github.com/lib/pq"
)

// Form is a waste shipment tracking document (BSD). It is created in DRAFT
// by the emitter and only ever mutated through lifecycle operations.
type Form struct {
	BaseModel
	ReadableID  string      `json:"readable_id" gorm:"uniqueIndex;size:50;not null"`
	Status      FormStatus  `json:"status" gorm:"type:varchar(30);default:'DRAFT';index"`
	EmitterType EmitterType `json:"emitter_type" gorm:"type:varchar(30);default:'PRODUCER';index"`
	IsDeleted   bool        `json:"is_deleted" gorm:"default:false;index"`

	// Emitter
	EmitterCompanySiret   string `json:"emitter_company_siret" gorm:"size:14;index"`
	EmitterCompanyName    string `json:"emitter_company_name" gorm:"size:255"`
	EmitterCompanyAddress string `json:"emitter_company_address" gorm:"size:255"`
	EmitterCompanyContact string `json:"emitter_company_contact" gorm:"size:255"`
	EmitterCompanyPhone   string `json:"emitter_company_phone" gorm:"size:30"`
	EmitterCompanyMail    string `json:"emitter_company_mail" gorm:"size:255"`

	// Primary transporter (first carrier when no segments exist)
	TransporterCompanySiret   string `json:"transporter_company_siret" gorm:"size:14;index"`
	TransporterCompanyName    string `json:"transporter_company_name" gorm:"size:255"`
	TransporterCompanyAddress string `json:"transporter_company_address" gorm:"size:255"`
	TransporterCompanyContact string `json:"transporter_company_contact" gorm:"size:255"`
	TransporterCompanyPhone   string `json:"transporter_company_phone" gorm:"size:30"`
	TransporterCompanyMail    string `json:"transporter_company_mail" gorm:"size:255"`
	TransporterReceipt        string `json:"transporter_receipt" gorm:"size:50"`

	// CurrentTransporterSiret tracks the active carrier while the form is in
	// transit with multi-modal segments. Empty means the primary transporter.
	CurrentTransporterSiret string `json:"current_transporter_siret" gorm:"size:14;index"`

	// Recipient (temporary storer when a temp-storage detour is planned)
	RecipientCompanySiret   string `json:"recipient_company_siret" gorm:"size:14;index"`
	RecipientCompanyName    string `json:"recipient_company_name" gorm:"size:255"`
	RecipientCompanyAddress string `json:"recipient_company_address" gorm:"size:255"`
	RecipientCompanyContact string `json:"recipient_company_contact" gorm:"size:255"`
	RecipientCompanyPhone   string `json:"recipient_company_phone" gorm:"size:30"`
	RecipientCompanyMail    string `json:"recipient_company_mail" gorm:"size:255"`
	RecipientIsTempStorage  bool   `json:"recipient_is_temp_storage" gorm:"default:false"`

	// Final destination after temporary storage
	DestinationCompanySiret   string `json:"destination_company_siret" gorm:"size:14"`
	DestinationCompanyName    string `json:"destination_company_name" gorm:"size:255"`
	DestinationCompanyAddress string `json:"destination_company_address" gorm:"size:255"`
	DestinationCompanyContact string `json:"destination_company_contact" gorm:"size:255"`
	DestinationCompanyPhone   string `json:"destination_company_phone" gorm:"size:30"`
	DestinationCompanyMail    string `json:"destination_company_mail" gorm:"size:255"`

	// Waste details
	WasteCode          string         `json:"waste_code" gorm:"size:10;index"`
	WasteDescription   string         `json:"waste_description" gorm:"type:text"`
	Packagings         pq.StringArray `json:"packagings" gorm:"type:text[]"`
	QuantityEstimated  float64        `json:"quantity_estimated" gorm:"type:decimal(10,3)"`
	QuantityReceived   *float64       `json:"quantity_received" gorm:"type:decimal(10,3)"`
	QuantityRefused    *float64       `json:"quantity_refused" gorm:"type:decimal(10,3)"`
	WasteRefusalReason string         `json:"waste_refusal_reason,omitempty" gorm:"type:text"`

	// Processing
	ProcessingOperationCode string `json:"processing_operation_code" gorm:"size:10"`
	ProcessingOperationDone string `json:"processing_operation_done" gorm:"size:10"`
	ProcessingDescription   string `json:"processing_description" gorm:"type:text"`

	// Next destination, required when the processing code denotes a
	// grouping or transfer operation.
	NextDestinationCompanySiret   string `json:"next_destination_company_siret" gorm:"size:14"`
	NextDestinationCompanyName    string `json:"next_destination_company_name" gorm:"size:255"`
	NextDestinationProcessingCode string `json:"next_destination_processing_code" gorm:"size:10"`

	// Transition timestamps
	SealedAt             *time.Time `json:"sealed_at"`
	SentAt               *time.Time `json:"sent_at"`
	TakenOverAt          *time.Time `json:"taken_over_at" gorm:"index"`
	ReceivedAt           *time.Time `json:"received_at"`
	AcceptedAt           *time.Time `json:"accepted_at"`
	ProcessedAt          *time.Time `json:"processed_at"`
	TempStoredAt         *time.Time `json:"temp_stored_at"`
	TempStorerAcceptedAt *time.Time `json:"temp_storer_accepted_at"`
	ResealedAt           *time.Time `json:"resealed_at"`
	ResentAt             *time.Time `json:"resent_at"`

	SentBy      string `json:"sent_by" gorm:"size:255"`
	ReceivedBy  string `json:"received_by" gorm:"size:255"`
	ProcessedBy string `json:"processed_by" gorm:"size:255"`

	// Relationships
	TransportSegments []TransportSegment `json:"transport_segments,omitempty" gorm:"foreignKey:FormID"`
	Groupings         []Grouping         `json:"groupings,omitempty" gorm:"foreignKey:NextFormID"`
	GroupedIn         []Grouping         `json:"grouped_in,omitempty" gorm:"foreignKey:InitialFormID"`
	RevisionRequests  []RevisionRequest  `json:"revision_requests,omitempty" gorm:"foreignKey:FormID"`
	StatusLogs        []StatusLog        `json:"status_logs,omitempty" gorm:"foreignKey:FormID"`
}

// DestinationSiret returns the SIRET expected to sign reception, acceptance
// and processing. Once a form has gone through its temporary storage detour
// the final destination signs, otherwise the recipient does.
func (f *Form) DestinationSiret() string {
	if f.RecipientIsTempStorage && f.DestinationCompanySiret != "" && f.TempStoredAt != nil {
		return f.DestinationCompanySiret
	}
	return f.RecipientCompanySiret
}

// ActiveTransporterSiret resolves the carrier currently in charge. Segments
// speak for the form only while it is in transit, and segments taken over
// before the reseal belong to the earlier leg; outside transit, or when a
// reseal has named a fresh transporter, the form's own transporter fields
// are authoritative.
func (f *Form) ActiveTransporterSiret() string {
	if f.Status == FormStatusSent || f.Status == FormStatusResent {
		for i := len(f.TransportSegments) - 1; i >= 0; i-- {
			seg := f.TransportSegments[i]
			if f.ResealedAt != nil && seg.TakenOverAt != nil && !seg.TakenOverAt.After(*f.ResealedAt) {
				break
			}
			return seg.TransporterCompanySiret
		}
	}
	if f.CurrentTransporterSiret != "" {
		return f.CurrentTransporterSiret
	}
	return f.TransporterCompanySiret
}
