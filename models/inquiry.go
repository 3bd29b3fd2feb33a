package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// InquiryStage is the pipeline position of an inquiry
type InquiryStage string

const (
	InquiryStageInquiry         InquiryStage = "INQUIRY"
	InquiryStageWaitingResponse InquiryStage = "WAITING_RESPONSE"
	InquiryStageScheduled       InquiryStage = "SCHEDULED"
	InquiryStageViewed          InquiryStage = "VIEWED"
	InquiryStageRented          InquiryStage = "RENTED"
	InquiryStagePurchased       InquiryStage = "PURCHASED"
	InquiryStageNoShow          InquiryStage = "NO_SHOW"
	InquiryStageCancelled       InquiryStage = "CANCELLED"
)

// InquiryStages lists every stage in pipeline order
var InquiryStages = []InquiryStage{
	InquiryStageInquiry,
	InquiryStageWaitingResponse,
	InquiryStageScheduled,
	InquiryStageViewed,
	InquiryStageRented,
	InquiryStagePurchased,
	InquiryStageNoShow,
	InquiryStageCancelled,
}

func (s InquiryStage) String() string {
	return string(s)
}

// Valid checks if the stage is one of the eight known stages
func (s InquiryStage) Valid() bool {
	switch s {
	case InquiryStageInquiry, InquiryStageWaitingResponse, InquiryStageScheduled,
		InquiryStageViewed, InquiryStageRented, InquiryStagePurchased,
		InquiryStageNoShow, InquiryStageCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the stage ends the pipeline
func (s InquiryStage) IsTerminal() bool {
	switch s {
	case InquiryStageRented, InquiryStagePurchased, InquiryStageNoShow, InquiryStageCancelled:
		return true
	default:
		return false
	}
}

// IsCommissionBearing reports whether reaching the stage earns commissions
func (s InquiryStage) IsCommissionBearing() bool {
	return s == InquiryStageRented || s == InquiryStagePurchased
}

// Scan implements the sql.Scanner interface for InquiryStage
func (s *InquiryStage) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = InquiryStage(v)
	case []byte:
		*s = InquiryStage(string(v))
	default:
		return fmt.Errorf("cannot scan %T into InquiryStage", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for InquiryStage
func (s InquiryStage) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid InquiryStage: %s", s)
	}
	return string(s), nil
}

// StageHistoryEntry is one immutable record of a stage change
type StageHistoryEntry struct {
	Stage       InquiryStage `json:"stage"`
	Timestamp   time.Time    `json:"timestamp"`
	ChangedByID *uint        `json:"changed_by_id,omitempty"`
	Note        *string      `json:"note,omitempty"`
}

// StageHistory is the append-only transition log stored as jsonb
type StageHistory []StageHistoryEntry

// Value implements the driver.Valuer interface for StageHistory
func (h StageHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for StageHistory
func (h *StageHistory) Scan(value any) error {
	if value == nil {
		*h = StageHistory{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StageHistory", value)
	}
	return json.Unmarshal(bytes, h)
}

// Inquiry is a client's interest in one listing, owned by one agent
type Inquiry struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	ListingID       uint         `gorm:"not null;index:idx_inquiries_listing_id" json:"listing_id"`
	AgentID         uint         `gorm:"not null;index:idx_inquiries_agent_id" json:"agent_id"`
	PromoterID      *uint        `gorm:"index:idx_inquiries_promoter_id" json:"promoter_id,omitempty"`
	TrackingLinkID  *uint        `gorm:"index:idx_inquiries_tracking_link_id" json:"tracking_link_id,omitempty"`
	ClientName      string       `gorm:"size:255;not null" json:"client_name"`
	ClientEmail     *string      `gorm:"size:255" json:"client_email,omitempty"`
	ClientPhone     string       `gorm:"size:32;not null" json:"client_phone"`
	Message         *string      `gorm:"type:text" json:"message,omitempty"`
	Stage           InquiryStage `gorm:"type:varchar(24);not null;default:'INQUIRY';index:idx_inquiries_stage" json:"stage"`
	StageHistory    StageHistory `gorm:"type:jsonb;not null;default:'[]'" json:"stage_history"`
	FirstResponseAt *time.Time   `json:"first_response_at,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;index:idx_inquiries_created_at" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

func (Inquiry) TableName() string { return "inquiries" }

// NewInquiry opens an inquiry in the INQUIRY stage with its first history entry
func NewInquiry(listingID, agentID uint, clientName, clientPhone string, clientEmail, message *string, now time.Time) *Inquiry {
	return &Inquiry{
		ListingID:   listingID,
		AgentID:     agentID,
		ClientName:  clientName,
		ClientEmail: clientEmail,
		ClientPhone: clientPhone,
		Message:     message,
		Stage:       InquiryStageInquiry,
		StageHistory: StageHistory{
			{Stage: InquiryStageInquiry, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyStage appends a history entry, moves the inquiry to stage and
// returns the stage it was in before. FirstResponseAt is stamped only on
// the first entry into WAITING_RESPONSE and never changed afterwards.
func (i *Inquiry) ApplyStage(stage InquiryStage, at time.Time, changedByID uint, note *string) InquiryStage {
	prev := i.Stage
	by := changedByID
	i.StageHistory = append(i.StageHistory, StageHistoryEntry{
		Stage:       stage,
		Timestamp:   at,
		ChangedByID: &by,
		Note:        note,
	})
	i.Stage = stage
	if stage == InquiryStageWaitingResponse && i.FirstResponseAt == nil {
		t := at
		i.FirstResponseAt = &t
	}
	i.UpdatedAt = at
	return prev
}

// WasEverIn reports whether the history shows the inquiry in the given stage
func (i *Inquiry) WasEverIn(stage InquiryStage) bool {
	for _, e := range i.StageHistory {
		if e.Stage == stage {
			return true
		}
	}
	return false
}

// IsStale reports whether a non-terminal inquiry is older than the threshold
func (i *Inquiry) IsStale(threshold time.Duration, now time.Time) bool {
	if i.Stage.IsTerminal() {
		return false
	}
	return now.Sub(i.CreatedAt) > threshold
}

// ResponseOverdue reports whether the agent has not responded within the SLA
func (i *Inquiry) ResponseOverdue(sla time.Duration, now time.Time) bool {
	if i.FirstResponseAt != nil || i.Stage.IsTerminal() {
		return false
	}
	return now.Sub(i.CreatedAt) > sla
}

// InquiryFilter provides filter fields for repository queries
type InquiryFilter struct {
	ID            *uint
	ListingID     *uint
	AgentID       *uint
	PromoterID    *uint
	Stages        []InquiryStage
	NonTerminal   *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
