// Package models contains domain entities for attribution, inquiries and commissions
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ActorID      *uint           `gorm:"index:idx_audit_actor_id" json:"actor_id,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	EntityType   string          `gorm:"size:32;not null;index:idx_audit_entity,priority:1" json:"entity_type"`
	EntityID     *uint           `gorm:"index:idx_audit_entity,priority:2" json:"entity_id,omitempty"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audited entity types
const (
	AuditEntityInquiry      = "inquiry"
	AuditEntityCommission   = "commission"
	AuditEntitySetting      = "setting"
	AuditEntityTrackingLink = "tracking_link"
)

// Audit action constants
const (
	AuditActionInquiryStageChanged     = "inquiry_stage_changed"
	AuditActionCommissionsCreated      = "commissions_created"
	AuditActionCommissionsReversed     = "commissions_reversed"
	AuditActionCommissionStatusChanged = "commission_status_changed"
	AuditActionSettingsUpdated         = "settings_updated"
	AuditActionTrackingLinkCreated     = "tracking_link_created"
	AuditActionTrackingLinkDeleted     = "tracking_link_deleted"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	ActorID       *uint
	Action        *string
	EntityType    *string
	EntityID      *uint
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

// IsFinancial reports whether the entry touched commission rows
func (a *AuditLog) IsFinancial() bool {
	switch a.Action {
	case AuditActionCommissionsCreated, AuditActionCommissionsReversed, AuditActionCommissionStatusChanged:
		return true
	default:
		return false
	}
}
