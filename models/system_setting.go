package models

import "time"

// Setting keys consulted by the settlement engine and inquiry reads
const (
	SettingRecruiterBonusEnabled     = "recruiter_bonus_enabled"
	SettingRecruiterBonusAmount      = "recruiter_bonus_amount"
	SettingStaleInquiryThresholdDays = "stale_inquiry_threshold_days"
	SettingAgentResponseSLAHours     = "agent_response_sla_hours"
)

// DefaultSettings are seeded when a key is missing
var DefaultSettings = map[string]string{
	SettingRecruiterBonusEnabled:     "false",
	SettingRecruiterBonusAmount:      "0",
	SettingStaleInquiryThresholdDays: "7",
	SettingAgentResponseSLAHours:     "24",
}

// SystemSetting is an admin-tunable key/value pair
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SystemSetting) TableName() string { return "system_settings" }

// SystemSettingFilter provides filter fields for repository queries
type SystemSettingFilter struct {
	Keys []string
}
