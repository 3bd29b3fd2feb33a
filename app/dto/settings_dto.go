package dto

// SettingsDTO is the typed view of the admin-tunable settings
type SettingsDTO struct {
	RecruiterBonusEnabled     bool  `json:"recruiter_bonus_enabled"`
	RecruiterBonusAmount      int64 `json:"recruiter_bonus_amount"`
	StaleInquiryThresholdDays int   `json:"stale_inquiry_threshold_days"`
	AgentResponseSLAHours     int   `json:"agent_response_sla_hours"`
}

// UpdateSettingsRequest writes only the keys present in the body
type UpdateSettingsRequest struct {
	RecruiterBonusEnabled     *bool  `json:"recruiter_bonus_enabled,omitempty"`
	RecruiterBonusAmount      *int64 `json:"recruiter_bonus_amount,omitempty" validate:"omitempty,gte=0"`
	StaleInquiryThresholdDays *int   `json:"stale_inquiry_threshold_days,omitempty" validate:"omitempty,gte=1,lte=3650"`
	AgentResponseSLAHours     *int   `json:"agent_response_sla_hours,omitempty" validate:"omitempty,gte=1,lte=8760"`
}
