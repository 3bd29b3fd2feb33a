package dto

// CreatePublicInquiryRequest is the body of POST /inquiries/public
type CreatePublicInquiryRequest struct {
	ListingID   uint    `json:"listing_id" validate:"required,gt=0"`
	RefCode     *string `json:"ref_code,omitempty" validate:"omitempty,max=32"`
	ClientName  string  `json:"client_name" validate:"required,min=1,max=255"`
	ClientPhone string  `json:"client_phone" validate:"required,min=5,max=32"`
	ClientEmail *string `json:"client_email,omitempty" validate:"omitempty,email,max=255"`
	Message     *string `json:"message,omitempty" validate:"omitempty,max=2000"`
}

// CreatePublicInquiryResponse carries no attribution data
type CreatePublicInquiryResponse struct {
	ID        uint   `json:"id"`
	Stage     string `json:"stage"`
	CreatedAt string `json:"created_at"`
}

type StageHistoryEntryDTO struct {
	Stage       string  `json:"stage"`
	Timestamp   string  `json:"timestamp"`
	ChangedByID *uint   `json:"changed_by_id,omitempty"`
	Note        *string `json:"note,omitempty"`
}

// InquiryDTO is the read model of an inquiry. PromoterID and TrackingLinkID
// are only populated for admin viewers; agents see IsReferred.
type InquiryDTO struct {
	ID              uint                   `json:"id"`
	ListingID       uint                   `json:"listing_id"`
	AgentID         uint                   `json:"agent_id"`
	PromoterID      *uint                  `json:"promoter_id,omitempty"`
	TrackingLinkID  *uint                  `json:"tracking_link_id,omitempty"`
	IsReferred      bool                   `json:"is_referred"`
	ClientName      string                 `json:"client_name"`
	ClientEmail     *string                `json:"client_email,omitempty"`
	ClientPhone     string                 `json:"client_phone"`
	Message         *string                `json:"message,omitempty"`
	Stage           string                 `json:"stage"`
	IsStale         bool                   `json:"is_stale"`
	ResponseOverdue bool                   `json:"response_overdue"`
	FirstResponseAt *string                `json:"first_response_at,omitempty"`
	StageHistory    []StageHistoryEntryDTO `json:"stage_history,omitempty"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

// ListInquiriesRequest filters GET /inquiries
type ListInquiriesRequest struct {
	PageRequest
	Stage     *string `json:"stage,omitempty" query:"stage"`
	ListingID *uint   `json:"listing_id,omitempty" query:"listing_id"`
	StaleOnly bool    `json:"stale,omitempty" query:"stale"`
}

type ListInquiriesResponse struct {
	Items    []InquiryDTO `json:"items"`
	PageInfo PageInfo     `json:"page_info"`
}

// TransitionInquiryRequest is the body of PATCH /inquiries/{id}/stage
type TransitionInquiryRequest struct {
	Stage string  `json:"stage" validate:"required"`
	Note  *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type TransitionInquiryResponse struct {
	Inquiry             InquiryDTO `json:"inquiry"`
	PreviousStage       string     `json:"previous_stage"`
	CommissionAction    string     `json:"commission_action"`
	CommissionsCreated  int        `json:"commissions_created"`
	CommissionsReversed int64      `json:"commissions_reversed"`
}
