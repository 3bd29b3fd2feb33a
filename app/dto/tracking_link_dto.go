package dto

// CreateTrackingLinkRequest is the body of POST /tracking-links
type CreateTrackingLinkRequest struct {
	ListingID      uint    `json:"listing_id" validate:"required,gt=0"`
	Platform       string  `json:"platform" validate:"required,oneof=WHATSAPP TELEGRAM INSTAGRAM FACEBOOK X EMAIL SMS WEBSITE OTHER"`
	TargetLocation *string `json:"target_location,omitempty" validate:"omitempty,max=255"`
	CustomTag      *string `json:"custom_tag,omitempty" validate:"omitempty,max=255"`
}

// TrackingLinkDTO is the creator-facing view of a tracking link
type TrackingLinkDTO struct {
	ID             uint    `json:"id"`
	RefCode        string  `json:"ref_code"`
	ListingID      uint    `json:"listing_id"`
	CreatorID      uint    `json:"creator_id"`
	CreatorRole    string  `json:"creator_role"`
	PromoterID     *uint   `json:"promoter_id,omitempty"`
	Platform       string  `json:"platform"`
	TargetLocation *string `json:"target_location,omitempty"`
	CustomTag      *string `json:"custom_tag,omitempty"`
	ClickCount     int64   `json:"click_count"`
	InquiryCount   int64   `json:"inquiry_count"`
	CreatedAt      string  `json:"created_at"`
}

// ListTrackingLinksRequest filters GET /tracking-links
type ListTrackingLinksRequest struct {
	PageRequest
	ListingID *uint   `json:"listing_id,omitempty" query:"listing_id"`
	Platform  *string `json:"platform,omitempty" query:"platform"`
}

type ListTrackingLinksResponse struct {
	Items    []TrackingLinkDTO `json:"items"`
	PageInfo PageInfo          `json:"page_info"`
}

// ClickHeaders are the request headers the click attributor derives the visitor from
type ClickHeaders struct {
	ForwardedFor string
	RealIP       string
	UserAgent    string
}

// ClickResponse reports whether a click was counted
type ClickResponse struct {
	Recorded  bool   `json:"recorded"`
	Reason    string `json:"reason,omitempty"`
	ListingID uint   `json:"listing_id"`
}
