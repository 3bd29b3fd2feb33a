package dto

// CommissionDTO is the read model of a commission. InquiryID is withheld
// from non-admin viewers of PROMOTER and RECRUITER rows.
type CommissionDTO struct {
	ID        uint    `json:"id"`
	InquiryID *uint   `json:"inquiry_id,omitempty"`
	ListingID uint    `json:"listing_id"`
	EarnerID  uint    `json:"earner_id"`
	Role      string  `json:"role"`
	Amount    int64   `json:"amount"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	PaidAt    *string `json:"paid_at,omitempty"`
}

// ListCommissionsRequest filters GET /commissions and the admin export.
// Statuses is parsed from a comma separated query value.
type ListCommissionsRequest struct {
	PageRequest
	Statuses  []string `json:"statuses,omitempty"`
	Role      *string  `json:"role,omitempty" query:"role"`
	InquiryID *uint    `json:"inquiry_id,omitempty" query:"inquiry_id"`
	ListingID *uint    `json:"listing_id,omitempty" query:"listing_id"`
	EarnerID  *uint    `json:"earner_id,omitempty" query:"earner_id"`
}

type ListCommissionsResponse struct {
	Items       []CommissionDTO `json:"items"`
	TotalAmount int64           `json:"total_amount"`
	PageInfo    PageInfo        `json:"page_info"`
}

// UpdateCommissionStatusRequest is the body of PATCH /commissions/{id}/status
type UpdateCommissionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=APPROVED PAID"`
}
