package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// PageRequest carries 1-based pagination shared by list endpoints
type PageRequest struct {
	Page     int `json:"page" query:"page" validate:"omitempty,min=1"`
	PageSize int `json:"page_size" query:"page_size" validate:"omitempty,min=1,max=100"`
}

// Normalize fills defaults and returns limit and offset
func (p PageRequest) Normalize() (page, pageSize, offset int) {
	page = p.Page
	if page < 1 {
		page = 1
	}
	pageSize = p.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}

// PageInfo describes the returned slice of a paginated list
type PageInfo struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}
