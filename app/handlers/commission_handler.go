package handlers

import (
	"strings"

	"github.com/amirphl/Maskan/app/dto"
	businessflow "github.com/amirphl/Maskan/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CommissionHandlerInterface defines the commission endpoints
type CommissionHandlerInterface interface {
	List(c fiber.Ctx) error
	UpdateStatus(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

type CommissionHandler struct {
	flow      businessflow.CommissionFlow
	validator *validator.Validate
}

func NewCommissionHandler(flow businessflow.CommissionFlow) CommissionHandlerInterface {
	return &CommissionHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func commissionFilterFromQuery(c fiber.Ctx) (*dto.ListCommissionsRequest, error) {
	page, err := pageFromQuery(c)
	if err != nil {
		return nil, err
	}
	req := &dto.ListCommissionsRequest{
		PageRequest: page,
		Statuses:    businessflow.ParseStatusList(c.Query("status")),
		Role:        queryString(c, "role"),
	}
	if req.InquiryID, err = queryUint(c, "inquiry_id"); err != nil {
		return nil, err
	}
	if req.ListingID, err = queryUint(c, "listing_id"); err != nil {
		return nil, err
	}
	if req.EarnerID, err = queryUint(c, "earner_id"); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns commissions visible to the caller with the filtered total
// @Summary List Commissions
// @Description Non-admin callers only see their own rows. inquiry_id is omitted on promoter and recruiter rows for non-admins.
// @Tags Commissions
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses (PENDING,APPROVED,PAID,REVERSED)"
// @Param role query string false "AGENT, PROMOTER, COMPANY or RECRUITER"
// @Param inquiry_id query int false "Inquiry filter"
// @Param listing_id query int false "Listing filter"
// @Param earner_id query int false "Earner filter (admin only)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListCommissionsResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Router /api/v1/commissions [get]
func (h *CommissionHandler) List(c fiber.Ctx) error {
	req, err := commissionFilterFromQuery(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error(), businessflow.CodeValidation, nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/commissions")
	defer cancel()

	out, err := h.flow.List(ctx, actorFromContext(c), req)
	if err != nil {
		return handleFlowError(c, err, "List commissions")
	}
	return SuccessResponse(c, fiber.StatusOK, "Commissions retrieved", out)
}

// UpdateStatus advances a commission one step: PENDING to APPROVED, APPROVED to PAID
// @Summary Update Commission Status
// @Tags Commissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Commission ID"
// @Param request body dto.UpdateCommissionStatusRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=dto.CommissionDTO}
// @Failure 400 {object} dto.APIResponse "Transition not allowed"
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/commissions/{id}/status [patch]
func (h *CommissionHandler) UpdateStatus(c fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid commission id", businessflow.CodeValidation, nil)
	}
	var req dto.UpdateCommissionStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/commissions/:id/status")
	defer cancel()

	out, err := h.flow.UpdateStatus(ctx, actorFromContext(c), id, &req, clientMetadata(c))
	if err != nil {
		return handleFlowError(c, err, "Update commission status")
	}
	return SuccessResponse(c, fiber.StatusOK, "Commission status updated", out)
}

// Export streams the filtered commissions as an xlsx workbook
// @Summary Admin Export Commissions
// @Tags Admin Commissions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param status query string false "Comma separated statuses"
// @Param role query string false "Role filter"
// @Param listing_id query int false "Listing filter"
// @Param earner_id query int false "Earner filter"
// @Success 200 {string} string "XLSX file"
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /api/v1/admin/commissions/export [get]
func (h *CommissionHandler) Export(c fiber.Ctx) error {
	req, err := commissionFilterFromQuery(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error(), businessflow.CodeValidation, nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/commissions/export")
	defer cancel()

	filename, data, err := h.flow.Export(ctx, actorFromContext(c), req)
	if err != nil {
		return handleFlowError(c, err, "Export commissions")
	}
	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}
