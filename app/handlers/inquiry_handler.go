package handlers

import (
	"strconv"
	"strings"

	"github.com/amirphl/Maskan/app/dto"
	businessflow "github.com/amirphl/Maskan/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// InquiryHandlerInterface defines the inquiry endpoints
type InquiryHandlerInterface interface {
	CreatePublic(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Transition(c fiber.Ctx) error
}

type InquiryHandler struct {
	flow      businessflow.InquiryFlow
	validator *validator.Validate
}

func NewInquiryHandler(flow businessflow.InquiryFlow) InquiryHandlerInterface {
	return &InquiryHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// CreatePublic opens an inquiry from the public listing page
// @Summary Submit Inquiry
// @Description Public endpoint. An unknown or foreign ref_code is ignored and the inquiry is still created.
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param request body dto.CreatePublicInquiryRequest true "Inquiry data"
// @Success 201 {object} dto.APIResponse{data=dto.CreatePublicInquiryResponse} "Inquiry received"
// @Failure 400 {object} dto.APIResponse "Validation error or inactive listing"
// @Failure 404 {object} dto.APIResponse "Listing not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/inquiries/public [post]
func (h *InquiryHandler) CreatePublic(c fiber.Ctx) error {
	var req dto.CreatePublicInquiryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/inquiries/public")
	defer cancel()

	out, err := h.flow.CreatePublic(ctx, &req, clientMetadata(c))
	if err != nil {
		return handleFlowError(c, err, "Create inquiry")
	}
	return SuccessResponse(c, fiber.StatusCreated, "Inquiry received", out)
}

// List returns inquiries visible to the caller
// @Summary List Inquiries
// @Tags Inquiries
// @Produce json
// @Security BearerAuth
// @Param stage query string false "Stage filter"
// @Param listing_id query int false "Listing filter"
// @Param stale query bool false "Only stale inquiries"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListInquiriesResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /api/v1/inquiries [get]
func (h *InquiryHandler) List(c fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error(), businessflow.CodeValidation, nil)
	}
	listingID, err := queryUint(c, "listing_id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error(), businessflow.CodeValidation, nil)
	}
	var staleOnly bool
	if raw := strings.TrimSpace(c.Query("stale")); raw != "" {
		staleOnly, err = strconv.ParseBool(raw)
		if err != nil {
			return ErrorResponse(c, fiber.StatusBadRequest, "stale must be true or false", businessflow.CodeValidation, nil)
		}
	}
	req := &dto.ListInquiriesRequest{
		PageRequest: page,
		Stage:       queryString(c, "stage"),
		ListingID:   listingID,
		StaleOnly:   staleOnly,
	}

	ctx, cancel := createRequestContext(c, "/api/v1/inquiries")
	defer cancel()

	out, err := h.flow.List(ctx, actorFromContext(c), req)
	if err != nil {
		return handleFlowError(c, err, "List inquiries")
	}
	return SuccessResponse(c, fiber.StatusOK, "Inquiries retrieved", out)
}

// Get returns one inquiry with its stage history
// @Summary Get Inquiry
// @Tags Inquiries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Success 200 {object} dto.APIResponse{data=dto.InquiryDTO}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/inquiries/{id} [get]
func (h *InquiryHandler) Get(c fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid inquiry id", businessflow.CodeValidation, nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/inquiries/:id")
	defer cancel()

	out, err := h.flow.Get(ctx, actorFromContext(c), id)
	if err != nil {
		return handleFlowError(c, err, "Get inquiry")
	}
	return SuccessResponse(c, fiber.StatusOK, "Inquiry retrieved", out)
}

// Transition moves an inquiry to another stage and settles commissions
// @Summary Change Inquiry Stage
// @Description Any stage may follow any other. Entering RENTED or SOLD creates commissions; leaving it reverses them.
// @Tags Inquiries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Inquiry ID"
// @Param request body dto.TransitionInquiryRequest true "Target stage"
// @Success 200 {object} dto.APIResponse{data=dto.TransitionInquiryResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse "Concurrent update"
// @Router /api/v1/inquiries/{id}/stage [patch]
func (h *InquiryHandler) Transition(c fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid inquiry id", businessflow.CodeValidation, nil)
	}
	var req dto.TransitionInquiryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.Stage = strings.ToUpper(strings.TrimSpace(req.Stage))
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/inquiries/:id/stage")
	defer cancel()

	out, err := h.flow.Transition(ctx, actorFromContext(c), id, &req, clientMetadata(c))
	if err != nil {
		return handleFlowError(c, err, "Transition inquiry")
	}
	return SuccessResponse(c, fiber.StatusOK, "Inquiry stage updated", out)
}
