package handlers

import (
	"strings"

	"github.com/amirphl/Maskan/app/dto"
	businessflow "github.com/amirphl/Maskan/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TrackingLinkHandlerInterface defines the tracking link endpoints
type TrackingLinkHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Click(c fiber.Ctx) error
}

// TrackingLinkHandler serves link management and the public click endpoint
type TrackingLinkHandler struct {
	linkFlow  businessflow.TrackingLinkFlow
	clickFlow businessflow.ClickFlow
	validator *validator.Validate
}

func NewTrackingLinkHandler(linkFlow businessflow.TrackingLinkFlow, clickFlow businessflow.ClickFlow) TrackingLinkHandlerInterface {
	return &TrackingLinkHandler{
		linkFlow:  linkFlow,
		clickFlow: clickFlow,
		validator: validator.New(),
	}
}

// Create generates a new tracking link for a listing
// @Summary Create Tracking Link
// @Description Create a shareable tracking link for a listing. Promoters get attribution on inquiries opened through it.
// @Tags Tracking Links
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTrackingLinkRequest true "Link data"
// @Success 201 {object} dto.APIResponse{data=dto.TrackingLinkDTO} "Link created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Failure 404 {object} dto.APIResponse "Listing not found"
// @Failure 409 {object} dto.APIResponse "Ref code space exhausted"
// @Router /api/v1/tracking-links [post]
func (h *TrackingLinkHandler) Create(c fiber.Ctx) error {
	var req dto.CreateTrackingLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.Platform = strings.ToUpper(strings.TrimSpace(req.Platform))
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/tracking-links")
	defer cancel()

	out, err := h.linkFlow.Create(ctx, actorFromContext(c), &req, clientMetadata(c))
	if err != nil {
		return handleFlowError(c, err, "Create tracking link")
	}
	return SuccessResponse(c, fiber.StatusCreated, "Tracking link created", out)
}

// List returns the caller's tracking links, or every link for admins
// @Summary List Tracking Links
// @Tags Tracking Links
// @Produce json
// @Security BearerAuth
// @Param listing_id query int false "Listing filter"
// @Param platform query string false "Platform filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListTrackingLinksResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Router /api/v1/tracking-links [get]
func (h *TrackingLinkHandler) List(c fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error(), businessflow.CodeValidation, nil)
	}
	listingID, err := queryUint(c, "listing_id")
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error(), businessflow.CodeValidation, nil)
	}
	req := &dto.ListTrackingLinksRequest{
		PageRequest: page,
		ListingID:   listingID,
		Platform:    queryString(c, "platform"),
	}
	if req.Platform != nil {
		upper := strings.ToUpper(*req.Platform)
		req.Platform = &upper
	}

	ctx, cancel := createRequestContext(c, "/api/v1/tracking-links")
	defer cancel()

	out, err := h.linkFlow.List(ctx, actorFromContext(c), req)
	if err != nil {
		return handleFlowError(c, err, "List tracking links")
	}
	return SuccessResponse(c, fiber.StatusOK, "Tracking links retrieved", out)
}

// Delete removes a tracking link owned by the caller
// @Summary Delete Tracking Link
// @Tags Tracking Links
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tracking link ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/tracking-links/{id} [delete]
func (h *TrackingLinkHandler) Delete(c fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid tracking link id", businessflow.CodeValidation, nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/tracking-links/:id")
	defer cancel()

	if err := h.linkFlow.Delete(ctx, actorFromContext(c), id, clientMetadata(c)); err != nil {
		return handleFlowError(c, err, "Delete tracking link")
	}
	return SuccessResponse(c, fiber.StatusOK, "Tracking link deleted", nil)
}

// Click records a visit through a tracking link. Repeat visits inside the dedup window are not counted.
// @Summary Record Tracking Link Click
// @Tags Tracking Links
// @Produce json
// @Param ref_code path string true "Ref code"
// @Success 200 {object} dto.APIResponse{data=dto.ClickResponse}
// @Failure 404 {object} dto.APIResponse "Unknown ref code"
// @Router /api/v1/tracking-links/{ref_code}/click [post]
func (h *TrackingLinkHandler) Click(c fiber.Ctx) error {
	refCode := strings.TrimSpace(c.Params("ref_code"))
	if refCode == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "ref_code is required", businessflow.CodeValidation, nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/tracking-links/:ref_code/click")
	defer cancel()

	out, err := h.clickFlow.Click(ctx, refCode, dto.ClickHeaders{
		ForwardedFor: c.Get("X-Forwarded-For"),
		RealIP:       c.Get("X-Real-IP"),
		UserAgent:    c.Get("User-Agent"),
	})
	if err != nil {
		return handleFlowError(c, err, "Record click")
	}
	return SuccessResponse(c, fiber.StatusOK, "Click processed", out)
}
