package handlers

import (
	"github.com/amirphl/Maskan/app/dto"
	businessflow "github.com/amirphl/Maskan/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// SettingsHandlerInterface defines the admin settings endpoints
type SettingsHandlerInterface interface {
	Get(c fiber.Ctx) error
	Update(c fiber.Ctx) error
}

type SettingsHandler struct {
	flow      businessflow.SettingsFlow
	validator *validator.Validate
}

func NewSettingsHandler(flow businessflow.SettingsFlow) SettingsHandlerInterface {
	return &SettingsHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// Get returns the effective settings
// @Summary Admin Get Settings
// @Tags Admin Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SettingsDTO}
// @Failure 403 {object} dto.APIResponse
// @Router /api/v1/admin/settings [get]
func (h *SettingsHandler) Get(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/admin/settings")
	defer cancel()

	out, err := h.flow.Get(ctx, actorFromContext(c))
	if err != nil {
		return handleFlowError(c, err, "Get settings")
	}
	return SuccessResponse(c, fiber.StatusOK, "Settings retrieved", out)
}

// Update writes the keys present in the body
// @Summary Admin Update Settings
// @Tags Admin Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateSettingsRequest true "Settings to change"
// @Success 200 {object} dto.APIResponse{data=dto.SettingsDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /api/v1/admin/settings [put]
func (h *SettingsHandler) Update(c fiber.Ctx) error {
	var req dto.UpdateSettingsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/settings")
	defer cancel()

	out, err := h.flow.Update(ctx, actorFromContext(c), &req, clientMetadata(c))
	if err != nil {
		return handleFlowError(c, err, "Update settings")
	}
	return SuccessResponse(c, fiber.StatusOK, "Settings updated", out)
}
