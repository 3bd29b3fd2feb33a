package handlers

import (
	"log"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/app/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the token endpoints
type AuthHandlerInterface interface {
	Refresh(c fiber.Ctx) error
	Health(c fiber.Ctx) error
}

// AuthHandler handles token rotation. Users sign in elsewhere on the platform.
type AuthHandler struct {
	tokenService services.TokenService
	accessTTL    time.Duration
	validator    *validator.Validate
}

func NewAuthHandler(tokenService services.TokenService, accessTTL time.Duration) AuthHandlerInterface {
	return &AuthHandler{
		tokenService: tokenService,
		accessTTL:    accessTTL,
		validator:    validator.New(),
	}
}

// Refresh exchanges a refresh token for a new token pair
// @Summary Refresh Tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenPairResponse} "Tokens issued"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	access, refresh, err := h.tokenService.RefreshToken(req.RefreshToken)
	if err != nil {
		log.Printf("Token refresh rejected: %v", err)
		return ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", "TOKEN_INVALID", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Tokens refreshed", dto.TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.accessTTL.Seconds()),
	})
}

// Health reports liveness
// @Summary Health Check
// @Description Check the health status of the API
// @Tags Health
// @Produce json
// @Success 200 {object} dto.APIResponse "Service is healthy"
// @Router /health [get]
func (h *AuthHandler) Health(c fiber.Ctx) error {
	return SuccessResponse(c, fiber.StatusOK, "Service is healthy", fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
