// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/app/services"
	"github.com/amirphl/Maskan/models"
	"github.com/gofiber/fiber/v3"
)

// Locals keys populated by Authenticate
const (
	LocalUserID      = "user_id"
	LocalUserRole    = "user_role"
	LocalTokenID     = "token_id"
	LocalTokenClaims = "token_claims"
	LocalRequestID   = "request_id"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}

// Authenticate validates the bearer access token and stores the caller's id and role
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required", "MISSING_AUTHORIZATION_HEADER")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Expected 'Bearer <token>'", "INVALID_AUTHORIZATION_FORMAT")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "Access token is required", "MISSING_ACCESS_TOKEN")
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
			case errors.Is(err, services.ErrTokenInvalid):
				return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
			default:
				return unauthorized(c, "Token validation failed", "TOKEN_VALIDATION_FAILED")
			}
		}

		// Refresh tokens only work against /auth/refresh
		if claims.TokenType != services.TokenTypeAccess {
			return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserRole, claims.Role)
		c.Locals(LocalTokenID, claims.TokenID)
		c.Locals(LocalTokenClaims, claims)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals(LocalRequestID, requestID)
		}

		return c.Next()
	}
}

// GetUserIDFromContext extracts the authenticated user id
func GetUserIDFromContext(c fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(LocalUserID).(uint)
	return userID, ok
}

// GetUserRoleFromContext extracts the role asserted by the token
func GetUserRoleFromContext(c fiber.Ctx) (models.UserRole, bool) {
	role, ok := c.Locals(LocalUserRole).(models.UserRole)
	return role, ok
}

// GetTokenClaimsFromContext extracts token claims from the request context
func GetTokenClaimsFromContext(c fiber.Ctx) (*services.TokenClaims, bool) {
	claims, ok := c.Locals(LocalTokenClaims).(*services.TokenClaims)
	return claims, ok
}

// RequireAuth ensures Authenticate ran and produced a usable user id
func RequireAuth(c fiber.Ctx) error {
	userID, exists := GetUserIDFromContext(c)
	if !exists {
		return unauthorized(c, "Authentication required", "AUTHENTICATION_REQUIRED")
	}
	if userID == 0 {
		return unauthorized(c, "Invalid user ID", "INVALID_USER_ID")
	}
	return nil
}
