// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/app/middleware"
	businessflow "github.com/amirphl/Maskan/business_flow"
	"github.com/amirphl/Maskan/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

const defaultRequestTimeout = 10 * time.Second

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// ErrorResponse writes the failure envelope
func ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// SuccessResponse writes the success envelope
func SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// StatusForCode maps a business error code to its HTTP status
func StatusForCode(code string) int {
	switch code {
	case businessflow.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case businessflow.CodeForbidden:
		return fiber.StatusForbidden
	case businessflow.CodeNotFound:
		return fiber.StatusNotFound
	case businessflow.CodeValidation:
		return fiber.StatusBadRequest
	case businessflow.CodeAlreadyExists, businessflow.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// handleFlowError renders err. Internal failures are logged and their detail withheld.
func handleFlowError(c fiber.Ctx, err error, operation string) error {
	var be *businessflow.BusinessError
	if !errors.As(err, &be) {
		log.Printf("%s failed: %v", operation, err)
		return ErrorResponse(c, fiber.StatusInternalServerError, operation+" failed", "INTERNAL_ERROR", nil)
	}

	status := StatusForCode(be.Code)
	if status == fiber.StatusInternalServerError {
		log.Printf("%s failed: %v", operation, err)
		return ErrorResponse(c, status, be.Message, be.Code, nil)
	}

	var details any
	if be.Err != nil {
		details = be.Err.Error()
	}
	return ErrorResponse(c, status, be.Message, be.Code, details)
}

// validateRequest runs struct validation and writes a 400 on failure. It reports whether the request is valid.
func validateRequest(c fiber.Ctx, v *validator.Validate, req any) (bool, error) {
	if err := v.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return false, ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", businessflow.CodeValidation, err.Error())
		}
		messages := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			messages = append(messages, getValidationErrorMessage(fe))
		}
		return false, ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", businessflow.CodeValidation, messages)
	}
	return true, nil
}

// actorFromContext builds the caller from the values Authenticate stored
func actorFromContext(c fiber.Ctx) businessflow.Actor {
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	return businessflow.Actor{UserID: userID, Role: role}
}

func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestID(c))
	return metadata
}

func requestID(c fiber.Ctx) string {
	if id := requestid.FromContext(c); id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}

// createRequestContext detaches the flow from fasthttp's pooled request context
func createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, defaultRequestTimeout)
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		ctx = context.WithValue(ctx, utils.UserIDKey, userID)
	}
	if role, ok := middleware.GetUserRoleFromContext(c); ok {
		ctx = context.WithValue(ctx, utils.UserRoleKey, role)
	}
	return ctx, cancel
}

// parseIDParam reads a positive integer path parameter
func parseIDParam(c fiber.Ctx, name string) (uint, bool) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryUint returns nil for an absent parameter and an error for a malformed one
func queryUint(c fiber.Ctx, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a positive integer", name)
	}
	id := uint(v)
	return &id, nil
}

func queryString(c fiber.Ctx, name string) *string {
	return utils.TrimToNil(utils.ToPtr(c.Query(name)))
}

// pageFromQuery reads page and page_size, leaving defaults to PageRequest.Normalize
func pageFromQuery(c fiber.Ctx) (dto.PageRequest, error) {
	var p dto.PageRequest
	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, errors.New("page must be a positive integer")
		}
		p.Page = v
	}
	if raw := c.Query("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			return p, errors.New("page_size must be between 1 and 100")
		}
		p.PageSize = v
	}
	return p, nil
}
