// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"github.com/amirphl/Maskan/utils"
)

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// Actor is the authenticated caller as asserted by its bearer token.
// Permissions are always decided on the stored user, not on the token role.
type Actor struct {
	UserID uint
	Role   models.UserRole
}

// authorizeActor loads the caller and requires an approved account
func authorizeActor(ctx context.Context, users repository.UserRepository, actor Actor) (*models.User, error) {
	if actor.UserID == 0 {
		return nil, NewBusinessError(CodeUnauthorized, "Authentication required", ErrUnauthenticated)
	}
	user, err := users.ByID(ctx, actor.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to load user", err)
	}
	if user == nil {
		return nil, NewBusinessError(CodeForbidden, "User not found", ErrUserNotFound)
	}
	if !user.IsApproved {
		return nil, NewBusinessError(CodeForbidden, "User is not approved", ErrUserNotApproved)
	}
	return user, nil
}

// authorizeAdmin is authorizeActor restricted to admins
func authorizeAdmin(ctx context.Context, users repository.UserRepository, actor Actor) (*models.User, error) {
	user, err := authorizeActor(ctx, users, actor)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, NewBusinessError(CodeForbidden, "Admin access required", ErrAdminOnly)
	}
	return user, nil
}

// txError maps an error escaping a transaction to the taxonomy
func txError(err error, code, message string) error {
	var be *BusinessError
	if errors.As(err, &be) {
		return be
	}
	if errors.Is(err, repository.ErrTxRetriesExhausted) {
		return NewBusinessError(CodeConflict, "Concurrent update, please retry", ErrConcurrentUpdate)
	}
	return NewBusinessError(code, message, err)
}

type auditEntry struct {
	actorID     *uint
	action      string
	entityType  string
	entityID    *uint
	description string
	success     bool
	errorMsg    *string
	details     map[string]any
}

// createAuditLog writes an audit row. Failures are logged and never returned
// to the caller, the audited operation has already committed.
func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, entry auditEntry, metadata *ClientMetadata) {
	if auditRepo == nil {
		return
	}

	audit := &models.AuditLog{
		ActorID:      entry.actorID,
		Action:       entry.action,
		EntityType:   entry.entityType,
		EntityID:     entry.entityID,
		Description:  &entry.description,
		Success:      utils.ToPtr(entry.success),
		ErrorMessage: entry.errorMsg,
	}

	if metadata != nil {
		audit.IPAddress = utils.ToPtr(metadata.IPAddress)
		audit.UserAgent = utils.ToPtr(metadata.UserAgent)
		if metadata.RequestID != "" {
			audit.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	if audit.RequestID == nil {
		if requestID := utils.RequestIDFromContext(ctx); requestID != "" {
			audit.RequestID = &requestID
		}
	}
	if len(entry.details) > 0 {
		if raw, err := json.Marshal(entry.details); err == nil {
			audit.Metadata = raw
		}
	}

	if err := auditRepo.Save(context.WithoutCancel(ctx), audit); err != nil {
		log.Printf("audit: failed to record %s on %s: %v", entry.action, entry.entityType, err)
	}
}
