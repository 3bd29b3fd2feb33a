package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"github.com/amirphl/Maskan/utils"
)

// TrackingLinkFlow manages the lifecycle of tracking links
type TrackingLinkFlow interface {
	Create(ctx context.Context, actor Actor, req *dto.CreateTrackingLinkRequest, metadata *ClientMetadata) (*dto.TrackingLinkDTO, error)
	List(ctx context.Context, actor Actor, req *dto.ListTrackingLinksRequest) (*dto.ListTrackingLinksResponse, error)
	Delete(ctx context.Context, actor Actor, id uint, metadata *ClientMetadata) error
}

type TrackingLinkFlowImpl struct {
	linkRepo    repository.TrackingLinkRepository
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditLogRepository
	newRefCode  func() (string, error)
}

func NewTrackingLinkFlow(
	linkRepo repository.TrackingLinkRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
) TrackingLinkFlow {
	return &TrackingLinkFlowImpl{
		linkRepo:    linkRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		newRefCode:  GenerateRefCode,
	}
}

func (f *TrackingLinkFlowImpl) Create(ctx context.Context, actor Actor, req *dto.CreateTrackingLinkRequest, metadata *ClientMetadata) (*dto.TrackingLinkDTO, error) {
	if req == nil {
		return nil, NewBusinessError(CodeValidation, "request is required", nil)
	}
	platform := models.SharePlatform(req.Platform)
	if !platform.Valid() {
		return nil, NewBusinessErrorf(CodeValidation, "unknown platform %q", ErrInvalidPlatform, req.Platform)
	}

	user, err := authorizeActor(ctx, f.userRepo, actor)
	if err != nil {
		return nil, err
	}

	listing, err := f.listingRepo.ByID(ctx, req.ListingID)
	if err != nil {
		return nil, NewBusinessError("LISTING_LOOKUP_FAILED", "Failed to load listing", err)
	}
	if listing == nil {
		return nil, NewBusinessError(CodeNotFound, "Listing not found", ErrListingNotFound)
	}

	switch user.Role {
	case models.UserRoleAdmin:
	case models.UserRoleAgent:
		if listing.AgentID != user.ID {
			return nil, NewBusinessError(CodeForbidden, "Agents may only share their own listings", ErrAccessDenied)
		}
	case models.UserRolePromoter:
		if !listing.IsActive() {
			return nil, NewBusinessError(CodeValidation, "Only active listings can be promoted", ErrListingNotActive)
		}
	default:
		return nil, NewBusinessError(CodeForbidden, "Role may not create tracking links", ErrAccessDenied)
	}

	targetLocation := utils.TrimToNil(req.TargetLocation)
	customTag := utils.TrimToNil(req.CustomTag)

	var link *models.TrackingLink
	for attempt := 1; attempt <= MaxRefCodeAttempts; attempt++ {
		code, err := f.newRefCode()
		if err != nil {
			return nil, NewBusinessError("REF_CODE_GENERATION_FAILED", "Failed to generate reference code", err)
		}
		candidate := models.NewTrackingLink(code, listing.ID, user.ID, user.Role, platform, targetLocation, customTag)
		if err := candidate.Validate(); err != nil {
			return nil, NewBusinessError("TRACKING_LINK_INVALID", "Tracking link is inconsistent", err)
		}
		if candidate.CreatedAt.IsZero() {
			candidate.CreatedAt = utils.UTCNow()
		}

		err = f.linkRepo.Save(ctx, candidate)
		if err == nil {
			link = candidate
			break
		}
		if !repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("TRACKING_LINK_CREATE_FAILED", "Failed to create tracking link", err)
		}
	}
	if link == nil {
		return nil, NewBusinessErrorf(CodeAlreadyExists, "No unique reference code after %d attempts", ErrRefCodeExhausted, MaxRefCodeAttempts)
	}

	createAuditLog(ctx, f.auditRepo, auditEntry{
		actorID:     &user.ID,
		action:      models.AuditActionTrackingLinkCreated,
		entityType:  models.AuditEntityTrackingLink,
		entityID:    &link.ID,
		description: fmt.Sprintf("tracking link %s created for listing %d", link.RefCode, link.ListingID),
		success:     true,
		details:     map[string]any{"platform": link.Platform},
	}, metadata)

	out := toTrackingLinkDTO(link)
	return &out, nil
}

func (f *TrackingLinkFlowImpl) List(ctx context.Context, actor Actor, req *dto.ListTrackingLinksRequest) (*dto.ListTrackingLinksResponse, error) {
	if req == nil {
		req = &dto.ListTrackingLinksRequest{}
	}
	user, err := authorizeActor(ctx, f.userRepo, actor)
	if err != nil {
		return nil, err
	}

	filter := models.TrackingLinkFilter{ListingID: req.ListingID}
	if req.Platform != nil {
		platform := models.SharePlatform(*req.Platform)
		if !platform.Valid() {
			return nil, NewBusinessErrorf(CodeValidation, "unknown platform %q", ErrInvalidPlatform, *req.Platform)
		}
		filter.Platform = &platform
	}
	if !user.IsAdmin() {
		filter.CreatorID = &user.ID
	}

	page, pageSize, offset := req.Normalize()
	total, err := f.linkRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("TRACKING_LINK_LIST_FAILED", "Failed to count tracking links", err)
	}
	rows, err := f.linkRepo.ByFilter(ctx, filter, "id DESC", pageSize, offset)
	if err != nil {
		return nil, NewBusinessError("TRACKING_LINK_LIST_FAILED", "Failed to list tracking links", err)
	}

	items := make([]dto.TrackingLinkDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toTrackingLinkDTO(row))
	}
	return &dto.ListTrackingLinksResponse{
		Items:    items,
		PageInfo: dto.PageInfo{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

func (f *TrackingLinkFlowImpl) Delete(ctx context.Context, actor Actor, id uint, metadata *ClientMetadata) error {
	user, err := authorizeActor(ctx, f.userRepo, actor)
	if err != nil {
		return err
	}

	link, err := f.linkRepo.ByID(ctx, id)
	if err != nil {
		return NewBusinessError("TRACKING_LINK_LOOKUP_FAILED", "Failed to lookup tracking link", err)
	}
	if link == nil {
		return NewBusinessError(CodeNotFound, "Tracking link not found", ErrTrackingLinkNotFound)
	}
	if !user.IsAdmin() && link.CreatorID != user.ID {
		return NewBusinessError(CodeForbidden, "Only the creator may delete a tracking link", ErrAccessDenied)
	}

	if err := f.linkRepo.Delete(ctx, link.ID); err != nil {
		return NewBusinessError("TRACKING_LINK_DELETE_FAILED", "Failed to delete tracking link", err)
	}

	createAuditLog(ctx, f.auditRepo, auditEntry{
		actorID:     &user.ID,
		action:      models.AuditActionTrackingLinkDeleted,
		entityType:  models.AuditEntityTrackingLink,
		entityID:    &link.ID,
		description: fmt.Sprintf("tracking link %s deleted", link.RefCode),
		success:     true,
	}, metadata)
	return nil
}

func toTrackingLinkDTO(link *models.TrackingLink) dto.TrackingLinkDTO {
	return dto.TrackingLinkDTO{
		ID:             link.ID,
		RefCode:        link.RefCode,
		ListingID:      link.ListingID,
		CreatorID:      link.CreatorID,
		CreatorRole:    string(link.CreatorRole),
		PromoterID:     link.PromoterID,
		Platform:       string(link.Platform),
		TargetLocation: link.TargetLocation,
		CustomTag:      link.CustomTag,
		ClickCount:     link.ClickCount,
		InquiryCount:   link.InquiryCount,
		CreatedAt:      link.CreatedAt.UTC().Format(time.RFC3339),
	}
}
