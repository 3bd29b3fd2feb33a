package businessflow

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/app/services"
	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"github.com/amirphl/Maskan/utils"
)

// InquiryFlow handles client inquiries and drives them through the stage pipeline
type InquiryFlow interface {
	CreatePublic(ctx context.Context, req *dto.CreatePublicInquiryRequest, metadata *ClientMetadata) (*dto.CreatePublicInquiryResponse, error)
	List(ctx context.Context, actor Actor, req *dto.ListInquiriesRequest) (*dto.ListInquiriesResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (*dto.InquiryDTO, error)
	Transition(ctx context.Context, actor Actor, id uint, req *dto.TransitionInquiryRequest, metadata *ClientMetadata) (*dto.TransitionInquiryResponse, error)
}

type InquiryFlowImpl struct {
	inquiryRepo repository.InquiryRepository
	listingRepo repository.ListingRepository
	linkRepo    repository.TrackingLinkRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditLogRepository
	txManager   repository.TxManager
	settlement  *SettlementEngine
	settings    SettingsReader
	notifier    services.NotificationService
	now         func() time.Time
}

func NewInquiryFlow(
	inquiryRepo repository.InquiryRepository,
	listingRepo repository.ListingRepository,
	linkRepo repository.TrackingLinkRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	txManager repository.TxManager,
	settlement *SettlementEngine,
	settings SettingsReader,
	notifier services.NotificationService,
) InquiryFlow {
	return &InquiryFlowImpl{
		inquiryRepo: inquiryRepo,
		listingRepo: listingRepo,
		linkRepo:    linkRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		settlement:  settlement,
		settings:    settings,
		notifier:    notifier,
		now:         utils.UTCNow,
	}
}

// CreatePublic opens an inquiry for an active listing. A ref code that does
// not resolve to a link for the same listing is ignored.
func (f *InquiryFlowImpl) CreatePublic(ctx context.Context, req *dto.CreatePublicInquiryRequest, metadata *ClientMetadata) (*dto.CreatePublicInquiryResponse, error) {
	if req == nil {
		return nil, NewBusinessError(CodeValidation, "request is required", nil)
	}
	clientName := strings.TrimSpace(req.ClientName)
	clientPhone := strings.TrimSpace(req.ClientPhone)
	if clientName == "" || clientPhone == "" {
		return nil, NewBusinessError(CodeValidation, "client name and phone are required", nil)
	}

	listing, err := f.listingRepo.ByID(ctx, req.ListingID)
	if err != nil {
		return nil, NewBusinessError("LISTING_LOOKUP_FAILED", "Failed to load listing", err)
	}
	if listing == nil {
		return nil, NewBusinessError(CodeNotFound, "Listing not found", ErrListingNotFound)
	}
	if !listing.IsActive() {
		return nil, NewBusinessError(CodeValidation, "Listing is not accepting inquiries", ErrListingNotActive)
	}

	inquiry := models.NewInquiry(listing.ID, listing.AgentID, clientName, clientPhone,
		utils.TrimToNil(req.ClientEmail), utils.TrimToNil(req.Message), f.now())

	if link := f.resolveReferral(ctx, req.RefCode, listing.ID); link != nil {
		inquiry.PromoterID = link.PromoterID
		linkID := link.ID
		inquiry.TrackingLinkID = &linkID
	}

	err = f.txManager.WithTx(ctx, func(txCtx context.Context) error {
		inquiry.ID = 0
		if err := f.inquiryRepo.Save(txCtx, inquiry); err != nil {
			return err
		}
		if inquiry.TrackingLinkID != nil {
			return f.linkRepo.IncrementInquiryCount(txCtx, *inquiry.TrackingLinkID)
		}
		return nil
	})
	if err != nil {
		return nil, txError(err, "INQUIRY_CREATE_FAILED", "Failed to create inquiry")
	}

	inquiriesCreatedTotal.WithLabelValues(strconv.FormatBool(inquiry.TrackingLinkID != nil)).Inc()

	link := fmt.Sprintf("/inquiries/%d", inquiry.ID)
	dispatchNotifications(ctx, f.notifier, []*models.Notification{{
		RecipientID: inquiry.AgentID,
		Type:        models.NotificationTypeNewInquiry,
		Title:       "New inquiry",
		Message:     fmt.Sprintf("%s asked about listing %s.", inquiry.ClientName, listing.ListingNumber),
		Link:        &link,
	}})

	return &dto.CreatePublicInquiryResponse{
		ID:        inquiry.ID,
		Stage:     string(inquiry.Stage),
		CreatedAt: inquiry.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// resolveReferral never fails the inquiry: lookup problems only drop attribution
func (f *InquiryFlowImpl) resolveReferral(ctx context.Context, refCode *string, listingID uint) *models.TrackingLink {
	code := utils.TrimToNil(refCode)
	if code == nil {
		return nil
	}
	link, err := f.linkRepo.ByRefCode(ctx, *code)
	if err != nil {
		log.Printf("inquiry: ref code lookup failed, continuing without attribution: %v", err)
		return nil
	}
	if link == nil || link.ListingID != listingID {
		return nil
	}
	return link
}

func (f *InquiryFlowImpl) List(ctx context.Context, actor Actor, req *dto.ListInquiriesRequest) (*dto.ListInquiriesResponse, error) {
	if req == nil {
		req = &dto.ListInquiriesRequest{}
	}
	user, err := authorizeActor(ctx, f.userRepo, actor)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && user.Role != models.UserRoleAgent {
		return nil, NewBusinessError(CodeForbidden, "Only agents and admins can read inquiries", ErrAccessDenied)
	}

	settings, err := f.settings.Snapshot(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_READ_FAILED", "Failed to read settings", err)
	}
	now := f.now()

	filter := models.InquiryFilter{ListingID: req.ListingID}
	if !user.IsAdmin() {
		filter.AgentID = &user.ID
	}
	if req.Stage != nil {
		stage := models.InquiryStage(*req.Stage)
		if !stage.Valid() {
			return nil, NewBusinessErrorf(CodeValidation, "unknown stage %q", ErrInvalidStage, *req.Stage)
		}
		filter.Stages = []models.InquiryStage{stage}
	}
	if req.StaleOnly {
		cutoff := now.Add(-settings.StaleThreshold())
		filter.NonTerminal = utils.ToPtr(true)
		filter.CreatedBefore = &cutoff
	}

	page, pageSize, offset := req.Normalize()
	total, err := f.inquiryRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("INQUIRY_LIST_FAILED", "Failed to count inquiries", err)
	}
	rows, err := f.inquiryRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, offset)
	if err != nil {
		return nil, NewBusinessError("INQUIRY_LIST_FAILED", "Failed to list inquiries", err)
	}

	items := make([]dto.InquiryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toInquiryDTO(row, user.IsAdmin(), settings, now, false))
	}
	return &dto.ListInquiriesResponse{
		Items:    items,
		PageInfo: dto.PageInfo{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

func (f *InquiryFlowImpl) Get(ctx context.Context, actor Actor, id uint) (*dto.InquiryDTO, error) {
	user, err := authorizeActor(ctx, f.userRepo, actor)
	if err != nil {
		return nil, err
	}

	inquiry, err := f.inquiryRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("INQUIRY_LOOKUP_FAILED", "Failed to load inquiry", err)
	}
	if inquiry == nil {
		return nil, NewBusinessError(CodeNotFound, "Inquiry not found", ErrInquiryNotFound)
	}
	if !user.IsAdmin() && inquiry.AgentID != user.ID {
		return nil, NewBusinessError(CodeForbidden, "Inquiry belongs to another agent", ErrAccessDenied)
	}

	settings, err := f.settings.Snapshot(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_READ_FAILED", "Failed to read settings", err)
	}
	out := toInquiryDTO(inquiry, user.IsAdmin(), settings, f.now(), true)
	return &out, nil
}

// Transition moves an inquiry to any stage and settles commissions in the same transaction
func (f *InquiryFlowImpl) Transition(ctx context.Context, actor Actor, id uint, req *dto.TransitionInquiryRequest, metadata *ClientMetadata) (*dto.TransitionInquiryResponse, error) {
	if req == nil {
		return nil, NewBusinessError(CodeValidation, "request is required", nil)
	}
	next := models.InquiryStage(req.Stage)
	if !next.Valid() {
		return nil, NewBusinessErrorf(CodeValidation, "unknown stage %q", ErrInvalidStage, req.Stage)
	}

	user, err := authorizeActor(ctx, f.userRepo, actor)
	if err != nil {
		return nil, err
	}
	note := utils.TrimToNil(req.Note)

	var (
		inquiry *models.Inquiry
		prev    models.InquiryStage
		result  *SettlementResult
		now     time.Time
	)
	err = f.txManager.WithTx(ctx, func(txCtx context.Context) error {
		locked, err := f.inquiryRepo.ByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if locked == nil {
			return NewBusinessError(CodeNotFound, "Inquiry not found", ErrInquiryNotFound)
		}
		if !user.IsAdmin() && locked.AgentID != user.ID {
			return NewBusinessError(CodeForbidden, "Inquiry belongs to another agent", ErrAccessDenied)
		}

		now = f.now()
		prev = locked.ApplyStage(next, now, user.ID, note)
		if err := f.inquiryRepo.UpdateStage(txCtx, locked); err != nil {
			return err
		}

		res, err := f.settlement.Apply(txCtx, locked, prev, next, now)
		if err != nil {
			return err
		}
		inquiry, result = locked, res
		return nil
	})
	if err != nil {
		return nil, txError(err, "INQUIRY_TRANSITION_FAILED", "Failed to change inquiry stage")
	}

	stageTransitionsTotal.WithLabelValues(string(next)).Inc()
	for _, c := range result.Created {
		commissionsCreatedTotal.WithLabelValues(string(c.Role)).Inc()
	}
	if result.Reversed > 0 {
		commissionsReversedTotal.Add(float64(result.Reversed))
	}

	f.auditTransition(ctx, user, inquiry, prev, next, result, metadata)

	if len(result.Created) > 0 {
		dispatchNotifications(ctx, f.notifier, buildCommissionNotifications(inquiry, result.Listing, result.Created))
	}

	settings, err := f.settings.Snapshot(ctx)
	if err != nil {
		log.Printf("inquiry: settings unavailable after transition, using defaults: %v", err)
		settings = DefaultSettingsSnapshot()
	}

	return &dto.TransitionInquiryResponse{
		Inquiry:             toInquiryDTO(inquiry, user.IsAdmin(), settings, now, true),
		PreviousStage:       string(prev),
		CommissionAction:    result.Action.String(),
		CommissionsCreated:  len(result.Created),
		CommissionsReversed: result.Reversed,
	}, nil
}

func (f *InquiryFlowImpl) auditTransition(ctx context.Context, user *models.User, inquiry *models.Inquiry, prev, next models.InquiryStage, result *SettlementResult, metadata *ClientMetadata) {
	createAuditLog(ctx, f.auditRepo, auditEntry{
		actorID:     &user.ID,
		action:      models.AuditActionInquiryStageChanged,
		entityType:  models.AuditEntityInquiry,
		entityID:    &inquiry.ID,
		description: fmt.Sprintf("inquiry %d moved from %s to %s", inquiry.ID, prev, next),
		success:     true,
		details:     map[string]any{"from": prev, "to": next, "commission_action": result.Action.String()},
	}, metadata)

	switch result.Action {
	case CommissionActionCreateSet:
		createAuditLog(ctx, f.auditRepo, auditEntry{
			actorID:     &user.ID,
			action:      models.AuditActionCommissionsCreated,
			entityType:  models.AuditEntityInquiry,
			entityID:    &inquiry.ID,
			description: fmt.Sprintf("%d commissions created for inquiry %d", len(result.Created), inquiry.ID),
			success:     true,
		}, metadata)
	case CommissionActionDeleteAll:
		createAuditLog(ctx, f.auditRepo, auditEntry{
			actorID:     &user.ID,
			action:      models.AuditActionCommissionsReversed,
			entityType:  models.AuditEntityInquiry,
			entityID:    &inquiry.ID,
			description: fmt.Sprintf("%d commissions reversed for inquiry %d", result.Reversed, inquiry.ID),
			success:     true,
		}, metadata)
	}
}

// toInquiryDTO derives the read-time flags. Attribution ids are only exposed to admins.
func toInquiryDTO(inquiry *models.Inquiry, viewerIsAdmin bool, settings Settings, now time.Time, withHistory bool) dto.InquiryDTO {
	out := dto.InquiryDTO{
		ID:              inquiry.ID,
		ListingID:       inquiry.ListingID,
		AgentID:         inquiry.AgentID,
		IsReferred:      inquiry.TrackingLinkID != nil,
		ClientName:      inquiry.ClientName,
		ClientEmail:     inquiry.ClientEmail,
		ClientPhone:     inquiry.ClientPhone,
		Message:         inquiry.Message,
		Stage:           string(inquiry.Stage),
		IsStale:         inquiry.IsStale(settings.StaleThreshold(), now),
		ResponseOverdue: inquiry.ResponseOverdue(settings.ResponseSLA(), now),
		FirstResponseAt: utils.FormatRFC3339Ptr(inquiry.FirstResponseAt),
		CreatedAt:       inquiry.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       inquiry.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if viewerIsAdmin {
		out.PromoterID = inquiry.PromoterID
		out.TrackingLinkID = inquiry.TrackingLinkID
	}
	if withHistory {
		out.StageHistory = make([]dto.StageHistoryEntryDTO, 0, len(inquiry.StageHistory))
		for _, e := range inquiry.StageHistory {
			out.StageHistory = append(out.StageHistory, dto.StageHistoryEntryDTO{
				Stage:       string(e.Stage),
				Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
				ChangedByID: e.ChangedByID,
				Note:        e.Note,
			})
		}
	}
	return out
}
