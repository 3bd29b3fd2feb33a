package businessflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
)

// SettingsCache is a SettingsReader whose cached copy can be dropped after a write
type SettingsCache interface {
	SettingsReader
	Invalidate(ctx context.Context)
}

// SettingsFlow reads and writes the admin-tunable settings
type SettingsFlow interface {
	Get(ctx context.Context, actor Actor) (*dto.SettingsDTO, error)
	Update(ctx context.Context, actor Actor, req *dto.UpdateSettingsRequest, metadata *ClientMetadata) (*dto.SettingsDTO, error)
}

type SettingsFlowImpl struct {
	settingRepo repository.SystemSettingRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditLogRepository
	txManager   repository.TxManager
	settings    SettingsCache
}

func NewSettingsFlow(
	settingRepo repository.SystemSettingRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	txManager repository.TxManager,
	settings SettingsCache,
) SettingsFlow {
	return &SettingsFlowImpl{
		settingRepo: settingRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		settings:    settings,
	}
}

func (f *SettingsFlowImpl) Get(ctx context.Context, actor Actor) (*dto.SettingsDTO, error) {
	if _, err := authorizeAdmin(ctx, f.userRepo, actor); err != nil {
		return nil, err
	}
	return f.snapshot(ctx)
}

// Update writes only the keys present in the request, all in one transaction
func (f *SettingsFlowImpl) Update(ctx context.Context, actor Actor, req *dto.UpdateSettingsRequest, metadata *ClientMetadata) (*dto.SettingsDTO, error) {
	admin, err := authorizeAdmin(ctx, f.userRepo, actor)
	if err != nil {
		return nil, err
	}

	changes, err := settingChanges(req)
	if err != nil {
		return nil, err
	}

	err = f.txManager.WithTx(ctx, func(txCtx context.Context) error {
		for _, c := range changes {
			if _, err := f.settingRepo.Set(txCtx, c.key, c.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		errMsg := err.Error()
		createAuditLog(ctx, f.auditRepo, auditEntry{
			actorID:     &admin.ID,
			action:      models.AuditActionSettingsUpdated,
			entityType:  models.AuditEntitySetting,
			description: "settings update failed",
			success:     false,
			errorMsg:    &errMsg,
		}, metadata)
		return nil, txError(err, "SETTINGS_UPDATE_FAILED", "Failed to update settings")
	}

	f.settings.Invalidate(ctx)

	details := make(map[string]any, len(changes))
	for _, c := range changes {
		details[c.key] = c.value
	}
	createAuditLog(ctx, f.auditRepo, auditEntry{
		actorID:     &admin.ID,
		action:      models.AuditActionSettingsUpdated,
		entityType:  models.AuditEntitySetting,
		description: fmt.Sprintf("%d setting(s) updated", len(changes)),
		success:     true,
		details:     details,
	}, metadata)

	return f.snapshot(ctx)
}

func (f *SettingsFlowImpl) snapshot(ctx context.Context) (*dto.SettingsDTO, error) {
	s, err := f.settings.Snapshot(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_READ_FAILED", "Failed to read settings", err)
	}
	return &dto.SettingsDTO{
		RecruiterBonusEnabled:     s.RecruiterBonusEnabled,
		RecruiterBonusAmount:      s.RecruiterBonusAmount,
		StaleInquiryThresholdDays: s.StaleInquiryThresholdDays,
		AgentResponseSLAHours:     s.AgentResponseSLAHours,
	}, nil
}

type settingChange struct {
	key   string
	value string
}

func settingChanges(req *dto.UpdateSettingsRequest) ([]settingChange, error) {
	if req == nil {
		return nil, NewBusinessError(CodeValidation, "At least one setting must be provided", ErrNoSettingsProvided)
	}
	var changes []settingChange
	if req.RecruiterBonusEnabled != nil {
		changes = append(changes, settingChange{models.SettingRecruiterBonusEnabled, strconv.FormatBool(*req.RecruiterBonusEnabled)})
	}
	if req.RecruiterBonusAmount != nil {
		if *req.RecruiterBonusAmount < 0 {
			return nil, NewBusinessError(CodeValidation, "recruiter_bonus_amount must not be negative", nil)
		}
		changes = append(changes, settingChange{models.SettingRecruiterBonusAmount, strconv.FormatInt(*req.RecruiterBonusAmount, 10)})
	}
	if req.StaleInquiryThresholdDays != nil {
		if *req.StaleInquiryThresholdDays < 1 {
			return nil, NewBusinessError(CodeValidation, "stale_inquiry_threshold_days must be at least 1", nil)
		}
		changes = append(changes, settingChange{models.SettingStaleInquiryThresholdDays, strconv.Itoa(*req.StaleInquiryThresholdDays)})
	}
	if req.AgentResponseSLAHours != nil {
		if *req.AgentResponseSLAHours < 1 {
			return nil, NewBusinessError(CodeValidation, "agent_response_sla_hours must be at least 1", nil)
		}
		changes = append(changes, settingChange{models.SettingAgentResponseSLAHours, strconv.Itoa(*req.AgentResponseSLAHours)})
	}
	if len(changes) == 0 {
		return nil, NewBusinessError(CodeValidation, "At least one setting must be provided", ErrNoSettingsProvided)
	}
	return changes, nil
}
