package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"github.com/amirphl/Maskan/utils"
	"github.com/redis/go-redis/v9"
)

const settingsCacheKey = "maskan:settings:snapshot"

// Settings is a typed snapshot of the admin-tunable settings
type Settings struct {
	RecruiterBonusEnabled     bool  `json:"recruiter_bonus_enabled"`
	RecruiterBonusAmount      int64 `json:"recruiter_bonus_amount"`
	StaleInquiryThresholdDays int   `json:"stale_inquiry_threshold_days"`
	AgentResponseSLAHours     int   `json:"agent_response_sla_hours"`
}

// StaleThreshold returns the stale-inquiry threshold as a duration
func (s Settings) StaleThreshold() time.Duration {
	return utils.DaysToDuration(s.StaleInquiryThresholdDays)
}

// ResponseSLA returns the agent response SLA as a duration
func (s Settings) ResponseSLA() time.Duration {
	return utils.HoursToDuration(s.AgentResponseSLAHours)
}

// DefaultSettingsSnapshot returns the values used when a key was never written
func DefaultSettingsSnapshot() Settings {
	s, _ := parseSettings(nil)
	return s
}

// SettingsReader is the read-only view the engine and inquiry reads consume.
// Values may change between two calls.
type SettingsReader interface {
	Snapshot(ctx context.Context) (Settings, error)
}

// SettingsProvider reads settings from the store, optionally through a short-lived redis copy
type SettingsProvider struct {
	repo repository.SystemSettingRepository
	rc   *redis.Client
	ttl  time.Duration
}

// NewSettingsProvider creates a provider. A nil redis client or a non-positive ttl disables caching.
func NewSettingsProvider(repo repository.SystemSettingRepository, rc *redis.Client, ttl time.Duration) *SettingsProvider {
	return &SettingsProvider{repo: repo, rc: rc, ttl: ttl}
}

func (p *SettingsProvider) cacheEnabled() bool {
	return p.rc != nil && p.ttl > 0
}

// Snapshot returns the current settings
func (p *SettingsProvider) Snapshot(ctx context.Context) (Settings, error) {
	if p.cacheEnabled() {
		if bs, err := p.rc.Get(ctx, settingsCacheKey).Bytes(); err == nil && len(bs) > 0 {
			var cached Settings
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	rows, err := p.repo.GetAll(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	snapshot, problems := parseSettings(values)
	for _, msg := range problems {
		log.Printf("settings: %s", msg)
	}

	if p.cacheEnabled() {
		if bs, err := json.Marshal(snapshot); err == nil {
			_ = p.rc.Set(ctx, settingsCacheKey, bs, p.ttl).Err()
		}
	}
	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next read hits the store
func (p *SettingsProvider) Invalidate(ctx context.Context) {
	if p.rc == nil {
		return
	}
	if err := p.rc.Del(ctx, settingsCacheKey).Err(); err != nil {
		log.Printf("settings: failed to invalidate cache: %v", err)
	}
}

// parseSettings falls back to the default for missing or malformed values
// and reports each malformed one.
func parseSettings(values map[string]string) (Settings, []string) {
	var problems []string
	get := func(key string) string {
		if v, ok := values[key]; ok {
			return v
		}
		return models.DefaultSettings[key]
	}
	fallback := func(key string) string {
		problems = append(problems, fmt.Sprintf("malformed value %q for %s, using default", values[key], key))
		return models.DefaultSettings[key]
	}

	var s Settings

	enabled, err := strconv.ParseBool(get(models.SettingRecruiterBonusEnabled))
	if err != nil {
		enabled, _ = strconv.ParseBool(fallback(models.SettingRecruiterBonusEnabled))
	}
	s.RecruiterBonusEnabled = enabled

	amount, err := strconv.ParseInt(get(models.SettingRecruiterBonusAmount), 10, 64)
	if err != nil || amount < 0 {
		amount, _ = strconv.ParseInt(fallback(models.SettingRecruiterBonusAmount), 10, 64)
	}
	s.RecruiterBonusAmount = amount

	days, err := strconv.Atoi(get(models.SettingStaleInquiryThresholdDays))
	if err != nil || days < 1 {
		days, _ = strconv.Atoi(fallback(models.SettingStaleInquiryThresholdDays))
	}
	s.StaleInquiryThresholdDays = days

	hours, err := strconv.Atoi(get(models.SettingAgentResponseSLAHours))
	if err != nil || hours < 1 {
		hours, _ = strconv.Atoi(fallback(models.SettingAgentResponseSLAHours))
	}
	s.AgentResponseSLAHours = hours

	return s, problems
}
