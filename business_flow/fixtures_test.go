package businessflow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/utils"
	"github.com/stretchr/testify/require"
)

const (
	adminID     uint = 1
	agentID     uint = 10
	otherAgent  uint = 11
	promoterID  uint = 20
	recruiterID uint = 30
	pendingID   uint = 40
	listingID   uint = 100
	dormantID   uint = 101

	clientName  = "Sara Karimi"
	clientEmail = "sara.karimi@example.com"
	clientPhone = "+989121234567"
)

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

var (
	adminActor    = Actor{UserID: adminID, Role: models.UserRoleAdmin}
	agentActor    = Actor{UserID: agentID, Role: models.UserRoleAgent}
	promoterActor = Actor{UserID: promoterID, Role: models.UserRolePromoter}
)

// world wires every flow against shared in-memory fakes
type world struct {
	users       *fakeUserRepo
	listings    *fakeListingRepo
	links       *fakeLinkRepo
	clicks      *fakeClickRepo
	inquiries   *fakeInquiryRepo
	commissions *fakeCommissionRepo
	settingRepo *fakeSettingRepo
	audit       *fakeAuditRepo
	notifier    *fakeNotifier
	tx          *fakeTxManager
	settings    *staticSettings
	seq         int

	engine      *SettlementEngine
	inquiryFlow *InquiryFlowImpl
	linkFlow    *TrackingLinkFlowImpl
	clickFlow   *ClickFlowImpl
	commFlow    *CommissionFlowImpl
	setFlow     *SettingsFlowImpl
}

func newWorld(t *testing.T, settings Settings) *world {
	t.Helper()
	referrer := recruiterID
	w := &world{
		users: newFakeUserRepo(
			&models.User{ID: adminID, FullName: "Admin", Role: models.UserRoleAdmin, IsApproved: true},
			&models.User{ID: agentID, FullName: "Agent A", Role: models.UserRoleAgent, IsApproved: true, ReferrerID: &referrer},
			&models.User{ID: otherAgent, FullName: "Agent B", Role: models.UserRoleAgent, IsApproved: true},
			&models.User{ID: promoterID, FullName: "Promoter P", Role: models.UserRolePromoter, IsApproved: true},
			&models.User{ID: recruiterID, FullName: "Recruiter R", Role: models.UserRoleAgent, IsApproved: true},
			&models.User{ID: pendingID, FullName: "Pending", Role: models.UserRolePromoter, IsApproved: false},
		),
		listings: newFakeListingRepo(
			&models.Listing{
				ID: listingID, ListingNumber: "MSK-0100", Title: "Two bed flat",
				Price: 1_000_000, AgentCommissionPct: 5, CompanyCommissionPct: 3, PromoterCommissionPct: 2,
				AgentID: agentID, CreatedByID: adminID, Status: models.ListingStatusActive,
			},
			&models.Listing{
				ID: dormantID, ListingNumber: "MSK-0101", Title: "Studio",
				Price: 500_000, AgentCommissionPct: 5, AgentID: agentID, CreatedByID: agentID,
				Status: models.ListingStatusInactive,
			},
		),
		links:       newFakeLinkRepo(),
		clicks:      newFakeClickRepo(),
		inquiries:   newFakeInquiryRepo(),
		commissions: newFakeCommissionRepo(),
		settingRepo: newFakeSettingRepo(nil),
		audit:       newFakeAuditRepo(),
		notifier:    &fakeNotifier{},
		tx:          &fakeTxManager{},
		settings:    &staticSettings{s: settings},
	}

	w.engine = NewSettlementEngine(w.commissions, w.listings, w.users, w.settings)

	w.inquiryFlow = NewInquiryFlow(w.inquiries, w.listings, w.links, w.users, w.audit, w.tx, w.engine, w.settings, w.notifier).(*InquiryFlowImpl)
	w.inquiryFlow.now = fixedClock(baseTime)

	w.linkFlow = NewTrackingLinkFlow(w.links, w.listings, w.users, w.audit).(*TrackingLinkFlowImpl)

	w.clickFlow = NewClickFlow(w.links, w.clicks, w.tx).(*ClickFlowImpl)
	w.clickFlow.now = fixedClock(baseTime)

	w.commFlow = NewCommissionFlow(w.commissions, w.listings, w.users, w.audit, w.tx).(*CommissionFlowImpl)
	w.commFlow.now = fixedClock(baseTime)

	w.setFlow = NewSettingsFlow(w.settingRepo, w.users, w.audit, w.tx, w.settings).(*SettingsFlowImpl)
	return w
}

func defaultWorld(t *testing.T) *world {
	return newWorld(t, DefaultSettingsSnapshot())
}

// addPromoterLink stores a promoter link for the listing and returns it
func (w *world) addPromoterLink(t *testing.T, refCode string, listing uint) *models.TrackingLink {
	t.Helper()
	link := models.NewTrackingLink(refCode, listing, promoterID, models.UserRolePromoter, models.SharePlatformTelegram, nil, nil)
	link.CreatedAt = baseTime
	require.NoError(t, w.links.Save(context.Background(), link))
	return link
}

// openInquiry stores an inquiry in the INQUIRY stage, optionally attributed to the promoter
func (w *world) openInquiry(t *testing.T, viaPromoter bool, createdAt time.Time) *models.Inquiry {
	t.Helper()
	inq := models.NewInquiry(listingID, agentID, clientName, clientPhone, utils.ToPtr(clientEmail), nil, createdAt)
	if viaPromoter {
		w.seq++
		link := w.addPromoterLink(t, fmt.Sprintf("promo%07d", w.seq), listingID)
		inq.PromoterID = link.PromoterID
		inq.TrackingLinkID = &link.ID
	}
	require.NoError(t, w.inquiries.Save(context.Background(), inq))
	return inq
}

func (w *world) transition(t *testing.T, actor Actor, id uint, stage models.InquiryStage) *dto.TransitionInquiryResponse {
	t.Helper()
	resp, err := w.inquiryFlow.Transition(context.Background(), actor, id, &dto.TransitionInquiryRequest{Stage: string(stage)}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func (w *world) rolesOf(inquiryID uint) map[models.CommissionRole][]*models.Commission {
	out := map[models.CommissionRole][]*models.Commission{}
	for _, c := range w.commissions.forInquiry(inquiryID) {
		out[c.Role] = append(out[c.Role], c)
	}
	return out
}

func bonusSettings(enabled bool, amount int64) Settings {
	s := DefaultSettingsSnapshot()
	s.RecruiterBonusEnabled = enabled
	s.RecruiterBonusAmount = amount
	return s
}
