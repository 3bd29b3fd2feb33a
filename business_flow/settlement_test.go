package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/Maskan/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionActionFor(t *testing.T) {
	tests := []struct {
		prev, next models.InquiryStage
		want       CommissionAction
	}{
		{models.InquiryStageInquiry, models.InquiryStageWaitingResponse, CommissionActionNone},
		{models.InquiryStageViewed, models.InquiryStageRented, CommissionActionCreateSet},
		{models.InquiryStageInquiry, models.InquiryStagePurchased, CommissionActionCreateSet},
		{models.InquiryStageCancelled, models.InquiryStageRented, CommissionActionCreateSet},
		{models.InquiryStageRented, models.InquiryStagePurchased, CommissionActionNone},
		{models.InquiryStagePurchased, models.InquiryStageRented, CommissionActionNone},
		{models.InquiryStageRented, models.InquiryStageRented, CommissionActionNone},
		{models.InquiryStageRented, models.InquiryStageViewed, CommissionActionDeleteAll},
		{models.InquiryStagePurchased, models.InquiryStageCancelled, CommissionActionDeleteAll},
		{models.InquiryStageRented, models.InquiryStageNoShow, CommissionActionDeleteAll},
		{models.InquiryStageNoShow, models.InquiryStageCancelled, CommissionActionNone},
	}

	for _, tt := range tests {
		t.Run(string(tt.prev)+"_to_"+string(tt.next), func(t *testing.T) {
			assert.Equal(t, tt.want, CommissionActionFor(tt.prev, tt.next))
		})
	}
}

func TestCommissionActionString(t *testing.T) {
	assert.Equal(t, "NONE", CommissionActionNone.String())
	assert.Equal(t, "CREATE_SET", CommissionActionCreateSet.String())
	assert.Equal(t, "DELETE_ALL", CommissionActionDeleteAll.String())
}

func TestCommissionAmount(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		pct   float64
		want  int64
	}{
		{"Whole", 1_000_000, 5, 50_000},
		{"RoundsDown", 1_000_001, 5, 50_000},
		{"RoundsHalfUp", 10, 5, 1},
		{"FractionalPct", 999, 2.5, 25},
		{"ZeroPrice", 0, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, commissionAmount(tt.price, tt.pct))
		})
	}
}

func TestComputeCommissions(t *testing.T) {
	listing := &models.Listing{
		ID: listingID, Price: 1_000_000,
		AgentCommissionPct: 5, CompanyCommissionPct: 3, PromoterCommissionPct: 2,
		AgentID: agentID, CreatedByID: adminID,
	}
	promoter := promoterID
	referrer := recruiterID

	byRole := func(cs []*models.Commission) map[models.CommissionRole]*models.Commission {
		out := map[models.CommissionRole]*models.Commission{}
		for _, c := range cs {
			out[c.Role] = c
		}
		return out
	}

	t.Run("PercentageMath", func(t *testing.T) {
		inquiry := &models.Inquiry{ID: 7, ListingID: listingID, AgentID: agentID, PromoterID: &promoter}
		got := byRole(ComputeCommissions(CommissionInput{Inquiry: inquiry, Listing: listing, Settings: DefaultSettingsSnapshot(), Now: baseTime}))

		require.Len(t, got, 3)
		assert.Equal(t, int64(50_000), got[models.CommissionRoleAgent].Amount)
		assert.Equal(t, int64(30_000), got[models.CommissionRoleCompany].Amount)
		assert.Equal(t, int64(20_000), got[models.CommissionRolePromoter].Amount)

		assert.Equal(t, agentID, got[models.CommissionRoleAgent].EarnerID)
		assert.Equal(t, adminID, got[models.CommissionRoleCompany].EarnerID)
		assert.Equal(t, promoterID, got[models.CommissionRolePromoter].EarnerID)
		for _, c := range got {
			assert.Equal(t, models.CommissionStatusPending, c.Status)
			assert.Equal(t, uint(7), c.InquiryID)
			assert.Equal(t, listingID, c.ListingID)
			assert.Equal(t, baseTime, c.CreatedAt)
		}
	})

	t.Run("RecruiterBonus", func(t *testing.T) {
		inquiry := &models.Inquiry{ID: 7, AgentID: agentID, PromoterID: &promoter}
		got := byRole(ComputeCommissions(CommissionInput{
			Inquiry: inquiry, Listing: listing, AgentReferrerID: &referrer,
			Settings: bonusSettings(true, 500), Now: baseTime,
		}))
		require.Len(t, got, 4)
		require.NotNil(t, got[models.CommissionRoleRecruiter])
		assert.Equal(t, recruiterID, got[models.CommissionRoleRecruiter].EarnerID)
		assert.Equal(t, int64(500), got[models.CommissionRoleRecruiter].Amount)
	})

	t.Run("EnabledZeroBonusStillBooked", func(t *testing.T) {
		inquiry := &models.Inquiry{ID: 7, AgentID: agentID, PromoterID: &promoter}
		got := byRole(ComputeCommissions(CommissionInput{
			Inquiry: inquiry, Listing: listing, AgentReferrerID: &referrer,
			Settings: bonusSettings(true, 0), Now: baseTime,
		}))
		require.Len(t, got, 4)
		require.NotNil(t, got[models.CommissionRoleRecruiter])
		assert.Equal(t, recruiterID, got[models.CommissionRoleRecruiter].EarnerID)
		assert.Zero(t, got[models.CommissionRoleRecruiter].Amount)
	})

	t.Run("NoBonusWithoutConditions", func(t *testing.T) {
		withPromoter := &models.Inquiry{ID: 7, AgentID: agentID, PromoterID: &promoter}
		withoutPromoter := &models.Inquiry{ID: 7, AgentID: agentID}

		cases := []struct {
			name     string
			inquiry  *models.Inquiry
			referrer *uint
			settings Settings
			want     int
		}{
			{"Disabled", withPromoter, &referrer, bonusSettings(false, 500), 3},
			{"AgentWithoutReferrer", withPromoter, nil, bonusSettings(true, 500), 3},
			{"NoPromoter", withoutPromoter, &referrer, bonusSettings(true, 500), 2},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got := byRole(ComputeCommissions(CommissionInput{
					Inquiry: tc.inquiry, Listing: listing, AgentReferrerID: tc.referrer,
					Settings: tc.settings, Now: baseTime,
				}))
				assert.Len(t, got, tc.want)
				assert.Nil(t, got[models.CommissionRoleRecruiter])
			})
		}
	})

	t.Run("ZeroPercentRolesSkipped", func(t *testing.T) {
		agentOnly := *listing
		agentOnly.CompanyCommissionPct = 0
		agentOnly.PromoterCommissionPct = 0
		inquiry := &models.Inquiry{ID: 7, AgentID: agentID, PromoterID: &promoter}
		got := byRole(ComputeCommissions(CommissionInput{
			Inquiry: inquiry, Listing: &agentOnly, AgentReferrerID: &referrer,
			Settings: bonusSettings(true, 500), Now: baseTime,
		}))
		require.Len(t, got, 1)
		assert.NotNil(t, got[models.CommissionRoleAgent])
	})
}

func TestSettlementPercentageMath(t *testing.T) {
	w := defaultWorld(t)
	inq := w.openInquiry(t, true, baseTime)

	resp := w.transition(t, agentActor, inq.ID, models.InquiryStageRented)
	assert.Equal(t, "CREATE_SET", resp.CommissionAction)
	assert.Equal(t, 3, resp.CommissionsCreated)

	roles := w.rolesOf(inq.ID)
	require.Len(t, roles, 3)
	assert.Equal(t, int64(50_000), roles[models.CommissionRoleAgent][0].Amount)
	assert.Equal(t, int64(30_000), roles[models.CommissionRoleCompany][0].Amount)
	assert.Equal(t, int64(20_000), roles[models.CommissionRolePromoter][0].Amount)
}

func TestSettlementIdempotency(t *testing.T) {
	w := defaultWorld(t)
	inq := w.openInquiry(t, true, baseTime)

	path := []models.InquiryStage{
		models.InquiryStageWaitingResponse,
		models.InquiryStageScheduled,
		models.InquiryStageViewed,
		models.InquiryStageRented,
		models.InquiryStageRented,
		models.InquiryStagePurchased,
		models.InquiryStageViewed,
		models.InquiryStageRented,
		models.InquiryStageCancelled,
		models.InquiryStagePurchased,
		models.InquiryStageNoShow,
	}

	for _, stage := range path {
		w.transition(t, agentActor, inq.ID, stage)

		agentRows := w.rolesOf(inq.ID)[models.CommissionRoleAgent]
		if stage.IsCommissionBearing() {
			assert.Len(t, agentRows, 1, "after %s", stage)
		} else {
			assert.Empty(t, agentRows, "after %s", stage)
		}
	}

	stored, err := w.inquiries.ByID(context.Background(), inq.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InquiryStageNoShow, stored.Stage)
	assert.Len(t, stored.StageHistory, len(path)+1)
}

func TestSettlementReversal(t *testing.T) {
	t.Run("LeavingBearingStageDeletesAll", func(t *testing.T) {
		w := newWorld(t, bonusSettings(true, 500))
		inq := w.openInquiry(t, true, baseTime)

		w.transition(t, agentActor, inq.ID, models.InquiryStageScheduled)
		w.transition(t, agentActor, inq.ID, models.InquiryStageRented)
		require.Len(t, w.commissions.forInquiry(inq.ID), 4)

		resp := w.transition(t, agentActor, inq.ID, models.InquiryStageViewed)
		assert.Equal(t, "DELETE_ALL", resp.CommissionAction)
		assert.Equal(t, int64(4), resp.CommissionsReversed)
		assert.Empty(t, w.commissions.forInquiry(inq.ID))
	})

	t.Run("TerminalToTerminalKeepsSet", func(t *testing.T) {
		w := defaultWorld(t)
		inq := w.openInquiry(t, true, baseTime)

		w.transition(t, agentActor, inq.ID, models.InquiryStageRented)
		before := w.commissions.forInquiry(inq.ID)
		require.Len(t, before, 3)

		resp := w.transition(t, agentActor, inq.ID, models.InquiryStagePurchased)
		assert.Equal(t, "NONE", resp.CommissionAction)

		after := w.commissions.forInquiry(inq.ID)
		assert.Equal(t, before, after)
	})

	t.Run("ReenteringCreatesFreshSet", func(t *testing.T) {
		w := defaultWorld(t)
		inq := w.openInquiry(t, false, baseTime)

		w.transition(t, agentActor, inq.ID, models.InquiryStageRented)
		first := w.commissions.forInquiry(inq.ID)
		w.transition(t, agentActor, inq.ID, models.InquiryStageCancelled)
		w.transition(t, agentActor, inq.ID, models.InquiryStagePurchased)
		second := w.commissions.forInquiry(inq.ID)

		require.Len(t, second, len(first))
		for i := range first {
			assert.NotEqual(t, first[i].ID, second[i].ID)
		}
	})
}

func TestRecruiterBonusScenario(t *testing.T) {
	w := newWorld(t, bonusSettings(true, 500))
	inq := w.openInquiry(t, true, baseTime)

	w.transition(t, agentActor, inq.ID, models.InquiryStagePurchased)

	roles := w.rolesOf(inq.ID)
	require.Len(t, w.commissions.forInquiry(inq.ID), 4)
	require.Len(t, roles[models.CommissionRoleRecruiter], 1)
	recruiter := roles[models.CommissionRoleRecruiter][0]
	assert.Equal(t, recruiterID, recruiter.EarnerID)
	assert.Equal(t, int64(500), recruiter.Amount)
}

func TestNoPromoterNoBonusScenario(t *testing.T) {
	w := newWorld(t, bonusSettings(true, 500))
	inq := w.openInquiry(t, false, baseTime)

	w.transition(t, agentActor, inq.ID, models.InquiryStagePurchased)

	roles := w.rolesOf(inq.ID)
	assert.Len(t, w.commissions.forInquiry(inq.ID), 2)
	assert.Len(t, roles[models.CommissionRoleAgent], 1)
	assert.Len(t, roles[models.CommissionRoleCompany], 1)
	assert.Empty(t, roles[models.CommissionRolePromoter])
	assert.Empty(t, roles[models.CommissionRoleRecruiter])
}

func TestSettlementEngineMissingListing(t *testing.T) {
	w := defaultWorld(t)
	inq := &models.Inquiry{ID: 99, ListingID: 9999, AgentID: agentID}

	_, err := w.engine.Apply(context.Background(), inq, models.InquiryStageViewed, models.InquiryStageRented, baseTime)
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, ErrorCode(err))
	assert.True(t, IsListingNotFound(err))
}
