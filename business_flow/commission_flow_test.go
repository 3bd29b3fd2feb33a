package businessflow

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// settledWorld returns a world with one referred inquiry settled at RENTED with the recruiter bonus on
func settledWorld(t *testing.T) (*world, *models.Inquiry) {
	t.Helper()
	w := newWorld(t, bonusSettings(true, 500))
	inq := w.openInquiry(t, true, baseTime)
	w.transition(t, agentActor, inq.ID, models.InquiryStageRented)
	require.Len(t, w.commissions.forInquiry(inq.ID), 4)
	return w, inq
}

func TestListCommissions(t *testing.T) {
	ctx := context.Background()
	w, inq := settledWorld(t)

	t.Run("AdminSeesEverything", func(t *testing.T) {
		list, err := w.commFlow.List(ctx, adminActor, nil)
		require.NoError(t, err)
		require.Len(t, list.Items, 4)
		assert.Equal(t, int64(50_000+30_000+20_000+500), list.TotalAmount)
		for _, item := range list.Items {
			require.NotNil(t, item.InquiryID)
			assert.Equal(t, inq.ID, *item.InquiryID)
		}
	})

	t.Run("PromoterSeesOwnWithoutInquiry", func(t *testing.T) {
		list, err := w.commFlow.List(ctx, promoterActor, &dto.ListCommissionsRequest{EarnerID: utils.ToPtr(agentID)})
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		item := list.Items[0]
		assert.Equal(t, promoterID, item.EarnerID)
		assert.Equal(t, "PROMOTER", item.Role)
		assert.Equal(t, int64(20_000), item.Amount)
		assert.Nil(t, item.InquiryID)
		assert.Equal(t, int64(20_000), list.TotalAmount)
	})

	t.Run("RecruiterSeesOwnWithoutInquiry", func(t *testing.T) {
		list, err := w.commFlow.List(ctx, Actor{UserID: recruiterID}, nil)
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "RECRUITER", list.Items[0].Role)
		assert.Nil(t, list.Items[0].InquiryID)
	})

	t.Run("AgentSeesInquiry", func(t *testing.T) {
		list, err := w.commFlow.List(ctx, agentActor, nil)
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		require.NotNil(t, list.Items[0].InquiryID)
		assert.Equal(t, inq.ID, *list.Items[0].InquiryID)
	})

	t.Run("Filters", func(t *testing.T) {
		list, err := w.commFlow.List(ctx, adminActor, &dto.ListCommissionsRequest{
			Statuses: []string{"pending", " "},
			Role:     utils.ToPtr("company"),
		})
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, adminID, list.Items[0].EarnerID)

		list, err = w.commFlow.List(ctx, adminActor, &dto.ListCommissionsRequest{Statuses: []string{"PAID"}})
		require.NoError(t, err)
		assert.Empty(t, list.Items)
		assert.Zero(t, list.TotalAmount)
	})

	t.Run("InvalidFilters", func(t *testing.T) {
		_, err := w.commFlow.List(ctx, adminActor, &dto.ListCommissionsRequest{Statuses: []string{"REFUNDED"}})
		assert.Equal(t, CodeValidation, ErrorCode(err))

		_, err = w.commFlow.List(ctx, adminActor, &dto.ListCommissionsRequest{Role: utils.ToPtr("BROKER")})
		assert.Equal(t, CodeValidation, ErrorCode(err))
	})

	t.Run("InquiryFilterHiddenFromPrivateRoles", func(t *testing.T) {
		for _, guess := range []uint{inq.ID, inq.ID + 1, inq.ID + 2} {
			for _, actor := range []Actor{promoterActor, {UserID: recruiterID}} {
				list, err := w.commFlow.List(ctx, actor, &dto.ListCommissionsRequest{InquiryID: utils.ToPtr(guess)})
				require.NoError(t, err)
				assert.Empty(t, list.Items, "inquiry %d", guess)
				assert.Zero(t, list.TotalAmount)
			}
		}

		_, err := w.commFlow.List(ctx, promoterActor, &dto.ListCommissionsRequest{
			InquiryID: utils.ToPtr(inq.ID),
			Role:      utils.ToPtr("PROMOTER"),
		})
		assert.Equal(t, CodeValidation, ErrorCode(err))
		assert.ErrorIs(t, err, ErrInquiryFilterNotAllowed)
	})

	t.Run("AgentFiltersByInquiry", func(t *testing.T) {
		list, err := w.commFlow.List(ctx, agentActor, &dto.ListCommissionsRequest{InquiryID: utils.ToPtr(inq.ID)})
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "AGENT", list.Items[0].Role)

		list, err = w.commFlow.List(ctx, agentActor, &dto.ListCommissionsRequest{InquiryID: utils.ToPtr(inq.ID + 1)})
		require.NoError(t, err)
		assert.Empty(t, list.Items)
	})
}

func TestUpdateCommissionStatus(t *testing.T) {
	ctx := context.Background()
	w, inq := settledWorld(t)
	agentRow := w.rolesOf(inq.ID)[models.CommissionRoleAgent][0]

	t.Run("AdminOnly", func(t *testing.T) {
		_, err := w.commFlow.UpdateStatus(ctx, agentActor, agentRow.ID, &dto.UpdateCommissionStatusRequest{Status: "APPROVED"}, nil)
		assert.Equal(t, CodeForbidden, ErrorCode(err))
	})

	t.Run("CannotSkipApproval", func(t *testing.T) {
		_, err := w.commFlow.UpdateStatus(ctx, adminActor, agentRow.ID, &dto.UpdateCommissionStatusRequest{Status: "PAID"}, nil)
		assert.Equal(t, CodeValidation, ErrorCode(err))
		assert.True(t, IsStatusTransitionNotAllowed(err))
	})

	t.Run("ForwardOneStepAtATime", func(t *testing.T) {
		out, err := w.commFlow.UpdateStatus(ctx, adminActor, agentRow.ID, &dto.UpdateCommissionStatusRequest{Status: "APPROVED"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", out.Status)
		assert.Nil(t, out.PaidAt)

		out, err = w.commFlow.UpdateStatus(ctx, adminActor, agentRow.ID, &dto.UpdateCommissionStatusRequest{Status: "PAID"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "PAID", out.Status)
		require.NotNil(t, out.PaidAt)

		stored, _ := w.commissions.ByID(ctx, agentRow.ID)
		assert.Equal(t, models.CommissionStatusPaid, stored.Status)
		assert.Equal(t, agentRow.Amount, stored.Amount)
	})

	t.Run("NoBackwardMoves", func(t *testing.T) {
		_, err := w.commFlow.UpdateStatus(ctx, adminActor, agentRow.ID, &dto.UpdateCommissionStatusRequest{Status: "APPROVED"}, nil)
		assert.Equal(t, CodeValidation, ErrorCode(err))
		_, err = w.commFlow.UpdateStatus(ctx, adminActor, agentRow.ID, &dto.UpdateCommissionStatusRequest{Status: "PENDING"}, nil)
		assert.Equal(t, CodeValidation, ErrorCode(err))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := w.commFlow.UpdateStatus(ctx, adminActor, 9999, &dto.UpdateCommissionStatusRequest{Status: "APPROVED"}, nil)
		assert.Equal(t, CodeNotFound, ErrorCode(err))
	})

	t.Run("Audited", func(t *testing.T) {
		action := models.AuditActionCommissionStatusChanged
		n, err := w.audit.Count(ctx, models.AuditLogFilter{Action: &action})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(2))
	})
}

func TestExportCommissions(t *testing.T) {
	ctx := context.Background()
	w, _ := settledWorld(t)

	_, _, err := w.commFlow.Export(ctx, agentActor, nil)
	assert.Equal(t, CodeForbidden, ErrorCode(err))

	name, data, err := w.commFlow.Export(ctx, adminActor, &dto.ListCommissionsRequest{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
	assert.True(t, strings.HasPrefix(name, "commissions_"))

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	rows, err := xl.GetRows("commissions")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "listing_number", rows[0][3])
	assert.Equal(t, "MSK-0100", rows[1][3])
	assert.Equal(t, utils.DefaultCurrency, rows[1][7])
}

func TestParseStatusList(t *testing.T) {
	assert.Nil(t, ParseStatusList(""))
	assert.Equal(t, []string{"PENDING", "PAID"}, ParseStatusList("PENDING, ,PAID"))
}
