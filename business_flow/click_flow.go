package businessflow

import (
	"context"
	"strings"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"github.com/amirphl/Maskan/utils"
)

const clickReasonDuplicate = "duplicate"

// ClickFlow records clicks on tracking links.
// Public flow, no authentication required.
type ClickFlow interface {
	Click(ctx context.Context, refCode string, headers dto.ClickHeaders) (*dto.ClickResponse, error)
}

type ClickFlowImpl struct {
	linkRepo  repository.TrackingLinkRepository
	clickRepo repository.ClickEventRepository
	txManager repository.TxManager
	now       func() time.Time
}

func NewClickFlow(
	linkRepo repository.TrackingLinkRepository,
	clickRepo repository.ClickEventRepository,
	txManager repository.TxManager,
) ClickFlow {
	return &ClickFlowImpl{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		txManager: txManager,
		now:       utils.UTCNow,
	}
}

func (f *ClickFlowImpl) Click(ctx context.Context, refCode string, headers dto.ClickHeaders) (*dto.ClickResponse, error) {
	refCode = strings.TrimSpace(refCode)
	if refCode == "" {
		return nil, NewBusinessError(CodeNotFound, "Tracking link not found", ErrTrackingLinkNotFound)
	}

	link, err := f.linkRepo.ByRefCode(ctx, refCode)
	if err != nil {
		return nil, NewBusinessError("TRACKING_LINK_LOOKUP_FAILED", "Failed to lookup tracking link", err)
	}
	if link == nil {
		clicksTotal.WithLabelValues("not_found").Inc()
		return nil, NewBusinessError(CodeNotFound, "Tracking link not found", ErrTrackingLinkNotFound)
	}

	now := f.now()
	hash := VisitorHash(ClientIP(headers), headers.UserAgent, now)

	var recorded bool
	err = f.txManager.WithTx(ctx, func(txCtx context.Context) error {
		recorded = false

		seen, err := f.clickRepo.ExistsSince(txCtx, link.ID, hash, now.Add(-VisitorBucket))
		if err != nil {
			return err
		}
		if seen {
			return nil
		}

		inserted, err := f.clickRepo.InsertIfAbsent(txCtx, &models.ClickEvent{
			TrackingLinkID: link.ID,
			VisitorHash:    hash,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		if err := f.linkRepo.IncrementClickCount(txCtx, link.ID); err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		return nil, txError(err, "CLICK_RECORD_FAILED", "Failed to record click")
	}

	resp := &dto.ClickResponse{Recorded: recorded, ListingID: link.ListingID}
	if recorded {
		clicksTotal.WithLabelValues("recorded").Inc()
	} else {
		resp.Reason = clickReasonDuplicate
		clicksTotal.WithLabelValues(clickReasonDuplicate).Inc()
	}
	return resp, nil
}
