package businessflow

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
)

// CommissionAction is the side effect a stage transition has on commissions
type CommissionAction int

const (
	CommissionActionNone CommissionAction = iota
	CommissionActionCreateSet
	CommissionActionDeleteAll
)

func (a CommissionAction) String() string {
	switch a {
	case CommissionActionCreateSet:
		return "CREATE_SET"
	case CommissionActionDeleteAll:
		return "DELETE_ALL"
	default:
		return "NONE"
	}
}

// CommissionActionFor decides the commission side effect of moving from prev to next.
// Only crossing the boundary of the commission-bearing set has an effect.
func CommissionActionFor(prev, next models.InquiryStage) CommissionAction {
	was := prev.IsCommissionBearing()
	is := next.IsCommissionBearing()
	switch {
	case !was && is:
		return CommissionActionCreateSet
	case was && !is:
		return CommissionActionDeleteAll
	default:
		return CommissionActionNone
	}
}

// CommissionInput is everything ComputeCommissions needs. AgentReferrerID is
// only consulted for the recruiter bonus.
type CommissionInput struct {
	Inquiry         *models.Inquiry
	Listing         *models.Listing
	AgentReferrerID *uint
	Settings        Settings
	Now             time.Time
}

// ComputeCommissions returns the commission set an inquiry earns on entering a
// commission-bearing stage. It performs no I/O.
func ComputeCommissions(in CommissionInput) []*models.Commission {
	inquiry, listing := in.Inquiry, in.Listing
	var out []*models.Commission

	add := func(role models.CommissionRole, earnerID uint, amount int64) {
		out = append(out, &models.Commission{
			InquiryID: inquiry.ID,
			ListingID: listing.ID,
			EarnerID:  earnerID,
			Role:      role,
			Amount:    amount,
			Status:    models.CommissionStatusPending,
			CreatedAt: in.Now,
			UpdatedAt: in.Now,
		})
	}

	if listing.AgentCommissionPct > 0 {
		add(models.CommissionRoleAgent, inquiry.AgentID, commissionAmount(listing.Price, listing.AgentCommissionPct))
	}
	// The company share is booked to the listing's creator until companies exist as accounts.
	if listing.CompanyCommissionPct > 0 {
		add(models.CommissionRoleCompany, listing.CreatedByID, commissionAmount(listing.Price, listing.CompanyCommissionPct))
	}
	if inquiry.PromoterID != nil && listing.PromoterCommissionPct > 0 {
		add(models.CommissionRolePromoter, *inquiry.PromoterID, commissionAmount(listing.Price, listing.PromoterCommissionPct))

		if recruiterBonusApplies(in.Settings) && in.AgentReferrerID != nil {
			add(models.CommissionRoleRecruiter, *in.AgentReferrerID, in.Settings.RecruiterBonusAmount)
		}
	}
	return out
}

// recruiterBonusApplies ignores the amount: an enabled bonus of zero still books a row
func recruiterBonusApplies(s Settings) bool {
	return s.RecruiterBonusEnabled
}

// needsAgentLookup reports whether ComputeCommissions would consult the agent's referrer
func needsAgentLookup(inquiry *models.Inquiry, listing *models.Listing, s Settings) bool {
	return inquiry.PromoterID != nil && listing.PromoterCommissionPct > 0 && recruiterBonusApplies(s)
}

// commissionAmount rounds price*pct/100 half away from zero to whole currency units
func commissionAmount(price int64, pct float64) int64 {
	return int64(math.Round(float64(price) * pct / 100))
}

// SettlementResult describes what Apply did
type SettlementResult struct {
	Action   CommissionAction
	Listing  *models.Listing
	Created  []*models.Commission
	Reversed int64
}

// SettlementEngine keeps an inquiry's commission rows equal to what its current stage implies
type SettlementEngine struct {
	commissionRepo repository.CommissionRepository
	listingRepo    repository.ListingRepository
	userRepo       repository.UserRepository
	settings       SettingsReader
}

func NewSettlementEngine(
	commissionRepo repository.CommissionRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	settings SettingsReader,
) *SettlementEngine {
	return &SettlementEngine{
		commissionRepo: commissionRepo,
		listingRepo:    listingRepo,
		userRepo:       userRepo,
		settings:       settings,
	}
}

// Apply must run inside the transaction that changed the inquiry's stage,
// with the inquiry row locked.
func (e *SettlementEngine) Apply(ctx context.Context, inquiry *models.Inquiry, prev, next models.InquiryStage, now time.Time) (*SettlementResult, error) {
	result := &SettlementResult{Action: CommissionActionFor(prev, next)}

	switch result.Action {
	case CommissionActionDeleteAll:
		n, err := e.commissionRepo.DeleteByInquiry(ctx, inquiry.ID)
		if err != nil {
			return nil, err
		}
		result.Reversed = n
		return result, nil

	case CommissionActionCreateSet:
		listing, err := e.listingRepo.ByID(ctx, inquiry.ListingID)
		if err != nil {
			return nil, fmt.Errorf("failed to load listing %d: %w", inquiry.ListingID, err)
		}
		if listing == nil {
			return nil, NewBusinessErrorf(CodeNotFound, "Listing %d of inquiry not found", ErrListingNotFound, inquiry.ListingID)
		}
		result.Listing = listing

		settings, err := e.settings.Snapshot(ctx)
		if err != nil {
			return nil, err
		}

		input := CommissionInput{Inquiry: inquiry, Listing: listing, Settings: settings, Now: now}
		if needsAgentLookup(inquiry, listing, settings) {
			agent, err := e.userRepo.ByID(ctx, inquiry.AgentID)
			if err != nil {
				return nil, fmt.Errorf("failed to load agent %d: %w", inquiry.AgentID, err)
			}
			if agent != nil {
				input.AgentReferrerID = agent.ReferrerID
			}
		}

		created := ComputeCommissions(input)
		if err := e.commissionRepo.SaveBatch(ctx, created); err != nil {
			return nil, err
		}
		result.Created = created
		return result, nil
	}

	return result, nil
}
