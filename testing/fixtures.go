package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateUser inserts an approved user with the given role
func (tf *TestFixtures) CreateUser(role models.UserRole, referrerID *uint) (*models.User, error) {
	now := utils.UTCNow()
	user := &models.User{
		FullName:   fmt.Sprintf("Test %s %d", role, rand.Intn(1000000)),
		Role:       role,
		IsApproved: true,
		ReferrerID: referrerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateListing inserts an active listing owned by agentID with the given commission percentages
func (tf *TestFixtures) CreateListing(agentID uint, price int64, agentPct, companyPct, promoterPct float64) (*models.Listing, error) {
	now := utils.UTCNow()
	listing := &models.Listing{
		ListingNumber:         fmt.Sprintf("L-%09d", rand.Intn(900000000)+100000000),
		Title:                 "Test apartment",
		Price:                 price,
		AgentCommissionPct:    agentPct,
		CompanyCommissionPct:  companyPct,
		PromoterCommissionPct: promoterPct,
		AgentID:               agentID,
		CreatedByID:           agentID,
		Status:                models.ListingStatusActive,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := tf.DB.DB.Create(listing).Error; err != nil {
		return nil, fmt.Errorf("failed to create test listing: %w", err)
	}
	return listing, nil
}

// CreateTrackingLink inserts a link for creator on listingID
func (tf *TestFixtures) CreateTrackingLink(refCode string, listingID uint, creator *models.User) (*models.TrackingLink, error) {
	link := models.NewTrackingLink(refCode, listingID, creator.ID, creator.Role, models.SharePlatformWhatsApp, nil, nil)
	link.CreatedAt = utils.UTCNow()
	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tracking link: %w", err)
	}
	return link, nil
}

// CreateInquiry inserts an inquiry in the INQUIRY stage, attributed to link when non-nil
func (tf *TestFixtures) CreateInquiry(listing *models.Listing, link *models.TrackingLink) (*models.Inquiry, error) {
	inquiry := models.NewInquiry(listing.ID, listing.AgentID, "Test Client", "+989121234567", nil, nil, utils.UTCNow())
	if link != nil {
		inquiry.TrackingLinkID = utils.ToPtr(link.ID)
		inquiry.PromoterID = link.PromoterID
	}
	if err := tf.DB.DB.Create(inquiry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test inquiry: %w", err)
	}
	return inquiry, nil
}
