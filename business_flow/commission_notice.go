package businessflow

import (
	"context"
	"fmt"
	"log"

	"github.com/amirphl/Maskan/app/services"
	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/utils"
)

// CommissionNotice is the role-neutral content of a commission notification.
// It carries no inquiry or client data.
type CommissionNotice struct {
	Role          models.CommissionRole
	EarnerID      uint
	Amount        int64
	ListingID     uint
	ListingNumber string
}

type noticeBuilder interface {
	Build(n CommissionNotice) *models.Notification
}

// inquiryNoticeBuilder serves client-facing roles, who already know the client
type inquiryNoticeBuilder struct {
	inquiryID  uint
	clientName string
}

func (b inquiryNoticeBuilder) Build(n CommissionNotice) *models.Notification {
	link := fmt.Sprintf("/inquiries/%d", b.inquiryID)
	return &models.Notification{
		RecipientID: n.EarnerID,
		Type:        models.NotificationTypeCommissionCreated,
		Title:       fmt.Sprintf("New %s commission", n.Role),
		Message: fmt.Sprintf("You earned %d %s on listing %s for inquiry #%d (%s).",
			n.Amount, utils.DefaultCurrency, n.ListingNumber, b.inquiryID, b.clientName),
		Link: &link,
	}
}

// anonymousNoticeBuilder serves promoters and recruiters. It has no way to
// receive inquiry or client data.
type anonymousNoticeBuilder struct{}

func (anonymousNoticeBuilder) Build(n CommissionNotice) *models.Notification {
	link := "/commissions"
	return &models.Notification{
		RecipientID: n.EarnerID,
		Type:        models.NotificationTypeCommissionCreated,
		Title:       fmt.Sprintf("New %s commission", n.Role),
		Message:     fmt.Sprintf("You earned %d %s on listing %s.", n.Amount, utils.DefaultCurrency, n.ListingNumber),
		Link:        &link,
	}
}

func noticeBuilderFor(role models.CommissionRole, inquiry *models.Inquiry) noticeBuilder {
	if role.IsClientFacing() {
		return inquiryNoticeBuilder{inquiryID: inquiry.ID, clientName: inquiry.ClientName}
	}
	return anonymousNoticeBuilder{}
}

// buildCommissionNotifications renders one notification per created commission
func buildCommissionNotifications(inquiry *models.Inquiry, listing *models.Listing, created []*models.Commission) []*models.Notification {
	out := make([]*models.Notification, 0, len(created))
	for _, c := range created {
		notice := CommissionNotice{
			Role:          c.Role,
			EarnerID:      c.EarnerID,
			Amount:        c.Amount,
			ListingID:     listing.ID,
			ListingNumber: listing.ListingNumber,
		}
		out = append(out, noticeBuilderFor(c.Role, inquiry).Build(notice))
	}
	return out
}

// dispatchNotifications hands notifications to the notifier without failing the caller
func dispatchNotifications(ctx context.Context, notifier services.NotificationService, notifications []*models.Notification) {
	if notifier == nil {
		return
	}
	for _, n := range notifications {
		if err := notifier.Notify(ctx, n); err != nil {
			notificationFailuresTotal.WithLabelValues(n.Type).Inc()
			log.Printf("notifications: failed to enqueue %s for user %d: %v", n.Type, n.RecipientID, err)
		}
	}
}
