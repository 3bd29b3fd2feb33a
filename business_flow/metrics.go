package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_link_clicks_total",
			Help: "Tracking link clicks by outcome",
		},
		[]string{"result"},
	)

	inquiriesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiries_created_total",
			Help: "Public inquiries created, split by referral attribution",
		},
		[]string{"referred"},
	)

	stageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiry_stage_transitions_total",
			Help: "Inquiry stage transitions by target stage",
		},
		[]string{"stage"},
	)

	commissionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commissions_created_total",
			Help: "Commission rows created by role",
		},
		[]string{"role"},
	)

	commissionsReversedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commissions_reversed_total",
			Help: "Commission rows deleted by stage reversals",
		},
	)

	notificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_enqueue_failures_total",
			Help: "Notifications that could not be handed to the dispatcher",
		},
		[]string{"type"},
	)
)
