// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"github.com/amirphl/Maskan/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// ErrNotificationQueueFull is returned when the dispatcher cannot accept more work
var ErrNotificationQueueFull = errors.New("notification queue is full")

var notificationDeliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notification_deliveries_total",
		Help: "Notifications handed to the sink, by result",
	},
	[]string{"result"},
)

// NotificationService delivers in-app notifications to users
type NotificationService interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// NotificationServiceImpl persists notifications for the platform to show in-app
type NotificationServiceImpl struct {
	repo repository.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &NotificationServiceImpl{repo: repo}
}

// Notify stores the notification
func (s *NotificationServiceImpl) Notify(ctx context.Context, n *models.Notification) error {
	if n == nil {
		return fmt.Errorf("notification is nil")
	}
	if n.RecipientID == 0 {
		return fmt.Errorf("notification has no recipient")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = utils.UTCNow()
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

// NotificationDispatcher decouples callers from delivery: Notify only
// enqueues, a single worker drains the queue at a bounded rate.
type NotificationDispatcher struct {
	sink    NotificationService
	queue   chan *models.Notification
	limiter *rate.Limiter
	timeout time.Duration
	logger  *log.Logger

	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewNotificationDispatcher creates a dispatcher in front of sink
func NewNotificationDispatcher(sink NotificationService, queueSize int, perSecond float64, burst int, logger *log.Logger) *NotificationDispatcher {
	if queueSize <= 0 {
		queueSize = 1000
	}
	if perSecond <= 0 {
		perSecond = 50
	}
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &NotificationDispatcher{
		sink:    sink,
		queue:   make(chan *models.Notification, queueSize),
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Notify enqueues n without blocking
func (d *NotificationDispatcher) Notify(_ context.Context, n *models.Notification) error {
	if n == nil {
		return fmt.Errorf("notification is nil")
	}
	select {
	case d.queue <- n:
		return nil
	default:
		notificationDeliveries.WithLabelValues("dropped").Inc()
		return ErrNotificationQueueFull
	}
}

// SetDeliveryTimeout bounds each call into the sink. Non-positive values are ignored.
func (d *NotificationDispatcher) SetDeliveryTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.timeout = timeout
	}
}

// Pending returns the number of queued notifications
func (d *NotificationDispatcher) Pending() int {
	return len(d.queue)
}

// Start launches the delivery worker and returns a stop function.
// Stopping waits for the worker to exit; anything still queued is logged and dropped.
func (d *NotificationDispatcher) Start(parent context.Context) func() {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return func() {}
	}
	d.started = true
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(parent)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				if left := len(d.queue); left > 0 {
					d.logger.Printf("notifications: stopping with %d undelivered", left)
				}
				return
			case n := <-d.queue:
				d.deliver(ctx, n)
			}
		}
	}()

	return func() {
		cancel()
		d.wg.Wait()
	}
}

func (d *NotificationDispatcher) deliver(ctx context.Context, n *models.Notification) {
	if err := d.limiter.Wait(ctx); err != nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.sink.Notify(sendCtx, n); err != nil {
		notificationDeliveries.WithLabelValues("failed").Inc()
		d.logger.Printf("notifications: delivery to user %d failed: %v", n.RecipientID, err)
		return
	}
	notificationDeliveries.WithLabelValues("delivered").Inc()
}
