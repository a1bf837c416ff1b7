package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"course-enrollment-backend/internal/model"
)

// Event describes an enrollment state transition worth telling the
// student about.
type Event struct {
	EnrollmentID int64
	State        model.EnrollmentState
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers delivering enrollment
// notifications. Events are dispatched after the transition commits;
// delivery failures never roll anything back.
type WorkerPool struct {
	size    int
	jobs    chan Event
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case event := <-wp.jobs:
			wp.notify(ctx, event)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an event for delivery. It blocks when the buffer is
// full, which only happens if workers were never started.
func (wp *WorkerPool) Dispatch(event Event) {
	wp.jobs <- event
}

// SetSender swaps the delivery backend, for tests.
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}

// notify fetches the enrollment and the owner's subscriptions, then
// pushes one message per subscription.
func (wp *WorkerPool) notify(ctx context.Context, event Event) {
	var enrollment model.Enrollment
	if err := wp.db.WithContext(ctx).Preload("Course").First(&enrollment, event.EnrollmentID).Error; err != nil {
		log.Printf("Error fetching enrollment %d: %v", event.EnrollmentID, err)
		return
	}

	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).
		Where("user_id = ?", enrollment.UserID).
		Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for user %s: %v", enrollment.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	courseLabel := enrollment.Course.Code
	if courseLabel == "" {
		courseLabel = fmt.Sprintf("#%d", enrollment.CourseID)
	}

	var message string
	switch event.State {
	case model.StateConfirmed:
		message = fmt.Sprintf("Your enrollment in %s has been confirmed.", courseLabel)
	case model.StateCancelled:
		message = fmt.Sprintf("Your enrollment in %s has been cancelled.", courseLabel)
	default:
		return
	}

	log.Printf("Sending %d notifications for enrollment %d", len(subscriptions), event.EnrollmentID)
	for _, sub := range subscriptions {
		wp.send(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Push services answer 410 once a subscription is gone for good.
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
