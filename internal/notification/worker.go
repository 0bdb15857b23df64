package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"hallpass-backend/internal/model"
	"hallpass-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// pushPayload is the JSON body delivered to the browser.
type pushPayload struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
	PassID   string `json:"passId,omitempty"`
}

// WorkerPool delivers stored notifications to the recipients' push
// subscriptions. Delivery is at-most-one-attempt: failures are logged and
// never retried, and the persisted notification row remains the durable
// record either way.
type WorkerPool struct {
	size    int
	jobs    chan model.Notification
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Notification, size*16),
		store:   s,
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

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case notification := <-wp.jobs:
			wp.deliver(ctx, notification)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues notifications for push delivery. It never blocks the
// caller: when the queue is full the notification is dropped with a log
// line, since the stored row already preserves it.
func (wp *WorkerPool) Dispatch(notifications []model.Notification) {
	for _, n := range notifications {
		select {
		case wp.jobs <- n:
		default:
			log.Printf("Notification queue full, dropping push for user %s (pass %s)", n.UserID, n.PassID)
		}
	}
}

// UseSender swaps the push transport. Call before Start.
func (wp *WorkerPool) UseSender(s Sender) {
	wp.sender = s
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.Notification {
	return wp.jobs
}

// deliver pushes one notification to every subscription of its recipient.
func (wp *WorkerPool) deliver(ctx context.Context, notification model.Notification) {
	subscriptions, err := wp.store.FindSubscriptionsByUser(ctx, notification.UserID)
	if err != nil {
		log.Printf("Error fetching subscriptions for user %s: %v", notification.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(pushPayload{
		Title:    notification.Title,
		Message:  notification.Message,
		Severity: string(notification.Severity),
		PassID:   notification.PassID,
	})
	if err != nil {
		log.Printf("Error marshaling push payload for user %s: %v", notification.UserID, err)
		return
	}

	for _, sub := range subscriptions {
		wp.push(ctx, sub, payload)
	}
}

// push sends a single web push notification.
func (wp *WorkerPool) push(ctx context.Context, sub model.PushSubscription, payload []byte) {
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

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
