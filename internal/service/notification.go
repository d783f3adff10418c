package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civiport-dev/civiport/internal/logger"
	"github.com/civiport-dev/civiport/internal/mq"
)

const (
	WelcomeRoutingKey = "user.welcome"
	WelcomeQueue      = "civiport.welcome"

	sendAttempts = 3
)

var attemptBackoff = 2 * time.Second

// WelcomeMessage is the payload published on registration.
type WelcomeMessage struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Sender interface {
	Send(recipientEmail, subject, body string) error
}

type messagePublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// QueueNotifier publishes welcome messages to the broker. Publish failures
// are logged and swallowed: registration must not fail because the broker
// is down.
type QueueNotifier struct {
	publisher messagePublisher
}

func NewQueueNotifier(publisher *mq.Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: publisher}
}

func (n *QueueNotifier) Welcome(email, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := n.publisher.PublishJSON(ctx, WelcomeRoutingKey, WelcomeMessage{Email: email, Name: name})
	if err != nil {
		logger.Log.Error("failed to publish welcome message", "email", email, "error", err)
	}
}

// DirectNotifier sends the welcome email from a goroutine when no broker is
// configured. Same contract: failures never surface to the caller.
type DirectNotifier struct {
	sender Sender
}

func NewDirectNotifier(sender Sender) *DirectNotifier {
	return &DirectNotifier{sender: sender}
}

func (n *DirectNotifier) Welcome(email, name string) {
	go func() {
		if err := sendWelcome(n.sender, email, name); err != nil {
			logger.Log.Error("failed to send welcome email", "email", email, "error", err)
		}
	}()
}

// NotificationWorker drains the welcome queue and delivers emails, retrying
// transient SMTP failures before giving up on a message.
type NotificationWorker struct {
	consumer *mq.Consumer
	sender   Sender
}

func NewNotificationWorker(consumer *mq.Consumer, sender Sender) *NotificationWorker {
	return &NotificationWorker{consumer: consumer, sender: sender}
}

func (w *NotificationWorker) Run(ctx context.Context) error {
	deliveries, err := w.consumer.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	logger.Log.Info("notification worker started", "queue", WelcomeQueue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			w.handle(d.Body)
			if err := d.Ack(false); err != nil {
				logger.Log.Error("failed to ack delivery", "error", err)
			}
		}
	}
}

func (w *NotificationWorker) handle(body []byte) {
	var msg WelcomeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Log.Error("dropping malformed welcome message", "error", err)
		return
	}

	var err error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if err = sendWelcome(w.sender, msg.Email, msg.Name); err == nil {
			return
		}
		logger.Log.Warn("welcome email attempt failed", "email", msg.Email, "attempt", attempt, "error", err)
		time.Sleep(attemptBackoff)
	}
	logger.Log.Error("giving up on welcome email", "email", msg.Email, "error", err)
}

func sendWelcome(sender Sender, email, name string) error {
	subject := "Welcome to Civiport"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour account is ready. Report issues in your neighborhood, "+
			"upvote the ones that matter to you and follow city events and announcements.\n\n"+
			"The Civiport team",
		name,
	)
	return sender.Send(email, subject, body)
}
