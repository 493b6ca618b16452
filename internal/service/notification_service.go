package service

import (
	"context"
	"fmt"

	"ai-helpdesk-be/internal/model"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/pkg/events"
	pktNats "ai-helpdesk-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
	Broadcast(notification model.Notification)
}

// NotificationService turns bus events into websocket pushes. Notifications
// are ephemeral: a user who is offline when the event fires simply misses it.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("helpdesk.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to helpdesk.>", nil)
}

// handleEvent always returns nil: a missed push is not worth a redelivery
// storm, so nothing here asks NATS to retry.
func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", event.EventType()), map[string]interface{}{"type": event.EventType()})

	if s.delivery == nil {
		return nil
	}

	switch event.EventType() {
	case events.TypeDocumentIngested:
		payload := event.Payload()
		title, _ := payload["title"].(string)
		notif := s.buildNotification(event, "Document ready", fmt.Sprintf("'%s' has been processed and is now searchable.", title))
		s.sendToUploader(event, notif)

	case events.TypeDocumentFailed:
		payload := event.Payload()
		title, _ := payload["title"].(string)
		reason, _ := payload["reason"].(string)
		msg := fmt.Sprintf("Processing of '%s' failed.", title)
		if reason != "" {
			msg = fmt.Sprintf("Processing of '%s' failed: %s", title, reason)
		}
		notif := s.buildNotification(event, "Document failed", msg)
		s.sendToUploader(event, notif)

	case events.TypeSystemBroadcast:
		payload := event.Payload()
		title, _ := payload["title"].(string)
		message, _ := payload["message"].(string)
		notif := s.buildNotification(event, title, message)
		s.delivery.Broadcast(notif)

	default:
		// Events without a notification mapping are fine, just ignore them.
	}

	return nil
}

// sendToUploader routes the notification to the user named in the payload.
// Payloads cross the bus as JSON, so the uuid arrives back as a string.
func (s *NotificationService) sendToUploader(event events.Event, notif model.Notification) {
	uidStr, ok := event.Payload()["user_id"].(string)
	if !ok {
		s.logger.Warn("NotificationService", fmt.Sprintf("No user_id in payload for event %s", event.EventType()), nil)
		return
	}
	uid, err := uuid.Parse(uidStr)
	if err != nil {
		s.logger.Warn("NotificationService", "Invalid user_id in event payload", map[string]interface{}{"user_id": uidStr, "error": err.Error()})
		return
	}

	notif.UserId = uid
	s.delivery.Send(uid, notif)
}

func (s *NotificationService) buildNotification(event events.Event, title, message string) model.Notification {
	return model.Notification{
		Id:        uuid.New(),
		Type:      event.EventType(),
		Title:     title,
		Message:   message,
		Metadata:  event.Payload(),
		CreatedAt: event.Timestamp(),
	}
}
