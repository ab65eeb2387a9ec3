package services

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// EventsExchange is the exchange user lifecycle events are published to.
const EventsExchange = "users"

// Routing keys for published events.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
	EventAuthLogin   = "auth.login"
)

// EventPublisher delivers an encoded event to a broker.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// publishEvent is best effort: failures are logged and never returned.
func publishEvent(publisher EventPublisher, logger *zap.Logger, routingKey string, payload map[string]interface{}) {
	if publisher == nil {
		return
	}
	payload["event"] = routingKey
	payload["at"] = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal event", zap.String("event", routingKey), zap.Error(err))
		return
	}
	if err := publisher.Publish(EventsExchange, routingKey, body); err != nil {
		logger.Warn("Failed to publish event", zap.String("event", routingKey), zap.Error(err))
	}
}
