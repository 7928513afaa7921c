package domain

import (
	"strings"
	"time"
)

// EventType identifies a domain event published after a completed state
// transition. Downstream consumers (notification service, dashboards) bind
// on the derived routing key.
type EventType string

const (
	EventAdminCreated          EventType = "ADMIN_CREATED"
	EventPartnerCreated        EventType = "PARTNER_CREATED"
	EventAdminAssistantCreated EventType = "ADMIN_ASSISTANT_CREATED"
	EventDriverCreated         EventType = "DRIVER_CREATED"
	EventUserUpdated           EventType = "USER_UPDATED"
	EventUserDeleted           EventType = "USER_DELETED"
	EventUserDeletionFailed    EventType = "USER_DELETION_FAILED"
	EventCriticalError         EventType = "CRITICAL_ERROR"
	EventPartnerValidated      EventType = "PARTNER_VALIDATED"
	EventPartnerInvalidated    EventType = "PARTNER_INVALIDATED"
	EventUserLoggedIn          EventType = "USER_LOGGED_IN"
)

// RoutingKey derives the broker routing key for the event type: lower-cased
// and scoped under "user." so consumers can bind selectively
// (e.g. PARTNER_CREATED -> user.partner_created).
func (t EventType) RoutingKey() string {
	return "user." + strings.ToLower(string(t))
}

// Event is the envelope published to the broker, one per successful
// mutation.
type Event struct {
	EventID    string    `json:"event_id"`
	EventType  EventType `json:"event_type"`
	RoutingKey string    `json:"routing_key"`
	Payload    any       `json:"payload"`
	Timestamp  time.Time `json:"timestamp"`
}
