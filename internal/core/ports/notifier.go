package ports

import "github.com/wassali-delivery/accounts-api/internal/core/domain"

// Notifier emits a domain event to the message broker. Publish is
// fire-and-forget: it must not block the caller's response path, and a
// publish failure never rolls back the mutation that triggered it.
type Notifier interface {
	Publish(eventType domain.EventType, payload any)
}
