package models

import (
	"time"

	"gofalre.io/storefront/models/enum"
)

// Notification is a user-facing message produced by a store mutation.
type Notification struct {
	ID          string                 `json:"id"`
	SessionID   string                 `json:"sessionId,omitempty"`
	Kind        enum.NotificationKind  `json:"kind"`
	Level       enum.NotificationLevel `json:"level"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}
