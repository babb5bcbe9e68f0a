package events

import (
	"time"

	"github.com/google/uuid"
)

const EventVersionV1 = 1

// ChartEventV1 is published after every successful structural mutation so
// read-side views re-fetch instead of relying on a hidden cache.
type ChartEventV1 struct {
	EventID         uuid.UUID `json:"event_id"`
	EventVersion    int       `json:"event_version"`
	RequestID       string    `json:"request_id"`
	OrgID           uuid.UUID `json:"org_id"`
	TransactionTime time.Time `json:"transaction_time"`
	ChangeType      string    `json:"change_type"`
	EntityType      string    `json:"entity_type"`
	EntityID        uuid.UUID `json:"entity_id"`
}
