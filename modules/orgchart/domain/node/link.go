package node

import "github.com/google/uuid"

// Link is a secondary placement: NodeID is additionally displayed as a child
// of LinkedUnderID without changing its primary parent. A link must never
// duplicate the node's primary placement.
type Link struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	NodeID        uuid.UUID
	LinkedUnderID uuid.UUID
}
