package node

import "github.com/google/uuid"

// Membership ties a user to a node. A user may hold several rows on the same
// node with distinct role/focus pairs; the coverage-admin flags are resolved
// across all of a user's rows on a node (any blocked row blocks).
type Membership struct {
	ID                   uuid.UUID
	OrgID                uuid.UUID
	NodeID               uuid.UUID
	UserID               uuid.UUID
	Role                 string
	Focus                string
	IsCoverageAdmin      bool
	CoverageAdminBlocked bool
}

// UserFlags carries the org-wide permission bits of a user. IsOrgAdmin is
// orthogonal to coverage administration and short-circuits resolution.
type UserFlags struct {
	UserID        uuid.UUID
	IsOrgAdmin    bool
	CoverageAdmin bool
}

// LegacyTeam is the pre-chart team record. NodeID is back-filled once a
// chart node has been materialized for it.
type LegacyTeam struct {
	ID     uuid.UUID
	OrgID  uuid.UUID
	Name   string
	NodeID *uuid.UUID
}
