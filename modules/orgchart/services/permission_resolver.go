package services

import (
	"github.com/google/uuid"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
)

// DecisionStatus names the rule that decided a coverage-admin check.
type DecisionStatus string

const (
	StatusAdmin     DecisionStatus = "admin"
	StatusExplicit  DecisionStatus = "explicit"
	StatusBlocked   DecisionStatus = "blocked"
	StatusGlobal    DecisionStatus = "global"
	StatusInherited DecisionStatus = "inherited"
	StatusNone      DecisionStatus = "none"
)

// Decision is the outcome of resolving coverage-admin permission for one
// user on one node. SourceNodeID is set when an inherited grant decided,
// pointing at the ancestor that carried it.
type Decision struct {
	Allowed      bool           `json:"allowed"`
	Status       DecisionStatus `json:"status"`
	SourceNodeID *uuid.UUID     `json:"source_node_id,omitempty"`
}

// nodeGrants folds a user's membership rows per node. A user can hold
// several rows on the same node; any blocked row blocks the whole node.
type nodeGrants struct {
	granted map[uuid.UUID]bool
	blocked map[uuid.UUID]bool
}

func foldMemberships(memberships []node.Membership) nodeGrants {
	g := nodeGrants{
		granted: make(map[uuid.UUID]bool),
		blocked: make(map[uuid.UUID]bool),
	}
	for _, m := range memberships {
		if m.CoverageAdminBlocked {
			g.blocked[m.NodeID] = true
			continue
		}
		if m.IsCoverageAdmin {
			g.granted[m.NodeID] = true
		}
	}
	return g
}

// ResolveCoverageAdmin answers "may this user administer coverage on this
// node", first match wins:
//
//  1. org admins always may
//  2. a block on the node itself always denies, even next to a grant
//  3. an unblocked grant on the node itself allows
//  4. a global coverage-admin flag allows unless the node opts out via its
//     override flag
//  5. walking ancestors nearest-first, an override stops inheritance dead;
//     an unblocked grant on an ancestor allows
//  6. otherwise denied
//
// A block does not travel downward: it silences the grant on its own node
// and the walk continues to farther ancestors.
func ResolveCoverageAdmin(reg *Registry, flags node.UserFlags, memberships []node.Membership, nodeID uuid.UUID) Decision {
	if flags.IsOrgAdmin {
		return Decision{Allowed: true, Status: StatusAdmin}
	}
	target, ok := reg.Node(nodeID)
	if !ok {
		return Decision{Allowed: false, Status: StatusNone}
	}

	grants := foldMemberships(memberships)
	if grants.blocked[nodeID] {
		return Decision{Allowed: false, Status: StatusBlocked}
	}
	if grants.granted[nodeID] {
		return Decision{Allowed: true, Status: StatusExplicit}
	}
	if flags.CoverageAdmin && !target.CoverageAdminOverride {
		return Decision{Allowed: true, Status: StatusGlobal}
	}

	for _, anc := range reg.AncestorChain(nodeID) {
		if anc.CoverageAdminOverride {
			return Decision{Allowed: false, Status: StatusNone}
		}
		if grants.granted[anc.ID] && !grants.blocked[anc.ID] {
			src := anc.ID
			return Decision{Allowed: true, Status: StatusInherited, SourceNodeID: &src}
		}
	}
	return Decision{Allowed: false, Status: StatusNone}
}
