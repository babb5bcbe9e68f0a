package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
)

type permFixture struct {
	rootID uuid.UUID
	midID  uuid.UUID
	leafID uuid.UUID
	userID uuid.UUID
	nodes  []node.Node
}

func newPermFixture() *permFixture {
	f := &permFixture{
		rootID: uuid.New(),
		midID:  uuid.New(),
		leafID: uuid.New(),
		userID: uuid.New(),
	}
	f.nodes = []node.Node{
		activeNode(f.rootID, nil, "root", 0),
		activeNode(f.midID, &f.rootID, "mid", 0),
		activeNode(f.leafID, &f.midID, "leaf", 0),
	}
	return f
}

func (f *permFixture) registry() *Registry {
	return NewRegistry(f.nodes, nil)
}

func (f *permFixture) grant(nodeID uuid.UUID) node.Membership {
	return node.Membership{ID: uuid.New(), NodeID: nodeID, UserID: f.userID, IsCoverageAdmin: true}
}

func (f *permFixture) block(nodeID uuid.UUID) node.Membership {
	return node.Membership{ID: uuid.New(), NodeID: nodeID, UserID: f.userID, CoverageAdminBlocked: true}
}

func TestResolveCoverageAdmin_OrgAdminShortCircuits(t *testing.T) {
	f := newPermFixture()

	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{IsOrgAdmin: true}, nil, f.leafID)
	require.True(t, d.Allowed)
	require.Equal(t, StatusAdmin, d.Status)
}

func TestResolveCoverageAdmin_ExplicitGrantAtNode(t *testing.T) {
	f := newPermFixture()

	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{}, []node.Membership{f.grant(f.leafID)}, f.leafID)
	require.True(t, d.Allowed)
	require.Equal(t, StatusExplicit, d.Status)
	require.Nil(t, d.SourceNodeID)
}

func TestResolveCoverageAdmin_BlockWinsOverGrantAtSameNode(t *testing.T) {
	f := newPermFixture()

	memberships := []node.Membership{f.grant(f.leafID), f.block(f.leafID)}
	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{}, memberships, f.leafID)
	require.False(t, d.Allowed)
	require.Equal(t, StatusBlocked, d.Status)

	// A single row carrying both flags resolves the same way.
	both := node.Membership{ID: uuid.New(), NodeID: f.leafID, UserID: f.userID, IsCoverageAdmin: true, CoverageAdminBlocked: true}
	d = ResolveCoverageAdmin(f.registry(), node.UserFlags{}, []node.Membership{both}, f.leafID)
	require.False(t, d.Allowed)
	require.Equal(t, StatusBlocked, d.Status)
}

func TestResolveCoverageAdmin_GlobalFlag(t *testing.T) {
	f := newPermFixture()

	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{CoverageAdmin: true}, nil, f.leafID)
	require.True(t, d.Allowed)
	require.Equal(t, StatusGlobal, d.Status)
}

func TestResolveCoverageAdmin_OverrideCutsGlobalOnOwnNode(t *testing.T) {
	f := newPermFixture()
	f.nodes[2].CoverageAdminOverride = true

	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{CoverageAdmin: true}, nil, f.leafID)
	require.False(t, d.Allowed)
	require.Equal(t, StatusNone, d.Status)

	// The same global grant still applies where no override is set.
	d = ResolveCoverageAdmin(f.registry(), node.UserFlags{CoverageAdmin: true}, nil, f.rootID)
	require.True(t, d.Allowed)
	require.Equal(t, StatusGlobal, d.Status)
}

func TestResolveCoverageAdmin_InheritedFromAncestor(t *testing.T) {
	f := newPermFixture()

	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{}, []node.Membership{f.grant(f.rootID)}, f.leafID)
	require.True(t, d.Allowed)
	require.Equal(t, StatusInherited, d.Status)
	require.NotNil(t, d.SourceNodeID)
	require.Equal(t, f.rootID, *d.SourceNodeID)
}

func TestResolveCoverageAdmin_OverrideStopsInheritanceWalk(t *testing.T) {
	f := newPermFixture()
	f.nodes[1].CoverageAdminOverride = true

	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{}, []node.Membership{f.grant(f.rootID)}, f.leafID)
	require.False(t, d.Allowed)
	require.Equal(t, StatusNone, d.Status)
}

func TestResolveCoverageAdmin_BlockedAncestorDoesNotStopWalk(t *testing.T) {
	f := newPermFixture()

	// Blocked at mid silences mid's grant only; the root grant still
	// inherits down to the leaf.
	memberships := []node.Membership{f.grant(f.rootID), f.grant(f.midID), f.block(f.midID)}
	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{}, memberships, f.leafID)
	require.True(t, d.Allowed)
	require.Equal(t, StatusInherited, d.Status)
	require.Equal(t, f.rootID, *d.SourceNodeID)
}

func TestResolveCoverageAdmin_MultipleRowsOnSameNode(t *testing.T) {
	f := newPermFixture()

	plain := node.Membership{ID: uuid.New(), NodeID: f.leafID, UserID: f.userID, Role: "analyst"}
	admin := node.Membership{ID: uuid.New(), NodeID: f.leafID, UserID: f.userID, Role: "lead", IsCoverageAdmin: true}
	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{}, []node.Membership{plain, admin}, f.leafID)
	require.True(t, d.Allowed)
	require.Equal(t, StatusExplicit, d.Status)
}

func TestResolveCoverageAdmin_NoRuleMatches(t *testing.T) {
	f := newPermFixture()

	d := ResolveCoverageAdmin(f.registry(), node.UserFlags{}, nil, f.leafID)
	require.False(t, d.Allowed)
	require.Equal(t, StatusNone, d.Status)

	d = ResolveCoverageAdmin(f.registry(), node.UserFlags{}, nil, uuid.New())
	require.False(t, d.Allowed)
	require.Equal(t, StatusNone, d.Status)
}
