package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
)

func activeNode(id uuid.UUID, parentID *uuid.UUID, name string, order int) node.Node {
	return node.Node{
		ID:        id,
		OrgID:     uuid.New(),
		Type:      node.TypeDepartment,
		ParentID:  parentID,
		Name:      name,
		SortOrder: order,
		IsActive:  true,
	}
}

func TestBuildTree_SiblingsOrderedBySortOrder(t *testing.T) {
	rootID := uuid.New()
	aID := uuid.New()
	bID := uuid.New()
	cID := uuid.New()

	reg := NewRegistry([]node.Node{
		activeNode(rootID, nil, "root", 0),
		activeNode(aID, &rootID, "alpha", 2),
		activeNode(bID, &rootID, "bravo", 1),
		activeNode(cID, &rootID, "charlie", 1),
	}, nil)

	forest := BuildTree(reg)
	require.Len(t, forest, 1)
	children := forest[0].Children
	require.Len(t, children, 3)
	require.Equal(t, bID, children[0].ID)
	require.Equal(t, cID, children[1].ID)
	require.Equal(t, aID, children[2].ID)
}

func TestBuildTree_LinkedInstanceIsLeaf(t *testing.T) {
	divisionID := uuid.New()
	teamID := uuid.New()
	memberID := uuid.New()
	otherID := uuid.New()

	nodes := []node.Node{
		activeNode(divisionID, nil, "division", 0),
		activeNode(teamID, &divisionID, "team", 0),
		activeNode(memberID, &teamID, "subteam", 0),
		activeNode(otherID, nil, "other", 1),
	}
	links := []node.Link{
		{ID: uuid.New(), NodeID: teamID, LinkedUnderID: otherID},
	}

	forest := BuildTree(NewRegistry(nodes, links))
	require.Len(t, forest, 2)

	primary := forest[0].Children[0]
	require.Equal(t, teamID, primary.ID)
	require.False(t, primary.IsLinkedInstance)
	require.Len(t, primary.Children, 1)

	linked := forest[1].Children[0]
	require.Equal(t, teamID, linked.ID)
	require.True(t, linked.IsLinkedInstance)
	require.Empty(t, linked.Children)
}

func TestBuildTree_LinkDuplicatingPrimaryPlacementIsSkipped(t *testing.T) {
	parentID := uuid.New()
	childID := uuid.New()

	nodes := []node.Node{
		activeNode(parentID, nil, "parent", 0),
		activeNode(childID, &parentID, "child", 0),
	}
	links := []node.Link{
		{ID: uuid.New(), NodeID: childID, LinkedUnderID: parentID},
	}

	forest := BuildTree(NewRegistry(nodes, links))
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	require.False(t, forest[0].Children[0].IsLinkedInstance)
}

func TestNewRegistry_DanglingLinksDropped(t *testing.T) {
	aID := uuid.New()
	goneID := uuid.New()

	reg := NewRegistry(
		[]node.Node{activeNode(aID, nil, "a", 0)},
		[]node.Link{
			{ID: uuid.New(), NodeID: goneID, LinkedUnderID: aID},
			{ID: uuid.New(), NodeID: aID, LinkedUnderID: goneID},
		},
	)

	require.Empty(t, reg.LinkedChildren(aID))
	require.Empty(t, reg.LinkedChildren(goneID))
}

func TestNewRegistry_MissingParentBecomesRoot(t *testing.T) {
	goneID := uuid.New()
	orphanID := uuid.New()

	reg := NewRegistry([]node.Node{
		activeNode(orphanID, &goneID, "orphan", 0),
	}, nil)

	roots := reg.Roots()
	require.Len(t, roots, 1)
	require.Equal(t, orphanID, roots[0].ID)
}

func TestNewRegistry_InactiveNodesExcluded(t *testing.T) {
	aID := uuid.New()
	inactive := activeNode(uuid.New(), &aID, "gone", 0)
	inactive.IsActive = false

	reg := NewRegistry([]node.Node{
		activeNode(aID, nil, "a", 0),
		inactive,
	}, nil)

	require.Equal(t, 1, reg.Len())
	require.Empty(t, reg.Children(aID))
}

func TestBuildTree_ParentCycleSurfacesWithoutHanging(t *testing.T) {
	aID := uuid.New()
	bID := uuid.New()

	a := activeNode(aID, &bID, "a", 0)
	b := activeNode(bID, &aID, "b", 0)

	forest := BuildTree(NewRegistry([]node.Node{a, b}, nil))

	seen := map[uuid.UUID]int{}
	var count func(tns []*TreeNode)
	count = func(tns []*TreeNode) {
		for _, tn := range tns {
			seen[tn.ID]++
			count(tn.Children)
		}
	}
	count(forest)
	require.Equal(t, 1, seen[aID])
	require.Equal(t, 1, seen[bID])
}

func TestRegistry_AncestorChainAndDescendants(t *testing.T) {
	rootID := uuid.New()
	midID := uuid.New()
	leafID := uuid.New()

	reg := NewRegistry([]node.Node{
		activeNode(rootID, nil, "root", 0),
		activeNode(midID, &rootID, "mid", 0),
		activeNode(leafID, &midID, "leaf", 0),
	}, nil)

	chain := reg.AncestorChain(leafID)
	require.Len(t, chain, 2)
	require.Equal(t, midID, chain[0].ID)
	require.Equal(t, rootID, chain[1].ID)

	require.True(t, reg.IsDescendantOf(leafID, rootID))
	require.False(t, reg.IsDescendantOf(rootID, leafID))

	require.True(t, reg.WouldCreateCycle(midID, leafID))
	require.True(t, reg.WouldCreateCycle(midID, midID))
	require.False(t, reg.WouldCreateCycle(leafID, rootID))
}

func TestRegistry_SubtreeIDs(t *testing.T) {
	rootID := uuid.New()
	midID := uuid.New()
	leafID := uuid.New()
	otherID := uuid.New()

	reg := NewRegistry([]node.Node{
		activeNode(rootID, nil, "root", 0),
		activeNode(midID, &rootID, "mid", 0),
		activeNode(leafID, &midID, "leaf", 0),
		activeNode(otherID, nil, "other", 1),
	}, nil)

	ids := reg.SubtreeIDs(midID)
	require.ElementsMatch(t, []uuid.UUID{midID, leafID}, ids)
	require.Nil(t, reg.SubtreeIDs(uuid.New()))
}
