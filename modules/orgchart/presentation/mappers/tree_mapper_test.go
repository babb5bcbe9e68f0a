package mappers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
	"github.com/harborpeak/coverdesk/modules/orgchart/services"
)

func TestForestToTree_DepthAnnotatedPreOrder(t *testing.T) {
	rootID := uuid.New()
	childID := uuid.New()
	linkedID := uuid.New()

	forest := []*services.TreeNode{
		{
			Node: node.Node{ID: rootID, Type: node.TypeDivision, Name: "root"},
			Children: []*services.TreeNode{
				{
					Node: node.Node{ID: childID, Type: node.TypeTeam, Name: "child"},
				},
				{
					Node:             node.Node{ID: linkedID, Type: node.TypeTeam, Name: "linked"},
					IsLinkedInstance: true,
				},
			},
		},
	}

	tree := ForestToTree(forest)
	require.Len(t, tree.Nodes, 3)

	require.Equal(t, rootID, tree.Nodes[0].ID)
	require.Equal(t, 0, tree.Nodes[0].Depth)

	require.Equal(t, childID, tree.Nodes[1].ID)
	require.Equal(t, 1, tree.Nodes[1].Depth)
	require.False(t, tree.Nodes[1].IsLinkedInstance)

	require.Equal(t, linkedID, tree.Nodes[2].ID)
	require.Equal(t, 1, tree.Nodes[2].Depth)
	require.True(t, tree.Nodes[2].IsLinkedInstance)
}

func TestForestToTree_EmptyForest(t *testing.T) {
	tree := ForestToTree(nil)
	require.NotNil(t, tree)
	require.Empty(t, tree.Nodes)
}
