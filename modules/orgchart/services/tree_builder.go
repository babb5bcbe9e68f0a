package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
)

// TreeNode is one rendered vertex. A node placed by a secondary link appears
// again as a leaf with IsLinkedInstance set; only its primary placement
// carries children.
type TreeNode struct {
	node.Node
	IsLinkedInstance bool
	Children         []*TreeNode
}

// BuildTree renders the snapshot as a forest. Under every parent the primary
// children and the linked leaves are merged and ordered by sort order, ties
// resolved by name then id. A link that duplicates a primary placement is
// skipped. Nodes trapped in a corrupted parent cycle are surfaced as extra
// roots rather than dropped.
func BuildTree(reg *Registry) []*TreeNode {
	visited := make(map[uuid.UUID]struct{}, reg.Len())

	var build func(n node.Node) *TreeNode
	build = func(n node.Node) *TreeNode {
		visited[n.ID] = struct{}{}
		tn := &TreeNode{Node: n}

		primary := reg.Children(n.ID)
		primarySet := make(map[uuid.UUID]struct{}, len(primary))
		merged := make([]*TreeNode, 0, len(primary))
		for _, child := range primary {
			if _, dup := visited[child.ID]; dup {
				continue
			}
			primarySet[child.ID] = struct{}{}
			merged = append(merged, build(child))
		}
		for _, linked := range reg.LinkedChildren(n.ID) {
			if _, dup := primarySet[linked.ID]; dup {
				continue
			}
			merged = append(merged, &TreeNode{Node: linked, IsLinkedInstance: true})
		}
		sortTreeNodes(merged)
		tn.Children = merged
		return tn
	}

	roots := reg.Roots()
	forest := make([]*TreeNode, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, build(root))
	}

	// Cycle members are reachable from no root; render them at top level
	// so the data-quality problem is visible.
	if len(visited) < reg.Len() {
		orphans := reg.unvisited(visited)
		for _, orphan := range orphans {
			if _, dup := visited[orphan.ID]; dup {
				continue
			}
			forest = append(forest, build(orphan))
		}
	}
	return forest
}

func (r *Registry) unvisited(visited map[uuid.UUID]struct{}) []node.Node {
	var out []node.Node
	for id, n := range r.nodes {
		if _, ok := visited[id]; !ok {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out
}

func sortTreeNodes(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID.String() < nodes[j].ID.String()
	})
}
