package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
)

// Registry is an immutable in-memory snapshot of one org's chart: active
// nodes plus their secondary links, indexed for traversal. It is rebuilt
// from the store on demand and never mutated in place.
type Registry struct {
	nodes      map[uuid.UUID]node.Node
	childrenOf map[uuid.UUID][]node.Node
	linkedOf   map[uuid.UUID][]node.Node
}

// NewRegistry indexes the given nodes and links. Inactive nodes are skipped,
// nodes whose parent is missing from the set are treated as roots, and links
// whose endpoints are missing are dropped.
func NewRegistry(nodes []node.Node, links []node.Link) *Registry {
	r := &Registry{
		nodes:      make(map[uuid.UUID]node.Node, len(nodes)),
		childrenOf: make(map[uuid.UUID][]node.Node),
		linkedOf:   make(map[uuid.UUID][]node.Node),
	}
	for _, n := range nodes {
		if !n.IsActive {
			continue
		}
		r.nodes[n.ID] = n
	}
	for _, n := range r.nodes {
		r.childrenOf[r.parentKey(n)] = append(r.childrenOf[r.parentKey(n)], n)
	}
	for key := range r.childrenOf {
		sortNodes(r.childrenOf[key])
	}
	for _, l := range links {
		n, ok := r.nodes[l.NodeID]
		if !ok {
			continue
		}
		if _, ok := r.nodes[l.LinkedUnderID]; !ok {
			continue
		}
		r.linkedOf[l.LinkedUnderID] = append(r.linkedOf[l.LinkedUnderID], n)
	}
	for key := range r.linkedOf {
		sortNodes(r.linkedOf[key])
	}
	return r
}

func (r *Registry) parentKey(n node.Node) uuid.UUID {
	if n.ParentID == nil {
		return uuid.Nil
	}
	if _, ok := r.nodes[*n.ParentID]; !ok {
		return uuid.Nil
	}
	return *n.ParentID
}

func (r *Registry) Node(id uuid.UUID) (node.Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

func (r *Registry) Len() int { return len(r.nodes) }

// Roots returns the top-level nodes in sort order. Nodes referencing a
// parent that is missing or inactive surface here instead of vanishing.
func (r *Registry) Roots() []node.Node {
	return r.childrenOf[uuid.Nil]
}

// Children returns the primary children of parentID in sort order.
func (r *Registry) Children(parentID uuid.UUID) []node.Node {
	if parentID == uuid.Nil {
		return r.childrenOf[uuid.Nil]
	}
	return r.childrenOf[parentID]
}

// LinkedChildren returns the nodes secondarily linked under parentID.
func (r *Registry) LinkedChildren(parentID uuid.UUID) []node.Node {
	return r.linkedOf[parentID]
}

// AncestorChain walks primary parent pointers from id upward, nearest first.
// The node itself is excluded. A revisited node ends the walk so that a
// corrupted parent cycle cannot hang the caller.
func (r *Registry) AncestorChain(id uuid.UUID) []node.Node {
	var chain []node.Node
	seen := map[uuid.UUID]struct{}{id: {}}
	cur, ok := r.nodes[id]
	if !ok {
		return nil
	}
	for cur.ParentID != nil {
		parent, ok := r.nodes[*cur.ParentID]
		if !ok {
			break
		}
		if _, dup := seen[parent.ID]; dup {
			break
		}
		seen[parent.ID] = struct{}{}
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}

// IsDescendantOf reports whether id sits anywhere below ancestorID on the
// primary parent chain.
func (r *Registry) IsDescendantOf(id, ancestorID uuid.UUID) bool {
	for _, anc := range r.AncestorChain(id) {
		if anc.ID == ancestorID {
			return true
		}
	}
	return false
}

// WouldCreateCycle reports whether re-parenting moved under newParentID
// would make a node its own ancestor.
func (r *Registry) WouldCreateCycle(movedID, newParentID uuid.UUID) bool {
	if movedID == newParentID {
		return true
	}
	return r.IsDescendantOf(newParentID, movedID)
}

// SubtreeIDs returns movedID plus every primary descendant.
func (r *Registry) SubtreeIDs(rootID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	var walk func(id uuid.UUID)
	walk = func(id uuid.UUID) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		for _, child := range r.childrenOf[id] {
			walk(child.ID)
		}
	}
	if _, ok := r.nodes[rootID]; !ok {
		return nil
	}
	walk(rootID)
	return ids
}

// sortNodes orders siblings by sort order ascending, breaking ties by name
// and then by id so repeated builds render identically.
func sortNodes(nodes []node.Node) {
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
