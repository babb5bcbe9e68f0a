package viewmodels

import "github.com/google/uuid"

// ChartTreeNode is one row of the flattened chart rendering. Depth is the
// nesting level in the rendered forest, not the node's distance from its
// primary root: a linked instance appears at the depth of its link target.
type ChartTreeNode struct {
	ID                    uuid.UUID  `json:"id"`
	Type                  string     `json:"type"`
	ParentID              *uuid.UUID `json:"parent_id,omitempty"`
	Name                  string     `json:"name"`
	Description           string     `json:"description,omitempty"`
	Color                 string     `json:"color,omitempty"`
	Icon                  string     `json:"icon,omitempty"`
	SortOrder             int        `json:"sort_order"`
	Depth                 int        `json:"depth"`
	CustomTypeLabel       string     `json:"custom_type_label,omitempty"`
	IsLinkedInstance      bool       `json:"is_linked_instance"`
	IsNonInvestment       bool       `json:"is_non_investment"`
	CoverageAdminOverride bool       `json:"coverage_admin_override"`
}

type ChartTree struct {
	Nodes []ChartTreeNode `json:"nodes"`
}
