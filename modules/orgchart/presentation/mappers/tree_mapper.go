package mappers

import (
	"github.com/harborpeak/coverdesk/modules/orgchart/presentation/viewmodels"
	"github.com/harborpeak/coverdesk/modules/orgchart/services"
)

// ForestToTree flattens the rendered forest into depth-annotated rows in
// display order. The builder already merged links and sorted siblings, so
// this is a plain pre-order walk.
func ForestToTree(forest []*services.TreeNode) *viewmodels.ChartTree {
	out := make([]viewmodels.ChartTreeNode, 0, len(forest)*4)

	var walk func(tn *services.TreeNode, depth int)
	walk = func(tn *services.TreeNode, depth int) {
		out = append(out, viewmodels.ChartTreeNode{
			ID:                    tn.ID,
			Type:                  string(tn.Type),
			ParentID:              tn.ParentID,
			Name:                  tn.Name,
			Description:           tn.Description,
			Color:                 tn.Color,
			Icon:                  tn.Icon,
			SortOrder:             tn.SortOrder,
			Depth:                 depth,
			CustomTypeLabel:       tn.CustomTypeLabel,
			IsLinkedInstance:      tn.IsLinkedInstance,
			IsNonInvestment:       tn.IsNonInvestment,
			CoverageAdminOverride: tn.CoverageAdminOverride,
		})
		for _, child := range tn.Children {
			walk(child, depth+1)
		}
	}
	for _, root := range forest {
		walk(root, 0)
	}
	return &viewmodels.ChartTree{Nodes: out}
}
