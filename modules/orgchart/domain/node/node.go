package node

import (
	"strings"

	"github.com/google/uuid"
)

// Type classifies a vertex in the org hierarchy.
type Type string

const (
	TypeDivision   Type = "division"
	TypeDepartment Type = "department"
	TypeTeam       Type = "team"
	TypePortfolio  Type = "portfolio"
	TypeCustom     Type = "custom"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDivision, TypeDepartment, TypeTeam, TypePortfolio, TypeCustom:
		return true
	}
	return false
}

// Node is a typed vertex in the organization hierarchy. ParentID is the
// single primary parent; nil means root-level. Type-specific references are
// explicit fields instead of a free-form settings bag: PortfolioID is only
// meaningful on portfolio nodes, LegacyTeamID on team nodes and
// CustomTypeLabel on custom nodes.
type Node struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Type        Type
	ParentID    *uuid.UUID
	Name        string
	Description string
	Color       string
	Icon        string
	SortOrder   int

	PortfolioID     *uuid.UUID
	LegacyTeamID    *uuid.UUID
	CustomTypeLabel string

	IsNonInvestment       bool
	CoverageAdminOverride bool
	IsActive              bool
}

// ValidateForType enforces the per-type field contract.
func (n *Node) ValidateForType() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrBlankName
	}
	if !n.Type.Valid() {
		return ErrUnknownType
	}
	if n.Type == TypeCustom && strings.TrimSpace(n.CustomTypeLabel) == "" {
		return ErrCustomLabelRequired
	}
	if n.Type != TypeCustom && strings.TrimSpace(n.CustomTypeLabel) != "" {
		return ErrCustomLabelForbidden
	}
	if n.Type != TypePortfolio && n.PortfolioID != nil {
		return ErrPortfolioRefForbidden
	}
	if n.Type != TypeTeam && n.LegacyTeamID != nil {
		return ErrTeamRefForbidden
	}
	return nil
}
