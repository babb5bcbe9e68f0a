package node

import "github.com/harborpeak/coverdesk/pkg/serrors"

var (
	ErrBlankName             = serrors.NewError("NODE_BLANK_NAME", "node name is required", "")
	ErrUnknownType           = serrors.NewError("NODE_UNKNOWN_TYPE", "unknown node type", "")
	ErrCustomLabelRequired   = serrors.NewError("NODE_CUSTOM_LABEL_REQUIRED", "custom nodes require a type label", "")
	ErrCustomLabelForbidden  = serrors.NewError("NODE_CUSTOM_LABEL_FORBIDDEN", "only custom nodes carry a type label", "")
	ErrPortfolioRefForbidden = serrors.NewError("NODE_PORTFOLIO_REF_FORBIDDEN", "only portfolio nodes carry a portfolio reference", "")
	ErrTeamRefForbidden      = serrors.NewError("NODE_TEAM_REF_FORBIDDEN", "only team nodes carry a legacy team reference", "")
)
