package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
)

// TeamCoverage summarizes one investment team: how many distinct assets its
// portfolio analysts cover and how many of those analysts carry at least
// one asset.
type TeamCoverage struct {
	TeamID       uuid.UUID `json:"team_id"`
	TeamName     string    `json:"team_name"`
	AssetCount   int       `json:"asset_count"`
	AnalystCount int       `json:"analyst_count"`
}

// AggregateTeamCoverage rolls coverage up to team level. For every active
// team node that is not flagged non-investment it collects the portfolio
// nodes in the team's primary subtree plus those linked under it, gathers
// their members and unions the assets those users cover. An asset covered
// by two analysts of the same team counts once; a user on two portfolios of
// the team counts once. Teams come back sorted by name for stable output.
func AggregateTeamCoverage(
	reg *Registry,
	membersByNode map[uuid.UUID][]node.Membership,
	assetsByUser map[uuid.UUID][]string,
) []TeamCoverage {
	var out []TeamCoverage
	for _, teamID := range reg.teamIDs() {
		team, _ := reg.Node(teamID)
		if team.IsNonInvestment {
			continue
		}

		assets := make(map[string]struct{})
		analysts := make(map[uuid.UUID]struct{})
		for _, pid := range portfoliosOfTeam(reg, teamID) {
			for _, m := range membersByNode[pid] {
				userAssets := assetsByUser[m.UserID]
				if len(userAssets) == 0 {
					continue
				}
				analysts[m.UserID] = struct{}{}
				for _, a := range userAssets {
					assets[a] = struct{}{}
				}
			}
		}
		out = append(out, TeamCoverage{
			TeamID:       team.ID,
			TeamName:     team.Name,
			AssetCount:   len(assets),
			AnalystCount: len(analysts),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TeamName != out[j].TeamName {
			return out[i].TeamName < out[j].TeamName
		}
		return out[i].TeamID.String() < out[j].TeamID.String()
	})
	return out
}

// PortfolioIDs lists every active portfolio node in the snapshot.
func (r *Registry) PortfolioIDs() []uuid.UUID {
	var ids []uuid.UUID
	for id, n := range r.nodes {
		if n.Type == node.TypePortfolio {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (r *Registry) teamIDs() []uuid.UUID {
	var ids []uuid.UUID
	for id, n := range r.nodes {
		if n.Type == node.TypeTeam {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// portfoliosOfTeam resolves the portfolio nodes attributed to a team: any
// portfolio inside the team's primary subtree and any portfolio linked
// under a subtree node. Duplicates collapse.
func portfoliosOfTeam(reg *Registry, teamID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(n node.Node) {
		if n.Type != node.TypePortfolio {
			return
		}
		if _, dup := seen[n.ID]; dup {
			return
		}
		seen[n.ID] = struct{}{}
		ids = append(ids, n.ID)
	}
	for _, id := range reg.SubtreeIDs(teamID) {
		if n, ok := reg.Node(id); ok {
			add(n)
		}
		for _, linked := range reg.LinkedChildren(id) {
			add(linked)
		}
	}
	return ids
}
