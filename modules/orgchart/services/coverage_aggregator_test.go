package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
)

func typedNode(id uuid.UUID, parentID *uuid.UUID, nodeType node.Type, name string) node.Node {
	n := activeNode(id, parentID, name, 0)
	n.Type = nodeType
	return n
}

func member(nodeID, userID uuid.UUID) node.Membership {
	return node.Membership{ID: uuid.New(), NodeID: nodeID, UserID: userID}
}

func TestAggregateTeamCoverage_UnionsAssetsAcrossPortfolios(t *testing.T) {
	teamID := uuid.New()
	p1ID := uuid.New()
	p2ID := uuid.New()
	u1 := uuid.New()
	u2 := uuid.New()

	reg := NewRegistry([]node.Node{
		typedNode(teamID, nil, node.TypeTeam, "growth"),
		typedNode(p1ID, &teamID, node.TypePortfolio, "p1"),
		typedNode(p2ID, &teamID, node.TypePortfolio, "p2"),
	}, nil)

	membersByNode := map[uuid.UUID][]node.Membership{
		p1ID: {member(p1ID, u1)},
		p2ID: {member(p2ID, u1), member(p2ID, u2)},
	}
	assetsByUser := map[uuid.UUID][]string{
		u1: {"AAPL", "MSFT"},
		u2: {"MSFT", "NVDA"},
	}

	out := AggregateTeamCoverage(reg, membersByNode, assetsByUser)
	require.Len(t, out, 1)
	require.Equal(t, teamID, out[0].TeamID)
	require.Equal(t, 3, out[0].AssetCount)
	require.Equal(t, 2, out[0].AnalystCount)
}

func TestAggregateTeamCoverage_MemberWithoutAssetsNotCounted(t *testing.T) {
	teamID := uuid.New()
	pID := uuid.New()
	covered := uuid.New()
	idle := uuid.New()

	reg := NewRegistry([]node.Node{
		typedNode(teamID, nil, node.TypeTeam, "value"),
		typedNode(pID, &teamID, node.TypePortfolio, "p"),
	}, nil)

	out := AggregateTeamCoverage(reg,
		map[uuid.UUID][]node.Membership{pID: {member(pID, covered), member(pID, idle)}},
		map[uuid.UUID][]string{covered: {"TSLA"}},
	)
	require.Len(t, out, 1)
	require.Equal(t, 1, out[0].AssetCount)
	require.Equal(t, 1, out[0].AnalystCount)
}

func TestAggregateTeamCoverage_NonInvestmentTeamExcluded(t *testing.T) {
	teamID := uuid.New()
	opsID := uuid.New()
	pID := uuid.New()

	ops := typedNode(opsID, nil, node.TypeTeam, "ops")
	ops.IsNonInvestment = true

	reg := NewRegistry([]node.Node{
		typedNode(teamID, nil, node.TypeTeam, "alpha"),
		ops,
		typedNode(pID, &opsID, node.TypePortfolio, "p"),
	}, nil)

	out := AggregateTeamCoverage(reg, nil, nil)
	require.Len(t, out, 1)
	require.Equal(t, teamID, out[0].TeamID)
}

func TestAggregateTeamCoverage_LinkedPortfolioCounts(t *testing.T) {
	teamID := uuid.New()
	otherID := uuid.New()
	pID := uuid.New()
	userID := uuid.New()

	nodes := []node.Node{
		typedNode(teamID, nil, node.TypeTeam, "team"),
		typedNode(otherID, nil, node.TypeDivision, "division"),
		typedNode(pID, &otherID, node.TypePortfolio, "shared"),
	}
	links := []node.Link{{ID: uuid.New(), NodeID: pID, LinkedUnderID: teamID}}

	out := AggregateTeamCoverage(NewRegistry(nodes, links),
		map[uuid.UUID][]node.Membership{pID: {member(pID, userID)}},
		map[uuid.UUID][]string{userID: {"AMZN"}},
	)
	require.Len(t, out, 1)
	require.Equal(t, 1, out[0].AssetCount)
	require.Equal(t, 1, out[0].AnalystCount)
}

func TestAggregateTeamCoverage_EmptyChart(t *testing.T) {
	out := AggregateTeamCoverage(NewRegistry(nil, nil), nil, nil)
	require.Empty(t, out)
}

func TestAggregateTeamCoverage_TeamsSortedByName(t *testing.T) {
	bID := uuid.New()
	aID := uuid.New()

	reg := NewRegistry([]node.Node{
		typedNode(bID, nil, node.TypeTeam, "zulu"),
		typedNode(aID, nil, node.TypeTeam, "alpha"),
	}, nil)

	out := AggregateTeamCoverage(reg, nil, nil)
	require.Len(t, out, 2)
	require.Equal(t, "alpha", out[0].TeamName)
	require.Equal(t, "zulu", out[1].TeamName)
}
