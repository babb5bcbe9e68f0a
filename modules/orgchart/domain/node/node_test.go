package node

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestValidateForType(t *testing.T) {
	ref := uuid.New()

	cases := []struct {
		name string
		node Node
		err  error
	}{
		{"valid team", Node{Type: TypeTeam, Name: "growth"}, nil},
		{"valid custom", Node{Type: TypeCustom, Name: "pod", CustomTypeLabel: "pod"}, nil},
		{"valid portfolio with ref", Node{Type: TypePortfolio, Name: "p", PortfolioID: &ref}, nil},
		{"blank name", Node{Type: TypeTeam, Name: "   "}, ErrBlankName},
		{"unknown type", Node{Type: "squad", Name: "x"}, ErrUnknownType},
		{"custom without label", Node{Type: TypeCustom, Name: "x"}, ErrCustomLabelRequired},
		{"label on non-custom", Node{Type: TypeTeam, Name: "x", CustomTypeLabel: "pod"}, ErrCustomLabelForbidden},
		{"portfolio ref on team", Node{Type: TypeTeam, Name: "x", PortfolioID: &ref}, ErrPortfolioRefForbidden},
		{"team ref on division", Node{Type: TypeDivision, Name: "x", LegacyTeamID: &ref}, ErrTeamRefForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.node.ValidateForType()
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
		})
	}
}
