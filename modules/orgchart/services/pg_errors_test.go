package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapPgErrorToServiceError_NoRows(t *testing.T) {
	err := mapPgErrorToServiceError(pgx.ErrNoRows)
	requireServiceError(t, err, 404, "CHART_NOT_FOUND")

	wrapped := fmt.Errorf("get node: %w", pgx.ErrNoRows)
	requireServiceError(t, mapPgErrorToServiceError(wrapped), 404, "CHART_NOT_FOUND")
}

func TestMapPgErrorToServiceError_UniqueViolations(t *testing.T) {
	cases := []struct {
		constraint string
		code       string
	}{
		{"org_chart_links_org_node_linked_key", "CHART_LINK_EXISTS"},
		{"org_chart_members_org_node_user_role_focus_key", "CHART_MEMBERSHIP_EXISTS"},
		{"org_chart_nodes_org_legacy_team_key", "CHART_CONFLICT"},
		{"some_other_unique_key", "CHART_CONFLICT"},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: "23505", ConstraintName: tc.constraint}
			err := mapPgErrorToServiceError(fmt.Errorf("insert: %w", pgErr))
			svcErr := requireServiceError(t, err, 409, tc.code)
			require.ErrorIs(t, svcErr, pgErr)
		})
	}
}

func TestMapPgErrorToServiceError_ForeignKeyViolation(t *testing.T) {
	err := mapPgErrorToServiceError(&pgconn.PgError{Code: "23503", ConstraintName: "org_chart_members_node_id_fkey"})
	requireServiceError(t, err, 422, "CHART_PARENT_NOT_FOUND")
}

func TestMapPgErrorToServiceError_CheckViolation(t *testing.T) {
	err := mapPgErrorToServiceError(&pgconn.PgError{Code: "23514", ConstraintName: "org_chart_links_no_self_check"})
	requireServiceError(t, err, 400, "CHART_INVALID_BODY")
}

func TestMapPgErrorToServiceError_UnknownPgCode(t *testing.T) {
	err := mapPgErrorToServiceError(&pgconn.PgError{Code: "40001"})
	svcErr := requireServiceError(t, err, 500, "CHART_INTERNAL")
	require.Contains(t, svcErr.Message, "40001")
}

func TestMapPgErrorToServiceError_PassThrough(t *testing.T) {
	require.NoError(t, mapPgErrorToServiceError(nil))

	plain := errors.New("connection reset")
	require.Same(t, plain, mapPgErrorToServiceError(plain))

	// An already-mapped ServiceError is not wrapped again.
	svcErr := newServiceError(409, "CHART_CONFLICT", "conflict", nil)
	require.Same(t, error(svcErr), mapPgErrorToServiceError(svcErr))
}
