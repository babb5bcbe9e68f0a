package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func mapPgErrorToServiceError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, "CHART_NOT_FOUND", "not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		recordWriteConflict("unique")
		switch pgErr.ConstraintName {
		case "org_chart_links_org_node_linked_key":
			return newServiceError(http.StatusConflict, "CHART_LINK_EXISTS", "link already exists", err)
		case "org_chart_members_org_node_user_role_focus_key":
			return newServiceError(http.StatusConflict, "CHART_MEMBERSHIP_EXISTS", "membership already exists", err)
		case "org_chart_nodes_org_legacy_team_key":
			return newServiceError(http.StatusConflict, "CHART_CONFLICT", "legacy team already materialized", err)
		default:
			return newServiceError(http.StatusConflict, "CHART_CONFLICT", "unique constraint violated", err)
		}
	case "23503": // foreign_key_violation
		recordWriteConflict("foreign_key")
		return newServiceError(http.StatusUnprocessableEntity, "CHART_PARENT_NOT_FOUND", "referenced row not found", err)
	case "23514": // check_violation
		recordWriteConflict("check")
		return newServiceError(http.StatusBadRequest, "CHART_INVALID_BODY", "constraint check failed", err)
	default:
		return newServiceError(http.StatusInternalServerError, "CHART_INTERNAL", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
