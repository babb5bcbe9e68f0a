package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
	"github.com/harborpeak/coverdesk/modules/orgchart/services"
	"github.com/harborpeak/coverdesk/pkg/composables"
)

type ChartRepository struct{}

func NewChartRepository() *ChartRepository {
	return &ChartRepository{}
}

const nodeColumns = `
	id,
	org_id,
	type,
	parent_id,
	name,
	description,
	color,
	icon,
	sort_order,
	portfolio_id,
	legacy_team_id,
	custom_type_label,
	is_non_investment,
	coverage_admin_override,
	is_active`

func (r *ChartRepository) ListActiveNodes(ctx context.Context, orgID uuid.UUID) ([]node.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT`+nodeColumns+`
FROM org_chart_nodes
WHERE org_id=$1 AND is_active
ORDER BY sort_order ASC, name ASC
`, pgUUID(orgID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]node.Node, 0, 64)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ChartRepository) ListLinks(ctx context.Context, orgID uuid.UUID) ([]node.Link, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT id, org_id, node_id, linked_under_id
FROM org_chart_links
WHERE org_id=$1
`, pgUUID(orgID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]node.Link, 0, 16)
	for rows.Next() {
		var l node.Link
		if err := rows.Scan(&l.ID, &l.OrgID, &l.NodeID, &l.LinkedUnderID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ChartRepository) GetNode(ctx context.Context, orgID, nodeID uuid.UUID) (node.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return node.Node{}, err
	}

	row := tx.QueryRow(ctx, `
SELECT`+nodeColumns+`
FROM org_chart_nodes
WHERE org_id=$1 AND id=$2 AND is_active
`, pgUUID(orgID), pgUUID(nodeID))
	return scanNode(row)
}

func (r *ChartRepository) InsertNode(ctx context.Context, n node.Node) (uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `
INSERT INTO org_chart_nodes (
	id,
	org_id,
	type,
	parent_id,
	name,
	description,
	color,
	icon,
	sort_order,
	portfolio_id,
	legacy_team_id,
	custom_type_label,
	is_non_investment,
	coverage_admin_override,
	is_active
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id
`,
		pgUUID(n.ID),
		pgUUID(n.OrgID),
		string(n.Type),
		pgNullableUUID(n.ParentID),
		n.Name,
		n.Description,
		n.Color,
		n.Icon,
		n.SortOrder,
		pgNullableUUID(n.PortfolioID),
		pgNullableUUID(n.LegacyTeamID),
		n.CustomTypeLabel,
		n.IsNonInvestment,
		n.CoverageAdminOverride,
		n.IsActive,
	).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *ChartRepository) UpdateNode(ctx context.Context, orgID, nodeID uuid.UUID, patch services.NodePatch) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE org_chart_nodes
SET
	name = COALESCE($3, name),
	description = COALESCE($4, description),
	color = COALESCE($5, color),
	icon = COALESCE($6, icon),
	custom_type_label = COALESCE($7, custom_type_label),
	is_non_investment = COALESCE($8, is_non_investment),
	coverage_admin_override = COALESCE($9, coverage_admin_override)
WHERE org_id=$1 AND id=$2 AND is_active
`,
		pgUUID(orgID),
		pgUUID(nodeID),
		pgNullableText(patch.Name),
		pgNullableText(patch.Description),
		pgNullableText(patch.Color),
		pgNullableText(patch.Icon),
		pgNullableText(patch.CustomTypeLabel),
		pgNullableBool(patch.IsNonInvestment),
		pgNullableBool(patch.CoverageAdminOverride),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChartRepository) DeactivateNode(ctx context.Context, orgID, nodeID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE org_chart_nodes
SET is_active = false
WHERE org_id=$1 AND id=$2 AND is_active
`, pgUUID(orgID), pgUUID(nodeID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChartRepository) ReparentNodes(ctx context.Context, orgID uuid.UUID, nodeIDs []uuid.UUID, newParentID *uuid.UUID) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
UPDATE org_chart_nodes
SET parent_id = $3
WHERE org_id=$1 AND id = ANY($2) AND is_active
`, pgUUID(orgID), pgUUIDArray(nodeIDs), pgNullableUUID(newParentID))
	return err
}

func (r *ChartRepository) NextSortOrder(ctx context.Context, orgID uuid.UUID, parentID *uuid.UUID) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var next int
	if err := tx.QueryRow(ctx, `
SELECT COALESCE(MAX(sort_order), -1) + 1
FROM org_chart_nodes
WHERE org_id=$1 AND parent_id IS NOT DISTINCT FROM $2 AND is_active
`, pgUUID(orgID), pgNullableUUID(parentID)).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *ChartRepository) InsertLink(ctx context.Context, l node.Link) (uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `
INSERT INTO org_chart_links (id, org_id, node_id, linked_under_id)
VALUES ($1,$2,$3,$4)
RETURNING id
`, pgUUID(l.ID), pgUUID(l.OrgID), pgUUID(l.NodeID), pgUUID(l.LinkedUnderID)).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *ChartRepository) DeleteLink(ctx context.Context, orgID, nodeID, linkedUnderID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
DELETE FROM org_chart_links
WHERE org_id=$1 AND node_id=$2 AND linked_under_id=$3
`, pgUUID(orgID), pgUUID(nodeID), pgUUID(linkedUnderID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChartRepository) ListNodeMembers(ctx context.Context, orgID uuid.UUID, nodeIDs []uuid.UUID) ([]node.Membership, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT id, org_id, node_id, user_id, role, focus, is_coverage_admin, coverage_admin_blocked
FROM org_chart_members
WHERE org_id=$1 AND node_id = ANY($2)
`, pgUUID(orgID), pgUUIDArray(nodeIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemberships(rows)
}

func (r *ChartRepository) ListMembershipsForUser(ctx context.Context, orgID, userID uuid.UUID) ([]node.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT id, org_id, node_id, user_id, role, focus, is_coverage_admin, coverage_admin_blocked
FROM org_chart_members
WHERE org_id=$1 AND user_id=$2
`, pgUUID(orgID), pgUUID(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemberships(rows)
}

func (r *ChartRepository) GetMembership(ctx context.Context, orgID, membershipID uuid.UUID) (node.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return node.Membership{}, err
	}

	var m node.Membership
	if err := tx.QueryRow(ctx, `
SELECT id, org_id, node_id, user_id, role, focus, is_coverage_admin, coverage_admin_blocked
FROM org_chart_members
WHERE org_id=$1 AND id=$2
`, pgUUID(orgID), pgUUID(membershipID)).Scan(
		&m.ID, &m.OrgID, &m.NodeID, &m.UserID, &m.Role, &m.Focus, &m.IsCoverageAdmin, &m.CoverageAdminBlocked,
	); err != nil {
		return node.Membership{}, err
	}
	return m, nil
}

func (r *ChartRepository) InsertMembership(ctx context.Context, m node.Membership) (uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `
INSERT INTO org_chart_members (id, org_id, node_id, user_id, role, focus, is_coverage_admin, coverage_admin_blocked)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id
`,
		pgUUID(m.ID),
		pgUUID(m.OrgID),
		pgUUID(m.NodeID),
		pgUUID(m.UserID),
		m.Role,
		m.Focus,
		m.IsCoverageAdmin,
		m.CoverageAdminBlocked,
	).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *ChartRepository) DeleteMembership(ctx context.Context, orgID, membershipID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
DELETE FROM org_chart_members
WHERE org_id=$1 AND id=$2
`, pgUUID(orgID), pgUUID(membershipID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChartRepository) UpdateMembershipFlags(ctx context.Context, orgID, membershipID uuid.UUID, patch services.MembershipFlagsPatch) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE org_chart_members
SET
	is_coverage_admin = COALESCE($3, is_coverage_admin),
	coverage_admin_blocked = COALESCE($4, coverage_admin_blocked)
WHERE org_id=$1 AND id=$2
`,
		pgUUID(orgID),
		pgUUID(membershipID),
		pgNullableBool(patch.IsCoverageAdmin),
		pgNullableBool(patch.CoverageAdminBlocked),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChartRepository) GetUserFlags(ctx context.Context, orgID, userID uuid.UUID) (node.UserFlags, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return node.UserFlags{}, err
	}

	flags := node.UserFlags{UserID: userID}
	if err := tx.QueryRow(ctx, `
SELECT is_org_admin, coverage_admin
FROM chart_users
WHERE org_id=$1 AND id=$2
`, pgUUID(orgID), pgUUID(userID)).Scan(&flags.IsOrgAdmin, &flags.CoverageAdmin); err != nil {
		return node.UserFlags{}, err
	}
	return flags, nil
}

func (r *ChartRepository) GetLegacyTeam(ctx context.Context, orgID, teamID uuid.UUID) (node.LegacyTeam, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return node.LegacyTeam{}, err
	}

	var t node.LegacyTeam
	var nodeID pgtype.UUID
	if err := tx.QueryRow(ctx, `
SELECT id, org_id, name, node_id
FROM legacy_teams
WHERE org_id=$1 AND id=$2
`, pgUUID(orgID), pgUUID(teamID)).Scan(&t.ID, &t.OrgID, &t.Name, &nodeID); err != nil {
		return node.LegacyTeam{}, err
	}
	t.NodeID = nullableUUID(nodeID)
	return t, nil
}

func (r *ChartRepository) FindNodeByLegacyTeam(ctx context.Context, orgID, teamID uuid.UUID) (*node.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
SELECT`+nodeColumns+`
FROM org_chart_nodes
WHERE org_id=$1 AND legacy_team_id=$2 AND is_active
`, pgUUID(orgID), pgUUID(teamID))
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *ChartRepository) SetLegacyTeamNode(ctx context.Context, orgID, teamID, nodeID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE legacy_teams
SET node_id = $3
WHERE org_id=$1 AND id=$2
`, pgUUID(orgID), pgUUID(teamID), pgUUID(nodeID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChartRepository) ListCoverageByUsers(ctx context.Context, orgID uuid.UUID, userIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	if len(userIDs) == 0 {
		return map[uuid.UUID][]string{}, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT user_id, asset
FROM coverage_records
WHERE org_id=$1 AND user_id = ANY($2)
`, pgUUID(orgID), pgUUIDArray(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]string, len(userIDs))
	for rows.Next() {
		var userID uuid.UUID
		var asset string
		if err := rows.Scan(&userID, &asset); err != nil {
			return nil, err
		}
		out[userID] = append(out[userID], asset)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanMemberships(rows pgx.Rows) ([]node.Membership, error) {
	out := make([]node.Membership, 0, 16)
	for rows.Next() {
		var m node.Membership
		if err := rows.Scan(
			&m.ID, &m.OrgID, &m.NodeID, &m.UserID, &m.Role, &m.Focus, &m.IsCoverageAdmin, &m.CoverageAdminBlocked,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanNode(row pgx.Row) (node.Node, error) {
	var n node.Node
	var nodeType string
	var parentID, portfolioID, legacyTeamID pgtype.UUID
	if err := row.Scan(
		&n.ID,
		&n.OrgID,
		&nodeType,
		&parentID,
		&n.Name,
		&n.Description,
		&n.Color,
		&n.Icon,
		&n.SortOrder,
		&portfolioID,
		&legacyTeamID,
		&n.CustomTypeLabel,
		&n.IsNonInvestment,
		&n.CoverageAdminOverride,
		&n.IsActive,
	); err != nil {
		return node.Node{}, err
	}
	n.Type = node.Type(nodeType)
	n.ParentID = nullableUUID(parentID)
	n.PortfolioID = nullableUUID(portfolioID)
	n.LegacyTeamID = nullableUUID(legacyTeamID)
	return n, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDArray(ids []uuid.UUID) pgtype.FlatArray[uuid.UUID] {
	return pgtype.FlatArray[uuid.UUID](ids)
}

func pgNullableUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil || *id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func pgNullableText(v *string) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *v, Valid: true}
}

func pgNullableBool(v *bool) pgtype.Bool {
	if v == nil {
		return pgtype.Bool{}
	}
	return pgtype.Bool{Bool: *v, Valid: true}
}

func nullableUUID(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}
