package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/events"
	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
	"github.com/harborpeak/coverdesk/pkg/composables"
	"github.com/harborpeak/coverdesk/pkg/eventbus"
)

// ChartRepository is the record store behind the chart service. Every
// method is a single-statement operation; multi-step mutations are composed
// in the service and are deliberately not atomic across steps, so each
// method must leave the store consistent on its own.
type ChartRepository interface {
	ListActiveNodes(ctx context.Context, orgID uuid.UUID) ([]node.Node, error)
	ListLinks(ctx context.Context, orgID uuid.UUID) ([]node.Link, error)
	GetNode(ctx context.Context, orgID, nodeID uuid.UUID) (node.Node, error)
	InsertNode(ctx context.Context, n node.Node) (uuid.UUID, error)
	UpdateNode(ctx context.Context, orgID, nodeID uuid.UUID, patch NodePatch) error
	DeactivateNode(ctx context.Context, orgID, nodeID uuid.UUID) error
	ReparentNodes(ctx context.Context, orgID uuid.UUID, nodeIDs []uuid.UUID, newParentID *uuid.UUID) error
	NextSortOrder(ctx context.Context, orgID uuid.UUID, parentID *uuid.UUID) (int, error)

	InsertLink(ctx context.Context, l node.Link) (uuid.UUID, error)
	DeleteLink(ctx context.Context, orgID, nodeID, linkedUnderID uuid.UUID) error

	ListNodeMembers(ctx context.Context, orgID uuid.UUID, nodeIDs []uuid.UUID) ([]node.Membership, error)
	ListMembershipsForUser(ctx context.Context, orgID, userID uuid.UUID) ([]node.Membership, error)
	GetMembership(ctx context.Context, orgID, membershipID uuid.UUID) (node.Membership, error)
	InsertMembership(ctx context.Context, m node.Membership) (uuid.UUID, error)
	DeleteMembership(ctx context.Context, orgID, membershipID uuid.UUID) error
	UpdateMembershipFlags(ctx context.Context, orgID, membershipID uuid.UUID, patch MembershipFlagsPatch) error

	GetUserFlags(ctx context.Context, orgID, userID uuid.UUID) (node.UserFlags, error)
	GetLegacyTeam(ctx context.Context, orgID, teamID uuid.UUID) (node.LegacyTeam, error)
	FindNodeByLegacyTeam(ctx context.Context, orgID, teamID uuid.UUID) (*node.Node, error)
	SetLegacyTeamNode(ctx context.Context, orgID, teamID, nodeID uuid.UUID) error

	ListCoverageByUsers(ctx context.Context, orgID uuid.UUID, userIDs []uuid.UUID) (map[uuid.UUID][]string, error)
}

// NodePatch updates node metadata. Nil fields are left untouched. Type and
// parent are immutable through this path; structure changes go through the
// dedicated mutations.
type NodePatch struct {
	Name                  *string
	Description           *string
	Color                 *string
	Icon                  *string
	CustomTypeLabel       *string
	IsNonInvestment       *bool
	CoverageAdminOverride *bool
}

type MembershipFlagsPatch struct {
	IsCoverageAdmin      *bool
	CoverageAdminBlocked *bool
}

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

type ChartService struct {
	repo  ChartRepository
	bus   eventbus.EventBus
	cache *chartCache
}

func NewChartService(repo ChartRepository, bus eventbus.EventBus) *ChartService {
	s := &ChartService{repo: repo, bus: bus, cache: newChartCache()}
	if bus != nil {
		bus.Subscribe(s.onChartChanged)
	}
	return s
}

func (s *ChartService) onChartChanged(ev events.ChartEventV1) {
	s.cache.Invalidate(ev.OrgID, ev.ChangeType)
}

func (s *ChartService) publish(orgID uuid.UUID, requestID, changeType, entityType string, entityID uuid.UUID) {
	if s.bus == nil {
		s.cache.Invalidate(orgID, changeType)
		return
	}
	s.bus.Publish(events.ChartEventV1{
		EventID:         uuid.New(),
		EventVersion:    events.EventVersionV1,
		RequestID:       requestID,
		OrgID:           orgID,
		TransactionTime: time.Now().UTC(),
		ChangeType:      changeType,
		EntityType:      entityType,
		EntityID:        entityID,
	})
}

// loadRegistry reads a fresh snapshot from the store, nodes and links in
// one transaction so they agree with each other. Mutations always use this;
// read paths go through snapshot and may hit the cache.
func (s *ChartService) loadRegistry(ctx context.Context, orgID uuid.UUID) (*Registry, error) {
	reg, err := composables.InOrgTxResult(ctx, func(txCtx context.Context) (*Registry, error) {
		nodes, err := s.repo.ListActiveNodes(txCtx, orgID)
		if err != nil {
			return nil, err
		}
		links, err := s.repo.ListLinks(txCtx, orgID)
		if err != nil {
			return nil, err
		}
		return NewRegistry(nodes, links), nil
	})
	if err != nil {
		return nil, mapPgErrorToServiceError(err)
	}
	return reg, nil
}

func (s *ChartService) snapshot(ctx context.Context, orgID uuid.UUID) (*Registry, error) {
	if reg, ok := s.cache.Get(orgID); ok {
		return reg, nil
	}
	reg, err := s.loadRegistry(ctx, orgID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(orgID, reg)
	return reg, nil
}

// GetTree renders the org's chart as a forest of typed nodes with linked
// instances merged in as leaves.
func (s *ChartService) GetTree(ctx context.Context, orgID uuid.UUID) ([]*TreeNode, error) {
	if orgID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "CHART_NO_ORG", "org_id is required", nil)
	}
	reg, err := s.snapshot(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return BuildTree(reg), nil
}

type CreateNodeInput struct {
	Type            node.Type
	Name            string
	Description     string
	Color           string
	Icon            string
	CustomTypeLabel string

	ParentID           *uuid.UUID
	ParentLegacyTeamID *uuid.UUID
	PortfolioID        *uuid.UUID
	LegacyTeamID       *uuid.UUID

	IsNonInvestment       bool
	CoverageAdminOverride bool
}

// CreateNode appends a node under its parent with the next free sort order.
// A parent given as a legacy team id is materialized into a chart node
// first; that materialization is idempotent and concurrent creators race to
// a unique constraint, which surfaces as a retryable conflict.
func (s *ChartService) CreateNode(ctx context.Context, orgID uuid.UUID, requestID string, in CreateNodeInput) (*node.Node, error) {
	if orgID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "CHART_NO_ORG", "org_id is required", nil)
	}
	if in.ParentID != nil && in.ParentLegacyTeamID != nil {
		return nil, newServiceError(http.StatusBadRequest, "CHART_INVALID_BODY", "parent_id and parent_legacy_team_id are mutually exclusive", nil)
	}

	n := node.Node{
		ID:                    uuid.New(),
		OrgID:                 orgID,
		Type:                  in.Type,
		ParentID:              in.ParentID,
		Name:                  strings.TrimSpace(in.Name),
		Description:           in.Description,
		Color:                 in.Color,
		Icon:                  in.Icon,
		CustomTypeLabel:       strings.TrimSpace(in.CustomTypeLabel),
		PortfolioID:           in.PortfolioID,
		LegacyTeamID:          in.LegacyTeamID,
		IsNonInvestment:       in.IsNonInvestment,
		CoverageAdminOverride: in.CoverageAdminOverride,
		IsActive:              true,
	}
	if err := n.ValidateForType(); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "CHART_INVALID_BODY", err.Error(), err)
	}

	if in.ParentLegacyTeamID != nil {
		parentID, err := s.materializeLegacyTeamNode(ctx, orgID, requestID, *in.ParentLegacyTeamID)
		if err != nil {
			return nil, err
		}
		n.ParentID = &parentID
	}

	inserted, err := composables.InOrgTxResult(ctx, func(txCtx context.Context) (node.Node, error) {
		if in.ParentLegacyTeamID == nil && n.ParentID != nil {
			if _, err := s.repo.GetNode(txCtx, orgID, *n.ParentID); err != nil {
				return node.Node{}, err
			}
		}
		order, err := s.repo.NextSortOrder(txCtx, orgID, n.ParentID)
		if err != nil {
			return node.Node{}, err
		}
		n.SortOrder = order

		id, err := s.repo.InsertNode(txCtx, n)
		if err != nil {
			return node.Node{}, err
		}
		n.ID = id
		return n, nil
	})
	if err != nil {
		return nil, mapPgErrorToServiceError(err)
	}
	s.publish(orgID, requestID, "node.created", "node", inserted.ID)
	return &inserted, nil
}

// materializeLegacyTeamNode resolves a legacy team reference to a chart
// node, creating a root-level team node on first use and back-filling the
// legacy record. Safe to retry: an existing node is reused.
func (s *ChartService) materializeLegacyTeamNode(ctx context.Context, orgID uuid.UUID, requestID string, teamID uuid.UUID) (uuid.UUID, error) {
	existing, err := s.repo.FindNodeByLegacyTeam(ctx, orgID, teamID)
	if err != nil {
		return uuid.Nil, mapPgErrorToServiceError(err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	team, err := s.repo.GetLegacyTeam(ctx, orgID, teamID)
	if err != nil {
		if isNoRows(err) {
			return uuid.Nil, newServiceError(http.StatusConflict, "CHART_LEGACY_TEAM_UNRESOLVED", "legacy team does not exist", err)
		}
		return uuid.Nil, mapPgErrorToServiceError(err)
	}

	order, err := s.repo.NextSortOrder(ctx, orgID, nil)
	if err != nil {
		return uuid.Nil, mapPgErrorToServiceError(err)
	}
	materialized := node.Node{
		ID:           uuid.New(),
		OrgID:        orgID,
		Type:         node.TypeTeam,
		Name:         team.Name,
		SortOrder:    order,
		LegacyTeamID: &teamID,
		IsActive:     true,
	}
	id, err := s.repo.InsertNode(ctx, materialized)
	if err != nil {
		// A concurrent materialization wins the unique constraint on the
		// legacy team reference; the caller retries and reuses it.
		return uuid.Nil, mapPgErrorToServiceError(err)
	}
	if err := s.repo.SetLegacyTeamNode(ctx, orgID, teamID, id); err != nil {
		return uuid.Nil, mapPgErrorToServiceError(err)
	}
	s.publish(orgID, requestID, "node.created", "node", id)
	return id, nil
}

// UpdateNode patches node metadata. Structure (type, parent) is immutable
// here. The patch is normalized in place so the stored row and the returned
// entity always agree.
func (s *ChartService) UpdateNode(ctx context.Context, orgID uuid.UUID, requestID string, nodeID uuid.UUID, patch NodePatch) (*node.Node, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}
	if patch.CustomTypeLabel != nil {
		trimmed := strings.TrimSpace(*patch.CustomTypeLabel)
		patch.CustomTypeLabel = &trimmed
	}

	updated, err := composables.InOrgTxResult(ctx, func(txCtx context.Context) (node.Node, error) {
		current, err := s.repo.GetNode(txCtx, orgID, nodeID)
		if err != nil {
			return node.Node{}, err
		}

		next := current
		if patch.Name != nil {
			next.Name = *patch.Name
		}
		if patch.Description != nil {
			next.Description = *patch.Description
		}
		if patch.Color != nil {
			next.Color = *patch.Color
		}
		if patch.Icon != nil {
			next.Icon = *patch.Icon
		}
		if patch.CustomTypeLabel != nil {
			next.CustomTypeLabel = *patch.CustomTypeLabel
		}
		if patch.IsNonInvestment != nil {
			next.IsNonInvestment = *patch.IsNonInvestment
		}
		if patch.CoverageAdminOverride != nil {
			next.CoverageAdminOverride = *patch.CoverageAdminOverride
		}
		if err := next.ValidateForType(); err != nil {
			return node.Node{}, newServiceError(http.StatusBadRequest, "CHART_INVALID_BODY", err.Error(), err)
		}

		if err := s.repo.UpdateNode(txCtx, orgID, nodeID, patch); err != nil {
			return node.Node{}, err
		}
		return next, nil
	})
	if err != nil {
		return nil, mapPgErrorToServiceError(err)
	}
	s.publish(orgID, requestID, "node.updated", "node", nodeID)
	return &updated, nil
}

type InsertBetweenInput struct {
	CreateNodeInput
	ChildIDs []uuid.UUID
}

// InsertBetween creates a node under the given parent and re-parents the
// named children beneath it. The two steps are not atomic: if re-parenting
// fails the new node stays behind, the failure is counted and the caller
// can retry with the children pointed at the surviving node id.
func (s *ChartService) InsertBetween(ctx context.Context, orgID uuid.UUID, requestID string, in InsertBetweenInput) (*node.Node, error) {
	if orgID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "CHART_NO_ORG", "org_id is required", nil)
	}
	if len(in.ChildIDs) == 0 {
		return nil, newServiceError(http.StatusBadRequest, "CHART_INVALID_BODY", "child_ids is required", nil)
	}
	if in.ParentLegacyTeamID != nil {
		return nil, newServiceError(http.StatusBadRequest, "CHART_INVALID_BODY", "insert-between does not accept a legacy team parent", nil)
	}

	reg, err := s.loadRegistry(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, childID := range in.ChildIDs {
		child, ok := reg.Node(childID)
		if !ok {
			return nil, newServiceError(http.StatusNotFound, "CHART_NOT_FOUND", fmt.Sprintf("child %s not found", childID), nil)
		}
		if !sameParent(child.ParentID, in.ParentID) {
			return nil, newServiceError(http.StatusConflict, "CHART_CONFLICT", fmt.Sprintf("child %s is not under the given parent", childID), nil)
		}
	}

	created, err := s.CreateNode(ctx, orgID, requestID, in.CreateNodeInput)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReparentNodes(ctx, orgID, in.ChildIDs, &created.ID); err != nil {
		recordPartialFailure("insert_between")
		return created, newServiceError(http.StatusInternalServerError, "CHART_PARTIAL_REPARENT",
			fmt.Sprintf("node %s was created but re-parenting its children failed", created.ID), err)
	}
	s.publish(orgID, requestID, "node.reparented", "node", created.ID)
	return created, nil
}

// MoveNode re-parents a single node, keeping its sort order. A move that
// would make the node its own descendant is rejected against the current
// snapshot before anything is written.
func (s *ChartService) MoveNode(ctx context.Context, orgID uuid.UUID, requestID string, nodeID uuid.UUID, newParentID *uuid.UUID) (*node.Node, error) {
	if orgID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "CHART_NO_ORG", "org_id is required", nil)
	}
	reg, err := s.loadRegistry(ctx, orgID)
	if err != nil {
		return nil, err
	}
	target, ok := reg.Node(nodeID)
	if !ok {
		return nil, newServiceError(http.StatusNotFound, "CHART_NOT_FOUND", "node not found", nil)
	}
	if sameParent(target.ParentID, newParentID) {
		return &target, nil
	}
	if newParentID != nil {
		if _, ok := reg.Node(*newParentID); !ok {
			return nil, newServiceError(http.StatusUnprocessableEntity, "CHART_PARENT_NOT_FOUND", "new parent not found", nil)
		}
		if reg.WouldCreateCycle(nodeID, *newParentID) {
			return nil, newServiceError(http.StatusConflict, "CHART_CYCLE", "move would make the node its own descendant", nil)
		}
	}

	if err := s.repo.ReparentNodes(ctx, orgID, []uuid.UUID{nodeID}, newParentID); err != nil {
		return nil, mapPgErrorToServiceError(err)
	}
	target.ParentID = newParentID
	s.publish(orgID, requestID, "node.reparented", "node", nodeID)
	return &target, nil
}

// DeleteNode deactivates a node after promoting its primary children to the
// node's own parent. Links and memberships of the node are left in place
// and filtered out by the snapshot loader. The promote and deactivate steps
// are not atomic; a failure between them is counted and reported so the
// delete can be retried.
func (s *ChartService) DeleteNode(ctx context.Context, orgID uuid.UUID, requestID string, nodeID uuid.UUID) error {
	target, err := s.repo.GetNode(ctx, orgID, nodeID)
	if err != nil {
		return mapPgErrorToServiceError(err)
	}

	reg, err := s.loadRegistry(ctx, orgID)
	if err != nil {
		return err
	}
	children := reg.Children(nodeID)
	if len(children) > 0 {
		childIDs := make([]uuid.UUID, 0, len(children))
		for _, c := range children {
			childIDs = append(childIDs, c.ID)
		}
		if err := s.repo.ReparentNodes(ctx, orgID, childIDs, target.ParentID); err != nil {
			return mapPgErrorToServiceError(err)
		}
	}

	if err := s.repo.DeactivateNode(ctx, orgID, nodeID); err != nil {
		recordPartialFailure("delete_node")
		return newServiceError(http.StatusInternalServerError, "CHART_PARTIAL_DEACTIVATE",
			fmt.Sprintf("children of %s were promoted but deactivation failed", nodeID), err)
	}
	s.publish(orgID, requestID, "node.deleted", "node", nodeID)
	return nil
}

// AddLink places nodeID as an additional leaf under linkedUnderID. A link
// that mirrors the primary placement or points a node at itself is
// rejected.
func (s *ChartService) AddLink(ctx context.Context, orgID uuid.UUID, requestID string, nodeID, linkedUnderID uuid.UUID) (*node.Link, error) {
	if nodeID == linkedUnderID {
		return nil, newServiceError(http.StatusBadRequest, "CHART_INVALID_BODY", "cannot link a node under itself", nil)
	}
	reg, err := s.loadRegistry(ctx, orgID)
	if err != nil {
		return nil, err
	}
	target, ok := reg.Node(nodeID)
	if !ok {
		return nil, newServiceError(http.StatusNotFound, "CHART_NOT_FOUND", "node not found", nil)
	}
	if _, ok := reg.Node(linkedUnderID); !ok {
		return nil, newServiceError(http.StatusNotFound, "CHART_NOT_FOUND", "link target not found", nil)
	}
	if target.ParentID != nil && *target.ParentID == linkedUnderID {
		return nil, newServiceError(http.StatusConflict, "CHART_CONFLICT", "link duplicates the primary placement", nil)
	}
	for _, linked := range reg.LinkedChildren(linkedUnderID) {
		if linked.ID == nodeID {
			return nil, newServiceError(http.StatusConflict, "CHART_LINK_EXISTS", "link already exists", nil)
		}
	}

	l := node.Link{ID: uuid.New(), OrgID: orgID, NodeID: nodeID, LinkedUnderID: linkedUnderID}
	id, err := s.repo.InsertLink(ctx, l)
	if err != nil {
		return nil, mapPgErrorToServiceError(err)
	}
	l.ID = id
	s.publish(orgID, requestID, "link.created", "link", id)
	return &l, nil
}

func (s *ChartService) RemoveLink(ctx context.Context, orgID uuid.UUID, requestID string, nodeID, linkedUnderID uuid.UUID) error {
	if err := s.repo.DeleteLink(ctx, orgID, nodeID, linkedUnderID); err != nil {
		return mapPgErrorToServiceError(err)
	}
	s.publish(orgID, requestID, "link.deleted", "link", nodeID)
	return nil
}

type AddMemberInput struct {
	NodeID               uuid.UUID
	UserID               uuid.UUID
	Role                 string
	Focus                string
	IsCoverageAdmin      bool
	CoverageAdminBlocked bool
}

// AddMember attaches a user to a node. The same user may be added again
// with a different role/focus pair; the exact tuple is unique.
func (s *ChartService) AddMember(ctx context.Context, orgID uuid.UUID, requestID string, in AddMemberInput) (*node.Membership, error) {
	if in.NodeID == uuid.Nil || in.UserID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "CHART_INVALID_BODY", "node_id and user_id are required", nil)
	}
	if _, err := s.repo.GetNode(ctx, orgID, in.NodeID); err != nil {
		return nil, mapPgErrorToServiceError(err)
	}

	m := node.Membership{
		ID:                   uuid.New(),
		OrgID:                orgID,
		NodeID:               in.NodeID,
		UserID:               in.UserID,
		Role:                 strings.TrimSpace(in.Role),
		Focus:                strings.TrimSpace(in.Focus),
		IsCoverageAdmin:      in.IsCoverageAdmin,
		CoverageAdminBlocked: in.CoverageAdminBlocked,
	}
	id, err := s.repo.InsertMembership(ctx, m)
	if err != nil {
		return nil, mapPgErrorToServiceError(err)
	}
	m.ID = id
	s.publish(orgID, requestID, "member.added", "membership", id)
	return &m, nil
}

func (s *ChartService) RemoveMember(ctx context.Context, orgID uuid.UUID, requestID string, membershipID uuid.UUID) error {
	if _, err := s.repo.GetMembership(ctx, orgID, membershipID); err != nil {
		return mapPgErrorToServiceError(err)
	}
	if err := s.repo.DeleteMembership(ctx, orgID, membershipID); err != nil {
		return mapPgErrorToServiceError(err)
	}
	s.publish(orgID, requestID, "member.removed", "membership", membershipID)
	return nil
}

func (s *ChartService) SetMemberFlags(ctx context.Context, orgID uuid.UUID, requestID string, membershipID uuid.UUID, patch MembershipFlagsPatch) (*node.Membership, error) {
	current, err := s.repo.GetMembership(ctx, orgID, membershipID)
	if err != nil {
		return nil, mapPgErrorToServiceError(err)
	}
	if patch.IsCoverageAdmin != nil {
		current.IsCoverageAdmin = *patch.IsCoverageAdmin
	}
	if patch.CoverageAdminBlocked != nil {
		current.CoverageAdminBlocked = *patch.CoverageAdminBlocked
	}
	if err := s.repo.UpdateMembershipFlags(ctx, orgID, membershipID, patch); err != nil {
		return nil, mapPgErrorToServiceError(err)
	}
	s.publish(orgID, requestID, "member.flags_updated", "membership", membershipID)
	return &current, nil
}

// ResolveCoverageAdminForUser answers the permission question for one user
// on one node against the current snapshot.
func (s *ChartService) ResolveCoverageAdminForUser(ctx context.Context, orgID, userID, nodeID uuid.UUID) (Decision, error) {
	reg, err := s.snapshot(ctx, orgID)
	if err != nil {
		return Decision{}, err
	}
	if _, ok := reg.Node(nodeID); !ok {
		return Decision{}, newServiceError(http.StatusNotFound, "CHART_NOT_FOUND", "node not found", nil)
	}
	flags, err := s.repo.GetUserFlags(ctx, orgID, userID)
	if err != nil {
		return Decision{}, mapPgErrorToServiceError(err)
	}
	memberships, err := s.repo.ListMembershipsForUser(ctx, orgID, userID)
	if err != nil {
		return Decision{}, mapPgErrorToServiceError(err)
	}
	return ResolveCoverageAdmin(reg, flags, memberships, nodeID), nil
}

// TeamCoverage aggregates asset coverage per investment team. A failed
// coverage lookup degrades to zero counts instead of failing the call; the
// degradation is counted.
func (s *ChartService) TeamCoverage(ctx context.Context, orgID uuid.UUID) ([]TeamCoverage, error) {
	reg, err := s.snapshot(ctx, orgID)
	if err != nil {
		return nil, err
	}

	portfolioIDs := reg.PortfolioIDs()
	var members []node.Membership
	if len(portfolioIDs) > 0 {
		members, err = s.repo.ListNodeMembers(ctx, orgID, portfolioIDs)
		if err != nil {
			return nil, mapPgErrorToServiceError(err)
		}
	}

	membersByNode := make(map[uuid.UUID][]node.Membership, len(portfolioIDs))
	userSet := make(map[uuid.UUID]struct{})
	for _, m := range members {
		membersByNode[m.NodeID] = append(membersByNode[m.NodeID], m)
		userSet[m.UserID] = struct{}{}
	}

	assetsByUser := map[uuid.UUID][]string{}
	if len(userSet) > 0 {
		userIDs := make([]uuid.UUID, 0, len(userSet))
		for id := range userSet {
			userIDs = append(userIDs, id)
		}
		assetsByUser, err = s.repo.ListCoverageByUsers(ctx, orgID, userIDs)
		if err != nil {
			recordCoverageDegraded()
			assetsByUser = map[uuid.UUID][]string{}
		}
	}

	return AggregateTeamCoverage(reg, membersByNode, assetsByUser), nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
