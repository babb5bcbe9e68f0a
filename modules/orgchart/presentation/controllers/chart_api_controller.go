package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/harborpeak/coverdesk/modules/orgchart/presentation/mappers"
	"github.com/harborpeak/coverdesk/modules/orgchart/services"
	"github.com/harborpeak/coverdesk/pkg/application"
)

type ChartAPIController struct {
	app       application.Application
	chart     *services.ChartService
	apiPrefix string
}

func NewChartAPIController(app application.Application) application.Controller {
	return &ChartAPIController{
		app:       app,
		chart:     app.Service(services.ChartService{}).(*services.ChartService),
		apiPrefix: "/chart/api",
	}
}

func (c *ChartAPIController) Key() string {
	return c.apiPrefix
}

func (c *ChartAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/tree", c.instrumentAPI("get_tree", c.GetTree)).Methods(http.MethodGet)
	api.HandleFunc("/coverage/teams", c.instrumentAPI("team_coverage", c.GetTeamCoverage)).Methods(http.MethodGet)
	api.HandleFunc("/permissions/resolve", c.instrumentAPI("resolve_permission", c.ResolvePermission)).Methods(http.MethodGet)

	api.HandleFunc("/nodes", c.instrumentAPI("create_node", c.CreateNode)).Methods(http.MethodPost)
	api.HandleFunc("/nodes/{id}", c.instrumentAPI("update_node", c.UpdateNode)).Methods(http.MethodPatch)
	api.HandleFunc("/nodes/{id}", c.instrumentAPI("delete_node", c.DeleteNode)).Methods(http.MethodDelete)
	api.HandleFunc("/nodes/{id}:insert-between", c.instrumentAPI("insert_between", c.InsertBetween)).Methods(http.MethodPost)
	api.HandleFunc("/nodes/{id}:move", c.instrumentAPI("move_node", c.MoveNode)).Methods(http.MethodPost)

	api.HandleFunc("/nodes/{id}/members", c.instrumentAPI("add_member", c.AddMember)).Methods(http.MethodPost)
	api.HandleFunc("/members/{id}", c.instrumentAPI("remove_member", c.RemoveMember)).Methods(http.MethodDelete)
	api.HandleFunc("/members/{id}:flags", c.instrumentAPI("set_member_flags", c.SetMemberFlags)).Methods(http.MethodPatch)

	api.HandleFunc("/nodes/{id}/links", c.instrumentAPI("add_link", c.AddLink)).Methods(http.MethodPost)
	api.HandleFunc("/nodes/{id}/links/{linkedUnderId}", c.instrumentAPI("remove_link", c.RemoveLink)).Methods(http.MethodDelete)
}

func (c *ChartAPIController) GetTree(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	forest, err := c.chart.GetTree(r.Context(), orgID)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.ForestToTree(forest))
}

func (c *ChartAPIController) GetTeamCoverage(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	teams, err := c.chart.TeamCoverage(r.Context(), orgID)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}

	type teamCoverageResponse struct {
		Teams []services.TeamCoverage `json:"teams"`
	}
	if teams == nil {
		teams = []services.TeamCoverage{}
	}
	writeJSON(w, http.StatusOK, teamCoverageResponse{Teams: teams})
}

func (c *ChartAPIController) ResolvePermission(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("user_id")))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_QUERY", "user_id is invalid")
		return
	}
	nodeID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("node_id")))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_QUERY", "node_id is invalid")
		return
	}

	decision, err := c.chart.ResolveCoverageAdminForUser(r.Context(), orgID, userID, nodeID)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

type createNodeRequest struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Color           string `json:"color"`
	Icon            string `json:"icon"`
	CustomTypeLabel string `json:"custom_type_label"`

	ParentID           *uuid.UUID `json:"parent_id"`
	ParentLegacyTeamID *uuid.UUID `json:"parent_legacy_team_id"`
	PortfolioID        *uuid.UUID `json:"portfolio_id"`
	LegacyTeamID       *uuid.UUID `json:"legacy_team_id"`

	IsNonInvestment       bool `json:"is_non_investment"`
	CoverageAdminOverride bool `json:"coverage_admin_override"`
}

func (req createNodeRequest) toInput() services.CreateNodeInput {
	return services.CreateNodeInput{
		Type:                  nodeTypeFromString(req.Type),
		Name:                  req.Name,
		Description:           req.Description,
		Color:                 req.Color,
		Icon:                  req.Icon,
		CustomTypeLabel:       req.CustomTypeLabel,
		ParentID:              req.ParentID,
		ParentLegacyTeamID:    req.ParentLegacyTeamID,
		PortfolioID:           req.PortfolioID,
		LegacyTeamID:          req.LegacyTeamID,
		IsNonInvestment:       req.IsNonInvestment,
		CoverageAdminOverride: req.CoverageAdminOverride,
	}
}

func (c *ChartAPIController) CreateNode(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	var req createNodeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_BODY", "invalid json body")
		return
	}

	created, err := c.chart.CreateNode(r.Context(), orgID, requestID, req.toInput())
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, nodeResponse(created))
}

type updateNodeRequest struct {
	Name                  *string `json:"name"`
	Description           *string `json:"description"`
	Color                 *string `json:"color"`
	Icon                  *string `json:"icon"`
	CustomTypeLabel       *string `json:"custom_type_label"`
	IsNonInvestment       *bool   `json:"is_non_investment"`
	CoverageAdminOverride *bool   `json:"coverage_admin_override"`
}

func (c *ChartAPIController) UpdateNode(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	var req updateNodeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_BODY", "invalid json body")
		return
	}

	updated, err := c.chart.UpdateNode(r.Context(), orgID, requestID, nodeID, services.NodePatch{
		Name:                  req.Name,
		Description:           req.Description,
		Color:                 req.Color,
		Icon:                  req.Icon,
		CustomTypeLabel:       req.CustomTypeLabel,
		IsNonInvestment:       req.IsNonInvestment,
		CoverageAdminOverride: req.CoverageAdminOverride,
	})
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeResponse(updated))
}

type insertBetweenRequest struct {
	createNodeRequest
	ChildIDs []uuid.UUID `json:"child_ids"`
}

func (c *ChartAPIController) InsertBetween(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	parentID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	var req insertBetweenRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_BODY", "invalid json body")
		return
	}

	in := services.InsertBetweenInput{
		CreateNodeInput: req.toInput(),
		ChildIDs:        req.ChildIDs,
	}
	in.ParentID = &parentID

	created, err := c.chart.InsertBetween(r.Context(), orgID, requestID, in)
	if err != nil {
		// The created node survives a partial failure; report it so the
		// caller can retry the re-parent step against it.
		var svcErr *services.ServiceError
		if created != nil && errors.As(err, &svcErr) && svcErr.Code == "CHART_PARTIAL_REPARENT" {
			writeJSON(w, svcErr.Status, map[string]any{
				"code":    svcErr.Code,
				"message": svcErr.Message,
				"meta":    map[string]string{"request_id": requestID, "node_id": created.ID.String()},
			})
			return
		}
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, nodeResponse(created))
}

type moveNodeRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

func (c *ChartAPIController) MoveNode(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	var req moveNodeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_BODY", "invalid json body")
		return
	}

	moved, err := c.chart.MoveNode(r.Context(), orgID, requestID, nodeID, req.ParentID)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeResponse(moved))
}

func (c *ChartAPIController) DeleteNode(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	if err := c.chart.DeleteNode(r.Context(), orgID, requestID, nodeID); err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberRequest struct {
	UserID               uuid.UUID `json:"user_id"`
	Role                 string    `json:"role"`
	Focus                string    `json:"focus"`
	IsCoverageAdmin      bool      `json:"is_coverage_admin"`
	CoverageAdminBlocked bool      `json:"coverage_admin_blocked"`
}

func (c *ChartAPIController) AddMember(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	var req addMemberRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_BODY", "invalid json body")
		return
	}

	m, err := c.chart.AddMember(r.Context(), orgID, requestID, services.AddMemberInput{
		NodeID:               nodeID,
		UserID:               req.UserID,
		Role:                 req.Role,
		Focus:                req.Focus,
		IsCoverageAdmin:      req.IsCoverageAdmin,
		CoverageAdminBlocked: req.CoverageAdminBlocked,
	})
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}

	type memberResponse struct {
		ID                   string `json:"id"`
		NodeID               string `json:"node_id"`
		UserID               string `json:"user_id"`
		Role                 string `json:"role"`
		Focus                string `json:"focus"`
		IsCoverageAdmin      bool   `json:"is_coverage_admin"`
		CoverageAdminBlocked bool   `json:"coverage_admin_blocked"`
	}
	writeJSON(w, http.StatusCreated, memberResponse{
		ID:                   m.ID.String(),
		NodeID:               m.NodeID.String(),
		UserID:               m.UserID.String(),
		Role:                 m.Role,
		Focus:                m.Focus,
		IsCoverageAdmin:      m.IsCoverageAdmin,
		CoverageAdminBlocked: m.CoverageAdminBlocked,
	})
}

func (c *ChartAPIController) RemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	membershipID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	if err := c.chart.RemoveMember(r.Context(), orgID, requestID, membershipID); err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type memberFlagsRequest struct {
	IsCoverageAdmin      *bool `json:"is_coverage_admin"`
	CoverageAdminBlocked *bool `json:"coverage_admin_blocked"`
}

func (c *ChartAPIController) SetMemberFlags(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	membershipID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	var req memberFlagsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_BODY", "invalid json body")
		return
	}

	m, err := c.chart.SetMemberFlags(r.Context(), orgID, requestID, membershipID, services.MembershipFlagsPatch{
		IsCoverageAdmin:      req.IsCoverageAdmin,
		CoverageAdminBlocked: req.CoverageAdminBlocked,
	})
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}

	type flagsResponse struct {
		ID                   string `json:"id"`
		IsCoverageAdmin      bool   `json:"is_coverage_admin"`
		CoverageAdminBlocked bool   `json:"coverage_admin_blocked"`
	}
	writeJSON(w, http.StatusOK, flagsResponse{
		ID:                   m.ID.String(),
		IsCoverageAdmin:      m.IsCoverageAdmin,
		CoverageAdminBlocked: m.CoverageAdminBlocked,
	})
}

type addLinkRequest struct {
	LinkedUnderID uuid.UUID `json:"linked_under_id"`
}

func (c *ChartAPIController) AddLink(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}

	var req addLinkRequest
	if err := decodeJSON(r.Body, &req); err != nil || req.LinkedUnderID == uuid.Nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_BODY", "linked_under_id is required")
		return
	}

	l, err := c.chart.AddLink(r.Context(), orgID, requestID, nodeID, req.LinkedUnderID)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}

	type linkResponse struct {
		ID            string `json:"id"`
		NodeID        string `json:"node_id"`
		LinkedUnderID string `json:"linked_under_id"`
	}
	writeJSON(w, http.StatusCreated, linkResponse{
		ID:            l.ID.String(),
		NodeID:        l.NodeID.String(),
		LinkedUnderID: l.LinkedUnderID.String(),
	})
}

func (c *ChartAPIController) RemoveLink(w http.ResponseWriter, r *http.Request) {
	orgID, requestID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(w, r, requestID, "id")
	if !ok {
		return
	}
	linkedUnderID, ok := pathUUID(w, r, requestID, "linkedUnderId")
	if !ok {
		return
	}

	if err := c.chart.RemoveLink(r.Context(), orgID, requestID, nodeID, linkedUnderID); err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
