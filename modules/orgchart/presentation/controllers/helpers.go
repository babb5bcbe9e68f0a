package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/harborpeak/coverdesk/modules/orgchart/domain/node"
	"github.com/harborpeak/coverdesk/modules/orgchart/services"
	"github.com/harborpeak/coverdesk/pkg/composables"
	"github.com/harborpeak/coverdesk/pkg/configuration"
	"github.com/harborpeak/coverdesk/pkg/httpapi"
)

// requireOrg resolves the org scope of the request: middleware-provided
// context first, the X-Org-ID header as a fallback.
func requireOrg(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	requestID := ensureRequestID(r)

	if orgID, err := composables.UseOrgID(r.Context()); err == nil && orgID != uuid.Nil {
		return orgID, requestID, true
	}

	raw := strings.TrimSpace(r.Header.Get(configuration.Use().OrgIDHeader))
	if raw == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_NO_ORG", "org id is required")
		return uuid.Nil, requestID, false
	}
	orgID, err := uuid.Parse(raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_NO_ORG", "org id is invalid")
		return uuid.Nil, requestID, false
	}
	return orgID, requestID, true
}

func ensureRequestID(r *http.Request) string {
	if requestID := composables.UseRequestID(r.Context()); requestID != "" {
		return requestID
	}
	conf := configuration.Use()
	v := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader))
	if v != "" {
		return v
	}
	v = uuid.NewString()
	r.Header.Set(conf.RequestIDHeader, v)
	return v
}

func pathUUID(w http.ResponseWriter, r *http.Request, requestID, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CHART_INVALID_BODY", name+" is not a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}

func nodeTypeFromString(v string) node.Type {
	return node.Type(strings.TrimSpace(strings.ToLower(v)))
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Status >= http.StatusInternalServerError {
			composables.UseLogger(r.Context()).WithError(err).Error("chart request failed")
		}
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	composables.UseLogger(r.Context()).WithError(err).Error("chart request failed")
	writeAPIError(w, http.StatusInternalServerError, requestID, "CHART_INTERNAL", err.Error())
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	_ = httpapi.WriteError(w, status, code, message, meta)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	_ = httpapi.WriteJSON(w, status, payload)
}

type nodeResponseBody struct {
	ID                    string  `json:"id"`
	Type                  string  `json:"type"`
	ParentID              *string `json:"parent_id,omitempty"`
	Name                  string  `json:"name"`
	Description           string  `json:"description,omitempty"`
	Color                 string  `json:"color,omitempty"`
	Icon                  string  `json:"icon,omitempty"`
	SortOrder             int     `json:"sort_order"`
	PortfolioID           *string `json:"portfolio_id,omitempty"`
	LegacyTeamID          *string `json:"legacy_team_id,omitempty"`
	CustomTypeLabel       string  `json:"custom_type_label,omitempty"`
	IsNonInvestment       bool    `json:"is_non_investment"`
	CoverageAdminOverride bool    `json:"coverage_admin_override"`
}

func nodeResponse(n *node.Node) nodeResponseBody {
	return nodeResponseBody{
		ID:                    n.ID.String(),
		Type:                  string(n.Type),
		ParentID:              uuidString(n.ParentID),
		Name:                  n.Name,
		Description:           n.Description,
		Color:                 n.Color,
		Icon:                  n.Icon,
		SortOrder:             n.SortOrder,
		PortfolioID:           uuidString(n.PortfolioID),
		LegacyTeamID:          uuidString(n.LegacyTeamID),
		CustomTypeLabel:       n.CustomTypeLabel,
		IsNonInvestment:       n.IsNonInvestment,
		CoverageAdminOverride: n.CoverageAdminOverride,
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
