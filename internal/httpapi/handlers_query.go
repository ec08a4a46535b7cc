// internal/httpapi/handlers_query.go
package httpapi

import (
	"encoding/json"
	"net/http"

	"portalcore/pkg/authz"
)

// queryPermission gates the assistant query surface as a whole; templates
// then narrow further by role.
const queryPermission = "assistant.query"

// runQuery executes a registered template with the caller's principal.
// The external assistant layer maps free text to templateId + parameters;
// free text never reaches this endpoint.
func (a *App) runQuery(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFrom(r.Context())
	if err := p.RequirePermission(queryPermission); err != nil {
		a.writeError(w, err)
		return
	}
	var body struct {
		TemplateID string         `json:"templateId"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad-request", "Malformed request body", nil)
		return
	}
	res, err := a.runner.Execute(r.Context(), body.TemplateID, body.Parameters, p)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type templateResponse struct {
	TemplateID string          `json:"templateId"`
	MaxRows    int             `json:"maxRows"`
	Parameters []paramResponse `json:"parameters"`
}

type paramResponse struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Enum     []string `json:"enum,omitempty"`
	Min      *int64   `json:"min,omitempty"`
	Max      *int64   `json:"max,omitempty"`
}

// listTemplates reports the catalog visible to the caller's roles, for the
// assistant layer to ground its template selection.
func (a *App) listTemplates(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFrom(r.Context())
	if err := p.RequirePermission(queryPermission); err != nil {
		a.writeError(w, err)
		return
	}
	seen := map[string]bool{}
	out := []templateResponse{}
	for _, role := range p.Roles {
		for _, t := range a.registry.ListForRole(role) {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			tr := templateResponse{TemplateID: t.ID, MaxRows: t.MaxRows}
			for _, spec := range t.Params {
				tr.Parameters = append(tr.Parameters, paramResponse{
					Name: spec.Name, Type: string(spec.Type), Required: spec.Required,
					Enum: spec.Enum, Min: spec.Min, Max: spec.Max,
				})
			}
			out = append(out, tr)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": out})
}
