package httpapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"portalcore/internal/query"
)

func TestQueryRequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.login(t, "viewer@acme.test") // no assistant.query

	rec := env.do(t, http.MethodPost, "/v1/query", map[string]any{
		"templateId": "orders_recent",
		"parameters": map[string]any{"days": 7},
	}, access)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "assistant.query", decodeBody(t, rec)["permission"])
	require.Empty(t, env.runner.lastTemplateID, "runner must not be reached")
}

func TestQueryValidationFailureIs422(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.login(t, "manager@acme.test")
	env.runner.err = &query.ValidationError{Reason: query.ReasonInvalidParam, Parameter: "days"}

	rec := env.do(t, http.MethodPost, "/v1/query", map[string]any{
		"templateId": "orders_recent",
		"parameters": map[string]any{"days": 9999},
	}, access)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, query.ReasonInvalidParam, body["reason"])
	require.Equal(t, "days", body["parameter"])
}

func TestQueryExecutes(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.login(t, "manager@acme.test")
	env.runner.result = &query.Result{
		TemplateID: "orders_recent",
		Rows:       []map[string]any{{"order_no": "SO-1001", "status": "open"}},
		Truncated:  false,
	}

	rec := env.do(t, http.MethodPost, "/v1/query", map[string]any{
		"templateId": "orders_recent",
		"parameters": map[string]any{"days": 7, "status": "open"},
	}, access)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "orders_recent", body["templateId"])
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	require.Equal(t, "SO-1001", rows[0].(map[string]any)["order_no"])

	// The runner sees the verified principal, never a caller-chosen tenant.
	require.Equal(t, "orders_recent", env.runner.lastTemplateID)
	require.Equal(t, testTenantID, env.runner.lastPrincipal.TenantID)
	require.Equal(t, float64(7), env.runner.lastParams["days"])
}

func TestQueryMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.login(t, "manager@acme.test")

	rec := env.do(t, http.MethodPost, "/v1/query", nil, access)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTemplatesForRole(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.login(t, "manager@acme.test") // sales_manager

	rec := env.do(t, http.MethodGet, "/v1/query/templates", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	templates := body["templates"].([]any)
	require.NotEmpty(t, templates)

	ids := map[string]bool{}
	for _, raw := range templates {
		tpl := raw.(map[string]any)
		id := tpl["templateId"].(string)
		require.False(t, ids[id], "template %s listed twice", id)
		ids[id] = true

		params := tpl["parameters"].([]any)
		require.NotEmpty(t, params)
		require.Equal(t, "tenantId", params[0].(map[string]any)["name"])
	}
	require.True(t, ids["sales_by_rep"])
	require.True(t, ids["customers_by_pace_deviation"])
}

func TestListTemplatesHidesManagerOnlyFromPortalUsers(t *testing.T) {
	env := newTestEnv(t)
	env.dir.SetPrivileges("33333333-3333-3333-3333-333333333333",
		[]string{"portal_user"}, []string{"assistant.query"})
	access, _ := env.login(t, "viewer@acme.test")

	rec := env.do(t, http.MethodGet, "/v1/query/templates", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, raw := range decodeBody(t, rec)["templates"].([]any) {
		id := raw.(map[string]any)["templateId"].(string)
		require.NotEqual(t, "customers_by_pace_deviation", id)
		require.NotEqual(t, "invoices_overdue", id)
	}
}

func TestListTemplatesRequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.login(t, "viewer@acme.test")

	rec := env.do(t, http.MethodGet, "/v1/query/templates", nil, access)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
