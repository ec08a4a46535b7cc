package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portalcore/internal/directory"
	"portalcore/internal/httpapi"
	"portalcore/internal/query"
	"portalcore/internal/session"
	"portalcore/internal/token"
	"portalcore/pkg/authz"
	"portalcore/pkg/config"
	"portalcore/pkg/tenants"
)

const (
	testTenantID  = "22222222-2222-2222-2222-222222222222"
	otherTenantID = "44444444-4444-4444-4444-444444444444"
	testPassword  = "s3cret-Pass!"
)

// testDirectory is the slice of the in-memory directory the fixtures need
// beyond the Directory contract itself.
type testDirectory interface {
	directory.Directory
	AddUser(u directory.User, password string) error
	SetPrivileges(subjectID string, roles, permissions []string)
}

// fakeRunner records the call it receives and plays back a canned outcome,
// standing in for the Postgres executor.
type fakeRunner struct {
	lastTemplateID string
	lastParams     map[string]any
	lastPrincipal  *authz.Principal
	result         *query.Result
	err            error
}

func (f *fakeRunner) Execute(ctx context.Context, templateID string, raw map[string]any, p *authz.Principal) (*query.Result, error) {
	f.lastTemplateID = templateID
	f.lastParams = raw
	f.lastPrincipal = p
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type testEnv struct {
	handler  http.Handler
	dir      testDirectory
	sessions session.Store
	runner   *fakeRunner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{
		Env:           "test",
		SigningSecret: "0123456789abcdef0123456789abcdef",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    168 * time.Hour,
		CookieSecure:  false,
	}
	log := zap.NewNop().Sugar()
	dir := directory.NewMemoryDirectory()
	store := session.NewMemoryStore()
	tokens := token.NewService(cfg, store, dir, log)
	blacklist := session.NewBlacklist(nil)
	runner := &fakeRunner{result: &query.Result{TemplateID: "orders_recent", Rows: []map[string]any{}}}
	prov := tenants.NewStaticProvider(
		tenants.Tenant{ID: testTenantID, Slug: "acme", Name: "Acme", IsDefault: true},
		tenants.Tenant{ID: otherTenantID, Slug: "globex", Name: "Globex"},
	)

	require.NoError(t, dir.AddUser(directory.User{
		ID:          "11111111-1111-1111-1111-111111111111",
		TenantID:    testTenantID,
		Email:       "manager@acme.test",
		Roles:       []string{"sales_manager"},
		Permissions: []string{"assistant.query", "orders.*"},
	}, testPassword))
	require.NoError(t, dir.AddUser(directory.User{
		ID:          "33333333-3333-3333-3333-333333333333",
		TenantID:    testTenantID,
		Email:       "viewer@acme.test",
		Roles:       []string{"portal_user"},
		Permissions: []string{"orders.read"},
	}, testPassword))

	app := httpapi.New(cfg, log, tokens, store, blacklist, dir, query.DefaultRegistry(), runner, prov)
	return &testEnv{handler: app.Handler(), dir: dir, sessions: store, runner: runner}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// login authenticates and returns the access and refresh cookies.
func (e *testEnv) login(t *testing.T, email string) (access, refresh *http.Cookie) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/session", map[string]string{
		"email": email, "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case "portal_access":
			access = c
		case "portal_refresh":
			refresh = c
		}
	}
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return access, refresh
}

// postLogin submits credentials with an explicit tenant selector header.
func (e *testEnv) postLogin(t *testing.T, email, tenantSel string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{
		"email": email, "password": testPassword,
	}))
	req := httptest.NewRequest(http.MethodPost, "/v1/session", &buf)
	if tenantSel != "" {
		req.Header.Set("X-Tenant-ID", tenantSel)
	}
	return recordRequest(e, req)
}

func httptestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func newBearerRequest(method, path, tok string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func recordRequest(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}
