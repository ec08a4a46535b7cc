package token_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portalcore/internal/session"
	"portalcore/internal/token"
	"portalcore/pkg/authz"
	"portalcore/pkg/config"
)

const testSecret = "0123456789abcdef0123456789abcdef" // 32 bytes

// fakePrivs is a swappable privilege resolver standing in for the user
// directory.
type fakePrivs struct {
	mu    sync.Mutex
	roles []string
	perms []string
}

func (f *fakePrivs) set(roles, perms []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles, f.perms = roles, perms
}

func (f *fakePrivs) ResolvePrivileges(ctx context.Context, subjectID string) ([]string, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles, f.perms, nil
}

func testConfig() config.Config {
	return config.Config{
		SigningSecret: testSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    168 * time.Hour,
	}
}

func testPrincipal() *authz.Principal {
	return &authz.Principal{
		SubjectID:   "11111111-1111-1111-1111-111111111111",
		TenantID:    "22222222-2222-2222-2222-222222222222",
		Roles:       []string{"sales_manager"},
		Permissions: []string{"orders.*", "assistant.query"},
	}
}

func newService(t *testing.T, store token.SessionReader, privs token.PrivilegeResolver, opts ...token.Option) *token.Service {
	t.Helper()
	return token.NewService(testConfig(), store, privs, zap.NewNop().Sugar(), opts...)
}

func TestIssueAndVerify(t *testing.T) {
	svc := newService(t, session.NewMemoryStore(), &fakePrivs{})
	p := testPrincipal()

	pair, err := svc.Issue(context.Background(), p)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEmpty(t, pair.Access.SessionID)
	require.Equal(t, pair.Access.SessionID, pair.Refresh.SessionID)

	t.Run("access token round-trips", func(t *testing.T) {
		claims, err := svc.VerifyAccess(context.Background(), pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, p.SubjectID, claims.SubjectID)
		require.Equal(t, p.TenantID, claims.TenantID)
		require.Equal(t, p.Roles, claims.Roles)
		require.Equal(t, p.Permissions, claims.Permissions)
	})

	t.Run("refresh token round-trips without privileges", func(t *testing.T) {
		claims, err := svc.VerifyRefresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, p.SubjectID, claims.SubjectID)
		require.Equal(t, pair.Access.SessionID, claims.SessionID)
	})

	t.Run("claim types are not interchangeable", func(t *testing.T) {
		_, err := svc.VerifyAccess(context.Background(), pair.RefreshToken)
		require.ErrorIs(t, err, token.ErrUnauthenticated)
		_, err = svc.VerifyRefresh(context.Background(), pair.AccessToken)
		require.ErrorIs(t, err, token.ErrUnauthenticated)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		mangled := strings.Replace(pair.AccessToken, ".", ".x", 1)
		_, err := svc.VerifyAccess(context.Background(), mangled)
		require.ErrorIs(t, err, token.ErrUnauthenticated)
	})
}

func TestVerifyAccessExpiry(t *testing.T) {
	current := time.Now()
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	svc := newService(t, session.NewMemoryStore(), &fakePrivs{}, token.WithClock(clock))

	pair, err := svc.Issue(context.Background(), testPrincipal())
	require.NoError(t, err)

	_, err = svc.VerifyAccess(context.Background(), pair.AccessToken)
	require.NoError(t, err)

	mu.Lock()
	current = current.Add(16 * time.Minute)
	mu.Unlock()

	_, err = svc.VerifyAccess(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, token.ErrUnauthenticated)

	// The refresh token outlives the access token.
	_, err = svc.VerifyRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
}

func TestMissingSecretIsConfigError(t *testing.T) {
	cfg := testConfig()
	cfg.SigningSecret = ""
	svc := token.NewService(cfg, session.NewMemoryStore(), &fakePrivs{}, zap.NewNop().Sugar())

	_, err := svc.Issue(context.Background(), testPrincipal())
	require.Error(t, err)
	var ce *token.ConfigError
	require.ErrorAs(t, err, &ce)
	require.NotErrorIs(t, err, token.ErrUnauthenticated)

	_, err = svc.VerifyAccess(context.Background(), "whatever")
	require.ErrorAs(t, err, &ce)
}

func TestShortSecretIsConfigError(t *testing.T) {
	cfg := testConfig()
	cfg.SigningSecret = "too-short"
	svc := token.NewService(cfg, session.NewMemoryStore(), &fakePrivs{}, zap.NewNop().Sugar())

	var ce *token.ConfigError
	_, err := svc.Issue(context.Background(), testPrincipal())
	require.ErrorAs(t, err, &ce)
}

// createSession persists the row Issue leaves to the orchestrating
// endpoint.
func createSession(t *testing.T, store session.Store, pair token.Pair, p *authz.Principal) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &session.Session{
		ID:           pair.Access.SessionID,
		SubjectID:    p.SubjectID,
		TenantID:     p.TenantID,
		CreatedAt:    pair.Access.IssuedAt,
		LastActiveAt: pair.Access.IssuedAt,
		ExpiresAt:    pair.Refresh.ExpiresAt,
	}))
}

func TestRotateResolvesFreshPrivileges(t *testing.T) {
	store := session.NewMemoryStore()
	privs := &fakePrivs{}
	privs.set([]string{"sales_manager"}, []string{"orders.*"})
	svc := newService(t, store, privs)
	p := testPrincipal()

	pair, err := svc.Issue(context.Background(), p)
	require.NoError(t, err)
	createSession(t, store, pair, p)

	// Privileges change after issuance; rotation must pick them up.
	privs.set([]string{"portal_user"}, []string{"orders.read"})

	rotated, err := svc.Rotate(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, pair.Access.SessionID, rotated.Access.SessionID)
	require.Equal(t, []string{"portal_user"}, rotated.Access.Roles)
	require.Equal(t, []string{"orders.read"}, rotated.Access.Permissions)
	require.Equal(t, p.TenantID, rotated.Access.TenantID)
}

func TestRotateRejectsDeadSessions(t *testing.T) {
	store := session.NewMemoryStore()
	svc := newService(t, store, &fakePrivs{})
	p := testPrincipal()

	t.Run("unknown session", func(t *testing.T) {
		pair, err := svc.Issue(context.Background(), p)
		require.NoError(t, err)
		// No session row created.
		_, err = svc.Rotate(context.Background(), pair.RefreshToken)
		require.ErrorIs(t, err, session.ErrRevoked)
	})

	t.Run("revoked session", func(t *testing.T) {
		pair, err := svc.Issue(context.Background(), p)
		require.NoError(t, err)
		createSession(t, store, pair, p)
		require.NoError(t, store.Revoke(context.Background(), pair.Access.SessionID))

		_, err = svc.Rotate(context.Background(), pair.RefreshToken)
		require.ErrorIs(t, err, session.ErrRevoked)
	})

	t.Run("expired session", func(t *testing.T) {
		pair, err := svc.Issue(context.Background(), p)
		require.NoError(t, err)
		require.NoError(t, store.Create(context.Background(), &session.Session{
			ID:        pair.Access.SessionID,
			SubjectID: p.SubjectID,
			TenantID:  p.TenantID,
			ExpiresAt: time.Now().Add(-time.Hour),
		}))

		_, err = svc.Rotate(context.Background(), pair.RefreshToken)
		require.ErrorIs(t, err, session.ErrRevoked)
	})
}

func TestConcurrentRotationsBothSucceed(t *testing.T) {
	store := session.NewMemoryStore()
	privs := &fakePrivs{}
	privs.set([]string{"admin"}, []string{"*"})
	svc := newService(t, store, privs)
	p := testPrincipal()

	pair, err := svc.Issue(context.Background(), p)
	require.NoError(t, err)
	createSession(t, store, pair, p)

	var wg sync.WaitGroup
	results := make([]error, 2)
	pairs := make([]token.Pair, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pairs[i], results[i] = svc.Rotate(context.Background(), pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, results[i])
		require.Equal(t, pair.Access.SessionID, pairs[i].Access.SessionID)
		_, err := svc.VerifyAccess(context.Background(), pairs[i].AccessToken)
		require.NoError(t, err)
	}

	// The session row survives the race.
	sess, err := store.Get(context.Background(), pair.Access.SessionID)
	require.NoError(t, err)
	require.False(t, sess.Revoked)
}
