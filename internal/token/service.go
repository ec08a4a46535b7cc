package token

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"portalcore/internal/session"
	"portalcore/pkg/authz"
	"portalcore/pkg/config"
)

// ErrUnauthenticated covers every per-request verification failure:
// malformed, expired, wrong-type or signature-invalid tokens. The specific
// failure class is logged at debug level and never surfaced to the caller.
var ErrUnauthenticated = errors.New("unauthenticated")

// SessionReader is the slice of the session store rotation needs.
type SessionReader interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Touch(ctx context.Context, id string) error
}

// PrivilegeResolver re-resolves a subject's roles and permissions from the
// store. Rotation must never copy privileges forward from old claims.
type PrivilegeResolver interface {
	ResolvePrivileges(ctx context.Context, subjectID string) (roles, permissions []string, err error)
}

type Service struct {
	secret     *secretSource
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      SessionReader
	privs      PrivilegeResolver
	log        *zap.SugaredLogger
	now        func() time.Time
}

type Option func(*Service)

// WithClock overrides the service clock. Used by tests to simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg config.Config, store SessionReader, privs PrivilegeResolver, log *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		secret:     newSecretSource(func() string { return cfg.SigningSecret }),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		store:      store,
		privs:      privs,
		log:        log,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue creates an access/refresh pair bound to a fresh session id. It has
// no persistence side effect; the caller creates the session row.
func (s *Service) Issue(ctx context.Context, p *authz.Principal) (Pair, error) {
	return s.issueFor(p, uuid.NewString())
}

func (s *Service) issueFor(p *authz.Principal, sessionID string) (Pair, error) {
	key, err := s.secret.get()
	if err != nil {
		return Pair{}, err
	}
	now := s.now()

	access := AccessClaims{
		SubjectID:   p.SubjectID,
		TenantID:    p.TenantID,
		SessionID:   sessionID,
		Roles:       p.Roles,
		Permissions: p.Permissions,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.accessTTL),
	}
	at, err := jwt.NewBuilder().
		Subject(access.SubjectID).
		IssuedAt(access.IssuedAt).
		Expiration(access.ExpiresAt).
		Claim("typ", typeAccess).
		Claim("tid", access.TenantID).
		Claim("sid", access.SessionID).
		Claim("roles", access.Roles).
		Claim("perms", access.Permissions).
		Build()
	if err != nil {
		return Pair{}, err
	}
	signedAccess, err := jwt.Sign(at, jwt.WithKey(jwa.HS256, key))
	if err != nil {
		return Pair{}, err
	}

	refresh := RefreshClaims{
		SubjectID: p.SubjectID,
		SessionID: sessionID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	rt, err := jwt.NewBuilder().
		Subject(refresh.SubjectID).
		IssuedAt(refresh.IssuedAt).
		Expiration(refresh.ExpiresAt).
		Claim("typ", typeRefresh).
		Claim("sid", refresh.SessionID).
		Build()
	if err != nil {
		return Pair{}, err
	}
	signedRefresh, err := jwt.Sign(rt, jwt.WithKey(jwa.HS256, key))
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:  string(signedAccess),
		RefreshToken: string(signedRefresh),
		Access:       access,
		Refresh:      refresh,
	}, nil
}

// VerifyAccess checks signature, expiry and claim type. A ConfigError from
// the secret source propagates as-is; everything else collapses to
// ErrUnauthenticated.
func (s *Service) VerifyAccess(ctx context.Context, raw string) (AccessClaims, error) {
	jt, err := s.parse(raw, typeAccess)
	if err != nil {
		return AccessClaims{}, err
	}
	c := AccessClaims{
		SubjectID:   jt.Subject(),
		TenantID:    stringClaim(jt, "tid"),
		SessionID:   stringClaim(jt, "sid"),
		Roles:       stringsClaim(jt, "roles"),
		Permissions: stringsClaim(jt, "perms"),
		IssuedAt:    jt.IssuedAt(),
		ExpiresAt:   jt.Expiration(),
	}
	if c.SubjectID == "" || c.TenantID == "" || c.SessionID == "" {
		s.log.Debugw("access token rejected", "reason", "missing claims")
		return AccessClaims{}, ErrUnauthenticated
	}
	return c, nil
}

// VerifyRefresh checks signature, expiry and claim type for refresh tokens.
func (s *Service) VerifyRefresh(ctx context.Context, raw string) (RefreshClaims, error) {
	jt, err := s.parse(raw, typeRefresh)
	if err != nil {
		return RefreshClaims{}, err
	}
	c := RefreshClaims{
		SubjectID: jt.Subject(),
		SessionID: stringClaim(jt, "sid"),
		IssuedAt:  jt.IssuedAt(),
		ExpiresAt: jt.Expiration(),
	}
	if c.SubjectID == "" || c.SessionID == "" {
		s.log.Debugw("refresh token rejected", "reason", "missing claims")
		return RefreshClaims{}, ErrUnauthenticated
	}
	return c, nil
}

// Rotate exchanges a refresh token for a fresh pair on the same session.
// Privileges are re-resolved from the store, never copied from old claims;
// a missing, revoked or expired session yields session.ErrRevoked.
func (s *Service) Rotate(ctx context.Context, rawRefresh string) (Pair, error) {
	rc, err := s.VerifyRefresh(ctx, rawRefresh)
	if err != nil {
		return Pair{}, err
	}
	sess, err := s.store.Get(ctx, rc.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.log.Warnw("rotation for unknown session", "session_id", rc.SessionID, "subject_id", rc.SubjectID)
			return Pair{}, session.ErrRevoked
		}
		return Pair{}, err
	}
	if sess.Revoked || s.now().After(sess.ExpiresAt) {
		s.log.Warnw("rotation for dead session", "session_id", rc.SessionID, "subject_id", rc.SubjectID, "revoked", sess.Revoked)
		return Pair{}, session.ErrRevoked
	}

	roles, perms, err := s.privs.ResolvePrivileges(ctx, rc.SubjectID)
	if err != nil {
		return Pair{}, err
	}
	p := &authz.Principal{
		SubjectID:   rc.SubjectID,
		TenantID:    sess.TenantID,
		SessionID:   rc.SessionID,
		Roles:       roles,
		Permissions: perms,
	}
	pair, err := s.issueFor(p, rc.SessionID)
	if err != nil {
		return Pair{}, err
	}
	if err := s.store.Touch(ctx, rc.SessionID); err != nil {
		return Pair{}, err
	}
	return pair, nil
}

func (s *Service) parse(raw, wantType string) (jwt.Token, error) {
	key, err := s.secret.get()
	if err != nil {
		return nil, err
	}
	jt, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, key),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		s.log.Debugw("token rejected", "reason", err.Error())
		return nil, ErrUnauthenticated
	}
	if stringClaim(jt, "typ") != wantType {
		s.log.Debugw("token rejected", "reason", "wrong claim type", "want", wantType)
		return nil, ErrUnauthenticated
	}
	return jt, nil
}

func stringClaim(jt jwt.Token, name string) string {
	if v, ok := jt.Get(name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func stringsClaim(jt jwt.Token, name string) []string {
	v, ok := jt.Get(name)
	if !ok {
		return nil
	}
	switch arr := v.(type) {
	case []string:
		return arr
	case []interface{}:
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
