// Package token issues, verifies and rotates the signed session tokens that
// authenticate every portal request.
package token

import (
	"time"
)

// AccessClaims is the short-lived payload carried by an access token.
// Immutable once signed; trusted only after signature verification.
type AccessClaims struct {
	SubjectID   string
	TenantID    string
	SessionID   string
	Roles       []string
	Permissions []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// RefreshClaims is the longer-lived payload carried by a refresh token.
// It deliberately carries no roles or permissions: those are re-resolved
// from the store at rotation time so revocations take effect immediately.
type RefreshClaims struct {
	SubjectID string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair is the result of issuing or rotating a session's tokens.
type Pair struct {
	AccessToken  string
	RefreshToken string
	Access       AccessClaims
	Refresh      RefreshClaims
}

// Claim-type tags. Access and refresh are distinct claim variants; the tag
// is checked at verification time so one can never stand in for the other.
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)
