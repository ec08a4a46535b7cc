package authz

import (
	"fmt"
	"strings"
)

// permMatcher is one entry of a principal's compiled permission set:
// either an exact dot-segmented permission or a wildcard prefix.
// "orders.*" covers "orders.read", "orders.read.export" and "orders"
// itself; a bare "*" covers everything.
type permMatcher struct {
	wildcard bool
	value    string // exact permission, or the prefix before ".*"
}

func (m permMatcher) matches(required string) bool {
	if !m.wildcard {
		return m.value == required
	}
	if m.value == "" {
		return true
	}
	return required == m.value || strings.HasPrefix(required, m.value+".")
}

// compile normalizes and pre-splits a raw permission list once, so checks
// against the set do not re-parse per call.
func compile(raw []string) []permMatcher {
	out := make([]permMatcher, 0, len(raw))
	for _, r := range raw {
		p := strings.ToLower(strings.TrimSpace(r))
		if p == "" {
			continue
		}
		switch {
		case p == "*":
			out = append(out, permMatcher{wildcard: true})
		case strings.HasSuffix(p, ".*"):
			out = append(out, permMatcher{wildcard: true, value: strings.TrimSuffix(p, ".*")})
		default:
			out = append(out, permMatcher{value: p})
		}
	}
	return out
}

// HasPermission reports whether the principal's permission set covers
// required. Blank input is false, never a panic.
func (p *Principal) HasPermission(required string) bool {
	required = strings.ToLower(strings.TrimSpace(required))
	if required == "" {
		return false
	}
	p.compileOnce.Do(func() { p.compiled = compile(p.Permissions) })
	for _, m := range p.compiled {
		if m.matches(required) {
			return true
		}
	}
	return false
}

// ForbiddenError names the permission that was required, for actionable
// 403 responses that do not leak anything about other tenants.
type ForbiddenError struct {
	Permission string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("missing permission %q", e.Permission)
}

// RequirePermission returns a *ForbiddenError carrying the missing key, or
// nil when the principal is authorized.
func (p *Principal) RequirePermission(required string) error {
	if p.HasPermission(required) {
		return nil
	}
	return &ForbiddenError{Permission: strings.ToLower(strings.TrimSpace(required))}
}
