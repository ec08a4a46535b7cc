// Package query executes a closed catalog of parameterized read-only
// templates on behalf of the portal's assistant layer. Callers influence
// the executed query only by naming a registered template and supplying
// typed parameters for its fixed placeholders; no query text is ever
// assembled from caller input.
package query

import (
	"fmt"
)

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeDate    ParamType = "date"
	TypeBoolean ParamType = "boolean"
)

// TenantParam is the reserved parameter name for tenant scoping. A template
// declaring it gets the caller's verified tenant id bound regardless of
// what the request supplied.
const TenantParam = "tenantId"

// ParameterSpec declares one placeholder of a template. Placeholders in the
// body are positional ($1..$n) in declaration order.
type ParameterSpec struct {
	Name     string
	Type     ParamType
	Required bool
	Enum     []string // allowed values for string parameters
	Min      *int64   // inclusive bound for integer parameters
	Max      *int64
}

// Template is one fixed query shape. Immutable at runtime; registering a
// new one is a code change.
type Template struct {
	ID           string
	Params       []ParameterSpec
	MaxRows      int
	AllowedRoles []string
	Body         string
}

func (t *Template) allowsAnyRole(roles []string) bool {
	for _, have := range roles {
		for _, want := range t.AllowedRoles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Registry is a static lookup over the catalog. No runtime mutation.
type Registry struct {
	byID map[string]*Template
}

// NewRegistry validates catalog invariants at construction: unique ids,
// positive row caps, at least one allowed role, and for tenant-scoped
// templates the tenantId parameter first and required.
func NewRegistry(templates ...Template) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Template, len(templates))}
	for i := range templates {
		t := templates[i]
		if t.ID == "" {
			return nil, fmt.Errorf("template %d: empty id", i)
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("template %s: duplicate id", t.ID)
		}
		if t.MaxRows <= 0 {
			return nil, fmt.Errorf("template %s: max rows must be positive", t.ID)
		}
		if len(t.AllowedRoles) == 0 {
			return nil, fmt.Errorf("template %s: no allowed roles", t.ID)
		}
		for j, p := range t.Params {
			if p.Name == TenantParam {
				if j != 0 || !p.Required || p.Type != TypeString {
					return nil, fmt.Errorf("template %s: %s must be the first required string parameter", t.ID, TenantParam)
				}
			}
		}
		r.byID[t.ID] = &t
	}
	return r, nil
}

// MustRegistry is NewRegistry for build-time catalogs, where an invariant
// violation is a programming error.
func MustRegistry(templates ...Template) *Registry {
	r, err := NewRegistry(templates...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the template for id, or nil.
func (r *Registry) Get(id string) *Template {
	return r.byID[id]
}

// ListForRole returns the templates a role may execute.
func (r *Registry) ListForRole(role string) []*Template {
	var out []*Template
	for _, t := range r.byID {
		if t.allowsAnyRole([]string{role}) {
			out = append(out, t)
		}
	}
	return out
}
