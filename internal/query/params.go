// internal/query/params.go
package query

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"portalcore/pkg/authz"
)

// Validation failure reasons, stable strings surfaced to callers.
const (
	ReasonUnknownTemplate = "unknown template"
	ReasonRole            = "role not authorized"
	ReasonMissingParam    = "missing parameter"
	ReasonInvalidParam    = "invalid parameter"
	ReasonInjection       = "injection signal"
)

// ValidationError reports why a request was rejected before execution.
// It names the offending template or parameter, never the query text.
type ValidationError struct {
	Reason    string
	Parameter string
}

func (e *ValidationError) Error() string {
	if e.Parameter != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Parameter)
	}
	return e.Reason
}

// Validate runs the full pre-execution pipeline: template lookup, role
// intersection, ordered coercion with refinements, tenant overwrite and
// the injection scan. On success it returns the template and the argument
// slice bound positionally to the template body. Parameters not declared
// in the schema are dropped, never passed through.
func (r *Registry) Validate(templateID string, raw map[string]any, p *authz.Principal) (*Template, []any, *ValidationError) {
	tpl := r.Get(templateID)
	if tpl == nil {
		return nil, nil, &ValidationError{Reason: ReasonUnknownTemplate}
	}
	if !tpl.allowsAnyRole(p.Roles) {
		return nil, nil, &ValidationError{Reason: ReasonRole}
	}

	args := make([]any, 0, len(tpl.Params))
	for _, spec := range tpl.Params {
		// The tenant parameter is advisory at best; the verified
		// principal decides the scope.
		if spec.Name == TenantParam {
			args = append(args, p.TenantID)
			continue
		}
		v, present := raw[spec.Name]
		if !present || v == nil {
			if spec.Required {
				return nil, nil, &ValidationError{Reason: ReasonMissingParam, Parameter: spec.Name}
			}
			args = append(args, nil)
			continue
		}
		coerced, ok := coerce(spec, v)
		if !ok {
			return nil, nil, &ValidationError{Reason: ReasonInvalidParam, Parameter: spec.Name}
		}
		if s, isStr := coerced.(string); isStr && hasInjectionSignal(s) {
			return nil, nil, &ValidationError{Reason: ReasonInjection, Parameter: spec.Name}
		}
		args = append(args, coerced)
	}
	return tpl, args, nil
}

func coerce(spec ParameterSpec, v any) (any, bool) {
	switch spec.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		if len(spec.Enum) > 0 && !contains(spec.Enum, s) {
			return nil, false
		}
		return s, true
	case TypeInteger:
		n, ok := toInt64(v)
		if !ok {
			return nil, false
		}
		if spec.Min != nil && n < *spec.Min {
			return nil, false
		}
		if spec.Max != nil && n > *spec.Max {
			return nil, false
		}
		return n, true
	case TypeDate:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, false
		}
		return d, true
	case TypeBoolean:
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, false
			}
			return parsed, true
		}
		return nil, false
	}
	return nil, false
}

// toInt64 accepts JSON numbers (float64 with integral value), Go ints and
// numeric strings, which is what an assistant layer tends to produce.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func contains(set []string, s string) bool {
	for _, e := range set {
		if e == s {
			return true
		}
	}
	return false
}
