// internal/query/guard.go
package query

import (
	"regexp"
	"strings"
)

// Injection-signal scan over string parameter values. This is a second,
// independent layer: every template binds parameters positionally, so a
// matching value could not alter the query shape anyway. Values tripping
// the scan are rejected before any data-layer call and counted for
// security monitoring.
var sqlKeywordPattern = regexp.MustCompile(`(?i)\b(union|select|insert|update|delete|drop|alter|truncate|create|grant|revoke|exec|execute)\b`)

var injectionFragments = []string{
	";",  // statement terminator
	"--", // line comment
	"/*", // block comment open
	"*/", // block comment close
}

func hasInjectionSignal(value string) bool {
	for _, frag := range injectionFragments {
		if strings.Contains(value, frag) {
			return true
		}
	}
	return sqlKeywordPattern.MatchString(value)
}
