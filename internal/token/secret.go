package token

import (
	"fmt"
	"sync"
)

// minSecretLen is the minimum signing-secret length in bytes.
const minSecretLen = 32

// ConfigError is a fatal configuration failure, distinct from an invalid
// token: a missing signing secret must surface loudly to the operator and
// never be downgraded to an unauthenticated response.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("token configuration: %s", e.Reason)
}

// secretSource resolves the signing secret lazily on first use and then
// treats the derived key as immutable. Resolution is deferred because
// configuration may not be fully loaded at process start; it is memoized
// because re-reading configuration per verification would put I/O on the
// hot path.
type secretSource struct {
	mu      sync.RWMutex
	key     []byte
	resolve func() string
}

func newSecretSource(resolve func() string) *secretSource {
	return &secretSource{resolve: resolve}
}

func (s *secretSource) get() ([]byte, error) {
	s.mu.RLock()
	if s.key != nil {
		defer s.mu.RUnlock()
		return s.key, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		return s.key, nil
	}
	raw := s.resolve()
	if raw == "" {
		return nil, &ConfigError{Reason: "signing secret is not set"}
	}
	if len(raw) < minSecretLen {
		return nil, &ConfigError{Reason: fmt.Sprintf("signing secret shorter than %d bytes", minSecretLen)}
	}
	s.key = []byte(raw)
	return s.key, nil
}
