// pkg/tenants/memory.go
package tenants

import (
	"context"
	"encoding/json"
	"os"

	"go.uber.org/zap"
)

type memProvider struct {
	log    *zap.SugaredLogger
	byID   map[string]Tenant
	bySlug map[string]Tenant
	def    string
}

func NewMemoryProviderFromEnv(log *zap.SugaredLogger) Provider {
	p := &memProvider{log: log, byID: map[string]Tenant{}, bySlug: map[string]Tenant{}}
	seed := os.Getenv("TENANT_SEED_JSON")
	if seed != "" {
		var entries []struct {
			ID        string `json:"id"`
			Slug      string `json:"slug"`
			Name      string `json:"name"`
			IsDefault bool   `json:"is_default"`
		}
		_ = json.Unmarshal([]byte(seed), &entries)
		for _, e := range entries {
			p.add(Tenant{ID: e.ID, Slug: e.Slug, Name: e.Name, IsDefault: e.IsDefault})
		}
	} else {
		// sensible dev default so local bring-up works without seeding
		p.add(Tenant{
			ID: "00000000-0000-0000-0000-000000000001", Slug: "dev",
			Name: "Dev Tenant", IsDefault: true,
		})
	}
	return p
}

// NewStaticProvider builds an in-memory provider over a fixed tenant list.
// Used by tests and single-tenant bring-up.
func NewStaticProvider(list ...Tenant) Provider {
	p := &memProvider{byID: map[string]Tenant{}, bySlug: map[string]Tenant{}}
	for _, t := range list {
		p.add(t)
	}
	return p
}

func (m *memProvider) add(t Tenant) {
	m.byID[t.ID] = t
	if t.Slug != "" {
		m.bySlug[t.Slug] = t
	}
	if t.IsDefault {
		m.def = t.ID
	}
}

func (m *memProvider) ResolveByID(ctx context.Context, id string) (Tenant, error) {
	if t, ok := m.byID[id]; ok {
		return t, nil
	}
	return Tenant{}, ErrNotFound
}

func (m *memProvider) ResolveBySlug(ctx context.Context, slug string) (Tenant, error) {
	if t, ok := m.bySlug[slug]; ok {
		return t, nil
	}
	return Tenant{}, ErrNotFound
}

func (m *memProvider) Default(ctx context.Context) (Tenant, error) {
	if m.def != "" {
		return m.byID[m.def], nil
	}
	return Tenant{}, ErrNotFound
}
