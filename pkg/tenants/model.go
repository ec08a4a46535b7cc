package tenants

// Tenant represents one customer account space of the portal. Every row the
// portal stores is owned by exactly one tenant; the tenant id here is what
// gets bound into transactions for row-level filtering.
type Tenant struct {
	ID        string // uuid
	Slug      string // short name (acme)
	Name      string // display name
	IsDefault bool   // bootstrap tenant for pre-authentication flows
}
