// internal/query/templates.go
package query

// Shipped catalog. Adding a template here is the only way to make a new
// query shape executable; every body filters on tenant_id explicitly even
// though RLS enforces the same bound, so a template stays correct when run
// against a store without policies applied.

func bound(n int64) *int64 { return &n }

// DefaultRegistry returns the portal's built-in template catalog.
func DefaultRegistry() *Registry {
	return MustRegistry(
		Template{
			ID: "customers_by_pace_deviation",
			Params: []ParameterSpec{
				{Name: TenantParam, Type: TypeString, Required: true},
				{Name: "deviationThreshold", Type: TypeInteger, Required: true, Min: bound(1), Max: bound(365)},
			},
			MaxRows:      200,
			AllowedRoles: []string{"admin", "sales_manager"},
			Body: `
SELECT c.id, c.name, c.expected_interval_days,
       EXTRACT(day FROM NOW() - MAX(o.placed_at))::int AS days_since_last_order
FROM customers c
JOIN orders o ON o.customer_id = c.id AND o.tenant_id = c.tenant_id
WHERE c.tenant_id = $1::uuid
GROUP BY c.id, c.name, c.expected_interval_days
HAVING EXTRACT(day FROM NOW() - MAX(o.placed_at)) - c.expected_interval_days >= $2
ORDER BY days_since_last_order DESC, c.id`,
		},
		Template{
			ID: "sales_by_rep",
			Params: []ParameterSpec{
				{Name: TenantParam, Type: TypeString, Required: true},
				{Name: "startDate", Type: TypeDate, Required: true},
				{Name: "endDate", Type: TypeDate, Required: true},
			},
			MaxRows:      500,
			AllowedRoles: []string{"admin", "sales_manager"},
			Body: `
SELECT u.id AS rep_id, u.display_name, COUNT(o.id) AS orders, SUM(o.total_cents) AS total_cents
FROM users u
JOIN orders o ON o.sales_rep_id = u.id AND o.tenant_id = u.tenant_id
WHERE u.tenant_id = $1::uuid AND o.placed_at >= $2 AND o.placed_at < $3
GROUP BY u.id, u.display_name
ORDER BY total_cents DESC, u.id`,
		},
		Template{
			ID: "products_top_performers",
			Params: []ParameterSpec{
				{Name: TenantParam, Type: TypeString, Required: true},
				{Name: "periodDays", Type: TypeInteger, Required: true, Min: bound(1), Max: bound(365)},
				{Name: "name", Type: TypeString, Required: false},
			},
			MaxRows:      100,
			AllowedRoles: []string{"admin", "sales_manager", "portal_user"},
			Body: `
SELECT p.id, p.sku, p.name, SUM(i.quantity) AS units, SUM(i.quantity * i.unit_price_cents) AS revenue_cents
FROM products p
JOIN order_items i ON i.product_id = p.id AND i.tenant_id = p.tenant_id
JOIN orders o ON o.id = i.order_id AND o.tenant_id = i.tenant_id
WHERE p.tenant_id = $1::uuid
  AND o.placed_at >= NOW() - make_interval(days => $2::int)
  AND ($3::text IS NULL OR p.name ILIKE '%' || $3 || '%')
GROUP BY p.id, p.sku, p.name
ORDER BY revenue_cents DESC, p.id`,
		},
		Template{
			ID: "orders_recent",
			Params: []ParameterSpec{
				{Name: TenantParam, Type: TypeString, Required: true},
				{Name: "days", Type: TypeInteger, Required: true, Min: bound(1), Max: bound(90)},
				{Name: "status", Type: TypeString, Required: false, Enum: []string{"open", "shipped", "delivered", "cancelled"}},
			},
			MaxRows:      250,
			AllowedRoles: []string{"admin", "sales_manager", "portal_user"},
			Body: `
SELECT o.id, o.number, o.status, o.total_cents, o.placed_at, c.name AS customer
FROM orders o
JOIN customers c ON c.id = o.customer_id AND c.tenant_id = o.tenant_id
WHERE o.tenant_id = $1::uuid
  AND o.placed_at >= NOW() - make_interval(days => $2::int)
  AND ($3::text IS NULL OR o.status = $3)
ORDER BY o.placed_at DESC, o.id`,
		},
		Template{
			ID: "invoices_overdue",
			Params: []ParameterSpec{
				{Name: TenantParam, Type: TypeString, Required: true},
				{Name: "minDaysOverdue", Type: TypeInteger, Required: true, Min: bound(1), Max: bound(730)},
			},
			MaxRows:      250,
			AllowedRoles: []string{"admin", "finance", "sales_manager"},
			Body: `
SELECT v.id, v.number, v.amount_cents, v.due_at,
       EXTRACT(day FROM NOW() - v.due_at)::int AS days_overdue, c.name AS customer
FROM invoices v
JOIN customers c ON c.id = v.customer_id AND c.tenant_id = v.tenant_id
WHERE v.tenant_id = $1::uuid AND v.paid_at IS NULL
  AND v.due_at < NOW() - make_interval(days => $2::int)
ORDER BY days_overdue DESC, v.id`,
		},
	)
}
