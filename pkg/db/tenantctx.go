package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTenantMismatch is returned when a WithTenant scope is entered while the
// context is already bound to a different tenant. That is a programming
// error in the caller, never something to recover by switching tenants.
var ErrTenantMismatch = errors.New("context already bound to a different tenant")

type tenantTxKey struct{}

type boundTx struct {
	tenantID string
	tx       pgx.Tx
}

// WithTenant runs fn inside a single transaction with app.tenant_id bound
// for RLS. set_config(..., true) is transaction-local, so the binding dies
// with the transaction and can never leak to the next borrower of the
// pooled connection. A nested call with the same tenant reuses the open
// transaction; a nested call with a different tenant fails fast.
// fn returning nil commits; any error rolls back.
func WithTenant(ctx context.Context, pool *pgxpool.Pool, tenantID string, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if tenantID == "" {
		return errors.New("empty tenant id")
	}
	if b, ok := ctx.Value(tenantTxKey{}).(*boundTx); ok {
		if b.tenantID != tenantID {
			return ErrTenantMismatch
		}
		return fn(ctx, b.tx)
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	ctx = context.WithValue(ctx, tenantTxKey{}, &boundTx{tenantID: tenantID, tx: tx})
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// BoundTenant reports the tenant a WithTenant scope on ctx is bound to.
func BoundTenant(ctx context.Context) (string, bool) {
	if b, ok := ctx.Value(tenantTxKey{}).(*boundTx); ok {
		return b.tenantID, true
	}
	return "", false
}
