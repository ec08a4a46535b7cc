package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func bindCtx(tenantID string) context.Context {
	return context.WithValue(context.Background(), tenantTxKey{}, &boundTx{tenantID: tenantID})
}

func TestWithTenantRejectsEmptyTenant(t *testing.T) {
	called := false
	err := WithTenant(context.Background(), nil, "", func(ctx context.Context, tx pgx.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestWithTenantNesting(t *testing.T) {
	t.Run("same tenant reuses the open transaction", func(t *testing.T) {
		called := false
		err := WithTenant(bindCtx("tenant-a"), nil, "tenant-a", func(ctx context.Context, tx pgx.Tx) error {
			called = true
			return nil
		})
		require.NoError(t, err)
		require.True(t, called)
	})

	t.Run("different tenant fails fast", func(t *testing.T) {
		called := false
		err := WithTenant(bindCtx("tenant-a"), nil, "tenant-b", func(ctx context.Context, tx pgx.Tx) error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, ErrTenantMismatch)
		require.False(t, called)
	})
}

func TestBoundTenant(t *testing.T) {
	_, ok := BoundTenant(context.Background())
	require.False(t, ok)

	id, ok := BoundTenant(bindCtx("tenant-a"))
	require.True(t, ok)
	require.Equal(t, "tenant-a", id)
}
