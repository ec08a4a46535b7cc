package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryDirectoryAuthenticate(t *testing.T) {
	dir := NewMemoryDirectory()
	require.NoError(t, dir.AddUser(User{
		ID:          "u-1",
		TenantID:    "t-1",
		Email:       "Buyer@Acme.Test",
		Roles:       []string{"portal_user"},
		Permissions: []string{"orders.read"},
	}, "pw-123456"))

	t.Run("email is case and whitespace insensitive", func(t *testing.T) {
		u, err := dir.Authenticate(context.Background(), "  buyer@acme.test ", "pw-123456")
		require.NoError(t, err)
		require.Equal(t, "u-1", u.ID)
		require.Equal(t, []string{"portal_user"}, u.Roles)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, err := dir.Authenticate(context.Background(), "buyer@acme.test", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err2 := dir.Authenticate(context.Background(), "ghost@acme.test", "pw-123456")
		require.ErrorIs(t, err2, ErrInvalidCredentials)
		require.Equal(t, err.Error(), err2.Error())
	})
}

func TestMemoryDirectoryResolvePrivileges(t *testing.T) {
	dir := NewMemoryDirectory()
	require.NoError(t, dir.AddUser(User{
		ID: "u-1", TenantID: "t-1", Email: "buyer@acme.test",
		Roles: []string{"portal_user"}, Permissions: []string{"orders.read"},
	}, "pw-123456"))

	roles, perms, err := dir.ResolvePrivileges(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, []string{"portal_user"}, roles)
	require.Equal(t, []string{"orders.read"}, perms)

	dir.SetPrivileges("u-1", []string{"sales_manager"}, []string{"orders.*", "assistant.query"})
	roles, perms, err = dir.ResolvePrivileges(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, []string{"sales_manager"}, roles)
	require.Equal(t, []string{"orders.*", "assistant.query"}, perms)
}
