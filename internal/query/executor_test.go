package query

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// fakeRows plays back a fixed result set through the pgx.Rows contract.
type fakeRows struct {
	fields []pgconn.FieldDescription
	rows   [][]any
	idx    int
	closed bool
	rowErr error
}

var _ pgx.Rows = (*fakeRows)(nil)

func (f *fakeRows) Close()                                       { f.closed = true }
func (f *fakeRows) Err() error                                   { return f.rowErr }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return f.fields }
func (f *fakeRows) Scan(dest ...any) error                       { return errors.New("unused") }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeRows) Values() ([]any, error) { return f.rows[f.idx-1], nil }

func orderRows(n int) *fakeRows {
	f := &fakeRows{fields: []pgconn.FieldDescription{{Name: "id"}, {Name: "status"}}}
	for i := 0; i < n; i++ {
		f.rows = append(f.rows, []any{int64(i + 1), "open"})
	}
	return f
}

func TestCollectRowsKeysByColumn(t *testing.T) {
	src := orderRows(3)
	rows, truncated, err := collectRows(src, 10)
	require.NoError(t, err)
	require.False(t, truncated)
	require.Len(t, rows, 3)
	require.Equal(t, int64(1), rows[0]["id"])
	require.Equal(t, "open", rows[0]["status"])
	require.True(t, src.closed)
}

func TestCollectRowsCap(t *testing.T) {
	t.Run("exactly at the cap is not truncated", func(t *testing.T) {
		rows, truncated, err := collectRows(orderRows(10), 10)
		require.NoError(t, err)
		require.False(t, truncated)
		require.Len(t, rows, 10)
	})

	t.Run("one past the cap truncates", func(t *testing.T) {
		rows, truncated, err := collectRows(orderRows(11), 10)
		require.NoError(t, err)
		require.True(t, truncated)
		require.Len(t, rows, 10)
	})

	t.Run("empty result", func(t *testing.T) {
		rows, truncated, err := collectRows(orderRows(0), 10)
		require.NoError(t, err)
		require.False(t, truncated)
		require.Empty(t, rows)
	})
}

func TestCollectRowsPropagatesIterationError(t *testing.T) {
	src := orderRows(2)
	src.rowErr = errors.New("connection reset")
	_, _, err := collectRows(src, 10)
	require.Error(t, err)
	require.True(t, src.closed)
}
