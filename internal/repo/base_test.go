package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/dbtest"
)

type ctxKey struct{}

func TestBaseDBBindsContext(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)
	require.Same(t, conn, base.Conn())

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	require.Equal(t, "value", bound.Statement.Context.Value(ctxKey{}))
}

func TestForUpdateIsNoopOnSqlite(t *testing.T) {
	conn := dbtest.Open(t)
	require.False(t, IsPostgres(conn))
	require.Same(t, conn, ForUpdate(conn))
	require.False(t, IsPostgres(nil))
}
