package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

type ledgerRow struct {
	ID    uint
	Label string
}

func sqliteClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), config.DBConfig{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&ledgerRow{}))
	return client
}

func countRows(t *testing.T, client *Client) int64 {
	t.Helper()
	var n int64
	require.NoError(t, client.DB().Model(&ledgerRow{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	client := sqliteClient(t)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&ledgerRow{Label: "kept"}).Error
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, countRows(t, client))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := sqliteClient(t)
	boom := errors.New("boom")

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&ledgerRow{Label: "discarded"}).Error)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, countRows(t, client))
}

func TestWithTxRollsBackAndRepanics(t *testing.T) {
	client := sqliteClient(t)

	require.PanicsWithValue(t, "kaboom", func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&ledgerRow{Label: "discarded"}).Error)
			panic("kaboom")
		})
	})
	require.Zero(t, countRows(t, client))
}

func TestPingAndWrap(t *testing.T) {
	client := sqliteClient(t)
	require.NoError(t, client.Ping(context.Background()))
	require.Same(t, client.DB(), Wrap(client.DB()).DB())
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: "mongo", DSN: "mongodb://x"}, nil)
	require.ErrorContains(t, err, "unsupported database driver")

	_, err = New(context.Background(), config.DBConfig{Driver: "postgres"}, nil)
	require.ErrorContains(t, err, "DSN is required")
}

func TestIsUniqueViolation(t *testing.T) {
	pgDup := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "purchases_payment_id_key"}

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil},
		{name: "gorm translated", err: gorm.ErrDuplicatedKey, want: true},
		{name: "pg any", err: fmt.Errorf("insert: %w", pgDup), want: true},
		{name: "pg named", err: pgDup, constraint: "purchases_payment_id_key", want: true},
		{name: "pg other constraint", err: pgDup, constraint: "users_email_key"},
		{name: "pg other code", err: &pgconn.PgError{Code: "23503"}},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: wishlist_entries.email, wishlist_entries.listing_id"), want: true},
		{name: "message fallback", err: errors.New(`duplicate key value violates unique constraint "users_email_key"`), constraint: "users_email_key", want: true},
		{name: "unrelated", err: errors.New("connection reset")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsUniqueViolation(tc.err, tc.constraint))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	require.True(t, IsNotFound(fmt.Errorf("load: %w", gorm.ErrRecordNotFound)))
	require.False(t, IsNotFound(errors.New("nope")))
}
