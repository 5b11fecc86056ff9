package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type probe struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func openProbeDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), gormConfig(nil, 0))
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&probe{}))
	return conn
}

func probeCount(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&probe{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOnNil(t *testing.T) {
	conn := openProbeDB(t)
	client := NewFromGorm(conn)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&probe{Name: "kept"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, probeCount(t, conn))
}

func TestWithTxRollsBackAndReturnsCallbackError(t *testing.T) {
	conn := openProbeDB(t)
	client := NewFromGorm(conn)
	sentinel := errors.New("shift overlaps")

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&probe{Name: "dropped"}).Error)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.EqualValues(t, 0, probeCount(t, conn))
}

func TestPing(t *testing.T) {
	assert.NoError(t, NewFromGorm(openProbeDB(t)).Ping(context.Background()))
}

func TestAutoMigrateCreatesDomainTables(t *testing.T) {
	client := NewFromGorm(openProbeDB(t))
	require.NoError(t, client.AutoMigrate(context.Background()))
	for _, table := range []string{"users", "venues", "shifts", "daily_reports", "adjustment_disputes"} {
		assert.True(t, client.DB().Migrator().HasTable(table), table)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	conn := openProbeDB(t)
	require.NoError(t, conn.Create(&probe{Name: "dup"}).Error)
	sqliteErr := conn.Create(&probe{Name: "dup"}).Error

	pgErr := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "ux_shifts_venue_date_interval"})
	pqErr := &pq.Error{Code: "23505", Constraint: "ux_memberships_venue_user"}

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"sqlite any", sqliteErr, "", true},
		{"pgx named", pgErr, "ux_shifts_venue_date_interval", true},
		{"pgx other constraint", pgErr, "ux_other", false},
		{"libpq named", pqErr, "ux_memberships_venue_user", true},
		{"not a db error", errors.New("boom"), "", false},
		{"nil", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUniqueViolation(tc.err, tc.constraint))
		})
	}
}
