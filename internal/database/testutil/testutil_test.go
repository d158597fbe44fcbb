package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bloodlink/bloodlink/internal/models"
)

func TestPooledConnectionsShareDatabase(t *testing.T) {
	db := MustOpenTestDB(t, WithAutoMigrate())

	sqlDB, err := db.DB()
	require.NoError(t, err)

	// Hold two connections at once so the second cannot be a reuse of the
	// first; both must see the migrated schema.
	ctx := context.Background()
	first, err := sqlDB.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()

	second, err := sqlDB.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	var count int
	row := second.QueryRowContext(ctx, "SELECT COUNT(*) FROM users")
	require.NoError(t, row.Scan(&count))
	require.Zero(t, count)
}

func TestEachTestDatabaseIsIsolated(t *testing.T) {
	first := MustOpenTestDB(t, WithAutoMigrate())
	require.NoError(t, first.Create(&models.User{
		Email:    "isolated@example.com",
		Password: "hashed",
	}).Error)

	second := MustOpenTestDB(t, WithAutoMigrate())
	var count int64
	require.NoError(t, second.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)
}
