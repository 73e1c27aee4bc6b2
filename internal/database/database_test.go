package database_test

import (
	"path/filepath"
	"testing"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	cfg := &config.Config{
		DatabaseDriver:       config.DriverSQLite,
		DatabaseDSN:          "file:" + filepath.Join(t.TempDir(), "shop.db"),
		DatabaseMaxOpenConns: 10,
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	for _, table := range []any{&models.Product{}, &models.Cart{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{}, &models.Payment{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := database.Open(&config.Config{DatabaseDriver: "mysql", DatabaseDSN: "x"})
	assert.Error(t, err)
}
