// Package testutil opens throwaway databases for store and service tests.
package testutil

import (
	"testing"

	"storefront/internal/database"
	"storefront/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t. The pool
// holds a single connection, so concurrent transactions queue up the way
// they would behind a row lock.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedProducts inserts products as given, IDs included.
func SeedProducts(t testing.TB, db *gorm.DB, products ...models.Product) {
	t.Helper()
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}
}

// Stock reads the current stock of a product.
func Stock(t testing.TB, db *gorm.DB, productID string) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", productID).Error)
	return p.Stock
}
