package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs a unit of work inside one database transaction. The
// transaction is rolled back when fn returns an error and committed otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GORMTransactor is the gorm implementation of Transactor.
type GORMTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a new GORMTransactor.
func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{db: db}
}

// WithinTransaction runs fn in a transaction bound to ctx.
func (t *GORMTransactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}
