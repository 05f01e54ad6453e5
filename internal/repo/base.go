// Package repo holds the pieces every marketplace repository shares.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base binds a repository to a connection or an open transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Conn returns the raw connection, typically a transaction handed to WithTx.
func (b Base) Conn() *gorm.DB {
	return b.db
}

// IsPostgres reports whether the connection speaks the postgres dialect.
func IsPostgres(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres"
}

// ForUpdate adds a row lock on postgres. sqlite serializes writers already and
// has no FOR UPDATE syntax.
func ForUpdate(db *gorm.DB) *gorm.DB {
	if IsPostgres(db) {
		return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return db
}
