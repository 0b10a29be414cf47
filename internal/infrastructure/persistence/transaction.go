package persistence

import (
	"context"

	"github.com/pgledger/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKey struct{}

// GormTransactionManager runs units of work in a gorm transaction. The
// transaction travels in the context; repositories pick it up through conn.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a GormTransactionManager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn in a transaction, committing when fn returns nil.
// A nested call joins the outer transaction.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// conn returns the transaction carried by ctx, or db
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// lockForUpdate adds SELECT ... FOR UPDATE when running inside a transaction.
// The sqlite dialector drops the clause.
func lockForUpdate(ctx context.Context, q *gorm.DB) *gorm.DB {
	if !inTx(ctx) {
		return q
	}
	return q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

var _ shared.TransactionManager = (*GormTransactionManager)(nil)
