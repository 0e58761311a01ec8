package persistence

import (
	"context"

	"github.com/thrylos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

type ctxTxKey struct{}

// dbFromContext returns the transaction bound to ctx, or fallback when no
// transaction is in flight. Repositories use it so that reads and writes
// issued inside TransactionManager.WithinTransaction share one transaction.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(ctxTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

// GormTransactionManager implements shared.TransactionManager on top of GORM.
// Nested calls join the transaction already bound to the context instead of
// opening a second one.
type GormTransactionManager struct {
	db *gorm.DB
}

var _ shared.TransactionManager = (*GormTransactionManager)(nil)

func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(ctxTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, ctxTxKey{}, tx))
	})
}
