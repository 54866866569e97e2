package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"civicdesk/internal/ports"
)

// dbFromContext returns the transaction carried by ctx, or the root handle.
func dbFromContext(ctx context.Context, root *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return root.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// inTx runs fn inside the caller's transaction, or opens one when ctx has none.
func inTx(ctx context.Context, root *gorm.DB, fn func(ctx context.Context, db *gorm.DB) error) error {
	if ports.InTx(ctx) {
		db, err := dbFromContext(ctx, root)
		if err != nil {
			return err
		}
		return fn(ctx, db)
	}

	return root.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx), tx)
	})
}

// IsUniqueViolation recognises duplicate-key failures from the SQLite and
// Postgres drivers, translated or not.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "sqlstate 23505")
}
