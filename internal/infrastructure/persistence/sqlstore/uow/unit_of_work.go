package uow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/persistence/sqlstore/repository"
	"civicdesk/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork with gorm.
type UnitOfWork struct {
	db *gorm.DB
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithTx joins the transaction already in ctx, or opens a new one.
// Unclassified driver errors that indicate a lost write race are reported
// as ports.ErrWriteConflict so callers can retry the whole unit.
func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if ports.InTx(ctx) {
		return fn(ctx)
	}

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
	if err == nil {
		return nil
	}

	var kinded *errs.Error
	if !errors.As(err, &kinded) && isWriteConflict(err) {
		return fmt.Errorf("%w: %v", ports.ErrWriteConflict, err)
	}
	return err
}

func isWriteConflict(err error) bool {
	if repository.IsUniqueViolation(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"could not serialize access",
		"sqlstate 40001",
		"deadlock detected",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
