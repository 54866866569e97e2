package ports

import (
	"context"

	"civicdesk/internal/errs"
)

// Tx is an opaque transaction handle for repositories/adapters.
// Infrastructure controls the concrete type (for example, *gorm.DB).
type Tx interface{}

// UnitOfWork defines a transaction boundary.
//
// Returning an error from fn rolls back, returning nil commits. Write
// conflicts detected by the store surface as conflict_retryable errors.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// WithTxContext stores a transaction handle in context.
func WithTxContext(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext reads a transaction handle from context.
func TxFromContext(ctx context.Context) Tx {
	return ctx.Value(txKey{})
}

// InTx reports whether ctx already carries a transaction.
func InTx(ctx context.Context) bool {
	return TxFromContext(ctx) != nil
}

// ErrWriteConflict reports a transaction that lost a race to a concurrent writer.
var ErrWriteConflict = errs.New(errs.KindConflict, "transaction write conflict")
