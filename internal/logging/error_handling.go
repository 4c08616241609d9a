package logging

import (
	"fmt"
	"io"
	"log/slog"
)

// database/sql returns this exact string when a rollback races a commit;
// defer-style rollbacks hit it on every committed transaction.
const errTxDone = "sql: transaction has already been committed or rolled back"

// SafeCloseWithLogging closes a resource, logging a failure instead of
// returning it. Meant for closers whose error cannot change the outcome of
// the call, like response bodies after the read.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, operation string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		LogError(logger, "failed to close resource", err,
			slog.String("operation", operation),
			slog.String("component", "resource_management"))
	}
}

// SafeRollbackWithLogging rolls a transaction back, staying quiet when the
// transaction already committed. Callers defer it right after BeginTx so a
// failed store write never leaves a transaction open.
func SafeRollbackWithLogging(tx interface{ Rollback() error }, logger *slog.Logger, operation string) {
	if tx == nil {
		return
	}

	if err := tx.Rollback(); err != nil {
		if err.Error() == errTxDone {
			return
		}
		LogError(logger, "failed to rollback transaction", err,
			slog.String("operation", operation),
			slog.String("component", "database"))
	}
}

// HandleDeferredError runs a deferred cleanup step and folds its failure
// into the caller's named return error. An earlier error takes precedence;
// the cleanup failure is logged either way.
func HandleDeferredError(originalErr *error, deferredOp func() error, logger *slog.Logger, operation string) {
	if deferredOp == nil {
		return
	}

	if err := deferredOp(); err != nil {
		LogError(logger, "deferred operation failed", err,
			slog.String("operation", operation),
			slog.String("component", "deferred_cleanup"))

		if *originalErr == nil {
			*originalErr = fmt.Errorf("%s failed: %w", operation, err)
		}
	}
}
