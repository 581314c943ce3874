package pg

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	ErrAlreadyInTx = errors.New("already executing in existing db tx")
	ErrNotInTx     = errors.New("not executing in existing db tx")
)

type txScopeKey struct{}

// txScope is the transaction carried through a context by ExecuteTxWithinCtx
type txScope struct {
	tx        *sqlx.Tx
	isolation sql.IsolationLevel
}

// ExecuteTxWithinCtx runs fn inside a new transaction that is made available
// to stores through the context. The transaction commits when fn succeeds and
// rolls back otherwise. Nested calls are rejected with ErrAlreadyInTx.
func ExecuteTxWithinCtx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(context.Context) error) error {
	if _, ok := ctx.Value(txScopeKey{}).(*txScope); ok {
		return ErrAlreadyInTx
	}

	isolation = normalizeIsolation(isolation)
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, txScopeKey{}, &txScope{tx: tx, isolation: isolation})
	return finish(tx, fn(ctx))
}

// ExecuteInTx runs a store operation against the transaction in ctx, if there
// is one, or against a new transaction owned by this call. Only the owner
// commits or rolls back.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	isolation = normalizeIsolation(isolation)

	scope, err := scopeFromCtx(ctx)
	switch err {
	case nil:
		if scope.isolation < isolation {
			return errors.Errorf("current tx isolation %s is weaker than required %s", scope.isolation, isolation)
		}
		return fn(scope.tx)
	case ErrNotInTx:
	default:
		return err
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return err
	}
	return finish(tx, fn(tx))
}

func scopeFromCtx(ctx context.Context) (*txScope, error) {
	val := ctx.Value(txScopeKey{})
	if val == nil {
		return nil, ErrNotInTx
	}

	scope, ok := val.(*txScope)
	if !ok {
		return nil, errors.New("invalid type for tx scope")
	}
	return scope, nil
}

// finish always ends the tx so sql.DB releases the connection
func finish(tx *sqlx.Tx, err error) error {
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrap(rollbackErr, "failed to rollback transaction")
		}
		return err
	}
	return tx.Commit()
}

func normalizeIsolation(isolation sql.IsolationLevel) sql.IsolationLevel {
	if isolation == sql.LevelDefault {
		return sql.LevelReadCommitted
	}
	return isolation
}
