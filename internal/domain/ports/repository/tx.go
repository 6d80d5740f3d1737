package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager provides a thin abstraction to execute a function within
// a database transaction, passing the underlying transaction handle via `qx`.
//
// Use-case interfaces stay clean of transaction types; repository methods that
// accept `qx any` detect a tx implementation-side and run tx-bound
// Exec/Query as needed. Repositories MUST gracefully accept `nil` qx (the
// non-transactional path), which is also what the in-memory implementations
// always see.
//
// The concrete type of `qx` is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
