package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres). Repositories
// accept NoTX (nil) for the non-transactional path.
type Tx interface{}

var NoTX Tx

// TransactionManager runs fn inside a database transaction and passes the handle
// as tx. Returning an error from fn rolls the transaction back.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		p, err := payments.FindByID(ctx, tx, id) // SELECT ... FOR UPDATE
//		...
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
