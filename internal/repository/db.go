package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx. Every
// repository method takes it explicitly so the caller decides whether the
// call joins an in-flight transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Tx interface {
	DB
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Pool is what services hold: a query surface plus the ability to open a
// transaction.
type Pool interface {
	DB
	Begin(ctx context.Context) (Tx, error)
}

type pgxPool struct {
	*pgxpool.Pool
}

func (p pgxPool) Begin(ctx context.Context) (Tx, error) {
	return p.Pool.Begin(ctx)
}

func NewPool(pool *pgxpool.Pool) Pool {
	return pgxPool{pool}
}
