package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by pooled connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Scope wraps one pooled connection for the lifetime of a request, plus the
// transaction currently open on it, if any.
type Scope struct {
	Conn *pgxpool.Conn
	tx   pgx.Tx
}

// Querier returns the open transaction when there is one, otherwise the connection.
func (s *Scope) Querier() Querier {
	if s.tx != nil {
		return s.tx
	}
	return s.Conn
}

// InTx reports whether a transaction is open on this scope.
func (s *Scope) InTx() bool {
	return s.tx != nil
}

// Close releases the connection to the pool.
// This MUST be called by whoever acquired the scope.
func (s *Scope) Close() {
	if s.Conn == nil {
		return
	}
	s.Conn.Release()
}

// Acquire takes a connection from the pool for request-scoped use.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) Acquire(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return &Scope{Conn: conn}, nil
}

// Transactor runs functions against a scoped connection, optionally inside a
// transaction. Services depend on this instead of *DB so they can be tested
// without PostgreSQL.
type Transactor interface {
	// InTx runs fn inside one transaction. Any error returned by fn rolls the
	// transaction back; a nested call joins the outer transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// Scoped runs fn with a connection available but without opening a transaction.
	Scoped(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ Transactor = (*DB)(nil)

// Scoped ensures ctx carries a Scope before calling fn.
func (db *DB) Scoped(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetScope(ctx); ok {
		return fn(ctx)
	}
	scope, err := db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()
	return fn(SetScope(ctx, scope))
}

// InTx begins a transaction on the scoped connection (acquiring one if ctx has
// none), runs fn, and commits. A panic or error in fn rolls back.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.Scoped(ctx, func(ctx context.Context) (err error) {
		scope, _ := GetScope(ctx)
		if scope.InTx() {
			return fn(ctx)
		}

		tx, err := scope.Conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", ClassifyError(err))
		}
		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback(ctx)
				panic(p)
			}
			if err != nil {
				_ = tx.Rollback(ctx)
			}
		}()

		if err = fn(SetScope(ctx, &Scope{Conn: scope.Conn, tx: tx})); err != nil {
			return err
		}

		if err = tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", ClassifyError(err))
		}
		return nil
	})
}

// QuerierFrom returns the Querier of the scope stored in ctx.
func QuerierFrom(ctx context.Context) (Querier, error) {
	scope, ok := GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}
	return scope.Querier(), nil
}
