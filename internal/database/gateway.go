// Package database is the persistence gateway of the application. It opens
// the relational store, applies the embedded schema and runs parameterized
// queries, handing results back as ordered field/value rows. It holds no
// business logic; repositories map rows into typed records.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by FindOne when the query produced no row.
var ErrNotFound = errors.New("database: no matching row")

// Querier is the query surface shared by the gateway and its transactions.
// Every value must be passed through args; queries are never built by
// string interpolation.
type Querier interface {
	Execute(ctx context.Context, query string, args ...any) ([]Row, error)
	FindOne(ctx context.Context, query string, args ...any) (Row, error)
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Dialect() string
}

// conn is satisfied by both *sql.DB and *sql.Tx.
type conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Gateway runs queries against a single store.
type Gateway struct {
	db      *sql.DB
	dialect string
}

// New wraps an already opened handle. dialect is one of DriverSQLite or
// DriverMySQL and selects dialect specific SQL in repositories.
func New(db *sql.DB, dialect string) *Gateway {
	return &Gateway{db: db, dialect: dialect}
}

// DB exposes the underlying handle.
func (g *Gateway) DB() *sql.DB { return g.db }

// Dialect reports the SQL dialect of the store.
func (g *Gateway) Dialect() string { return g.dialect }

// Close releases the connection pool.
func (g *Gateway) Close() error { return g.db.Close() }

// Execute runs query and returns every row it produced.
func (g *Gateway) Execute(ctx context.Context, query string, args ...any) ([]Row, error) {
	return execute(ctx, g.db, query, args...)
}

// FindOne returns the first row of query, or ErrNotFound.
func (g *Gateway) FindOne(ctx context.Context, query string, args ...any) (Row, error) {
	return findOne(ctx, g.db, query, args...)
}

// Exec runs a statement that returns no rows.
func (g *Gateway) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return g.db.ExecContext(ctx, query, args...)
}

// InTx runs fn inside a transaction. The transaction is rolled back when
// fn returns an error and committed otherwise.
func (g *Gateway) InTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(&txQuerier{tx: tx, dialect: g.dialect}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txQuerier struct {
	tx      *sql.Tx
	dialect string
}

func (t *txQuerier) Execute(ctx context.Context, query string, args ...any) ([]Row, error) {
	return execute(ctx, t.tx, query, args...)
}

func (t *txQuerier) FindOne(ctx context.Context, query string, args ...any) (Row, error) {
	return findOne(ctx, t.tx, query, args...)
}

func (t *txQuerier) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *txQuerier) Dialect() string { return t.dialect }

func execute(ctx context.Context, c conn, query string, args ...any) ([]Row, error) {
	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, Row{cols: cols, vals: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne(ctx context.Context, c conn, query string, args ...any) (Row, error) {
	rows, err := execute(ctx, c, query, args...)
	if err != nil {
		return Row{}, err
	}
	if len(rows) == 0 {
		return Row{}, ErrNotFound
	}
	return rows[0], nil
}
