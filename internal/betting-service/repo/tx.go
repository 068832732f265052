package repo

import (
	"context"
	"database/sql"
	"fmt"
)

// querier é satisfeito por *sql.DB e *sql.Tx, permitindo que os stores
// executem dentro ou fora de uma transação sem mudar de assinatura.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// DB embrulha o *sql.DB e delimita transações via contexto.
type DB struct{ sql *sql.DB }

func NewDB(db *sql.DB) *DB { return &DB{sql: db} }

// InTx executa fn dentro de uma transação read-committed. Qualquer erro de fn
// desfaz todas as escritas feitas pelos stores através do mesmo contexto.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// q devolve o executor ligado à transação corrente, se houver.
func (d *DB) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return d.sql
}
