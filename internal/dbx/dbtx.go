// Package dbx holds the small database plumbing the repositories build on:
// the DBTX handle they accept, and WithTx for running several repository
// calls inside one transaction (the reset flow records the consumed token
// and updates the password this way).
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the execution handle repositories accept, satisfied by both
// *sql.DB and *sql.Tx. A repository bound to a *sql.Tx joins whatever
// transaction the caller opened.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction: commit when fn returns nil, rollback
// when it returns an error or panics (the panic is rethrown after rollback).
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := repos.ResetTokens(tx).MarkUsed(ctx, digest, ttl); err != nil {
//	        return err
//	    }
//	    return repos.Users(tx).UpdatePassword(ctx, email, hash)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
