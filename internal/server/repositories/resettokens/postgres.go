// Package resettokens provides a PostgreSQL-backed repository recording the
// digests of redeemed password-reset tokens. Rows only need to live as long
// as the token validity window; after that the token is rejected as expired
// before this repository is ever consulted.
package resettokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/angel-serrato/authweb/internal/common"
	"github.com/angel-serrato/authweb/internal/dbx"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// MarkUsed inserts the token digest. The primary key on token_hash makes the
// insert the atomic "first redemption wins" check: a duplicate insert is
// reported as common.ErrTokenConsumed.
func (r *PostgresRepository) MarkUsed(ctx context.Context, digest string, ttl time.Duration) error {
	query := `
		INSERT INTO used_reset_tokens (token_hash, expires_at)
		VALUES ($1, $2)
	`
	_, err := r.db.ExecContext(ctx, query, digest, time.Now().Add(ttl))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return common.ErrTokenConsumed
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// PurgeExpired removes digests of tokens that are past their validity window.
func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM used_reset_tokens
		WHERE expires_at < now()
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
