package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/dbx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert replaces any previous reset of the same user.
func (r *PostgresRepository) Upsert(ctx context.Context, token *models.ResetToken) error {
	query :=
		`INSERT INTO reset_tokens (username, token, expire_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO UPDATE
		 SET token = EXCLUDED.token, expire_at = EXCLUDED.expire_at
		 `

	if _, err := r.db.ExecContext(ctx, query, token.Username, token.Token, token.ExpireAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*models.ResetToken, error) {
	query :=
		`SELECT username, token, expire_at FROM reset_tokens
		 WHERE username = $1
		 `

	t := &models.ResetToken{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&t.Username, &t.Token, &t.ExpireAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// Consume deletes the row only while it is unexpired, so of two concurrent
// redemptions at most one affects a row.
func (r *PostgresRepository) Consume(ctx context.Context, username string, now time.Time) error {
	query :=
		`DELETE FROM reset_tokens
		 WHERE username = $1 AND expire_at > $2
		 `

	res, err := r.db.ExecContext(ctx, query, username, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
