package sources

import (
	"context"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, s *models.Source) (*models.Source, error) {
	query :=
		`INSERT INTO sources (owner, name, type, url, login, passcode, vhost)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, active, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		s.Owner, s.Name, s.Type, s.URL, s.Login, s.Passcode, s.VHost).
		Scan(&s.ID, &s.Active, &s.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Update overwrites the editable fields of the source identified by
// s.ID and s.Owner. Renaming onto an existing name yields
// common.ErrorAlreadyExists.
func (r *PostgresRepository) Update(ctx context.Context, s *models.Source) error {
	query :=
		`UPDATE sources
		 SET name = $3, type = $4, url = $5, login = $6, passcode = $7, vhost = $8
		 WHERE id = $1 AND owner = $2
		 `

	res, err := r.db.ExecContext(ctx, query, s.ID, s.Owner, s.Name, s.Type, s.URL, s.Login, s.Passcode, s.VHost)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return rowsAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, owner string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return rowsAffected(res)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]*models.Source, error) {
	query :=
		`SELECT id, owner, name, type, url, login, passcode, vhost, active, created_at
		 FROM sources WHERE owner = $1 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Source
	for rows.Next() {
		s := &models.Source{}
		if err := rows.Scan(&s.ID, &s.Owner, &s.Name, &s.Type, &s.URL, &s.Login, &s.Passcode, &s.VHost, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ExistsByName(ctx context.Context, owner, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sources WHERE owner = $1 AND name = $2)`, owner, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sources SET active = $2 WHERE id = $1`, id, active); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type result interface {
	RowsAffected() (int64, error)
}

func rowsAffected(res result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
