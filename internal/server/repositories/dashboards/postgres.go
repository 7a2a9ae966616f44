package dashboards

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/dbx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
)

const columns = `id, owner, name, layout, items, next_id, password, shared, views, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDashboard(row scanner) (*models.Dashboard, error) {
	var (
		d             models.Dashboard
		layout, items []byte
		password      sql.NullString
	)

	if err := row.Scan(&d.ID, &d.Owner, &d.Name, &layout, &items, &d.NextID, &password, &d.Shared, &d.Views, &d.CreatedAt); err != nil {
		return nil, err
	}

	d.Layout = json.RawMessage(layout)
	d.Items = json.RawMessage(items)
	if password.Valid {
		d.Password = &password.String
	}
	return &d, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

// Create inserts d and fills its ID and CreatedAt. A name already used by
// the same owner yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, d *models.Dashboard) (*models.Dashboard, error) {
	query :=
		`INSERT INTO dashboards (owner, name, layout, items, next_id, password, shared, views)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at
		 `

	var password sql.NullString
	if d.Password != nil {
		password = sql.NullString{String: *d.Password, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		d.Owner, d.Name, []byte(d.Layout), []byte(d.Items), d.NextID, password, d.Shared, d.Views).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Dashboard, error) {
	query := `SELECT ` + columns + ` FROM dashboards WHERE id = $1`

	d, err := scanDashboard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return d, nil
}

// GetAndCountView increments views and returns the updated row in one
// statement.
func (r *PostgresRepository) GetAndCountView(ctx context.Context, id string) (*models.Dashboard, error) {
	query := `UPDATE dashboards SET views = views + 1 WHERE id = $1 RETURNING ` + columns

	d, err := scanDashboard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return d, nil
}

func (r *PostgresRepository) GetOwned(ctx context.Context, id, owner string) (*models.Dashboard, error) {
	query := `SELECT ` + columns + ` FROM dashboards WHERE id = $1 AND owner = $2`

	d, err := scanDashboard(r.db.QueryRowContext(ctx, query, id, owner))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return d, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]*models.Dashboard, error) {
	query := `SELECT ` + columns + ` FROM dashboards WHERE owner = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Dashboard
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ExistsByName(ctx context.Context, owner, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM dashboards WHERE owner = $1 AND name = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, owner, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// ToggleShared flips the shared flag and returns its new value.
func (r *PostgresRepository) ToggleShared(ctx context.Context, id, owner string) (bool, error) {
	query := `UPDATE dashboards SET shared = NOT shared WHERE id = $1 AND owner = $2 RETURNING shared`

	var shared bool
	if err := r.db.QueryRowContext(ctx, query, id, owner).Scan(&shared); err != nil {
		return false, notFoundOr(err)
	}
	return shared, nil
}

// SetPassword stores hash, or clears protection when hash is nil.
func (r *PostgresRepository) SetPassword(ctx context.Context, id, owner string, hash *string) error {
	var password sql.NullString
	if hash != nil {
		password = sql.NullString{String: *hash, Valid: true}
	}
	return r.execOwned(ctx, `UPDATE dashboards SET password = $3 WHERE id = $1 AND owner = $2`, id, owner, password)
}

func (r *PostgresRepository) Save(ctx context.Context, id, owner string, layout, items json.RawMessage, nextID int) error {
	query :=
		`UPDATE dashboards SET layout = $3, items = $4, next_id = $5
		 WHERE id = $1 AND owner = $2
		 `
	return r.execOwned(ctx, query, id, owner, []byte(layout), []byte(items), nextID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, owner string) error {
	return r.execOwned(ctx, `DELETE FROM dashboards WHERE id = $1 AND owner = $2`, id, owner)
}

func (r *PostgresRepository) execOwned(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

func (r *PostgresRepository) Totals(ctx context.Context) (int64, int64, error) {
	var count, views int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(views), 0) FROM dashboards`).Scan(&count, &views)
	if err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}
	return count, views, nil
}
