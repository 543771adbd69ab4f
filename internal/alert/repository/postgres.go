package repository

import (
	"context"
	"database/sql"
	"errors"

	"silowatch/internal/alert/domain"
)

// PostgresRepository implements Repository on the alerts table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an alert repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const alertColumns = `id, silo_id, type, level, current_value, COALESCE(message, ''), created_at`

func scanAlert(row interface{ Scan(...any) error }) (*domain.Alert, error) {
	var a domain.Alert
	var typ, level string
	if err := row.Scan(&a.ID, &a.SiloID, &typ, &level, &a.CurrentValue, &a.Message, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Type = domain.Type(typ)
	a.Level = domain.Level(level)
	return &a, nil
}

// GetByID returns the alert for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListBySilo returns the alerts recorded for a silo, newest first.
func (r *PostgresRepository) ListBySilo(ctx context.Context, siloID string) ([]*domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE silo_id = $1 ORDER BY created_at DESC`, siloID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists the alert. The alert must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Alert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (id, silo_id, type, level, current_value, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
		a.ID, a.SiloID, string(a.Type), string(a.Level), a.CurrentValue, a.Message, a.CreatedAt)
	return err
}

// Delete removes the alert.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	return err
}
