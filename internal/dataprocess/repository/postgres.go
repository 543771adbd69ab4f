package repository

import (
	"context"
	"database/sql"
	"errors"

	"silowatch/internal/dataprocess/domain"
)

// PostgresRepository implements Repository on the data_processes table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a data-process repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const dataProcessColumns = `id, silo_id, period_start, period_end,
	average_temperature, average_humidity, average_air_quality, environment_score, created_at`

func scanDataProcess(row interface{ Scan(...any) error }) (*domain.DataProcess, error) {
	var d domain.DataProcess
	err := row.Scan(&d.ID, &d.SiloID, &d.PeriodStart, &d.PeriodEnd,
		&d.AverageTemperature, &d.AverageHumidity, &d.AverageAirQuality, &d.EnvironmentScore, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByID returns the data-process result for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.DataProcess, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+dataProcessColumns+` FROM data_processes WHERE id = $1`, id)
	d, err := scanDataProcess(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// ListBySilo returns results for a silo, newest period first.
func (r *PostgresRepository) ListBySilo(ctx context.Context, siloID string) ([]*domain.DataProcess, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dataProcessColumns+` FROM data_processes WHERE silo_id = $1 ORDER BY period_start DESC`, siloID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.DataProcess
	for rows.Next() {
		d, err := scanDataProcess(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create persists the result. The result must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.DataProcess) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO data_processes (id, silo_id, period_start, period_end,
		   average_temperature, average_humidity, average_air_quality, environment_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.SiloID, d.PeriodStart, d.PeriodEnd,
		d.AverageTemperature, d.AverageHumidity, d.AverageAirQuality, d.EnvironmentScore, d.CreatedAt)
	return err
}

// Delete removes the result.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM data_processes WHERE id = $1`, id)
	return err
}
