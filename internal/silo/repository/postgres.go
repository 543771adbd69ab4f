package repository

import (
	"context"
	"database/sql"
	"errors"

	"silowatch/internal/silo/domain"
)

// PostgresRepository implements Repository on the silos table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a silo repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const siloColumns = `id, org_id, name, COALESCE(description, ''), grain, in_use,
	max_temperature, min_temperature, max_humidity, min_humidity, max_air_quality, min_air_quality,
	created_at, updated_at`

func scanSilo(row interface{ Scan(...any) error }) (*domain.Silo, error) {
	var s domain.Silo
	err := row.Scan(&s.ID, &s.OrgID, &s.Name, &s.Description, &s.Grain, &s.InUse,
		&s.MaxTemperature, &s.MinTemperature, &s.MaxHumidity, &s.MinHumidity,
		&s.MaxAirQuality, &s.MinAirQuality, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns the silo for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Silo, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+siloColumns+` FROM silos WHERE id = $1`, id)
	s, err := scanSilo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// List returns all silos.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Silo, error) {
	return r.querySilos(ctx, `SELECT `+siloColumns+` FROM silos ORDER BY name`)
}

// ListByOrg returns the silos owned by an organization.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Silo, error) {
	return r.querySilos(ctx, `SELECT `+siloColumns+` FROM silos WHERE org_id = $1 ORDER BY name`, orgID)
}

// Create persists the silo. The silo must have ID and OrgID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Silo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO silos (id, org_id, name, description, grain, in_use,
		   max_temperature, min_temperature, max_humidity, min_humidity, max_air_quality, min_air_quality,
		   created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.OrgID, s.Name, s.Description, s.Grain, s.InUse,
		s.MaxTemperature, s.MinTemperature, s.MaxHumidity, s.MinHumidity,
		s.MaxAirQuality, s.MinAirQuality, s.CreatedAt, s.UpdatedAt)
	return err
}

// Update persists mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, s *domain.Silo) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE silos SET name = $2, description = NULLIF($3, ''), grain = $4, in_use = $5,
		   max_temperature = $6, min_temperature = $7, max_humidity = $8, min_humidity = $9,
		   max_air_quality = $10, min_air_quality = $11, updated_at = now()
		 WHERE id = $1`,
		s.ID, s.Name, s.Description, s.Grain, s.InUse,
		s.MaxTemperature, s.MinTemperature, s.MaxHumidity, s.MinHumidity,
		s.MaxAirQuality, s.MinAirQuality)
	return err
}

// Delete removes the silo; mounted devices get silo_id nulled at the database level.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM silos WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) querySilos(ctx context.Context, query string, args ...any) ([]*domain.Silo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Silo
	for rows.Next() {
		s, err := scanSilo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
