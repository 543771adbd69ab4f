package repository

import (
	"context"
	"database/sql"
	"errors"

	"silowatch/internal/organization/domain"
)

// PostgresRepository implements Repository on the organizations table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orgColumns = `id, name, COALESCE(tax_id, ''), COALESCE(description, ''), COALESCE(address, ''), created_at, updated_at`

// GetByID returns the organization for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	var o domain.Organization
	err := r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id).
		Scan(&o.ID, &o.Name, &o.TaxID, &o.Description, &o.Address, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns all organizations.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Organization, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Organization
	for rows.Next() {
		var o domain.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.TaxID, &o.Description, &o.Address, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

// Create persists the organization. The organization must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Organization) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, tax_id, description, address, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7)`,
		o.ID, o.Name, o.TaxID, o.Description, o.Address, o.CreatedAt, o.UpdatedAt)
	return err
}

// Update persists mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, o *domain.Organization) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE organizations SET name = $2, tax_id = NULLIF($3, ''), description = NULLIF($4, ''),
		 address = NULLIF($5, ''), updated_at = now() WHERE id = $1`,
		o.ID, o.Name, o.TaxID, o.Description, o.Address)
	return err
}

// Delete removes the organization; silos and users cascade at the database level.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	return err
}
