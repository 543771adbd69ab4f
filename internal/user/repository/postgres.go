package repository

import (
	"context"
	"database/sql"
	"errors"

	"silowatch/internal/user/domain"
)

// PostgresRepository implements Repository on the users table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, org_id, email, name, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	var orgID sql.NullString
	var role string
	if err := row.Scan(&u.ID, &orgID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if orgID.Valid {
		u.OrgID = &orgID.String
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// GetByID returns the user for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetByEmail returns the user for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// List returns all users.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Create persists the user. The user must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	var orgID sql.NullString
	if u.OrgID != nil {
		orgID = sql.NullString{String: *u.OrgID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, org_id, email, name, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, orgID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
	return err
}

// Update persists mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	var orgID sql.NullString
	if u.OrgID != nil {
		orgID = sql.NullString{String: *u.OrgID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET org_id = $2, email = $3, name = $4, role = $5, updated_at = now() WHERE id = $1`,
		u.ID, orgID, u.Email, u.Name, string(u.Role))
	return err
}

// Delete removes the user.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
