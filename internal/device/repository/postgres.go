package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"silowatch/internal/device/domain"
)

// PostgresRepository implements Repository on the devices table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const deviceColumns = `id, name, silo_id, is_online, last_seen_at, created_at, updated_at`

func scanDevice(row interface{ Scan(...any) error }) (*domain.Device, error) {
	var d domain.Device
	var siloID sql.NullString
	var lastSeen sql.NullTime
	if err := row.Scan(&d.ID, &d.Name, &siloID, &d.IsOnline, &lastSeen, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if siloID.Valid {
		d.SiloID = &siloID.String
	}
	if lastSeen.Valid {
		d.LastSeenAt = &lastSeen.Time
	}
	return &d, nil
}

// GetByID returns the device for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// List returns all registered devices.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Device, error) {
	return r.queryDevices(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY id`)
}

// ListOnlineBySilo returns online devices mounted on the given silo.
func (r *PostgresRepository) ListOnlineBySilo(ctx context.Context, siloID string) ([]*domain.Device, error) {
	return r.queryDevices(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE silo_id = $1 AND is_online ORDER BY id`, siloID)
}

// Create persists the device. The device must have ID set (device ids are
// assigned by the operator, not generated).
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (id, name, silo_id, is_online, last_seen_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.Name, nullString(d.SiloID), d.IsOnline, nullTime(d.LastSeenAt), d.CreatedAt, d.UpdatedAt)
	return err
}

// Update persists name and silo assignment.
func (r *PostgresRepository) Update(ctx context.Context, d *domain.Device) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE devices SET name = $2, silo_id = $3, updated_at = now() WHERE id = $1`,
		d.ID, d.Name, nullString(d.SiloID))
	return err
}

// Delete removes the device. History rows are left to the store's retention.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id)
	return err
}

// SetOnline marks the device online and records when it was last seen.
func (r *PostgresRepository) SetOnline(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE devices SET is_online = TRUE, last_seen_at = $2, updated_at = now() WHERE id = $1`,
		id, at.UTC())
	return err
}

// FindStale returns online devices not seen since the cutoff.
func (r *PostgresRepository) FindStale(ctx context.Context, cutoff time.Time) ([]*domain.Device, error) {
	return r.queryDevices(ctx,
		`SELECT `+deviceColumns+` FROM devices
		 WHERE is_online AND last_seen_at IS NOT NULL AND last_seen_at < $1 ORDER BY id`,
		cutoff.UTC())
}

// MarkOfflineIfUnseen conditionally flips the online flag. The last_seen_at
// guard makes the sweep safe against a hello arriving between its read and write.
func (r *PostgresRepository) MarkOfflineIfUnseen(ctx context.Context, id string, seenAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET is_online = FALSE, updated_at = now()
		 WHERE id = $1 AND is_online AND last_seen_at = $2`,
		id, seenAt.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OrgID resolves device → silo → organization. Returns "" when the chain is broken.
func (r *PostgresRepository) OrgID(ctx context.Context, deviceID string) (string, error) {
	var orgID string
	err := r.db.QueryRowContext(ctx,
		`SELECT s.org_id FROM devices d JOIN silos s ON s.id = d.silo_id WHERE d.id = $1`,
		deviceID).Scan(&orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return orgID, nil
}

func (r *PostgresRepository) queryDevices(ctx context.Context, query string, args ...any) ([]*domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
