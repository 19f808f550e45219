package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ProfileRepository persists device profiles across daemon restarts.
// This abstraction allows for different implementations (SQLite, mock)
// and keeps the dispatch engine free of storage concerns.
type ProfileRepository interface {
	// Load retrieves the stored profile for a serial number.
	// Returns ErrProfileNotFound if none exists.
	Load(ctx context.Context, serial string) (*Profile, error)

	// Save stores the profile for a serial number, replacing any
	// previous version.
	Save(ctx context.Context, serial string, p *Profile) error

	// Delete removes the stored profile for a serial number.
	// Deleting a missing profile is not an error.
	Delete(ctx context.Context, serial string) error
}

// SQLiteProfileRepository implements ProfileRepository using SQLite.
type SQLiteProfileRepository struct {
	db *sql.DB
}

// NewSQLiteProfileRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the profile
// schema migrated.
func NewSQLiteProfileRepository(db *sql.DB) *SQLiteProfileRepository {
	return &SQLiteProfileRepository{db: db}
}

// Load retrieves the stored profile for a serial number.
func (r *SQLiteProfileRepository) Load(ctx context.Context, serial string) (*Profile, error) {
	var (
		name, id    string
		currentMode int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT name, profile_id, current_mode FROM profiles WHERE serial = ?`,
		serial,
	).Scan(&name, &id, &currentMode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	p := NewProfile()
	p.Name = name
	p.ID = id

	rows, err := r.db.QueryContext(ctx,
		`SELECT idx, data FROM modes WHERE serial = ? ORDER BY idx`,
		serial,
	)
	if err != nil {
		return nil, fmt.Errorf("querying modes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idx  int
			data []byte
		)
		if err := rows.Scan(&idx, &data); err != nil {
			return nil, fmt.Errorf("scanning mode row: %w", err)
		}
		if idx < 0 || idx >= len(p.Modes) {
			return nil, fmt.Errorf("%w: mode index %d out of range", ErrInvalidProfile, idx)
		}
		mode := &Mode{}
		if err := json.Unmarshal(data, mode); err != nil {
			return nil, fmt.Errorf("%w: decoding mode %d: %w", ErrInvalidProfile, idx, err)
		}
		p.Modes[idx] = mode
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating modes: %w", err)
	}

	if currentMode < 0 || currentMode >= len(p.Modes) {
		currentMode = 0
	}
	p.Current = p.Modes[currentMode]

	return p, nil
}

// Save stores the profile for a serial number, replacing any previous
// version. The whole write runs in one transaction so a crash cannot
// leave a profile with modes from two generations.
func (r *SQLiteProfileRepository) Save(ctx context.Context, serial string, p *Profile) error {
	current := p.IndexOf(p.Current)
	if current < 0 {
		current = 0
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (serial, name, profile_id, current_mode, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(serial) DO UPDATE SET
		   name = excluded.name,
		   profile_id = excluded.profile_id,
		   current_mode = excluded.current_mode,
		   updated_at = excluded.updated_at`,
		serial, p.Name, p.ID, current, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM modes WHERE serial = ?`, serial); err != nil {
		return fmt.Errorf("clearing modes: %w", err)
	}

	for idx, mode := range p.Modes {
		data, err := json.Marshal(mode)
		if err != nil {
			return fmt.Errorf("encoding mode %d: %w", idx, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO modes (serial, idx, data) VALUES (?, ?, ?)`,
			serial, idx, data,
		); err != nil {
			return fmt.Errorf("inserting mode %d: %w", idx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing profile: %w", err)
	}
	return nil
}

// Delete removes the stored profile for a serial number.
func (r *SQLiteProfileRepository) Delete(ctx context.Context, serial string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM modes WHERE serial = ?`, serial); err != nil {
		return fmt.Errorf("deleting modes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE serial = ?`, serial); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}
