package prefs

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL preference repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves the payload stored under key.
func (r *PostgresRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM filter_preferences
		WHERE key = $1
	`

	var value []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return value, nil
}

// Set stores the payload under key, replacing any previous value.
func (r *PostgresRepository) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO filter_preferences (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query, key, value, time.Now())
	return err
}

// Delete removes the payload stored under key.
func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM filter_preferences WHERE key = $1`
	_, err := r.pool.Exec(ctx, query, key)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
