package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"pcbuild/core/types"
	"pcbuild/internal/errors"
)

// PostgresStore keeps account configurations in the saved_configurations table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and ensures the schema exists
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New(errors.TypeConfig, "postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Storage("failed to open postgres", err)
	}
	store := &PostgresStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreFromDB wraps an existing handle
func NewPostgresStoreFromDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	store := &PostgresStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saved_configurations (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			owner_id    TEXT NOT NULL DEFAULT '',
			components  JSONB NOT NULL,
			total_price NUMERIC(12,2) NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS saved_configurations_owner_idx
			ON saved_configurations (owner_id, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Storage("failed to ensure schema", err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, cfg *types.SavedConfiguration) error {
	if err := prepare(cfg); err != nil {
		return err
	}
	components, err := json.Marshal(cfg.Components)
	if err != nil {
		return errors.Internal("failed to marshal components", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_configurations (id, name, owner_id, components, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			components = EXCLUDED.components,
			total_price = EXCLUDED.total_price`,
		cfg.ID, cfg.Name, cfg.OwnerID, components, cfg.TotalPrice, cfg.CreatedAt)
	if err != nil {
		return errors.Storage("failed to insert configuration", err)
	}
	return nil
}

const selectColumns = `SELECT id, name, owner_id, components, total_price, created_at FROM saved_configurations`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfiguration(row rowScanner) (*types.SavedConfiguration, error) {
	var (
		cfg        types.SavedConfiguration
		components []byte
	)
	if err := row.Scan(&cfg.ID, &cfg.Name, &cfg.OwnerID, &components, &cfg.TotalPrice, &cfg.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(components, &cfg.Components); err != nil {
		return nil, errors.Storage("failed to decode components", err)
	}
	return &cfg, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*types.SavedConfiguration, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	cfg, err := scanConfiguration(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("configuration", id)
	}
	if err != nil {
		return nil, errors.Storage("failed to get configuration", err)
	}
	return cfg, nil
}

func (s *PostgresStore) List(ctx context.Context, filter *ListFilter) ([]*types.SavedConfiguration, error) {
	query, args := buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Storage("failed to list configurations", err)
	}
	defer rows.Close()

	var results []*types.SavedConfiguration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, errors.Storage("failed to scan configuration", err)
		}
		results = append(results, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("failed to iterate configurations", err)
	}
	return results, nil
}

// buildListQuery renders the filter as a parameterised query
func buildListQuery(filter *ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.OwnerID != "" {
			where = append(where, "owner_id = "+arg(filter.OwnerID))
		}
		if !filter.Since.IsZero() {
			where = append(where, "created_at >= "+arg(filter.Since))
		}
		if filter.MaxTotal.IsPositive() {
			where = append(where, "total_price <= "+arg(filter.MaxTotal))
		}
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter != nil && filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter != nil && filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}
	return query, args
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_configurations WHERE id = $1`, id)
	if err != nil {
		return errors.Storage("failed to delete configuration", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("configuration", id)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
