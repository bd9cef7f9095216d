package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists token pairs in a hubspot_connections table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool to dbURL. Close releases it.
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("db url missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Upsert(ctx context.Context, pair TokenPair) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO hubspot_connections (portal_id, access_token, refresh_token, expires_at, scope, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (portal_id) DO UPDATE
SET access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at = EXCLUDED.expires_at,
    scope = EXCLUDED.scope,
    updated_at = now()
`, pair.PortalID, pair.AccessToken, pair.RefreshToken, pair.ExpiresAt, pair.Scope)
	if err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, portalID string) (*TokenPair, error) {
	var pair TokenPair
	err := s.pool.QueryRow(ctx, `
SELECT portal_id, access_token, refresh_token, expires_at, scope
FROM hubspot_connections WHERE portal_id = $1
`, portalID).Scan(&pair.PortalID, &pair.AccessToken, &pair.RefreshToken, &pair.ExpiresAt, &pair.Scope)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query connection: %w", err)
	}
	return &pair, nil
}

func (s *PostgresStore) Delete(ctx context.Context, portalID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM hubspot_connections WHERE portal_id = $1`, portalID); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}
