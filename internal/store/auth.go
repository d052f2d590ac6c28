package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoAuth is returned when no Strava authorization is stored
var ErrNoAuth = errors.New("no authentication stored")

// ScopeActivityReadAll lets sync see private rides
const ScopeActivityReadAll = "activity:read_all"

// HasScope reports whether the athlete granted scope.
// Strava reports granted scopes comma-separated.
func (a *Auth) HasScope(scope string) bool {
	for _, s := range strings.Split(a.Scope, ",") {
		if strings.TrimSpace(s) == scope {
			return true
		}
	}
	return false
}

// GetAuth returns the single stored Strava authorization
func (db *DB) GetAuth(ctx context.Context) (*Auth, error) {
	var (
		a       Auth
		expires string
	)
	err := db.QueryRowContext(ctx,
		`SELECT athlete_id, scope, access_token, refresh_token, expires_at FROM auth WHERE id = 1`,
	).Scan(&a.AthleteID, &a.Scope, &a.AccessToken, &a.RefreshToken, &expires)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNoAuth
	case err != nil:
		return nil, fmt.Errorf("reading auth: %w", err)
	}

	if a.ExpiresAt, err = time.Parse(time.RFC3339, expires); err != nil {
		return nil, fmt.Errorf("parsing token expiry %q: %w", expires, err)
	}
	return &a, nil
}

// SaveAuth replaces the stored authorization after a new OAuth grant
func (db *DB) SaveAuth(ctx context.Context, a *Auth) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO auth (id, athlete_id, scope, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id    = excluded.athlete_id,
			scope         = excluded.scope,
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at    = excluded.expires_at,
			updated_at    = CURRENT_TIMESTAMP
	`, a.AthleteID, a.Scope, a.AccessToken, a.RefreshToken, formatExpiry(a.ExpiresAt))
	if err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	return nil
}

// UpdateTokens stores a refreshed token pair. Strava rotates the refresh
// token, so both are written together.
func (db *DB) UpdateTokens(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) error {
	return db.execAuth(ctx, `
		UPDATE auth
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, accessToken, refreshToken, formatExpiry(expiresAt))
}

// DeleteAuth forgets the stored authorization. The next sync runs the
// browser flow again.
func (db *DB) DeleteAuth(ctx context.Context) error {
	return db.execAuth(ctx, `DELETE FROM auth WHERE id = 1`)
}

// execAuth runs a statement on the auth row, returning ErrNoAuth when
// there is no row to touch
func (db *DB) execAuth(ctx context.Context, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating auth: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating auth: %w", err)
	}
	if n == 0 {
		return ErrNoAuth
	}
	return nil
}

func formatExpiry(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
