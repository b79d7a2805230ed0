package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// InsertToken stores an opaque bearer token for a user.
func (db *DB) InsertToken(ctx context.Context, token string, userID int, expiresAt time.Time) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO auth_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}
	return nil
}

// UserIDForToken resolves a bearer token to a user id, refusing expired
// tokens. Returns 0 when the token is unknown.
func (db *DB) UserIDForToken(ctx context.Context, token string) (int, error) {
	var userID int
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id FROM auth_tokens WHERE token = $1 AND expires_at > NOW()`,
		token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolving token: %w", err)
	}
	return userID, nil
}

// DeleteToken revokes a single bearer token.
func (db *DB) DeleteToken(ctx context.Context, token string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM auth_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// DeleteExpiredTokens clears out tokens past their expiry. Returns the
// number removed.
func (db *DB) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
