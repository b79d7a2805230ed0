package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/fitcircle/internal/models"
)

// CreateUser inserts a new account. Returns the assigned user ID.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, profile_picture)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.ProfilePicture).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}
	return id, nil
}

// GetUserByUsername returns the user with the given username, or nil.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, `WHERE username = $1`, username)
}

// GetUserByEmail returns the user with the given email, or nil.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, `WHERE email = $1`, email)
}

// GetUserByID returns the user with the given id, or nil.
func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return db.getUser(ctx, `WHERE id = $1`, id)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, first_name, last_name, profile_picture, created_at, last_seen
		 FROM users `+where, arg)
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.ProfilePicture, &u.CreatedAt, &u.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// GetOrCreateTailscaleUser finds or creates a user from a tailnet login.
// Updates last_seen and display name on each call; the account has no
// password and authenticates via the tailnet only.
func (db *DB) GetOrCreateTailscaleUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, first_name)
		VALUES ($1, $1, '', $2)
		ON CONFLICT (username) DO UPDATE
			SET last_seen = NOW(), first_name = COALESCE(NULLIF($2, ''), users.first_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	return id, err
}

// Follow records follower → followee. Returns false when already following.
func (db *DB) Follow(ctx context.Context, followerID, followeeID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("following user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Unfollow removes follower → followee. Returns false when the follow did
// not exist.
func (db *DB) Unfollow(ctx context.Context, followerID, followeeID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`,
		followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("unfollowing user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListFollowing returns the profiles a user follows.
func (db *DB) ListFollowing(ctx context.Context, userID int) ([]models.Profile, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT u.id, u.username, u.first_name, u.last_name, u.profile_picture
		 FROM follows f JOIN users u ON u.id = f.followee_id
		 WHERE f.follower_id = $1
		 ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing following: %w", err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.FirstName, &p.LastName, &p.ProfilePicture); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
