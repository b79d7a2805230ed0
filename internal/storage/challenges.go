package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/fitcircle/internal/models"
)

// ChallengeFilter narrows a challenge listing.
type ChallengeFilter struct {
	Category   string
	Difficulty string
	Status     string // active, upcoming, completed
	Search     string
	Page       int
	Limit      int
}

// InsertChallenge creates a challenge and enrolls the creator as its first
// participant.
func (db *DB) InsertChallenge(ctx context.Context, c *models.Challenge) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO challenges (id, title, description, creator_id, category, difficulty, type,
			 start_date, end_date, max_participants, is_active)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			c.ID, c.Title, c.Description, c.CreatorID, c.Category, c.Difficulty, c.Type,
			c.StartDate, c.EndDate, c.MaxParticipants, c.IsActive)
		if err != nil {
			return fmt.Errorf("inserting challenge: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO challenge_participants (challenge_id, user_id) VALUES ($1, $2)`,
			c.ID, c.CreatorID)
		if err != nil {
			return fmt.Errorf("enrolling creator: %w", err)
		}
		return nil
	})
}

// QueryChallenges lists challenges with filters and pagination. viewerID
// fills JoinedAt for challenges the viewer participates in; pass 0 for
// anonymous listings.
func (db *DB) QueryChallenges(ctx context.Context, viewerID int, f ChallengeFilter) ([]models.Challenge, models.Pagination, error) {
	where := `WHERE c.is_active`
	var args []any

	add := func(clause string, val any) {
		args = append(args, val)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}
	if f.Category != "" {
		add("c.category = $%d", f.Category)
	}
	if f.Difficulty != "" {
		add("c.difficulty = $%d", f.Difficulty)
	}
	switch f.Status {
	case "upcoming":
		add("c.start_date > $%d", time.Now())
	case "completed":
		add("c.end_date < $%d", time.Now())
	default: // active
		add("c.start_date <= $%[1]d AND c.end_date >= $%[1]d", time.Now())
	}
	if f.Search != "" {
		add("(c.title ILIKE '%%' || $%[1]d || '%%' OR c.description ILIKE '%%' || $%[1]d || '%%')", f.Search)
	}

	var total int
	if err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM challenges c `+where, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("counting challenges: %w", err)
	}

	args = append(args, viewerID, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT c.id, c.title, c.description, c.creator_id, c.category, c.difficulty, c.type,
		       c.start_date, c.end_date, c.max_participants, c.is_active, c.created_at,
		       u.id, u.username, u.first_name, u.last_name, u.profile_picture,
		       (SELECT COUNT(*) FROM challenge_participants p WHERE p.challenge_id = c.id),
		       (SELECT p.joined_at FROM challenge_participants p WHERE p.challenge_id = c.id AND p.user_id = $%d)
		FROM challenges c
		JOIN users u ON u.id = c.creator_id
		%s
		ORDER BY c.created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)-2, where, len(args)-1, len(args))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("querying challenges: %w", err)
	}
	defer rows.Close()

	var out []models.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		out = append(out, *c)
	}
	return out, models.NewPagination(f.Page, f.Limit, total), rows.Err()
}

// GetChallenge returns one challenge with creator and participant count,
// or nil.
func (db *DB) GetChallenge(ctx context.Context, id uuid.UUID, viewerID int) (*models.Challenge, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT c.id, c.title, c.description, c.creator_id, c.category, c.difficulty, c.type,
		       c.start_date, c.end_date, c.max_participants, c.is_active, c.created_at,
		       u.id, u.username, u.first_name, u.last_name, u.profile_picture,
		       (SELECT COUNT(*) FROM challenge_participants p WHERE p.challenge_id = c.id),
		       (SELECT p.joined_at FROM challenge_participants p WHERE p.challenge_id = c.id AND p.user_id = $2)
		FROM challenges c
		JOIN users u ON u.id = c.creator_id
		WHERE c.id = $1`, id, viewerID)
	c, err := scanChallenge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	var (
		c       models.Challenge
		creator models.Profile
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.CreatorID, &c.Category, &c.Difficulty, &c.Type,
		&c.StartDate, &c.EndDate, &c.MaxParticipants, &c.IsActive, &c.CreatedAt,
		&creator.ID, &creator.Username, &creator.FirstName, &creator.LastName, &creator.ProfilePicture,
		&c.Participants, &c.JoinedAt)
	if err != nil {
		return nil, err
	}
	c.Creator = &creator
	return &c, nil
}

// UpdateChallenge updates the mutable fields of a challenge the caller
// created. Returns false when no matching row exists.
func (db *DB) UpdateChallenge(ctx context.Context, c *models.Challenge) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE challenges SET title = $3, description = $4, category = $5, difficulty = $6,
		 end_date = $7, max_participants = $8
		 WHERE id = $1 AND creator_id = $2`,
		c.ID, c.CreatorID, c.Title, c.Description, c.Category, c.Difficulty,
		c.EndDate, c.MaxParticipants)
	if err != nil {
		return false, fmt.Errorf("updating challenge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeactivateChallenge soft-deletes a challenge owned by the caller.
func (db *DB) DeactivateChallenge(ctx context.Context, id uuid.UUID, creatorID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE challenges SET is_active = FALSE WHERE id = $1 AND creator_id = $2`,
		id, creatorID)
	if err != nil {
		return false, fmt.Errorf("deactivating challenge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// JoinChallenge enrolls a user. Returns false when already a participant.
func (db *DB) JoinChallenge(ctx context.Context, challengeID uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO challenge_participants (challenge_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		challengeID, userID)
	if err != nil {
		return false, fmt.Errorf("joining challenge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// LeaveChallenge removes a participant. Returns false when they were not
// enrolled.
func (db *DB) LeaveChallenge(ctx context.Context, challengeID uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID)
	if err != nil {
		return false, fmt.Errorf("leaving challenge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// IsParticipant reports whether a user is enrolled in a challenge.
func (db *DB) IsParticipant(ctx context.Context, challengeID uuid.UUID, userID int) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking participant: %w", err)
	}
	return count > 0, nil
}

// InsertCheckin records a progress report and advances the participant's
// progress and activity timestamp in one transaction.
func (db *DB) InsertCheckin(ctx context.Context, c *models.Checkin) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO challenge_checkins (challenge_id, user_id, progress, notes)
			 VALUES ($1,$2,$3,$4)`,
			c.ChallengeID, c.UserID, c.Progress, c.Notes)
		if err != nil {
			return fmt.Errorf("inserting checkin: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE challenge_participants
			 SET progress = $3, last_activity = NOW(),
			     status = CASE WHEN $3 >= 100 THEN 'completed' ELSE status END
			 WHERE challenge_id = $1 AND user_id = $2`,
			c.ChallengeID, c.UserID, c.Progress)
		if err != nil {
			return fmt.Errorf("updating participant progress: %w", err)
		}
		return nil
	})
}

// Leaderboard ranks a challenge's participants by progress.
func (db *DB) Leaderboard(ctx context.Context, challengeID uuid.UUID) ([]models.LeaderboardEntry, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name, u.profile_picture,
		       p.progress, p.status
		FROM challenge_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.challenge_id = $1
		ORDER BY p.progress DESC, p.joined_at ASC`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var out []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.User.ID, &e.User.Username, &e.User.FirstName, &e.User.LastName,
			&e.User.ProfilePicture, &e.Progress, &e.Status); err != nil {
			return nil, fmt.Errorf("scanning leaderboard entry: %w", err)
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, rows.Err()
}
