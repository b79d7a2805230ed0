package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/fitcircle/internal/models"
)

const postSelect = `
	SELECT p.id, p.user_id, p.content, p.image_url, p.workout_session_id, p.created_at,
	       u.id, u.username, u.first_name, u.last_name, u.profile_picture,
	       (SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
	       EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $1)
	FROM posts p
	JOIN users u ON u.id = p.user_id`

// InsertPost stores a new post.
func (db *DB) InsertPost(ctx context.Context, p *models.Post) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO posts (id, user_id, content, image_url, workout_session_id)
		 VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.UserID, p.Content, p.Image, p.SessionID)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	return nil
}

// Feed returns the paged timeline for a viewer: their own posts plus posts
// from users they follow, newest first.
func (db *DB) Feed(ctx context.Context, viewerID, page, limit int) ([]models.Post, models.Pagination, error) {
	const scope = ` WHERE p.user_id = $1
	   OR p.user_id IN (SELECT followee_id FROM follows WHERE follower_id = $1)`

	var total int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts p`+scope, viewerID).Scan(&total)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("counting feed: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		postSelect+scope+` ORDER BY p.created_at DESC LIMIT $2 OFFSET $3`,
		viewerID, limit, (page-1)*limit)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("querying feed: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Pagination{}, err
	}

	for i := range posts {
		comments, err := db.postComments(ctx, posts[i].ID)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		posts[i].Comments = comments
	}
	return posts, models.NewPagination(page, limit, total), nil
}

// GetPost returns one post with its comments, or nil.
func (db *DB) GetPost(ctx context.Context, id uuid.UUID, viewerID int) (*models.Post, error) {
	row := db.Pool.QueryRow(ctx, postSelect+` WHERE p.id = $2`, viewerID, id)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Comments, err = db.postComments(ctx, p.ID)
	return p, err
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var (
		p      models.Post
		author models.Profile
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.Image, &p.SessionID, &p.CreatedAt,
		&author.ID, &author.Username, &author.FirstName, &author.LastName, &author.ProfilePicture,
		&p.Likes, &p.Liked)
	if err != nil {
		return nil, err
	}
	p.User = &author
	return &p, nil
}

func (db *DB) postComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		       u.id, u.username, u.first_name, u.last_name, u.profile_picture
		FROM post_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
		LIMIT 100`, postID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var (
			c      models.Comment
			author models.Profile
		)
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt,
			&author.ID, &author.Username, &author.FirstName, &author.LastName, &author.ProfilePicture); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.User = &author
		out = append(out, c)
	}
	return out, rows.Err()
}

// ToggleLike likes a post the viewer has not liked yet, or removes their
// existing like. Returns the new liked state and the updated like count.
func (db *DB) ToggleLike(ctx context.Context, postID uuid.UUID, userID int) (bool, int, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		postID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("liking post: %w", err)
	}
	liked := tag.RowsAffected() > 0
	if !liked {
		if _, err := db.Pool.Exec(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
			postID, userID); err != nil {
			return false, 0, fmt.Errorf("unliking post: %w", err)
		}
	}

	var count int
	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&count)
	if err != nil {
		return false, 0, fmt.Errorf("counting likes: %w", err)
	}
	return liked, count, nil
}

// DeletePost removes a post the caller owns. Returns false when no matching
// row exists.
func (db *DB) DeletePost(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting post: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertComment adds a comment, filling its generated id and timestamp.
// Only the newest 100 comments per post are kept.
func (db *DB) InsertComment(ctx context.Context, c *models.Comment) error {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO post_comments (post_id, user_id, content)
		 VALUES ($1,$2,$3) RETURNING id, created_at`,
		c.PostID, c.UserID, c.Content).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	_, err = db.Pool.Exec(ctx,
		`DELETE FROM post_comments
		 WHERE post_id = $1 AND id NOT IN (
		   SELECT id FROM post_comments WHERE post_id = $1 ORDER BY created_at DESC LIMIT 100)`,
		c.PostID)
	if err != nil {
		return fmt.Errorf("trimming comments: %w", err)
	}
	return nil
}

// PostExists reports whether a post id is present.
func (db *DB) PostExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE id = $1`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking post: %w", err)
	}
	return count > 0, nil
}
