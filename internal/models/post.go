package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a community feed entry.
type Post struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"user_id"`
	User      *Profile  `json:"user,omitempty"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	SessionID *uuid.UUID `json:"session_id,omitempty"` // linked workout session, if shared from one
	Likes     int       `json:"likes"`
	Liked     bool      `json:"liked"` // by the requesting user
	Comments  []Comment `json:"comments,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is one comment on a post. The newest 100 are retained.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	UserID    int       `json:"user_id"`
	User      *Profile  `json:"user,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Pagination describes a paged list response.
type Pagination struct {
	Current int  `json:"current"`
	Pages   int  `json:"pages"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// NewPagination computes page metadata from a total row count.
func NewPagination(page, limit, total int) Pagination {
	pages := (total + limit - 1) / limit
	return Pagination{
		Current: page,
		Pages:   pages,
		Total:   total,
		HasNext: page*limit < total,
		HasPrev: page > 1,
	}
}
