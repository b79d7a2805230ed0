package models

import (
	"time"

	"github.com/google/uuid"
)

// Challenge categories and difficulties mirror the catalog the community
// UI filters on.
var (
	ChallengeCategories = []string{
		"weight-loss", "muscle-gain", "endurance", "flexibility", "strength",
		"cardio", "general-fitness", "sport-specific", "wellness", "nutrition",
	}
	ChallengeDifficulties = []string{"beginner", "intermediate", "advanced", "expert"}
	ChallengeTypes        = []string{"daily", "weekly", "monthly", "custom"}
)

// Challenge is a community challenge row.
type Challenge struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CreatorID       int        `json:"creator_id"`
	Creator         *Profile   `json:"creator,omitempty"`
	Category        string     `json:"category"`
	Difficulty      string     `json:"difficulty"`
	Type            string     `json:"type"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	MaxParticipants int        `json:"max_participants,omitempty"`
	Participants    int        `json:"participants"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	JoinedAt        *time.Time `json:"joined_at,omitempty"` // set when the requesting user participates
}

// Participant is one user's membership in a challenge.
type Participant struct {
	ChallengeID  uuid.UUID `json:"challenge_id"`
	UserID       int       `json:"user_id"`
	JoinedAt     time.Time `json:"joined_at"`
	Progress     int       `json:"progress"` // 0–100
	Status       string    `json:"status"`   // active, completed, dropped
	LastActivity time.Time `json:"last_activity"`
}

// Checkin is one progress report against a challenge.
type Checkin struct {
	ID          int64     `json:"id"`
	ChallengeID uuid.UUID `json:"challenge_id"`
	UserID      int       `json:"user_id"`
	Progress    int       `json:"progress"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeaderboardEntry is a ranked participant.
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	User     Profile `json:"user"`
	Progress int     `json:"progress"`
	Status   string  `json:"status"`
}
