package store

import (
	"encoding/json"
	"time"
)

type User struct {
	ID                    string
	Email                 string
	DisplayName           string
	PasswordHash          string
	Preferences           json.RawMessage
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	ResetToken            string
	ResetExpiresAt        *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Reflection is one completed reflection in a user's history. Rows are
// append-only: after insert, only opened_at and the open-later status
// columns ever change.
type Reflection struct {
	ID             string
	UserID         string
	RawText        string
	Answers        json.RawMessage
	MirrorResponse string
	MoodWord       string
	Status         string
	RevisitType    string
	RevisitAt      *time.Time
	OpenedAt       *time.Time
	CreatedAt      time.Time
}

// MoodEntry is a mood check-in attached to a reflection, the raw input for
// the mood-over-time view.
type MoodEntry struct {
	ID           string
	ReflectionID string
	WordOrPhrase string
	Description  string
	CreatedAt    time.Time
}

type RevisitReminder struct {
	ID           string
	ReflectionID string
	RemindAt     time.Time
	Message      string
	CreatedAt    time.Time
}

// InsightLetter is the cached letter for one (user, period_start). Unique on
// that pair; immutable once written except via delete-then-regenerate.
type InsightLetter struct {
	ID              string
	UserID          string
	PeriodStart     string // YYYY-MM-DD, inclusive
	PeriodEnd       string // YYYY-MM-DD, inclusive
	Content         string
	ReflectionCount int
	CreatedAt       time.Time
}
