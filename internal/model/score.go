// Package model defines the data structures used throughout the application.
package model

import "time"

// Score is one quiz result on the leaderboard.
//
// UserID is optional: kids can post a score with just a display name, but if
// a signed-in account submitted it we keep the attribution so the account
// page can show their history.
type Score struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`  // display name, 1–40 chars
	Score     int       `json:"score"     db:"score"` // 0–100
	UserID    string    `json:"userId,omitempty" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
