package model

import "time"

// User is a grown-up account (parent or teacher) that can sign in to keep
// track of scores. Two sign-in paths feed this struct:
//
//   - GitHub OAuth: GitHubID is set (GitHub's numeric user ID, int64 to be
//     safe for large account numbers), PasswordHash is empty.
//   - Email/password: Email and PasswordHash are set, GitHubID is zero and
//     stored as NULL so the UNIQUE constraint on github_id isn't tripped by
//     multiple password-only accounts.
//
// Either way we generate our own internal xid so primary keys never depend on
// a third party's numbering.
//
// PasswordHash is the bcrypt hash, never the password itself, and is excluded
// from JSON so it can't leak through an API response.
type User struct {
	ID           string    `json:"id"        db:"id"`
	GitHubID     int64     `json:"githubId,omitempty" db:"github_id"`
	Login        string    `json:"login"     db:"login"`
	Email        string    `json:"email"     db:"email"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
