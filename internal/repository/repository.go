// Package repository declares the persistence interfaces the service layer
// depends on. The sqlite subpackage is the concrete implementation; tests use
// in-memory mocks. Services program to these interfaces and never see SQL.
package repository

import (
	"context"

	"github.com/kidslearn/api/internal/model"
)

// ScoreRepository stores and ranks quiz scores.
type ScoreRepository interface {
	// Save inserts a new score record, filling in its ID and CreatedAt.
	Save(ctx context.Context, score *model.Score) error
	// ListTop returns up to limit scores ordered by score descending,
	// ties broken by insertion order (earliest submission first).
	ListTop(ctx context.Context, limit int) ([]model.Score, error)
}

// UserRepository stores grown-up accounts.
type UserRepository interface {
	// Upsert inserts or updates a user keyed by their GitHub ID.
	Upsert(ctx context.Context, user *model.User) error
	// Create inserts a new password-based user.
	Create(ctx context.Context, user *model.User) error
	// GetByID returns the user with the given internal ID.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail returns the user with the given email address.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
