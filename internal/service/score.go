// Package service contains the business logic layer: it validates input,
// enforces the product's rules, and orchestrates repositories. Handlers parse
// HTTP and delegate here; repositories persist and know nothing about rules.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kidslearn/api/internal/apperror"
	"github.com/kidslearn/api/internal/model"
	"github.com/kidslearn/api/internal/repository"
)

// Leaderboard rules. Score bounds match what the quizzes can actually award.
const (
	MaxScoreNameLength = 40
	MinScoreValue      = 0
	MaxScoreValue      = 100
	DefaultTopLimit    = 10
	MaxTopLimit        = 100
)

// ScoreService handles leaderboard business logic.
type ScoreService struct {
	repo   repository.ScoreRepository
	logger *slog.Logger
}

// NewScoreService creates a ScoreService.
func NewScoreService(repo repository.ScoreRepository, logger *slog.Logger) *ScoreService {
	return &ScoreService{
		repo:   repo,
		logger: logger,
	}
}

// Save validates and records one quiz score. userID may be empty for an
// anonymous submission.
func (s *ScoreService) Save(ctx context.Context, name string, score int, userID string) (*model.Score, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "a name is required")
	}
	if len(name) > MaxScoreNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxScoreNameLength))
	}
	if score < MinScoreValue || score > MaxScoreValue {
		return nil, apperror.ValidationFailed("score",
			fmt.Sprintf("score must be between %d and %d", MinScoreValue, MaxScoreValue))
	}

	record := &model.Score{
		Name:   name,
		Score:  score,
		UserID: userID,
	}

	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Error("failed to save score",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving score: %w", err)
	}

	s.logger.Info("score saved",
		slog.String("id", record.ID),
		slog.String("name", record.Name),
		slog.Int("score", record.Score),
	)

	return record, nil
}

// ListTop returns the leaderboard, clamping limit to a sane range so a caller
// can't request the whole table.
func (s *ScoreService) ListTop(ctx context.Context, limit int) ([]model.Score, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}

	scores, err := s.repo.ListTop(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list top scores", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing top scores: %w", err)
	}

	return scores, nil
}
