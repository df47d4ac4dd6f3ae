package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/kidslearn/api/internal/model"
	"github.com/kidslearn/api/internal/repository"
)

// Compile-time check that *DB satisfies the interface the services expect.
var _ repository.ScoreRepository = (*DB)(nil)

// Save inserts a score record, generating its ID and timestamp.
//
// xid IDs are creation-ordered (they lead with a timestamp plus a process
// counter), which is what makes the ListTop tie-break below work without a
// separate sequence column.
func (db *DB) Save(ctx context.Context, score *model.Score) error {
	score.ID = xid.New().String()
	score.CreatedAt = time.Now()

	// user_id is NULL for anonymous submissions so the foreign key to
	// users(id) doesn't reject them.
	var userID any
	if score.UserID != "" {
		userID = score.UserID
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO scores (id, name, score, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		score.ID,
		score.Name,
		score.Score,
		userID,
		score.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving score: %w", err)
	}

	return nil
}

// ListTop returns the leaderboard: up to limit scores, highest first, equal
// scores ordered by who got there first.
func (db *DB) ListTop(ctx context.Context, limit int) ([]model.Score, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, score, user_id, created_at
		 FROM scores
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing top scores: %w", err)
	}
	defer rows.Close()

	scores := make([]model.Score, 0, limit)
	for rows.Next() {
		var s model.Score
		var userID sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Score, &userID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning score row: %w", err)
		}
		s.UserID = userID.String
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating scores: %w", err)
	}

	return scores, nil
}
