package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/google/uuid"
)

// SQLiteCompletionRepo implements CompletionRepo over block_completions.
type SQLiteCompletionRepo struct {
	db db.DBTX
}

func NewSQLiteCompletionRepo(conn db.DBTX) *SQLiteCompletionRepo {
	return &SQLiteCompletionRepo{db: conn}
}

// Upsert records a completion, replacing the value and timestamp of an
// earlier record for the same block. A missing ID is generated.
func (r *SQLiteCompletionRepo) Upsert(ctx context.Context, c *domain.BlockCompletion) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO block_completions (id, user_id, course_key, block_key, completion, modified)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, course_key, block_key)
		DO UPDATE SET completion = excluded.completion, modified = excluded.modified`,
		c.ID, c.UserID, c.CourseKey, c.BlockKey, c.Completion, formatTimestamp(c.Modified),
	)
	if err != nil {
		return fmt.Errorf("upserting completion of %s: %w", c.BlockKey, err)
	}
	return nil
}

// Latest returns the most recently modified completion, or nil when the user
// has none in the course.
func (r *SQLiteCompletionRepo) Latest(ctx context.Context, userID int64, courseKey string) (*domain.LatestCompletion, error) {
	var lc domain.LatestCompletion
	var modified string
	err := r.db.QueryRowContext(ctx,
		`SELECT block_key, modified FROM block_completions
		WHERE user_id = ? AND course_key = ?
		ORDER BY modified DESC, rowid DESC LIMIT 1`,
		userID, courseKey,
	).Scan(&lc.BlockKey, &modified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading latest completion: %w", err)
	}
	if lc.Modified, err = parseTimestamp(modified); err != nil {
		return nil, fmt.Errorf("parsing modified: %w", err)
	}
	return &lc, nil
}

// CompletedSet returns the usage keys the user has any completion on.
func (r *SQLiteCompletionRepo) CompletedSet(ctx context.Context, userID int64, courseKey string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT block_key FROM block_completions
		WHERE user_id = ? AND course_key = ? AND completion > 0`,
		userID, courseKey)
	if err != nil {
		return nil, fmt.Errorf("loading completions: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning completion: %w", err)
		}
		done[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completions: %w", err)
	}
	return done, nil
}
