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

// SQLiteCohortRepo implements CohortRepo. A user belongs to at most one
// cohort per course.
type SQLiteCohortRepo struct {
	db db.DBTX
}

func NewSQLiteCohortRepo(conn db.DBTX) *SQLiteCohortRepo {
	return &SQLiteCohortRepo{db: conn}
}

func (r *SQLiteCohortRepo) Create(ctx context.Context, c *domain.Cohort) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cohorts (id, course_key, name) VALUES (?, ?, ?)`,
		c.ID, c.CourseKey, c.Name)
	if err != nil {
		return fmt.Errorf("inserting cohort %s: %w", c.Name, err)
	}
	return nil
}

// AddMember moves the user into the cohort, leaving any other cohort of the
// same course.
func (r *SQLiteCohortRepo) AddMember(ctx context.Context, cohortID string, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cohort_memberships (cohort_id, user_id, course_key)
		SELECT id, ?, course_key FROM cohorts WHERE id = ?
		ON CONFLICT (user_id, course_key) DO UPDATE SET cohort_id = excluded.cohort_id`,
		userID, cohortID)
	if err != nil {
		return fmt.Errorf("adding user %d to cohort %s: %w", userID, cohortID, err)
	}
	return nil
}

// ForUser returns the user's cohort name in the course, or "".
func (r *SQLiteCohortRepo) ForUser(ctx context.Context, userID int64, courseKey string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT c.name FROM cohort_memberships m
		JOIN cohorts c ON c.id = m.cohort_id
		WHERE m.user_id = ? AND m.course_key = ?`,
		userID, courseKey,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("loading cohort: %w", err)
	}
	return name, nil
}

// SQLiteTeamRepo implements TeamRepo.
type SQLiteTeamRepo struct {
	db db.DBTX
}

func NewSQLiteTeamRepo(conn db.DBTX) *SQLiteTeamRepo {
	return &SQLiteTeamRepo{db: conn}
}

func (r *SQLiteTeamRepo) Create(ctx context.Context, t *domain.Team) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teams (id, course_key, name) VALUES (?, ?, ?)`,
		t.ID, t.CourseKey, t.Name)
	if err != nil {
		return fmt.Errorf("inserting team %s: %w", t.Name, err)
	}
	return nil
}

func (r *SQLiteTeamRepo) AddMember(ctx context.Context, teamID string, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO team_memberships (team_id, user_id) VALUES (?, ?)`,
		teamID, userID)
	if err != nil {
		return fmt.Errorf("adding user %d to team %s: %w", userID, teamID, err)
	}
	return nil
}

// ListForUser returns the names of the user's teams in the course, sorted.
func (r *SQLiteTeamRepo) ListForUser(ctx context.Context, userID int64, courseKey string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.name FROM team_memberships m
		JOIN teams t ON t.id = m.team_id
		WHERE m.user_id = ? AND t.course_key = ?
		ORDER BY t.name`,
		userID, courseKey)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams: %w", err)
	}
	return names, nil
}
