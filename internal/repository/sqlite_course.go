package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// SQLiteCourseRepo implements CourseRepo.
type SQLiteCourseRepo struct {
	db db.DBTX
}

func NewSQLiteCourseRepo(conn db.DBTX) *SQLiteCourseRepo {
	return &SQLiteCourseRepo{db: conn}
}

func (r *SQLiteCourseRepo) Create(ctx context.Context, c *domain.Course) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (course_key, display_name, created_at) VALUES (?, ?, ?)`,
		c.Key, c.DisplayName, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting course %s: %w", c.Key, err)
	}
	return nil
}

func (r *SQLiteCourseRepo) GetByKey(ctx context.Context, key string) (*domain.Course, error) {
	var c domain.Course
	err := r.db.QueryRowContext(ctx,
		`SELECT course_key, display_name FROM courses WHERE course_key = ?`, key,
	).Scan(&c.Key, &c.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning course: %w", err)
	}
	return &c, nil
}

func (r *SQLiteCourseRepo) List(ctx context.Context) ([]*domain.Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT course_key, display_name FROM courses ORDER BY course_key`)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.Key, &c.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning course row: %w", err)
		}
		courses = append(courses, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating courses: %w", err)
	}
	return courses, nil
}
