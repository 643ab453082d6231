package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies every schema statement. Statements are idempotent, so it
// runs on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE statements re-run on every open.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		course_key   TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS blocks (
		usage_key    TEXT PRIMARY KEY,
		course_key   TEXT NOT NULL REFERENCES courses(course_key) ON DELETE CASCADE,
		block_type   TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		due          TEXT,
		graded       INTEGER,
		format       TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_blocks_course ON blocks(course_key)`,

	// child_key is not a foreign key: a catalog may reference blocks it no
	// longer holds, and tree building reports those.
	`CREATE TABLE IF NOT EXISTS block_children (
		parent_key TEXT NOT NULL REFERENCES blocks(usage_key) ON DELETE CASCADE,
		child_key  TEXT NOT NULL,
		position   INTEGER NOT NULL,
		PRIMARY KEY (parent_key, child_key)
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		username   TEXT NOT NULL UNIQUE,
		email      TEXT NOT NULL UNIQUE,
		is_staff   INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS enrollments (
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		course_key TEXT NOT NULL REFERENCES courses(course_key) ON DELETE CASCADE,
		is_active  INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		PRIMARY KEY (user_id, course_key)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_key)`,

	`CREATE TABLE IF NOT EXISTS course_access_roles (
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		course_key TEXT NOT NULL REFERENCES courses(course_key) ON DELETE CASCADE,
		role       TEXT NOT NULL,
		PRIMARY KEY (user_id, course_key, role)
	)`,

	`CREATE TABLE IF NOT EXISTS block_completions (
		id         TEXT PRIMARY KEY,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		course_key TEXT NOT NULL REFERENCES courses(course_key) ON DELETE CASCADE,
		block_key  TEXT NOT NULL,
		completion REAL NOT NULL DEFAULT 1.0
		           CHECK(completion >= 0 AND completion <= 1),
		modified   TEXT NOT NULL,
		UNIQUE (user_id, course_key, block_key)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_completions_user_course ON block_completions(user_id, course_key, modified)`,

	`CREATE TABLE IF NOT EXISTS cohorts (
		id         TEXT PRIMARY KEY,
		course_key TEXT NOT NULL REFERENCES courses(course_key) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		UNIQUE (course_key, name)
	)`,

	`CREATE TABLE IF NOT EXISTS cohort_memberships (
		cohort_id  TEXT NOT NULL REFERENCES cohorts(id) ON DELETE CASCADE,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		course_key TEXT NOT NULL,
		PRIMARY KEY (user_id, course_key)
	)`,

	`CREATE TABLE IF NOT EXISTS teams (
		id         TEXT PRIMARY KEY,
		course_key TEXT NOT NULL REFERENCES courses(course_key) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		UNIQUE (course_key, name)
	)`,

	`CREATE TABLE IF NOT EXISTS team_memberships (
		team_id TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (team_id, user_id)
	)`,

	// Enrollment mode arrived after the first release.
	`ALTER TABLE enrollments ADD COLUMN mode TEXT NOT NULL DEFAULT 'audit'`,
}
