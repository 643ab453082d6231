package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// SQLiteUserRepo implements UserRepo over users, enrollments and course
// access roles.
type SQLiteUserRepo struct {
	db db.DBTX
}

func NewSQLiteUserRepo(conn db.DBTX) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: conn}
}

const userColumns = `u.id, u.username, u.email, u.is_staff`

// Create inserts u and sets u.ID.
func (r *SQLiteUserRepo) Create(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, is_staff, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, boolToInt(u.IsStaff), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", u.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}
	u.ID = id
	return nil
}

func (r *SQLiteUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id)
	return scanUser(row, fmt.Sprintf("user %d", id))
}

func (r *SQLiteUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = ?`, email)
	return scanUser(row, "user "+email)
}

// ListByEmails returns the users matching emails in the order given.
// Unknown and repeated emails are skipped.
func (r *SQLiteUserRepo) ListByEmails(ctx context.Context, emails []string) ([]domain.User, error) {
	var users []domain.User
	seen := make(map[int64]bool, len(emails))
	for _, email := range emails {
		u, err := r.GetByEmail(ctx, email)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		users = append(users, *u)
	}
	return users, nil
}

// ListEnrolled returns users with an active enrollment in courseKey. Unless
// includeStaff is set, platform staff and anyone holding a course access
// role are left out.
func (r *SQLiteUserRepo) ListEnrolled(ctx context.Context, courseKey string, includeStaff bool) ([]domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		JOIN enrollments e ON e.user_id = u.id
		WHERE e.course_key = ? AND e.is_active = 1`
	if !includeStaff {
		query += ` AND u.is_staff = 0
		AND NOT EXISTS (
			SELECT 1 FROM course_access_roles r
			WHERE r.user_id = u.id AND r.course_key = e.course_key
		)`
	}
	query += ` ORDER BY u.id`
	return r.list(ctx, query, courseKey)
}

// FirstStaff returns the lowest-id user with an active enrollment and the
// staff role in courseKey.
func (r *SQLiteUserRepo) FirstStaff(ctx context.Context, courseKey string) (*domain.User, error) {
	users, err := r.list(ctx, `SELECT `+userColumns+`
		FROM users u
		JOIN enrollments e ON e.user_id = u.id
		JOIN course_access_roles r ON r.user_id = u.id AND r.course_key = e.course_key
		WHERE e.course_key = ? AND e.is_active = 1 AND r.role = ?
		ORDER BY u.id LIMIT 1`, courseKey, string(domain.RoleStaff))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("staff user for %s: %w", courseKey, ErrNotFound)
	}
	return &users[0], nil
}

// Roles returns the user's course access roles, sorted.
func (r *SQLiteUserRepo) Roles(ctx context.Context, userID int64, courseKey string) ([]domain.CourseRole, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role FROM course_access_roles WHERE user_id = ? AND course_key = ? ORDER BY role`,
		userID, courseKey)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.CourseRole
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, domain.CourseRole(role))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}
	return roles, nil
}

func (r *SQLiteUserRepo) HasRole(ctx context.Context, userID int64, courseKey string, role domain.CourseRole) (bool, error) {
	roles, err := r.Roles(ctx, userID, courseKey)
	if err != nil {
		return false, err
	}
	return slices.Contains(roles, role), nil
}

// Enroll creates or updates an enrollment.
func (r *SQLiteUserRepo) Enroll(ctx context.Context, e domain.Enrollment) error {
	mode := e.Mode
	if mode == "" {
		mode = domain.DefaultEnrollmentMode
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO enrollments (user_id, course_key, mode, is_active, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, course_key) DO UPDATE SET mode = excluded.mode, is_active = excluded.is_active`,
		e.UserID, e.CourseKey, mode, boolToInt(e.IsActive), nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("enrolling user %d in %s: %w", e.UserID, e.CourseKey, err)
	}
	return nil
}

func (r *SQLiteUserRepo) GrantRole(ctx context.Context, role domain.CourseAccessRole) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO course_access_roles (user_id, course_key, role) VALUES (?, ?, ?)`,
		role.UserID, role.CourseKey, string(role.Role),
	)
	if err != nil {
		return fmt.Errorf("granting %s to user %d: %w", role.Role, role.UserID, err)
	}
	return nil
}

func (r *SQLiteUserRepo) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var isStaff int
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &isStaff); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		u.IsStaff = intToBool(isStaff)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

func scanUser(row *sql.Row, what string) (*domain.User, error) {
	var u domain.User
	var isStaff int
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &isStaff); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.IsStaff = intToBool(isStaff)
	return &u, nil
}
