package repository

import (
	"context"

	"github.com/alexanderramin/waypoint/internal/blockgraph"
	"github.com/alexanderramin/waypoint/internal/domain"
)

type CourseRepo interface {
	Create(ctx context.Context, c *domain.Course) error
	GetByKey(ctx context.Context, key string) (*domain.Course, error)
	List(ctx context.Context) ([]*domain.Course, error)
}

type BlockRepo interface {
	Create(ctx context.Context, b *domain.CatalogBlock) error
	AddChild(ctx context.Context, parentKey, childKey string, position int) error
	LoadStructure(ctx context.Context, courseKey string) (*blockgraph.BlockStructure, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByEmails(ctx context.Context, emails []string) ([]domain.User, error)
	ListEnrolled(ctx context.Context, courseKey string, includeStaff bool) ([]domain.User, error)
	FirstStaff(ctx context.Context, courseKey string) (*domain.User, error)
	Roles(ctx context.Context, userID int64, courseKey string) ([]domain.CourseRole, error)
	HasRole(ctx context.Context, userID int64, courseKey string, role domain.CourseRole) (bool, error)
	Enroll(ctx context.Context, e domain.Enrollment) error
	GrantRole(ctx context.Context, r domain.CourseAccessRole) error
}

type CompletionRepo interface {
	Upsert(ctx context.Context, c *domain.BlockCompletion) error
	Latest(ctx context.Context, userID int64, courseKey string) (*domain.LatestCompletion, error)
	CompletedSet(ctx context.Context, userID int64, courseKey string) (map[string]bool, error)
}

type CohortRepo interface {
	Create(ctx context.Context, c *domain.Cohort) error
	AddMember(ctx context.Context, cohortID string, userID int64) error
	ForUser(ctx context.Context, userID int64, courseKey string) (string, error)
}

type TeamRepo interface {
	Create(ctx context.Context, t *domain.Team) error
	AddMember(ctx context.Context, teamID string, userID int64) error
	ListForUser(ctx context.Context, userID int64, courseKey string) ([]string, error)
}
