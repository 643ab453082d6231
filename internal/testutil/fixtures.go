package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/google/uuid"
)

var testUserCounter atomic.Int64

// User options
type UserOption func(*domain.User)

func WithEmail(email string) UserOption {
	return func(u *domain.User) {
		u.Email = email
	}
}

func WithPlatformStaff() UserOption {
	return func(u *domain.User) {
		u.IsStaff = true
	}
}

// NewTestUser returns an unsaved user. The email defaults to
// <username>@example.com; an empty username gets a unique one.
func NewTestUser(username string, opts ...UserOption) *domain.User {
	if username == "" {
		username = fmt.Sprintf("learner%03d", testUserCounter.Add(1))
	}
	u := &domain.User{
		Username: username,
		Email:    username + "@example.com",
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Block options
type BlockOption func(*domain.CatalogBlock)

func WithDisplayName(name string) BlockOption {
	return func(b *domain.CatalogBlock) {
		b.DisplayName = name
	}
}

func WithDue(d time.Time) BlockOption {
	return func(b *domain.CatalogBlock) {
		b.Due = &d
	}
}

func WithGraded(g bool) BlockOption {
	return func(b *domain.CatalogBlock) {
		b.Graded = &g
	}
}

func WithFormat(f string) BlockOption {
	return func(b *domain.CatalogBlock) {
		b.Format = f
	}
}

// NewTestBlock returns an unsaved catalog block of course. A course-type
// block always gets the course's root usage key.
func NewTestBlock(course coursekey.CourseKey, typ domain.BlockType, id string, opts ...BlockOption) *domain.CatalogBlock {
	key := course.MakeUsageKey(typ, id)
	if typ == domain.BlockCourse {
		key = course.RootUsageKey()
	}
	b := &domain.CatalogBlock{
		UsageKey:    key.String(),
		CourseKey:   course.String(),
		Type:        typ,
		DisplayName: id,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Completion options
type CompletionOption func(*domain.BlockCompletion)

func WithModified(t time.Time) CompletionOption {
	return func(c *domain.BlockCompletion) {
		c.Modified = t
	}
}

func WithCompletionValue(v float64) CompletionOption {
	return func(c *domain.BlockCompletion) {
		c.Completion = v
	}
}

func NewTestCompletion(userID int64, courseKey, blockKey string, opts ...CompletionOption) *domain.BlockCompletion {
	c := &domain.BlockCompletion{
		ID:         uuid.New().String(),
		UserID:     userID,
		CourseKey:  courseKey,
		BlockKey:   blockKey,
		Completion: 1.0,
		Modified:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
