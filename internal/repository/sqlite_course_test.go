package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseRepo_CreateGetList(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCourseRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Course{Key: "course-v1:B+Two+2026", DisplayName: "Two"}))
	require.NoError(t, repo.Create(ctx, &domain.Course{Key: "course-v1:A+One+2026", DisplayName: "One"}))

	c, err := repo.GetByKey(ctx, "course-v1:B+Two+2026")
	require.NoError(t, err)
	assert.Equal(t, "Two", c.DisplayName)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "course-v1:A+One+2026", all[0].Key)
}

func TestCourseRepo_GetByKey_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCourseRepo(db)

	_, err := repo.GetByKey(context.Background(), "course-v1:X+Y+Z")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourseRepo_DuplicateKey(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCourseRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Course{Key: "course-v1:A+One+2026"}))
	assert.Error(t, repo.Create(ctx, &domain.Course{Key: "course-v1:A+One+2026"}))
}
