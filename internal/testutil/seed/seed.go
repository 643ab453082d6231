// Package seed writes a small demo course into a test database through the
// SQLite repositories.
package seed

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/repository"
	"github.com/alexanderramin/waypoint/internal/testutil"
	"github.com/stretchr/testify/require"
)

// DemoCourseKey is the course Demo seeds.
const DemoCourseKey = "course-v1:Demo+CS101+2026"

// Demo is the seeded course:
//
//	course
//	├─ c1 "Chapter 1" ─ s1 "Seq 1" ─ v1 "Unit 1" ─ p1, p2
//	└─ c2 "Chapter 2" ─ s2 "Seq 2" ─ v2 "Unit 2" ─ p3
//
// staff holds the staff role; ana and ben are enrolled learners.
type Demo struct {
	DB     *sql.DB
	Course coursekey.CourseKey
	Staff  *domain.User
	Ana    *domain.User
	Ben    *domain.User

	keys map[string]string
}

type outlineEntry struct {
	typ      domain.BlockType
	id, name string
	parent   string
}

var demoOutline = []outlineEntry{
	{domain.BlockCourse, "course", "Demo Course", ""},
	{domain.BlockChapter, "c1", "Chapter 1", "course"},
	{domain.BlockSequential, "s1", "Seq 1", "c1"},
	{domain.BlockVertical, "v1", "Unit 1", "s1"},
	{domain.BlockProblem, "p1", "Problem 1", "v1"},
	{domain.BlockProblem, "p2", "Problem 2", "v1"},
	{domain.BlockChapter, "c2", "Chapter 2", "course"},
	{domain.BlockSequential, "s2", "Seq 2", "c2"},
	{domain.BlockVertical, "v2", "Unit 2", "s2"},
	{domain.BlockProblem, "p3", "Problem 3", "v2"},
}

// DemoCourse seeds the demo course into database.
func DemoCourse(t *testing.T, database *sql.DB) *Demo {
	t.Helper()
	ctx := context.Background()
	ck, err := coursekey.Parse(DemoCourseKey)
	require.NoError(t, err)

	d := &Demo{DB: database, Course: ck, keys: make(map[string]string)}
	require.NoError(t, repository.NewSQLiteCourseRepo(database).Create(ctx, &domain.Course{Key: DemoCourseKey, DisplayName: "Demo Course"}))

	blocks := repository.NewSQLiteBlockRepo(database)
	position := make(map[string]int)
	for _, e := range demoOutline {
		b := testutil.NewTestBlock(ck, e.typ, e.id, testutil.WithDisplayName(e.name))
		require.NoError(t, blocks.Create(ctx, b))
		d.keys[e.id] = b.UsageKey
		if e.parent != "" {
			require.NoError(t, blocks.AddChild(ctx, d.keys[e.parent], b.UsageKey, position[e.parent]))
			position[e.parent]++
		}
	}

	d.Staff = d.AddUser(t, "staff", domain.RoleStaff)
	d.Ana = d.AddUser(t, "ana", "")
	d.Ben = d.AddUser(t, "ben", "")
	return d
}

// Key returns the usage key of a demo block by its short id.
func (d *Demo) Key(id string) string {
	return d.keys[id]
}

// AddUser creates an actively enrolled user, granting role when it is set.
func (d *Demo) AddUser(t *testing.T, username string, role domain.CourseRole) *domain.User {
	t.Helper()
	ctx := context.Background()
	users := repository.NewSQLiteUserRepo(d.DB)

	u := testutil.NewTestUser(username)
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, users.Enroll(ctx, domain.Enrollment{UserID: u.ID, CourseKey: DemoCourseKey, IsActive: true}))
	if role != "" {
		require.NoError(t, users.GrantRole(ctx, domain.CourseAccessRole{UserID: u.ID, CourseKey: DemoCourseKey, Role: role}))
	}
	return u
}

// Complete records completions of the given demo blocks for u, one second
// apart starting at at. The last id becomes the user's latest completion.
func (d *Demo) Complete(t *testing.T, u *domain.User, at time.Time, ids ...string) {
	t.Helper()
	repo := repository.NewSQLiteCompletionRepo(d.DB)
	for i, id := range ids {
		c := testutil.NewTestCompletion(u.ID, DemoCourseKey, d.Key(id), testutil.WithModified(at.Add(time.Duration(i)*time.Second)))
		require.NoError(t, repo.Upsert(context.Background(), c))
	}
}

// Group puts u in a cohort and a team, creating either when missing.
func (d *Demo) Group(t *testing.T, u *domain.User, cohort, team string) {
	t.Helper()
	ctx := context.Background()
	if cohort != "" {
		repo := repository.NewSQLiteCohortRepo(d.DB)
		c := &domain.Cohort{CourseKey: DemoCourseKey, Name: cohort}
		require.NoError(t, repo.Create(ctx, c))
		require.NoError(t, repo.AddMember(ctx, c.ID, u.ID))
	}
	if team != "" {
		repo := repository.NewSQLiteTeamRepo(d.DB)
		tm := &domain.Team{CourseKey: DemoCourseKey, Name: team}
		require.NoError(t, repo.Create(ctx, tm))
		require.NoError(t, repo.AddMember(ctx, tm.ID, u.ID))
	}
}
