package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/waypoint/internal/config"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/repository"
	"github.com/alexanderramin/waypoint/internal/testutil"
	"github.com/alexanderramin/waypoint/internal/testutil/seed"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last(t *testing.T) UseCaseEvent {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.events)
	return o.events[len(o.events)-1]
}

func newReportService(t *testing.T, database *sql.DB, observers ...UseCaseObserver) ReportService {
	t.Helper()
	return NewReportService(testutil.NewTestUoW(database), config.DefaultSettings(), 2, observers...)
}

func demoService(t *testing.T, observers ...UseCaseObserver) (*seed.Demo, ReportService) {
	t.Helper()
	database := testutil.NewTestDB(t)
	d := seed.DemoCourse(t, database)
	return d, newReportService(t, database, observers...)
}

// enrollIn enrolls u in another course, optionally with a role. The course
// has no blocks unless the test adds them.
func enrollIn(t *testing.T, database *sql.DB, courseKey string, u *domain.User, role domain.CourseRole) {
	t.Helper()
	ctx := context.Background()
	users := repository.NewSQLiteUserRepo(database)
	require.NoError(t, users.Enroll(ctx, domain.Enrollment{UserID: u.ID, CourseKey: courseKey, IsActive: true}))
	if role != "" {
		require.NoError(t, users.GrantRole(ctx, domain.CourseAccessRole{UserID: u.ID, CourseKey: courseKey, Role: role}))
	}
}
