package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alexanderramin/waypoint/internal/app"
	"github.com/alexanderramin/waypoint/internal/blocktree"
	"github.com/alexanderramin/waypoint/internal/config"
	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/report"
	"github.com/alexanderramin/waypoint/internal/repository"
	"golang.org/x/sync/errgroup"
)

type reportService struct {
	uow      db.UnitOfWork
	settings config.Settings
	workers  int
	observer UseCaseObserver
}

// NewReportService builds the report use cases. workers bounds how many
// courses are processed at once; values below one mean one.
func NewReportService(
	uow db.UnitOfWork,
	settings config.Settings,
	workers int,
	observers ...UseCaseObserver,
) ReportService {
	if workers < 1 {
		workers = 1
	}
	return &reportService{
		uow:      uow,
		settings: settings,
		workers:  workers,
		observer: useCaseObserverOrNoop(observers),
	}
}

// courseRepos are the repositories a worker reads one course through. They
// share the worker's read transaction.
type courseRepos struct {
	blocks      repository.BlockRepo
	users       repository.UserRepo
	completions repository.CompletionRepo
	cohorts     repository.CohortRepo
	teams       repository.TeamRepo
}

func reposFor(tx db.DBTX) courseRepos {
	return courseRepos{
		blocks:      repository.NewSQLiteBlockRepo(tx),
		users:       repository.NewSQLiteUserRepo(tx),
		completions: repository.NewSQLiteCompletionRepo(tx),
		cohorts:     repository.NewSQLiteCohortRepo(tx),
		teams:       repository.NewSQLiteTeamRepo(tx),
	}
}

// skipError marks a course that produces no report. It never escapes the
// service; workers turn it into an app.SkippedCourse.
type skipError struct {
	reason domain.SkipReason
	err    error
}

func (e *skipError) Error() string { return string(e.reason) + ": " + e.err.Error() }
func (e *skipError) Unwrap() error { return e.err }

func skip(reason domain.SkipReason, err error) error {
	return &skipError{reason: reason, err: err}
}

// courseCollector gathers per-course results from concurrent workers.
type courseCollector struct {
	mu      sync.Mutex
	skipped []app.SkippedCourse
}

func (c *courseCollector) skip(courseID string, reason domain.SkipReason) {
	coursesSkipped.WithLabelValues(string(reason)).Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped = append(c.skipped, app.SkippedCourse{CourseID: courseID, Reason: reason})
}

func (c *courseCollector) sortedSkips() []app.SkippedCourse {
	sort.Slice(c.skipped, func(i, j int) bool { return c.skipped[i].CourseID < c.skipped[j].CourseID })
	return c.skipped
}

// forEachCourse runs fn for every distinct course id on a bounded errgroup.
// A skipError from fn is recorded and the run continues; any other error
// cancels the remaining courses and is returned.
func (s *reportService) forEachCourse(ctx context.Context, courseIDs []string, collector *courseCollector, fn func(ctx context.Context, courseID string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	seen := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := fn(gctx, id)
			var se *skipError
			if errors.As(err, &se) {
				collector.skip(id, se.reason)
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

func (s *reportService) GenerateCompletionReport(ctx context.Context, req app.CompletionReportRequest) (resp *app.CompletionReportResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"courses": len(req.CourseIDs)}
	defer func() { observe(ctx, s.observer, "completion-report", reportCompletion, startedAt, fields, &err) }()

	filter, err := s.validateCompletionRequest(req)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.settings.CompletionPageLimit()
	}

	var mu sync.Mutex
	courses := make(map[string][]report.UserReport)
	pages := make(map[string]app.Page)
	collector := &courseCollector{}

	err = s.forEachCourse(ctx, req.CourseIDs, collector, func(ctx context.Context, courseID string) error {
		rows, pg, err := s.completionForCourse(ctx, courseID, req, filter, limit)
		if err != nil {
			return err
		}
		if rows == nil {
			rows = []report.UserReport{}
		}
		mu.Lock()
		courses[courseID] = rows
		pages[courseID] = pg
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["reported"] = len(courses)
	fields["skipped"] = len(collector.skipped)
	return &app.CompletionReportResponse{Courses: courses, Pages: pages, Skipped: collector.sortedSkips()}, nil
}

func (s *reportService) validateCompletionRequest(req app.CompletionReportRequest) ([]domain.BlockType, error) {
	if len(req.CourseIDs) == 0 {
		return nil, &app.ReportError{Code: app.ReportErrNoCourses, Message: "at least one course id is required"}
	}
	if req.Offset < 0 || req.Limit < 0 {
		return nil, &app.ReportError{Code: app.ReportErrInvalidPaging, Message: "offset and limit must not be negative"}
	}

	if len(req.BlockFilter) == 0 {
		return s.settings.CompletionFilter(), nil
	}
	known := domain.TypeSet(s.settings.BlockTypes)
	for _, t := range req.BlockFilter {
		if !known[t] {
			return nil, &app.ReportError{Code: app.ReportErrUnknownFilter, Message: fmt.Sprintf("block type %q is not reported", t)}
		}
	}
	return req.BlockFilter, nil
}

func (s *reportService) completionForCourse(ctx context.Context, courseID string, req app.CompletionReportRequest, filter []domain.BlockType, limit int) ([]report.UserReport, app.Page, error) {
	pg := app.Page{Offset: req.Offset, Limit: limit}
	ck, err := coursekey.Parse(courseID)
	if err != nil {
		return nil, pg, skip(domain.SkipInvalidCourseKey, err)
	}
	courseKey := ck.String()

	var rows []report.UserReport
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)

		users, err := s.reportUsers(ctx, repos.users, courseKey, req)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return skip(domain.SkipNoEnrolledUsers, domain.ErrNoEnrolledUsers)
		}
		pg.Total = len(users)
		users = page(users, req.Offset, limit)

		// Existence check only: the block tree is the same for every user.
		if _, err := repos.users.FirstStaff(ctx, courseKey); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return skip(domain.SkipNoStaffUser, domain.ErrNoStaffUser)
			}
			return err
		}

		root, err := s.buildTree(ctx, repos.blocks, courseKey)
		if err != nil {
			return err
		}

		lookups, err := prefetchLookups(ctx, repos, courseKey, users)
		if err != nil {
			return err
		}
		rows = report.Flatten(root, users, lookups, filter)
		return nil
	})
	if err != nil {
		return nil, pg, err
	}
	return rows, pg, nil
}

func (s *reportService) reportUsers(ctx context.Context, users repository.UserRepo, courseKey string, req app.CompletionReportRequest) ([]domain.User, error) {
	if len(req.Emails) > 0 {
		return users.ListByEmails(ctx, req.Emails)
	}
	return users.ListEnrolled(ctx, courseKey, req.IncludeStaff)
}

// buildTree loads the course catalog and materializes it over the
// configured block types. A missing course root is a skip; a dangling
// child reference is returned as *domain.MissingBlockError.
func (s *reportService) buildTree(ctx context.Context, blocks repository.BlockRepo, courseKey string) (*domain.Block, error) {
	bs, err := blocks.LoadStructure(ctx, courseKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, skip(domain.SkipCourseNotFound, err)
		}
		return nil, err
	}
	root, err := blocktree.Build(blocktree.FromStructure(bs, blocktree.DefaultRequestedFields), bs.Root(), s.settings.BlockTypes)
	if err != nil {
		return nil, fmt.Errorf("building course tree for %s: %w", courseKey, err)
	}
	return root, nil
}

// prefetchLookups reads every user's completions and groups up front so
// flattening runs without touching the database.
func prefetchLookups(ctx context.Context, repos courseRepos, courseKey string, users []domain.User) (report.StaticLookups, error) {
	lookups := report.StaticLookups{
		Completions: make(map[int64]domain.CompletionSet, len(users)),
		Cohorts:     make(map[int64]string, len(users)),
		TeamNames:   make(map[int64][]string, len(users)),
	}
	for _, u := range users {
		completed, err := repos.completions.CompletedSet(ctx, u.ID, courseKey)
		if err != nil {
			return lookups, err
		}
		latest, err := repos.completions.Latest(ctx, u.ID, courseKey)
		if err != nil {
			return lookups, err
		}
		if len(completed) > 0 || latest != nil {
			lookups.Completions[u.ID] = domain.CompletionSet{Completed: completed, Latest: latest}
		}

		cohort, err := repos.cohorts.ForUser(ctx, u.ID, courseKey)
		if err != nil {
			return lookups, err
		}
		lookups.Cohorts[u.ID] = cohort

		teams, err := repos.teams.ListForUser(ctx, u.ID, courseKey)
		if err != nil {
			return lookups, err
		}
		lookups.TeamNames[u.ID] = teams
	}
	return lookups, nil
}

func page(users []domain.User, offset, limit int) []domain.User {
	if offset >= len(users) {
		return nil
	}
	users = users[offset:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users
}

func (s *reportService) GenerateLastPageAccessedReport(ctx context.Context, req app.LastPageReportRequest) (resp *app.LastPageReportResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"courses": len(req.CourseIDs)}
	defer func() { observe(ctx, s.observer, "last-page-accessed-report", reportLastPage, startedAt, fields, &err) }()

	if len(req.CourseIDs) == 0 {
		return nil, &app.ReportError{Code: app.ReportErrNoCourses, Message: "at least one course id is required"}
	}

	var mu sync.Mutex
	resp = &app.LastPageReportResponse{
		LastPageData:  make(map[string][]report.LastPageEntry),
		ExitCountData: make(map[string][]report.UnitVisitRecord),
	}
	collector := &courseCollector{}

	err = s.forEachCourse(ctx, req.CourseIDs, collector, func(ctx context.Context, courseID string) error {
		entries, exits, err := s.lastPageForCourse(ctx, courseID)
		if err != nil || len(entries) == 0 {
			return err
		}
		mu.Lock()
		resp.LastPageData[courseID] = entries
		resp.ExitCountData[courseID] = exits
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Skipped = collector.sortedSkips()
	fields["reported"] = len(resp.LastPageData)
	fields["skipped"] = len(resp.Skipped)
	return resp, nil
}

func (s *reportService) lastPageForCourse(ctx context.Context, courseID string) ([]report.LastPageEntry, []report.UnitVisitRecord, error) {
	ck, err := coursekey.Parse(courseID)
	if err != nil {
		return nil, nil, skip(domain.SkipInvalidCourseKey, err)
	}
	courseKey := ck.String()

	var (
		entries []report.LastPageEntry
		exits   []report.UnitVisitRecord
	)
	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)

		students, err := s.students(ctx, repos.users, courseKey)
		if err != nil {
			return err
		}
		if len(students) == 0 {
			return skip(domain.SkipNoEnrolledUsers, domain.ErrNoEnrolledUsers)
		}

		bs, err := repos.blocks.LoadStructure(ctx, courseKey)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return skip(domain.SkipCourseNotFound, err)
			}
			return err
		}

		latest := make(map[int64]*domain.LatestCompletion, len(students))
		for _, u := range students {
			lc, err := repos.completions.Latest(ctx, u.ID, courseKey)
			if err != nil {
				return err
			}
			latest[u.ID] = lc
		}

		entries = report.LastPageAccessed(bs, students, latest)
		exits = report.ExitCounts(entries, bs)
		return nil
	})
	return entries, exits, err
}

// students returns the enrolled learners of a course, leaving out anyone
// holding the staff role there.
func (s *reportService) students(ctx context.Context, users repository.UserRepo, courseKey string) ([]domain.User, error) {
	enrolled, err := users.ListEnrolled(ctx, courseKey, false)
	if err != nil {
		return nil, err
	}
	var students []domain.User
	for _, u := range enrolled {
		staff, err := users.HasRole(ctx, u.ID, courseKey, domain.RoleStaff)
		if err != nil {
			return nil, err
		}
		if !staff {
			students = append(students, u)
		}
	}
	return students, nil
}

// CourseOutline returns the course tree over the configured block types
// with no completion marked.
func (s *reportService) CourseOutline(ctx context.Context, courseID string) (root *domain.Block, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"course": courseID}
	defer func() { observe(ctx, s.observer, "course-outline", reportOutline, startedAt, fields, &err) }()

	ck, err := coursekey.Parse(courseID)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinReadTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		bs, err := repository.NewSQLiteBlockRepo(tx).LoadStructure(ctx, ck.String())
		if err != nil {
			return err
		}
		root, err = blocktree.Build(blocktree.FromStructure(bs, blocktree.DefaultRequestedFields), bs.Root(), s.settings.BlockTypes)
		if err != nil {
			return fmt.Errorf("building course tree for %s: %w", ck, err)
		}
		fields["blocks"] = countBlocks(root)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

func countBlocks(root *domain.Block) int {
	n := 0
	root.Walk(func(*domain.Block) bool {
		n++
		return true
	})
	return n
}
