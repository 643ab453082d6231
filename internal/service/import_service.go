package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/waypoint/internal/app"
	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/importer"
	"github.com/alexanderramin/waypoint/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportCourse(ctx context.Context, filePath string) (*app.ImportResult, error) {
	schema, err := importer.LoadImportFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.importSchema(ctx, schema)
}

func (s *importService) ImportCourseFromSchema(ctx context.Context, schema *importer.ImportSchema) (*app.ImportResult, error) {
	return s.importSchema(ctx, schema)
}

// importSchema writes the whole fixture in one transaction. Users are
// matched by email; an existing user is reused rather than duplicated.
func (s *importService) importSchema(ctx context.Context, schema *importer.ImportSchema) (result *app.ImportResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"course": schema.Course.Key}
	defer func() { observe(ctx, s.observer, "import-course", "", startedAt, fields, &err) }()

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	data, err := importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	result = &app.ImportResult{Course: data.Course, BlockCount: len(data.Blocks)}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := writeCatalog(ctx, tx, data); err != nil {
			return err
		}

		userIDs, reused, err := upsertUsers(ctx, repository.NewSQLiteUserRepo(tx), data.Users)
		if err != nil {
			return err
		}
		result.UserCount = len(data.Users) - reused
		result.ReusedUserCount = reused

		if err := writeMemberships(ctx, tx, data, userIDs); err != nil {
			return err
		}
		result.EnrollmentCount = len(data.Enrollments)

		completions := repository.NewSQLiteCompletionRepo(tx)
		for _, c := range data.Completions {
			err := completions.Upsert(ctx, &domain.BlockCompletion{
				UserID:     userIDs[c.Username],
				CourseKey:  data.Course.Key,
				BlockKey:   c.BlockKey,
				Completion: c.Completion,
				Modified:   c.Modified,
			})
			if err != nil {
				return fmt.Errorf("recording completion of %s by %s: %w", c.BlockKey, c.Username, err)
			}
		}
		result.CompletionCount = len(data.Completions)
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["blocks"] = result.BlockCount
	fields["users"] = result.UserCount
	return result, nil
}

func writeCatalog(ctx context.Context, tx db.DBTX, data *importer.CourseData) error {
	if err := repository.NewSQLiteCourseRepo(tx).Create(ctx, &data.Course); err != nil {
		return fmt.Errorf("creating course: %w", err)
	}

	blocks := repository.NewSQLiteBlockRepo(tx)
	for _, b := range data.Blocks {
		if err := blocks.Create(ctx, b); err != nil {
			return fmt.Errorf("creating block: %w", err)
		}
	}
	for _, rel := range data.Relations {
		if err := blocks.AddChild(ctx, rel.Parent, rel.Child, rel.Position); err != nil {
			return fmt.Errorf("creating relation: %w", err)
		}
	}
	return nil
}

func upsertUsers(ctx context.Context, users repository.UserRepo, incoming []*domain.User) (map[string]int64, int, error) {
	ids := make(map[string]int64, len(incoming))
	reused := 0
	for _, u := range incoming {
		existing, err := users.GetByEmail(ctx, u.Email)
		switch {
		case err == nil:
			ids[u.Username] = existing.ID
			reused++
			continue
		case !errors.Is(err, repository.ErrNotFound):
			return nil, 0, err
		}
		if err := users.Create(ctx, u); err != nil {
			return nil, 0, fmt.Errorf("creating user: %w", err)
		}
		ids[u.Username] = u.ID
	}
	return ids, reused, nil
}

func writeMemberships(ctx context.Context, tx db.DBTX, data *importer.CourseData, userIDs map[string]int64) error {
	courseKey := data.Course.Key

	users := repository.NewSQLiteUserRepo(tx)
	for _, e := range data.Enrollments {
		err := users.Enroll(ctx, domain.Enrollment{
			UserID:    userIDs[e.Username],
			CourseKey: courseKey,
			Mode:      e.Mode,
			IsActive:  e.IsActive,
		})
		if err != nil {
			return fmt.Errorf("enrolling %s: %w", e.Username, err)
		}
	}
	for _, r := range data.Roles {
		err := users.GrantRole(ctx, domain.CourseAccessRole{UserID: userIDs[r.Username], CourseKey: courseKey, Role: r.Role})
		if err != nil {
			return fmt.Errorf("granting %s to %s: %w", r.Role, r.Username, err)
		}
	}

	cohorts := repository.NewSQLiteCohortRepo(tx)
	for _, g := range data.Cohorts {
		c := &domain.Cohort{CourseKey: courseKey, Name: g.Name}
		if err := cohorts.Create(ctx, c); err != nil {
			return fmt.Errorf("creating cohort %s: %w", g.Name, err)
		}
		for _, member := range g.Members {
			if err := cohorts.AddMember(ctx, c.ID, userIDs[member]); err != nil {
				return fmt.Errorf("adding %s to cohort %s: %w", member, g.Name, err)
			}
		}
	}

	teams := repository.NewSQLiteTeamRepo(tx)
	for _, g := range data.Teams {
		t := &domain.Team{CourseKey: courseKey, Name: g.Name}
		if err := teams.Create(ctx, t); err != nil {
			return fmt.Errorf("creating team %s: %w", g.Name, err)
		}
		for _, member := range g.Members {
			if err := teams.AddMember(ctx, t.ID, userIDs[member]); err != nil {
				return fmt.Errorf("adding %s to team %s: %w", member, g.Name, err)
			}
		}
	}
	return nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
