package app

import (
	"context"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/importer"
)

type CompletionReportUseCase interface {
	GenerateCompletionReport(ctx context.Context, req CompletionReportRequest) (*CompletionReportResponse, error)
}

type LastPageReportUseCase interface {
	GenerateLastPageAccessedReport(ctx context.Context, req LastPageReportRequest) (*LastPageReportResponse, error)
}

type CourseOutlineUseCase interface {
	CourseOutline(ctx context.Context, courseID string) (*domain.Block, error)
}

type ImportResult struct {
	Course          domain.Course
	BlockCount      int
	UserCount       int
	ReusedUserCount int
	EnrollmentCount int
	CompletionCount int
}

type ImportCourseUseCase interface {
	ImportCourse(ctx context.Context, filePath string) (*ImportResult, error)
	ImportCourseFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
