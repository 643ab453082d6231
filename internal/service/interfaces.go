package service

import (
	"context"

	"github.com/alexanderramin/waypoint/internal/app"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/importer"
)

type ReportService interface {
	GenerateCompletionReport(ctx context.Context, req app.CompletionReportRequest) (*app.CompletionReportResponse, error)
	GenerateLastPageAccessedReport(ctx context.Context, req app.LastPageReportRequest) (*app.LastPageReportResponse, error)
	CourseOutline(ctx context.Context, courseID string) (*domain.Block, error)
}

type ImportService interface {
	ImportCourse(ctx context.Context, filePath string) (*app.ImportResult, error)
	ImportCourseFromSchema(ctx context.Context, schema *importer.ImportSchema) (*app.ImportResult, error)
}
