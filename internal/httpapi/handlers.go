package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexanderramin/waypoint/internal/app"
	"github.com/alexanderramin/waypoint/internal/contract"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/repository"
	"github.com/alexanderramin/waypoint/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Error codes carried in contract.ErrorResponse.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnknownReport    = "UNKNOWN_REPORT"
	CodeMissingBlock     = "MISSING_BLOCK"
	CodeInvalidCourseKey = "INVALID_COURSE_KEY"
	CodeCourseNotFound   = "COURSE_NOT_FOUND"
	CodeReportFailed     = "REPORT_FAILED"
)

type Handlers struct {
	reports service.ReportService
}

func NewHandlers(reports service.ReportService) *Handlers {
	return &Handlers{reports: reports}
}

// HandleGenerateReport handles POST /api/v1/generate-:report.
//
// Responses:
//
//	200 OK: CompletionReportBody or LastPageReportBody
//	400 Bad Request: malformed body, no course ids, bad paging or unknown block type
//	404 Not Found: unknown report name
//	422 Unprocessable Entity: a course references a block missing from its catalog
func (h *Handlers) HandleGenerateReport(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	name := c.Param("report")
	logger := slog.With("request_id", requestID, "handler", "HandleGenerateReport", "report", name)

	if name != contract.CompletionReport && name != contract.LastPageAccessedReport {
		logger.Warn("Unknown report requested")
		c.JSON(http.StatusNotFound, contract.ErrorResponse{
			Error: "unknown report " + name,
			Code:  CodeUnknownReport,
		})
		return
	}

	var req contract.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, contract.ErrorResponse{
			Error: "invalid request body",
			Code:  CodeInvalidRequest,
		})
		return
	}

	logger.Info("Generating report", "courses", len(req.CourseIDs))

	var (
		body any
		err  error
	)
	switch name {
	case contract.CompletionReport:
		var resp *app.CompletionReportResponse
		resp, err = h.reports.GenerateCompletionReport(c.Request.Context(), req.CompletionRequest())
		if err == nil {
			body = contract.NewCompletionReportBody(resp)
		}
	case contract.LastPageAccessedReport:
		var resp *app.LastPageReportResponse
		resp, err = h.reports.GenerateLastPageAccessedReport(c.Request.Context(), req.LastPageRequest())
		if err == nil {
			body = contract.NewLastPageReportBody(resp)
		}
	}
	if err != nil {
		status, code := statusFor(err)
		logger.Error("Report failed", "error", err, "status", status)
		c.JSON(status, contract.ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	c.JSON(http.StatusOK, body)
}

// HandleOutline handles GET /api/v1/courses/:course_id/outline.
func (h *Handlers) HandleOutline(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	courseID := c.Param("course_id")
	logger := slog.With("request_id", requestID, "handler", "HandleOutline", "course", courseID)

	root, err := h.reports.CourseOutline(c.Request.Context(), courseID)
	if err != nil {
		status, code := statusFor(err)
		logger.Warn("Outline failed", "error", err, "status", status)
		c.JSON(status, contract.ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	c.JSON(http.StatusOK, contract.NewOutlineNode(root))
}

// statusFor maps a use-case error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	var reportErr *app.ReportError
	var missing *domain.MissingBlockError
	switch {
	case errors.As(err, &reportErr):
		return http.StatusBadRequest, string(reportErr.Code)
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity, CodeMissingBlock
	case errors.Is(err, domain.ErrInvalidCourseKey):
		return http.StatusBadRequest, CodeInvalidCourseKey
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeCourseNotFound
	default:
		return http.StatusInternalServerError, CodeReportFailed
	}
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
