package app

import (
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/report"
)

type CompletionReportRequest struct {
	CourseIDs    []string
	BlockFilter  []domain.BlockType
	Emails       []string
	IncludeStaff bool
	Offset       int
	// Limit caps the users reported per course. Zero means the configured
	// page size.
	Limit int
}

func NewCompletionReportRequest(courseIDs ...string) CompletionReportRequest {
	return CompletionReportRequest{CourseIDs: courseIDs}
}

// SkippedCourse names a requested course that produced no report and why.
type SkippedCourse struct {
	CourseID string
	Reason   domain.SkipReason
}

// Page describes the slice of a course's learners a report covers.
type Page struct {
	// Total counts the learners before paging.
	Total  int
	Offset int
	Limit  int
}

// Returned is the number of learners on this page.
func (p Page) Returned() int {
	n := p.Total - p.Offset
	if n < 0 {
		return 0
	}
	if p.Limit > 0 && n > p.Limit {
		return p.Limit
	}
	return n
}

// NextOffset reports where the following page starts, if any learners
// remain after this one.
func (p Page) NextOffset() (int, bool) {
	next := p.Offset + p.Returned()
	if p.Returned() == 0 || next >= p.Total {
		return 0, false
	}
	return next, true
}

// CompletionReportResponse holds the reported rows and the page each
// course's rows came from; Pages has the same course set as Courses.
type CompletionReportResponse struct {
	Courses map[string][]report.UserReport
	Pages   map[string]Page
	Skipped []SkippedCourse
}

type LastPageReportRequest struct {
	CourseIDs []string
}

// LastPageReportResponse carries one entry per course that had any learner
// activity; both maps have the same course set.
type LastPageReportResponse struct {
	LastPageData  map[string][]report.LastPageEntry
	ExitCountData map[string][]report.UnitVisitRecord
	Skipped       []SkippedCourse
}

type ReportErrorCode string

const (
	ReportErrNoCourses     ReportErrorCode = "NO_COURSES"
	ReportErrInvalidPaging ReportErrorCode = "INVALID_PAGING"
	ReportErrUnknownFilter ReportErrorCode = "UNKNOWN_BLOCK_TYPE"
)

// ReportError rejects a malformed request before any course is read.
type ReportError struct {
	Code    ReportErrorCode
	Message string
}

func (e *ReportError) Error() string {
	return string(e.Code) + ": " + e.Message
}
