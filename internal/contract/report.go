// Package contract defines the JSON bodies exchanged over HTTP and printed
// by the CLI's --json mode.
package contract

import (
	"sort"
	"strings"

	"github.com/alexanderramin/waypoint/internal/app"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/report"
)

// Report names accepted in POST /api/v1/generate-<report>.
const (
	CompletionReport       = "completion-report"
	LastPageAccessedReport = "last-page-accessed-report"
)

// GenerateReportRequest is the body of a report request.
type GenerateReportRequest struct {
	CourseIDs         []string `json:"course_ids"`
	BlockReportFilter []string `json:"block_report_filter,omitempty"`
	Emails            []string `json:"emails,omitempty"`
	IncludeStaff      bool     `json:"include_staff,omitempty"`
	Offset            int      `json:"offset,omitempty"`
	Limit             int      `json:"limit,omitempty"`
}

// CompletionRequest converts the body to a use-case request. Blank entries
// are dropped from every list.
func (r GenerateReportRequest) CompletionRequest() app.CompletionReportRequest {
	req := app.NewCompletionReportRequest(compact(r.CourseIDs)...)
	for _, t := range compact(r.BlockReportFilter) {
		req.BlockFilter = append(req.BlockFilter, domain.BlockType(t))
	}
	req.Emails = compact(r.Emails)
	req.IncludeStaff = r.IncludeStaff
	req.Offset = r.Offset
	req.Limit = r.Limit
	return req
}

func (r GenerateReportRequest) LastPageRequest() app.LastPageReportRequest {
	return app.LastPageReportRequest{CourseIDs: compact(r.CourseIDs)}
}

type SkippedCourse struct {
	CourseID string `json:"course_id"`
	Reason   string `json:"reason"`
}

// PageBody tells a client how much of a course it received. NextOffset is
// null on the last page.
type PageBody struct {
	Total      int  `json:"total"`
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	Returned   int  `json:"returned"`
	NextOffset *int `json:"next_offset"`
}

type CompletionReportBody struct {
	CompletionData map[string][]report.UserReport `json:"completion_data"`
	Pagination     map[string]PageBody            `json:"pagination"`
	Skipped        []SkippedCourse                `json:"skipped,omitempty"`
}

type LastPageReportBody struct {
	LastPageData  map[string][]report.LastPageEntry   `json:"last_page_data"`
	ExitCountData map[string][]report.UnitVisitRecord `json:"exit_count_data"`
	Skipped       []SkippedCourse                     `json:"skipped,omitempty"`
}

func NewCompletionReportBody(resp *app.CompletionReportResponse) CompletionReportBody {
	body := CompletionReportBody{
		CompletionData: resp.Courses,
		Pagination:     make(map[string]PageBody, len(resp.Pages)),
		Skipped:        skipped(resp.Skipped),
	}
	if body.CompletionData == nil {
		body.CompletionData = map[string][]report.UserReport{}
	}
	for id, pg := range resp.Pages {
		pb := PageBody{Total: pg.Total, Offset: pg.Offset, Limit: pg.Limit, Returned: pg.Returned()}
		if next, ok := pg.NextOffset(); ok {
			pb.NextOffset = &next
		}
		body.Pagination[id] = pb
	}
	return body
}

func NewLastPageReportBody(resp *app.LastPageReportResponse) LastPageReportBody {
	body := LastPageReportBody{
		LastPageData:  resp.LastPageData,
		ExitCountData: resp.ExitCountData,
		Skipped:       skipped(resp.Skipped),
	}
	if body.LastPageData == nil {
		body.LastPageData = map[string][]report.LastPageEntry{}
	}
	if body.ExitCountData == nil {
		body.ExitCountData = map[string][]report.UnitVisitRecord{}
	}
	return body
}

// OutlineNode is the JSON form of a course tree node.
type OutlineNode struct {
	ID             string         `json:"id"`
	BlockID        string         `json:"block_id"`
	Type           string         `json:"type"`
	DisplayName    string         `json:"display_name,omitempty"`
	PositionNumber int            `json:"position_number"`
	Graded         *bool          `json:"graded,omitempty"`
	Format         string         `json:"format,omitempty"`
	Due            string         `json:"due,omitempty"`
	Children       []*OutlineNode `json:"children,omitempty"`
}

func NewOutlineNode(b *domain.Block) *OutlineNode {
	if b == nil {
		return nil
	}
	n := &OutlineNode{
		ID:             b.ID,
		BlockID:        b.BlockID,
		Type:           string(b.Type),
		DisplayName:    b.DisplayName,
		PositionNumber: b.PositionNumber,
		Graded:         b.Graded,
		Format:         b.Format,
	}
	if b.Due != nil {
		n.Due = b.Due.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	for _, child := range b.Children {
		n.Children = append(n.Children, NewOutlineNode(child))
	}
	return n
}

// ErrorResponse is the body of every non-2xx HTTP response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SortedCourseIDs returns the keys of a per-course map in order.
func SortedCourseIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func skipped(in []app.SkippedCourse) []SkippedCourse {
	if len(in) == 0 {
		return nil
	}
	out := make([]SkippedCourse, len(in))
	for i, s := range in {
		out[i] = SkippedCourse{CourseID: s.CourseID, Reason: string(s.Reason)}
	}
	return out
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
