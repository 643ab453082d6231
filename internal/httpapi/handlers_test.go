package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/waypoint/internal/app"
	"github.com/alexanderramin/waypoint/internal/config"
	"github.com/alexanderramin/waypoint/internal/contract"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/repository"
	"github.com/alexanderramin/waypoint/internal/service"
	"github.com/alexanderramin/waypoint/internal/testutil"
	"github.com/alexanderramin/waypoint/internal/testutil/seed"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var baseTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func demoRouter(t *testing.T) (*seed.Demo, *gin.Engine) {
	t.Helper()
	database := testutil.NewTestDB(t)
	d := seed.DemoCourse(t, database)
	d.Complete(t, d.Ana, baseTime, "p1", "p2")
	d.Complete(t, d.Ben, baseTime.Add(24*time.Hour), "p3")
	svc := service.NewReportService(testutil.NewTestUoW(database), config.DefaultSettings(), 2)
	return d, NewRouter(svc)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) contract.ErrorResponse {
	t.Helper()
	var resp contract.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGenerateCompletionReport_OK(t *testing.T) {
	_, router := demoRouter(t)

	body := fmt.Sprintf(`{"course_ids": [%q, "not-a-course"]}`, seed.DemoCourseKey)
	w := do(t, router, http.MethodPost, "/api/v1/generate-completion-report", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp struct {
		CompletionData map[string][]map[string]json.RawMessage `json:"completion_data"`
		Pagination     map[string]contract.PageBody            `json:"pagination"`
		Skipped        []contract.SkippedCourse                `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	users := resp.CompletionData[seed.DemoCourseKey]
	require.Len(t, users, 2)
	assert.JSONEq(t, `"ana"`, string(users[0]["username"]))
	assert.Contains(t, users[0], "vertical")
	pg := resp.Pagination[seed.DemoCourseKey]
	assert.Equal(t, 2, pg.Total)
	assert.Equal(t, 2, pg.Returned)
	assert.Nil(t, pg.NextOffset)
	assert.Equal(t, []contract.SkippedCourse{{CourseID: "not-a-course", Reason: "invalid_course_key"}}, resp.Skipped)
}

func TestGenerateCompletionReport_HonoursRequestID(t *testing.T) {
	_, router := demoRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-completion-report",
		strings.NewReader(fmt.Sprintf(`{"course_ids": [%q]}`, seed.DemoCourseKey)))
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestGenerateLastPageReport_OK(t *testing.T) {
	_, router := demoRouter(t)

	body := fmt.Sprintf(`{"course_ids": [%q]}`, seed.DemoCourseKey)
	w := do(t, router, http.MethodPost, "/api/v1/generate-last-page-accessed-report", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp contract.LastPageReportBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	entries := resp.LastPageData[seed.DemoCourseKey]
	require.Len(t, entries, 2)
	assert.Equal(t, "ana", entries[0].Username)
	assert.Equal(t, "Chapter 1-Seq 1-Unit 1-Problem 2", entries[0].LastPageViewed)

	total := 0
	for _, rec := range resp.ExitCountData[seed.DemoCourseKey] {
		total += rec.ExitCount
	}
	assert.Equal(t, 2, total)
}

func TestGenerateReport_RequestErrors(t *testing.T) {
	_, router := demoRouter(t)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"unknown report", "/api/v1/generate-grades-report", `{"course_ids": ["x"]}`, http.StatusNotFound, CodeUnknownReport},
		{"malformed json", "/api/v1/generate-completion-report", `{"course_ids": [`, http.StatusBadRequest, CodeInvalidRequest},
		{"empty body", "/api/v1/generate-completion-report", "", http.StatusBadRequest, CodeInvalidRequest},
		{"missing course ids", "/api/v1/generate-completion-report", `{}`, http.StatusBadRequest, string(app.ReportErrNoCourses)},
		{"blank course ids", "/api/v1/generate-last-page-accessed-report", `{"course_ids": ["  "]}`, http.StatusBadRequest, string(app.ReportErrNoCourses)},
		{"negative offset", "/api/v1/generate-completion-report", `{"course_ids": ["x"], "offset": -1}`, http.StatusBadRequest, string(app.ReportErrInvalidPaging)},
		{"unknown block type", "/api/v1/generate-completion-report", `{"course_ids": ["x"], "block_report_filter": ["hologram"]}`, http.StatusBadRequest, string(app.ReportErrUnknownFilter)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, decodeError(t, w).Code)
		})
	}
}

func TestOutline_OK(t *testing.T) {
	_, router := demoRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/courses/"+seed.DemoCourseKey+"/outline", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var root contract.OutlineNode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &root))
	assert.Equal(t, "course", root.Type)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Chapter 2", root.Children[1].DisplayName)
	assert.Equal(t, 1, root.Children[1].PositionNumber)
}

func TestOutline_Errors(t *testing.T) {
	_, router := demoRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/courses/course-v1:Nope+N1+2026/outline", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeCourseNotFound, decodeError(t, w).Code)

	w = do(t, router, http.MethodGet, "/api/v1/courses/garbage/outline", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidCourseKey, decodeError(t, w).Code)

	w = do(t, router, http.MethodGet, "/api/v1/courses/"+url.PathEscape("Org/Missing/Run")+"/outline", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "legacy keys are unescaped before lookup")
}

func TestHealthAndMetrics(t *testing.T) {
	_, router := demoRouter(t)

	w := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	do(t, router, http.MethodGet, "/api/v1/courses/"+seed.DemoCourseKey+"/outline", "")
	w = do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "waypoint_reports_total")
}

// stubReports returns err from every call.
type stubReports struct{ err error }

func (s stubReports) GenerateCompletionReport(context.Context, app.CompletionReportRequest) (*app.CompletionReportResponse, error) {
	return nil, s.err
}

func (s stubReports) GenerateLastPageAccessedReport(context.Context, app.LastPageReportRequest) (*app.LastPageReportResponse, error) {
	return nil, s.err
}

func (s stubReports) CourseOutline(context.Context, string) (*domain.Block, error) {
	return nil, s.err
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"missing block", fmt.Errorf("building course tree: %w", &domain.MissingBlockError{BlockID: "ghost", ParentID: "v1"}), http.StatusUnprocessableEntity, CodeMissingBlock},
		{"not found", fmt.Errorf("loading blocks: %w", repository.ErrNotFound), http.StatusNotFound, CodeCourseNotFound},
		{"invalid key", fmt.Errorf("%w: %q", domain.ErrInvalidCourseKey, "x"), http.StatusBadRequest, CodeInvalidCourseKey},
		{"anything else", errors.New("disk on fire"), http.StatusInternalServerError, CodeReportFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(stubReports{err: tt.err})

			w := do(t, router, http.MethodPost, "/api/v1/generate-completion-report", `{"course_ids": ["x"]}`)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, w).Code)

			w = do(t, router, http.MethodGet, "/api/v1/courses/x/outline", "")
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
