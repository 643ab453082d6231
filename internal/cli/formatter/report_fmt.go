package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/waypoint/internal/app"
	"github.com/alexanderramin/waypoint/internal/contract"
	"github.com/alexanderramin/waypoint/internal/domain"
)

const progressWidth = 10

var completionHeaders = []string{"USER", "COHORT", "TEAM", "TYPE", "#", "BLOCK", "SECTION", "SUBSECTION", "DONE"}

// FormatCompletionReport renders one table per course with a row for every
// reported block of every user, followed by a progress bar per user.
func FormatCompletionReport(resp *app.CompletionReportResponse) string {
	var b strings.Builder
	b.WriteString(Header("Completion report") + "\n")

	if len(resp.Courses) == 0 {
		b.WriteString("\n" + Dim("No course produced a report.") + "\n")
	}

	for _, courseID := range contract.SortedCourseIDs(resp.Courses) {
		users := resp.Courses[courseID]
		pg, paged := resp.Pages[courseID]
		b.WriteString("\n" + Bold(courseID) + "\n")
		if len(users) == 0 {
			if paged {
				b.WriteString(Dim(fmt.Sprintf("No learners at offset %d of %d.", pg.Offset, pg.Total)) + "\n")
			} else {
				b.WriteString(Dim("No learners on this page.") + "\n")
			}
			continue
		}

		var rows [][]string
		nameWidth := 0
		for _, u := range users {
			nameWidth = max(nameWidth, len(u.Username))
			for _, t := range u.Types() {
				for _, row := range u.Rows[t] {
					rows = append(rows, []string{
						u.Username,
						orDash(u.Cohort),
						orDash(u.Team),
						string(t),
						strconv.Itoa(row.Number),
						row.Name,
						ancestorName(row.Section),
						ancestorName(row.Subsection),
						CompletionMark(row.Complete, row.ResumeBlock),
					})
				}
			}
		}
		b.WriteString(RenderTable(completionHeaders, rows))
		b.WriteString("\n")

		for _, u := range users {
			done, total := 0, 0
			for _, t := range u.Types() {
				for _, row := range u.Rows[t] {
					total++
					if row.Complete {
						done++
					}
				}
			}
			pct := 0.0
			if total > 0 {
				pct = float64(done) / float64(total)
			}
			fmt.Fprintf(&b, "%-*s  %s  %s\n", nameWidth, u.Username, RenderProgress(pct, progressWidth),
				Dim(fmt.Sprintf("%d/%d", done, total)))
		}
		if paged {
			b.WriteString(Dim(pageSummary(pg)) + "\n")
		}
	}

	b.WriteString(formatSkipped(resp.Skipped))
	return b.String()
}

var (
	lastPageHeaders  = []string{"USER", "LAST ACCESSED", "PAGE", "BLOCK", "UNIT"}
	exitCountHeaders = []string{"UNIT", "PAGE", "EXITS"}
)

// FormatLastPageReport renders, per course, where each learner stopped and
// how many learners stopped on each unit.
func FormatLastPageReport(resp *app.LastPageReportResponse) string {
	var b strings.Builder
	b.WriteString(Header("Last page accessed") + "\n")

	if len(resp.LastPageData) == 0 {
		b.WriteString("\n" + Dim("No learner activity in the requested courses.") + "\n")
	}

	for _, courseID := range contract.SortedCourseIDs(resp.LastPageData) {
		b.WriteString("\n" + Bold(courseID) + "\n")

		var rows [][]string
		for _, e := range resp.LastPageData[courseID] {
			rows = append(rows, []string{e.Username, e.LastTimeAccessed, e.LastPageViewed, e.BlockID, e.VerticalBlockID})
		}
		b.WriteString(RenderTable(lastPageHeaders, rows))
		b.WriteString("\n")

		rows = rows[:0]
		for _, rec := range resp.ExitCountData[courseID] {
			rows = append(rows, []string{rec.VerticalID, rec.PageTitle, strconv.Itoa(rec.ExitCount)})
		}
		b.WriteString(RenderTable(exitCountHeaders, rows))
	}

	b.WriteString(formatSkipped(resp.Skipped))
	return b.String()
}

// FormatOutline renders a course tree with position numbers and block badges.
func FormatOutline(root *domain.Block) string {
	return RenderTree(OutlineItems(root))
}

// FormatImportResult summarises an import in a box.
func FormatImportResult(r *app.ImportResult) string {
	name := r.Course.DisplayName
	if name == "" {
		name = r.Course.Key
	}
	lines := []string{
		Bold(name) + "  " + Dim(r.Course.Key),
		"",
		Plural(r.BlockCount, "block"),
		Plural(r.UserCount, "new user") + Dim(fmt.Sprintf(" (%d reused)", r.ReusedUserCount)),
		Plural(r.EnrollmentCount, "enrollment"),
		Plural(r.CompletionCount, "completion"),
	}
	return RenderBox("Imported", strings.Join(lines, "\n"))
}

// pageSummary names the learners shown out of the course total and, when
// the page is short of the total, the offset of the next page.
func pageSummary(pg app.Page) string {
	first := pg.Offset + 1
	line := fmt.Sprintf("Learners %d-%d of %d", first, pg.Offset+pg.Returned(), pg.Total)
	if next, ok := pg.NextOffset(); ok {
		line += fmt.Sprintf(", more with --offset %d", next)
	}
	return line
}

func formatSkipped(skipped []app.SkippedCourse) string {
	if len(skipped) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(skipped))
	for _, s := range skipped {
		rows = append(rows, []string{s.CourseID, StyleYellow.Render(string(s.Reason))})
	}
	return "\n" + Header("Skipped") + "\n" + RenderTable([]string{"COURSE", "REASON"}, rows)
}
