package contract

import "github.com/alexanderramin/waypoint/internal/app"

// ImportSummary is the JSON form of an import result.
type ImportSummary struct {
	CourseID    string `json:"course_id"`
	DisplayName string `json:"display_name,omitempty"`
	Blocks      int    `json:"blocks"`
	Users       int    `json:"users"`
	ReusedUsers int    `json:"reused_users"`
	Enrollments int    `json:"enrollments"`
	Completions int    `json:"completions"`
}

func NewImportSummary(r *app.ImportResult) ImportSummary {
	return ImportSummary{
		CourseID:    r.Course.Key,
		DisplayName: r.Course.DisplayName,
		Blocks:      r.BlockCount,
		Users:       r.UserCount,
		ReusedUsers: r.ReusedUserCount,
		Enrollments: r.EnrollmentCount,
		Completions: r.CompletionCount,
	}
}
