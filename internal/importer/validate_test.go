package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptrStr(s string) *string     { return &s }
func ptrFloat(f float64) *float64 { return &f }
func ptrBool(b bool) *bool        { return &b }

func validMinimalSchema() *ImportSchema {
	return &ImportSchema{
		Course: CourseImport{Key: "course-v1:Demo+CS101+2026"},
		Blocks: []BlockImport{
			{ID: "course", Type: "course", Children: []string{"c1"}},
			{ID: "c1", Type: "chapter", Children: []string{"v1"}},
			{ID: "v1", Type: "vertical"},
		},
		Users: []UserImport{{Username: "ana", Email: "ana@example.com"}},
	}
}

func TestValidateImportSchema_ValidMinimal(t *testing.T) {
	assert.Empty(t, ValidateImportSchema(validMinimalSchema()))
}

func TestValidateImportSchema_AcceptsFilteredContainerTypes(t *testing.T) {
	s := validMinimalSchema()
	s.Blocks[2].Children = []string{"lib"}
	s.Blocks = append(s.Blocks, BlockImport{ID: "lib", Type: "library_content"})
	assert.Empty(t, ValidateImportSchema(s))
}

func TestValidateImportSchema_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *ImportSchema)
		wantMsg string
	}{
		{"missing course key", func(s *ImportSchema) { s.Course.Key = "" }, "course.key is required"},
		{"bad course key", func(s *ImportSchema) { s.Course.Key = "nonsense" }, "invalid course key"},
		{"missing block id", func(s *ImportSchema) { s.Blocks[2].ID = "" }, "blocks[2].id is required"},
		{"bad block id", func(s *ImportSchema) { s.Blocks[2].ID = "a+b" }, "invalid block id"},
		{"duplicate block id", func(s *ImportSchema) { s.Blocks[2].ID = "c1" }, "duplicate id \"c1\""},
		{"unknown type", func(s *ImportSchema) { s.Blocks[2].Type = "widget" }, "unknown block type \"widget\""},
		{"no root", func(s *ImportSchema) { s.Blocks[0].Type = "chapter" }, "found 0"},
		{"two roots", func(s *ImportSchema) { s.Blocks[1].Type = "course" }, "found 2"},
		{"dangling child", func(s *ImportSchema) { s.Blocks[1].Children = []string{"ghost"} }, "block \"ghost\" not found"},
		{"cycle", func(s *ImportSchema) { s.Blocks[2].Children = []string{"c1"} }, "cycle detected"},
		{"self cycle", func(s *ImportSchema) { s.Blocks[2].Children = []string{"v1"} }, "cycle detected"},
		{"bad due", func(s *ImportSchema) { s.Blocks[1].Due = ptrStr("next week") }, "blocks[1].due: invalid timestamp"},
		{"duplicate username", func(s *ImportSchema) {
			s.Users = append(s.Users, UserImport{Username: "ana", Email: "other@example.com"})
		}, "duplicate username"},
		{"duplicate email", func(s *ImportSchema) {
			s.Users = append(s.Users, UserImport{Username: "ana2", Email: "ana@example.com"})
		}, "duplicate email"},
		{"missing email", func(s *ImportSchema) { s.Users[0].Email = "" }, "users[0].email is required"},
		{"unknown enrollment user", func(s *ImportSchema) {
			s.Enrollments = []EnrollmentImport{{Username: "ghost"}}
		}, "enrollments[0].username: user \"ghost\" not found"},
		{"double enrollment", func(s *ImportSchema) {
			s.Enrollments = []EnrollmentImport{{Username: "ana"}, {Username: "ana"}}
		}, "enrolled twice"},
		{"empty role", func(s *ImportSchema) { s.Roles = []RoleImport{{Username: "ana"}} }, "roles[0].role is required"},
		{"student role", func(s *ImportSchema) { s.Roles = []RoleImport{{Username: "ana", Role: "student"}} }, "implied"},
		{"completion unknown block", func(s *ImportSchema) {
			s.Completions = []CompletionImport{{Username: "ana", Block: "p9", Modified: "2026-03-01T09:30:00Z"}}
		}, "block \"p9\" not found"},
		{"completion out of range", func(s *ImportSchema) {
			s.Completions = []CompletionImport{{Username: "ana", Block: "v1", Completion: ptrFloat(2), Modified: "2026-03-01T09:30:00Z"}}
		}, "between 0 and 1"},
		{"completion bad timestamp", func(s *ImportSchema) {
			s.Completions = []CompletionImport{{Username: "ana", Block: "v1", Modified: "2026-03-01"}}
		}, "expected RFC3339"},
		{"completion missing timestamp", func(s *ImportSchema) {
			s.Completions = []CompletionImport{{Username: "ana", Block: "v1"}}
		}, "completions[0].modified is required"},
		{"cohort unknown member", func(s *ImportSchema) {
			s.Cohorts = []GroupImport{{Name: "Morning", Members: []string{"ghost"}}}
		}, "cohorts[0].members[0]: user \"ghost\" not found"},
		{"user in two cohorts", func(s *ImportSchema) {
			s.Cohorts = []GroupImport{{Name: "A", Members: []string{"ana"}}, {Name: "B", Members: []string{"ana"}}}
		}, "already in \"A\""},
		{"duplicate team", func(s *ImportSchema) {
			s.Teams = []GroupImport{{Name: "Alpha"}, {Name: "Alpha"}}
		}, "teams[1].name: duplicate name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validMinimalSchema()
			tt.mutate(s)
			errs := ValidateImportSchema(s)
			assert.True(t, containsMsg(errs, tt.wantMsg), "want %q in %v", tt.wantMsg, errs)
		})
	}
}

func TestValidateImportSchema_UserInSeveralTeams(t *testing.T) {
	s := validMinimalSchema()
	s.Teams = []GroupImport{{Name: "A", Members: []string{"ana"}}, {Name: "B", Members: []string{"ana"}}}
	assert.Empty(t, ValidateImportSchema(s))
}

func TestValidateImportSchema_CollectsAllErrors(t *testing.T) {
	s := validMinimalSchema()
	s.Course.Key = ""
	s.Blocks[2].Type = "widget"
	s.Users[0].Email = ""
	s.Enrollments = []EnrollmentImport{{Username: "ghost"}}

	assert.Len(t, ValidateImportSchema(s), 4)
}

func containsMsg(errs []error, msg string) bool {
	for _, err := range errs {
		if strings.Contains(err.Error(), msg) {
			return true
		}
	}
	return false
}
