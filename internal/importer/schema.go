package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of a course fixture file. Blocks
// are referenced by their short block id; usage keys are derived from the
// course key.
type ImportSchema struct {
	Course      CourseImport       `json:"course" yaml:"course"`
	Blocks      []BlockImport      `json:"blocks" yaml:"blocks"`
	Users       []UserImport       `json:"users,omitempty" yaml:"users,omitempty"`
	Enrollments []EnrollmentImport `json:"enrollments,omitempty" yaml:"enrollments,omitempty"`
	Roles       []RoleImport       `json:"roles,omitempty" yaml:"roles,omitempty"`
	Completions []CompletionImport `json:"completions,omitempty" yaml:"completions,omitempty"`
	Cohorts     []GroupImport      `json:"cohorts,omitempty" yaml:"cohorts,omitempty"`
	Teams       []GroupImport      `json:"teams,omitempty" yaml:"teams,omitempty"`
}

type CourseImport struct {
	Key         string `json:"key" yaml:"key"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// BlockImport defines one catalog block. Children list short block ids in
// document order.
type BlockImport struct {
	ID          string   `json:"id" yaml:"id"`
	Type        string   `json:"type" yaml:"type"`
	DisplayName string   `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Children    []string `json:"children,omitempty" yaml:"children,omitempty"`
	Due         *string  `json:"due,omitempty" yaml:"due,omitempty"`
	Graded      *bool    `json:"graded,omitempty" yaml:"graded,omitempty"`
	Format      string   `json:"format,omitempty" yaml:"format,omitempty"`
}

type UserImport struct {
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
	IsStaff  bool   `json:"is_staff,omitempty" yaml:"is_staff,omitempty"`
}

// EnrollmentImport enrolls a user in the course. Active defaults to true.
type EnrollmentImport struct {
	Username string `json:"username" yaml:"username"`
	Mode     string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Active   *bool  `json:"active,omitempty" yaml:"active,omitempty"`
}

type RoleImport struct {
	Username string `json:"username" yaml:"username"`
	Role     string `json:"role" yaml:"role"`
}

// CompletionImport records a completion. Completion defaults to 1.0;
// Modified is RFC3339.
type CompletionImport struct {
	Username   string   `json:"username" yaml:"username"`
	Block      string   `json:"block" yaml:"block"`
	Completion *float64 `json:"completion,omitempty" yaml:"completion,omitempty"`
	Modified   string   `json:"modified" yaml:"modified"`
}

// GroupImport is a cohort or team with its members' usernames.
type GroupImport struct {
	Name    string   `json:"name" yaml:"name"`
	Members []string `json:"members" yaml:"members"`
}

// LoadImportFile reads a course fixture. The format follows the file
// extension: .json, .yaml or .yml.
func LoadImportFile(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var schema ImportSchema
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported import file extension %q (want .json, .yaml or .yml)", ext)
	}
	return &schema, nil
}
