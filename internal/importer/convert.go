package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// CourseData is a converted fixture, ready to be written. Rows that point at
// users carry usernames; user ids are assigned when the users are stored.
type CourseData struct {
	Course      domain.Course
	Blocks      []*domain.CatalogBlock
	Relations   []Relation
	Users       []*domain.User
	Enrollments []UserEnrollment
	Roles       []UserRole
	Completions []UserCompletion
	Cohorts     []Group
	Teams       []Group
}

// Relation links a parent usage key to a child at a position.
type Relation struct {
	Parent   string
	Child    string
	Position int
}

type UserEnrollment struct {
	Username string
	Mode     string
	IsActive bool
}

type UserRole struct {
	Username string
	Role     domain.CourseRole
}

type UserCompletion struct {
	Username   string
	BlockKey   string
	Completion float64
	Modified   time.Time
}

type Group struct {
	Name    string
	Members []string
}

// Convert turns a validated schema into CourseData. Call
// ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema) (*CourseData, error) {
	ck, err := coursekey.Parse(schema.Course.Key)
	if err != nil {
		return nil, err
	}
	courseKey := ck.String()

	usageKeys := make(map[string]string, len(schema.Blocks))
	for _, b := range schema.Blocks {
		if b.Type == string(domain.BlockCourse) {
			usageKeys[b.ID] = ck.RootUsageKey().String()
			continue
		}
		usageKeys[b.ID] = ck.MakeUsageKey(domain.BlockType(b.Type), b.ID).String()
	}

	data := &CourseData{
		Course: domain.Course{Key: courseKey, DisplayName: schema.Course.DisplayName},
	}

	for _, b := range schema.Blocks {
		block := &domain.CatalogBlock{
			UsageKey:    usageKeys[b.ID],
			CourseKey:   courseKey,
			Type:        domain.BlockType(b.Type),
			DisplayName: b.DisplayName,
			Graded:      b.Graded,
			Format:      b.Format,
		}
		if b.Due != nil && *b.Due != "" {
			due, err := time.Parse(time.RFC3339, *b.Due)
			if err != nil {
				return nil, fmt.Errorf("parsing due of %s: %w", b.ID, err)
			}
			block.Due = &due
		}
		data.Blocks = append(data.Blocks, block)

		for pos, child := range b.Children {
			data.Relations = append(data.Relations, Relation{
				Parent:   block.UsageKey,
				Child:    usageKeys[child],
				Position: pos,
			})
		}
	}

	for _, u := range schema.Users {
		data.Users = append(data.Users, &domain.User{Username: u.Username, Email: u.Email, IsStaff: u.IsStaff})
	}

	for _, e := range schema.Enrollments {
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		data.Enrollments = append(data.Enrollments, UserEnrollment{Username: e.Username, Mode: e.Mode, IsActive: active})
	}

	for _, r := range schema.Roles {
		data.Roles = append(data.Roles, UserRole{Username: r.Username, Role: domain.CourseRole(r.Role)})
	}

	for _, c := range schema.Completions {
		modified, err := time.Parse(time.RFC3339, c.Modified)
		if err != nil {
			return nil, fmt.Errorf("parsing modified of %s/%s: %w", c.Username, c.Block, err)
		}
		value := 1.0
		if c.Completion != nil {
			value = *c.Completion
		}
		data.Completions = append(data.Completions, UserCompletion{
			Username:   c.Username,
			BlockKey:   usageKeys[c.Block],
			Completion: value,
			Modified:   modified,
		})
	}

	for _, g := range schema.Cohorts {
		data.Cohorts = append(data.Cohorts, Group{Name: g.Name, Members: g.Members})
	}
	for _, g := range schema.Teams {
		data.Teams = append(data.Teams, Group{Name: g.Name, Members: g.Members})
	}

	return data, nil
}
