package importer

import (
	"fmt"
	"regexp"
	"time"

	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/domain"
)

var blockIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-~]+$`)

// knownBlockTypes are the whitelisted types plus the containers that report
// building filters out.
var knownBlockTypes = func() map[string]bool {
	known := map[string]bool{
		"library_content": true,
		"split_test":      true,
		"conditional":     true,
		"itembank":        true,
	}
	for _, t := range domain.DefaultBlockTypes {
		known[string(t)] = true
	}
	return known
}()

// ValidateImportSchema checks a fixture before conversion and returns every
// problem found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	if schema.Course.Key == "" {
		errs = append(errs, fmt.Errorf("course.key is required"))
	} else if _, err := coursekey.Parse(schema.Course.Key); err != nil {
		errs = append(errs, fmt.Errorf("course.key: %w", err))
	}

	blockIDs := make(map[string]bool)
	errs = append(errs, validateBlocks(schema.Blocks, blockIDs)...)

	users := make(map[string]bool)
	errs = append(errs, validateUsers(schema.Users, users)...)
	errs = append(errs, validateEnrollments(schema.Enrollments, users)...)
	errs = append(errs, validateRoles(schema.Roles, users)...)
	errs = append(errs, validateCompletions(schema.Completions, users, blockIDs)...)
	errs = append(errs, validateGroups("cohorts", schema.Cohorts, users, true)...)
	errs = append(errs, validateGroups("teams", schema.Teams, users, false)...)

	return errs
}

func validateBlocks(blocks []BlockImport, ids map[string]bool) []error {
	var errs []error

	roots := 0
	for i, b := range blocks {
		prefix := fmt.Sprintf("blocks[%d]", i)

		switch {
		case b.ID == "":
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		case !blockIDPattern.MatchString(b.ID):
			errs = append(errs, fmt.Errorf("%s.id: invalid block id %q", prefix, b.ID))
		case ids[b.ID]:
			errs = append(errs, fmt.Errorf("%s.id: duplicate id %q", prefix, b.ID))
		default:
			ids[b.ID] = true
		}

		if b.Type == "" {
			errs = append(errs, fmt.Errorf("%s.type is required", prefix))
		} else if !knownBlockTypes[b.Type] {
			errs = append(errs, fmt.Errorf("%s.type: unknown block type %q", prefix, b.Type))
		}
		if b.Type == string(domain.BlockCourse) {
			roots++
		}

		if b.Due != nil && *b.Due != "" {
			if _, err := time.Parse(time.RFC3339, *b.Due); err != nil {
				errs = append(errs, fmt.Errorf("%s.due: invalid timestamp %q (expected RFC3339)", prefix, *b.Due))
			}
		}
	}

	if roots != 1 {
		errs = append(errs, fmt.Errorf("blocks: want exactly one block of type course, found %d", roots))
	}

	for i, b := range blocks {
		for j, child := range b.Children {
			if !ids[child] {
				errs = append(errs, fmt.Errorf("blocks[%d].children[%d]: block %q not found", i, j, child))
			}
		}
	}

	errs = append(errs, detectCycles(blocks)...)
	return errs
}

// detectCycles runs a white/gray/black DFS over the children graph.
func detectCycles(blocks []BlockImport) []error {
	graph := make(map[string][]string, len(blocks))
	var order []string
	for _, b := range blocks {
		if b.ID == "" {
			continue
		}
		if _, seen := graph[b.ID]; !seen {
			order = append(order, b.ID)
		}
		graph[b.ID] = append(graph[b.ID], b.Children...)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(graph))
	var errs []error

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, child := range graph[id] {
			if color[child] == gray {
				errs = append(errs, fmt.Errorf("blocks: cycle detected involving %q and %q", id, child))
				return true
			}
			if color[child] == white {
				if visit(child) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, id := range order {
		if color[id] == white {
			visit(id)
		}
	}
	return errs
}

func validateUsers(users []UserImport, known map[string]bool) []error {
	var errs []error
	emails := make(map[string]bool)

	for i, u := range users {
		prefix := fmt.Sprintf("users[%d]", i)

		if u.Username == "" {
			errs = append(errs, fmt.Errorf("%s.username is required", prefix))
		} else if known[u.Username] {
			errs = append(errs, fmt.Errorf("%s.username: duplicate username %q", prefix, u.Username))
		} else {
			known[u.Username] = true
		}

		if u.Email == "" {
			errs = append(errs, fmt.Errorf("%s.email is required", prefix))
		} else if emails[u.Email] {
			errs = append(errs, fmt.Errorf("%s.email: duplicate email %q", prefix, u.Email))
		} else {
			emails[u.Email] = true
		}
	}
	return errs
}

func validateUserRef(field, username string, users map[string]bool) error {
	if username == "" {
		return fmt.Errorf("%s is required", field)
	}
	if !users[username] {
		return fmt.Errorf("%s: user %q not found in users", field, username)
	}
	return nil
}

func validateEnrollments(enrollments []EnrollmentImport, users map[string]bool) []error {
	var errs []error
	seen := make(map[string]bool)

	for i, e := range enrollments {
		prefix := fmt.Sprintf("enrollments[%d]", i)
		if err := validateUserRef(prefix+".username", e.Username, users); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[e.Username] {
			errs = append(errs, fmt.Errorf("%s: user %q enrolled twice", prefix, e.Username))
		}
		seen[e.Username] = true
	}
	return errs
}

func validateRoles(roles []RoleImport, users map[string]bool) []error {
	var errs []error

	for i, r := range roles {
		prefix := fmt.Sprintf("roles[%d]", i)
		if err := validateUserRef(prefix+".username", r.Username, users); err != nil {
			errs = append(errs, err)
		}
		if r.Role == "" {
			errs = append(errs, fmt.Errorf("%s.role is required", prefix))
		} else if r.Role == string(domain.RoleStudent) {
			errs = append(errs, fmt.Errorf("%s.role: %q is implied by having no role", prefix, r.Role))
		}
	}
	return errs
}

func validateCompletions(completions []CompletionImport, users, blocks map[string]bool) []error {
	var errs []error

	for i, c := range completions {
		prefix := fmt.Sprintf("completions[%d]", i)
		if err := validateUserRef(prefix+".username", c.Username, users); err != nil {
			errs = append(errs, err)
		}

		if c.Block == "" {
			errs = append(errs, fmt.Errorf("%s.block is required", prefix))
		} else if !blocks[c.Block] {
			errs = append(errs, fmt.Errorf("%s.block: block %q not found", prefix, c.Block))
		}

		if c.Completion != nil && (*c.Completion < 0 || *c.Completion > 1) {
			errs = append(errs, fmt.Errorf("%s.completion must be between 0 and 1", prefix))
		}

		if c.Modified == "" {
			errs = append(errs, fmt.Errorf("%s.modified is required", prefix))
		} else if _, err := time.Parse(time.RFC3339, c.Modified); err != nil {
			errs = append(errs, fmt.Errorf("%s.modified: invalid timestamp %q (expected RFC3339)", prefix, c.Modified))
		}
	}
	return errs
}

// validateGroups checks cohorts or teams. A user may sit in only one
// exclusive group.
func validateGroups(kind string, groups []GroupImport, users map[string]bool, exclusive bool) []error {
	var errs []error
	names := make(map[string]bool)
	memberOf := make(map[string]string)

	for i, g := range groups {
		prefix := fmt.Sprintf("%s[%d]", kind, i)

		if g.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if names[g.Name] {
			errs = append(errs, fmt.Errorf("%s.name: duplicate name %q", prefix, g.Name))
		} else {
			names[g.Name] = true
		}

		for j, member := range g.Members {
			field := fmt.Sprintf("%s.members[%d]", prefix, j)
			if err := validateUserRef(field, member, users); err != nil {
				errs = append(errs, err)
				continue
			}
			if prev, ok := memberOf[member]; ok && exclusive {
				errs = append(errs, fmt.Errorf("%s: user %q already in %q", field, member, prev))
			}
			memberOf[member] = g.Name
		}
	}
	return errs
}
